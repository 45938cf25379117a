package runtime

import (
	"errors"
	"fmt"
	"sort"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/aretw0/few/pkg/datadef"
	"github.com/aretw0/few/pkg/domain"
	"github.com/aretw0/few/pkg/expr"
	"github.com/aretw0/few/pkg/store"
)

// CreateAction binds def to c and returns the invoker.
//
// Simple actions receive c directly. Structured actions resolve their inputs against a scope
// built from c, call Fn with Deps as this and the inputs positionally in declaration order,
// then dispatch the output patch. Errors are returned to the caller as they occur: nothing is
// retried and no patch is dispatched after a failure.
func CreateAction(name string, def domain.ActionDefinition, c *domain.Component) func() error {
	if def.Kind == domain.ActionSimple {
		return func() error {
			return def.Simple(c)
		}
	}

	return func() error {
		args, err := resolveArgs(def.Input, Scope(c))
		if err != nil {
			return fmt.Errorf("resolving inputs of %s: %w", name, err)
		}

		result, err := def.Fn(def.Deps, args...)
		if err != nil {
			return &domain.ActionInvocationError{Action: name, Err: err}
		}

		patch := OutputPatch(def.Output, result)
		if patch == nil {
			return nil
		}
		return c.Dispatch(domain.Action{Value: patch})
	}
}

// Scope is the evaluation scope of structured action inputs: the component props, then the
// instance fields data, actions, dispatch and props, and vm, the scope itself.
// It is a fresh map, so assignments to it never reach the component.
func Scope(c *domain.Component) map[string]any {
	scope := make(map[string]any, len(c.Props)+5)
	for k, v := range c.Props {
		scope[k] = v
	}
	scope["data"] = c.Data
	scope["actions"] = actionFuncs(c)
	scope["dispatch"] = dispatchFunc(c)
	scope["props"] = c.Props
	scope["vm"] = scope
	return scope
}

// actionFuncs exposes the bound actions as expression functions, so "${actions.reset()}"
// invokes them.
func actionFuncs(c *domain.Component) map[string]any {
	out := make(map[string]any, len(c.Actions))
	for name, fn := range c.Actions {
		fn := fn
		out[name] = expr.Func(func(...any) (any, error) {
			return domain.Absent, fn()
		})
	}
	return out
}

// dispatchFunc exposes c.Dispatch to expressions. It accepts either {value: {path: v}} or a
// bare {path: v} mapping; map keys are applied in sorted order.
func dispatchFunc(c *domain.Component) expr.Func {
	return func(args ...any) (any, error) {
		if len(args) == 0 {
			return domain.Absent, nil
		}
		arg := args[0]
		if m, ok := arg.(map[string]any); ok {
			if v, ok := m["value"]; ok && len(m) == 1 {
				arg = v
			}
		}
		patch, err := toPatch(arg)
		if err != nil {
			return nil, err
		}
		return domain.Absent, c.Dispatch(domain.Action{Value: patch})
	}
}

func toPatch(v any) (*domain.Patch, error) {
	switch p := v.(type) {
	case *domain.Patch:
		return p, nil
	case map[string]any:
		keys := make([]string, 0, len(p))
		for k := range p {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		patch := domain.NewPatch()
		for _, k := range keys {
			patch.Set(k, p[k])
		}
		return patch, nil
	case *orderedmap.OrderedMap[string, any]:
		patch := domain.NewPatch()
		for pair := p.Oldest(); pair != nil; pair = pair.Next() {
			patch.Set(pair.Key, pair.Value)
		}
		return patch, nil
	}
	if v == nil || domain.IsAbsent(v) {
		return nil, nil
	}
	return nil, fmt.Errorf("dispatch expects a mapping of paths to values, got %T", v)
}

// resolveArgs evaluates the input definition and flattens it into positional arguments.
// An absent resolution means no arguments.
func resolveArgs(input *orderedmap.OrderedMap[string, any], scope map[string]any) ([]any, error) {
	if input == nil {
		return nil, nil
	}
	resolved, err := datadef.Evaluate(input, scope)
	if err != nil {
		return nil, err
	}
	om, ok := resolved.(*orderedmap.OrderedMap[string, any])
	if !ok {
		return nil, nil
	}
	args := make([]any, 0, om.Len())
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		args = append(args, pair.Value)
	}
	return args, nil
}

// OutputPatch maps result into a patch following output: each target receives the sub-path
// of result it names, or the whole result for an empty sub-path. A nil output yields nil.
func OutputPatch(output *orderedmap.OrderedMap[string, string], result any) *domain.Patch {
	if output == nil {
		return nil
	}
	patch := domain.NewPatch()
	for pair := output.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value != "" {
			patch.Set(pair.Key, store.Get(result, pair.Value))
		} else {
			patch.Set(pair.Key, result)
		}
	}
	return patch
}

// instrument wraps an invoker with lifecycle hooks and logging.
func (e *Engine) instrument(name string, kind domain.ActionKind, c *domain.Component, fn func() error) func() error {
	return func() error {
		start := time.Now()
		if e.hooks.OnActionStart != nil {
			e.hooks.OnActionStart(&domain.ActionEvent{
				EventBase: domain.EventBase{Timestamp: start, Type: domain.EventActionStart, ComponentID: c.ID},
				Action:    name,
				Kind:      kind,
			})
		}

		err := fn()

		if e.hooks.OnActionEnd != nil {
			e.hooks.OnActionEnd(&domain.ActionEvent{
				EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventActionEnd, ComponentID: c.ID},
				Action:    name,
				Kind:      kind,
				Duration:  time.Since(start),
				IsError:   err != nil,
			})
		}

		if err != nil {
			var invErr *domain.ActionInvocationError
			if errors.As(err, &invErr) {
				e.logger.Warn("action function failed", "component", c.Name, "action", name, "err", err)
			} else {
				e.logger.Error("action failed", "component", c.Name, "action", name, "err", err)
			}
			return err
		}
		e.logger.Debug("action invoked", "component", c.Name, "action", name, "duration", time.Since(start))
		return nil
	}
}
