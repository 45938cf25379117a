package definition

import (
	"errors"
	"fmt"

	"github.com/aretw0/few"
	"github.com/aretw0/few/pkg/datadef"
	"github.com/aretw0/few/pkg/domain"
	"github.com/aretw0/few/pkg/registry"
)

// Build turns spec into a definition whose structured actions call functions from reg.
// Each instance receives its own deep copy of spec.Data.
func Build(spec Spec, reg *registry.Registry) (domain.ComponentDefinition, error) {
	if spec.Name == "" {
		return domain.ComponentDefinition{}, definitionError("", "name", errors.New("name is required"))
	}
	if _, err := datadef.Clone(spec.Data); err != nil {
		return domain.ComponentDefinition{}, definitionError(spec.Name, "data", err)
	}

	def := domain.ComponentDefinition{
		Name:    spec.Name,
		Actions: make(map[string]domain.ActionDefinition, len(spec.Actions)),
		View:    spec.View,
	}
	if spec.Data != nil {
		data := spec.Data
		def.Data = func() domain.Store {
			cloned, _ := datadef.Clone(data)
			return domain.Store(cloned.(map[string]any))
		}
	}

	for _, name := range sortedKeys(spec.Actions) {
		action, err := buildAction(spec.Actions[name], reg)
		if err != nil {
			return domain.ComponentDefinition{}, definitionError(spec.Name, "actions."+name, err)
		}
		def.Actions[name] = action
	}
	return def, nil
}

func buildAction(a ActionSpec, reg *registry.Registry) (domain.ActionDefinition, error) {
	switch {
	case a.Fn != "" && a.Patch != nil:
		return domain.ActionDefinition{}, errors.New("fn and patch are mutually exclusive")
	case a.Patch != nil:
		return patchAction(a.Patch), nil
	case a.Fn == "":
		return domain.ActionDefinition{}, errors.New("one of fn or patch is required")
	}

	if reg == nil {
		return domain.ActionDefinition{}, fmt.Errorf("function not found: %s", a.Fn)
	}
	fn, err := reg.Get(a.Fn)
	if err != nil {
		return domain.ActionDefinition{}, err
	}

	names, templates, err := a.inputs()
	if err != nil {
		return domain.ActionDefinition{}, err
	}
	opts := make([]domain.StructuredOption, 0, len(names)+len(a.Output)+1)
	for i, name := range names {
		opts = append(opts, domain.WithInput(name, templates[i]))
	}
	for _, target := range sortedKeys(a.Output) {
		opts = append(opts, domain.WithOutput(target, a.Output[target]))
	}
	if a.Deps != nil {
		opts = append(opts, domain.WithDeps(a.Deps))
	}
	return domain.Structured(fn, opts...), nil
}

// patchAction evaluates every patch value against the component scope and dispatches the
// result as one patch, in key order.
func patchAction(patch map[string]any) domain.ActionDefinition {
	keys := sortedKeys(patch)
	return domain.Simple(func(c *domain.Component) error {
		scope := few.Scope(c)
		p := domain.NewPatch()
		for _, ref := range keys {
			v, err := datadef.Evaluate(patch[ref], scope)
			if err != nil {
				return fmt.Errorf("patch %s: %w", ref, err)
			}
			p.Set(ref, v)
		}
		return c.Dispatch(domain.Action{Value: p})
	})
}
