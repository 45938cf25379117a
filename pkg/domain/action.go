package domain

import (
	"fmt"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Action is the message routed by the dispatcher.
// A nil or empty Value is a no-op.
type Action struct {
	Value *Patch `json:"value,omitempty"`
}

// ActionKind discriminates the two action variants.
type ActionKind int

const (
	// ActionSimple actions are plain functions receiving the live component.
	ActionSimple ActionKind = iota + 1
	// ActionStructured actions map declared inputs through Fn into output paths.
	ActionStructured
)

func (k ActionKind) String() string {
	switch k {
	case ActionSimple:
		return "simple"
	case ActionStructured:
		return "structured"
	default:
		return fmt.Sprintf("ActionKind(%d)", int(k))
	}
}

// SimpleFunc is the body of a simple action.
type SimpleFunc func(c *Component) error

// ActionFunc is the body of a structured action. It receives the Deps binding as this
// and the resolved inputs positionally, in declaration order.
type ActionFunc func(this any, args ...any) (any, error)

// ActionDefinition is a named unit of behavior, either Simple or Structured.
//
// For structured actions, Input is an ordered mapping of argument name to data definition and
// Output maps a store path to a sub-path into the function result ("" means the whole result).
// Arguments are bound to Fn by position, following Input's order and not its names:
// reordering Input changes which parameter receives which value.
type ActionDefinition struct {
	Kind   ActionKind
	Simple SimpleFunc

	Input  *orderedmap.OrderedMap[string, any]
	Fn     ActionFunc
	Deps   any
	Output *orderedmap.OrderedMap[string, string]
}

// StructuredOption configures a structured action.
type StructuredOption func(*ActionDefinition)

// Simple wraps fn as a simple action.
func Simple(fn SimpleFunc) ActionDefinition {
	return ActionDefinition{Kind: ActionSimple, Simple: fn}
}

// Structured builds a structured action around fn.
func Structured(fn ActionFunc, opts ...StructuredOption) ActionDefinition {
	def := ActionDefinition{Kind: ActionStructured, Fn: fn}
	for _, opt := range opts {
		opt(&def)
	}
	return def
}

// WithInput appends a named input. Its template is a data definition evaluated against the
// component scope, e.g. "${data.value}".
// Inputs reach Fn positionally in the order they were added: reordering them changes which
// parameter receives which value.
func WithInput(name string, template any) StructuredOption {
	return func(d *ActionDefinition) {
		if d.Input == nil {
			d.Input = orderedmap.New[string, any]()
		}
		d.Input.Set(name, template)
	}
}

// WithOutput maps the sub-path source of the function result into the store path target.
func WithOutput(target, source string) StructuredOption {
	return func(d *ActionDefinition) {
		if d.Output == nil {
			d.Output = orderedmap.New[string, string]()
		}
		d.Output.Set(target, source)
	}
}

// WithDeps sets the value Fn receives as this.
func WithDeps(deps any) StructuredOption {
	return func(d *ActionDefinition) {
		d.Deps = deps
	}
}

// InputNames returns the declared input names in binding order.
func (d ActionDefinition) InputNames() []string {
	if d.Input == nil {
		return nil
	}
	names := make([]string, 0, d.Input.Len())
	for pair := d.Input.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Component is a live component instance.
// Actions are closures bound to this instance; Dispatch routes patches into Data.
type Component struct {
	ID       string
	Name     string
	Data     Store
	Props    map[string]any
	Actions  map[string]func() error
	Dispatch func(Action) error
	View     any
}

// Invoke runs the named action.
func (c *Component) Invoke(name string) error {
	fn, ok := c.Actions[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrActionNotFound, name)
	}
	return fn()
}

// ActionNames returns the bound action names, sorted.
func (c *Component) ActionNames() []string {
	names := make([]string, 0, len(c.Actions))
	for name := range c.Actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ComponentDefinition is what an application author supplies: a data initializer,
// named actions and an opaque view handed to the rendering collaborator untouched.
type ComponentDefinition struct {
	Name    string
	Data    func() Store
	Actions map[string]ActionDefinition
	View    any
}
