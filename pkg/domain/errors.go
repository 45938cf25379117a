package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrActionNotFound is returned when invoking an action the component does not define.
var ErrActionNotFound = errors.New("action not found")

// ErrComponentNotFound is returned when a loader has no definition for a name.
var ErrComponentNotFound = errors.New("component not found")

// ErrNoModuleLoader is returned by module loading when no loader was configured.
var ErrNoModuleLoader = errors.New("module loader is not defined")

// ErrNotSerializable is returned when a data definition holds functions or channels.
var ErrNotSerializable = errors.New("value is not serializable")

// ExpressionError reports an expression that failed to lex, parse or evaluate.
type ExpressionError struct {
	Expression string
	Err        error
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("evaluate('%s') => %s", e.Expression, e.Err.Error())
}

func (e *ExpressionError) Unwrap() error { return e.Err }

// PathResolutionError reports a path reference that cannot address a store location.
type PathResolutionError struct {
	Path   string
	Reason string
}

func (e *PathResolutionError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Reason)
}

// ActionInvocationError wraps an error returned by a user-supplied action function.
type ActionInvocationError struct {
	Action string
	Err    error
}

func (e *ActionInvocationError) Error() string {
	if e.Action == "" {
		return fmt.Sprintf("action failed: %s", e.Err.Error())
	}
	return fmt.Sprintf("action '%s' failed: %s", e.Action, e.Err.Error())
}

func (e *ActionInvocationError) Unwrap() error { return e.Err }

// DefinitionError reports a component definition that cannot be loaded or instantiated.
type DefinitionError struct {
	Component string
	Field     string
	Err       error
}

func (e *DefinitionError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("component '%s': %s", e.Component, e.Err.Error())
	}
	return fmt.Sprintf("component '%s': %s: %s", e.Component, e.Field, e.Err.Error())
}

func (e *DefinitionError) Unwrap() error { return e.Err }
