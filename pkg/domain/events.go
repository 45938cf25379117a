package domain

import (
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventActionStart EventType = "action_start"
	EventActionEnd   EventType = "action_end"
	EventDispatch    EventType = "dispatch"
	EventRefresh     EventType = "refresh"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp   time.Time `json:"timestamp"`
	Type        EventType `json:"type"`
	ComponentID string    `json:"component_id"`
}

// ActionEvent represents the start or end of an action invocation.
type ActionEvent struct {
	EventBase
	Action   string        `json:"action"`
	Kind     ActionKind    `json:"kind"`
	Duration time.Duration `json:"duration,omitempty"`
	IsError  bool          `json:"is_error,omitempty"`
}

// DispatchEvent represents a patch applied to a store.
type DispatchEvent struct {
	EventBase
	Paths   []string `json:"paths"`
	Changed bool     `json:"changed"`
	IsError bool     `json:"is_error,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks run synchronously on the invoking goroutine.
type LifecycleHooks struct {
	OnActionStart func(*ActionEvent)
	OnActionEnd   func(*ActionEvent)
	OnDispatch    func(*DispatchEvent)
	OnRefresh     func(*Component)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnActionStart: chain(h.OnActionStart, other.OnActionStart),
		OnActionEnd:   chain(h.OnActionEnd, other.OnActionEnd),
		OnDispatch:    chain(h.OnDispatch, other.OnDispatch),
		OnRefresh:     chain(h.OnRefresh, other.OnRefresh),
	}
}

func chain[T any](a, b func(T)) func(T) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(v T) {
		a(v)
		b(v)
	}
}
