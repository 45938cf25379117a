package domain

import (
	"reflect"
)

// StoreDiff represents the changes between two snapshots of a component store.
// It is designed to be serialized to JSON for partial updates on the client.
type StoreDiff struct {
	// ComponentID is always present to identify the target.
	ComponentID string `json:"component_id"`

	// Data contains only changed, added or deleted top-level keys.
	// For deletions, the key is present with a nil value.
	// Clients should merge these updates into their local copy.
	Data map[string]any `json:"data,omitempty"`
}

// Diff calculates the top-level difference between two store snapshots.
// If old is nil, it returns a diff representing the entire new store (initial load).
// It returns nil when nothing changed.
func Diff(componentID string, old, new Store) *StoreDiff {
	if new == nil && old == nil {
		return nil
	}

	delta := make(map[string]any)

	// Added or modified
	for k, newVal := range new {
		oldVal, exists := old[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}

	// Deleted
	for k := range old {
		if _, exists := new[k]; !exists {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}

	return &StoreDiff{
		ComponentID: componentID,
		Data:        delta,
	}
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StoreDiff) IsEmpty() bool {
	return d == nil || len(d.Data) == 0
}
