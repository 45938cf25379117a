package domain

import "time"

// Snapshot is the persisted form of a live component: enough to re-instantiate the same
// definition and restore its store after a restart.
type Snapshot struct {
	// SessionID identifies the session owning the instance.
	SessionID string `json:"session_id"`

	// Component is the definition name the instance was created from.
	Component string `json:"component"`

	// Data is a copy of the store at the time of the snapshot.
	Data Store `json:"data"`

	// Props are the caller props the instance was created with.
	Props map[string]any `json:"props,omitempty"`

	// Version increases by one on every saved change.
	Version int64 `json:"version"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewSnapshot captures c under sessionID. The store is copied shallowly.
func NewSnapshot(sessionID string, c *Component) *Snapshot {
	return &Snapshot{
		SessionID: sessionID,
		Component: c.Name,
		Data:      c.Data.Clone(),
		Props:     c.Props,
		UpdatedAt: time.Now(),
	}
}
