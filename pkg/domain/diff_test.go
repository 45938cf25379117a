package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name     string
		old      Store
		new      Store
		wantData map[string]any // nil means we expect no diff
	}{
		{
			name:     "Initial Load (Old is Nil)",
			old:      nil,
			new:      Store{"a": 1},
			wantData: map[string]any{"a": 1},
		},
		{
			name:     "No Changes",
			old:      Store{"a": 1, "nested": map[string]any{"x": 1}},
			new:      Store{"a": 1, "nested": map[string]any{"x": 1}},
			wantData: nil,
		},
		{
			name:     "Added & Modified",
			old:      Store{"a": 1, "b": "old"},
			new:      Store{"a": 1, "b": "new", "c": true},
			wantData: map[string]any{"b": "new", "c": true},
		},
		{
			name:     "Nested Change Reported At Top Level",
			old:      Store{"user": map[string]any{"name": "a"}},
			new:      Store{"user": map[string]any{"name": "b"}},
			wantData: map[string]any{"user": map[string]any{"name": "b"}},
		},
		{
			name:     "Deletion",
			old:      Store{"a": 1, "b": 2},
			new:      Store{"a": 1},
			wantData: map[string]any{"b": nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff("cmp-1", tt.old, tt.new)
			if tt.wantData == nil {
				if got != nil {
					t.Errorf("Diff() = %v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("Diff() = nil, want %v", tt.wantData)
			}
			if got.ComponentID != "cmp-1" {
				t.Errorf("Diff().ComponentID = %v, want cmp-1", got.ComponentID)
			}
			if !reflect.DeepEqual(got.Data, tt.wantData) {
				t.Errorf("Diff().Data = %v, want %v", got.Data, tt.wantData)
			}
		})
	}
}

func TestDiffJSONSerialization(t *testing.T) {
	t.Run("Deletions as Null", func(t *testing.T) {
		diff := Diff("c", Store{"a": 1, "b": 2}, Store{"a": 1})
		if diff == nil {
			t.Fatal("Expected diff, got nil")
		}

		bytes, _ := json.Marshal(diff)
		if !strings.Contains(string(bytes), `"b":null`) {
			t.Errorf("JSON should contain 'b':null for deletion, got: %s", string(bytes))
		}
	})

	t.Run("Empty Diff", func(t *testing.T) {
		var diff *StoreDiff
		if !diff.IsEmpty() {
			t.Error("nil diff should be empty")
		}
	})
}
