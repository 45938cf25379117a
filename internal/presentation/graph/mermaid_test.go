package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/few/internal/presentation/graph"
	"github.com/aretw0/few/pkg/domain"
)

func fn(this any, args ...any) (any, error) { return nil, nil }

func TestGenerateMermaid(t *testing.T) {
	def := domain.ComponentDefinition{
		Name: "counter",
		Actions: map[string]domain.ActionDefinition{
			"plus-one": domain.Structured(fn,
				domain.WithInput("value", "${data.value}"),
				domain.WithInput("step", "${props.step}"),
				domain.WithOutput("data.value", ""),
			),
			"rename": domain.Structured(fn,
				domain.WithInput("user", map[string]any{"first": "${data.user.first}"}),
				domain.WithOutput("data.user.name", "full"),
			),
			"reset": domain.Simple(func(c *domain.Component) error { return nil }),
		},
	}

	tests := []struct {
		name     string
		overlay  *graph.GraphOverlay
		contains []string
		excludes []string
	}{
		{
			name: "Shapes",
			contains: []string{
				`action_plus_one["plus-one"]`,
				`action_reset[["reset"]]`,
				`path_data_value[/"data.value"/]`,
			},
		},
		{
			name: "Edges",
			contains: []string{
				`path_data_value -.-> action_plus_one`,
				`action_plus_one -- "result" --> path_data_value`,
				`path_data_user_first -.-> action_rename`,
				`action_rename -- "full" --> path_data_user_name`,
			},
			excludes: []string{"props_step"},
		},
		{
			name:    "Overlay",
			overlay: &graph.GraphOverlay{ChangedPaths: []string{"data.value", "data.value", "data.unknown"}, LastAction: "plus-one"},
			contains: []string{
				"class path_data_value changed;",
				"class action_plus_one current;",
			},
			excludes: []string{"path_data_unknown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(def, tt.overlay)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("GenerateMermaid() = \n%v\nUnexpected substring: %v", got, unwanted)
				}
			}
			if strings.Count(got, "class path_data_value changed;") > 1 {
				t.Errorf("changed path styled twice:\n%v", got)
			}
		})
	}
}
