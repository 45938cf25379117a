package definition_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/few"
	"github.com/aretw0/few/pkg/definition"
	"github.com/aretw0/few/pkg/domain"
	"github.com/aretw0/few/pkg/registry"
)

const counterYAML = `
name: counter
data:
  value: 3
  user:
    name: ana
actions:
  plusOne:
    fn: inc
    input:
      - value: ${data.value}
    output:
      data.value: ""
  greet:
    fn: concat
    input:
      - greeting: ${greeting}
      - name: ${data.user.name}
    output:
      data.message: ""
  reset:
    patch:
      data.value: 0
      data.last: ${data.value}
view: "# ${data.value}"
`

func TestParse_YAML(t *testing.T) {
	spec, err := definition.Parse([]byte(counterYAML), "yaml")
	require.NoError(t, err)

	want := definition.Spec{
		Name: "counter",
		Data: map[string]any{"value": 3, "user": map[string]any{"name": "ana"}},
		Actions: map[string]definition.ActionSpec{
			"plusOne": {
				Fn:     "inc",
				Input:  []map[string]any{{"value": "${data.value}"}},
				Output: map[string]string{"data.value": ""},
			},
			"greet": {
				Fn:     "concat",
				Input:  []map[string]any{{"greeting": "${greeting}"}, {"name": "${data.user.name}"}},
				Output: map[string]string{"data.message": ""},
			},
			"reset": {
				Patch: map[string]any{"data.value": 0, "data.last": "${data.value}"},
			},
		},
		View: "# ${data.value}",
	}
	if diff := cmp.Diff(want, spec); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_JSONKeepsIntegers(t *testing.T) {
	spec, err := definition.Parse([]byte(`{"name":"n","data":{"value":3}}`), ".json")
	require.NoError(t, err)
	assert.Equal(t, json.Number("3"), spec.Data["value"])
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format string
	}{
		{"unknown key", "name: x\ncolor: red", "yaml"},
		{"bad yaml", "name: [", "yaml"},
		{"bad json", "{", "json"},
		{"unknown format", "name: x", "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := definition.Parse([]byte(tt.data), tt.format)
			assert.Error(t, err)
		})
	}
}

func TestReadFile_DefaultsName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo-list.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data:\n  items: [a]\n"), 0o644))

	spec, err := definition.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "todo-list", spec.Name)
}

func TestBuild_EndToEnd(t *testing.T) {
	spec, err := definition.Parse([]byte(counterYAML), "yaml")
	require.NoError(t, err)

	def, err := definition.Build(spec, registry.NewDefault())
	require.NoError(t, err)

	engine := few.New()
	c, err := engine.InstantiateWithProps(def, map[string]any{"greeting": "hi "})
	require.NoError(t, err)

	require.NoError(t, c.Invoke("plusOne"))
	assert.Equal(t, 4, c.Data["value"])

	require.NoError(t, c.Invoke("greet"))
	assert.Equal(t, "hi ana", c.Data["message"])

	require.NoError(t, c.Invoke("reset"))
	assert.Equal(t, 0, c.Data["value"])
	assert.Equal(t, 4, c.Data["last"], "patch values are evaluated before any of them is applied")

	// instances do not share data
	other, err := engine.Instantiate(def)
	require.NoError(t, err)
	other.Data["user"].(map[string]any)["name"] = "bob"
	assert.Equal(t, "ana", c.Data["user"].(map[string]any)["name"])
}

func TestBuild_Errors(t *testing.T) {
	reg := registry.NewDefault()
	tests := []struct {
		name  string
		spec  definition.Spec
		field string
	}{
		{"missing name", definition.Spec{}, "name"},
		{"unknown fn", definition.Spec{Name: "c", Actions: map[string]definition.ActionSpec{"a": {Fn: "nope"}}}, "actions.a"},
		{"fn and patch", definition.Spec{Name: "c", Actions: map[string]definition.ActionSpec{"a": {Fn: "inc", Patch: map[string]any{}}}}, "actions.a"},
		{"empty action", definition.Spec{Name: "c", Actions: map[string]definition.ActionSpec{"a": {}}}, "actions.a"},
		{"multi-entry input", definition.Spec{Name: "c", Actions: map[string]definition.ActionSpec{
			"a": {Fn: "add", Input: []map[string]any{{"x": 1, "y": 2}}},
		}}, "actions.a"},
		{"unserializable data", definition.Spec{Name: "c", Data: map[string]any{"f": func() {}}}, "data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := definition.Build(tt.spec, reg)
			var defErr *domain.DefinitionError
			require.ErrorAs(t, err, &defErr)
			assert.Equal(t, tt.field, defErr.Field)
		})
	}
}
