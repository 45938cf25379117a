package definition

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/few/pkg/domain"
)

// Spec is the decoded form of a component file.
type Spec struct {
	Name        string                `json:"name" mapstructure:"name"`
	Description string                `json:"description,omitempty" mapstructure:"description"`
	Data        map[string]any        `json:"data,omitempty" mapstructure:"data"`
	Actions     map[string]ActionSpec `json:"actions,omitempty" mapstructure:"actions"`
	View        any                   `json:"view,omitempty" mapstructure:"view"`
}

// ActionSpec declares one action. Exactly one of Fn and Patch must be set.
type ActionSpec struct {
	// Fn names a registry function; the action is structured.
	Fn string `json:"fn,omitempty" mapstructure:"fn"`

	// Input lists single-entry {name: template} mappings in binding order.
	Input []map[string]any `json:"input,omitempty" mapstructure:"input"`

	// Output maps store paths to sub-paths of the result. Entries apply in key order.
	Output map[string]string `json:"output,omitempty" mapstructure:"output"`

	// Deps is passed to Fn as this.
	Deps any `json:"deps,omitempty" mapstructure:"deps"`

	// Patch maps store paths to data definitions; the action is simple.
	Patch map[string]any `json:"patch,omitempty" mapstructure:"patch"`
}

// Decode converts a generic mapping, as produced by a YAML or JSON decoder, into a Spec.
// Unknown keys are rejected.
func Decode(raw map[string]any) (Spec, error) {
	var spec Spec
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &spec,
		ErrorUnused: true,
	})
	if err != nil {
		return Spec{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

// Parse decodes a component file. format is "yaml", "yml" or "json", with or without a dot.
// JSON numbers are kept as json.Number so integers stay integers.
func Parse(data []byte, format string) (Spec, error) {
	raw := make(map[string]any)
	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Spec{}, fmt.Errorf("invalid yaml: %w", err)
		}
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return Spec{}, fmt.Errorf("invalid json: %w", err)
		}
	default:
		return Spec{}, fmt.Errorf("unsupported definition format %q", format)
	}
	return Decode(raw)
}

// ReadFile parses the component file at path, choosing the format by extension.
// The name defaults to the file name without extension.
func ReadFile(path string) (Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, err
	}
	ext := filepath.Ext(path)
	spec, err := Parse(data, ext)
	if err != nil {
		return Spec{}, fmt.Errorf("%s: %w", path, err)
	}
	if spec.Name == "" {
		spec.Name = strings.TrimSuffix(filepath.Base(path), ext)
	}
	return spec, nil
}

// inputs flattens Input, rejecting entries that are not single-entry mappings.
func (a ActionSpec) inputs() ([]string, []any, error) {
	names := make([]string, 0, len(a.Input))
	templates := make([]any, 0, len(a.Input))
	for i, entry := range a.Input {
		if len(entry) != 1 {
			return nil, nil, fmt.Errorf("input[%d]: expected a single {name: template} entry, got %d", i, len(entry))
		}
		for name, tmpl := range entry {
			names = append(names, name)
			templates = append(templates, tmpl)
		}
	}
	return names, templates, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// definitionError tags err with the component and field it concerns.
func definitionError(component, field string, err error) error {
	return &domain.DefinitionError{Component: component, Field: field, Err: err}
}
