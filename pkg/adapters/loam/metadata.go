package loam

import (
	"github.com/aretw0/few/pkg/definition"
)

// ComponentMetadata is the frontmatter of a component document.
// It uses "mapstructure" tags to match standard Frontmatter/YAML keys.
// The document body, when present, is the component view.
type ComponentMetadata struct {
	// ID overrides the name derived from the file name.
	ID          string                           `json:"id" mapstructure:"id"`
	Name        string                           `json:"name" mapstructure:"name"`
	Description string                           `json:"description" mapstructure:"description"`
	Data        map[string]any                   `json:"data" mapstructure:"data"`
	Actions     map[string]definition.ActionSpec `json:"actions" mapstructure:"actions"`

	// View is used when the document has no body, e.g. in JSON or YAML documents.
	View any `json:"view" mapstructure:"view"`
}

// spec converts the frontmatter and body into a definition spec named name.
func (m ComponentMetadata) spec(name, content string) definition.Spec {
	spec := definition.Spec{
		Name:        name,
		Description: m.Description,
		Data:        m.Data,
		Actions:     m.Actions,
		View:        m.View,
	}
	if content != "" {
		spec.View = content
	}
	return spec
}
