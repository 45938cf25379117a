package runtime

import (
	"errors"
	"fmt"

	"github.com/aretw0/few/pkg/domain"
)

// ValidateDefinition checks that every action of def has a body matching its kind.
func ValidateDefinition(def domain.ComponentDefinition) error {
	for name, a := range def.Actions {
		field := fmt.Sprintf("actions.%s", name)
		switch a.Kind {
		case domain.ActionSimple:
			if a.Simple == nil {
				return &domain.DefinitionError{Component: def.Name, Field: field, Err: errors.New("simple action without function")}
			}
		case domain.ActionStructured:
			if a.Fn == nil {
				return &domain.DefinitionError{Component: def.Name, Field: field, Err: errors.New("structured action without fn")}
			}
		default:
			return &domain.DefinitionError{Component: def.Name, Field: field, Err: fmt.Errorf("unknown action kind %s", a.Kind)}
		}
	}
	return nil
}
