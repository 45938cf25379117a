package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/few/pkg/adapters/memory"
	"github.com/aretw0/few/pkg/domain"
	contract "github.com/aretw0/few/pkg/ports/tests"
)

func TestInMemoryLoader_Contract(t *testing.T) {
	loader := memory.NewLoader(
		domain.ComponentDefinition{Name: "counter"},
		domain.ComponentDefinition{Name: "AwButton"},
	)
	contract.ComponentLoaderContractTest(t, loader, []string{"counter", "AwButton"})
}

func TestInMemoryLoader_NameForms(t *testing.T) {
	loader := memory.NewLoader(domain.ComponentDefinition{Name: "AwButton"})

	for _, name := range []string{"AwButton", "aw-button", "awButton"} {
		def, err := loader.GetComponent(context.Background(), name)
		require.NoError(t, err, name)
		assert.Equal(t, "AwButton", def.Name)
	}
}
