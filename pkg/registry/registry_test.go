package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/few/pkg/registry"
)

func TestRegistry(t *testing.T) {
	r := registry.NewRegistry()
	r.Register("answer", func(this any, args ...any) (any, error) { return 42, nil })

	got, err := r.Execute("answer", nil)
	require.NoError(t, err)
	assert.Equal(t, 42, got)

	_, err = r.Get("missing")
	assert.EqualError(t, err, "function not found: missing")
	assert.Equal(t, []string{"answer"}, r.Names())
}

func TestBuiltins(t *testing.T) {
	r := registry.NewDefault()

	tests := []struct {
		name string
		args []any
		want any
	}{
		{"inc", []any{3}, 4},
		{"inc", []any{1.5}, 2.5},
		{"dec", []any{3}, 2},
		{"add", []any{1, 2, 3}, 6},
		{"add", nil, 0},
		{"identity", []any{"x"}, "x"},
		{"concat", []any{"a", 1, true}, "a1true"},
		{"not", []any{0}, true},
		{"not", []any{"x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Execute(tt.name, nil, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuiltins_Arity(t *testing.T) {
	r := registry.NewDefault()
	for _, name := range []string{"inc", "dec", "identity", "not"} {
		_, err := r.Execute(name, nil)
		assert.Error(t, err, name)
	}
}
