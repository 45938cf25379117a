package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestEvalCommand(t *testing.T) {
	out, err := execute(t, "eval", "value + 1", "--scope", `{"value": 3}`)
	require.NoError(t, err)
	assert.Equal(t, "4\n", out)

	out, err = execute(t, "eval", "items[0]", "--scope", `{"items": ["a"]}`)
	require.NoError(t, err)
	assert.Equal(t, "\"a\"\n", out)

	_, err = execute(t, "eval", "missing.key", "--scope", `{}`)
	assert.Error(t, err)
}

func TestPathCommand(t *testing.T) {
	out, err := execute(t, "path", "data.items[0]")
	require.NoError(t, err)
	assert.JSONEq(t, `{"scope": "data", "path": "items[0]"}`, out)

	_, err = execute(t, "path", ".value")
	assert.Error(t, err)
}

func TestResolveCommand(t *testing.T) {
	file := filepath.Join(t.TempDir(), "def.yaml")
	require.NoError(t, os.WriteFile(file, []byte("a: ${data.x}\nb: plain\n"), 0o644))

	out, err := execute(t, "resolve", file, "--scope", `{"data": {"x": 5}}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 5, "b": "plain"}`, out)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "few version ")
}
