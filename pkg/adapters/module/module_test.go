package module_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/few"
	"github.com/aretw0/few/pkg/adapters/module"
	"github.com/aretw0/few/pkg/config"
	"github.com/aretw0/few/pkg/domain"
)

func TestHTTPLoader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/lib/greeting.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"text":"hi","n":2}`))
		case "/lib/script.js":
			_, _ = w.Write([]byte(`export default 1`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	loader, err := module.NewHTTP(srv.URL + "/lib")
	require.NoError(t, err)
	ctx := context.Background()

	v, err := loader.Load(ctx, "greeting.json")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"text": "hi", "n": json.Number("2")}, v)

	v, err = loader.Load(ctx, "script.js")
	require.NoError(t, err)
	assert.Equal(t, "export default 1", v)

	v, err = loader.Load(ctx, srv.URL+"/lib/script.js")
	require.NoError(t, err)
	assert.Equal(t, "export default 1", v)

	_, err = loader.Load(ctx, "missing.json")
	assert.ErrorContains(t, err, "404")
}

func TestHTTPLoader_RelativeWithoutBase(t *testing.T) {
	loader, err := module.NewHTTP("")
	require.NoError(t, err)
	_, err = loader.Load(context.Background(), "x.json")
	assert.ErrorContains(t, err, "without a base url")
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "items.yaml"), []byte("- a\n- b\n"), 0o644))
	loader := module.NewFile(dir)
	ctx := context.Background()

	v, err := loader.Load(ctx, "items.yaml")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, v)

	_, err = loader.Load(ctx, "../secret")
	assert.ErrorContains(t, err, "escapes")
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	l, err := module.FromConfig(cfg)
	require.NoError(t, err)
	assert.Nil(t, l)

	cfg.ModuleLoader = "file"
	cfg.BaseURL = t.TempDir()
	l, err = module.FromConfig(cfg)
	require.NoError(t, err)
	assert.IsType(t, &module.FileLoader{}, l)

	cfg.ModuleLoader = "ftp"
	_, err = module.FromConfig(cfg)
	assert.Error(t, err)
}

func TestEngineLoadModule(t *testing.T) {
	_, err := few.New().LoadModule(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrNoModuleLoader)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "m.txt"), []byte("hello"), 0o644))
	v, err := few.New(few.WithModuleLoader(module.NewFile(dir))).LoadModule(context.Background(), "m.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", v)
}
