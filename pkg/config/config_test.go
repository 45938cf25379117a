package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Formats(t *testing.T) {
	tests := []struct {
		ext  string
		data string
	}{
		{".yaml", `
base_url: https://cdn.example.com/
module_loader: http
server:
  addr: ":9000"
store:
  driver: redis
  ttl: 30m
`},
		{".toml", `
base_url = "https://cdn.example.com/"
module_loader = "http"
[server]
addr = ":9000"
[store]
driver = "redis"
ttl = "30m"
`},
		{".json", `{
  "base_url": "https://cdn.example.com/",
  "module_loader": "http",
  "server": {"addr": ":9000"},
  "store": {"driver": "redis", "ttl": "30m"}
}`},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.data), tt.ext)
			require.NoError(t, err)

			assert.Equal(t, "https://cdn.example.com/", cfg.BaseURL)
			assert.Equal(t, "http", cfg.ModuleLoader)
			assert.Equal(t, ":9000", cfg.Server.Addr)
			assert.Equal(t, DriverRedis, cfg.Store.Driver)
			assert.Equal(t, 30*time.Minute, cfg.Store.TTL)
			// untouched keys keep their defaults
			assert.Equal(t, "few:session:", cfg.Store.RedisPrefix)
			assert.Equal(t, 10*time.Second, cfg.Store.LockTTL)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		data string
	}{
		{"unknown key", ".yaml", "colour: blue"},
		{"bad driver", ".yaml", "store: {driver: sqlite}"},
		{"http without base url", ".yaml", "module_loader: http"},
		{"bad format", ".ini", "a=b"},
		{"bad yaml", ".yaml", "server: [unclosed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.ext)
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "few.yml")
	require.NoError(t, os.WriteFile(path, []byte("components: ./ui\nstore:\n  driver: bolt\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "./ui", cfg.Components)
	assert.Equal(t, DriverBolt, cfg.Store.Driver)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
}
