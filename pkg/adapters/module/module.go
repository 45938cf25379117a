// Package module implements ports.ModuleLoader over HTTP and the local file system.
//
// A module is any document a component depends on. Loaders decode JSON and YAML modules by
// extension (or content type) and return everything else as a string.
package module

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/few/pkg/config"
	"github.com/aretw0/few/pkg/ports"
)

// maxModuleSize caps how much of a remote module is read.
const maxModuleSize = 8 << 20

// HTTPLoader fetches modules relative to a base URL.
type HTTPLoader struct {
	base   *url.URL
	client *http.Client
}

// HTTPOption configures an HTTPLoader.
type HTTPOption func(*HTTPLoader)

// WithClient replaces http.DefaultClient.
func WithClient(c *http.Client) HTTPOption {
	return func(l *HTTPLoader) {
		l.client = c
	}
}

// NewHTTP creates a loader resolving relative references against baseURL.
// An empty baseURL only accepts absolute references.
func NewHTTP(baseURL string, opts ...HTTPOption) (*HTTPLoader, error) {
	l := &HTTPLoader{client: http.DefaultClient}
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base url: %w", err)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		l.base = u
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Resolve returns the absolute URL of dep.
func (l *HTTPLoader) Resolve(dep string) (string, error) {
	ref, err := url.Parse(dep)
	if err != nil {
		return "", fmt.Errorf("invalid module reference %q: %w", dep, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	if l.base == nil {
		return "", fmt.Errorf("relative module reference %q without a base url", dep)
	}
	return l.base.ResolveReference(ref).String(), nil
}

// Load fetches and decodes dep.
func (l *HTTPLoader) Load(ctx context.Context, dep string) (any, error) {
	target, err := l.Resolve(dep)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: unexpected status %s", target, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxModuleSize))
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", target, err)
	}

	format := path.Ext(req.URL.Path)
	if mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil {
		switch {
		case mt == "application/json" || strings.HasSuffix(mt, "+json"):
			format = ".json"
		case strings.Contains(mt, "yaml"):
			format = ".yaml"
		}
	}
	return decode(body, format)
}

// FileLoader reads modules relative to a directory.
type FileLoader struct {
	root string
}

// NewFile creates a loader reading from root.
func NewFile(root string) *FileLoader {
	return &FileLoader{root: root}
}

// Load reads and decodes dep. References may not escape the root directory.
func (l *FileLoader) Load(_ context.Context, dep string) (any, error) {
	clean := filepath.Clean(filepath.FromSlash(dep))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("module reference %q escapes %s", dep, l.root)
	}
	data, err := os.ReadFile(filepath.Join(l.root, clean))
	if err != nil {
		return nil, err
	}
	return decode(data, filepath.Ext(clean))
}

// FromConfig builds the loader cfg.ModuleLoader names, or returns nil when it is empty.
func FromConfig(cfg *config.Config) (ports.ModuleLoader, error) {
	switch cfg.ModuleLoader {
	case "":
		return nil, nil
	case "http":
		l, err := NewHTTP(cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		return l, nil
	case "file":
		root := cfg.BaseURL
		if root == "" {
			root = "."
		}
		return NewFile(root), nil
	}
	return nil, fmt.Errorf("unknown module loader %q", cfg.ModuleLoader)
}

func decode(data []byte, format string) (any, error) {
	switch strings.ToLower(format) {
	case ".json":
		var v any
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("invalid json module: %w", err)
		}
		return v, nil
	case ".yaml", ".yml":
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("invalid yaml module: %w", err)
		}
		return v, nil
	}
	return string(data), nil
}
