// Package loam loads component definitions from a Loam repository: Markdown documents whose
// frontmatter declares data and actions and whose body is the view, or plain JSON/YAML
// documents with the same keys.
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"

	"github.com/aretw0/few/pkg/definition"
	"github.com/aretw0/few/pkg/domain"
	"github.com/aretw0/few/pkg/naming"
	"github.com/aretw0/few/pkg/registry"
)

// Loader adapts the Loam library to the ports.ComponentLoader interface.
type Loader struct {
	Repo     *loam.TypedRepository[ComponentMetadata]
	Registry *registry.Registry
}

// New creates a new Loam adapter resolving action functions in reg.
func New(repo *loam.TypedRepository[ComponentMetadata], reg *registry.Registry) *Loader {
	if reg == nil {
		reg = registry.NewDefault()
	}
	return &Loader{
		Repo:     repo,
		Registry: reg,
	}
}

// Open initializes a read-only Loam repository at dir and wraps it.
// Strict mode makes every adapter decode numbers as json.Number.
func Open(dir string, reg *registry.Registry) (*Loader, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	repo, err := loam.Init(abs,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[ComponentMetadata](repo), reg), nil
}

// document is one component document and the name it is published under.
type document struct {
	name    string
	path    string
	meta    ComponentMetadata
	content string
}

// documents lists every document, failing when two resolve to the same component name.
func (l *Loader) documents(ctx context.Context) (map[string]document, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	byName := make(map[string]document, len(docs))
	for _, doc := range docs {
		name := doc.Data.Name
		if name == "" {
			name = doc.Data.ID
		}
		if name == "" {
			name = doc.ID
		}
		name = trimExtension(name)

		key := naming.Canonical(name)
		if existing, ok := byName[key]; ok {
			return nil, fmt.Errorf("collision detected: component '%s' is defined in both '%s' and '%s'", name, existing.path, doc.ID)
		}
		byName[key] = document{name: name, path: doc.ID, meta: doc.Data, content: doc.Content}
	}
	return byName, nil
}

// GetComponent builds the definition of the named component. Names match in any spelling
// ("TodoList", "todo-list").
func (l *Loader) GetComponent(ctx context.Context, name string) (domain.ComponentDefinition, error) {
	docs, err := l.documents(ctx)
	if err != nil {
		return domain.ComponentDefinition{}, err
	}
	doc, ok := docs[naming.Canonical(trimExtension(name))]
	if !ok {
		return domain.ComponentDefinition{}, fmt.Errorf("%w: %s", domain.ErrComponentNotFound, name)
	}

	def, err := definition.Build(doc.meta.spec(doc.name, strings.TrimSpace(doc.content)), l.Registry)
	if err != nil {
		return domain.ComponentDefinition{}, fmt.Errorf("loading %s: %w", doc.path, err)
	}
	return def, nil
}

// ListComponents lists all component names in the repository, sorted.
func (l *Loader) ListComponents(ctx context.Context) ([]string, error) {
	docs, err := l.documents(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(docs))
	for _, doc := range docs {
		names = append(names, doc.name)
	}
	sort.Strings(names)
	return names, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Watch implements ports.Watchable. It emits the document path (without extension) of
// every changed component file.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}
