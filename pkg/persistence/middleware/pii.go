package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/few/pkg/datadef"
	"github.com/aretw0/few/pkg/domain"
	"github.com/aretw0/few/pkg/ports"
)

// Mask replaces the value of every masked key.
const Mask = "***"

type piiMiddleware struct {
	next     ports.StateStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks store values whose keys match any of
// the patterns, at any depth. The live component store is never modified.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.StateStore) ports.StateStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	data, err := datadef.Clone(map[string]any(snap.Data))
	if err != nil {
		return fmt.Errorf("failed to copy snapshot data: %w", err)
	}

	cloned := *snap
	cloned.Data = domain.Store(data.(map[string]any))
	m.mask(cloned.Data)

	return m.next.Save(ctx, sessionID, &cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) mask(v any) {
	switch x := v.(type) {
	case domain.Store:
		m.mask(map[string]any(x))
	case map[string]any:
		for k, sub := range x {
			if m.sensitive(k) {
				x[k] = Mask
				continue
			}
			m.mask(sub)
		}
	case []any:
		for _, sub := range x {
			m.mask(sub)
		}
	}
}

func (m *piiMiddleware) sensitive(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
