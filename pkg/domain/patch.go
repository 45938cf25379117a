package domain

import (
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Patch is a flat, ordered set of path reference -> value updates.
// Entries are applied in insertion order; setting an existing reference
// keeps its position and replaces its value.
type Patch struct {
	entries *orderedmap.OrderedMap[string, any]
}

// NewPatch creates an empty patch.
func NewPatch() *Patch {
	return &Patch{entries: orderedmap.New[string, any]()}
}

// PatchOf builds a patch from alternating reference/value pairs.
// It panics on an odd argument count or a non-string reference, so it is meant for literals.
func PatchOf(pairs ...any) *Patch {
	if len(pairs)%2 != 0 {
		panic("domain.PatchOf: odd number of arguments")
	}
	p := NewPatch()
	for i := 0; i < len(pairs); i += 2 {
		ref, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("domain.PatchOf: reference at %d is %T, not string", i, pairs[i]))
		}
		p.Set(ref, pairs[i+1])
	}
	return p
}

// Set adds or replaces the value for ref and returns the patch for chaining.
func (p *Patch) Set(ref string, value any) *Patch {
	p.init()
	p.entries.Set(ref, value)
	return p
}

// Get returns the value recorded for ref.
func (p *Patch) Get(ref string) (any, bool) {
	if p == nil || p.entries == nil {
		return nil, false
	}
	return p.entries.Get(ref)
}

// Len returns the number of entries. A nil patch is empty.
func (p *Patch) Len() int {
	if p == nil || p.entries == nil {
		return 0
	}
	return p.entries.Len()
}

// Keys returns the references in application order.
func (p *Patch) Keys() []string {
	keys := make([]string, 0, p.Len())
	_ = p.Each(func(ref string, _ any) error {
		keys = append(keys, ref)
		return nil
	})
	return keys
}

// Each calls fn for every entry in order and stops at the first error.
func (p *Patch) Each(fn func(ref string, value any) error) error {
	if p.Len() == 0 {
		return nil
	}
	for pair := p.entries.Oldest(); pair != nil; pair = pair.Next() {
		if err := fn(pair.Key, pair.Value); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON encodes the patch as a JSON object preserving entry order.
func (p *Patch) MarshalJSON() ([]byte, error) {
	if p.Len() == 0 {
		return []byte("{}"), nil
	}
	return p.entries.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object, keeping the order of its keys.
func (p *Patch) UnmarshalJSON(data []byte) error {
	p.entries = orderedmap.New[string, any]()
	if err := p.entries.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("invalid patch: %w", err)
	}
	return nil
}

func (p *Patch) String() string {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Sprintf("patch(%d entries)", p.Len())
	}
	return string(b)
}

func (p *Patch) init() {
	if p.entries == nil {
		p.entries = orderedmap.New[string, any]()
	}
}
