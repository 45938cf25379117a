// Package datadef resolves data definitions: nested values whose string leaves of the form
// "${expr}" are placeholders evaluated against a scope.
//
//	def := map[string]any{"next": "${data.value + 1}", "label": "count"}
//	out, err := datadef.Evaluate(def, map[string]any{"data": store})
//	// out == map[string]any{"next": 4, "label": "count"}
package datadef

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/mohae/deepcopy"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/aretw0/few/pkg/domain"
	"github.com/aretw0/few/pkg/expr"
)

var placeholder = regexp.MustCompile(`^\$\{(.*)\}$`)

// Placeholder returns the expression inside s when the whole string is a placeholder.
func Placeholder(s string) (string, bool) {
	m := placeholder.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Evaluate resolves every placeholder in a deep copy of definition.
//
// The definition itself is never modified. A nil, absent or empty definition resolves to
// domain.Absent. Expression failures are returned as *domain.ExpressionError.
func Evaluate(definition any, scope map[string]any) (any, error) {
	if isEmpty(definition) {
		return domain.Absent, nil
	}
	clone, err := Clone(definition)
	if err != nil {
		return nil, err
	}
	return resolve(clone, scope)
}

func isEmpty(v any) bool {
	switch d := v.(type) {
	case nil:
		return true
	case string:
		return d == ""
	case map[string]any:
		return len(d) == 0
	case domain.Store:
		return len(d) == 0
	case *orderedmap.OrderedMap[string, any]:
		return d == nil || d.Len() == 0
	case []any:
		return len(d) == 0
	}
	return domain.IsAbsent(v)
}

// resolve walks v, replacing placeholder leaves in place, and returns the (possibly new) value.
func resolve(v any, scope map[string]any) (any, error) {
	switch d := v.(type) {
	case string:
		src, ok := Placeholder(d)
		if !ok {
			return d, nil
		}
		return expr.Evaluate(src, scope, false, nil)

	case map[string]any:
		for k, child := range d {
			r, err := resolve(child, scope)
			if err != nil {
				return nil, err
			}
			d[k] = r
		}
		return d, nil

	case domain.Store:
		for k, child := range d {
			r, err := resolve(child, scope)
			if err != nil {
				return nil, err
			}
			d[k] = r
		}
		return d, nil

	case *orderedmap.OrderedMap[string, any]:
		for pair := d.Oldest(); pair != nil; pair = pair.Next() {
			r, err := resolve(pair.Value, scope)
			if err != nil {
				return nil, err
			}
			pair.Value = r
		}
		return d, nil

	case []any:
		for i, child := range d {
			r, err := resolve(child, scope)
			if err != nil {
				return nil, err
			}
			d[i] = r
		}
		return d, nil
	}
	return v, nil
}

// Clone deep copies a data definition. Maps, ordered maps and slices are walked here so
// their concrete types survive; other leaves are copied with deepcopy. Functions and channels
// cannot be part of a definition and yield domain.ErrNotSerializable.
func Clone(v any) (any, error) {
	return clone(v, 0)
}

const maxDepth = 256

func clone(v any, depth int) (any, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d (cycle?)", domain.ErrNotSerializable, maxDepth)
	}

	switch d := v.(type) {
	case nil, string, bool, int, int64, float64:
		return d, nil

	case map[string]any:
		if d == nil {
			return d, nil
		}
		out := make(map[string]any, len(d))
		for k, child := range d {
			c, err := clone(child, depth+1)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = c
		}
		return out, nil

	case domain.Store:
		if d == nil {
			return d, nil
		}
		out := make(domain.Store, len(d))
		for k, child := range d {
			c, err := clone(child, depth+1)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = c
		}
		return out, nil

	case *orderedmap.OrderedMap[string, any]:
		if d == nil {
			return d, nil
		}
		out := orderedmap.New[string, any](d.Len())
		for pair := d.Oldest(); pair != nil; pair = pair.Next() {
			c, err := clone(pair.Value, depth+1)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", pair.Key, err)
			}
			out.Set(pair.Key, c)
		}
		return out, nil

	case []any:
		if d == nil {
			return d, nil
		}
		out := make([]any, len(d))
		for i, child := range d {
			c, err := clone(child, depth+1)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = c
		}
		return out, nil
	}

	if domain.IsAbsent(v) {
		return v, nil
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return nil, fmt.Errorf("%w: %T", domain.ErrNotSerializable, v)
	}
	return deepcopy.Copy(v), nil
}
