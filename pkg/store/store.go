// Package store reads and writes component stores by path.
//
// Reads go through the expression evaluator with errors suppressed, so a broken path reads
// as domain.Absent. Writes are structural: missing containers along the path are created.
package store

import (
	"fmt"
	"reflect"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/aretw0/few/pkg/domain"
	"github.com/aretw0/few/pkg/expr"
	"github.com/aretw0/few/pkg/path"
)

// Get evaluates path against scope. String-keyed maps of any element type and structs
// (by exported field name) provide names; any other scope reads as domain.Absent.
func Get(scope any, p string) any {
	v, _ := expr.Evaluate(p, asScope(scope), true, nil)
	return v
}

func asScope(scope any) map[string]any {
	switch s := scope.(type) {
	case map[string]any:
		return s
	case domain.Store:
		return s
	case *orderedmap.OrderedMap[string, any]:
		if s == nil {
			return nil
		}
		out := make(map[string]any, s.Len())
		for pair := s.Oldest(); pair != nil; pair = pair.Next() {
			out[pair.Key] = pair.Value
		}
		return out
	}
	return reflectScope(scope)
}

// reflectScope names the entries of typed maps such as map[string]int, and the exported
// fields of structs, the way member access reads them.
func reflectScope(scope any) map[string]any {
	rv := reflect.ValueOf(scope)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String || rv.IsNil() {
			return nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = iter.Value().Interface()
		}
		return out
	case reflect.Struct:
		t := rv.Type()
		out := make(map[string]any, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			if f := t.Field(i); f.IsExported() {
				out[f.Name] = rv.Field(i).Interface()
			}
		}
		return out
	}
	return nil
}

// Set writes value at p inside s and reports whether the store changed.
//
// If the current value at p is strictly equal to value nothing is written. Otherwise missing
// intermediate containers are created: a slice when the next segment is an index, a map
// otherwise. Slices grow as needed, padded with nil.
//
// The current value is read structurally, segment by segment, which also covers bracketed
// forms such as `["a.b"]` that are not expressions. Where that finds nothing, Get is asked,
// so derived properties like "items.length" compare equal too.
func Set(s domain.Store, p string, value any) (bool, error) {
	if s == nil {
		return false, &domain.PathResolutionError{Path: p, Reason: "nil store"}
	}
	segs, err := path.Segments(p)
	if err != nil {
		return false, err
	}
	current := read(map[string]any(s), segs)
	if domain.IsAbsent(current) {
		current = Get(s, p)
	}
	if expr.StrictEqual(current, value) {
		return false, nil
	}

	root := map[string]any(s)
	if _, err := assign(root, segs, value, p); err != nil {
		return false, err
	}
	return true, nil
}

// assign writes value below container and returns the container, which differs from the
// input only when a slice had to grow.
func assign(container any, segs []path.Segment, value any, full string) (any, error) {
	seg, rest := segs[0], segs[1:]

	child := func(current any) (any, error) {
		if len(rest) == 0 {
			return value, nil
		}
		if !isContainer(current) {
			current = newContainer(rest[0])
		}
		return assign(current, rest, value, full)
	}

	switch c := container.(type) {
	case map[string]any:
		v, err := child(c[seg.Key])
		if err != nil {
			return nil, err
		}
		c[seg.Key] = v
		return c, nil

	case domain.Store:
		v, err := child(c[seg.Key])
		if err != nil {
			return nil, err
		}
		c[seg.Key] = v
		return c, nil

	case *orderedmap.OrderedMap[string, any]:
		current, _ := c.Get(seg.Key)
		v, err := child(current)
		if err != nil {
			return nil, err
		}
		c.Set(seg.Key, v)
		return c, nil

	case []any:
		if !seg.IsIndex {
			return nil, &domain.PathResolutionError{
				Path:   full,
				Reason: fmt.Sprintf("cannot set key %q on a list", seg.Key),
			}
		}
		for len(c) <= seg.Index {
			c = append(c, nil)
		}
		v, err := child(c[seg.Index])
		if err != nil {
			return nil, err
		}
		c[seg.Index] = v
		return c, nil
	}

	return nil, &domain.PathResolutionError{
		Path:   full,
		Reason: fmt.Sprintf("cannot set %s on %T", seg, container),
	}
}

// read follows segs from v, yielding domain.Absent where the path leaves the data.
func read(v any, segs []path.Segment) any {
	for _, seg := range segs {
		switch c := v.(type) {
		case map[string]any:
			next, ok := c[seg.Key]
			if !ok {
				return domain.Absent
			}
			v = next
		case domain.Store:
			next, ok := c[seg.Key]
			if !ok {
				return domain.Absent
			}
			v = next
		case *orderedmap.OrderedMap[string, any]:
			if c == nil {
				return domain.Absent
			}
			next, ok := c.Get(seg.Key)
			if !ok {
				return domain.Absent
			}
			v = next
		case []any:
			if !seg.IsIndex || seg.Index >= len(c) {
				return domain.Absent
			}
			v = c[seg.Index]
		default:
			return domain.Absent
		}
	}
	return v
}

func isContainer(v any) bool {
	switch c := v.(type) {
	case map[string]any:
		return c != nil
	case domain.Store:
		return c != nil
	case *orderedmap.OrderedMap[string, any]:
		return c != nil
	case []any:
		return true
	}
	return false
}

func newContainer(next path.Segment) any {
	if next.IsIndex {
		return []any{}
	}
	return map[string]any{}
}

// ApplyAll sets every entry of patch in order and reports whether any of them changed s.
// It stops at the first failing entry; entries before it stay applied.
func ApplyAll(s domain.Store, patch *domain.Patch) (bool, error) {
	changed := false
	err := patch.Each(func(ref string, value any) error {
		ok, err := Set(s, ref, value)
		if ok {
			changed = true
		}
		return err
	})
	return changed, err
}
