package datadef

import (
	"fmt"
	"reflect"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/aretw0/few/pkg/domain"
)

// Plain copies v into data that encodes as JSON, the way JSON.stringify sees it: function
// and channel values are left out of maps, become nil inside lists and turn a top-level value
// into domain.Absent. A container that contains itself yields domain.ErrNotSerializable.
func Plain(v any) (any, error) {
	out, keep, err := plain(v, map[uintptr]bool{})
	if err != nil {
		return nil, err
	}
	if !keep {
		return domain.Absent, nil
	}
	return out, nil
}

// plain reports keep=false for values a map should omit.
func plain(v any, open map[uintptr]bool) (out any, keep bool, err error) {
	switch d := v.(type) {
	case nil, string, bool, int, int64, float64:
		return d, true, nil

	case map[string]any:
		return plainMap(d, open)

	case domain.Store:
		return plainMap(d, open)

	case *orderedmap.OrderedMap[string, any]:
		if d == nil {
			return d, true, nil
		}
		ptr := reflect.ValueOf(d).Pointer()
		if open[ptr] {
			return nil, false, fmt.Errorf("%w: circular structure", domain.ErrNotSerializable)
		}
		open[ptr] = true
		defer delete(open, ptr)

		out := orderedmap.New[string, any](d.Len())
		for pair := d.Oldest(); pair != nil; pair = pair.Next() {
			c, keep, err := plain(pair.Value, open)
			if err != nil {
				return nil, false, fmt.Errorf("%s: %w", pair.Key, err)
			}
			if keep {
				out.Set(pair.Key, c)
			}
		}
		return out, true, nil

	case []any:
		if d == nil {
			return d, true, nil
		}
		ptr := reflect.ValueOf(d).Pointer()
		if open[ptr] {
			return nil, false, fmt.Errorf("%w: circular structure", domain.ErrNotSerializable)
		}
		open[ptr] = true
		defer delete(open, ptr)

		out := make([]any, len(d))
		for i, child := range d {
			c, keep, err := plain(child, open)
			if err != nil {
				return nil, false, fmt.Errorf("[%d]: %w", i, err)
			}
			if keep {
				out[i] = c
			}
		}
		return out, true, nil
	}

	if isCallable(v) {
		return nil, false, nil
	}
	return v, true, nil
}

func plainMap[M ~map[string]any](d M, open map[uintptr]bool) (any, bool, error) {
	if d == nil {
		return d, true, nil
	}
	ptr := reflect.ValueOf(d).Pointer()
	if open[ptr] {
		return nil, false, fmt.Errorf("%w: circular structure", domain.ErrNotSerializable)
	}
	open[ptr] = true
	defer delete(open, ptr)

	out := make(M, len(d))
	for k, child := range d {
		c, keep, err := plain(child, open)
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", k, err)
		}
		if keep {
			out[k] = c
		}
	}
	return out, true, nil
}

func isCallable(v any) bool {
	switch reflect.TypeOf(v).Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	}
	return false
}
