// Package path splits path references ("data.user.name") into a root scope and a sub-path,
// and the sub-path into the keys and indices used to address nested store values.
package path

import (
	"strconv"
	"strings"

	"github.com/aretw0/few/pkg/domain"
)

// Parse splits pathStr at its first '.' or '['.
//
// With no separator the whole string is the scope and HasPath is false. A '.' separator is
// dropped ("data.a" -> "a") while a '[' stays with the sub-path ("data[0]" -> "[0]").
// Parse does not validate: an empty scope is returned as is.
func Parse(pathStr string) domain.PathRef {
	i := strings.IndexAny(pathStr, ".[")
	if i < 0 {
		return domain.PathRef{Scope: pathStr}
	}
	ref := domain.PathRef{Scope: pathStr[:i], HasPath: true}
	if pathStr[i] == '.' {
		ref.Path = pathStr[i+1:]
	} else {
		ref.Path = pathStr[i:]
	}
	return ref
}

// Validate reports references that cannot address a store location.
func Validate(ref domain.PathRef) error {
	if ref.Scope == "" {
		return &domain.PathResolutionError{Path: String(ref), Reason: "empty scope"}
	}
	if ref.HasPath {
		if _, err := Segments(ref.Path); err != nil {
			return err
		}
	}
	return nil
}

// String joins a reference back into its textual form.
func String(ref domain.PathRef) string {
	if !ref.HasPath {
		return ref.Scope
	}
	if strings.HasPrefix(ref.Path, "[") {
		return ref.Scope + ref.Path
	}
	return ref.Scope + "." + ref.Path
}

// Segment is one step of a sub-path: a map key or, when Index is set, a slice position.
type Segment struct {
	Key   string
	Index int
	// IsIndex is true for bracketed or dotted non-negative integers ("[0]", ".0").
	IsIndex bool
}

func (s Segment) String() string {
	if s.IsIndex {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	return s.Key
}

// Segments splits a sub-path into its segments.
//
// Accepted forms are dotted keys ("a.b"), bracketed indices ("[0]"), and bracketed quoted keys
// (`["k"]`, `['k']`). Numeric keys count as indices wherever they appear, so "a.0" and "a[0]"
// are the same path. Empty keys and unterminated brackets are rejected.
func Segments(p string) ([]Segment, error) {
	if p == "" {
		return nil, &domain.PathResolutionError{Path: p, Reason: "empty path"}
	}

	var segs []Segment
	i := 0
	expectKey := true
	for i < len(p) {
		switch p[i] {
		case '.':
			if expectKey {
				return nil, &domain.PathResolutionError{Path: p, Reason: "empty key at offset " + strconv.Itoa(i)}
			}
			expectKey = true
			i++
			if i == len(p) {
				return nil, &domain.PathResolutionError{Path: p, Reason: "trailing '.'"}
			}
		case '[':
			seg, next, err := bracket(p, i)
			if err != nil {
				return nil, err
			}
			segs = append(segs, seg)
			i = next
			expectKey = false
		default:
			if !expectKey {
				return nil, &domain.PathResolutionError{Path: p, Reason: "missing '.' at offset " + strconv.Itoa(i)}
			}
			j := i
			for j < len(p) && p[j] != '.' && p[j] != '[' {
				j++
			}
			segs = append(segs, keySegment(p[i:j]))
			i = j
			expectKey = false
		}
	}
	return segs, nil
}

func bracket(p string, start int) (Segment, int, error) {
	i := start + 1
	if i < len(p) && (p[i] == '"' || p[i] == '\'') {
		quote := p[i]
		end := strings.IndexByte(p[i+1:], quote)
		if end < 0 {
			return Segment{}, 0, &domain.PathResolutionError{Path: p, Reason: "unterminated quoted key"}
		}
		key := p[i+1 : i+1+end]
		closing := i + 1 + end + 1
		if closing >= len(p) || p[closing] != ']' {
			return Segment{}, 0, &domain.PathResolutionError{Path: p, Reason: "expected ']' after quoted key"}
		}
		return Segment{Key: key}, closing + 1, nil
	}

	end := strings.IndexByte(p[i:], ']')
	if end < 0 {
		return Segment{}, 0, &domain.PathResolutionError{Path: p, Reason: "unterminated '['"}
	}
	key := strings.TrimSpace(p[i : i+end])
	if key == "" {
		return Segment{}, 0, &domain.PathResolutionError{Path: p, Reason: "empty brackets"}
	}
	return keySegment(key), i + end + 1, nil
}

func keySegment(key string) Segment {
	if n, err := strconv.Atoi(key); err == nil && n >= 0 && strconv.Itoa(n) == key {
		return Segment{Key: key, Index: n, IsIndex: true}
	}
	return Segment{Key: key}
}
