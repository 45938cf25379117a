package domain

// Store is the mutable data mapping owned by one component instance.
// Values are primitives (nil, bool, numbers, string), nested maps, ordered maps or slices.
// It is created once per instantiation and mutated in place through the dispatcher only.
type Store map[string]any

// NewStore returns an empty store.
func NewStore() Store {
	return make(Store)
}

// Clone returns a shallow copy of the store.
// Nested containers are shared with the original.
func (s Store) Clone() Store {
	out := make(Store, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

type absent struct{}

func (absent) String() string { return "undefined" }

// MarshalJSON renders the absent value as null.
func (absent) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// Absent is the "undefined" value: a missing key, a failed lookup under ignore semantics,
// or an empty definition. It is distinct from nil, which stands for null.
var Absent any = absent{}

// IsAbsent reports whether v is the Absent sentinel.
func IsAbsent(v any) bool {
	_, ok := v.(absent)
	return ok
}

// PathRef is a path reference split into its root scope and the remaining sub-path.
//
//	"data.user.name" -> {Scope: "data", Path: "user.name", HasPath: true}
//	"data[0].name"   -> {Scope: "data", Path: "[0].name", HasPath: true}
//	"data"           -> {Scope: "data", HasPath: false}
type PathRef struct {
	Scope   string `json:"scope"`
	Path    string `json:"path,omitempty"`
	HasPath bool   `json:"-"`
}
