package expr

import "strings"

// References returns the dotted paths an expression reads through static member access,
// e.g. "data.user.name" for "data.user.name + 1". Computed indices end a path.
// Paths appear once, in order of first use.
func References(src string) ([]string, error) {
	prog, err := Compile(src)
	if err != nil {
		return nil, err
	}
	var refs []string
	seen := map[string]bool{}
	add := func(p string) {
		if p != "" && !seen[p] {
			seen[p] = true
			refs = append(refs, p)
		}
	}
	walk(prog.Root, add)
	return refs, nil
}

func walk(n Node, add func(string)) {
	switch n := n.(type) {
	case *Ident, *Member:
		if p, ok := memberPath(n); ok {
			add(p)
			return
		}
		if m, ok := n.(*Member); ok {
			walk(m.Object, add)
		}
	case *Index:
		walk(n.Object, add)
		walk(n.Index, add)
	case *Call:
		if m, ok := n.Callee.(*Member); ok {
			walk(m.Object, add)
		}
		for _, a := range n.Args {
			walk(a, add)
		}
	case *Unary:
		walk(n.Operand, add)
	case *Binary:
		walk(n.Left, add)
		walk(n.Right, add)
	case *Logical:
		walk(n.Left, add)
		walk(n.Right, add)
	case *Conditional:
		walk(n.Test, add)
		walk(n.Then, add)
		walk(n.Otherwise, add)
	case *Array:
		for _, el := range n.Elems {
			walk(el, add)
		}
	case *Object:
		for _, v := range n.Values {
			walk(v, add)
		}
	}
}

func memberPath(n Node) (string, bool) {
	var parts []string
	for {
		switch m := n.(type) {
		case *Ident:
			parts = append(parts, m.Name)
			for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
				parts[i], parts[j] = parts[j], parts[i]
			}
			return strings.Join(parts, "."), true
		case *Member:
			parts = append(parts, m.Property)
			n = m.Object
		default:
			return "", false
		}
	}
}
