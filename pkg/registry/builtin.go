package registry

import (
	"fmt"
	"strings"

	"github.com/aretw0/few/pkg/expr"
)

// NewDefault returns a registry holding the built-in functions:
//
//	inc(x)        x + 1
//	dec(x)        x - 1
//	add(a, b...)  sum of all arguments
//	identity(x)   x
//	concat(a...)  arguments joined as strings
//	not(x)        logical negation of x's truthiness
func NewDefault() *Registry {
	r := NewRegistry()
	r.Register("inc", func(_ any, args ...any) (any, error) {
		if err := arity("inc", args, 1); err != nil {
			return nil, err
		}
		return expr.Arith("+", args[0], 1)
	})
	r.Register("dec", func(_ any, args ...any) (any, error) {
		if err := arity("dec", args, 1); err != nil {
			return nil, err
		}
		return expr.Arith("-", args[0], 1)
	})
	r.Register("add", func(_ any, args ...any) (any, error) {
		var sum any = 0
		for _, a := range args {
			var err error
			if sum, err = expr.Arith("+", sum, a); err != nil {
				return nil, err
			}
		}
		return sum, nil
	})
	r.Register("identity", func(_ any, args ...any) (any, error) {
		if err := arity("identity", args, 1); err != nil {
			return nil, err
		}
		return args[0], nil
	})
	r.Register("concat", func(_ any, args ...any) (any, error) {
		var sb strings.Builder
		for _, a := range args {
			s, err := expr.Arith("+", "", a)
			if err != nil {
				return nil, err
			}
			sb.WriteString(s.(string))
		}
		return sb.String(), nil
	})
	r.Register("not", func(_ any, args ...any) (any, error) {
		if err := arity("not", args, 1); err != nil {
			return nil, err
		}
		return !expr.Truthy(args[0]), nil
	})
	return r
}

func arity(name string, args []any, n int) error {
	if len(args) < n {
		return fmt.Errorf("%s: expected %d argument(s), got %d", name, n, len(args))
	}
	return nil
}
