package expr

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aretw0/few/pkg/domain"
)

// Func is a function value callable from expressions, e.g. a helper placed in the scope.
type Func func(args ...any) (any, error)

// RuntimeError is an evaluation failure (unknown name, access on null, bad call).
type RuntimeError struct {
	Pos int
	Msg string
}

func (e *RuntimeError) Error() string { return e.Msg }

func runtimeErr(n Node, format string, args ...any) error {
	return &RuntimeError{Pos: n.Pos(), Msg: fmt.Sprintf(format, args...)}
}

// Program is a compiled expression. It holds no scope and is safe for concurrent use.
type Program struct {
	Source string
	Root   Node
}

// CacheSize bounds the number of compiled programs kept in memory.
const CacheSize = 4096

// programs maps source text to *Program, evicting the least recently used.
var programs, _ = lru.New[string, *Program](CacheSize)

// Compile parses src into a Program. Successful compilations are cached by source text.
func Compile(src string) (*Program, error) {
	if p, ok := programs.Get(src); ok {
		return p, nil
	}
	root, err := Parse(src)
	if err != nil {
		return nil, err
	}
	p := &Program{Source: src, Root: root}
	programs.Add(src, p)
	return p, nil
}

// Run evaluates the program with the scope's keys as names and applyTarget as this.
func (p *Program) Run(scope map[string]any, applyTarget any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during evaluation: %v", r)
		}
	}()
	e := &env{scope: scope, this: applyTarget}
	return e.eval(p.Root)
}

// Evaluate compiles expression and runs it against scope, with applyTarget bound to this.
//
// On failure, if ignoreError is set it returns domain.Absent and a nil error; otherwise it
// returns a *domain.ExpressionError carrying the expression text and the underlying cause.
func Evaluate(expression string, scope map[string]any, ignoreError bool, applyTarget any) (any, error) {
	prog, err := Compile(expression)
	if err == nil {
		var v any
		v, err = prog.Run(scope, applyTarget)
		if err == nil {
			return v, nil
		}
	}
	if ignoreError {
		return domain.Absent, nil
	}
	return nil, &domain.ExpressionError{Expression: expression, Err: err}
}

type env struct {
	scope map[string]any
	this  any
}

func (e *env) eval(n Node) (any, error) {
	switch n := n.(type) {
	case *Literal:
		return n.Value, nil

	case *Ident:
		v, ok := e.scope[n.Name]
		if !ok {
			return nil, runtimeErr(n, "%s is not defined", n.Name)
		}
		return v, nil

	case *This:
		if e.this == nil {
			return domain.Absent, nil
		}
		return e.this, nil

	case *Member:
		obj, err := e.eval(n.Object)
		if err != nil {
			return nil, err
		}
		return e.access(n, obj, n.Property, n.Optional)

	case *Index:
		obj, err := e.eval(n.Object)
		if err != nil {
			return nil, err
		}
		if n.Optional && isNullish(obj) {
			return domain.Absent, nil
		}
		key, err := e.eval(n.Index)
		if err != nil {
			return nil, err
		}
		return e.access(n, obj, key, n.Optional)

	case *Call:
		return e.call(n)

	case *Unary:
		v, err := e.eval(n.Operand)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case BANG:
			return !Truthy(v), nil
		case MINUS:
			return negate(toNumber(v)), nil
		case PLUS:
			return toNumber(v).value(), nil
		}
		return nil, runtimeErr(n, "unsupported unary operator %s", n.Op)

	case *Logical:
		left, err := e.eval(n.Left)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case AND:
			if !Truthy(left) {
				return left, nil
			}
		case OR:
			if Truthy(left) {
				return left, nil
			}
		case NULLISH:
			if !isNullish(left) {
				return left, nil
			}
		}
		return e.eval(n.Right)

	case *Binary:
		left, err := e.eval(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.eval(n.Right)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case PLUS, MINUS, STAR, SLASH, PERCENT:
			return arith(n.Op, left, right)
		case LESS, LESS_EQ, GREATER, GREATER_EQ:
			return compare(n.Op, left, right), nil
		case STRICTEQ:
			return StrictEqual(left, right), nil
		case STRICTNEQ:
			return !StrictEqual(left, right), nil
		case EQ:
			return LooseEqual(left, right), nil
		case NEQ:
			return !LooseEqual(left, right), nil
		}
		return nil, runtimeErr(n, "unsupported operator %s", n.Op)

	case *Conditional:
		test, err := e.eval(n.Test)
		if err != nil {
			return nil, err
		}
		if Truthy(test) {
			return e.eval(n.Then)
		}
		return e.eval(n.Otherwise)

	case *Array:
		out := make([]any, 0, len(n.Elems))
		for _, el := range n.Elems {
			v, err := e.eval(el)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case *Object:
		out := make(map[string]any, len(n.Keys))
		for i, k := range n.Keys {
			v, err := e.eval(n.Values[i])
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown node %T", n)
}

func (e *env) access(n Node, obj any, key any, optional bool) (any, error) {
	if isNullish(obj) {
		if optional {
			return domain.Absent, nil
		}
		return nil, runtimeErr(n, "cannot read properties of %s (reading '%s')", toString(obj), propertyKey(key))
	}
	return property(obj, key)
}

func (e *env) call(n *Call) (any, error) {
	callee, err := e.eval(n.Callee)
	if err != nil {
		return nil, err
	}
	if n.Optional && isNullish(callee) {
		return domain.Absent, nil
	}

	var fn Func
	switch f := callee.(type) {
	case Func:
		fn = f
	case func(...any) (any, error):
		fn = f
	default:
		return nil, runtimeErr(n, "%s is not a function", describeNode(n.Callee))
	}

	args := make([]any, 0, len(n.Args))
	for _, a := range n.Args {
		v, err := e.eval(a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return fn(args...)
}

func describeNode(n Node) string {
	switch n := n.(type) {
	case *Ident:
		return n.Name
	case *Member:
		return describeNode(n.Object) + "." + n.Property
	case *This:
		return "this"
	}
	return "expression"
}
