package expr

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/aretw0/few/pkg/domain"
)

// number is a numeric operand that remembers whether it is integral.
type number struct {
	i     int64
	f     float64
	isInt bool
}

func (n number) float() float64 {
	if n.isInt {
		return float64(n.i)
	}
	return n.f
}

func (n number) value() any {
	if n.isInt {
		return int(n.i)
	}
	return n.f
}

func intNum(i int64) number     { return number{i: i, isInt: true} }
func floatNum(f float64) number { return number{f: f} }

// asNumber converts numeric Go values without coercion.
func asNumber(v any) (number, bool) {
	switch x := v.(type) {
	case int:
		return intNum(int64(x)), true
	case int8:
		return intNum(int64(x)), true
	case int16:
		return intNum(int64(x)), true
	case int32:
		return intNum(int64(x)), true
	case int64:
		return intNum(x), true
	case uint:
		return intNum(int64(x)), true
	case uint8:
		return intNum(int64(x)), true
	case uint16:
		return intNum(int64(x)), true
	case uint32:
		return intNum(int64(x)), true
	case uint64:
		return intNum(int64(x)), true
	case float32:
		return floatNum(float64(x)), true
	case float64:
		return floatNum(x), true
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return intNum(i), true
		}
		if f, err := x.Float64(); err == nil {
			return floatNum(f), true
		}
	}
	return number{}, false
}

// toNumber coerces a value to a number the way arithmetic operators do.
// Values with no numeric reading become NaN.
func toNumber(v any) number {
	if n, ok := asNumber(v); ok {
		return n
	}
	switch x := v.(type) {
	case nil:
		return intNum(0)
	case bool:
		if x {
			return intNum(1)
		}
		return intNum(0)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return intNum(0)
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return intNum(i)
		}
		if f, err := cast.ToFloat64E(s); err == nil {
			return floatNum(f)
		}
	}
	return floatNum(math.NaN())
}

// toString renders a value for string concatenation.
func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case float64:
		if !math.IsInf(x, 0) && x == math.Trunc(x) && math.Abs(x) < 1e21 {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	}
	if domain.IsAbsent(v) {
		return "undefined"
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprint(v)
}

// Truthy reports whether v counts as true in a boolean context.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	}
	if domain.IsAbsent(v) {
		return false
	}
	if n, ok := asNumber(v); ok {
		f := n.float()
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

func isNullish(v any) bool { return v == nil || domain.IsAbsent(v) }

func arith(op TokenType, a, b any) (any, error) {
	if op == PLUS {
		_, as := a.(string)
		_, bs := b.(string)
		if as || bs {
			return toString(a) + toString(b), nil
		}
	}

	x, y := toNumber(a), toNumber(b)
	if x.isInt && y.isInt {
		if r, ok := intArith(op, x.i, y.i); ok {
			return int(r), nil
		}
	}

	xf, yf := x.float(), y.float()
	switch op {
	case PLUS:
		return xf + yf, nil
	case MINUS:
		return xf - yf, nil
	case STAR:
		return xf * yf, nil
	case SLASH:
		return xf / yf, nil
	case PERCENT:
		return math.Mod(xf, yf), nil
	}
	return nil, fmt.Errorf("unsupported arithmetic operator %s", op)
}

// intArith applies op to integers. It reports false when the exact result is not an int64
// (overflow, inexact or undefined division), in which case float arithmetic takes over.
func intArith(op TokenType, x, y int64) (int64, bool) {
	switch op {
	case PLUS:
		r := x + y
		return r, (r > x) == (y > 0)
	case MINUS:
		r := x - y
		return r, (r < x) == (y > 0)
	case STAR:
		if x == 0 || y == 0 {
			return 0, true
		}
		r := x * y
		if r/y != x || (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) {
			return 0, false
		}
		return r, true
	case SLASH:
		if y == 0 || x%y != 0 || (x == math.MinInt64 && y == -1) {
			return 0, false
		}
		return x / y, true
	case PERCENT:
		if y == 0 {
			return 0, false
		}
		return x % y, true
	}
	return 0, false
}

// negate is unary minus, switching to float for the one int64 without a negation.
func negate(n number) any {
	if n.isInt && n.i != math.MinInt64 {
		return int(-n.i)
	}
	return -n.float()
}

func compare(op TokenType, a, b any) bool {
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		switch op {
		case LESS:
			return as < bs
		case LESS_EQ:
			return as <= bs
		case GREATER:
			return as > bs
		case GREATER_EQ:
			return as >= bs
		}
		return false
	}

	x, y := toNumber(a).float(), toNumber(b).float()
	if math.IsNaN(x) || math.IsNaN(y) {
		return false
	}
	switch op {
	case LESS:
		return x < y
	case LESS_EQ:
		return x <= y
	case GREATER:
		return x > y
	case GREATER_EQ:
		return x >= y
	}
	return false
}

// StrictEqual reports reference-or-value equality: primitives compare by value (numbers
// numerically, regardless of their Go type), containers and functions by identity.
func StrictEqual(a, b any) bool {
	if isNullish(a) || isNullish(b) {
		return (a == nil && b == nil) || (domain.IsAbsent(a) && domain.IsAbsent(b))
	}

	if x, ok := asNumber(a); ok {
		y, ok := asNumber(b)
		if !ok {
			return false
		}
		if x.isInt && y.isInt {
			return x.i == y.i
		}
		return x.float() == y.float()
	}

	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	if va.Type().Comparable() {
		return a == b
	}
	return false
}

// LooseEqual is == : null and undefined are equal to each other, and a number compared
// with a string or boolean is compared numerically. Anything else falls back to StrictEqual.
func LooseEqual(a, b any) bool {
	if isNullish(a) || isNullish(b) {
		return isNullish(a) && isNullish(b)
	}
	_, an := asNumber(a)
	_, bn := asNumber(b)
	_, as := a.(string)
	_, bs := b.(string)
	_, ab := a.(bool)
	_, bb := b.(bool)
	if (an || as || ab) && (bn || bs || bb) && !(as && bs) {
		x, y := toNumber(a).float(), toNumber(b).float()
		return x == y
	}
	return StrictEqual(a, b)
}

// property reads key from obj. Missing keys and out of range indices yield domain.Absent.
func property(obj any, key any) (any, error) {
	switch o := obj.(type) {
	case map[string]any:
		return lookup(o, key), nil
	case domain.Store:
		return lookup(o, key), nil
	case *orderedmap.OrderedMap[string, any]:
		if v, ok := o.Get(propertyKey(key)); ok {
			return v, nil
		}
		return domain.Absent, nil
	case []any:
		return element(len(o), func(i int) any { return o[i] }, key), nil
	case string:
		runes := []rune(o)
		return element(len(runes), func(i int) any { return string(runes[i]) }, key), nil
	}

	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return domain.Absent, nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return domain.Absent, nil
		}
		v := rv.MapIndex(reflect.ValueOf(propertyKey(key)).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return domain.Absent, nil
		}
		return v.Interface(), nil
	case reflect.Slice, reflect.Array:
		return element(rv.Len(), func(i int) any { return rv.Index(i).Interface() }, key), nil
	case reflect.Struct:
		f := rv.FieldByName(propertyKey(key))
		if !f.IsValid() || !f.CanInterface() {
			return domain.Absent, nil
		}
		return f.Interface(), nil
	}
	return domain.Absent, nil
}

func lookup(m map[string]any, key any) any {
	if v, ok := m[propertyKey(key)]; ok {
		return v
	}
	return domain.Absent
}

func element(n int, at func(int) any, key any) any {
	if s, ok := key.(string); ok && s == "length" {
		return n
	}
	idx, ok := asNumber(key)
	if !ok {
		s, isStr := key.(string)
		if !isStr {
			return domain.Absent
		}
		i, err := strconv.Atoi(s)
		if err != nil {
			return domain.Absent
		}
		idx = intNum(int64(i))
	}
	if !idx.isInt || idx.i < 0 || idx.i >= int64(n) {
		return domain.Absent
	}
	return at(int(idx.i))
}

func propertyKey(key any) string {
	if s, ok := key.(string); ok {
		return s
	}
	return toString(key)
}

var arithOps = map[string]TokenType{"+": PLUS, "-": MINUS, "*": STAR, "/": SLASH, "%": PERCENT}

// Arith applies an arithmetic operator ("+", "-", "*", "/" or "%") with expression semantics:
// integers stay integral when the result is exact and "+" concatenates when either side is a string.
func Arith(op string, a, b any) (any, error) {
	tt, ok := arithOps[op]
	if !ok {
		return nil, fmt.Errorf("unknown arithmetic operator %q", op)
	}
	return arith(tt, a, b)
}

// ToString renders v the way string concatenation does: undefined, null, numbers without a
// trailing ".0", and JSON for containers.
func ToString(v any) string { return toString(v) }
