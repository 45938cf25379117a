package expr

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/few/pkg/domain"
)

func testScope() map[string]any {
	return map[string]any{
		"data": domain.Store{
			"value": 3,
			"name":  "few",
			"items": []any{"a", map[string]any{"b": 2}},
			"user":  map[string]any{"first": "Ada", "last": "Lovelace"},
			"empty": nil,
		},
		"props": map[string]any{"step": 2},
		"big":   math.MaxInt64,
		"small": math.MinInt64,
		"wide":  1 << 32,
		"double": Func(func(args ...any) (any, error) {
			return arith(STAR, args[0], 2)
		}),
		"fail": func(args ...any) (any, error) {
			return nil, errors.New("boom")
		},
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want any
	}{
		{"member", "data.value", 3},
		{"integer arithmetic stays integral", "data.value + 1", 4},
		{"exact division", "6 / 3", 2},
		{"inexact division", "7 / 2", 3.5},
		{"modulo", "7 % 4", 3},
		{"float arithmetic", "0.5 + 1", 1.5},
		{"precedence", "1 + 2 * 3", 7},
		{"grouping", "(1 + 2) * 3", 9},
		{"unary minus", "-data.value", -3},
		{"not", "!data.empty", true},
		{"string concat", "data.name + '-' + data.value", "few-3"},
		{"index", "data.items[0]", "a"},
		{"numeric member", "data.items.1.b", 2},
		{"string index key", "data.user['first']", "Ada"},
		{"length", "data.items.length", 2},
		{"string length", "data.name.length", 3},
		{"missing key is absent", "data.nope", domain.Absent},
		{"out of range is absent", "data.items[5]", domain.Absent},
		{"optional chain on null", "data.empty?.x", domain.Absent},
		{"and returns operand", "data.value && data.name", "few"},
		{"or returns operand", "data.empty || 'fallback'", "fallback"},
		{"nullish keeps zero", "0 ?? 1", 0},
		{"nullish replaces absent", "data.nope ?? 1", 1},
		{"conditional", "data.value > 2 ? 'big' : 'small'", "big"},
		{"nested conditional", "data.value > 5 ? 'a' : data.value > 2 ? 'b' : 'c'", "b"},
		{"strict equality across int kinds", "data.value === 3.0", true},
		{"strict inequality of string and number", "'3' === 3", false},
		{"loose equality", "'3' == 3", true},
		{"null loosely equals undefined", "null == undefined", true},
		{"null strictly differs from undefined", "null === undefined", false},
		{"string comparison", "'a' < 'b'", true},
		{"call", "double(data.value)", 6},
		{"props", "props.step * 10", 20},
		{"array literal", "[1, data.value]", []any{1, 3}},
		{"object literal", "{v: data.value, 'k': 'x'}", map[string]any{"v": 3, "k": "x"}},
		{"large integers stay integral", "big - 1", math.MaxInt64 - 1},
		{"addition overflow turns float", "big + 1", math.Pow(2, 63)},
		{"subtraction overflow turns float", "small - 1", -math.Pow(2, 63)},
		{"multiplication overflow turns float", "wide * wide", math.Pow(2, 64)},
		{"negation overflow turns float", "-small", math.Pow(2, 63)},
		{"division overflow turns float", "small / -1", math.Pow(2, 63)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.expr, testScope(), false, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_This(t *testing.T) {
	target := map[string]any{"x": 10}

	got, err := Evaluate("this.x + 1", nil, false, target)
	require.NoError(t, err)
	assert.Equal(t, 11, got)

	got, err = Evaluate("this", nil, false, nil)
	require.NoError(t, err)
	assert.True(t, domain.IsAbsent(got))
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		message string
	}{
		{"unknown identifier", "missing + 1", "evaluate('missing + 1') => missing is not defined"},
		{"member of null", "data.empty.x", "evaluate('data.empty.x') => cannot read properties of null (reading 'x')"},
		{"member of absent", "data.nope.x", "evaluate('data.nope.x') => cannot read properties of undefined (reading 'x')"},
		{"not a function", "data.value()", "evaluate('data.value()') => data.value is not a function"},
		{"function error", "fail()", "evaluate('fail()') => boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.expr, testScope(), false, nil)
			assert.Nil(t, got)

			var exprErr *domain.ExpressionError
			require.ErrorAs(t, err, &exprErr)
			assert.Equal(t, tt.expr, exprErr.Expression)
			assert.EqualError(t, err, tt.message)
		})
	}
}

func TestEvaluate_SyntaxError(t *testing.T) {
	_, err := Evaluate("data.", testScope(), false, nil)

	var exprErr *domain.ExpressionError
	require.ErrorAs(t, err, &exprErr)
	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestEvaluate_IgnoreError(t *testing.T) {
	for _, src := range []string{"missing", "data.empty.x", "((", "fail()"} {
		t.Run(src, func(t *testing.T) {
			got, err := Evaluate(src, testScope(), true, nil)
			require.NoError(t, err)
			assert.True(t, domain.IsAbsent(got))
		})
	}
}

func TestEvaluate_NaN(t *testing.T) {
	got, err := Evaluate("data.user * 2", testScope(), false, nil)
	require.NoError(t, err)
	f, ok := got.(float64)
	require.True(t, ok)
	assert.True(t, math.IsNaN(f))
}

func TestEvaluate_RecoversPanics(t *testing.T) {
	scope := map[string]any{
		"explode": Func(func(args ...any) (any, error) { panic("kaboom") }),
	}

	_, err := Evaluate("explode()", scope, false, nil)
	assert.ErrorContains(t, err, "kaboom")
}

func TestEvaluate_DoesNotMutateScope(t *testing.T) {
	scope := testScope()
	_, err := Evaluate("{a: data.value, b: data.items}", scope, false, nil)
	require.NoError(t, err)

	assert.Equal(t, testScope()["data"], scope["data"])
	assert.Len(t, scope, len(testScope()))
}

func TestCompile_Cache(t *testing.T) {
	p1, err := Compile("data.value + 41")
	require.NoError(t, err)
	p2, err := Compile("data.value + 41")
	require.NoError(t, err)
	assert.Same(t, p1, p2)

	got, err := p1.Run(map[string]any{"data": map[string]any{"value": 1}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestCompile_CacheIsBounded(t *testing.T) {
	for i := 0; i < CacheSize+100; i++ {
		_, err := Compile(fmt.Sprintf("x + %d", i))
		require.NoError(t, err)
	}
	assert.Equal(t, CacheSize, programs.Len())

	// the most recent expressions are still cached
	p1, err := Compile(fmt.Sprintf("x + %d", CacheSize+99))
	require.NoError(t, err)
	p2, err := Compile(fmt.Sprintf("x + %d", CacheSize+99))
	require.NoError(t, err)
	assert.Same(t, p1, p2)
}

func TestCompile_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			got, err := Evaluate("x * 2", map[string]any{"x": n}, false, nil)
			assert.NoError(t, err)
			assert.Equal(t, n*2, got)
		}(i)
	}
	wg.Wait()
}

func TestStrictEqual(t *testing.T) {
	m := map[string]any{"a": 1}
	s := []any{1}

	assert.True(t, StrictEqual(int64(4), 4))
	assert.True(t, StrictEqual(4.0, 4))
	assert.True(t, StrictEqual(m, m))
	assert.False(t, StrictEqual(m, map[string]any{"a": 1}))
	assert.True(t, StrictEqual(s, s))
	assert.False(t, StrictEqual(s, []any{1}))
	assert.False(t, StrictEqual(nil, domain.Absent))
	assert.True(t, StrictEqual(domain.Absent, domain.Absent))
	assert.False(t, StrictEqual(math.NaN(), math.NaN()))
}

func TestTruthy(t *testing.T) {
	for _, v := range []any{nil, false, 0, 0.0, "", domain.Absent, math.NaN()} {
		assert.False(t, Truthy(v), "%#v", v)
	}
	for _, v := range []any{true, 1, -1, "0", []any{}, map[string]any{}} {
		assert.True(t, Truthy(v), "%#v", v)
	}
}
