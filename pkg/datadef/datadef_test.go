package datadef

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/aretw0/few/pkg/domain"
	"github.com/aretw0/few/pkg/expr"
)

func scope() map[string]any {
	return map[string]any{
		"data":  domain.Store{"value": 3, "name": "few"},
		"props": map[string]any{"step": 2},
	}
}

func TestPlaceholder(t *testing.T) {
	tests := []struct {
		in     string
		expr   string
		isExpr bool
	}{
		{"${data.value}", "data.value", true},
		{"${}", "", true},
		{"${ a + b }", " a + b ", true},
		{"${a}${b}", "a}${b", true},
		{"value: ${a}", "", false},
		{"${a", "", false},
		{"plain", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Placeholder(tt.in)
			assert.Equal(t, tt.isExpr, ok)
			assert.Equal(t, tt.expr, got)
		})
	}
}

func TestEvaluate(t *testing.T) {
	def := map[string]any{
		"next":  "${data.value + props.step}",
		"label": "count",
		"n":     7,
		"nested": map[string]any{
			"name": "${data.name}",
			"list": []any{"${data.value}", "literal", map[string]any{"deep": "${props.step}"}},
		},
	}
	original, err := Clone(def)
	require.NoError(t, err)

	got, err := Evaluate(def, scope())
	require.NoError(t, err)

	want := map[string]any{
		"next":  5,
		"label": "count",
		"n":     7,
		"nested": map[string]any{
			"name": "few",
			"list": []any{3, "literal", map[string]any{"deep": 2}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("resolved definition mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(original, any(def)); diff != "" {
		t.Errorf("definition was mutated (-before +after):\n%s", diff)
	}
}

func TestEvaluate_OrderedInputKeepsOrder(t *testing.T) {
	def := orderedmap.New[string, any]()
	def.Set("b", "${data.value}")
	def.Set("a", "${data.name}")

	got, err := Evaluate(def, scope())
	require.NoError(t, err)

	om, ok := got.(*orderedmap.OrderedMap[string, any])
	require.True(t, ok)
	var keys []string
	var values []any
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
		values = append(values, pair.Value)
	}
	assert.Equal(t, []string{"b", "a"}, keys)
	assert.Equal(t, []any{3, "few"}, values)

	v, _ := def.Get("b")
	assert.Equal(t, "${data.value}", v, "input definition must not change")
}

func TestEvaluate_TopLevelPlaceholder(t *testing.T) {
	got, err := Evaluate("${data.value * 2}", scope())
	require.NoError(t, err)
	assert.Equal(t, 6, got)
}

func TestEvaluate_Empty(t *testing.T) {
	for name, def := range map[string]any{
		"nil":       nil,
		"absent":    domain.Absent,
		"empty map": map[string]any{},
		"empty":     "",
	} {
		t.Run(name, func(t *testing.T) {
			got, err := Evaluate(def, scope())
			require.NoError(t, err)
			assert.True(t, domain.IsAbsent(got))
		})
	}
}

func TestEvaluate_ExpressionError(t *testing.T) {
	_, err := Evaluate(map[string]any{"x": "${missing.value}"}, scope())

	var exprErr *domain.ExpressionError
	require.ErrorAs(t, err, &exprErr)
	assert.Equal(t, "missing.value", exprErr.Expression)
}

func TestClone_RejectsFunctions(t *testing.T) {
	_, err := Clone(map[string]any{"fn": func() {}})
	assert.True(t, errors.Is(err, domain.ErrNotSerializable))

	_, err = Clone([]any{make(chan int)})
	assert.ErrorIs(t, err, domain.ErrNotSerializable)
}

func TestClone_IsDeep(t *testing.T) {
	inner := []any{1, 2}
	src := map[string]any{"list": inner, "s": domain.Store{"k": "v"}}

	c, err := Clone(src)
	require.NoError(t, err)

	cm := c.(map[string]any)
	cm["list"].([]any)[0] = 99
	cm["s"].(domain.Store)["k"] = "changed"

	assert.Equal(t, 1, inner[0])
	assert.Equal(t, "v", src["s"].(domain.Store)["k"])
}

func TestClone_DetectsCycles(t *testing.T) {
	m := map[string]any{}
	m["self"] = m

	_, err := Clone(m)
	assert.ErrorIs(t, err, domain.ErrNotSerializable)
}

func TestPlain(t *testing.T) {
	fn := expr.Func(func(...any) (any, error) { return nil, nil })

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"scalar", 3, 3},
		{"functions leave maps", map[string]any{"a": 1, "inc": fn}, map[string]any{"a": 1}},
		{"functions are nil in lists", []any{1, fn}, []any{1, nil}},
		{"store keeps its type", domain.Store{"v": 1, "f": fn}, domain.Store{"v": 1}},
		{"top-level function is absent", fn, domain.Absent},
		{"channels are dropped", map[string]any{"c": make(chan int)}, map[string]any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Plain(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlain_SharedValuesAreNotCycles(t *testing.T) {
	shared := map[string]any{"x": 1}
	got, err := Plain(map[string]any{"a": shared, "b": []any{shared, shared}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"a": map[string]any{"x": 1},
		"b": []any{map[string]any{"x": 1}, map[string]any{"x": 1}},
	}, got)
}

func TestPlain_RejectsCycles(t *testing.T) {
	scope := map[string]any{"data": domain.Store{"v": 1}}
	scope["vm"] = scope

	_, err := Plain(scope)
	assert.ErrorIs(t, err, domain.ErrNotSerializable)
}
