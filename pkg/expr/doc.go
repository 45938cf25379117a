// Package expr evaluates string expressions against a scope of named values.
//
// Expressions use a small JavaScript-like language: identifiers resolved against the
// scope's keys, this (the apply target), member and index access (a.b, a[0], a?.b),
// number, string, boolean, null and undefined literals, array and object literals,
// arithmetic, comparison, equality, logical and conditional operators, and calls of
// Func values found in the scope.
//
// It is an interpreter over a parsed tree, never host code, so an expression can only
// read what the scope exposes.
//
//	v, err := expr.Evaluate("data.value + 1", map[string]any{"data": store}, false, nil)
package expr
