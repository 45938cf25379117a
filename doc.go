/*
Package few is a view-model binding engine.

Given a declarative component definition (a data initializer, named actions and an opaque
view), few produces a live component: a mutable store, bound actions, and a dispatcher that
writes action results back into the store as ordered patches and tells the rendering layer
when to redraw.

# Concept

Actions come in two kinds. A Simple action is a plain Go function that receives the live
component. A Structured action is declarative: its inputs are data definitions such as
"${data.value}" resolved against the component, its function receives them positionally,
and its outputs map parts of the result onto store paths.

	def := domain.ComponentDefinition{
		Name: "counter",
		Data: func() domain.Store { return domain.Store{"value": 3} },
		Actions: map[string]domain.ActionDefinition{
			"plusOne": domain.Structured(
				func(this any, args ...any) (any, error) { return args[0].(int) + 1, nil },
				domain.WithInput("value", "${data.value}"),
				domain.WithOutput("data.value", ""),
			),
		},
	}

	eng := few.New(few.WithRefresher(myRenderer))
	c, _ := eng.Instantiate(def)
	_ = c.Invoke("plusOne") // store is now {value: 4}, myRenderer was refreshed once

# Key Features

  - Expressions: a small, sandboxed expression language (package expr) reads the store.
  - Paths: "data.items[0].name" style references address nested values (packages path, store).
  - Batched refresh: one notification per patch that changed anything.
  - Hosting: sessions, persistence (memory, Redis, BoltDB), HTTP and MCP adapters.
*/
package few
