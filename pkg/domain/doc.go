/*
Package domain contains the core domain models of the few binding engine.

It defines the values the engine moves around: the component Store, path references,
patches, action definitions and live component instances. This package is kept pure and
free of I/O, following the same ports-and-adapters split as the rest of the module.

# Key Entities

  - Store: the mutable data mapping owned by one component instance.
  - PathRef: a reference like "data.user.name" split into scope and sub-path.
  - Patch: an ordered set of path -> value updates produced by actions.
  - ActionDefinition: a Simple function or a Structured input/fn/output mapping.
  - Component: a live instance with bound actions and a dispatch entry point.
*/
package domain
