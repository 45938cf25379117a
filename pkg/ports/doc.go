/*
Package ports defines the driven ports (interfaces) of the few engine.

These interfaces decouple the core from external implementations, so the same engine can be
fed component definitions from memory or a Loam repository, persist session snapshots in
memory, Redis or BoltDB, and notify any rendering layer about store changes.

# Key Interfaces

  - Refresher: the rendering collaborator notified once per changed patch.
  - ComponentLoader: resolves component definitions by name.
  - ModuleLoader: loads external dependencies on behalf of components.
  - StateStore: persists and loads session snapshots.
  - DistributedLocker: coordinates access to a session across replicas.
*/
package ports
