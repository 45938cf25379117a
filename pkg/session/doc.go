/*
Package session keeps live component instances addressable by session ID.

A Manager owns one instance per session, serializes every operation on a session behind a
reference-counted local lock (and, optionally, a distributed lock), persists a snapshot of the
store after each change through a ports.StateStore, and publishes the top-level store diff of
each change to subscribers. Instances evicted from memory, or written by another replica, are
restored from their last snapshot on next use.
*/
package session
