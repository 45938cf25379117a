// Package runtime binds component definitions to live instances.
//
// It owns the action pipeline (CreateAction) and the dispatcher (Compose, DataHandler):
// an invoked action resolves its inputs, calls its function and dispatches the resulting
// patch, which the data handler writes into the instance store before signalling one
// refresh. Everything runs synchronously on the caller's goroutine.
package runtime
