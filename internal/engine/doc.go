// Package engine implements the worker pool and lock-free chunk-dispatch
// protocol a Driver uses to run a single parallel range task across its
// persistent workers at a time.
//
// The dispatch protocol is the hard concurrency primitive of the whole
// repository: a monotonically increasing dispatch token, published with
// release semantics and observed with acquire semantics, establishes a
// happens-before edge from the descriptor the scheduler writes before
// publishing the token to every worker's first read of that descriptor.
// This package has no dependency on the simulation domain — Task is a
// plain function over an index range — so it is reusable by any caller
// that needs work-conserving, deterministic parallel iteration.
//
// A Task that panics never crashes a worker goroutine: the panic is
// recovered on the worker, and ParallelFor re-raises it on the calling
// goroutine once every chunk has drained.
package engine
