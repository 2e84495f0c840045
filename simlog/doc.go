// Package simlog provides a logrus-backed implementation of
// simcore.Logger, plus a small set of sinks: a stdout writer, a file
// appender, and a bounded in-memory ring buffer useful for test
// assertions and crash-dump snapshots.
//
// simcore itself depends on none of this; Driver.SetLogger accepts any
// value satisfying the narrow simcore.Logger interface, and this
// package is one concrete choice wired to logrus because nothing in
// the fixed-step loop should block on I/O.
package simlog
