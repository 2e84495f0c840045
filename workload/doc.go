// Package workload implements a small particle-integration example
// used to exercise a Driver end to end: a throttle-modulation input
// phase, a two-stage force/integration physics phase dispatched across
// the worker pool, and a periodic reduction that folds every particle's
// velocity into a single deterministic fingerprint via blake2b.
//
// The fingerprint is published through Driver.SetDeterministicHash so
// a caller can compare runs made with different thread counts and
// confirm the result is bit-for-bit identical (spec §4.5, §8 invariant
// 3).
package workload
