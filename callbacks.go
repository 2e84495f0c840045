package simcore

import "time"

// Subsystem is a serial, per-frame callable. It runs on the scheduling
// goroutine, strictly before the phase's parallel range tasks.
type Subsystem func(frame int64, dt time.Duration)

// RangeTask operates on a half-open sub-range [begin, end) of
// [0, phase.ElementCount). The union of every invocation's range across
// one dispatch covers [0, ElementCount) exactly once with no overlap
// (spec §4.2). Range task bodies must be commutative and independent
// across chunks — the core's determinism guarantee depends on it.
type RangeTask func(begin, end int, frame int64, dt time.Duration)

// ReductionTask runs serially on the scheduling goroutine after every
// parallel range task of its phase has returned.
type ReductionTask func(frame int64, dt time.Duration)
