// Package simcore implements a deterministic fixed-timestep simulation
// driver: a frame scheduler, an intra-frame phase executor, and a
// persistent worker pool, wired together to advance a user-defined world
// through discrete frames at a configured rate while keeping wall-clock
// progress aligned with simulated time.
//
// # Overview
//
// A Driver owns an ordered list of Phases. Each Phase bundles serial
// subsystems, parallel range tasks, and reductions over a shared element
// domain. Every frame, the Driver walks its phases in order; within a
// phase, serial runs strictly before parallel, which runs strictly
// before reductions.
//
//	d := simcore.NewDriver(simcore.DefaultSettings())
//	defer d.Close()
//
//	ph := d.AddPhase("integrate", len(velocities))
//	d.AddParallelRangeTask(ph, func(begin, end int, frame int64, dt time.Duration) {
//	    for i := begin; i < end; i++ {
//	        velocities[i] += gravity * dt.Seconds()
//	    }
//	})
//
//	d.Run(context.Background())
//
// # Determinism
//
// Parallel range tasks are dispatched in fixed-size chunks claimed
// atomically by the worker pool; every index in [0, elementCount) is
// visited exactly once regardless of worker count. Reductions always run
// serially. So long as a range task's chunks are commutative and
// independent of one another, the Driver's output — and any
// DeterministicHash a reduction publishes — is identical across thread
// counts.
//
// # Observability
//
// The Driver never depends on a concrete logging or profiling library:
// SetLogger and SetProfiler accept the narrow Logger and Profiler hooks
// defined in this package. See package simlog and package simprof for
// concrete implementations.
//
// # Out of scope
//
// Argument parsing, config file loading, and the example physics
// workload are not part of this package; see cmd/simcore-demo, package
// simconfig, and package workload.
package simcore
