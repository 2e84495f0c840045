package simcore

import (
	"context"
	"testing"
	"time"
)

// TestRunStopsExactlyAtMaxFrames covers spec §8 invariant 1 and the
// first end-to-end scenario: hz=500, maxFrames=600, threads=1,
// adaptive=false.
func TestRunStopsExactlyAtMaxFrames(t *testing.T) {
	d := NewDriver(Settings{Hz: 500, MaxFrames: 600, Threads: 1, Adaptive: false, SpinMicros: 200})
	defer d.Close()

	h := d.AddPhase("noop", 0)
	d.AddSerialSubsystem(h, func(int64, time.Duration) {})

	d.Run(context.Background())

	if d.Frame() != 600 {
		t.Fatalf("frame = %d, want 600", d.Frame())
	}
}

// TestSerialSubsystemSeesInOrderFrameIndices covers the fifth end-to-end
// scenario: exactly maxFrames invocations, frame indices 0..maxFrames-1
// in order.
func TestSerialSubsystemSeesInOrderFrameIndices(t *testing.T) {
	d := NewDriver(Settings{Hz: 120, MaxFrames: 240, Threads: 1, Adaptive: false, MaxCatchUp: 0, SpinMicros: 200})
	defer d.Close()

	var seen []int64
	h := d.AddPhase("record", 0)
	d.AddSerialSubsystem(h, func(frame int64, dt time.Duration) { seen = append(seen, frame) })

	d.Run(context.Background())

	if len(seen) != 240 {
		t.Fatalf("invocations = %d, want 240", len(seen))
	}
	for i, f := range seen {
		if f != int64(i) {
			t.Fatalf("seen[%d] = %d, want %d", i, f, i)
		}
	}
}

// TestRequestExitStopsWithinOneFrame covers spec §8 invariant 5.
func TestRequestExitStopsWithinOneFrame(t *testing.T) {
	d := NewDriver(Settings{Hz: 1000, MaxFrames: -1, Threads: 1, SpinMicros: 200})
	defer d.Close()

	h := d.AddPhase("exit-after-10", 0)
	d.AddSerialSubsystem(h, func(frame int64, dt time.Duration) {
		if frame == 10 {
			d.RequestExit()
		}
	})

	d.Run(context.Background())

	if d.Frame() != 11 {
		t.Fatalf("frame = %d, want 11 (10 triggers exit, one more frame max completes)", d.Frame())
	}
}

// TestContextCancellationStopsRun exercises the Go-idiomatic
// supplement to RequestExit: cancelling the context passed to Run has
// the same cooperative-stop effect.
func TestContextCancellationStopsRun(t *testing.T) {
	d := NewDriver(Settings{Hz: 1000, MaxFrames: -1, Threads: 1, SpinMicros: 200})
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	h := d.AddPhase("cancel-after-5", 0)
	d.AddSerialSubsystem(h, func(frame int64, dt time.Duration) {
		if frame == 5 {
			cancel()
		}
	})

	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

// TestCatchUpBoundedByMaxCatchUp covers spec §8 invariant 7: a single
// artificially slow frame cannot cause more than MaxCatchUp extra frames
// to run in the following tick.
func TestCatchUpBoundedByMaxCatchUp(t *testing.T) {
	d := NewDriver(Settings{Hz: 1000, MaxFrames: 50, Threads: 1, Adaptive: true, MaxCatchUp: 3, DriftLogInterval: 0, SpinMicros: 200})
	defer d.Close()

	h := d.AddPhase("slow-once", 0)
	first := true
	d.AddSerialSubsystem(h, func(frame int64, dt time.Duration) {
		if first {
			first = false
			time.Sleep(20 * time.Millisecond) // ~20 outer steps behind
		}
	})

	now := time.Now().UnixNano()
	d.startReal = now
	d.nextFrameTarget = now
	d.Advance() // runs the slow frame, then catch-up within the same tick
	if d.Frame() > 1+3 {
		t.Fatalf("frame after first tick = %d, want at most %d (1 + MaxCatchUp)", d.Frame(), 1+3)
	}

	d.Run(context.Background())

	if d.Frame() != 50 {
		t.Fatalf("frame = %d, want 50 (maxFrames still respected)", d.Frame())
	}
}

// TestAdaptiveDriftStaysBoundedOnIdleHost covers spec §8 invariant 6 for
// a light workload; the bound is generous to keep the test robust on
// loaded CI hosts.
func TestAdaptiveDriftStaysBoundedOnIdleHost(t *testing.T) {
	d := NewDriver(Settings{Hz: 1000, MaxFrames: 1500, Threads: 2, Adaptive: true, DriftLogInterval: 100, SpinMicros: 200})
	defer d.Close()

	d.AddPhase("empty", 0)
	d.Run(context.Background())

	if drift := d.LastDriftMs(); drift > 20 || drift < -20 {
		t.Fatalf("|lastDriftMs| = %v, want < 20ms", drift)
	}
}
