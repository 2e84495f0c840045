package workload

import (
	"context"
	"testing"

	"github.com/e7canasta/simcore"
)

func runOnce(threads int) *simcore.Driver {
	d := simcore.NewDriver(simcore.Settings{
		Hz: 1000, MaxFrames: 2000, Threads: threads, ChunkSize: 37, SpinMicros: 200,
	})
	p := New(503) // deliberately not a multiple of any chunk size
	p.ReduceEvery = 500
	p.Wire(d)
	d.Run(context.Background())
	return d
}

func TestDeterministicHashMatchesAcrossThreadCounts(t *testing.T) {
	want := runOnce(1)
	defer want.Close()

	for _, threads := range []int{2, 4, 8} {
		got := runOnce(threads)
		if got.DeterministicHash() != want.DeterministicHash() {
			t.Fatalf("threads=%d: hash=%#x, want %#x (threads=1)", threads, got.DeterministicHash(), want.DeterministicHash())
		}
		got.Close()
	}
}

func TestIntegrationAdvancesPositionAndVelocity(t *testing.T) {
	d := simcore.NewDriver(simcore.Settings{Hz: 1000, MaxFrames: 10, Threads: 2, SpinMicros: 200})
	defer d.Close()

	p := New(16)
	p.Wire(d)

	d.Run(context.Background())

	if p.Velocity(0) == 10.0 {
		t.Fatal("velocity did not change after 10 frames of force")
	}
	if p.Position(0) == 0 {
		t.Fatal("position did not advance after 10 frames")
	}
}

func TestReduceEveryZeroDisablesReduction(t *testing.T) {
	d := simcore.NewDriver(simcore.Settings{Hz: 1000, MaxFrames: 10, Threads: 1, SpinMicros: 200})
	defer d.Close()

	p := New(8)
	p.ReduceEvery = 0
	p.Wire(d)

	d.Run(context.Background())

	if d.DeterministicHash() != 0 {
		t.Fatalf("DeterministicHash = %#x, want 0 when reduction disabled", d.DeterministicHash())
	}
}
