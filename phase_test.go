package simcore

import (
	"errors"
	"testing"
	"time"
)

func TestPhaseHandleOutOfRangeFailsWithInvalidHandle(t *testing.T) {
	d := NewDriver(Settings{Hz: 100, Threads: 1, MaxFrames: -1})
	defer d.Close()

	if err := d.AddSerialSubsystem(PhaseHandle(5), func(int64, time.Duration) {}); !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("got %v, want ErrInvalidHandle", err)
	}
}

func TestAddPhaseReturnsIncrementingHandles(t *testing.T) {
	d := NewDriver(Settings{Hz: 100, Threads: 1, MaxFrames: -1})
	defer d.Close()

	h0 := d.AddPhase("a", 0)
	h1 := d.AddPhase("b", 10)
	if h0 != 0 || h1 != 1 {
		t.Fatalf("handles = %d, %d; want 0, 1", h0, h1)
	}
	if d.phases[h1].elementCount != 10 {
		t.Fatalf("elementCount = %d, want 10", d.phases[h1].elementCount)
	}
}

func TestDisabledPhaseSkipsAllWork(t *testing.T) {
	d := NewDriver(Settings{Hz: 100, Threads: 1, MaxFrames: -1})
	defer d.Close()

	h := d.AddPhase("p", 4)
	ran := false
	d.AddSerialSubsystem(h, func(frame int64, dt time.Duration) { ran = true })
	if err := d.SetPhaseEnabled(h, false); err != nil {
		t.Fatal(err)
	}

	d.doOneStep()
	if ran {
		t.Fatal("disabled phase's serial subsystem ran")
	}
}
