package engine

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestParallelForVisitsEveryIndexExactlyOnce(t *testing.T) {
	const n = 10007 // deliberately not a multiple of chunkSize
	for _, workers := range []int{1, 2, 4, 8} {
		for _, chunk := range []int{1, 7, 256, 20000} {
			visits := make([]int32, n)
			p := New(workers, true, nil)
			p.Start()
			p.ParallelFor(func(begin, end int, frame int64, dt time.Duration) {
				for i := begin; i < end; i++ {
					atomic.AddInt32(&visits[i], 1)
				}
			}, n, chunk, 0, time.Millisecond)
			p.Stop()

			for i, v := range visits {
				if v != 1 {
					t.Fatalf("workers=%d chunk=%d: index %d visited %d times", workers, chunk, i, v)
				}
			}
		}
	}
}

func TestParallelForZeroElementCountIsNoop(t *testing.T) {
	called := false
	p := New(4, true, nil)
	p.Start()
	defer p.Stop()
	p.ParallelFor(func(begin, end int, frame int64, dt time.Duration) {
		called = true
	}, 0, 256, 0, 0)
	if called {
		t.Fatal("task invoked for elementCount == 0")
	}
}

func TestParallelForChunkSizeZeroUsesDefault(t *testing.T) {
	var maxEnd int
	p := New(2, true, nil)
	p.Start()
	defer p.Stop()
	p.ParallelFor(func(begin, end int, frame int64, dt time.Duration) {
		if end > maxEnd {
			maxEnd = end
		}
	}, 10, 0, 0, 0)
	if maxEnd != 10 {
		t.Fatalf("expected full range covered, got maxEnd=%d", maxEnd)
	}
}

func TestResizeStopsAndRestartsWorkers(t *testing.T) {
	p := New(2, true, nil)
	p.Start()
	if p.Threads() != 2 {
		t.Fatalf("expected 2 threads, got %d", p.Threads())
	}
	p.Resize(5, true)
	if p.Threads() != 5 {
		t.Fatalf("expected 5 threads after resize, got %d", p.Threads())
	}

	var sum atomic.Int64
	p.ParallelFor(func(begin, end int, frame int64, dt time.Duration) {
		sum.Add(int64(end - begin))
	}, 1000, 13, 0, 0)
	if sum.Load() != 1000 {
		t.Fatalf("expected sum 1000, got %d", sum.Load())
	}
	p.Stop()
}

func TestStopIsIdempotentAndSafeBeforeStart(t *testing.T) {
	p := New(3, false, nil)
	p.Stop() // never started
	p.Start()
	p.Stop()
	p.Stop() // already stopped
}

func TestSetLogRangeTasksGatesChunkTraceRecords(t *testing.T) {
	log := &recordingLogger{}
	p := New(4, true, log)
	p.Start()
	defer p.Stop()
	log.reset() // drop the "worker pool started" record emitted by Start

	p.ParallelFor(func(begin, end int, frame int64, dt time.Duration) {}, 1000, 37, 0, 0)
	if got := len(log.messages()); got != 0 {
		t.Fatalf("expected no chunk trace records with logRangeTasks disabled, got %d", got)
	}

	p.SetLogRangeTasks(true)
	p.ParallelFor(func(begin, end int, frame int64, dt time.Duration) {}, 1000, 37, 0, 0)
	got := log.messages()
	if len(got) == 0 {
		t.Fatal("expected chunk trace records with logRangeTasks enabled, got none")
	}
	for _, m := range got {
		if m != "ChunkStart" && m != "ChunkDone" {
			t.Fatalf("unexpected record %q", m)
		}
	}
}

// recordingLogger is a mutex-guarded Logger used to observe which
// records the pool emits under a given configuration.
type recordingLogger struct {
	mu  sync.Mutex
	msg []string
}

func (l *recordingLogger) Log(level Level, msg string, fields map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msg = append(l.msg, msg)
}

func (l *recordingLogger) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.msg))
	copy(out, l.msg)
	return out
}

func (l *recordingLogger) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msg = nil
}

func TestParallelForRepanicsOnSchedulerGoroutineAndDrainsFirst(t *testing.T) {
	const n = 4000
	var visits atomic.Int64

	p := New(4, true, nil)
	p.Start()
	defer p.Stop()

	func() {
		defer func() {
			r := recover()
			if r == nil {
				t.Fatal("expected ParallelFor to re-panic, got nil")
			}
			if r != "boom" {
				t.Fatalf("expected recovered value %q, got %v", "boom", r)
			}
		}()
		p.ParallelFor(func(begin, end int, frame int64, dt time.Duration) {
			visits.Add(int64(end - begin))
			if begin == 0 {
				panic("boom")
			}
		}, n, 37, 0, 0)
	}()

	if got := visits.Load(); got != n {
		t.Fatalf("expected every chunk to still run despite the panic, got %d of %d elements visited", got, n)
	}

	// The pool must still be usable after a panicking call.
	var sum atomic.Int64
	p.ParallelFor(func(begin, end int, frame int64, dt time.Duration) {
		sum.Add(int64(end - begin))
	}, n, 37, 0, 0)
	if sum.Load() != n {
		t.Fatalf("pool unusable after panic recovery: sum=%d, want %d", sum.Load(), n)
	}
}
