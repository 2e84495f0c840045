package engine

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Task is a callable over a half-open sub-range of [0, elementCount).
type Task func(begin, end int, frame int64, dt time.Duration)

// Level mirrors simcore.Level without importing the simcore package
// (which imports engine); Logger implementations adapt between the two.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
)

// Logger is the narrow logging hook the pool reports worker lifecycle
// and (optionally) per-chunk dispatch events through.
type Logger interface {
	Log(level Level, msg string, fields map[string]any)
}

type nopLogger struct{}

func (nopLogger) Log(Level, string, map[string]any) {}

// activeRange is the descriptor shared between the dispatching goroutine
// and the pool's workers for the duration of one ParallelFor call. It is
// written in full before the dispatch token is published and is
// treated as immutable by every worker thereafter — see the package doc
// for the happens-before argument that makes this safe without a mutex.
type activeRange struct {
	task         Task
	elementCount int
	chunkSize    int
	totalChunks  int
	frame        int64
	dt           time.Duration
}

// Pool is a persistent set of worker goroutines that execute one Task at
// a time over a chunked index domain, guaranteeing every index in
// [0, elementCount) is processed exactly once regardless of worker count
// (spec §4.2). ParallelFor is safe to call repeatedly and performs no
// allocation on the hot path beyond the Task closure itself.
type Pool struct {
	logger Logger

	mu        sync.Mutex // guards start/stop/resize, not the hot path
	threads   int
	mainHelps bool
	wg        sync.WaitGroup
	started   bool

	shutdown      atomic.Bool
	dispatchToken atomic.Uint64
	nextChunk     atomic.Uint64
	remaining     atomic.Uint64

	active activeRange

	logRangeTasks bool
	panicked      atomic.Pointer[recoveredPanic]
}

// recoveredPanic carries a panic value captured on a worker goroutine
// across to the scheduler goroutine that called ParallelFor.
type recoveredPanic struct {
	value any
}

// New constructs a Pool with the given worker count (coerced to at least
// one) and main-goroutine participation flag, but does not start its
// workers — call Start.
func New(threads int, mainHelps bool, logger Logger) *Pool {
	if threads < 1 {
		threads = 1
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &Pool{threads: threads, mainHelps: mainHelps, logger: logger}
}

// SetLogRangeTasks enables per-chunk dispatch trace logging, matching
// the reference implementation's logRangeTasks setting.
func (p *Pool) SetLogRangeTasks(enabled bool) { p.logRangeTasks = enabled }

// SetLogger replaces the pool's logging hook. Passing nil restores the
// no-op logger.
func (p *Pool) SetLogger(logger Logger) {
	if logger == nil {
		logger = nopLogger{}
	}
	p.logger = logger
}

// Threads reports the configured worker count.
func (p *Pool) Threads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.threads
}

// Start spawns the pool's worker goroutines. Safe to call once per
// Stop/Start cycle; calling Start on an already-started pool is a no-op.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.shutdown.Store(false)
	p.wg.Add(p.threads)
	token := p.dispatchToken.Load()
	for i := 0; i < p.threads; i++ {
		go p.workerLoop(token)
	}
	p.started = true
	p.logger.Log(LevelInfo, "worker pool started", map[string]any{"threads": p.threads})
}

// Stop signals every worker to exit and joins them. Safe to call on a
// pool that was never started, and idempotent.
func (p *Pool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	p.shutdown.Store(true)
	p.dispatchToken.Add(1) // wake every worker parked on the old token
	p.wg.Wait()
	p.started = false
	p.logger.Log(LevelInfo, "worker pool stopped", nil)
}

// Resize replaces the pool's worker set. Per spec §4.2, a thread-count
// change performs a full stop/start rather than an incremental resize.
func (p *Pool) Resize(threads int, mainHelps bool) {
	if threads < 1 {
		threads = 1
	}
	wasStarted := p.isStarted()
	if wasStarted {
		p.Stop()
	}
	p.mu.Lock()
	p.threads = threads
	p.mainHelps = mainHelps
	p.mu.Unlock()
	if wasStarted {
		p.Start()
	}
}

func (p *Pool) isStarted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

// workerLoop is the body of every pool worker: spin on the dispatch
// token until a new range is published or shutdown is observed, then
// claim and execute chunks until the range is drained. localToken is the
// token read in Start, so a range published before the goroutine first
// runs is still seen as new.
func (p *Pool) workerLoop(localToken uint64) {
	defer p.wg.Done()
	for {
		for localToken == p.dispatchToken.Load() && !p.shutdown.Load() {
			runtime.Gosched()
		}
		if p.shutdown.Load() {
			return
		}
		localToken = p.dispatchToken.Load()
		p.claimChunks()
	}
}

// claimChunks runs the atomic claim loop described in spec §4.2: each
// worker fetch-adds nextChunk to grab a disjoint chunk index, executes
// it, and decrements remaining, breaking out once it observes the range
// drained. remaining must be decremented even mid-range if shutdown is
// observed, so the dispatcher is never left waiting on a range no
// worker will finish.
func (p *Pool) claimChunks() {
	for {
		idx := p.nextChunk.Add(1) - 1
		if idx >= uint64(p.active.totalChunks) {
			return
		}
		begin := int(idx) * p.active.chunkSize
		end := begin + p.active.chunkSize
		if end > p.active.elementCount {
			end = p.active.elementCount
		}
		if p.logRangeTasks {
			p.logger.Log(LevelTrace, "ChunkStart", map[string]any{"idx": idx, "begin": begin, "end": end})
		}
		p.runChunk(begin, end)
		rem := p.remaining.Add(^uint64(0))
		if p.logRangeTasks {
			p.logger.Log(LevelTrace, "ChunkDone", map[string]any{"idx": idx, "remaining": rem})
		}
		if rem == 0 {
			return
		}
	}
}

// runChunk executes one chunk, recovering a panic raised by the user
// Task so it cannot crash the worker goroutine outright (spec §7:
// worker exceptions "must either be prohibited by contract or captured
// and re-raised on the scheduler thread after join"). Only the first
// panic observed across all workers in a ParallelFor call is kept;
// remaining is still decremented by the caller on return, so the
// dispatcher in ParallelFor is never left spinning on a chunk no worker
// will finish.
func (p *Pool) runChunk(begin, end int) {
	defer func() {
		if r := recover(); r != nil {
			p.panicked.CompareAndSwap(nil, &recoveredPanic{value: r})
		}
	}()
	p.active.task(begin, end, p.active.frame, p.active.dt)
}

// ParallelFor executes task over [0, elementCount) split into chunks of
// chunkSize, blocking until every chunk has completed. Callers are
// expected to bypass ParallelFor (and call task(0, elementCount, ...)
// directly) when there is only one worker or elementCount is zero;
// ParallelFor still handles elementCount == 0 correctly as a defensive
// fast path.
func (p *Pool) ParallelFor(task Task, elementCount, chunkSize int, frame int64, dt time.Duration) {
	if elementCount <= 0 {
		return
	}
	if chunkSize <= 0 {
		chunkSize = 256
	}
	totalChunks := (elementCount + chunkSize - 1) / chunkSize

	p.active = activeRange{
		task:         task,
		elementCount: elementCount,
		chunkSize:    chunkSize,
		totalChunks:  totalChunks,
		frame:        frame,
		dt:           dt,
	}
	p.panicked.Store(nil)
	p.nextChunk.Store(0)
	p.remaining.Store(uint64(totalChunks))
	p.dispatchToken.Add(1) // release: publishes the descriptor above

	if p.mainHelps {
		p.claimChunks()
	}
	for p.remaining.Load() > 0 {
		runtime.Gosched()
	}

	if r := p.panicked.Swap(nil); r != nil {
		panic(r.value)
	}
}
