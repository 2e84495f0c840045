package simcore

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/e7canasta/simcore/internal/engine"
)

// Driver owns the settings, phase list, worker pool, and scheduler state
// for one simulation. It is not safe to destroy a Driver while Run is
// executing; callers must let Run return first (spec §5).
type Driver struct {
	settings atomic.Pointer[Settings]
	tmg      atomic.Pointer[timing]

	mu      sync.Mutex // guards phases
	phases  []*phase
	running atomic.Bool

	pool *engine.Pool

	frame             atomic.Int64
	terminate         atomic.Bool
	lastDriftMsBits   atomic.Uint64
	deterministicHash atomic.Uint64

	startReal       int64 // unix nanos, set at Run
	nextFrameTarget int64 // unix nanos

	logger   Logger
	profiler Profiler
	events   EventBus

	runID string
}

// EventBus is the narrow fan-out hook the driver publishes a
// FrameEvent through on every drift observation (every
// DriftLogInterval frames; never when it is <= 0). See package simbus
// for a non-blocking, drop-on-full implementation; the driver depends
// only on this interface to keep simbus an optional, swappable
// collaborator with no import-time coupling.
type EventBus interface {
	Publish(event FrameEvent)
}

// FrameEvent is the telemetry record handed to EventBus. It has the
// same fields as simbus.FrameEvent but is a distinct type, so a
// simbus.Bus is wired in through simbus.NewAdapter.
type FrameEvent struct {
	Frame             int64
	DriftMs           float64
	DeterministicHash uint64
}

// noopEventBus discards every event. Used when no EventBus is
// configured so call sites never need a nil check.
type noopEventBus struct{}

func (noopEventBus) Publish(FrameEvent) {}

// NewDriver constructs a Driver from the given Settings, normalizing it
// and starting the worker pool immediately (spec: "explicit SimCore(const
// Settings&)" in the reference constructor).
func NewDriver(s Settings) *Driver {
	d := &Driver{
		logger:   noopLogger{},
		profiler: noopProfiler{},
		events:   noopEventBus{},
		runID:    uuid.NewString(),
	}
	d.ApplySettings(s)
	return d
}

// SetLogger installs the observability hook used for phase/drift/worker
// records. Passing nil restores the no-op logger.
func (d *Driver) SetLogger(l Logger) {
	if l == nil {
		l = noopLogger{}
	}
	d.logger = l
	if d.pool != nil {
		d.pool.SetLogger(&engineLoggerAdapter{l})
	}
}

// SetProfiler installs the scoped-duration hook. Passing nil restores
// the no-op profiler.
func (d *Driver) SetProfiler(p Profiler) {
	if p == nil {
		p = noopProfiler{}
	}
	d.profiler = p
}

// SetEventBus installs the per-frame telemetry fan-out hook. Passing
// nil restores the no-op bus.
func (d *Driver) SetEventBus(b EventBus) {
	if b == nil {
		b = noopEventBus{}
	}
	d.events = b
}

// RunID returns the UUID generated for this Driver by NewDriver. Run
// includes it in its "run loop start" record; simlog.Logger.WithRunID
// can tag every record with it, letting multiple interleaved runs'
// records be told apart in one sink.
func (d *Driver) RunID() string { return d.runID }

// ApplySettings validates and stores s, recomputes derived timing, and
// resizes the worker pool if the thread count changed. Applying the same
// Settings value twice is equivalent to applying it once: no drift is
// introduced into derived timing and the pool is left untouched when
// Threads is unchanged (spec §8 round-trip property).
//
// Safe to call while Run is executing in another goroutine: the new
// Settings and derived timing are published with release semantics so
// the scheduling goroutine observes a coherent snapshot on its next read
// (spec §4.1).
func (d *Driver) ApplySettings(s Settings) {
	s = s.normalize()

	prevThreads := 0
	if prev := d.settings.Load(); prev != nil {
		prevThreads = prev.Threads
	}

	d.settings.Store(&s)
	t := deriveTiming(s.Hz)
	d.tmg.Store(&t)

	if d.pool == nil {
		d.pool = engine.New(s.Threads, s.MainHelps, &engineLoggerAdapter{d.logger})
		d.pool.Start()
	} else if s.Threads != prevThreads {
		d.pool.Resize(s.Threads, s.MainHelps)
	}
	d.pool.SetLogRangeTasks(s.LogRangeTasks)

	d.logger.Log(LevelInfo, "settings applied", map[string]any{
		"hz": s.Hz, "max_frames": s.MaxFrames, "threads": s.Threads,
		"adaptive": s.Adaptive, "chunk_size": s.ChunkSize,
		"drift_log_interval": s.DriftLogInterval, "spin_micros": s.SpinMicros,
	})
}

// SetHz re-applies the current Settings with Hz replaced, recomputing
// derived timing atomically (spec §4.1).
func (d *Driver) SetHz(hz float64) {
	s := *d.settings.Load()
	s.Hz = hz
	d.ApplySettings(s)
}

// SetMaxFrames re-applies the current Settings with MaxFrames replaced.
func (d *Driver) SetMaxFrames(n int64) {
	s := *d.settings.Load()
	s.MaxFrames = n
	d.ApplySettings(s)
}

// SetAdaptive re-applies the current Settings with Adaptive replaced.
func (d *Driver) SetAdaptive(adaptive bool) {
	s := *d.settings.Load()
	s.Adaptive = adaptive
	d.ApplySettings(s)
}

// SetMaxCatchUp re-applies the current Settings with MaxCatchUp replaced.
func (d *Driver) SetMaxCatchUp(n int) {
	s := *d.settings.Load()
	s.MaxCatchUp = n
	d.ApplySettings(s)
}

// RequestExit sets the terminate flag, observed cooperatively at the top
// of the next scheduler tick; an in-flight frame always completes first
// (spec §5).
func (d *Driver) RequestExit() { d.terminate.Store(true) }

// Frame returns the number of frames completed so far.
func (d *Driver) Frame() int64 { return d.frame.Load() }

// Hz returns the currently configured micro-step rate.
func (d *Driver) Hz() float64 { return d.settings.Load().Hz }

// DtSeconds returns the simulated time increment per frame, in seconds.
func (d *Driver) DtSeconds() float64 { return d.tmg.Load().dtMicro.Seconds() }

// LastDriftMs returns the most recently observed drift, in milliseconds.
// Positive means the simulation is ahead of wall clock; negative means
// behind.
func (d *Driver) LastDriftMs() float64 {
	return math.Float64frombits(d.lastDriftMsBits.Load())
}

func (d *Driver) setLastDriftMs(ms float64) {
	d.lastDriftMsBits.Store(math.Float64bits(ms))
}

// SetDeterministicHash lets a user reduction publish a fingerprint for
// test oracles (spec §4.5).
func (d *Driver) SetDeterministicHash(h uint64) { d.deterministicHash.Store(h) }

// DeterministicHash returns the fingerprint last published via
// SetDeterministicHash.
func (d *Driver) DeterministicHash() uint64 { return d.deterministicHash.Load() }

// Close stops the worker pool and joins its goroutines. Run does not
// stop the pool, so the pool keeps running after Run returns until
// Close is called.
func (d *Driver) Close() {
	if d.pool != nil {
		d.pool.Stop()
	}
}

// engineLoggerAdapter adapts a simcore.Logger to the narrow engine.Logger
// interface, translating the Level enum across the package boundary
// that exists to keep internal/engine free of any simulation-domain
// dependency.
type engineLoggerAdapter struct{ l Logger }

func (a *engineLoggerAdapter) Log(level engine.Level, msg string, fields map[string]any) {
	var lv Level
	switch level {
	case engine.LevelTrace:
		lv = LevelTrace
	case engine.LevelDebug:
		lv = LevelDebug
	default:
		lv = LevelInfo
	}
	a.l.Log(lv, msg, fields)
}
