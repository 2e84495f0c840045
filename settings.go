package simcore

// Settings is an immutable snapshot of the driver's tunables. Re-applying
// an identical Settings value is idempotent: derived timing is recomputed
// to the same result and the worker pool is left untouched when Threads
// is unchanged.
//
// Invalid values are clamped rather than rejected; see ApplySettings.
type Settings struct {
	// Hz is the target micro-step rate. Values <= 0 are clamped to 1.
	Hz float64

	// MaxFrames bounds the run to this many frames; -1 means endless.
	// Values < -1 are clamped to -1.
	MaxFrames int64

	// Adaptive enables drift-driven catch-up (spec §4.4).
	Adaptive bool

	// MaxCatchUp bounds extra frames executed per scheduler tick when
	// Adaptive catch-up is active. Negative values are clamped to 0.
	MaxCatchUp int

	// Threads is the worker pool size. 0 is coerced to 1.
	Threads int

	// MainHelps controls whether the scheduling goroutine participates
	// in chunk execution alongside the pool's workers.
	MainHelps bool

	// ChunkSize is the number of elements per chunk when a parallel
	// range task is split across workers. 0 substitutes the default (256).
	ChunkSize int

	// DriftLogInterval is the number of frames between drift
	// observations. Values <= 0 disable drift logging.
	DriftLogInterval int

	// SpinMicros is the fine-wait budget, in microseconds: the scheduler
	// sleeps in short steps until it is within SpinMicros of a deadline,
	// then yields in a tight loop until the deadline is reached.
	SpinMicros int

	// LogPhases enables PhaseBegin/PhaseEnd debug records around every
	// enabled phase.
	LogPhases bool

	// LogRangeTasks enables ChunkStart/ChunkDone trace records around
	// every chunk a worker claims.
	LogRangeTasks bool
}

// DefaultSettings returns the reference configuration used by the
// original simulation core: 500Hz, a bounded 2500-frame run, a single
// worker, and drift observation every 250 frames.
func DefaultSettings() Settings {
	return Settings{
		Hz:               500,
		MaxFrames:        2500,
		Adaptive:         false,
		MaxCatchUp:       4,
		Threads:          1,
		MainHelps:        true,
		ChunkSize:        256,
		DriftLogInterval: 250,
		SpinMicros:       200,
		LogPhases:        false,
		LogRangeTasks:    false,
	}
}

const defaultChunkSize = 256

// normalize clamps a Settings value per spec §7's error-handling policy:
// invalid inputs are coerced to safe defaults rather than rejected.
func (s Settings) normalize() Settings {
	if s.Hz <= 0 {
		s.Hz = 1
	}
	if s.Threads == 0 {
		s.Threads = 1
	}
	if s.Threads < 0 {
		s.Threads = 1
	}
	if s.MaxCatchUp < 0 {
		s.MaxCatchUp = 0
	}
	if s.MaxFrames < -1 {
		s.MaxFrames = -1
	}
	if s.ChunkSize <= 0 {
		s.ChunkSize = defaultChunkSize
	}
	return s
}
