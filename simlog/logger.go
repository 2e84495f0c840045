package simlog

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/e7canasta/simcore"
)

// Logger adapts a *logrus.Logger to simcore.Logger. The zero value is
// not usable; construct with New.
type Logger struct {
	entry *logrus.Entry
}

var _ simcore.Logger = (*Logger)(nil)

// New builds a Logger writing to stdout at simcore.LevelInfo by
// default. Use SetLevel and AddHook to customize it further.
func New() *Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &Logger{entry: logrus.NewEntry(l)}
}

// WithRunID returns a Logger that tags every record with run_id,
// letting records from concurrent Driver instances sharing one sink be
// told apart.
func (l *Logger) WithRunID(runID string) *Logger {
	return &Logger{entry: l.entry.WithField("run_id", runID)}
}

// SetLevel adjusts the minimum level the underlying logrus.Logger
// emits.
func (l *Logger) SetLevel(level simcore.Level) {
	l.entry.Logger.SetLevel(toLogrusLevel(level))
}

// AddHook registers a logrus.Hook on the underlying logger, e.g. a
// RingBufferHook or a lumberjack-backed file writer.
func (l *Logger) AddHook(h logrus.Hook) {
	l.entry.Logger.AddHook(h)
}

// Log implements simcore.Logger.
func (l *Logger) Log(level simcore.Level, msg string, fields map[string]any) {
	e := l.entry
	if len(fields) > 0 {
		e = e.WithFields(fields)
	}
	e.Log(toLogrusLevel(level), msg)
}

func toLogrusLevel(level simcore.Level) logrus.Level {
	switch level {
	case simcore.LevelTrace:
		return logrus.TraceLevel
	case simcore.LevelDebug:
		return logrus.DebugLevel
	case simcore.LevelWarn:
		return logrus.WarnLevel
	case simcore.LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// RingBufferHook is a logrus.Hook that keeps the last cap records in
// memory, overwriting the oldest once full. It never blocks on I/O and
// is safe to attach to a Logger used from the scheduling goroutine
// (spec's performance rule against per-frame allocation-heavy
// collaborators on the hot path still applies: keep cap modest).
type RingBufferHook struct {
	mu      sync.Mutex
	cap     int
	buf     []*logrus.Entry
	head    int
	wrapped bool
}

// NewRingBufferHook constructs a RingBufferHook holding up to cap
// records. cap <= 0 is treated as 8192, matching the reference
// logger's default.
func NewRingBufferHook(cap int) *RingBufferHook {
	if cap <= 0 {
		cap = 8192
	}
	return &RingBufferHook{cap: cap}
}

// Levels implements logrus.Hook: the ring buffer captures everything.
func (h *RingBufferHook) Levels() []logrus.Level { return logrus.AllLevels }

// Fire implements logrus.Hook.
func (h *RingBufferHook) Fire(e *logrus.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.buf) < h.cap {
		h.buf = append(h.buf, e)
		return nil
	}
	h.buf[h.head] = e
	h.head = (h.head + 1) % h.cap
	h.wrapped = true
	return nil
}

// Snapshot returns the buffered records in chronological order.
func (h *RingBufferHook) Snapshot() []*logrus.Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.wrapped {
		out := make([]*logrus.Entry, len(h.buf))
		copy(out, h.buf)
		return out
	}
	out := make([]*logrus.Entry, len(h.buf))
	for i := range h.buf {
		out[i] = h.buf[(h.head+i)%len(h.buf)]
	}
	return out
}

// NewFileSink opens path for appending and returns an io.Writer-backed
// *os.File suitable for logrus.Logger.SetOutput, along with the file so
// callers can Close it on shutdown.
func NewFileSink(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}
