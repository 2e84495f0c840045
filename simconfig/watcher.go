package simconfig

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/e7canasta/simcore"
)

// Watcher reloads a settings file on change and pushes the result into
// a Driver via ApplySettings. Writes to the file are debounced so a
// burst of fsnotify events from one editor save triggers a single
// reload.
type Watcher struct {
	path     string
	driver   *simcore.Driver
	debounce time.Duration
	onError  func(error)

	fsw  *fsnotify.Watcher
	done chan struct{}

	stopOnce sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the default 100ms debounce window.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithErrorHandler installs a callback invoked when a reload fails
// (malformed YAML, file removed mid-write). The default discards the
// error; the Watcher keeps watching either way.
func WithErrorHandler(fn func(error)) Option {
	return func(w *Watcher) { w.onError = fn }
}

// NewWatcher creates a Watcher for path, targeting driver. Call Start
// to begin watching; call Stop to release the underlying fsnotify
// watcher.
func NewWatcher(path string, driver *simcore.Driver, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:     path,
		driver:   driver,
		debounce: 100 * time.Millisecond,
		onError:  func(error) {},
		fsw:      fsw,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching the file and runs until Stop is called. It
// must be called from its own goroutine.
func (w *Watcher) Start() error {
	if err := w.fsw.Add(w.path); err != nil {
		return err
	}

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.done:
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			timerC = timer.C

		case <-timerC:
			timerC = nil
			w.reload()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.onError(err)
		}
	}
}

func (w *Watcher) reload() {
	s, err := Load(w.path)
	if err != nil {
		w.onError(err)
		return
	}
	w.driver.ApplySettings(s)
}

// Stop releases the underlying fsnotify watcher and ends Start's loop.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() { close(w.done) })
	return w.fsw.Close()
}
