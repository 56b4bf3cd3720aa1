// Package watcher turns filesystem activity in a spec directory into
// debounced ingest triggers.
//
// Rapid event bursts for one file (editors commonly emit several writes per
// save) collapse into a single trigger per quiet period. Removals cancel any
// pending trigger for the path and are surfaced as notices; stored specs are
// never deleted automatically.
package watcher

import (
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/specdeck/specdeck/errors"
	"github.com/specdeck/specdeck/spec/loader"
)

// DefaultDebounce is the quiet period before a changed file triggers.
const DefaultDebounce = 200 * time.Millisecond

// DefaultMaxTriggersPerMinute caps sustained triggers per path; bursts up to
// the cap pass through immediately.
const DefaultMaxTriggersPerMinute = 60

// Config controls a Watcher. OnChange is required; OnRemove may be nil.
type Config struct {
	// Debounce is the per-path quiet period (DefaultDebounce when zero)
	Debounce time.Duration
	// MaxTriggersPerMinute caps sustained triggers per path
	// (DefaultMaxTriggersPerMinute when zero)
	MaxTriggersPerMinute int
	// OnChange is called with the path of a created or modified spec file
	// after its debounce window closes
	OnChange func(path string)
	// OnRemove is called when a watched spec file is removed or renamed away
	OnRemove func(path string)
}

// Watcher monitors one directory for spec file changes. It is either
// stopped or watching; Start and Stop move between the two and are safe to
// call repeatedly.
type Watcher struct {
	logger   *zap.SugaredLogger
	config   Config
	debounce *Debouncer

	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	dir      string
	watching bool
	limiters map[string]*rate.Limiter
	wg       sync.WaitGroup
}

// New creates a stopped watcher. logger may be nil.
func New(config Config, logger *zap.SugaredLogger) (*Watcher, error) {
	if config.OnChange == nil {
		return nil, errors.Mark(errors.New("OnChange callback is required"), errors.ErrWatch)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if config.MaxTriggersPerMinute <= 0 {
		config.MaxTriggersPerMinute = DefaultMaxTriggersPerMinute
	}

	w := &Watcher{
		logger:   logger,
		config:   config,
		limiters: make(map[string]*rate.Limiter),
	}
	w.debounce = NewDebouncer(config.Debounce, w.fire)
	return w, nil
}

// Start begins watching dir. Calling Start while already watching is a
// no-op.
func (w *Watcher) Start(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watching {
		w.logger.Debugw("Watcher already running", "dir", w.dir)
		return nil
	}

	info, err := os.Stat(dir)
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "cannot watch %s", dir), errors.ErrWatch)
	}
	if !info.IsDir() {
		return errors.Mark(errors.Newf("watch target %s is not a directory", dir), errors.ErrWatch)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Mark(errors.Wrap(err, "failed to create fsnotify watcher"), errors.ErrWatch)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return errors.Mark(errors.Wrapf(err, "failed to watch directory %s", dir), errors.ErrWatch)
	}

	w.fsw = fsw
	w.dir = dir
	w.watching = true
	w.debounce = NewDebouncer(w.config.Debounce, w.fire)

	w.wg.Add(1)
	go w.loop(fsw)

	w.logger.Infow("Watching spec directory", "dir", dir, "debounce", w.config.Debounce)
	return nil
}

// Stop halts watching and cancels pending triggers. Stopping a stopped
// watcher is a no-op.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.watching {
		w.mu.Unlock()
		return nil
	}
	fsw := w.fsw
	w.fsw = nil
	w.watching = false
	w.mu.Unlock()

	err := fsw.Close()
	w.wg.Wait()
	w.debounce.Stop()

	w.logger.Infow("Stopped watching spec directory", "dir", w.dir)
	return err
}

// Watching reports whether the watcher is currently running.
func (w *Watcher) Watching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watching
}

func (w *Watcher) loop(fsw *fsnotify.Watcher) {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			// Watch errors are reported but never restart the watcher
			w.logger.Warnw("Watcher error", "dir", w.dir, "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !loader.IsSupportedFile(event.Name) {
		return
	}

	switch {
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		if !w.allowTrigger(event.Name) {
			w.logger.Warnw("Trigger rate limit exceeded, dropping event",
				"path", event.Name,
				"max_per_minute", w.config.MaxTriggersPerMinute)
			return
		}
		w.logger.Debugw("Spec file changed", "path", event.Name, "op", event.Op.String())
		w.debounce.Trigger(event.Name)

	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.debounce.Cancel(event.Name)
		w.logger.Infow("Spec file removed", "path", event.Name, "op", event.Op.String())
		if w.config.OnRemove != nil {
			w.config.OnRemove(event.Name)
		}
	}
}

// fire runs after a path's debounce window closes.
func (w *Watcher) fire(path string) {
	// The file may have vanished between the last event and the window
	// closing; treat that as a removal, not a change
	if _, err := os.Stat(path); err != nil {
		w.logger.Infow("Spec file gone before trigger fired", "path", path)
		if w.config.OnRemove != nil {
			w.config.OnRemove(path)
		}
		return
	}
	w.config.OnChange(path)
}

// allowTrigger enforces the per-path sustained trigger ceiling.
func (w *Watcher) allowTrigger(path string) bool {
	w.mu.Lock()
	limiter, ok := w.limiters[path]
	if !ok {
		perMinute := w.config.MaxTriggersPerMinute
		limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute)
		w.limiters[path] = limiter
	}
	w.mu.Unlock()

	return limiter.Allow()
}
