// Package watch keeps an output tree in sync with a directory of
// region-result files, converting each file shortly after it settles.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"regiontikz/internal/batch"
)

// Watcher watches an input directory for region-result files and runs
// each changed file through the batch pipeline, skip rules included.
// Rapid saves are debounced so a file converts once after it settles.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	runner      *batch.Runner
	log         *zap.Logger
	inputDir    string
	recursive   bool
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	runID       string
	onFile      func(batch.FileOutcome)
	stats       Stats
}

// Stats tracks watcher activity.
type Stats struct {
	FilesSeen     int
	Converted     int
	Skipped       int
	Failed        int
	Errors        int
	LastEventTime time.Time
	LastEventPath string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger attaches a logger; the default is a nop logger.
func WithLogger(log *zap.Logger) Option {
	return func(w *Watcher) { w.log = log }
}

// WithDebounce overrides the settle window (default 500ms).
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounceDur = d }
}

// WithProgress calls fn after each conversion attempt.
func WithProgress(fn func(batch.FileOutcome)) Option {
	return func(w *Watcher) { w.onFile = fn }
}

// New creates a Watcher over inputDir. The runner supplies output
// mapping, conversion, and skip rules.
func New(inputDir string, recursive bool, runner *batch.Runner, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:     fsw,
		runner:      runner,
		log:         zap.NewNop(),
		inputDir:    inputDir,
		recursive:   recursive,
		debounceMap: make(map[string]time.Time),
		debounceDur: 500 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching. Non-blocking; the event loop runs in a
// goroutine until Stop or context cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.runID = uuid.NewString()
	w.mu.Unlock()

	if err := w.watcher.Add(w.inputDir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		w.watcher.Close()
		return err
	}
	if w.recursive {
		err := filepath.WalkDir(w.inputDir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && path != w.inputDir {
				return w.watcher.Add(path)
			}
			return nil
		})
		if err != nil {
			w.log.Warn("failed to watch some subdirectories", zap.Error(err))
		}
	}

	w.log.Info("watching for region-result changes",
		zap.String("dir", w.inputDir),
		zap.Bool("recursive", w.recursive),
		zap.String("run_id", w.runID))

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to drain.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.log.Error("failed to close watcher", zap.Error(err))
	}
	w.log.Info("watcher stopped")
}

// run is the event loop.
func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	// The ticker drains the debounce map; events only record intent.
	settle := time.NewTicker(100 * time.Millisecond)
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("watcher context canceled")
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("watch error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-settle.C:
			w.processSettled(ctx)
		}
	}
}

// handleEvent records a file event for debounced processing. New
// directories are added to the watch set when running recursively,
// since the underlying watches are not recursive themselves.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 && w.recursive {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.addDirectory(event.Name)
			return
		}
	}

	if !batch.IsRegionResult(event.Name) {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	w.log.Debug("file event", zap.String("op", event.Op.String()), zap.String("path", event.Name))

	w.mu.Lock()
	if _, pending := w.debounceMap[event.Name]; !pending {
		w.stats.FilesSeen++
	}
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = event.Name
	w.debounceMap[event.Name] = time.Now()
	w.mu.Unlock()
}

// addDirectory watches a newly created directory and queues any
// region-result files already inside it, which otherwise produce no
// events of their own.
func (w *Watcher) addDirectory(dir string) {
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		if batch.IsRegionResult(path) {
			w.mu.Lock()
			if _, pending := w.debounceMap[path]; !pending {
				w.stats.FilesSeen++
			}
			w.debounceMap[path] = time.Now()
			w.mu.Unlock()
		}
		return nil
	})
	if err != nil {
		w.log.Warn("failed to watch new directory", zap.String("dir", dir), zap.Error(err))
		return
	}
	w.log.Debug("watching new directory", zap.String("dir", dir))
}

// processSettled converts files whose last event is older than the
// debounce window.
func (w *Watcher) processSettled(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var ready []string
	for path, last := range w.debounceMap {
		if now.Sub(last) >= w.debounceDur {
			ready = append(ready, path)
			delete(w.debounceMap, path)
		}
	}
	runID := w.runID
	w.mu.Unlock()

	for _, path := range ready {
		if _, err := os.Stat(path); err != nil {
			// Deleted before it settled.
			continue
		}
		out := w.runner.ProcessFile(ctx, runID, path)

		w.mu.Lock()
		switch out.Status {
		case batch.StatusConverted:
			w.stats.Converted++
		case batch.StatusSkipped:
			w.stats.Skipped++
		case batch.StatusFailed:
			w.stats.Failed++
		}
		w.mu.Unlock()

		switch out.Status {
		case batch.StatusConverted:
			w.log.Info("converted",
				zap.String("input", out.Input),
				zap.String("output", out.Output),
				zap.Int("regions", out.Regions))
		case batch.StatusSkipped:
			w.log.Debug("skipped", zap.String("input", out.Input), zap.String("reason", out.Reason))
		case batch.StatusFailed:
			w.log.Warn("conversion failed", zap.String("input", out.Input), zap.Error(out.Err))
		}

		if w.onFile != nil {
			w.onFile(out)
		}
	}
}

// GetStats returns a snapshot of the watcher statistics.
func (w *Watcher) GetStats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// IsWatching reports whether the event loop is running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// WatchedDirs returns the directories currently being watched.
func (w *Watcher) WatchedDirs() []string {
	return w.watcher.WatchList()
}
