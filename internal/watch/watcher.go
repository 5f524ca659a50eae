// Package watch re-indexes a document directory whenever a supported file in
// it is created, modified, removed or renamed.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/simiyu-dess/OnboardIQ/internal/ingest"
	"github.com/simiyu-dess/OnboardIQ/internal/logging"
	"github.com/simiyu-dess/OnboardIQ/internal/service"
)

// DefaultDebounce is how long the directory must be quiet before re-indexing.
const DefaultDebounce = 500 * time.Millisecond

// Indexer is the part of the service the watcher drives.
type Indexer interface {
	IndexFiles(ctx context.Context, paths []string, clearExisting bool) (service.IndexReport, error)
	ClearAll(ctx context.Context) error
}

// Stats counts watcher activity.
type Stats struct {
	Events    int
	Reindexes int
	Errors    int
	LastPath  string
	LastRun   time.Time
}

// Watcher rebuilds the collection from dir after changes settle.
type Watcher struct {
	mu       sync.Mutex
	fs       *fsnotify.Watcher
	dir      string
	idx      Indexer
	debounce time.Duration
	log      *zap.Logger
	pending  time.Time
	stats    Stats
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool

	// OnIndexed, if set, is called after every rebuild attempt.
	OnIndexed func(service.IndexReport, error)
}

// New creates a watcher over dir. A debounce of zero uses DefaultDebounce.
func New(dir string, idx Indexer, debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		fs:       fw,
		dir:      dir,
		idx:      idx,
		debounce: debounce,
		log:      logging.OrNop(log).Named("watch"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start registers dir and its subdirectories and begins processing events.
// Watches are in place when Start returns.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.addTree(w.dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	w.log.Info("watching directory", zap.String("dir", w.dir))
	go w.run(ctx)
	return nil
}

// Stop ends event processing and releases the OS watches.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		_ = w.fs.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	if err := w.fs.Close(); err != nil {
		w.log.Error("closing watcher", zap.Error(err))
	}
}

// Done is closed once the event loop has exited.
func (w *Watcher) Done() <-chan struct{} { return w.doneCh }

// Stats returns a snapshot of the counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fs.Add(path)
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := time.NewTicker(max(w.debounce/5, 10*time.Millisecond))
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Error("watch error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case <-tick.C:
			w.mu.Lock()
			due := !w.pending.IsZero() && time.Since(w.pending) >= w.debounce
			if due {
				w.pending = time.Time{}
			}
			w.mu.Unlock()
			if due {
				w.reindex(ctx)
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if isDir(event.Name) {
			if err := w.addTree(event.Name); err != nil {
				w.log.Warn("watching new directory", zap.String("dir", event.Name), zap.Error(err))
			}
			return
		}
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if !ingest.Supported(event.Name) {
		return
	}
	w.log.Debug("change", zap.String("path", event.Name), zap.String("op", event.Op.String()))

	w.mu.Lock()
	w.stats.Events++
	w.stats.LastPath = event.Name
	w.pending = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) reindex(ctx context.Context) {
	report, err := w.idx.IndexFiles(ctx, []string{w.dir}, true)
	if errors.Is(err, ingest.ErrNoDocuments) {
		// Every supported file is gone.
		err = w.idx.ClearAll(ctx)
	}

	w.mu.Lock()
	w.stats.Reindexes++
	w.stats.LastRun = time.Now()
	if err != nil {
		w.stats.Errors++
	}
	w.mu.Unlock()

	if err != nil {
		w.log.Error("re-index failed", zap.String("dir", w.dir), zap.Error(err))
	} else {
		w.log.Info("re-indexed", zap.String("dir", w.dir), zap.Int("fragments", report.Fragments))
	}
	if w.OnIndexed != nil {
		w.OnIndexed(report, err)
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
