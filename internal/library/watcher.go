package library

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"mediahub/internal/logging"
)

const defaultDebounce = time.Second

// Remover deletes stored rows for files that disappeared.
type Remover interface {
	RemoveMediaFiles(ctx context.Context, keys ...string) (int64, error)
}

// Watcher resolves files as they appear in the shared folders and forgets
// them when they are removed.
type Watcher struct {
	scanner  *Scanner
	remover  Remover
	debounce time.Duration
	logger   *slog.Logger
	fsw      *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
	done    chan struct{}
}

// WatcherOption customizes a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets how long a path must stay quiet before it is handled.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a watcher over the scanner's shared folders.
func NewWatcher(scanner *Scanner, remover Remover, logger *slog.Logger, opts ...WatcherOption) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		scanner:  scanner,
		remover:  remover,
		debounce: defaultDebounce,
		logger:   logging.NewComponentLogger(logger, "library-watcher"),
		fsw:      fsw,
		pending:  make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start registers every folder and processes events until ctx ends or Close
// is called.
func (w *Watcher) Start(ctx context.Context) {
	for _, folder := range w.scanner.folders {
		w.addRecursive(folder)
	}
	w.wg.Add(1)
	go w.loop(ctx)
	w.logger.Info("watching shared folders", logging.Int("folders", len(w.scanner.folders)))
}

// Close stops the watcher and waits for pending handlers.
func (w *Watcher) Close() error {
	select {
	case <-w.done:
		return nil
	default:
		close(w.done)
	}
	err := w.fsw.Close()
	w.wg.Wait()
	w.mu.Lock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()
	return err
}

func (w *Watcher) addRecursive(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if hidden(d.Name()) && path != root {
			return fs.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Debug("watch add failed", logging.Path(path), logging.Error(err))
		}
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ctx, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.WarnWithContext(w.logger, "filesystem watch error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "some changes may wait for the next rescan"),
			)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	base := filepath.Base(event.Name)
	if hidden(base) || strings.HasSuffix(base, ".tmp") || strings.HasSuffix(base, ".part") {
		return
	}
	created := event.Has(fsnotify.Create) || event.Has(fsnotify.Write)
	removed := event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
	if !created && !removed {
		return
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.addRecursive(event.Name)
			return
		}
	}
	if w.scanner.deps.Registry.Match(base) == nil {
		return
	}

	path := event.Name
	w.mu.Lock()
	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		select {
		case <-w.done:
			return
		default:
		}
		w.settle(ctx, path)
	})
	w.mu.Unlock()
}

// settle handles a path once its events have stopped. The file's presence
// decides whether it is resolved or forgotten.
func (w *Watcher) settle(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}
	if _, err := os.Stat(path); err == nil {
		_, valid := w.scanner.ResolveFile(ctx, path)
		w.logger.Debug("file changed", logging.Path(path), logging.Bool("valid", valid))
		return
	}
	if w.remover == nil {
		return
	}
	if _, err := w.remover.RemoveMediaFiles(ctx, path); err != nil {
		logging.WarnWithContext(w.logger, "failed to forget removed file", "watch_remove_failed",
			logging.Path(path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale entry remains until the next restart"),
		)
		return
	}
	w.logger.Debug("file removed", logging.Path(path))
}
