package blade

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
)

// ChangeOp is the kind of change a watcher reports
type ChangeOp int

// Change kinds
const (
	ChangeCreated ChangeOp = iota
	ChangeModified
	ChangeRemoved
	ChangeRenamed
)

// String returns the change kind name
func (op ChangeOp) String() string {
	switch op {
	case ChangeCreated:
		return "created"
	case ChangeModified:
		return "modified"
	case ChangeRemoved:
		return "removed"
	case ChangeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// ChangeEvent is one template file change
type ChangeEvent struct {
	Path string
	Op   ChangeOp
}

// ChangeHandler receives one debounced batch of changes. Errors are logged.
type ChangeHandler func(events []ChangeEvent) error

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	// Debounce groups events arriving within this window into one batch.
	// Default: 100ms.
	Debounce time.Duration

	// Extensions limits reported files to these suffixes.
	// Default: ".blade.php".
	Extensions []string

	// Logger receives watcher logs. Default: no-op.
	Logger *zap.Logger
}

// Watcher watches template directories and clears a CachedStorage when the
// files under them change, so the next compilation reads fresh sources.
type Watcher struct {
	fsw    *fsnotify.Watcher
	cache  *CachedStorage
	config WatcherConfig
	logger *zap.Logger

	mu       sync.Mutex
	handlers []ChangeHandler
	started  bool
	closed   bool

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewWatcher creates a watcher that invalidates cache on changes. cache may be
// nil when only handlers are of interest.
func NewWatcher(cache *CachedStorage, config WatcherConfig) (*Watcher, error) {
	if config.Debounce <= 0 {
		config.Debounce = DefaultWatchDebounce
	}
	if len(config.Extensions) == 0 {
		config.Extensions = []string{DefaultExtension}
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, &StorageError{Message: ErrMsgWatcherCreateFailed, Cause: err}
	}
	return &Watcher{
		fsw:    fsw,
		cache:  cache,
		config: config,
		logger: logger,
		done:   make(chan struct{}),
	}, nil
}

// WatchStorage creates a watcher over the roots of a filesystem storage,
// optionally wrapped in a CachedStorage that then gets invalidated.
func WatchStorage(storage SourceStorage, config WatcherConfig) (*Watcher, error) {
	cache, _ := storage.(*CachedStorage)
	inner := storage
	if cache != nil {
		inner = cache.Unwrap()
	}
	if fss, ok := inner.(*FilesystemStorage); ok && len(config.Extensions) == 0 {
		config.Extensions = fss.Extensions()
	}

	w, err := NewWatcher(cache, config)
	if err != nil {
		return nil, err
	}
	if fss, ok := inner.(*FilesystemStorage); ok {
		for _, root := range fss.Roots() {
			if err := w.AddRoot(root); err != nil {
				_ = w.Close()
				return nil, err
			}
		}
	}
	return w, nil
}

// AddRoot watches root and every directory below it.
func (w *Watcher) AddRoot(root string) error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return &StorageError{Message: ErrMsgWatcherClosed}
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return &StorageError{Message: ErrMsgWatcherAddFailed, Name: path, Cause: err}
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return &StorageError{Message: ErrMsgWatcherAddFailed, Name: path, Cause: err}
		}
		return nil
	})
}

// OnChange registers a handler for debounced change batches.
func (w *Watcher) OnChange(handler ChangeHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, handler)
}

// Start begins processing events until ctx is done or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return &StorageError{Message: ErrMsgWatcherClosed}
	}
	if w.started {
		return &StorageError{Message: ErrMsgWatcherRunning}
	}
	w.started = true

	w.logger.Debug(LogMsgWatcherStart, zap.Strings(LogFieldRoots, w.fsw.WatchList()))
	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()

		close(w.done)
		err = w.fsw.Close()
		w.wg.Wait()
		w.logger.Debug(LogMsgWatcherStop)
	})
	return err
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	var (
		pending []ChangeEvent
		index   = make(map[string]int)
		timerC  <-chan time.Time
	)
	timer := time.NewTimer(w.config.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			change, keep := w.convert(ev)
			if !keep {
				continue
			}
			w.logger.Debug(LogMsgWatcherEvent,
				zap.String(LogFieldPath, change.Path),
				zap.Stringer(LogFieldOp, change.Op))
			// later events on the same path replace earlier ones
			if i, seen := index[change.Path]; seen {
				pending[i] = change
			} else {
				index[change.Path] = len(pending)
				pending = append(pending, change)
			}
			timer.Reset(w.config.Debounce)
			timerC = timer.C
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn(LogMsgWatcherError, zap.Error(err))
		case <-timerC:
			timerC = nil
			w.flush(pending)
			pending = nil
			index = make(map[string]int)
		}
	}
}

// convert maps an fsnotify event to a change. New directories are watched
// and produce no change of their own.
func (w *Watcher) convert(ev fsnotify.Event) (ChangeEvent, bool) {
	var op ChangeOp
	switch {
	case ev.Has(fsnotify.Create):
		op = ChangeCreated
	case ev.Has(fsnotify.Write):
		op = ChangeModified
	case ev.Has(fsnotify.Remove):
		op = ChangeRemoved
	case ev.Has(fsnotify.Rename):
		op = ChangeRenamed
	default:
		return ChangeEvent{}, false
	}

	if op == ChangeCreated {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.AddRoot(ev.Name); err != nil && !errors.Is(err, fs.ErrNotExist) {
				w.logger.Warn(LogMsgWatcherError, zap.Error(err))
			}
			return ChangeEvent{}, false
		}
	}
	// a removed directory can no longer be inspected, so it always counts
	if !w.matches(ev.Name) && op != ChangeRemoved && op != ChangeRenamed {
		return ChangeEvent{}, false
	}
	return ChangeEvent{Path: ev.Name, Op: op}, true
}

func (w *Watcher) matches(path string) bool {
	for _, ext := range w.config.Extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// flush invalidates the cache and hands the batch to the handlers
func (w *Watcher) flush(events []ChangeEvent) {
	if len(events) == 0 {
		return
	}
	if w.cache != nil {
		w.cache.InvalidateAll()
	}
	w.logger.Debug(LogMsgWatcherFlush, zap.Int(LogFieldCount, len(events)))

	w.mu.Lock()
	handlers := append([]ChangeHandler(nil), w.handlers...)
	w.mu.Unlock()

	for _, h := range handlers {
		if err := h(append([]ChangeEvent(nil), events...)); err != nil {
			w.logger.Warn(LogMsgWatcherHandlerErr, zap.Error(err))
		}
	}
}
