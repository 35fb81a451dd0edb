// Package watch observes a directory tree for newly created video files,
// waits for writers to finish, and hands settled files to a handler with
// per-path duplicate suppression.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/ta2music/internal/util"
	"github.com/fsnotify/fsnotify"
)

// DefaultSettleWait is the grace period between a creation event and the
// first look at the file, letting the archiving tool finish writing.
const DefaultSettleWait = 2 * time.Second

// Handler processes one settled video file
type Handler func(ctx context.Context, path string)

// Watcher delivers settled creation events under a root directory
type Watcher struct {
	root       string
	settleWait time.Duration
	handler    Handler
	logger     *util.Logger
	inflight   *inFlight
	fsw        *fsnotify.Watcher
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// Config holds watcher configuration
type Config struct {
	Root       string        // Directory tree to watch recursively
	SettleWait time.Duration // Grace period before processing (0 = DefaultSettleWait)
	Handler    Handler
	Logger     *util.Logger
}

// New creates a new Watcher
func New(cfg *Config) (*Watcher, error) {
	if cfg.SettleWait <= 0 {
		cfg.SettleWait = DefaultSettleWait
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		root:       cfg.Root,
		settleWait: cfg.SettleWait,
		handler:    cfg.Handler,
		logger:     cfg.Logger,
		inflight:   newInFlight(),
		fsw:        fsw,
	}, nil
}

// Start begins watching. It first sweeps the existing tree so videos
// archived while the daemon was down are picked up, then follows creation
// events until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)

	if err := w.addTree(ctx, w.root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}

	w.wg.Add(1)
	go w.loop(ctx)

	return nil
}

// Stop cancels the settle waits, stops event delivery and waits for all
// in-flight handlers to return. External fetch processes started by a
// handler are cancelled through the context but not waited on here.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.fsw.Close()
	w.wg.Wait()
}

// addTree registers dir and all its subdirectories with the fsnotify
// watcher and dispatches any files already present. Files can land between
// directory creation and watch registration; the sweep closes that gap and
// the in-flight set plus the dedup ledger keep it idempotent.
func (w *Watcher) addTree(ctx context.Context, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Entries can vanish mid-walk; skip them
			w.logger.Debugf("Skipping %s during walk: %v", path, err)
			return nil
		}
		if d.IsDir() {
			if err := w.fsw.Add(path); err != nil {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
			w.logger.Debugf("Watching directory: %s", path)
			return nil
		}
		w.dispatch(ctx, path)
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create == 0 {
				continue
			}

			info, err := os.Stat(event.Name)
			if err != nil {
				// Gone already; transient noise
				continue
			}
			if info.IsDir() {
				// New channel directory: watch it and sweep files that
				// raced ahead of the watch registration
				if err := w.addTree(ctx, event.Name); err != nil {
					w.logger.Warnf("Failed to watch new directory %s: %v", event.Name, err)
				}
				continue
			}

			w.dispatch(ctx, event.Name)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warnf("Watcher error: %v", err)
		}
	}
}

// dispatch runs the settle wait and the handler for one path in its own
// goroutine, unless the path is already in flight.
func (w *Watcher) dispatch(ctx context.Context, path string) {
	if !util.IsVideoFile(path) {
		w.logger.Debugf("Ignoring non-video file: %s", path)
		return
	}

	if !w.inflight.tryAcquire(path) {
		w.logger.Debugf("Already processing, dropping event: %s", path)
		return
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer w.inflight.release(path)

		if !w.settle(ctx, path) {
			return
		}
		w.handler(ctx, path)
	}()
}

// settle waits the grace period, then confirms the file still exists and is
// non-empty. Returns false for noise such as transient temp files.
func (w *Watcher) settle(ctx context.Context, path string) bool {
	timer := time.NewTimer(w.settleWait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
	}

	info, err := os.Stat(path)
	if err != nil {
		w.logger.Debugf("File vanished before settling: %s", path)
		return false
	}
	if info.Size() == 0 {
		w.logger.Debugf("File still empty after settle wait: %s", path)
		return false
	}

	w.logger.Debugf("File settled: %s (%s)", path, humanize.Bytes(uint64(info.Size())))
	return true
}
