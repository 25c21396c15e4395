// ABOUTME: Polls a directory and rebuilds a MapStore on change, one readiness generation per build.
// ABOUTME: Current() hands out the in-progress build's signal and is usable as a readiness factory.
package content

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/2389-research/specserve/readiness"
	"github.com/bep/debounce"
)

// WatcherConfig controls polling, debouncing, and what a successful build requires.
type WatcherConfig struct {
	Load         LoadOptions
	PollInterval time.Duration // default 500ms
	Debounce     time.Duration // default 100ms
	// RequireEntry fails a build whose mapping lacks this key. Empty disables the check.
	RequireEntry string
	Logger       *log.Logger
}

// Watcher keeps a MapStore in sync with a directory. Every build is a readiness
// generation: a failed build rejects the current signal and replaces it with a
// fresh pending one; a successful build swaps the mapping in and then resolves.
type Watcher struct {
	dir    string
	store  *MapStore
	cfg    WatcherConfig
	logger *log.Logger

	buildMu sync.Mutex

	mu          sync.Mutex
	pending     *readiness.Deferred
	fingerprint uint64
	builds      int
}

// NewWatcher creates a Watcher for dir feeding store. Nothing happens until
// Rebuild or Run is called.
func NewWatcher(dir string, store *MapStore, cfg WatcherConfig) *Watcher {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 100 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Watcher{
		dir:     dir,
		store:   store,
		cfg:     cfg,
		logger:  logger,
		pending: readiness.NewDeferred(),
	}
}

// Current returns the signal of the build in progress, or of the last
// successful build once it has resolved.
func (w *Watcher) Current() (readiness.Signal, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending, nil
}

// Builds returns the number of completed build attempts.
func (w *Watcher) Builds() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.builds
}

// Rebuild loads the directory and settles the current signal with the outcome.
func (w *Watcher) Rebuild(ctx context.Context) error {
	w.buildMu.Lock()
	defer w.buildMu.Unlock()

	w.mu.Lock()
	if done, _ := readiness.Settled(w.pending); done {
		w.pending = readiness.NewDeferred()
	}
	current := w.pending
	w.mu.Unlock()

	start := time.Now()
	files, err := Load(ctx, w.dir, w.cfg.Load)
	if err == nil && w.cfg.RequireEntry != "" {
		if _, ok := files[w.cfg.RequireEntry]; !ok {
			err = fmt.Errorf("entry %q not found in %s", w.cfg.RequireEntry, w.dir)
		}
	}

	w.mu.Lock()
	w.builds++
	n := w.builds
	if err != nil {
		current.Reject(err)
		w.pending = readiness.NewDeferred()
		w.mu.Unlock()
		w.logger.Printf("content build failed build=%d dir=%s err=%v", n, w.dir, err)
		return err
	}
	w.mu.Unlock()

	w.store.Replace(files)
	current.Resolve()
	w.logger.Printf("content build ok build=%d dir=%s files=%d duration=%s",
		n, w.dir, len(files), time.Since(start).Round(time.Microsecond))
	return nil
}

// Run performs an initial build and then polls for changes until ctx is done.
// Changes are debounced so a burst of writes triggers a single rebuild.
func (w *Watcher) Run(ctx context.Context) error {
	fp, err := w.scan()
	if err != nil {
		w.logger.Printf("content scan failed dir=%s err=%v", w.dir, err)
	}
	w.setFingerprint(fp)
	_ = w.Rebuild(ctx)

	debounced := debounce.New(w.cfg.Debounce)
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fp, err := w.scan()
			if err != nil {
				w.logger.Printf("content scan failed dir=%s err=%v", w.dir, err)
				continue
			}
			if !w.setFingerprint(fp) {
				continue
			}
			w.markPending()
			debounced(func() {
				if ctx.Err() != nil {
					return
				}
				_ = w.Rebuild(ctx)
			})
		}
	}
}

// markPending starts a new generation as soon as a change is seen, so that
// callers asking for a signal wait for the upcoming build.
func (w *Watcher) markPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if done, _ := readiness.Settled(w.pending); done {
		w.pending = readiness.NewDeferred()
	}
}

// setFingerprint records fp and reports whether it differs from the previous one.
func (w *Watcher) setFingerprint(fp uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	changed := fp != w.fingerprint
	w.fingerprint = fp
	return changed
}

// scan hashes the relative path, size, and modification time of every file.
func (w *Watcher) scan() (uint64, error) {
	paths, err := listFiles(w.dir, w.cfg.Load.Ignore)
	if err != nil {
		return 0, err
	}
	h := fnv.New64a()
	for _, rel := range paths {
		info, err := os.Stat(filepath.Join(w.dir, filepath.FromSlash(rel)))
		if err != nil {
			continue
		}
		fmt.Fprintf(h, "%s\x00%d\x00%d\n", rel, info.Size(), info.ModTime().UnixNano())
	}
	return h.Sum64(), nil
}
