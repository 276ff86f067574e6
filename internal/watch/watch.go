// Package watch rebuilds the document graph when a Zotero CSV export
// appears or changes.
package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"scribl/internal/logger"
)

// RebuildFunc is called with the path of a changed export.
type RebuildFunc func(ctx context.Context, path string) error

// Watcher watches a folder of exports, or a single export file, and calls
// the rebuild callback once changes settle.
type Watcher struct {
	dir      string
	file     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   *log.Logger

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	hashes map[string]string
}

// New watches path. A file path watches its folder but reacts only to that
// file.
func New(path string, debounce time.Duration, l *log.Logger) (*Watcher, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("watching %s: %w", path, err)
	}

	w := &Watcher{
		dir:      path,
		debounce: debounce,
		logger:   logger.OrDiscard(l),
		pending:  make(map[string]fsnotify.Op),
		hashes:   make(map[string]string),
	}
	if !info.IsDir() {
		w.dir, w.file = filepath.Dir(path), filepath.Base(path)
	}
	if w.debounce <= 0 {
		w.debounce = 500 * time.Millisecond
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", w.dir, err)
	}
	w.watcher = fsw
	return w, nil
}

// Seed records the current content of path so an unchanged rewrite does not
// trigger a rebuild.
func (w *Watcher) Seed(path string) error {
	hash, err := fileHash(path)
	if err != nil {
		return err
	}
	w.hashes[path] = hash
	return nil
}

// Run blocks until ctx is done or the watcher fails. Rebuild errors are
// logged and watching continues.
func (w *Watcher) Run(ctx context.Context, rebuild RebuildFunc) error {
	defer w.watcher.Close()

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	w.logger.Info("watching for exports", "dir", w.dir, "debounce", w.debounce)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "err", err)

		case <-ticker.C:
			w.flush(ctx, rebuild)
		}
	}
}

func (w *Watcher) relevant(path string) bool {
	name := filepath.Base(path)
	if w.file != "" {
		return name == w.file
	}
	// Imports write through hidden temp files and rename into place.
	return !strings.HasPrefix(name, ".") && strings.EqualFold(filepath.Ext(name), ".csv")
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !w.relevant(event.Name) {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	w.pendingMu.Lock()
	w.pending[event.Name] |= event.Op
	w.pendingMu.Unlock()
	w.logger.Debug("export change detected", "path", event.Name, "op", event.Op.String())
}

// flush rebuilds from the newest changed export. Older pending exports in
// the same window are superseded by it.
func (w *Watcher) flush(ctx context.Context, rebuild RebuildFunc) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	var target string
	for _, path := range paths {
		if path > target {
			target = path
		}
	}

	hash, err := fileHash(target)
	if err != nil {
		w.logger.Warn("skipping unreadable export", "path", target, "err", err)
		return
	}
	if w.hashes[target] == hash {
		w.logger.Debug("export content unchanged", "path", target)
		return
	}

	w.logger.Info("rebuilding", "export", filepath.Base(target))
	if err := rebuild(ctx, target); err != nil {
		// The hash stays unrecorded so the next event for this content retries.
		w.logger.Error("rebuild failed", "export", filepath.Base(target), "err", err)
		return
	}
	w.hashes[target] = hash
}

func fileHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
