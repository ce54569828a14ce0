// Package watch regenerates output when a variant's services file appears,
// changes or disappears.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Trigger is called after a debounced batch of relevant events.
type Trigger func(ctx context.Context) error

// Stats tracks watcher activity.
type Stats struct {
	Events        int
	Triggers      int
	Errors        int
	LastEventPath string
	LastEventType string
	LastEventTime time.Time
}

// Watcher watches the project root and the candidate directories of one
// variant. Directories that do not exist yet are covered by watching their
// nearest existing ancestor inside the project root.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	root     string
	targets  map[string]struct{} // services file paths
	dirs     []string            // candidate directories, absolute
	watched  map[string]struct{}
	debounce time.Duration
	trigger  Trigger
	log      *zap.Logger

	pending   bool
	lastEvent time.Time
	stats     Stats

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// New creates a watcher for fileName in root and each candidate directory
// (slash-separated, relative to root).
func New(root, fileName string, candidates []string, debounce time.Duration, trigger Trigger, log *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	root = filepath.Clean(root)
	w := &Watcher{
		watcher:  fw,
		root:     root,
		targets:  map[string]struct{}{filepath.Join(root, fileName): {}},
		watched:  make(map[string]struct{}),
		debounce: debounce,
		trigger:  trigger,
		log:      log,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, c := range candidates {
		dir := filepath.Join(root, filepath.FromSlash(c))
		w.dirs = append(w.dirs, dir)
		w.targets[filepath.Join(dir, fileName)] = struct{}{}
	}
	return w, nil
}

// Start adds the initial watches and begins the event loop in a goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.root); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	w.mu.Lock()
	w.watched[w.root] = struct{}{}
	w.mu.Unlock()
	w.refresh()

	w.log.Info("watching for services file changes", zap.String("root", w.root), zap.Int("dirs", len(w.WatchedDirs())))

	go w.run(ctx)
	return nil
}

// Stop stops the event loop and closes the underlying watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		_ = w.watcher.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.log.Error("error closing watcher", zap.Error(err))
	}
	w.log.Debug("watcher stopped")
}

// Stats returns a snapshot of the activity counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// WatchedDirs returns the watched directories, sorted.
func (w *Watcher) WatchedDirs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	dirs := make([]string, 0, len(w.watched))
	for d := range w.watched {
		dirs = append(dirs, d)
	}
	slices.Sort(dirs)
	return dirs
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := w.debounce / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
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
			w.log.Error("watcher error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			w.fireIfSettled(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	var eventType string
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = "create"
	case event.Op&fsnotify.Write != 0:
		eventType = "modify"
	case event.Op&fsnotify.Remove != 0:
		eventType = "delete"
	case event.Op&fsnotify.Rename != 0:
		eventType = "rename"
	default:
		return
	}

	path := filepath.Clean(event.Name)
	_, isTarget := w.targets[path]
	onCandidatePath := w.isCandidateAncestor(path)
	if !isTarget && !onCandidatePath {
		return
	}

	w.log.Debug("relevant event", zap.String("type", eventType), zap.String("path", path))

	if onCandidatePath {
		if eventType == "delete" || eventType == "rename" {
			// fsnotify drops the watch with the directory.
			w.mu.Lock()
			delete(w.watched, path)
			w.mu.Unlock()
		}
		w.refresh()
	}

	w.mu.Lock()
	w.stats.Events++
	w.stats.LastEventPath = path
	w.stats.LastEventType = eventType
	w.stats.LastEventTime = time.Now()
	w.pending = true
	w.lastEvent = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) fireIfSettled(ctx context.Context) {
	w.mu.Lock()
	if !w.pending || time.Since(w.lastEvent) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.pending = false
	w.stats.Triggers++
	w.mu.Unlock()

	if w.trigger == nil {
		return
	}
	if err := w.trigger(ctx); err != nil {
		w.log.Warn("regeneration failed", zap.Error(err))
		w.mu.Lock()
		w.stats.Errors++
		w.mu.Unlock()
	}
}

// refresh adds watches for every existing candidate directory and for the
// deepest existing ancestor of each missing one.
func (w *Watcher) refresh() {
	for _, dir := range watchDirs(w.root, w.dirs) {
		w.mu.Lock()
		_, done := w.watched[dir]
		w.mu.Unlock()
		if done {
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			w.log.Debug("could not watch directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		w.mu.Lock()
		w.watched[dir] = struct{}{}
		w.mu.Unlock()
	}
}

// isCandidateAncestor reports whether path is a candidate directory or one
// of its ancestors below root.
func (w *Watcher) isCandidateAncestor(path string) bool {
	return slices.ContainsFunc(w.dirs, func(dir string) bool {
		return dir == path || strings.HasPrefix(dir, path+string(filepath.Separator))
	}) && path != w.root
}

// watchDirs returns, for each candidate directory, the directory itself when
// it exists or its deepest existing ancestor inside root. The result is
// deduplicated and sorted.
func watchDirs(root string, dirs []string) []string {
	seen := make(map[string]struct{})
	for _, dir := range dirs {
		for d := dir; ; d = filepath.Dir(d) {
			if info, err := os.Stat(d); err == nil && info.IsDir() {
				seen[d] = struct{}{}
				break
			}
			if d == root || len(d) <= len(root) {
				break
			}
		}
	}
	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}
