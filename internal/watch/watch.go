// Package watch re-runs a callback whenever one of a set of files changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses the burst of events an editor save produces.
const DefaultDebounce = 150 * time.Millisecond

// Watcher monitors files through their parent directories, so files that
// do not exist yet or are replaced by rename are still seen.
type Watcher struct {
	files    map[string]bool
	dirs     []string
	debounce time.Duration
	logger   *zap.Logger
}

// New creates a watcher for files. A nil logger uses zap.L().
func New(logger *zap.Logger, debounce time.Duration, files ...string) *Watcher {
	if logger == nil {
		logger = zap.L()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{files: make(map[string]bool, len(files)), debounce: debounce, logger: logger.Named("watch")}
	seen := map[string]bool{}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			abs = filepath.Clean(f)
		}
		w.files[abs] = true
		dir := filepath.Dir(abs)
		if !seen[dir] {
			seen[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}
	sort.Strings(w.dirs)
	return w
}

// Files returns the watched file paths, sorted.
func (w *Watcher) Files() []string {
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return w.files[abs]
}

// Run calls fn once, then again after every debounced change, until ctx is
// done. fn failures are the caller's to report; Run only returns an error if
// the watch cannot be set up.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	for _, dir := range w.dirs {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	w.logger.Debug("Watching files", zap.Strings("files", w.Files()))

	fn(ctx)

	// fire is nil while no change is pending.
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("File changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			fire = time.After(w.debounce)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", zap.Error(err))
		case <-fire:
			fire = nil
			fn(ctx)
		}
	}
}
