// Package watch decides when the entry document must be recompiled: file
// system changes below the project root (debounced) and optional periodic
// rebuilds.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/pagepress/internal/logfields"
)

// Options configures a Watcher.
type Options struct {
	// Dirs are watched recursively.
	Dirs     []string
	Debounce time.Duration
	// Ignore filters out paths the pipeline writes itself.
	Ignore   func(path string) bool
	OnChange func()
	Logger   *slog.Logger
}

// Watcher turns fsnotify events into debounced change notifications.
type Watcher struct {
	fs       *fsnotify.Watcher
	opts     Options
	debounce *Debouncer
}

// New creates a Watcher and registers every directory below opts.Dirs.
func New(opts Options) (*Watcher, error) {
	if opts.OnChange == nil {
		return nil, fmt.Errorf("watch: OnChange is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 300 * time.Millisecond
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	w := &Watcher{fs: fw, opts: opts, debounce: NewDebouncer(opts.Debounce, opts.OnChange)}
	for _, dir := range opts.Dirs {
		if err := w.addRecursive(dir); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Run dispatches events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		w.debounce.Stop()
		_ = w.fs.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.opts.Logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Op == fsnotify.Chmod || shouldIgnoreEvent(ev.Name) {
		return
	}
	if w.opts.Ignore != nil && w.opts.Ignore(ev.Name) {
		return
	}
	if ev.Op.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = w.addRecursive(ev.Name)
		}
	}
	w.opts.Logger.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	w.debounce.Trigger()
}

func (w *Watcher) addRecursive(root string) error {
	if _, err := os.Stat(root); err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if w.opts.Ignore != nil && w.opts.Ignore(path) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			w.opts.Logger.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnoreEvent returns true for hidden, editor and temp files. Atomic
// writes use hidden temp names and are skipped here too.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"),
		strings.HasSuffix(base, ".swp"),
		strings.HasSuffix(base, ".swx"),
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "Thumbs.db":
		return true
	}
	return false
}

// OutputFilter ignores the page, theme artifacts and runtime assets the
// pipeline writes, so its own output never triggers a rebuild.
func OutputFilter(htmlPath, assetDir, artifactSuffix string) func(string) bool {
	internal := filepath.Join(assetDir, "internal")
	themes := filepath.Join(assetDir, "themes")
	return func(p string) bool {
		p = filepath.Clean(p)
		switch {
		case p == htmlPath:
			return true
		case strings.HasSuffix(p, artifactSuffix):
			return true
		case p == internal || strings.HasPrefix(p, internal+string(filepath.Separator)):
			return true
		case p == themes || strings.HasPrefix(p, themes+string(filepath.Separator)):
			return true
		}
		return false
	}
}
