package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sitewatch/internal/errors"
)

// notifyDebounce coalesces bursts of filesystem events into one rebuild.
const notifyDebounce = 300 * time.Millisecond

// runNotify is the event-driven variant of the poll loop. Filesystem events
// only schedule a snapshot comparison; the diff and rebuild path is shared
// with polling, so logging and coalescing behave identically.
func (l *Loop) runNotify(ctx context.Context, snap Snapshot) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WrapFatal(err, errors.CategoryWatch, "fsnotify init failed")
	}
	defer func() { _ = watcher.Close() }()

	if err := addDirsRecursive(watcher, l.cfg.Root); err != nil {
		return errors.WrapFatal(err, errors.CategoryWatch, "failed to watch project tree")
	}

	compare := make(chan struct{}, 1)
	var timer *time.Timer
	trigger := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(notifyDebounce, func() {
			select {
			case compare <- struct{}{}:
			default:
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			l.handleEvent(watcher, ev, trigger)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", "error", err)
		case <-compare:
			current, err := TakeSnapshot(l.cfg.Root, l.cfg.Watch.Patterns, l.cfg.Watch.Ignore)
			if err != nil {
				return err
			}
			cs := Diff(snap, current)
			if cs.Empty() {
				continue
			}
			l.logChanges(cs)
			snap, err = l.rebuild(ctx)
			if err != nil {
				return err
			}
		}
	}
}

// handleEvent filters a filesystem event and schedules a comparison when it
// could affect a watched path. New directories are added to the watch.
func (l *Loop) handleEvent(watcher *fsnotify.Watcher, ev fsnotify.Event, trigger func()) {
	rel, err := filepath.Rel(l.cfg.Root, ev.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(watcher, ev.Name)
			trigger()
			return
		}
	}
	if Ignored(rel, l.cfg.Watch.Ignore) {
		return
	}
	if !matchesAny(rel, l.cfg.Watch.Patterns) {
		return
	}
	slog.Debug("file change event", "path", rel, "op", ev.Op.String())
	trigger()
}

func matchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}
	return false
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.Add(path); err != nil {
				slog.Warn("watch add failed", "dir", path, "error", err)
			}
		}
		return nil
	})
}
