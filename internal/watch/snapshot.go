// Package watch implements the change detection engine: glob-based snapshot
// acquisition, snapshot diffing, and the poll/rebuild loop.
package watch

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/sitewatch/internal/errors"
)

// Snapshot maps a slash-separated path (relative to the project root) to its
// modification time at the instant the snapshot was taken. Snapshots are
// value-only: take one, diff it, discard it.
type Snapshot map[string]time.Time

// TakeSnapshot enumerates every file under root matching at least one watch
// pattern and none of the ignore patterns, and records its current mod time.
// A path that disappears between enumeration and stat is silently omitted;
// transient filesystem races are not rebuild-worthy events.
func TakeSnapshot(root string, patterns, ignore []string) (Snapshot, error) {
	fsys := os.DirFS(root)
	snap := make(Snapshot)
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.WrapFatal(err, errors.CategoryWatch, "glob failed for pattern "+pattern)
		}
		for _, match := range matches {
			if _, seen := snap[match]; seen {
				continue
			}
			if Ignored(match, ignore) {
				continue
			}
			info, err := fs.Stat(fsys, match)
			if err != nil {
				// Vanished between glob and stat.
				continue
			}
			if !info.Mode().IsRegular() {
				continue
			}
			snap[match] = info.ModTime()
		}
	}
	return snap, nil
}

// Ignored reports whether path matches any ignore pattern. A pattern matches
// either the slash-relative path or its basename, so "*.swp" excludes swap
// files anywhere in the tree.
func Ignored(path string, ignore []string) bool {
	base := filepath.Base(path)
	for _, pattern := range ignore {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
