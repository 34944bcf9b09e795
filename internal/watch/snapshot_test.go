package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))
}

func TestTakeSnapshot_WatchAndIgnore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "docs/intro.rst")
	writeFile(t, root, "docs/guide/setup.rst")
	writeFile(t, root, "docs/notes.txt")
	writeFile(t, root, "docs/.intro.rst.swp")
	writeFile(t, root, "README.rst")

	snap, err := TakeSnapshot(root, []string{"docs/**/*.rst"}, []string{"*.swp"})
	require.NoError(t, err)

	assert.Contains(t, snap, "docs/intro.rst")
	assert.Contains(t, snap, "docs/guide/setup.rst")
	assert.NotContains(t, snap, "docs/notes.txt", "only watched extensions")
	assert.NotContains(t, snap, "README.rst", "outside the watch pattern")
	assert.NotContains(t, snap, "docs/.intro.rst.swp", "ignore pattern matches basename")
	assert.Len(t, snap, 2)
}

func TestTakeSnapshot_NewFileAppearsAsCreated(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "docs/index.rst")

	before, err := TakeSnapshot(root, []string{"docs/**/*.rst"}, []string{"*.swp"})
	require.NoError(t, err)

	writeFile(t, root, "docs/intro.rst")
	after, err := TakeSnapshot(root, []string{"docs/**/*.rst"}, []string{"*.swp"})
	require.NoError(t, err)

	cs := Diff(before, after)
	assert.Equal(t, []string{"docs/intro.rst"}, cs.Created)
	assert.Empty(t, cs.Deleted)
	assert.Empty(t, cs.Modified)
}

func TestTakeSnapshot_RoundTripUnchanged(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "docs/a.rst")
	writeFile(t, root, "docs/b.rst")

	first, err := TakeSnapshot(root, []string{"docs/**/*.rst"}, nil)
	require.NoError(t, err)
	second, err := TakeSnapshot(root, []string{"docs/**/*.rst"}, nil)
	require.NoError(t, err)

	assert.True(t, Diff(first, second).Empty(), "untouched filesystem must yield an empty change set")
}

func TestTakeSnapshot_ModifiedFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "docs/a.rst")

	before, err := TakeSnapshot(root, []string{"docs/**/*.rst"}, nil)
	require.NoError(t, err)

	// Push the mod time forward explicitly; coarse filesystem timestamp
	// granularity makes immediate rewrites unreliable in tests.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(filepath.Join(root, "docs", "a.rst"), future, future))

	after, err := TakeSnapshot(root, []string{"docs/**/*.rst"}, nil)
	require.NoError(t, err)

	cs := Diff(before, after)
	assert.Equal(t, []string{"docs/a.rst"}, cs.Modified)
}

func TestTakeSnapshot_OverlappingPatternsDeduplicate(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "docs/a.rst")

	snap, err := TakeSnapshot(root, []string{"docs/**/*.rst", "docs/*.rst"}, nil)
	require.NoError(t, err)
	assert.Len(t, snap, 1)
}

func TestIgnored(t *testing.T) {
	ignore := []string{"*.swp", "**/.DS_Store", "build/**"}

	tests := []struct {
		path string
		want bool
	}{
		{"docs/.intro.rst.swp", true},
		{"deep/nested/.DS_Store", true},
		{"build/html/index.html", true},
		{"docs/intro.rst", false},
		{"docs/swp", false},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, Ignored(test.path, ignore), "path %q", test.path)
	}
}
