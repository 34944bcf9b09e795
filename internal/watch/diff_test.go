package watch

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestDiff_Empty(t *testing.T) {
	snap := Snapshot{
		"docs/index.rst": t0,
		"docs/intro.rst": t0.Add(time.Minute),
	}
	cs := Diff(snap, snap)
	if !cs.Empty() {
		t.Fatalf("Diff(S, S) should be empty, got %+v", cs)
	}
}

func TestDiff_Partitions(t *testing.T) {
	old := Snapshot{
		"docs/keep.rst":    t0,
		"docs/gone.rst":    t0,
		"docs/touched.rst": t0,
	}
	current := Snapshot{
		"docs/keep.rst":    t0,
		"docs/touched.rst": t0.Add(time.Second),
		"docs/new.rst":     t0.Add(time.Second),
	}

	cs := Diff(old, current)

	want := ChangeSet{
		Created:  []string{"docs/new.rst"},
		Deleted:  []string{"docs/gone.rst"},
		Modified: []string{"docs/touched.rst"},
	}
	if diff := cmp.Diff(want, cs); diff != "" {
		t.Fatalf("Diff mismatch (-want +got):\n%s", diff)
	}

	// Partitions must be disjoint.
	seen := map[string]int{}
	for _, p := range cs.Created {
		seen[p]++
	}
	for _, p := range cs.Deleted {
		seen[p]++
	}
	for _, p := range cs.Modified {
		seen[p]++
	}
	for path, n := range seen {
		if n > 1 {
			t.Errorf("path %q appears in %d partitions", path, n)
		}
	}
	if cs.Len() != 3 {
		t.Errorf("Len() = %d, want 3", cs.Len())
	}
}

func TestDiff_StrictGreaterRule(t *testing.T) {
	old := Snapshot{
		"a.txt": t0,
		"b.txt": t0,
	}
	current := Snapshot{
		"a.txt": t0,                    // identical timestamp
		"b.txt": t0.Add(-time.Minute), // older (clock skew)
	}
	cs := Diff(old, current)
	if !cs.Empty() {
		t.Fatalf("equal or older timestamps must not be reported as modified, got %+v", cs)
	}
}

func TestDiff_Sorted(t *testing.T) {
	old := Snapshot{}
	current := Snapshot{
		"docs/z.rst": t0,
		"docs/a.rst": t0,
		"docs/m.rst": t0,
	}
	cs := Diff(old, current)
	want := []string{"docs/a.rst", "docs/m.rst", "docs/z.rst"}
	if diff := cmp.Diff(want, cs.Created); diff != "" {
		t.Fatalf("Created not sorted (-want +got):\n%s", diff)
	}
}
