package watch

import "sort"

// ChangeSet holds the disjoint partitions of paths that differ between two
// snapshots. Slices are sorted for deterministic logging.
type ChangeSet struct {
	Created  []string
	Deleted  []string
	Modified []string
}

// Empty reports whether no change was detected.
func (cs ChangeSet) Empty() bool {
	return len(cs.Created) == 0 && len(cs.Deleted) == 0 && len(cs.Modified) == 0
}

// Len returns the total number of changed paths.
func (cs ChangeSet) Len() int {
	return len(cs.Created) + len(cs.Deleted) + len(cs.Modified)
}

// Diff computes the set difference between two snapshots. A path counts as
// modified only when its new mod time is strictly greater than the old one;
// equal or older timestamps are ignored to guard against clock skew and
// touch-without-write.
func Diff(old, current Snapshot) ChangeSet {
	var cs ChangeSet
	for path, mtime := range current {
		prev, existed := old[path]
		switch {
		case !existed:
			cs.Created = append(cs.Created, path)
		case mtime.After(prev):
			cs.Modified = append(cs.Modified, path)
		}
	}
	for path := range old {
		if _, exists := current[path]; !exists {
			cs.Deleted = append(cs.Deleted, path)
		}
	}
	sort.Strings(cs.Created)
	sort.Strings(cs.Deleted)
	sort.Strings(cs.Modified)
	return cs
}
