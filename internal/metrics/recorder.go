// Package metrics provides observability hooks for the watch loop and the
// docs server. The Noop implementation is used when metrics are disabled.
package metrics

import "time"

// RebuildOutcome enumerates rebuild result categories for counters.
type RebuildOutcome string

const (
	RebuildSuccess RebuildOutcome = "success"
	RebuildFailed  RebuildOutcome = "failed"
)

// ChangeKind enumerates detected change categories.
type ChangeKind string

const (
	ChangeNew     ChangeKind = "new"
	ChangeDeleted ChangeKind = "deleted"
	ChangeChanged ChangeKind = "changed"
)

// Recorder defines observability hooks for rebuilds and serving. All methods
// must be safe on a nil receiver when using the NoopRecorder (allowing
// optional injection).
type Recorder interface {
	ObserveRebuildDuration(d time.Duration)
	IncRebuildOutcome(outcome RebuildOutcome)
	AddChanges(kind ChangeKind, n int)
	ObserveSnapshotSize(files int)
	IncHTTPRequest(code int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveRebuildDuration(time.Duration) {}
func (NoopRecorder) IncRebuildOutcome(RebuildOutcome)     {}
func (NoopRecorder) AddChanges(ChangeKind, int)           {}
func (NoopRecorder) ObserveSnapshotSize(int)              {}
func (NoopRecorder) IncHTTPRequest(int)                   {}
