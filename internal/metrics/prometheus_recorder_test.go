package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveRebuildDuration(150 * time.Millisecond)
	pr.IncRebuildOutcome(RebuildSuccess)
	pr.IncRebuildOutcome(RebuildFailed)
	pr.AddChanges(ChangeNew, 2)
	pr.AddChanges(ChangeDeleted, 0) // no-op
	pr.ObserveSnapshotSize(42)
	pr.IncHTTPRequest(200)
	// Basic scrape to ensure metrics encode without panic
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatalf("expected metrics, got none")
	}
}

func TestNoopRecorderNilSafe(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveRebuildDuration(time.Second)
	r.IncRebuildOutcome(RebuildSuccess)
	r.AddChanges(ChangeChanged, 1)
	r.ObserveSnapshotSize(0)
	r.IncHTTPRequest(404)

	var p *PrometheusRecorder
	p.ObserveRebuildDuration(time.Second)
	p.IncRebuildOutcome(RebuildFailed)
}
