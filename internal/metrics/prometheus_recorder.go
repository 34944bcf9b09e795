package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	registry        *prom.Registry
	rebuildDuration prom.Histogram
	rebuildOutcome  *prom.CounterVec
	changes         *prom.CounterVec
	snapshotSize    prom.Gauge
	httpRequests    *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.once.Do(func() {
		pr.rebuildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "sitewatch",
			Name:      "rebuild_duration_seconds",
			Help:      "Duration of build command invocations",
			Buckets:   prom.DefBuckets,
		})
		pr.rebuildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitewatch",
			Name:      "rebuilds_total",
			Help:      "Rebuild counts by outcome",
		}, []string{"outcome"})
		pr.changes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitewatch",
			Name:      "changed_files_total",
			Help:      "Detected file changes by kind",
		}, []string{"kind"})
		pr.snapshotSize = prom.NewGauge(prom.GaugeOpts{
			Namespace: "sitewatch",
			Name:      "watched_files",
			Help:      "Number of files in the current snapshot",
		})
		pr.httpRequests = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitewatch",
			Name:      "http_requests_total",
			Help:      "Docs server requests by status code",
		}, []string{"code"})
		reg.MustRegister(pr.rebuildDuration, pr.rebuildOutcome, pr.changes, pr.snapshotSize, pr.httpRequests)
	})
	return pr
}

// Handler returns an http.Handler serving this recorder's registry.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (p *PrometheusRecorder) ObserveRebuildDuration(d time.Duration) {
	if p == nil || p.rebuildDuration == nil {
		return
	}
	p.rebuildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRebuildOutcome(outcome RebuildOutcome) {
	if p == nil || p.rebuildOutcome == nil {
		return
	}
	p.rebuildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) AddChanges(kind ChangeKind, n int) {
	if p == nil || p.changes == nil || n <= 0 {
		return
	}
	p.changes.WithLabelValues(string(kind)).Add(float64(n))
}

func (p *PrometheusRecorder) ObserveSnapshotSize(files int) {
	if p == nil || p.snapshotSize == nil {
		return
	}
	p.snapshotSize.Set(float64(files))
}

func (p *PrometheusRecorder) IncHTTPRequest(code int) {
	if p == nil || p.httpRequests == nil {
		return
	}
	p.httpRequests.WithLabelValues(strconv.Itoa(code)).Inc()
}
