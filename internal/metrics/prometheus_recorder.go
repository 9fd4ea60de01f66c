package metrics

import (
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once             sync.Once
	stageDuration    *prom.HistogramVec
	stageResults     *prom.CounterVec
	revisionDuration prom.Histogram
	revisionOutcome  *prom.CounterVec
	lastRendered     prom.Gauge
	exportDuration   *prom.HistogramVec
	exportResults    *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "pagepress",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pagepress",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.revisionDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "pagepress",
			Name:      "revision_duration_seconds",
			Help:      "Total duration of one revision pipeline run",
			Buckets:   prom.DefBuckets,
		})
		pr.revisionOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pagepress",
			Name:      "revision_outcomes_total",
			Help:      "Revision outcomes by final state",
		}, []string{"state"})
		pr.lastRendered = prom.NewGauge(prom.GaugeOpts{
			Namespace: "pagepress",
			Name:      "last_rendered_revision",
			Help:      "Revision number of the last rendered page",
		})
		pr.exportDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "pagepress",
			Name:      "export_duration_seconds",
			Help:      "Duration of theme export jobs",
			Buckets:   prom.DefBuckets,
		}, []string{"theme"})
		pr.exportResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pagepress",
			Name:      "export_results_total",
			Help:      "Theme export results by theme and outcome",
		}, []string{"theme", "result"})
		reg.MustRegister(pr.stageDuration, pr.stageResults, pr.revisionDuration, pr.revisionOutcome,
			pr.lastRendered, pr.exportDuration, pr.exportResults)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveRevisionDuration(d time.Duration) {
	if p == nil || p.revisionDuration == nil {
		return
	}
	p.revisionDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRevisionOutcome(state string) {
	if p == nil || p.revisionOutcome == nil {
		return
	}
	p.revisionOutcome.WithLabelValues(state).Inc()
}

func (p *PrometheusRecorder) SetLastRenderedRevision(rev uint64) {
	if p == nil || p.lastRendered == nil {
		return
	}
	p.lastRendered.Set(float64(rev))
}

func (p *PrometheusRecorder) ObserveExport(theme string, ok bool, d time.Duration) {
	if p == nil || p.exportDuration == nil {
		return
	}
	res := ResultFailed
	if ok {
		res = ResultSuccess
	}
	p.exportDuration.WithLabelValues(theme).Observe(d.Seconds())
	p.exportResults.WithLabelValues(theme, string(res)).Inc()
}

// HTTPHandler returns an http.Handler that serves Prometheus metrics for the provided registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
