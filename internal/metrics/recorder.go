package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for revision and stage metrics.
// Implementations must be safe for concurrent use.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	ObserveRevisionDuration(d time.Duration)
	IncRevisionOutcome(state string)
	SetLastRenderedRevision(rev uint64)
	ObserveExport(theme string, ok bool, d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) ObserveRevisionDuration(time.Duration)      {}
func (NoopRecorder) IncRevisionOutcome(string)                  {}
func (NoopRecorder) SetLastRenderedRevision(uint64)             {}
func (NoopRecorder) ObserveExport(string, bool, time.Duration)  {}
