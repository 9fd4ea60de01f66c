// Package metrics provides pipeline observability behind a small Recorder
// interface.
//
// Components receive a Recorder through their options and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	orch := pipeline.New(pipeline.Options{Recorder: metrics.NoopRecorder{}})
//
// When `--metrics` is set the serve command swaps in a PrometheusRecorder
// registered on its own registry and mounts HTTPHandler at /metrics.
package metrics
