package pipeline

import (
	"time"

	"git.home.luguber.info/inful/pagepress/internal/document"
)

// State is the position of a revision in the pipeline.
type State string

const (
	StateCompiling      State = "compiling"
	StateCompileFailed  State = "compile_failed"
	StateExporting      State = "exporting"
	StateExportFailed   State = "export_failed"
	StateExtracting     State = "extracting"
	StateMetadataFailed State = "metadata_failed"
	StateRendering      State = "rendering"
	StateRenderFailed   State = "render_failed"
	StateRendered       State = "rendered"
	StateSuperseded     State = "superseded"
)

// Terminal reports whether s ends a revision.
func (s State) Terminal() bool {
	switch s {
	case StateCompileFailed, StateExportFailed, StateMetadataFailed, StateRenderFailed, StateRendered, StateSuperseded:
		return true
	default:
		return false
	}
}

// Failed reports whether s is a terminal failure.
func (s State) Failed() bool {
	switch s {
	case StateCompileFailed, StateExportFailed, StateMetadataFailed, StateRenderFailed:
		return true
	default:
		return false
	}
}

// Result describes one finished revision.
type Result struct {
	Revision    document.Revision
	State       State
	HTMLPath    string
	Fingerprint string
	Err         error
	Diagnostics document.Diagnostics
	Duration    time.Duration
	Finished    time.Time
}

// Snapshot is the orchestrator status exposed over HTTP.
type Snapshot struct {
	Revision             uint64     `json:"revision"`
	State                State      `json:"state"`
	InFlight             bool       `json:"in_flight"`
	LastError            string     `json:"last_error,omitempty"`
	LastRenderedRevision uint64     `json:"last_rendered_revision,omitempty"`
	LastRendered         *time.Time `json:"last_rendered,omitempty"`
	HTMLPath             string     `json:"html_path,omitempty"`
	Fingerprint          string     `json:"fingerprint,omitempty"`
}
