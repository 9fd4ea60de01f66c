// Package pipeline runs the compile, export, extract and render stages for
// each revision of the entry document.
//
// Runs are serialized: at most one revision is between compile and write at
// any time, and a revision older than one already handled never writes.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/pagepress/internal/clock"
	"git.home.luguber.info/inful/pagepress/internal/diag"
	"git.home.luguber.info/inful/pagepress/internal/document"
	perrors "git.home.luguber.info/inful/pagepress/internal/errors"
	"git.home.luguber.info/inful/pagepress/internal/export"
	"git.home.luguber.info/inful/pagepress/internal/frontmatter"
	"git.home.luguber.info/inful/pagepress/internal/logfields"
	"git.home.luguber.info/inful/pagepress/internal/metadata"
	"git.home.luguber.info/inful/pagepress/internal/metrics"
	"git.home.luguber.info/inful/pagepress/internal/paths"
)

// FanOut exports a document for every job.
type FanOut interface {
	Export(ctx context.Context, doc *document.Document, jobs []document.ExportJob) error
}

// Extractor builds the metadata record of a document.
type Extractor interface {
	Extract(ctx context.Context, doc *document.Document) (*metadata.Record, error)
}

// Renderer turns a record into the final page.
type Renderer interface {
	Render(rec *metadata.Record) (string, error)
}

// Sink is notified after every revision, in revision order.
type Sink interface {
	RevisionFinished(ctx context.Context, r Result)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, r Result)

func (f SinkFunc) RevisionFinished(ctx context.Context, r Result) { f(ctx, r) }

// Options wires an Orchestrator.
type Options struct {
	Entry   string
	HTMLDir string
	Jobs    []document.ExportJob

	Compiler  document.Compiler
	FanOut    FanOut
	Extractor Extractor
	Renderer  Renderer

	Reporter diag.Reporter
	Recorder metrics.Recorder
	Sinks    []Sink
	Clock    clock.Clock
	Logger   *slog.Logger
}

// Orchestrator owns the revision lifecycle.
type Orchestrator struct {
	opts Options

	// run serializes pipeline runs.
	run      sync.Mutex
	nextRev  document.Revision
	revMu    sync.Mutex
	lastSeen document.Revision

	statusMu sync.RWMutex
	status   Snapshot
}

// New validates opts and creates an Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	switch {
	case opts.Entry == "":
		return nil, perrors.ConfigInvalid("entry", "entry file is required")
	case opts.HTMLDir == "":
		return nil, perrors.ConfigInvalid("html_dir", "html output path is required")
	case opts.Compiler == nil, opts.FanOut == nil, opts.Extractor == nil, opts.Renderer == nil:
		return nil, perrors.InternalError("pipeline collaborators missing", nil)
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Orchestrator{opts: opts}, nil
}

// Status returns a copy of the current status.
func (o *Orchestrator) Status() Snapshot {
	o.statusMu.RLock()
	defer o.statusMu.RUnlock()
	s := o.status
	if s.LastRendered != nil {
		t := *s.LastRendered
		s.LastRendered = &t
	}
	return s
}

// NextRevision allocates a new revision number.
func (o *Orchestrator) NextRevision() document.Revision {
	o.revMu.Lock()
	defer o.revMu.Unlock()
	o.nextRev++
	return o.nextRev
}

// Trigger allocates a revision, compiles the entry and runs the remaining
// stages. It blocks while another revision is in flight.
func (o *Orchestrator) Trigger(ctx context.Context) Result {
	rev := o.NextRevision()
	o.run.Lock()
	defer o.run.Unlock()

	if stale, r := o.checkStale(ctx, rev); stale {
		return r
	}
	start := time.Now()
	o.setState(rev, StateCompiling)

	doc, diags := o.opts.Compiler.Compile(ctx, o.opts.Entry)
	o.opts.Recorder.ObserveStageDuration("compile", time.Since(start))
	return o.process(ctx, rev, start, doc, diags)
}

// Notify handles a compile result delivered by an external compile driver.
// Revisions must increase; an older or repeated revision is superseded.
func (o *Orchestrator) Notify(ctx context.Context, rev document.Revision, doc *document.Document, diags document.Diagnostics) Result {
	o.revMu.Lock()
	if rev > o.nextRev {
		o.nextRev = rev
	}
	o.revMu.Unlock()

	o.run.Lock()
	defer o.run.Unlock()

	if stale, r := o.checkStale(ctx, rev); stale {
		return r
	}
	return o.process(ctx, rev, time.Now(), doc, diags)
}

// checkStale must be called with run held.
func (o *Orchestrator) checkStale(ctx context.Context, rev document.Revision) (bool, Result) {
	if rev > o.lastSeen {
		o.lastSeen = rev
		return false, Result{}
	}
	r := Result{
		Revision: rev,
		State:    StateSuperseded,
		Finished: o.opts.Clock.Now(),
	}
	o.opts.Logger.Debug("Skipping superseded revision",
		logfields.Revision(uint64(rev)),
		slog.Uint64("latest", uint64(o.lastSeen)))
	o.finish(ctx, r)
	return true, r
}

// process runs export, extraction and rendering for a compiled revision.
// Must be called with run held.
func (o *Orchestrator) process(ctx context.Context, rev document.Revision, start time.Time, doc *document.Document, diags document.Diagnostics) Result {
	log := o.opts.Logger.With(logfields.Revision(uint64(rev)))
	res := Result{Revision: rev, Diagnostics: diags}

	done := func(state State, err error) Result {
		res.State = state
		res.Err = err
		res.Duration = time.Since(start)
		res.Finished = o.opts.Clock.Now()
		o.finish(ctx, res)
		return res
	}

	if doc == nil || diags.HasErrors() {
		if len(diags.Errors()) == 0 {
			diags = append(diags, document.Errorf("compile", "compiler returned no document"))
			res.Diagnostics = diags
		}
		o.report(rev, diags)
		o.opts.Recorder.IncStageResult("compile", metrics.ResultFailed)
		return done(StateCompileFailed, perrors.CompileFailed(o.opts.Entry, &document.DiagnosticError{Diagnostics: diags}))
	}
	o.opts.Recorder.IncStageResult("compile", metrics.ResultSuccess)
	o.report(rev, diags)

	o.setState(rev, StateExporting)
	stageStart := time.Now()
	err := o.opts.FanOut.Export(ctx, doc, o.opts.Jobs)
	o.opts.Recorder.ObserveStageDuration("export", time.Since(stageStart))
	if err != nil {
		failDiags := exportDiagnostics(err)
		res.Diagnostics = append(res.Diagnostics, failDiags...)
		o.report(rev, failDiags)
		o.opts.Recorder.IncStageResult("export", metrics.ResultFailed)
		log.Warn("Export failed, keeping previous page", logfields.Error(err))
		return done(StateExportFailed, err)
	}
	o.opts.Recorder.IncStageResult("export", metrics.ResultSuccess)

	o.setState(rev, StateExtracting)
	stageStart = time.Now()
	rec, err := o.opts.Extractor.Extract(ctx, doc)
	o.opts.Recorder.ObserveStageDuration("extract", time.Since(stageStart))
	if err != nil {
		o.reportError(rev, "metadata", err)
		o.opts.Recorder.IncStageResult("extract", metrics.ResultFailed)
		return done(StateMetadataFailed, err)
	}

	o.setState(rev, StateRendering)
	stageStart = time.Now()
	page, err := o.opts.Renderer.Render(rec)
	if err == nil {
		res.HTMLPath, err = o.write(page)
	}
	o.opts.Recorder.ObserveStageDuration("render", time.Since(stageStart))
	if err != nil {
		o.reportError(rev, "render", err)
		o.opts.Recorder.IncStageResult("render", metrics.ResultFailed)
		return done(StateRenderFailed, err)
	}
	o.opts.Recorder.IncStageResult("render", metrics.ResultSuccess)

	res.Fingerprint = fingerprint(rec, page)
	log.Info("Page rendered",
		logfields.Path(res.HTMLPath),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	return done(StateRendered, nil)
}

func (o *Orchestrator) write(page string) (string, error) {
	target := paths.HTMLPath(o.opts.Entry, o.opts.HTMLDir)
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return "", perrors.WriteFailed(target, err)
	}
	if err := paths.WriteFileAtomic(target, []byte(page), 0o644); err != nil {
		return "", perrors.WriteFailed(target, err)
	}
	return target, nil
}

func (o *Orchestrator) finish(ctx context.Context, r Result) {
	o.opts.Recorder.IncRevisionOutcome(string(r.State))
	if r.State != StateSuperseded {
		o.opts.Recorder.ObserveRevisionDuration(r.Duration)
	}

	o.statusMu.Lock()
	if r.State != StateSuperseded {
		o.status.Revision = uint64(r.Revision)
		o.status.State = r.State
		o.status.InFlight = false
		o.status.LastError = ""
		if r.Err != nil {
			o.status.LastError = r.Err.Error()
		}
	}
	if r.State == StateRendered {
		t := r.Finished
		o.status.LastRendered = &t
		o.status.LastRenderedRevision = uint64(r.Revision)
		o.status.HTMLPath = r.HTMLPath
		o.status.Fingerprint = r.Fingerprint
	}
	o.statusMu.Unlock()

	if r.State == StateRendered {
		o.opts.Recorder.SetLastRenderedRevision(uint64(r.Revision))
	}
	for _, s := range o.opts.Sinks {
		s.RevisionFinished(ctx, r)
	}
}

func (o *Orchestrator) setState(rev document.Revision, s State) {
	o.statusMu.Lock()
	defer o.statusMu.Unlock()
	o.status.Revision = uint64(rev)
	o.status.State = s
	o.status.InFlight = true
}

func (o *Orchestrator) report(rev document.Revision, diags document.Diagnostics) {
	if o.opts.Reporter != nil && len(diags) > 0 {
		o.opts.Reporter.Report(rev, diags)
	}
}

func (o *Orchestrator) reportError(rev document.Revision, source string, err error) {
	d := document.Errorf(source, "%v", err)
	if pe, ok := perrors.As(err); ok {
		if p, ok := pe.Context["path"].(string); ok {
			d.Path = p
		}
	}
	o.report(rev, document.Diagnostics{d})
	o.opts.Logger.Error("Revision failed",
		logfields.Revision(uint64(rev)),
		logfields.Stage(source),
		logfields.Error(err))
}

func exportDiagnostics(err error) document.Diagnostics {
	if f, ok := export.AsFailure(err); ok {
		if ds := f.Diagnostics(); len(ds) > 0 {
			return ds
		}
	}
	var de *document.DiagnosticError
	if errors.As(err, &de) {
		return de.Diagnostics
	}
	return document.Diagnostics{document.Errorf("export", "%v", err)}
}

// fingerprint identifies the rendered page content for live reload clients
// and the journal.
func fingerprint(rec *metadata.Record, page string) string {
	yml, err := frontmatter.SerializeYAML(rec.Frontmatter().Fields(), frontmatter.Style{Newline: "\n"})
	if err != nil {
		return mdfp.CalculateFingerprintFromParts("", page)
	}
	return mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(yml), "\n"), page)
}

// String is used in log lines.
func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("revision %d %s: %v", r.Revision, r.State, r.Err)
	}
	return fmt.Sprintf("revision %d %s", r.Revision, r.State)
}
