// Package export fans one compiled document out to a set of theme export
// jobs and folds their outcomes into a single pass/fail result.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/pagepress/internal/document"
	perrors "git.home.luguber.info/inful/pagepress/internal/errors"
	"git.home.luguber.info/inful/pagepress/internal/logfields"
	"git.home.luguber.info/inful/pagepress/internal/paths"
)

// Outcome is the result of one export job.
type Outcome struct {
	Job         document.ExportJob
	Err         error
	Diagnostics document.Diagnostics
	Duration    time.Duration
}

// OK reports whether the job wrote its artifact.
func (o Outcome) OK() bool { return o.Err == nil }

// Failure is returned when at least one job failed. It carries the outcomes
// of every job, including the successful ones.
type Failure struct {
	Outcomes []Outcome
}

// Failed returns the failing outcomes in job order.
func (f *Failure) Failed() []Outcome {
	var out []Outcome
	for _, o := range f.Outcomes {
		if !o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Diagnostics aggregates the diagnostics of all failing jobs.
func (f *Failure) Diagnostics() document.Diagnostics {
	var ds document.Diagnostics
	for _, o := range f.Failed() {
		ds = append(ds, o.Diagnostics...)
	}
	return ds
}

func (f *Failure) Error() string {
	failed := f.Failed()
	themes := make([]string, 0, len(failed))
	for _, o := range failed {
		themes = append(themes, o.Job.Theme)
	}
	return fmt.Sprintf("%d of %d theme exports failed: %s", len(failed), len(f.Outcomes), strings.Join(themes, ", "))
}

// Observer receives every job outcome. Used for metrics.
type Observer interface {
	ObserveExport(theme string, ok bool, d time.Duration)
}

// Options configures a FanOut.
type Options struct {
	// Concurrency bounds parallel jobs. Zero or less runs every job at once.
	Concurrency int
	Observer    Observer
	Logger      *slog.Logger
}

// FanOut runs export jobs against a compiled document.
type FanOut struct {
	exporter document.Exporter
	opts     Options
}

// NewFanOut creates a FanOut using exporter for every job.
func NewFanOut(exporter document.Exporter, opts Options) *FanOut {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &FanOut{exporter: exporter, opts: opts}
}

// Export runs every job and waits for all of them. Jobs never see each
// other's results and one failure does not cancel the others. When any job
// fails the returned error is an ExportFailed error wrapping a *Failure.
func (f *FanOut) Export(ctx context.Context, doc *document.Document, jobs []document.ExportJob) error {
	outcomes := make([]Outcome, len(jobs))

	var g errgroup.Group
	if f.opts.Concurrency > 0 {
		g.SetLimit(f.opts.Concurrency)
	}
	for i, job := range jobs {
		g.Go(func() error {
			outcomes[i] = f.run(ctx, doc, job)
			return nil
		})
	}
	_ = g.Wait()

	failed := false
	for _, o := range outcomes {
		if f.opts.Observer != nil {
			f.opts.Observer.ObserveExport(o.Job.Theme, o.OK(), o.Duration)
		}
		if !o.OK() {
			failed = true
		}
	}
	if !failed {
		return nil
	}
	return perrors.ExportFailed(&Failure{Outcomes: outcomes})
}

func (f *FanOut) run(ctx context.Context, doc *document.Document, job document.ExportJob) (o Outcome) {
	start := time.Now()
	o.Job = job

	defer func() {
		if r := recover(); r != nil {
			o.Err = fmt.Errorf("exporter panic: %v", r)
			o.Diagnostics = document.Diagnostics{document.Errorf(job.Theme, "%v", o.Err)}
		}
	}()

	err := ctx.Err()
	if err == nil {
		err = f.exporter.Export(ctx, doc, job)
	}
	o.Duration = time.Since(start)
	if err == nil {
		f.opts.Logger.Debug("Theme artifact exported",
			logfields.Theme(job.Theme),
			logfields.Path(job.Path),
			logfields.DurationMS(float64(o.Duration.Microseconds())/1000))
		return o
	}

	o.Err = err
	o.Diagnostics = diagnosticsFor(job, err)
	f.opts.Logger.Warn("Theme export failed",
		logfields.Theme(job.Theme),
		logfields.Path(job.Path),
		logfields.Error(err))
	return o
}

func diagnosticsFor(job document.ExportJob, err error) document.Diagnostics {
	var de *document.DiagnosticError
	if asDiagnosticError(err, &de) {
		out := make(document.Diagnostics, 0, len(de.Diagnostics))
		for _, d := range de.Diagnostics {
			if d.Source == "" {
				d.Source = job.Theme
			}
			out = append(out, d)
		}
		return out
	}
	d := document.Errorf(job.Theme, "export to %s failed: %v", job.Target(), err)
	d.Path = job.Path
	return document.Diagnostics{d}
}

// BuildJobs creates one job per theme. Themes are kept in the given order;
// duplicates are dropped.
func BuildJobs(entry, assetDir string, themes []string) ([]document.ExportJob, error) {
	seen := make(map[string]bool, len(themes))
	jobs := make([]document.ExportJob, 0, len(themes))
	for _, theme := range themes {
		if theme == "" || seen[theme] {
			continue
		}
		seen[theme] = true
		p, err := paths.ArtifactPath(entry, assetDir, theme)
		if err != nil {
			return nil, perrors.ConfigInvalid("asset_dir", err.Error())
		}
		jobs = append(jobs, document.ExportJob{
			Theme:     theme,
			Path:      p,
			Extension: theme + "." + paths.ArtifactExtension,
		})
	}
	return jobs, nil
}

// Themes lists the theme names of jobs, sorted.
func Themes(jobs []document.ExportJob) []string {
	out := make([]string, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.Theme)
	}
	sort.Strings(out)
	return out
}
