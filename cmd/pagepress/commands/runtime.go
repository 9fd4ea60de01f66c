package commands

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/pagepress/internal/assets"
	"git.home.luguber.info/inful/pagepress/internal/config"
	"git.home.luguber.info/inful/pagepress/internal/diag"
	"git.home.luguber.info/inful/pagepress/internal/document/markdown"
	perrors "git.home.luguber.info/inful/pagepress/internal/errors"
	"git.home.luguber.info/inful/pagepress/internal/export"
	"git.home.luguber.info/inful/pagepress/internal/journal"
	"git.home.luguber.info/inful/pagepress/internal/layout"
	"git.home.luguber.info/inful/pagepress/internal/logfields"
	"git.home.luguber.info/inful/pagepress/internal/metadata"
	"git.home.luguber.info/inful/pagepress/internal/metrics"
	"git.home.luguber.info/inful/pagepress/internal/notify"
	"git.home.luguber.info/inful/pagepress/internal/paths"
	"git.home.luguber.info/inful/pagepress/internal/pipeline"
	"git.home.luguber.info/inful/pagepress/internal/render"
	"git.home.luguber.info/inful/pagepress/internal/server"
	"git.home.luguber.info/inful/pagepress/internal/watch"
)

// runtime holds the wired pipeline and its optional sinks for one command.
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	session  string
	orch     *pipeline.Orchestrator
	registry *prometheus.Registry
	journal  *journal.Journal
	notifier *notify.Notifier
	hub      *server.LiveReloadHub
}

type runtimeOptions struct {
	liveReload bool
}

func newRuntime(cfg *config.Config, logger *slog.Logger, opts runtimeOptions) (*runtime, error) {
	rt := &runtime{cfg: cfg, logger: logger, session: uuid.NewString()}
	ok := false
	defer func() {
		if !ok {
			rt.Close()
		}
	}()

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Serve.Metrics {
		rt.registry = prometheus.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(rt.registry)
	}

	compiler := markdown.New(markdown.Options{Root: cfg.Root, FontPaths: cfg.FontPaths, Logger: logger})
	fan := export.NewFanOut(layout.NewWriter(compiler, logger), export.Options{Observer: recorder, Logger: logger})
	jobs, err := export.BuildJobs(cfg.Entry, cfg.AssetDir, cfg.Themes)
	if err != nil {
		return nil, err
	}
	extractor := metadata.New(metadata.Options{
		PathToRoot:   cfg.PathToRoot,
		AssetDir:     cfg.AssetDir,
		SummaryWords: cfg.SummaryWords,
		Text:         compiler,
		Logger:       logger,
	})

	pageTemplate, err := readTemplate(cfg.Template)
	if err != nil {
		return nil, err
	}
	renderer, err := render.New(render.Options{Mode: cfg.Darkmode, Frontmatter: cfg.Frontmatter, PageTemplate: pageTemplate})
	if err != nil {
		return nil, err
	}

	var sinks []pipeline.Sink
	if cfg.Journal.Path != "" {
		j, err := journal.Open(cfg.Journal.Path, journal.Options{Session: rt.session, Logger: logger})
		if err != nil {
			return nil, perrors.Wrap(err, perrors.CategoryConfig, perrors.SeverityFatal, "failed to open journal").
				WithContext("path", cfg.Journal.Path)
		}
		rt.journal = j
		sinks = append(sinks, j)
	}
	if cfg.NATS.URL != "" {
		n, err := notify.Connect(cfg.NATS.URL, cfg.NATS.Subject, rt.session, logger)
		if err != nil {
			logger.Warn("Revision notifications disabled", slog.String("url", cfg.NATS.URL), logfields.Error(err))
		} else {
			rt.notifier = n
			sinks = append(sinks, n)
		}
	}
	if opts.liveReload {
		rt.hub = server.NewLiveReloadHub(logger)
		sinks = append(sinks, rt.hub)
	}

	rt.orch, err = pipeline.New(pipeline.Options{
		Entry:     cfg.Entry,
		HTMLDir:   cfg.HTMLDir,
		Jobs:      jobs,
		Compiler:  compiler,
		FanOut:    fan,
		Extractor: extractor,
		Renderer:  renderer,
		Reporter:  diag.NewConsoleReporter(os.Stderr),
		Recorder:  recorder,
		Sinks:     sinks,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	ok = true
	return rt, nil
}

func readTemplate(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	// #nosec G304 -- user-selected template file
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", perrors.TemplateMissing(path)
		}
		return "", perrors.Wrap(err, perrors.CategoryConfig, perrors.SeverityFatal, "failed to read template").
			WithContext("path", path)
	}
	return string(data), nil
}

// ensureAssets creates missing runtime assets unless disabled. A missing
// asset directory is created first so artifacts land inside it rather than
// next to it.
func ensureAssets(cfg *config.Config, logger *slog.Logger) error {
	if cfg.SkipAssets {
		return nil
	}
	if _, err := os.Stat(cfg.AssetDir); os.IsNotExist(err) {
		if err := os.MkdirAll(cfg.AssetDir, 0o750); err != nil {
			return perrors.WriteFailed(cfg.AssetDir, err)
		}
	}
	created, err := assets.Ensure(paths.ArtifactDir(cfg.AssetDir), logger)
	if err != nil {
		return perrors.WriteFailed(cfg.AssetDir, err)
	}
	if len(created) > 0 {
		logger.Info("Created runtime assets", slog.Int("files", len(created)))
	}
	return nil
}

// watch rebuilds on every change below the root until ctx is done. An
// optional periodic rebuild shares the same worker, so runs never overlap.
func (rt *runtime) watch(ctx context.Context) error {
	worker := watch.NewWorker(func(ctx context.Context) { rt.orch.Trigger(ctx) })

	outputs := watch.OutputFilter(
		paths.HTMLPath(rt.cfg.Entry, rt.cfg.HTMLDir),
		paths.ArtifactDir(rt.cfg.AssetDir),
		"."+paths.ArtifactExtension,
	)
	journalPath := rt.cfg.Journal.Path
	ignore := func(p string) bool {
		// The journal database and its -wal/-journal siblings.
		return outputs(p) || (journalPath != "" && strings.HasPrefix(p, journalPath))
	}

	w, err := watch.New(watch.Options{
		Dirs:     []string{rt.cfg.Root},
		Debounce: rt.cfg.Debounce,
		Ignore:   ignore,
		OnChange: worker.Request,
		Logger:   rt.logger,
	})
	if err != nil {
		return perrors.Wrap(err, perrors.CategoryRuntime, perrors.SeverityFatal, "failed to start watcher")
	}

	if every := rt.cfg.Serve.RebuildEvery; every > 0 {
		sched, err := watch.NewScheduler(rt.logger)
		if err != nil {
			return perrors.Wrap(err, perrors.CategoryRuntime, perrors.SeverityFatal, "failed to start scheduler")
		}
		if _, err := sched.Every(every, "pagepress-rebuild", worker.Request); err != nil {
			return perrors.Wrap(err, perrors.CategoryRuntime, perrors.SeverityFatal, "failed to schedule rebuild")
		}
		sched.Start()
		defer func() {
			if err := sched.Stop(); err != nil {
				rt.logger.Warn("Scheduler shutdown failed", logfields.Error(err))
			}
		}()
	}

	go worker.Run(ctx)
	rt.logger.Info("Watching for changes", logfields.Path(rt.cfg.Root), logfields.Entry(rt.cfg.Entry))
	return w.Run(ctx)
}

// Close releases the optional sinks.
func (rt *runtime) Close() {
	if rt.notifier != nil {
		rt.notifier.Close()
	}
	if rt.journal != nil {
		if err := rt.journal.Close(); err != nil {
			rt.logger.Warn("Journal close failed", logfields.Error(err))
		}
	}
}
