package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/pagepress/internal/config"
	"git.home.luguber.info/inful/pagepress/internal/logfields"
	"git.home.luguber.info/inful/pagepress/internal/metrics"
	"git.home.luguber.info/inful/pagepress/internal/paths"
	"git.home.luguber.info/inful/pagepress/internal/pipeline"
	"git.home.luguber.info/inful/pagepress/internal/server"
)

// ServeCmd implements 'pagepress serve'.
type ServeCmd struct {
	BuildFlags `embed:""`

	Addr         string        `name:"addr" help:"Listen address (HOST:PORT)."`
	NoBuild      bool          `name:"no-build" help:"Only serve; do not compile."`
	NoLiveReload bool          `name:"no-live-reload" help:"Disable live reload events and script injection."`
	Metrics      bool          `name:"metrics" help:"Expose Prometheus metrics at /metrics."`
	RebuildEvery time.Duration `name:"rebuild-every" help:"Force a rebuild at this interval (requires --watch)."`
}

func (s *ServeCmd) apply(cfg *config.Config) {
	s.BuildFlags.apply(cfg)
	if s.Addr != "" {
		cfg.Serve.Addr = s.Addr
	}
	if s.NoBuild {
		cfg.Serve.NoBuild = true
	}
	if s.NoLiveReload {
		cfg.Serve.LiveReload = false
	}
	if s.Metrics {
		cfg.Serve.Metrics = true
	}
	if s.RebuildEvery > 0 {
		cfg.Serve.RebuildEvery = s.RebuildEvery
	}
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return s.run(ctx, g, root)
}

// idleStatus backs /api/status when nothing is built.
type idleStatus struct{}

func (idleStatus) Status() pipeline.Snapshot { return pipeline.Snapshot{} }

func (s *ServeCmd) run(ctx context.Context, g *Global, root *CLI) error {
	logger := g.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg, err := loadConfig(root, logger, s.apply)
	if err != nil {
		return err
	}
	if cfg.Serve.NoBuild {
		err = config.ValidateServe(cfg)
	} else {
		err = config.Validate(cfg)
	}
	if err != nil {
		return err
	}
	if err := ensureAssets(cfg, logger); err != nil {
		return err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	opts := server.Options{
		Addr:          cfg.Serve.Addr,
		AssetDir:      paths.ArtifactDir(cfg.AssetDir),
		ArtifactDir:   paths.ArtifactDir(cfg.AssetDir),
		DevDir:        cwd,
		Status:        idleStatus{},
		ShutdownGrace: config.DefaultShutdownGrace,
		Logger:        logger,
	}

	var rt *runtime
	if !cfg.Serve.NoBuild {
		rt, err = newRuntime(cfg, logger, runtimeOptions{liveReload: cfg.Serve.LiveReload})
		if err != nil {
			return err
		}
		defer rt.Close()
		opts.Status = rt.orch
		opts.LiveReload = rt.hub
		if rt.journal != nil {
			opts.Journal = rt.journal
		}
		if rt.registry != nil {
			opts.Metrics = metrics.HTTPHandler(rt.registry)
		}
	}

	srv, err := server.New(opts)
	if err != nil {
		return err
	}

	if rt != nil {
		go rt.build(ctx)
	}
	return srv.Start(ctx)
}

// build is the background half of serve. Its failures are reported by the
// pipeline and never stop the server.
func (rt *runtime) build(ctx context.Context) {
	r := rt.orch.Trigger(ctx)
	if r.State.Failed() {
		rt.logger.Warn("Initial build failed", logfields.State(string(r.State)), logfields.Error(r.Err))
	}
	if !rt.cfg.Watch {
		return
	}
	if err := rt.watch(ctx); err != nil {
		rt.logger.Error("Watcher stopped", logfields.Error(err))
	}
}
