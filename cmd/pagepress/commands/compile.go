package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/pagepress/internal/config"
	"git.home.luguber.info/inful/pagepress/internal/logfields"
)

// CompileCmd implements 'pagepress compile'.
type CompileCmd struct {
	BuildFlags `embed:""`
}

func (c *CompileCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return c.run(ctx, g, root)
}

func (c *CompileCmd) run(ctx context.Context, g *Global, root *CLI) error {
	logger := g.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg, err := loadConfig(root, logger, c.apply)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := ensureAssets(cfg, logger); err != nil {
		return err
	}

	rt, err := newRuntime(cfg, logger, runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	r := rt.orch.Trigger(ctx)
	if !cfg.Watch {
		if r.State.Failed() {
			return r.Err
		}
		logger.Info("Page written", logfields.Path(r.HTMLPath))
		return nil
	}
	return rt.watch(ctx)
}
