// Package commands implements the pagepress command line.
package commands

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pagepress/internal/config"
)

// DefaultConfigFile is loaded from the working directory when --config is not given.
const DefaultConfigFile = "pagepress.yaml"

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config   string           `short:"c" help:"Configuration file path (default: ./pagepress.yaml when present)."`
	Verbose  bool             `short:"v" help:"Enable verbose logging."`
	LogLevel string           `name:"log-level" help:"Log level (debug, info, warn, error)." env:"PAGEPRESS_LOG_LEVEL"`
	Version  kong.VersionFlag `name:"version" help:"Show version and exit."`

	Compile  CompileCmd  `cmd:"" help:"Compile the entry document once, or continuously with --watch."`
	Serve    ServeCmd    `cmd:"" help:"Serve the asset directory and build in the background."`
	Template TemplateCmd `cmd:"" help:"Write the built-in page template for customisation."`

	level *slog.LevelVar
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	c.level = new(slog.LevelVar)
	c.level.Set(c.flagLevel())
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.level}))
	slog.SetDefault(logger)
	return nil
}

func (c *CLI) flagLevel() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	return config.SlogLevel(c.LogLevel)
}

// applyConfigLevel lets log_level from the config file take effect when no
// flag or environment variable chose one.
func (c *CLI) applyConfigLevel(cfg *config.Config) {
	if c.level == nil || c.Verbose || c.LogLevel != "" || cfg.LogLevel == "" {
		return
	}
	c.level.Set(config.SlogLevel(cfg.LogLevel))
}

// loadConfig resolves the configuration: defaults, .env files, the YAML
// file, PAGEPRESS_* variables, then command flags via apply.
func loadConfig(root *CLI, logger *slog.Logger, apply func(*config.Config)) (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	loaded, err := config.LoadEnvFiles(cwd)
	if err != nil {
		return nil, err
	}
	for _, p := range loaded {
		logger.Debug("Loaded environment file", slog.String("path", p))
	}

	cfg := config.Defaults()
	path := root.Config
	if path == "" {
		if _, statErr := os.Stat(DefaultConfigFile); statErr == nil {
			path = DefaultConfigFile
		} else if !errors.Is(statErr, fs.ErrNotExist) {
			return nil, statErr
		}
	}
	if path != "" {
		if err := config.LoadFile(cfg, path); err != nil {
			return nil, err
		}
		logger.Debug("Loaded configuration file", slog.String("path", path))
	}

	if err := config.ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if apply != nil {
		apply(cfg)
	}

	res := config.Normalize(cfg, cwd)
	for _, w := range res.Warnings {
		logger.Warn("Configuration adjusted", slog.String("warning", w))
	}
	root.applyConfigLevel(cfg)
	return cfg, nil
}
