// Package config holds the single explicit configuration struct passed to
// every pagepress component, and its loading, normalization and validation.
//
// Sources, highest precedence first: command-line flags, PAGEPRESS_*
// environment variables (including .env files), an optional YAML file,
// built-in defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	perrors "git.home.luguber.info/inful/pagepress/internal/errors"
)

const (
	DefaultAddr          = "127.0.0.1:20810"
	DefaultTheme         = "light"
	DefaultDarkmode      = "auto"
	DefaultSummaryWords  = 150
	DefaultNATSSubject   = "pagepress.revisions"
	DefaultDebounce      = 300 * time.Millisecond
	DefaultShutdownGrace = 5 * time.Second
)

// Config is the complete pagepress configuration.
type Config struct {
	Entry        string        `yaml:"entry"`
	Root         string        `yaml:"root"`
	HTMLDir      string        `yaml:"html_dir"`
	AssetDir     string        `yaml:"asset_dir"`
	PathToRoot   string        `yaml:"path_to_root"`
	Themes       []string      `yaml:"themes"`
	Watch        bool          `yaml:"watch"`
	FontPaths    []string      `yaml:"font_paths"`
	Frontmatter  bool          `yaml:"frontmatter"`
	Darkmode     string        `yaml:"darkmode"`
	Template     string        `yaml:"template,omitempty"`
	SkipAssets   bool          `yaml:"skip_assets"`
	SummaryWords int           `yaml:"summary_words"`
	Debounce     time.Duration `yaml:"debounce"`
	LogLevel     string        `yaml:"log_level,omitempty"`

	Serve   ServeConfig   `yaml:"serve"`
	Journal JournalConfig `yaml:"journal"`
	NATS    NATSConfig    `yaml:"nats"`
}

// ServeConfig configures the serve command.
type ServeConfig struct {
	Addr       string `yaml:"addr"`
	NoBuild    bool   `yaml:"no_build"`
	LiveReload bool   `yaml:"live_reload"`
	Metrics    bool   `yaml:"metrics"`
	// RebuildEvery forces a periodic rebuild when non-zero.
	RebuildEvery time.Duration `yaml:"rebuild_every"`
}

// JournalConfig enables the sqlite revision journal when Path is set.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// NATSConfig enables revision notifications when URL is set.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// Defaults returns a configuration with every default applied.
func Defaults() *Config {
	return &Config{
		Root:         ".",
		HTMLDir:      ".",
		AssetDir:     ".",
		PathToRoot:   "./",
		Themes:       []string{DefaultTheme},
		Frontmatter:  true,
		Darkmode:     DefaultDarkmode,
		SummaryWords: DefaultSummaryWords,
		Debounce:     DefaultDebounce,
		Serve: ServeConfig{
			Addr:       DefaultAddr,
			LiveReload: true,
		},
		NATS: NATSConfig{Subject: DefaultNATSSubject},
	}
}

// LoadFile overlays the YAML file at path onto cfg. Environment references
// in the file are expanded first.
func LoadFile(cfg *Config, path string) error {
	// #nosec G304 -- path is the user-supplied configuration file
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return perrors.ConfigNotFound(path)
		}
		return perrors.Wrap(err, perrors.CategoryConfig, perrors.SeverityFatal, "failed to read config file").
			WithContext("path", path)
	}

	// Keys absent from the file keep their current value.
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return perrors.Wrap(err, perrors.CategoryConfig, perrors.SeverityFatal, "failed to parse config file").
			WithContext("path", path)
	}
	return nil
}

// Marshal renders cfg as YAML.
func (c *Config) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return out, nil
}
