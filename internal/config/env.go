package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	perrors "git.home.luguber.info/inful/pagepress/internal/errors"
)

// EnvPrefix prefixes every environment variable pagepress reads.
const EnvPrefix = "PAGEPRESS_"

// EnvFontPaths lists extra font directories separated by os.PathListSeparator.
const EnvFontPaths = EnvPrefix + "FONT_PATHS"

// LoadEnvFiles loads .env and .env.local from dir when present. Variables
// already set in the process environment win.
func LoadEnvFiles(dir string) ([]string, error) {
	var loaded []string
	for _, name := range []string{".env", ".env.local"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return loaded, perrors.Wrap(err, perrors.CategoryConfig, perrors.SeverityFatal, "failed to load env file").
				WithContext("path", p)
		}
		loaded = append(loaded, p)
	}
	return loaded, nil
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overlays PAGEPRESS_* variables onto cfg. Font paths from the
// environment are appended to the configured ones rather than replacing them.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return perrors.ConfigInvalid(EnvPrefix+name, "expected a boolean, got "+strconv.Quote(v))
		}
		*dst = b
		return nil
	}

	str("ENTRY", &cfg.Entry)
	str("ROOT", &cfg.Root)
	str("HTML_DIR", &cfg.HTMLDir)
	str("ASSET_DIR", &cfg.AssetDir)
	str("PATH_TO_ROOT", &cfg.PathToRoot)
	str("DARKMODE", &cfg.Darkmode)
	str("TEMPLATE", &cfg.Template)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("ADDR", &cfg.Serve.Addr)
	str("JOURNAL", &cfg.Journal.Path)
	str("NATS_URL", &cfg.NATS.URL)
	str("NATS_SUBJECT", &cfg.NATS.Subject)

	if v, ok := lookup(EnvPrefix + "THEMES"); ok && v != "" {
		cfg.Themes = splitList(v, ",")
	}
	if v, ok := lookup(EnvFontPaths); ok && v != "" {
		cfg.FontPaths = append(cfg.FontPaths, splitList(v, string(os.PathListSeparator))...)
	}
	if v, ok := lookup(EnvPrefix + "SUMMARY_WORDS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return perrors.ConfigInvalid(EnvPrefix+"SUMMARY_WORDS", "expected an integer, got "+strconv.Quote(v))
		}
		cfg.SummaryWords = n
	}
	if v, ok := lookup(EnvPrefix + "REBUILD_EVERY"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return perrors.ConfigInvalid(EnvPrefix+"REBUILD_EVERY", err.Error())
		}
		cfg.Serve.RebuildEvery = d
	}

	for name, dst := range map[string]*bool{
		"WATCH":       &cfg.Watch,
		"FRONTMATTER": &cfg.Frontmatter,
		"SKIP_ASSETS": &cfg.SkipAssets,
		"LIVE_RELOAD": &cfg.Serve.LiveReload,
		"METRICS":     &cfg.Serve.Metrics,
	} {
		if err := boolean(name, dst); err != nil {
			return err
		}
	}
	return nil
}

func splitList(v, sep string) []string {
	var out []string
	for _, part := range strings.Split(v, sep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
