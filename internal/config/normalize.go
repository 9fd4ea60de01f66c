package config

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/pagepress/internal/paths"
)

var lower = cases.Lower(language.Und)

// NormalizationResult lists adjustments made by Normalize.
type NormalizationResult struct {
	Warnings []string
}

// Normalize cleans cfg in place: paths become absolute against cwd, mode and
// theme names are lower-cased, themes are de-duplicated and defaulted.
func Normalize(cfg *Config, cwd string) *NormalizationResult {
	res := &NormalizationResult{}

	cfg.Entry = paths.Absolute(cfg.Entry, cwd)
	cfg.Root = paths.Absolute(cfg.Root, cwd)
	cfg.HTMLDir = paths.Absolute(cfg.HTMLDir, cwd)
	cfg.AssetDir = paths.Absolute(cfg.AssetDir, cwd)
	cfg.Template = paths.Absolute(cfg.Template, cwd)
	cfg.Journal.Path = paths.Absolute(cfg.Journal.Path, cwd)
	for i, p := range cfg.FontPaths {
		cfg.FontPaths[i] = paths.Absolute(p, cwd)
	}
	cfg.FontPaths = dedupe(cfg.FontPaths)

	cfg.Darkmode = lower.String(strings.TrimSpace(cfg.Darkmode))
	if cfg.Darkmode == "" {
		cfg.Darkmode = DefaultDarkmode
	}
	cfg.LogLevel = lower.String(strings.TrimSpace(cfg.LogLevel))

	themes := make([]string, 0, len(cfg.Themes))
	for _, t := range cfg.Themes {
		n := lower.String(strings.TrimSpace(t))
		if n == "" {
			continue
		}
		themes = append(themes, n)
	}
	deduped := dedupe(themes)
	if len(deduped) != len(themes) {
		res.Warnings = append(res.Warnings, "duplicate themes removed")
	}
	if len(deduped) == 0 {
		deduped = []string{DefaultTheme}
	}
	cfg.Themes = deduped

	if cfg.SummaryWords <= 0 {
		if cfg.SummaryWords < 0 {
			res.Warnings = append(res.Warnings, "summary_words must be positive, using default")
		}
		cfg.SummaryWords = DefaultSummaryWords
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.NATS.Subject == "" {
		cfg.NATS.Subject = DefaultNATSSubject
	}
	cfg.Serve.Addr = strings.TrimSpace(cfg.Serve.Addr)
	if cfg.Serve.Addr == "" {
		cfg.Serve.Addr = DefaultAddr
	}
	return res
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0:0]
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
