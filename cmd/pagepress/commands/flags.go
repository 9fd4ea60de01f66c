package commands

import (
	"git.home.luguber.info/inful/pagepress/internal/config"
)

// BuildFlags are shared by compile and serve. Only flags that were set
// override the configuration.
type BuildFlags struct {
	Entry         string   `arg:"" optional:"" help:"Entry document."`
	Root          string   `name:"root" help:"Project root. Files outside it cannot be compiled and it is the watched tree."`
	HTMLDir       string   `name:"html-dir" help:"Directory (or file path) for the rendered HTML page."`
	AssetDir      string   `name:"asset-dir" help:"Directory for runtime assets and theme artifacts."`
	PathToRoot    string   `name:"path-to-root" help:"Relative URL prefix from the page to the asset root."`
	Themes        []string `name:"theme" help:"Theme to export. Repeatable."`
	Watch         bool     `short:"w" name:"watch" help:"Recompile on every change below the root."`
	FontPaths     []string `name:"font-path" help:"Extra font directory. Repeatable."`
	Darkmode      string   `name:"darkmode" help:"Theme selection mode: light, dark or auto."`
	NoFrontmatter bool     `name:"no-frontmatter" help:"Do not prefix the page with YAML frontmatter."`
	Template      string   `name:"template" help:"Custom page template file."`
	SkipAssets    bool     `name:"skip-assets" help:"Do not create missing runtime assets."`
	SummaryWords  int      `name:"summary-words" help:"Word limit for the generated summary."`
	Journal       string   `name:"journal" help:"SQLite file recording every revision."`
	NATSURL       string   `name:"nats-url" help:"Publish rendered revisions to this NATS server."`
	NATSSubject   string   `name:"nats-subject" help:"NATS subject for revision events."`
}

func (f *BuildFlags) apply(cfg *config.Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Entry, f.Entry)
	set(&cfg.Root, f.Root)
	set(&cfg.HTMLDir, f.HTMLDir)
	set(&cfg.AssetDir, f.AssetDir)
	set(&cfg.PathToRoot, f.PathToRoot)
	set(&cfg.Darkmode, f.Darkmode)
	set(&cfg.Template, f.Template)
	set(&cfg.Journal.Path, f.Journal)
	set(&cfg.NATS.URL, f.NATSURL)
	set(&cfg.NATS.Subject, f.NATSSubject)

	if len(f.Themes) > 0 {
		cfg.Themes = append([]string(nil), f.Themes...)
	}
	cfg.FontPaths = append(cfg.FontPaths, f.FontPaths...)
	if f.Watch {
		cfg.Watch = true
	}
	if f.NoFrontmatter {
		cfg.Frontmatter = false
	}
	if f.SkipAssets {
		cfg.SkipAssets = true
	}
	if f.SummaryWords > 0 {
		cfg.SummaryWords = f.SummaryWords
	}
}
