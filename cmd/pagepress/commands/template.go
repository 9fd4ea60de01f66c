package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	perrors "git.home.luguber.info/inful/pagepress/internal/errors"
	"git.home.luguber.info/inful/pagepress/internal/logfields"
	"git.home.luguber.info/inful/pagepress/internal/paths"
	"git.home.luguber.info/inful/pagepress/internal/render"
)

// TemplateCmd implements 'pagepress template'.
type TemplateCmd struct {
	Path  string `arg:"" optional:"" default:"index.html.tmpl" help:"Where to write the template."`
	Force bool   `name:"force" help:"Overwrite an existing file."`
}

func (t *TemplateCmd) Run(g *Global, _ *CLI) error {
	logger := g.Logger
	if logger == nil {
		logger = slog.Default()
	}
	path := t.Path
	if path == "" {
		path = render.DefaultTemplateName
	}
	if _, err := os.Stat(path); err == nil && !t.Force {
		return perrors.ValidationError(fmt.Sprintf("%s already exists (use --force to overwrite)", path))
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return perrors.WriteFailed(dir, err)
		}
	}
	if err := paths.WriteFileAtomic(path, render.DefaultTemplate(), 0o644); err != nil {
		return perrors.WriteFailed(path, err)
	}
	logger.Info("Template written", logfields.Path(path))
	return nil
}
