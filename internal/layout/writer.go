package layout

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/pagepress/internal/document"
	"git.home.luguber.info/inful/pagepress/internal/logfields"
	"git.home.luguber.info/inful/pagepress/internal/paths"
)

// FragmentRenderer renders a document body as HTML with code highlighted in
// the named chroma style. An empty style disables highlighting.
type FragmentRenderer interface {
	RenderHTML(doc *document.Document, codeStyle string) (string, error)
}

var themeStyles = map[string]string{
	"light": "github",
	"dark":  "monokai",
}

// StyleFor returns the chroma style used for theme.
func StyleFor(theme string) string {
	if s, ok := themeStyles[theme]; ok {
		return s
	}
	return "github"
}

// Writer produces theme artifacts. It implements document.Exporter.
type Writer struct {
	frag   FragmentRenderer
	logger *slog.Logger
}

// NewWriter creates a Writer rendering fragments with frag.
func NewWriter(frag FragmentRenderer, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{frag: frag, logger: logger}
}

// Export writes job's artifact for doc.
func (w *Writer) Export(ctx context.Context, doc *document.Document, job document.ExportJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return w.Write(doc, job.Theme, job.Path)
}

// Write renders doc for theme and atomically replaces the file at path.
func (w *Writer) Write(doc *document.Document, theme, path string) error {
	if err := validTheme(theme); err != nil {
		return err
	}
	style := StyleFor(theme)
	html, err := w.frag.RenderHTML(doc, style)
	if err != nil {
		return fmt.Errorf("render %s fragment: %w", theme, err)
	}

	fonts := make([]string, 0, len(doc.World.Fonts))
	for _, f := range doc.World.Fonts {
		fonts = append(fonts, filepath.Base(f))
	}

	data, err := Encode(Artifact{
		Header: Header{Theme: theme, Target: "web-" + theme, Style: style},
		Body:   Body{Title: doc.Info.Title, HTML: html, Fonts: fonts},
	})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}
	if err := paths.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}

	w.logger.Debug("Layout artifact written",
		logfields.Theme(theme),
		logfields.Path(path),
		slog.Int("bytes", len(data)))
	return nil
}

func validTheme(theme string) error {
	switch {
	case theme == "", theme == ".", theme == "..":
		return fmt.Errorf("invalid theme name %q", theme)
	case strings.ContainsAny(theme, `/\`):
		return fmt.Errorf("theme name %q must not contain path separators", theme)
	}
	return nil
}
