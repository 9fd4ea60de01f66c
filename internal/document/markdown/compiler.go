// Package markdown is the reference document compiler shipped with pagepress.
//
// Sources are Markdown files with optional YAML frontmatter. Frontmatter
// `title`, `author` and `date` become document info; a fenced code block
// whose info string is document.MetadataLabel carries the embedded page
// metadata node.
package markdown

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/pagepress/internal/document"
	"git.home.luguber.info/inful/pagepress/internal/frontmatter"
	"git.home.luguber.info/inful/pagepress/internal/logfields"
)

const diagSource = "compile"

var fontExtensions = map[string]bool{".ttf": true, ".otf": true, ".woff": true, ".woff2": true}

// Options configures a Compiler.
type Options struct {
	// Root bounds which files may be compiled. Empty disables the check.
	Root      string
	FontPaths []string
	Logger    *slog.Logger
}

// Tree is the compiled document tree stored in document.Document.Tree.
type Tree struct {
	Root   ast.Node
	Source []byte
}

// Compiler compiles Markdown entries. It is safe for concurrent use.
type Compiler struct {
	opts   Options
	parser parser.Parser
}

// New creates a Compiler.
func New(opts Options) *Compiler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
	return &Compiler{opts: opts, parser: md.Parser()}
}

// Compile reads and parses entry. On failure the returned document is nil and
// the diagnostics contain at least one error.
func (c *Compiler) Compile(ctx context.Context, entry string) (*document.Document, document.Diagnostics) {
	if err := ctx.Err(); err != nil {
		return nil, document.Diagnostics{document.Errorf(diagSource, "compilation canceled: %v", err)}
	}

	if c.opts.Root != "" {
		rel, err := filepath.Rel(c.opts.Root, entry)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			d := document.Errorf(diagSource, "entry file is outside of the project root %s", c.opts.Root)
			d.Path = entry
			return nil, document.Diagnostics{d}
		}
	}

	src, err := os.ReadFile(entry)
	if err != nil {
		d := document.Errorf(diagSource, "cannot read entry file: %v", err)
		d.Path = entry
		return nil, document.Diagnostics{d}
	}

	parts, err := frontmatter.Split(src)
	if err != nil {
		d := document.Errorf(diagSource, "%v", err)
		d.Path, d.Line = entry, 1
		d.Hint = "close the frontmatter block with a line containing only ---"
		return nil, document.Diagnostics{d}
	}
	fields, err := frontmatter.ParseYAML(parts.Frontmatter)
	if err != nil {
		d := document.Errorf(diagSource, "invalid frontmatter: %v", err)
		d.Path, d.Line = entry, 2
		return nil, document.Diagnostics{d}
	}

	var diags document.Diagnostics
	info, infoDiags := infoFromFields(fields)
	for _, d := range infoDiags {
		d.Path = entry
		diags = append(diags, d)
	}

	root := c.parser.Parse(text.NewReader(parts.Body))
	labeled, labelDiags := collectLabeled(root, parts.Body)
	for _, d := range labelDiags {
		d.Path = entry
		diags = append(diags, d)
	}
	if info.Title == "" {
		info.Title = firstHeading(root, parts.Body)
	}

	fonts, fontDiags := discoverFonts(c.opts.FontPaths)
	diags = append(diags, fontDiags...)

	c.opts.Logger.Debug("Compiled document",
		logfields.Entry(entry),
		slog.String("title", info.Title),
		slog.Int("fonts", len(fonts)),
		slog.Int("diagnostics", len(diags)))

	return &document.Document{
		Entry:       entry,
		Source:      src,
		Info:        info,
		Tree:        &Tree{Root: root, Source: parts.Body},
		Labeled:     labeled,
		World:       document.World{Root: c.opts.Root, Fonts: fonts},
		Diagnostics: diags,
	}, diags
}

func infoFromFields(fields map[string]any) (document.Info, document.Diagnostics) {
	var info document.Info
	var diags document.Diagnostics

	if v, ok := fields["title"]; ok && v != nil {
		info.Title = strings.TrimSpace(fmt.Sprint(v))
	}

	switch v := fields["author"].(type) {
	case nil:
	case string:
		if s := strings.TrimSpace(v); s != "" {
			info.Authors = []string{s}
		}
	case []any:
		for _, a := range v {
			if a == nil {
				continue
			}
			if s := strings.TrimSpace(fmt.Sprint(a)); s != "" {
				info.Authors = append(info.Authors, s)
			}
		}
	default:
		info.Authors = []string{fmt.Sprint(v)}
	}

	switch v := fields["date"].(type) {
	case nil:
	case time.Time:
		info.Date = &v
	case string:
		if t, ok := parseDate(v); ok {
			info.Date = &t
		} else {
			diags = append(diags, document.Warningf(diagSource, "ignoring unparseable document date %q", v))
		}
	default:
		diags = append(diags, document.Warningf(diagSource, "ignoring document date of type %T", v))
	}

	return info, diags
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.DateOnly, time.RFC3339, time.DateTime, "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// collectLabeled finds label-addressed nodes. Only the metadata label is
// recognized; a second occurrence is ignored with a warning.
func collectLabeled(root ast.Node, source []byte) (map[string]document.Node, document.Diagnostics) {
	labeled := map[string]document.Node{}
	var diags document.Diagnostics

	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		if string(block.Language(source)) != document.MetadataLabel {
			return ast.WalkSkipChildren, nil
		}
		if _, dup := labeled[document.MetadataLabel]; dup {
			diags = append(diags, document.Warningf(diagSource, "duplicate %s block ignored", document.MetadataLabel))
			return ast.WalkSkipChildren, nil
		}
		labeled[document.MetadataLabel] = document.Node{
			Label: document.MetadataLabel,
			Kind:  "code",
			Value: blockLines(block, source),
		}
		return ast.WalkSkipChildren, nil
	})

	return labeled, diags
}

func blockLines(n ast.Node, source []byte) []byte {
	var b []byte
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b = append(b, seg.Value(source)...)
	}
	return b
}

func firstHeading(root ast.Node, source []byte) string {
	var title string
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok && h.Level == 1 {
			title = strings.TrimSpace(inlineText(h, source))
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return title
}

func inlineText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

func discoverFonts(dirs []string) ([]string, document.Diagnostics) {
	var fonts []string
	var diags document.Diagnostics
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && fontExtensions[strings.ToLower(filepath.Ext(path))] {
				fonts = append(fonts, path)
			}
			return nil
		})
		if err != nil {
			w := document.Warningf(diagSource, "font path not usable: %v", err)
			w.Path = dir
			diags = append(diags, w)
		}
	}
	return fonts, diags
}
