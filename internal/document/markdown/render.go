package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
	xhtml "golang.org/x/net/html"

	"git.home.luguber.info/inful/pagepress/internal/document"
)

// ErrForeignTree is returned when a document was not produced by this compiler.
var ErrForeignTree = errors.New("document tree was not produced by the markdown compiler")

// RenderHTML renders the document body to an HTML fragment. Fenced code is
// highlighted with the named chroma style; an empty style emits plain
// escaped code. The embedded metadata block never appears in the output.
func (c *Compiler) RenderHTML(doc *document.Document, codeStyle string) (string, error) {
	tree, err := treeOf(doc)
	if err != nil {
		return "", err
	}
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			renderer.WithNodeRenderers(util.Prioritized(&codeRenderer{style: codeStyle}, 100)),
		),
	)
	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, tree.Source, tree.Root); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}

// PlainText renders the whole document to whitespace-collapsed plain text.
func (c *Compiler) PlainText(doc *document.Document) (string, error) {
	fragment, err := c.RenderHTML(doc, "")
	if err != nil {
		return "", err
	}
	return extractText(strings.NewReader(fragment))
}

func treeOf(doc *document.Document) (*Tree, error) {
	if doc == nil {
		return nil, errors.New("nil document")
	}
	tree, ok := doc.Tree.(*Tree)
	if !ok || tree == nil || tree.Root == nil {
		return nil, ErrForeignTree
	}
	return tree, nil
}

// extractText tokenizes an HTML fragment and joins its text content,
// skipping script and style elements.
func extractText(r io.Reader) (string, error) {
	z := xhtml.NewTokenizer(r)
	var b strings.Builder
	skipDepth := 0
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			if err := z.Err(); err != nil && !errors.Is(err, io.EOF) {
				return "", fmt.Errorf("extract text: %w", err)
			}
			return strings.Join(strings.Fields(b.String()), " "), nil
		case xhtml.StartTagToken:
			name, _ := z.TagName()
			if isOpaque(name) {
				skipDepth++
			}
			if isBlock(name) {
				b.WriteByte(' ')
			}
		case xhtml.EndTagToken:
			name, _ := z.TagName()
			if isOpaque(name) && skipDepth > 0 {
				skipDepth--
			}
			if isBlock(name) {
				b.WriteByte(' ')
			}
		case xhtml.SelfClosingTagToken:
			name, _ := z.TagName()
			if string(name) == "br" || string(name) == "hr" {
				b.WriteByte(' ')
			}
		case xhtml.TextToken:
			if skipDepth == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isOpaque(name []byte) bool {
	s := string(name)
	return s == "script" || s == "style"
}

func isBlock(name []byte) bool {
	switch string(name) {
	case "p", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6", "pre", "blockquote", "td", "th", "tr", "br":
		return true
	}
	return false
}

// codeRenderer replaces goldmark's fenced code rendering: it drops the
// metadata block and highlights everything else with chroma.
type codeRenderer struct {
	style string
}

func (r *codeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCode)
}

func (r *codeRenderer) renderFencedCode(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)
	lang := string(n.Language(source))
	if lang == document.MetadataLabel {
		return ast.WalkSkipChildren, nil
	}
	code := string(blockLines(n, source))

	if r.style != "" {
		var buf bytes.Buffer
		if err := quick.Highlight(&buf, code, lang, "html", r.style); err == nil {
			_, _ = w.Write(buf.Bytes())
			return ast.WalkSkipChildren, nil
		}
	}

	_, _ = w.WriteString("<pre><code")
	if lang != "" {
		_, _ = w.WriteString(` class="language-` + html.EscapeString(lang) + `"`)
	}
	_, _ = w.WriteString(">")
	_, _ = w.WriteString(html.EscapeString(code))
	_, _ = w.WriteString("</code></pre>\n")
	return ast.WalkSkipChildren, nil
}
