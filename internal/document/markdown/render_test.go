package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagepress/internal/document"
)

func compileString(t *testing.T, src string) (*Compiler, *document.Document) {
	t.Helper()
	entry := writeEntry(t, t.TempDir(), "doc.md", src)
	c := New(Options{})
	doc, diags := c.Compile(t.Context(), entry)
	require.False(t, diags.HasErrors(), "%v", diags)
	return c, doc
}

func TestPlainText_CollapsesWhitespaceAndSkipsMetadata(t *testing.T) {
	c, doc := compileString(t, "# Title\n\nFirst  paragraph with **bold**\ntext.\n\n"+
		"```pagepress-meta\ntags: [secret]\n```\n\n"+
		"- one\n- two\n\n"+
		"```go\nfmt.Println(\"x\")\n```\n")

	txt, err := c.PlainText(doc)
	require.NoError(t, err)
	assert.Equal(t, `Title First paragraph with bold text. one two fmt.Println("x")`, txt)
	assert.NotContains(t, txt, "secret")
}

func TestPlainText_DecodesEntities(t *testing.T) {
	c, doc := compileString(t, "Fish &amp; chips < 3\n")
	txt, err := c.PlainText(doc)
	require.NoError(t, err)
	assert.Equal(t, "Fish & chips < 3", txt)
}

func TestRenderHTML_HighlightsCodeWithStyle(t *testing.T) {
	c, doc := compileString(t, "```go\npackage main\n```\n")

	plain, err := c.RenderHTML(doc, "")
	require.NoError(t, err)
	assert.Contains(t, plain, `<code class="language-go">`)

	styled, err := c.RenderHTML(doc, "monokai")
	require.NoError(t, err)
	assert.True(t, strings.Contains(styled, "style="), styled)
	assert.NotEqual(t, plain, styled)
}

func TestRenderHTML_ForeignTree(t *testing.T) {
	c := New(Options{})
	_, err := c.RenderHTML(&document.Document{Tree: "not a tree"}, "")
	require.ErrorIs(t, err, ErrForeignTree)
	_, err = c.PlainText(&document.Document{})
	require.Error(t, err)
}
