package metadata

import (
	"bytes"
	stdErrors "errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagepress/internal/clock"
	"git.home.luguber.info/inful/pagepress/internal/document"
	perrors "git.home.luguber.info/inful/pagepress/internal/errors"
)

type fakeText struct {
	text string
	err  error
}

func (f fakeText) PlainText(*document.Document) (string, error) { return f.text, f.err }

func newDoc(entry string, meta string) *document.Document {
	doc := &document.Document{Entry: entry, Labeled: map[string]document.Node{}}
	if meta != "" {
		doc.Labeled[document.MetadataLabel] = document.Node{Label: document.MetadataLabel, Value: []byte(meta)}
	}
	return doc
}

func TestExtract_DefaultsWithoutEmbeddedNode(t *testing.T) {
	dir := t.TempDir()
	clk := clock.Fake(time.Date(2024, 3, 9, 23, 0, 0, 0, time.Local))
	ex := New(Options{PathToRoot: "../", AssetDir: dir, Text: fakeText{text: "  Hello world  "}, Clock: clk})

	doc := newDoc("/src/post.typ", "")
	doc.Info.Title = "T"

	rec, err := ex.Extract(t.Context(), doc)
	require.NoError(t, err)
	assert.Equal(t, "T", rec.Title)
	assert.Equal(t, []string{}, rec.Author)
	assert.Equal(t, "2024-03-09", rec.Date)
	assert.Equal(t, "../", rec.PathToRoot)
	assert.Equal(t, "post", rec.RelDataPath)
	assert.Equal(t, RendererModule, rec.RendererModule)
	assert.Equal(t, "Hello world", rec.Description)
	assert.Equal(t, "Hello world", rec.Summary)
	assert.Nil(t, rec.Tags)
	assert.Nil(t, rec.Categories)
	assert.Nil(t, rec.Draft)
}

func TestExtract_DateFollowsClockUnlessDocumentSetsOne(t *testing.T) {
	clk := clock.Fake(time.Date(2024, 3, 9, 12, 0, 0, 0, time.Local))
	ex := New(Options{AssetDir: t.TempDir(), Text: fakeText{}, Clock: clk})

	undated := newDoc("post.md", "")
	first, err := ex.Extract(t.Context(), undated)
	require.NoError(t, err)
	clk.Advance(24 * time.Hour)
	second, err := ex.Extract(t.Context(), undated)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-09", first.Date)
	assert.Equal(t, "2024-03-10", second.Date)

	fixed := time.Date(2020, 1, 2, 0, 0, 0, 0, time.Local)
	dated := newDoc("post.md", "")
	dated.Info.Date = &fixed
	a, err := ex.Extract(t.Context(), dated)
	require.NoError(t, err)
	clk.Advance(24 * time.Hour)
	b, err := ex.Extract(t.Context(), dated)
	require.NoError(t, err)
	assert.Equal(t, "2020-01-02", a.Date)
	assert.Equal(t, a.Date, b.Date)
}

func TestExtract_DocumentInfoOverridesEmbedded(t *testing.T) {
	ex := New(Options{AssetDir: t.TempDir(), Text: fakeText{}})
	doc := newDoc("post.md", "title: Embedded\nauthor: Eve\ntags: [a, b]\ncategories: notes\ndraft: true\n")
	doc.Info.Title = "Document"
	doc.Info.Authors = []string{"Ann", "Bob"}

	rec, err := ex.Extract(t.Context(), doc)
	require.NoError(t, err)
	assert.Equal(t, "Document", rec.Title)
	assert.Equal(t, []string{"Ann", "Bob"}, rec.Author)
	assert.Equal(t, []string{"a", "b"}, rec.Tags)
	assert.Equal(t, []string{"notes"}, rec.Categories)
	require.NotNil(t, rec.Draft)
	assert.True(t, *rec.Draft)
}

func TestExtract_EmbeddedFillsMissingDocumentInfo(t *testing.T) {
	ex := New(Options{AssetDir: t.TempDir(), Text: fakeText{}})
	rec, err := ex.Extract(t.Context(), newDoc("post.md", "title: Embedded\nauthor: [Eve]\n"))
	require.NoError(t, err)
	assert.Equal(t, "Embedded", rec.Title)
	assert.Equal(t, []string{"Eve"}, rec.Author)
}

func TestExtract_MalformedFieldKeepsOthers(t *testing.T) {
	ex := New(Options{AssetDir: t.TempDir(), Text: fakeText{}})
	rec, err := ex.Extract(t.Context(), newDoc("post.md", "tags: {nested: map}\ndraft: false\ncategories: [x]\n"))
	require.NoError(t, err)
	assert.Nil(t, rec.Tags)
	assert.Equal(t, []string{"x"}, rec.Categories)
	require.NotNil(t, rec.Draft)
	assert.False(t, *rec.Draft)
}

func TestExtract_EmbeddedSummaryIsReplacedAndLogged(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	ex := New(Options{AssetDir: t.TempDir(), Text: fakeText{text: "Derived body text"}, Logger: logger})

	rec, err := ex.Extract(t.Context(), newDoc("post.md", "summary: Hand written\n"))
	require.NoError(t, err)
	assert.Equal(t, "Derived body text", rec.Summary)
	assert.Contains(t, logs.String(), "Embedded summary replaced by derived summary")
	assert.Contains(t, logs.String(), `embedded="Hand written"`)
}

func TestExtract_Failures(t *testing.T) {
	t.Run("text export", func(t *testing.T) {
		ex := New(Options{AssetDir: t.TempDir(), Text: fakeText{err: stdErrors.New("boom")}})
		_, err := ex.Extract(t.Context(), newDoc("post.md", ""))
		require.Error(t, err)
		assert.True(t, perrors.IsCategory(err, perrors.CategoryMetadata))
	})

	t.Run("embedded node is not a mapping", func(t *testing.T) {
		ex := New(Options{AssetDir: t.TempDir(), Text: fakeText{}})
		_, err := ex.Extract(t.Context(), newDoc("post.md", "- just\n- a list\n"))
		require.Error(t, err)
		assert.True(t, perrors.IsCategory(err, perrors.CategoryMetadata))
	})
}

func TestExtract_RelDataPathUsesAssetFileStem(t *testing.T) {
	ex := New(Options{AssetDir: "/out/site.sir", Text: fakeText{}})
	rec, err := ex.Extract(t.Context(), newDoc("/src/post.md", ""))
	require.NoError(t, err)
	assert.Equal(t, "site", rec.RelDataPath)
}

func TestSummarize(t *testing.T) {
	words := make([]string, 200)
	for i := range words {
		words[i] = "word"
	}
	long := strings.Join(words, " ")

	for _, tc := range []struct {
		name string
		text string
		n    int
	}{
		{"long", long, DefaultSummaryWords},
		{"short", "Only a few words, really.", DefaultSummaryWords},
		{"exact", "a b", 3},
		{"unicode", "Grüße aus Köln 🇩🇪 und 東京", 5},
		{"empty", "", 10},
	} {
		t.Run(tc.name, func(t *testing.T) {
			summary := Summarize(tc.text, tc.n)
			assert.True(t, strings.HasPrefix(tc.text, summary))
			all := Segments(tc.text)
			assert.Len(t, Segments(summary), min(tc.n, len(all)))
			assert.Equal(t, tc.text, strings.Join(all, ""))
		})
	}

	assert.Equal(t, "a b", Summarize("a b c", 3))
	assert.Empty(t, Summarize("a b c", 0))
}

func TestDecodeEmbedded(t *testing.T) {
	emb, fieldErrs, err := DecodeEmbedded([]byte("title: [not, scalar]\nsummary: Short\ndraft: maybe\nextra: 1\n"))
	require.NoError(t, err)
	require.Len(t, fieldErrs, 2)
	assert.Equal(t, "title", fieldErrs[0].Field)
	assert.Equal(t, "draft", fieldErrs[1].Field)
	assert.Empty(t, emb.Title)
	assert.Equal(t, "Short", emb.Summary)
	assert.Nil(t, emb.Draft)

	emb, fieldErrs, err = DecodeEmbedded([]byte("tags: []\n"))
	require.NoError(t, err)
	assert.Empty(t, fieldErrs)
	assert.NotNil(t, emb.Tags)
	assert.Empty(t, emb.Tags)

	_, _, err = DecodeEmbedded([]byte("tags: [a\n"))
	require.Error(t, err)

	emb, _, err = DecodeEmbedded(nil)
	require.NoError(t, err)
	assert.Equal(t, Embedded{}, emb)
}
