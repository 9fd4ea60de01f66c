// Package metadata builds the per-revision page metadata record from a
// compiled document: embedded metadata, document info, derived description
// and summary, and the static path settings.
package metadata

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/pagepress/internal/clock"
	"git.home.luguber.info/inful/pagepress/internal/document"
	perrors "git.home.luguber.info/inful/pagepress/internal/errors"
	"git.home.luguber.info/inful/pagepress/internal/frontmatter"
	"git.home.luguber.info/inful/pagepress/internal/logfields"
	"git.home.luguber.info/inful/pagepress/internal/paths"
)

// RendererModule is the runtime asset the page loads to display theme
// artifacts. It is relative to the asset directory.
const RendererModule = "internal/renderer.mjs"

// DefaultSummaryWords is the number of word segments kept in a summary.
const DefaultSummaryWords = 150

// Record is the metadata a page template is rendered with. A new record is
// built for every successful revision.
type Record struct {
	Title          string
	Author         []string
	Date           string
	PathToRoot     string
	RelDataPath    string
	RendererModule string
	Description    string
	Summary        string
	// Darkmode is the theme-specific fragment filled in by the renderer.
	Darkmode string

	// Present only when the embedded metadata node supplies them.
	Tags       []string
	Categories []string
	Draft      *bool
}

// Frontmatter returns the header block for r.
func (r *Record) Frontmatter() frontmatter.Block {
	return frontmatter.Block{
		Title:      r.Title,
		Date:       r.Date,
		Author:     r.Author,
		Categories: r.Categories,
		Tags:       r.Tags,
		Draft:      r.Draft,
		Summary:    r.Summary,
	}
}

// Options configures an Extractor.
type Options struct {
	PathToRoot string
	// AssetDir decides the relative data path stem, see paths.OutputStem.
	AssetDir     string
	SummaryWords int
	Text         document.TextExporter
	Clock        clock.Clock
	Logger       *slog.Logger
}

// Extractor builds Records. It holds no per-revision state.
type Extractor struct {
	opts Options
}

// New creates an Extractor. Text must be set.
func New(opts Options) *Extractor {
	if opts.SummaryWords <= 0 {
		opts.SummaryWords = DefaultSummaryWords
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Extractor{opts: opts}
}

// Extract builds the record for doc. A missing embedded metadata node is not
// an error. Text export failures and undecodable metadata fail the revision.
func (e *Extractor) Extract(ctx context.Context, doc *document.Document) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, perrors.MetadataFailed("extract", err)
	}

	var emb Embedded
	if node, ok := doc.Query(document.MetadataLabel); ok {
		decoded, fieldErrs, err := DecodeEmbedded(node.Value)
		if err != nil {
			return nil, perrors.MetadataFailed("decode", err).WithContext("label", document.MetadataLabel)
		}
		for _, fe := range fieldErrs {
			e.opts.Logger.Warn("Ignoring malformed embedded metadata field",
				slog.String("field", fe.Field),
				logfields.Error(fe.Err))
		}
		emb = decoded
	}

	rec := &Record{
		Title:          emb.Title,
		Author:         emb.Author,
		PathToRoot:     e.opts.PathToRoot,
		RendererModule: RendererModule,
		Tags:           emb.Tags,
		Categories:     emb.Categories,
		Draft:          emb.Draft,
	}

	// Document info wins over the embedded node for title, author and date.
	if doc.Info.Title != "" {
		rec.Title = doc.Info.Title
	}
	if len(doc.Info.Authors) > 0 {
		rec.Author = append([]string(nil), doc.Info.Authors...)
	}
	if rec.Author == nil {
		rec.Author = []string{}
	}
	rec.Date = doc.Info.FormatDate()
	if rec.Date == "" {
		rec.Date = e.opts.Clock.Now().Format(time.DateOnly)
	}

	stem, err := paths.OutputStem(doc.Entry, e.opts.AssetDir)
	if err != nil {
		return nil, perrors.MetadataFailed("rel_data_path", err)
	}
	rec.RelDataPath = stem

	if e.opts.Text == nil {
		return nil, perrors.MetadataFailed("description", errNoTextExporter)
	}
	text, err := e.opts.Text.PlainText(doc)
	if err != nil {
		return nil, perrors.MetadataFailed("description", err)
	}
	rec.Description = norm.NFC.String(strings.TrimSpace(text))
	rec.Summary = Summarize(rec.Description, e.opts.SummaryWords)
	if emb.Summary != "" && emb.Summary != rec.Summary {
		e.opts.Logger.Info("Embedded summary replaced by derived summary",
			slog.String("embedded", emb.Summary))
	}

	return rec, nil
}
