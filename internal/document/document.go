// Package document defines the contract between the pipeline and the
// external document compiler: compiled documents, diagnostics, and the
// exporter/text-export capabilities the pipeline consumes.
//
// The pipeline never inspects a document's tree directly. It reads the
// document-level Info, looks up the single embedded metadata node by
// MetadataLabel, and hands the document to exporters.
package document

import (
	"context"
	"time"
)

// MetadataLabel is the well-known label of the embedded metadata node. A
// document author attaches page metadata (tags, categories, draft, ...) to a
// node carrying this label; the pipeline looks for at most one of them.
const MetadataLabel = "pagepress-meta"

// Revision identifies one compile attempt. Revisions are assigned by the
// orchestrator and increase monotonically for the lifetime of a process.
type Revision uint64

// Info holds document-level fields set by the document itself.
type Info struct {
	Title   string
	Authors []string
	// Date is nil when the document does not set one.
	Date *time.Time
}

// FormatDate renders the document date as an ISO calendar date, or "" when
// the document sets none.
func (i Info) FormatDate() string {
	if i.Date == nil || i.Date.IsZero() {
		return ""
	}
	return i.Date.Format(time.DateOnly)
}

// Node is an opaque labeled value inside a compiled document.
type Node struct {
	Label string
	// Kind is compiler specific ("code", "heading", ...).
	Kind string
	// Value is the raw payload of the node, typically structured text.
	Value []byte
}

// World describes the environment a document was compiled in.
type World struct {
	Root  string
	Fonts []string
}

// Document is an immutable compiled snapshot. Downstream stages must treat
// every field as read-only.
type Document struct {
	Entry  string
	Source []byte
	Info   Info
	// Tree is the compiler's own document tree.
	Tree any
	// Labeled maps labels to the first node that carries them.
	Labeled     map[string]Node
	World       World
	Diagnostics Diagnostics
}

// Query returns the node carrying label, if any.
func (d *Document) Query(label string) (Node, bool) {
	if d == nil || d.Labeled == nil {
		return Node{}, false
	}
	n, ok := d.Labeled[label]
	return n, ok
}

// Compiler turns an entry file into a compiled document. A nil document is
// returned when compilation fails; diagnostics explain why.
type Compiler interface {
	Compile(ctx context.Context, entry string) (*Document, Diagnostics)
}

// TextExporter renders a full document to plain text.
type TextExporter interface {
	PlainText(doc *Document) (string, error)
}

// ExportJob describes one theme artifact to produce for every successful
// revision. Jobs are stateless and built once at startup.
type ExportJob struct {
	Theme     string
	Path      string
	Extension string
}

// Target is the layout target name passed to the serializer.
func (j ExportJob) Target() string { return "web-" + j.Theme }

// Exporter writes a single job's artifact for a compiled document.
type Exporter interface {
	Export(ctx context.Context, doc *Document, job ExportJob) error
}

// ExporterFunc adapts a function to the Exporter interface.
type ExporterFunc func(ctx context.Context, doc *Document, job ExportJob) error

func (f ExporterFunc) Export(ctx context.Context, doc *Document, job ExportJob) error {
	return f(ctx, doc, job)
}
