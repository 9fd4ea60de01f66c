package frontmatter

// Block is the structured header prepended to a rendered page. It is a
// normalized subset of the page metadata; optional fields are omitted when
// the document does not supply them.
type Block struct {
	Title      string
	Date       string
	Author     []string
	Categories []string
	Tags       []string
	Draft      *bool
	Summary    string
}

// Fields returns the block's keys in their canonical order.
func (b Block) Fields() []Field {
	author := b.Author
	if author == nil {
		author = []string{}
	}
	fields := []Field{
		{Key: "title", Value: b.Title},
		{Key: "date", Value: b.Date},
		{Key: "author", Value: author},
	}
	if b.Categories != nil {
		fields = append(fields, Field{Key: "categories", Value: b.Categories})
	}
	if b.Tags != nil {
		fields = append(fields, Field{Key: "tags", Value: b.Tags})
	}
	if b.Draft != nil {
		fields = append(fields, Field{Key: "draft", Value: *b.Draft})
	}
	fields = append(fields, Field{Key: "summary", Value: b.Summary})
	return fields
}

// Marshal serializes the block with `---` delimiters.
func (b Block) Marshal() ([]byte, error) {
	style := Style{Newline: "\n", HasTrailingNewline: true}
	yml, err := SerializeYAML(b.Fields(), style)
	if err != nil {
		return nil, err
	}
	return Join(yml, nil, true, style), nil
}
