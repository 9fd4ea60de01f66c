// Package frontmatter reads YAML frontmatter from source documents and
// writes the structured header block prepended to rendered pages.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// Style captures the newline shape of a document.
type Style struct {
	Newline            string
	HasTrailingNewline bool
}

// Parts is a document split at its frontmatter delimiters.
type Parts struct {
	// Frontmatter is the raw YAML between the delimiters (nil when absent).
	Frontmatter []byte
	Body        []byte
	// Had reports whether the document started with a frontmatter block.
	Had bool
	// BodyLine is the 1-based source line the body starts on.
	BodyLine int
	Style    Style
}

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Split separates YAML frontmatter (`---` delimited) from the body.
//
// If the document does not start with a delimiter, Had is false and Body is
// the full input.
func Split(content []byte) (Parts, error) {
	style := detectStyle(content)
	nl := style.Newline
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return Parts{Body: content, BodyLine: 1, Style: style}, nil
	}

	start := len(open)
	closeLine := []byte("---" + nl)
	if bytes.HasPrefix(content[start:], closeLine) {
		return Parts{
			Frontmatter: []byte{},
			Body:        content[start+len(closeLine):],
			Had:         true,
			BodyLine:    3,
			Style:       style,
		}, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		return Parts{Style: style}, ErrMissingClosingDelimiter
	}

	fm := content[start : start+idx+len(nl)]
	return Parts{
		Frontmatter: fm,
		Body:        content[start+idx+len(closeSeq):],
		Had:         true,
		BodyLine:    bytes.Count(fm, []byte("\n")) + 3,
		Style:       style,
	}, nil
}

// Join reassembles a document from raw frontmatter and body. When had is
// false the body is returned as-is.
func Join(frontmatter []byte, body []byte, had bool, style Style) []byte {
	if !had {
		return body
	}

	nl := style.Newline
	if nl == "" {
		nl = "\n"
	}
	delim := []byte("---" + nl)

	out := make([]byte, 0, 2*len(delim)+len(frontmatter)+len(body))
	out = append(out, delim...)
	out = append(out, frontmatter...)
	out = append(out, delim...)
	out = append(out, body...)
	return out
}

// ParseYAML parses raw YAML frontmatter (without --- delimiters) into a map.
func ParseYAML(frontmatter []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(frontmatter)) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

func detectStyle(content []byte) Style {
	newline := "\n"
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		newline = "\r\n"
	}
	return Style{
		Newline:            newline,
		HasTrailingNewline: len(content) > 0 && content[len(content)-1] == '\n',
	}
}
