package metadata

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Embedded is the typed view of the document's embedded metadata node.
// Slices and Draft stay nil when the node does not supply them.
type Embedded struct {
	Title      string
	Author     []string
	Categories []string
	Tags       []string
	Draft      *bool
	Summary    string
}

// FieldError reports an embedded field that could not be decoded. The field
// keeps its zero value and the remaining fields are still decoded.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("embedded metadata field %q: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// DecodeEmbedded decodes raw YAML leniently. Strings are accepted wherever a
// list is expected. Only a value that is not a YAML mapping at all is an error.
func DecodeEmbedded(raw []byte) (Embedded, []*FieldError, error) {
	var emb Embedded
	if len(bytes.TrimSpace(raw)) == 0 {
		return emb, nil, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return emb, nil, fmt.Errorf("parse embedded metadata: %w", err)
	}
	if len(root.Content) == 0 {
		return emb, nil, nil
	}
	m := resolve(root.Content[0])
	if m.Kind != yaml.MappingNode {
		if isNull(m) {
			return emb, nil, nil
		}
		return emb, nil, fmt.Errorf("embedded metadata must be a mapping, got %s", m.Tag)
	}

	var fieldErrs []*FieldError
	for i := 0; i+1 < len(m.Content); i += 2 {
		key := strings.ToLower(strings.TrimSpace(m.Content[i].Value))
		val := resolve(m.Content[i+1])

		var err error
		switch key {
		case "title":
			emb.Title, err = decodeString(val)
		case "author", "authors":
			emb.Author, err = decodeStrings(val)
		case "categories":
			emb.Categories, err = decodeStrings(val)
		case "tags":
			emb.Tags, err = decodeStrings(val)
		case "draft":
			emb.Draft, err = decodeBool(val)
		case "summary":
			emb.Summary, err = decodeString(val)
		default:
			continue
		}
		if err != nil {
			fieldErrs = append(fieldErrs, &FieldError{Field: key, Err: err})
		}
	}
	return emb, fieldErrs, nil
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

func decodeString(n *yaml.Node) (string, error) {
	if isNull(n) {
		return "", nil
	}
	if n.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("expected a string, got %s", kindName(n))
	}
	return strings.TrimSpace(n.Value), nil
}

func decodeStrings(n *yaml.Node) ([]string, error) {
	switch {
	case isNull(n):
		return nil, nil
	case n.Kind == yaml.ScalarNode:
		return []string{strings.TrimSpace(n.Value)}, nil
	case n.Kind == yaml.SequenceNode:
		out := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			item = resolve(item)
			if item.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("expected a list of strings, found %s item", kindName(item))
			}
			if isNull(item) {
				continue
			}
			out = append(out, strings.TrimSpace(item.Value))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a string or list of strings, got %s", kindName(n))
	}
}

func decodeBool(n *yaml.Node) (*bool, error) {
	if isNull(n) {
		return nil, nil
	}
	var b bool
	if err := n.Decode(&b); err != nil {
		return nil, fmt.Errorf("expected a boolean: %w", err)
	}
	return &b, nil
}

func kindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	default:
		return "node"
	}
}
