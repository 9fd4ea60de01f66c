package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	parts, err := Split(input)
	require.NoError(t, err)
	require.False(t, parts.Had)
	require.Empty(t, parts.Frontmatter)
	require.Equal(t, input, parts.Body)
	require.Equal(t, 1, parts.BodyLine)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: T\nauthor: a\n---\n# Title\n")

	parts, err := Split(input)
	require.NoError(t, err)
	require.True(t, parts.Had)
	require.Equal(t, []byte("title: T\nauthor: a\n"), parts.Frontmatter)
	require.Equal(t, []byte("# Title\n"), parts.Body)
	require.Equal(t, 5, parts.BodyLine)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	_, err := Split([]byte("---\nkey: value\n# Title\n"))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestSplit_CRLF_SplitsFrontmatterAndBody(t *testing.T) {
	parts, err := Split([]byte("---\r\nkey: value\r\n---\r\n# Title\r\n"))
	require.NoError(t, err)
	require.True(t, parts.Had)
	require.Equal(t, []byte("key: value\r\n"), parts.Frontmatter)
	require.Equal(t, []byte("# Title\r\n"), parts.Body)
}

func TestSplit_EmptyFrontmatterBlock(t *testing.T) {
	parts, err := Split([]byte("---\n---\n# Title\n"))
	require.NoError(t, err)
	require.True(t, parts.Had)
	require.Empty(t, parts.Frontmatter)
	require.Equal(t, []byte("# Title\n"), parts.Body)
}

func TestJoin_RoundTrip_ReconstructsOriginalBytes(t *testing.T) {
	cases := [][]byte{
		[]byte("# Title\n\nHello\n"),
		[]byte("---\nkey: value\n---\n# Title\n"),
		[]byte("---\n---\n# Title\n"),
		[]byte("---\r\nkey: value\r\n---\r\n# Title\r\n"),
	}

	for _, input := range cases {
		parts, err := Split(input)
		require.NoError(t, err)
		require.Equal(t, input, Join(parts.Frontmatter, parts.Body, parts.Had, parts.Style))
	}
}

func TestParseYAML(t *testing.T) {
	fields, err := ParseYAML([]byte("title: T\ntags:\n  - one\n"))
	require.NoError(t, err)
	require.Equal(t, "T", fields["title"])
	require.Equal(t, []any{"one"}, fields["tags"])

	empty, err := ParseYAML([]byte("  \n"))
	require.NoError(t, err)
	require.Empty(t, empty)

	_, err = ParseYAML([]byte("title: [unclosed\n"))
	require.Error(t, err)
}
