package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStem(t *testing.T) {
	cases := map[string]string{
		"post.typ":           "post",
		"/a/b/post.md":       "post",
		"archive.tar.gz":     "archive.tar",
		".hidden":            ".hidden",
		"noext":              "noext",
		"/a/b/dir/":          "dir",
		"relative/page.html": "page",
	}
	for in, want := range cases {
		assert.Equal(t, want, FileStem(in), in)
	}
}

func TestOutputStem_DirectoryUsesEntryStem(t *testing.T) {
	dir := t.TempDir()

	stem, err := OutputStem(filepath.Join(dir, "post.typ"), dir)
	require.NoError(t, err)
	assert.Equal(t, "post", stem)

	p, err := ArtifactPath(filepath.Join(dir, "post.typ"), dir, "light")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "post.light.multi.sir.in"), p)
}

func TestOutputStem_FileTargetUsesAssetStem(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "bundle.bin")

	stem, err := OutputStem("post.typ", target)
	require.NoError(t, err)
	assert.Equal(t, "bundle", stem)

	p, err := ArtifactPath("post.typ", target, "dark")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "bundle.dark.multi.sir.in"), p)
}

func TestHTMLPath(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, filepath.Join(dir, "post.html"), HTMLPath("/src/post.md", dir))

	literal := filepath.Join(dir, "index.html")
	assert.Equal(t, literal, HTMLPath("/src/post.md", literal))

	// An existing file is still a literal target.
	require.NoError(t, os.WriteFile(literal, []byte("x"), 0o644))
	assert.Equal(t, literal, HTMLPath("/src/post.md", literal))
}

func TestAbsolute(t *testing.T) {
	assert.Equal(t, "", Absolute("", "/cwd"))
	assert.Equal(t, "/abs/x", Absolute("/abs/./x", "/cwd"))
	assert.Equal(t, "/cwd/rel/x", Absolute("rel/../rel/x", "/cwd"))
}

func TestWriteFileAtomic_ReplacesContentAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "page.html")

	require.NoError(t, WriteFileAtomic(target, []byte("v1"), 0o644))
	require.NoError(t, WriteFileAtomic(target, []byte("v2"), 0o644))

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFileAtomic_MissingDirectory(t *testing.T) {
	err := WriteFileAtomic(filepath.Join(t.TempDir(), "nope", "page.html"), []byte("x"), 0o644)
	require.Error(t, err)
}
