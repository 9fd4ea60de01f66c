// Package paths holds the output path derivations shared by the metadata
// extractor, the theme exporters and the HTML writer. Keeping them in one
// place guarantees relative-data-path and artifact names never drift apart.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ArtifactExtension is appended to every theme artifact after the theme name.
const ArtifactExtension = "multi.sir.in"

// FileStem returns the final path element without its last extension.
// Dotfiles without a further extension keep their full name.
func FileStem(p string) string {
	base := filepath.Base(p)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	idx := strings.LastIndexByte(base, '.')
	if idx <= 0 {
		return base
	}
	return base[:idx]
}

// IsDir reports whether p exists and is a directory.
func IsDir(p string) bool {
	st, err := os.Stat(p)
	return err == nil && st.IsDir()
}

// OutputStem is the stem shared by relative-data-path and theme artifacts:
// the entry's stem when assetDir is a directory, otherwise assetDir's own stem.
func OutputStem(entry, assetDir string) (string, error) {
	var stem string
	if IsDir(assetDir) {
		stem = FileStem(entry)
		if stem == "" {
			return "", fmt.Errorf("invalid entry file %q", entry)
		}
		return stem, nil
	}
	stem = FileStem(assetDir)
	if stem == "" {
		return "", fmt.Errorf("invalid asset dir %q", assetDir)
	}
	return stem, nil
}

// ArtifactDir is the directory theme artifacts are written to.
func ArtifactDir(assetDir string) string {
	if IsDir(assetDir) {
		return assetDir
	}
	return filepath.Dir(assetDir)
}

// ArtifactPath returns {dir}/{stem}.{theme}.multi.sir.in.
func ArtifactPath(entry, assetDir, theme string) (string, error) {
	stem, err := OutputStem(entry, assetDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(ArtifactDir(assetDir), stem+"."+theme+"."+ArtifactExtension), nil
}

// HTMLPath returns {htmlDir}/{entry stem}.html when htmlDir is an existing
// directory, otherwise htmlDir itself.
func HTMLPath(entry, htmlDir string) string {
	if IsDir(htmlDir) {
		return filepath.Join(htmlDir, FileStem(entry)+".html")
	}
	return htmlDir
}

// Absolute cleans p and resolves it against cwd when relative.
func Absolute(p, cwd string) string {
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cwd, p)
}
