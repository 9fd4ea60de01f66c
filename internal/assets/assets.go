// Package assets installs the static runtime files a rendered page needs
// next to the theme artifacts.
package assets

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	perrors "git.home.luguber.info/inful/pagepress/internal/errors"
	"git.home.luguber.info/inful/pagepress/internal/logfields"
)

//go:embed runtime
var runtimeFS embed.FS

const runtimeRoot = "runtime"

// Files lists the runtime asset paths relative to the asset directory.
func Files() []string {
	var out []string
	_ = fs.WalkDir(runtimeFS, runtimeRoot, func(p string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			out = append(out, p[len(runtimeRoot)+1:])
		}
		return err
	})
	return out
}

// Ensure writes every runtime asset missing from dir. Existing files are left
// alone so local edits survive. It returns the files it created.
func Ensure(dir string, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var created []string
	for _, rel := range Files() {
		target := filepath.Join(dir, filepath.FromSlash(rel))
		if _, err := os.Stat(target); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return created, perrors.WriteFailed(target, err)
		}

		data, err := runtimeFS.ReadFile(path.Join(runtimeRoot, rel))
		if err != nil {
			return created, perrors.InternalError(fmt.Sprintf("embedded asset %s missing", rel), err)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return created, perrors.WriteFailed(filepath.Dir(target), err)
		}
		// #nosec G306 -- runtime assets are public static files
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return created, perrors.WriteFailed(target, err)
		}
		created = append(created, rel)
		logger.Debug("Installed runtime asset", logfields.Path(target))
	}
	return created, nil
}
