package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "git.home.luguber.info/inful/pagepress/internal/errors"
)

func envMap(m map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, []string{"light"}, cfg.Themes)
	assert.True(t, cfg.Frontmatter)
	assert.Equal(t, "auto", cfg.Darkmode)
	assert.Equal(t, 150, cfg.SummaryWords)
	assert.Equal(t, "127.0.0.1:20810", cfg.Serve.Addr)
	assert.True(t, cfg.Serve.LiveReload)
}

func TestLoadFile_OverlaysAndExpandsEnv(t *testing.T) {
	t.Setenv("PP_TEST_OUT", "/srv/out")
	path := filepath.Join(t.TempDir(), "pagepress.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
entry: post.md
html_dir: ${PP_TEST_OUT}
themes: [Dark, light]
frontmatter: false
serve:
  rebuild_every: 10m
`), 0o644))

	cfg := Defaults()
	require.NoError(t, LoadFile(cfg, path))
	assert.Equal(t, "post.md", cfg.Entry)
	assert.Equal(t, "/srv/out", cfg.HTMLDir)
	assert.Equal(t, []string{"Dark", "light"}, cfg.Themes)
	assert.False(t, cfg.Frontmatter)
	assert.Equal(t, 10*time.Minute, cfg.Serve.RebuildEvery)
	// Untouched keys keep their defaults.
	assert.Equal(t, "auto", cfg.Darkmode)
	assert.Equal(t, DefaultAddr, cfg.Serve.Addr)
}

func TestLoadFile_Errors(t *testing.T) {
	err := LoadFile(Defaults(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, perrors.IsCategory(err, perrors.CategoryConfig))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("themes: [unclosed\n"), 0o644))
	require.Error(t, LoadFile(Defaults(), bad))
}

func TestApplyEnv(t *testing.T) {
	cfg := Defaults()
	cfg.FontPaths = []string{"/fonts/a"}
	sep := string(os.PathListSeparator)

	err := ApplyEnv(cfg, envMap(map[string]string{
		"PAGEPRESS_ENTRY":         "doc.md",
		"PAGEPRESS_THEMES":        "light, dark",
		"PAGEPRESS_FONT_PATHS":    "/fonts/b" + sep + "/fonts/c",
		"PAGEPRESS_FRONTMATTER":   "false",
		"PAGEPRESS_SUMMARY_WORDS": "20",
		"PAGEPRESS_REBUILD_EVERY": "1h",
		"PAGEPRESS_DARKMODE":      "",
	}))
	require.NoError(t, err)
	assert.Equal(t, "doc.md", cfg.Entry)
	assert.Equal(t, []string{"light", "dark"}, cfg.Themes)
	assert.Equal(t, []string{"/fonts/a", "/fonts/b", "/fonts/c"}, cfg.FontPaths)
	assert.False(t, cfg.Frontmatter)
	assert.Equal(t, 20, cfg.SummaryWords)
	assert.Equal(t, time.Hour, cfg.Serve.RebuildEvery)
	assert.Equal(t, "auto", cfg.Darkmode)
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	for _, env := range []map[string]string{
		{"PAGEPRESS_WATCH": "sometimes"},
		{"PAGEPRESS_SUMMARY_WORDS": "many"},
		{"PAGEPRESS_REBUILD_EVERY": "soon"},
	} {
		err := ApplyEnv(Defaults(), envMap(env))
		require.Error(t, err, env)
		assert.True(t, perrors.IsCategory(err, perrors.CategoryConfig))
	}
}

func TestLoadEnvFiles_ProcessEnvWins(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PP_TEST_A=file\nPP_TEST_B=file\n"), 0o644))
	t.Setenv("PP_TEST_A", "process")
	t.Setenv("PP_TEST_B", "")
	require.NoError(t, os.Unsetenv("PP_TEST_B"))

	loaded, err := LoadEnvFiles(dir)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
	assert.Equal(t, "process", os.Getenv("PP_TEST_A"))
	assert.Equal(t, "file", os.Getenv("PP_TEST_B"))
}

func TestNormalize(t *testing.T) {
	cwd := t.TempDir()
	cfg := Defaults()
	cfg.Entry = "post.md"
	cfg.Themes = []string{"Light", "DARK", "light", " "}
	cfg.Darkmode = "Dark"
	cfg.FontPaths = []string{"fonts", "fonts"}
	cfg.SummaryWords = -1

	res := Normalize(cfg, cwd)
	assert.Equal(t, filepath.Join(cwd, "post.md"), cfg.Entry)
	assert.Equal(t, cwd, cfg.Root)
	assert.Equal(t, []string{"light", "dark"}, cfg.Themes)
	assert.Equal(t, "dark", cfg.Darkmode)
	assert.Equal(t, []string{filepath.Join(cwd, "fonts")}, cfg.FontPaths)
	assert.Equal(t, DefaultSummaryWords, cfg.SummaryWords)
	assert.Len(t, res.Warnings, 2)

	empty := Defaults()
	empty.Themes = nil
	Normalize(empty, cwd)
	assert.Equal(t, []string{"light"}, empty.Themes)
}

func TestValidate(t *testing.T) {
	cwd := t.TempDir()
	valid := func() *Config {
		cfg := Defaults()
		cfg.Entry = "post.md"
		Normalize(cfg, cwd)
		return cfg
	}
	require.NoError(t, Validate(valid()))

	cases := map[string]func(*Config){
		"entry":     func(c *Config) { c.Entry = "" },
		"darkmode":  func(c *Config) { c.Darkmode = "sepia" },
		"addr":      func(c *Config) { c.Serve.Addr = "nope" },
		"port":      func(c *Config) { c.Serve.Addr = "127.0.0.1:99999" },
		"theme":     func(c *Config) { c.Themes = []string{"a/b"} },
		"outside":   func(c *Config) { c.Entry = filepath.Join(filepath.Dir(cwd), "elsewhere.md") },
		"log level": func(c *Config) { c.LogLevel = "loud" },
		"negative":  func(c *Config) { c.Serve.RebuildEvery = -time.Second },
		"asset dir": func(c *Config) { c.AssetDir = "" },
		"html dir":  func(c *Config) { c.HTMLDir = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.True(t, perrors.IsCategory(err, perrors.CategoryConfig))
		})
	}
}

func TestValidateServe(t *testing.T) {
	cfg := Defaults()
	cfg.Entry = ""
	require.NoError(t, ValidateServe(cfg))

	cfg.Serve.Addr = "nope"
	assert.True(t, perrors.IsCategory(ValidateServe(cfg), perrors.CategoryConfig))

	cfg = Defaults()
	cfg.AssetDir = ""
	require.Error(t, ValidateServe(cfg))
}
