// Package render assembles the final HTML page from a metadata record.
// Rendering is pure: callers decide where the result is written.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	perrors "git.home.luguber.info/inful/pagepress/internal/errors"
	"git.home.luguber.info/inful/pagepress/internal/metadata"
)

//go:embed templates/index.html.tmpl templates/darkmode/*.html.tmpl
var embedded embed.FS

const pageTemplatePath = "templates/index.html.tmpl"

// DefaultTemplateName is the file name the template command writes.
const DefaultTemplateName = "index.html.tmpl"

// Mode selects the darkmode fragment.
type Mode string

const (
	ModeLight Mode = "light"
	ModeDark  Mode = "dark"
	ModeAuto  Mode = "auto"
)

// Modes lists the supported modes.
func Modes() []Mode { return []Mode{ModeLight, ModeDark, ModeAuto} }

var lower = cases.Lower(language.Und)

// ParseMode normalizes s to a supported mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(lower.String(strings.TrimSpace(s)))
	for _, known := range Modes() {
		if m == known {
			return m, nil
		}
	}
	return "", perrors.TemplateMissing("darkmode/"+string(m)).
		WithContext("reason", fmt.Sprintf("unknown darkmode %q (want light, dark or auto)", s))
}

// DefaultTemplate returns the built-in page template source.
func DefaultTemplate() []byte {
	b, err := embedded.ReadFile(pageTemplatePath)
	if err != nil {
		panic("render: embedded page template missing: " + err.Error())
	}
	return b
}

// Options configures a Renderer.
type Options struct {
	Mode        string
	Frontmatter bool
	// PageTemplate overrides the built-in page template source.
	PageTemplate string
}

// Renderer renders pages. Templates are parsed once by New.
type Renderer struct {
	page        *template.Template
	darkmode    *template.Template
	frontmatter bool
}

var funcs = template.FuncMap{
	"join": strings.Join,
}

// New parses the page template and resolves the darkmode fragment. An
// unknown mode or an unparsable template is a configuration error.
func New(opts Options) (*Renderer, error) {
	mode, err := ParseMode(opts.Mode)
	if err != nil {
		return nil, err
	}

	name := "templates/darkmode/" + string(mode) + ".html.tmpl"
	src, err := embedded.ReadFile(name)
	if err != nil {
		return nil, perrors.TemplateMissing(name)
	}
	dm, err := template.New(string(mode)).Funcs(funcs).Parse(string(src))
	if err != nil {
		return nil, perrors.Wrap(err, perrors.CategoryRender, perrors.SeverityFatal, "invalid darkmode template")
	}

	pageSrc := opts.PageTemplate
	if strings.TrimSpace(pageSrc) == "" {
		pageSrc = string(DefaultTemplate())
	}
	page, err := template.New("index").Funcs(funcs).Parse(pageSrc)
	if err != nil {
		return nil, perrors.Wrap(err, perrors.CategoryConfig, perrors.SeverityFatal, "invalid page template")
	}

	return &Renderer{page: page, darkmode: dm, frontmatter: opts.Frontmatter}, nil
}

type pageData struct {
	*metadata.Record
	Darkmode template.HTML
}

// Render fills rec.Darkmode and returns the page, prefixed with the
// serialized frontmatter block when enabled.
func (r *Renderer) Render(rec *metadata.Record) (string, error) {
	var dm bytes.Buffer
	if err := r.darkmode.Execute(&dm, rec); err != nil {
		return "", perrors.RenderFailed(fmt.Errorf("darkmode fragment: %w", err))
	}
	rec.Darkmode = dm.String()

	var out bytes.Buffer
	if r.frontmatter {
		fm, err := rec.Frontmatter().Marshal()
		if err != nil {
			return "", perrors.RenderFailed(fmt.Errorf("frontmatter: %w", err))
		}
		out.Write(fm)
	}

	// #nosec G203 -- the fragment comes from a built-in template
	data := pageData{Record: rec, Darkmode: template.HTML(rec.Darkmode)}
	if err := r.page.Execute(&out, data); err != nil {
		return "", perrors.RenderFailed(err)
	}
	return out.String(), nil
}
