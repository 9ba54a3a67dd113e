package view

import (
	"embed"
	"html/template"
	"io"

	"github.com/juju/errors"
)

//go:embed templates
var templateFS embed.FS

// HTMLRenderer draws a Page as a full HTML document. Every render produces
// the whole document from the Page alone; nothing is carried over from a
// previous render.
type HTMLRenderer struct {
	tmpl *template.Template
}

// NewHTMLRenderer parses the embedded dashboard template.
func NewHTMLRenderer() (*HTMLRenderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/dashboard.html")
	if err != nil {
		return nil, errors.Annotate(err, "parsing dashboard template")
	}
	return &HTMLRenderer{tmpl: tmpl}, nil
}

// Render writes page to w.
func (r *HTMLRenderer) Render(w io.Writer, page Page) error {
	return errors.Trace(r.tmpl.ExecuteTemplate(w, "dashboard.html", page))
}
