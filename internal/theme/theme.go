// Package theme holds the parsed page templates.  A Theme combines:
//
//   - Name     – the override directory name, or "default" for the
//     embedded templates alone.
//   - Renderer – parsed templates ready for execution.
//
// Every page is rendered into a buffer first so a template error never
// leaves a half-written response.
package theme

import (
	"bytes"
	"html/template"
	"io"
)

// Page template names.
const (
	HomePage     = "home.html"
	LandingPage  = "landing.html"
	NotFoundPage = "notfound.html"
)

// Theme is returned by the Manager once all templates are parsed.
type Theme struct {
	Name     string
	Renderer *template.Template
}

// Render executes the named template into w.
func (t *Theme) Render(w io.Writer, name string, data any) error {
	var buf bytes.Buffer
	if err := t.Renderer.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}
