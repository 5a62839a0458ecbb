package theme

import (
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
)

//go:embed templates/*.html
var defaults embed.FS

// Manager discovers and loads themes.
type Manager struct {
	BaseDir string // e.g., "themes" (relative) or "/srv/frontdoor/themes"
}

// Load parses the embedded templates, then the overrides under
// <BaseDir>/<name>/templates.  An override file replaces the embedded
// template with the same base name.  An empty name loads the defaults only.
func (m *Manager) Load(name string) (*Theme, error) {
	tpl, err := template.New("").Funcs(FuncMap()).ParseFS(defaults, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse default templates: %w", err)
	}
	if name == "" {
		return &Theme{Name: "default", Renderer: tpl}, nil
	}

	root := filepath.Join(m.BaseDir, name, "templates")
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("theme %s not found at %s", name, root)
	}
	files, err := CollectHTML(root)
	if err != nil {
		return nil, fmt.Errorf("scan theme %s: %w", name, err)
	}
	if len(files) > 0 {
		if _, err := tpl.ParseFiles(files...); err != nil {
			return nil, fmt.Errorf("parse theme overrides: %w", err)
		}
	}
	return &Theme{Name: name, Renderer: tpl}, nil
}
