// internal/head/builder.go
//
// The Builder collects everything that should appear inside a page's
// <head> element.  It is scoped to a single render.  The page handler
// pushes the title and meta tags, then the layout template emits them.
//
// Features
// --------
//   - SetTitle – single <title> tag (last call wins).
//   - Meta     – <meta name content> pairs, first value per name wins,
//     empty content skipped.
//   - Link     – <link rel href> pairs, deduplicated.
//   - Render helpers return escaped template.HTML.
package head

import (
	"html/template"
	"strings"
)

// Builder is not safe for concurrent writes.  One render owns it.
type Builder struct {
	title string
	metas []pair
	links []pair
	seen  map[string]struct{}
}

type pair struct{ key, val string }

// New returns an empty Builder.
func New() *Builder {
	return &Builder{seen: make(map[string]struct{})}
}

// SetTitle overrides the page <title>.
func (b *Builder) SetTitle(t string) { b.title = strings.TrimSpace(t) }

// Meta adds <meta name="name" content="content">.
func (b *Builder) Meta(name, content string) {
	content = strings.TrimSpace(content)
	if name == "" || content == "" {
		return
	}
	if b.mark("meta:" + name) {
		b.metas = append(b.metas, pair{name, content})
	}
}

// Link adds <link rel="rel" href="href">.
func (b *Builder) Link(rel, href string) {
	if rel == "" || href == "" {
		return
	}
	if b.mark("link:" + rel + " " + href) {
		b.links = append(b.links, pair{rel, href})
	}
}

func (b *Builder) mark(key string) bool {
	if _, dup := b.seen[key]; dup {
		return false
	}
	b.seen[key] = struct{}{}
	return true
}

// Title returns a <title> tag or "".
func (b *Builder) Title() template.HTML {
	if b.title == "" {
		return ""
	}
	return template.HTML("<title>" + template.HTMLEscapeString(b.title) + "</title>")
}

// Metas returns every meta tag.
func (b *Builder) Metas() template.HTML {
	var sb strings.Builder
	for _, m := range b.metas {
		sb.WriteString(`<meta name="` + template.HTMLEscapeString(m.key) +
			`" content="` + template.HTMLEscapeString(m.val) + `">`)
	}
	return template.HTML(sb.String())
}

// Links returns every link tag.
func (b *Builder) Links() template.HTML {
	var sb strings.Builder
	for _, l := range b.links {
		sb.WriteString(`<link rel="` + template.HTMLEscapeString(l.key) +
			`" href="` + template.HTMLEscapeString(l.val) + `">`)
	}
	return template.HTML(sb.String())
}
