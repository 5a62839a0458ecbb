// internal/site/site.go
//
// Display rules for tenant records.
//
// Context
// -------
// Site, category, and item rows are schemaless as far as the front door is
// concerned.  Each visible string is therefore picked from a fallback chain
// of fields, ending in something that is always present (the host or the
// record id).
//
// Notes
// -----
//   - Every helper accepts a nil record.
//   - Oxford commas, two spaces after periods.
package site

import (
	"time"

	"github.com/yanizio/frontdoor/internal/store"
)

// DefaultDescription is shown when a site has no description.
const DefaultDescription = "Latest updates from this site"

// Title is name, then title, then the host key.
func Title(s store.Record, host string) string {
	if v := s.FirstNonEmpty("name", "title"); v != "" {
		return v
	}
	return host
}

// Description is description, then DefaultDescription.
func Description(s store.Record) string {
	if v := s.FirstNonEmpty("description"); v != "" {
		return v
	}
	return DefaultDescription
}

// MetaTitle is meta_title, then site_name, then the host key.
func MetaTitle(s store.Record, host string) string {
	if v := s.FirstNonEmpty("meta_title", "site_name"); v != "" {
		return v
	}
	return host
}

// MetaDescription returns meta_description or "".
func MetaDescription(s store.Record) string { return s.FirstNonEmpty("meta_description") }

// MetaKeywords returns meta_keywords or "".
func MetaKeywords(s store.Record) string { return s.FirstNonEmpty("meta_keywords") }

// CategoryLabel is name, then title, then id.
func CategoryLabel(c store.Record) string { return c.FirstNonEmpty("name", "title", "id") }

// ItemTitle is title, then name, then id.
func ItemTitle(i store.Record) string { return i.FirstNonEmpty("title", "name", "id") }

// ItemDate is publishedAt, then created.  ok is false when neither parses.
func ItemDate(i store.Record) (time.Time, bool) {
	if t, ok := i.Time("publishedAt"); ok {
		return t, true
	}
	return i.Time("created")
}
