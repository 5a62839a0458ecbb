package theme

import (
	"html/template"
	"time"

	"github.com/yanizio/frontdoor/internal/requestinfo"
)

// FuncMap returns the template helpers.  Request-info helpers accept a nil
// *requestinfo.Info so templates work without the enrichment middleware.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"year": func() int { return time.Now().Year() },
		"isBot": func(i *requestinfo.Info) bool {
			return i != nil && i.UA.IsBot
		},
		"browser": func(i *requestinfo.Info) string {
			if i == nil {
				return ""
			}
			return i.UA.Browser
		},
		"country": func(i *requestinfo.Info) string {
			if i == nil {
				return ""
			}
			return i.Geo.CountryISO
		},
		"lang": func(i *requestinfo.Info) string {
			if i == nil || i.UA.PrimaryLang == "" {
				return "en"
			}
			return i.UA.PrimaryLang
		},
	}
}
