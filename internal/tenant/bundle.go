// internal/tenant/bundle.go
//
// Tenant bundle and resolution contract.
//
// Context
// -------
// A Bundle is everything the page layer needs to know about the tenant that
// owns a hostname: the matched domain row and its expanded site row.  It is
// built once per cache window and shared read-only by every request that
// hits the same host key.
//
// Notes
// -----
//   - A nil *Bundle means "no tenant".  Callers must not mutate a Bundle.
//   - Oxford commas, two spaces after periods.
package tenant

import (
	"errors"

	"github.com/yanizio/frontdoor/internal/store"
)

// DomainsCollection holds hostname → site bindings.
const DomainsCollection = "domains"

// ErrLookupFailed wraps store errors that leave the answer unknown.  Such
// results are never cached.
var ErrLookupFailed = errors.New("tenant: lookup failed")

// Bundle is a resolved tenant.
type Bundle struct {
	Host   string       `json:"host"`
	Domain store.Record `json:"domain"`
	Site   store.Record `json:"site"`
}

// SiteID returns the site record id, or "" for a nil bundle.
func (b *Bundle) SiteID() string {
	if b == nil {
		return ""
	}
	return b.Site.ID()
}
