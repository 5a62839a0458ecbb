// Package middleware holds small, composable HTTP wrappers.
package middleware

import (
	"net/http"

	"github.com/yanizio/frontdoor/internal/tenant"
)

// ForceHTTPS redirects plain-HTTP requests for bound tenants to HTTPS with
// 308 Permanent Redirect.  It must run after tenant.Middleware; requests
// without a resolved tenant, already on TLS, forwarded as https by a
// trusted proxy, or addressed to localhost pass through unchanged.
//
// The target is the normalised host key, which carries no port: the
// incoming port is the plain-HTTP one and says nothing about where TLS
// listens.  tlsPort names a non-standard TLS port to append; "" or "443"
// redirects to the default.
func ForceHTTPS(trustForwarded bool, tlsPort string) func(http.Handler) http.Handler {
	suffix := ""
	if tlsPort != "" && tlsPort != "443" {
		suffix = ":" + tlsPort
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.TLS != nil || (trustForwarded && r.Header.Get("X-Forwarded-Proto") == "https") {
				next.ServeHTTP(w, r)
				return
			}

			res, ok := tenant.FromContext(r.Context())
			if !ok || res.Bundle == nil || res.Host == "localhost" {
				next.ServeHTTP(w, r)
				return
			}

			target := "https://" + res.Host + suffix + r.URL.RequestURI()
			http.Redirect(w, r, target, http.StatusPermanentRedirect)
		})
	}
}
