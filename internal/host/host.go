// internal/host/host.go
//
// Host-header normalisation.
//
// Context
// -------
// Every tenant lookup and every resolution-cache entry is keyed by the
// *host key*: the requested hostname, lowercased, with any ":port" suffix
// removed.  IPv6 literals keep their brackets ("[::1]:3000" → "[::1]") so
// the key can never be confused with a host:port pair.
//
// Reverse proxies put the original host in X-Forwarded-Host, sometimes as
// a comma-separated chain ("a.com, b.com").  Only the first value counts.
//
// Notes
// -----
//   - Normalize is idempotent; feeding it a host key returns the same key.
//   - An empty result means "no usable host", never a wildcard.
//   - Oxford commas, two spaces after periods.
package host

import (
	"net/http"
	"strings"
)

// ForwardedHostHeader is consulted before r.Host when forwarding is trusted.
const ForwardedHostHeader = "X-Forwarded-Host"

// Normalize converts a raw Host or X-Forwarded-Host value into a host key.
// It returns "" when no host can be extracted.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	first := raw
	if i := strings.IndexByte(first, ','); i != -1 {
		first = first[:i]
	}
	first = strings.TrimSpace(first)

	if strings.HasPrefix(first, "[") {
		// IPv6 literal: keep through the closing bracket, drop the port.
		if i := strings.IndexByte(first, ']'); i != -1 {
			first = first[:i+1]
		}
	} else if i := strings.IndexByte(first, ':'); i != -1 {
		first = first[:i]
	}

	return strings.ToLower(strings.TrimSpace(first))
}

// FromRequest extracts the host key for r.  When trustForwarded is true the
// X-Forwarded-Host header wins over r.Host.  Multiple header lines are
// treated as one comma-separated chain.
func FromRequest(r *http.Request, trustForwarded bool) string {
	key, _ := pick(r, trustForwarded)
	return key
}

// Raw returns the unnormalised value FromRequest derived its key from.  The
// "domain not bound" page echoes it back to the visitor.
func Raw(r *http.Request, trustForwarded bool) string {
	_, raw := pick(r, trustForwarded)
	return raw
}

// pick returns the host key and the raw chain element it came from.
func pick(r *http.Request, trustForwarded bool) (key, raw string) {
	if r == nil {
		return "", ""
	}
	if trustForwarded {
		if vals := r.Header.Values(ForwardedHostHeader); len(vals) > 0 {
			chain := strings.Join(vals, ",")
			if h := Normalize(chain); h != "" {
				first, _, _ := strings.Cut(chain, ",")
				return h, strings.TrimSpace(first)
			}
		}
	}
	return Normalize(r.Host), r.Host
}
