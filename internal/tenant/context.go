package tenant

import (
	"context"
	"net/http"

	"github.com/yanizio/frontdoor/internal/host"
)

type ctxKey struct{}

// Resolution is the per-request outcome of host resolution.
type Resolution struct {
	Host   string  // normalised host key
	Raw    string  // host header as received
	Root   bool    // host is the platform root domain
	Bundle *Bundle // nil when no tenant is bound
	Err    error   // lookup failure, if any
}

// FromContext returns the Resolution stored by Middleware.
func FromContext(ctx context.Context) (*Resolution, bool) {
	res, ok := ctx.Value(ctxKey{}).(*Resolution)
	return res, ok
}

// WithResolution returns a copy of ctx carrying res.
func WithResolution(ctx context.Context, res *Resolution) context.Context {
	return context.WithValue(ctx, ctxKey{}, res)
}

// Middleware resolves the request host once and stores the Resolution in the
// request context.  The root domain is never looked up.
func Middleware(r *Resolver, trustForwarded bool, rootDomain string) func(http.Handler) http.Handler {
	root := host.Normalize(rootDomain)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			res := &Resolution{
				Host: host.FromRequest(req, trustForwarded),
				Raw:  host.Raw(req, trustForwarded),
			}
			if root != "" && res.Host == root {
				res.Root = true
			} else {
				res.Bundle, res.Err = r.Resolve(req.Context(), res.Host)
			}
			next.ServeHTTP(w, req.WithContext(WithResolution(req.Context(), res)))
		})
	}
}
