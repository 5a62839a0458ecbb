// internal/page/page.go
//
// Page handler for every tenant-facing path.
//
// Context
// -------
// tenant.Middleware has already resolved the host.  The handler picks one
// of four answers from that Resolution:
//
//   - root domain           → platform landing page, 200.
//   - tenant bound          → tenant home (categories and latest items), 200.
//   - no tenant             → "domain not bound", 404.
//   - lookup failed         → "domain not bound" wording for outages, 503.
//
// Notes
// -----
//   - An unconfigured store counts as "no tenant", not as an outage.
//   - Oxford commas, two spaces after periods.
package page

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/yanizio/frontdoor/internal/content"
	"github.com/yanizio/frontdoor/internal/head"
	"github.com/yanizio/frontdoor/internal/requestinfo"
	"github.com/yanizio/frontdoor/internal/site"
	"github.com/yanizio/frontdoor/internal/store"
	"github.com/yanizio/frontdoor/internal/tenant"
	"github.com/yanizio/frontdoor/internal/theme"
)

// DefaultItemLimit is the number of latest items on a tenant home page.
const DefaultItemLimit = 12

// View is the data every page template receives.
type View struct {
	Head        *head.Builder
	Info        *requestinfo.Info
	Host        string
	RootDomain  string
	Unavailable bool
	Home        site.Home
}

// Options tunes a Handler.
type Options struct {
	RootDomain string
	ItemLimit  int // default DefaultItemLimit
	Logger     *zap.SugaredLogger
}

// Handler renders tenant pages.
type Handler struct {
	theme      *theme.Theme
	fetch      *content.Fetcher
	rootDomain string
	itemLimit  int
	log        *zap.SugaredLogger
}

// New returns a Handler.
func New(th *theme.Theme, f *content.Fetcher, opts Options) *Handler {
	h := &Handler{theme: th, fetch: f, rootDomain: opts.RootDomain, itemLimit: opts.ItemLimit, log: opts.Logger}
	if h.itemLimit <= 0 {
		h.itemLimit = DefaultItemLimit
	}
	if h.log == nil {
		h.log = zap.NewNop().Sugar()
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	v := View{
		Head:       head.New(),
		Info:       requestinfo.FromContext(r.Context()),
		RootDomain: h.rootDomain,
	}

	res, ok := tenant.FromContext(r.Context())
	if !ok {
		res = &tenant.Resolution{Raw: r.Host}
	}
	v.Host = res.Host
	if v.Host == "" {
		v.Host = res.Raw
	}

	switch {
	case res.Root:
		v.Head.SetTitle(h.rootDomain)
		h.render(w, http.StatusOK, theme.LandingPage, v)

	case res.Err != nil && !errors.Is(res.Err, store.ErrNotConfigured):
		v.Unavailable = true
		v.Head.SetTitle("Temporarily unavailable")
		v.Head.Meta("robots", "noindex")
		w.Header().Set("Retry-After", "30")
		h.render(w, http.StatusServiceUnavailable, theme.NotFoundPage, v)

	case res.Bundle == nil:
		v.Head.SetTitle("Domain not bound")
		v.Head.Meta("robots", "noindex")
		h.render(w, http.StatusNotFound, theme.NotFoundPage, v)

	default:
		b := res.Bundle
		p := h.fetch.Load(r.Context(), b.SiteID(), h.itemLimit)
		v.Home = site.NewHome(b.Host, b.Site, p)
		v.Head.SetTitle(v.Home.MetaTitle)
		v.Head.Meta("description", v.Home.MetaDescription)
		v.Head.Meta("keywords", v.Home.MetaKeywords)
		h.render(w, http.StatusOK, theme.HomePage, v)
	}
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, v View) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	// Render buffers, so a template error still lets us answer 500.
	rw := &deferredWriter{ResponseWriter: w, status: status}
	if err := h.theme.Render(rw, name, v); err != nil {
		h.log.Errorw("render failed", "template", name, "host", v.Host, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// deferredWriter sends the status with the first body write.
type deferredWriter struct {
	http.ResponseWriter
	status  int
	started bool
}

func (d *deferredWriter) Write(b []byte) (int, error) {
	if !d.started {
		d.started = true
		d.ResponseWriter.WriteHeader(d.status)
	}
	return d.ResponseWriter.Write(b)
}
