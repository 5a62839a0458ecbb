// internal/content/content.go
//
// Per-site content fetchers.
//
// Context
// -------
// A tenant home page shows two sections: every category of the site, and
// the newest items.  Both are best-effort.  A failed or unconfigured store
// yields an empty section and a warning, never a failed page.
//
// Notes
// -----
//   - Load fans both fetches out and joins before returning.
//   - Oxford commas, two spaces after periods.
package content

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/frontdoor/internal/metrics"
	"github.com/yanizio/frontdoor/internal/store"
)

const (
	CategoriesCollection = "categories"
	ItemsCollection      = "items"

	// DefaultItemLimit applies when LatestItems is asked for <= 0 items.
	DefaultItemLimit = 10

	categoryBatch = 500
)

// Fetcher reads site content from a store.
type Fetcher struct {
	store store.Store
	log   *zap.SugaredLogger
}

// NewFetcher returns a Fetcher.  log may be nil.
func NewFetcher(s store.Store, log *zap.SugaredLogger) *Fetcher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Fetcher{store: s, log: log}
}

// Categories returns every category of siteID sorted by name.
func (f *Fetcher) Categories(ctx context.Context, siteID string) []store.Record {
	if siteID == "" {
		return []store.Record{}
	}
	recs, err := store.FullList(ctx, f.store, CategoriesCollection, categoryBatch, store.ListOptions{
		Filter: store.Eq("site", siteID),
		Sort:   "name",
	})
	if err != nil {
		metrics.FetchErrors.WithLabelValues("categories").Inc()
		f.log.Warnw("categories fetch failed", "site", siteID, "err", err)
		return []store.Record{}
	}
	return recs
}

// LatestItems returns up to limit items of siteID, newest first.
func (f *Fetcher) LatestItems(ctx context.Context, siteID string, limit int) []store.Record {
	if siteID == "" {
		return []store.Record{}
	}
	if limit <= 0 {
		limit = DefaultItemLimit
	}
	res, err := f.store.List(ctx, ItemsCollection, 1, limit, store.ListOptions{
		Filter:    store.Eq("site", siteID),
		Sort:      "-created",
		SkipTotal: true,
	})
	if err != nil {
		metrics.FetchErrors.WithLabelValues("items").Inc()
		f.log.Warnw("items fetch failed", "site", siteID, "err", err)
		return []store.Record{}
	}
	if res.Items == nil {
		return []store.Record{}
	}
	return res.Items
}

// Page is the content of one tenant home page.
type Page struct {
	Categories []store.Record
	Items      []store.Record
}

// Load fetches categories and the latest items concurrently.
func (f *Fetcher) Load(ctx context.Context, siteID string, limit int) Page {
	var p Page
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p.Categories = f.Categories(gctx, siteID)
		return nil
	})
	g.Go(func() error {
		p.Items = f.LatestItems(gctx, siteID, limit)
		return nil
	})
	_ = g.Wait() // fetchers never fail
	return p
}
