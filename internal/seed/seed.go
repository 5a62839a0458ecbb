// internal/seed/seed.go
//
// Idempotent demo-tenant seeding.
//
// Context
// -------
// A fresh store has no domains, so every host renders "domain not bound".
// The seed tool writes one complete tenant (owner, site, domains, category,
// and item) so a local run has something to resolve.
//
// Workflow
// --------
//  1. Each collection's schema is read when the backend can describe it.
//  2. Payloads are trimmed to the schema's known fields and required
//     fields with no value get a type-appropriate placeholder.
//  3. Each record is upserted: find-first by its natural key, update when
//     found, create only when the store says ErrNotFound.
//
// Notes
// -----
//   - With no schema the payload is sent as is.
//   - Any lookup error other than ErrNotFound aborts the run.
//   - Oxford commas, two spaces after periods.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/frontdoor/internal/store"
)

// Collection names written by the seeder.
const (
	UsersCollection      = "users"
	SitesCollection      = "sites"
	DomainsCollection    = "domains"
	CategoriesCollection = "categories"
	ItemsCollection      = "items"
)

// ErrMissingRequired is returned when a required field has no placeholder.
var ErrMissingRequired = errors.New("seed: missing required field")

// Result holds the ids of every record the run touched.
type Result struct {
	OwnerID    string
	SiteID     string
	DomainIDs  map[string]string // hostname → id
	CategoryID string
	ItemID     string
}

// Seeder writes a Fixture into a store.
type Seeder struct {
	w   store.Writer
	log *zap.SugaredLogger
	now func() time.Time
}

// New returns a Seeder.  If w also implements store.SchemaReader the
// payloads are shaped to each collection's schema.
func New(w store.Writer, log *zap.SugaredLogger) *Seeder {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Seeder{w: w, log: log, now: time.Now}
}

// refs carries the ids placeholders may point relation fields at.
type refs struct {
	owner, site, category string
}

// Run seeds f and returns the resulting ids.
func (s *Seeder) Run(ctx context.Context, f *Fixture) (*Result, error) {
	res := &Result{DomainIDs: make(map[string]string, len(f.Domains))}

	owner, err := s.upsert(ctx, UsersCollection,
		store.Eq("email", f.Owner.Email),
		store.Record{
			"email":           f.Owner.Email,
			"password":        f.Owner.Password,
			"passwordConfirm": f.Owner.Password,
			"name":            f.Owner.Name,
		},
		[]string{"passwordConfirm"}, false, refs{})
	if err != nil {
		return nil, err
	}
	res.OwnerID = owner.ID()
	s.log.Infow("owner ready", "owner_id", res.OwnerID)

	site, err := s.upsert(ctx, SitesCollection,
		store.Eq("site_slug", f.Site.Slug),
		store.Record{
			"owner":       res.OwnerID,
			"site_slug":   f.Site.Slug,
			"name":        f.Site.Name,
			"title":       f.Site.Title,
			"description": f.Site.Description,
		},
		nil, true, refs{owner: res.OwnerID})
	if err != nil {
		return nil, err
	}
	res.SiteID = site.ID()
	s.log.Infow("site ready", "site_id", res.SiteID)

	for _, hostname := range f.Domains {
		d, err := s.upsert(ctx, DomainsCollection,
			store.Eq("hostname", hostname),
			store.Record{"hostname": hostname, "site": res.SiteID},
			nil, true, refs{site: res.SiteID})
		if err != nil {
			return nil, err
		}
		res.DomainIDs[hostname] = d.ID()
		s.log.Infow("domain ready", "hostname", hostname)
	}

	cat, err := s.upsert(ctx, CategoriesCollection,
		store.And(store.Eq("site", res.SiteID), store.Eq("slug", f.Category.Slug)),
		store.Record{
			"site":        res.SiteID,
			"name":        f.Category.Name,
			"title":       f.Category.Title,
			"slug":        f.Category.Slug,
			"description": f.Category.Description,
		},
		nil, true, refs{site: res.SiteID})
	if err != nil {
		return nil, err
	}
	res.CategoryID = cat.ID()
	s.log.Infow("category ready", "category_id", res.CategoryID)

	item, err := s.upsert(ctx, ItemsCollection,
		store.And(store.Eq("site", res.SiteID), store.Eq("slug", f.Item.Slug)),
		store.Record{
			"site":     res.SiteID,
			"category": res.CategoryID,
			"title":    f.Item.Title,
			"slug":     f.Item.Slug,
			"excerpt":  f.Item.Excerpt,
			"content":  f.Item.Content,
		},
		nil, true, refs{site: res.SiteID, category: res.CategoryID})
	if err != nil {
		return nil, err
	}
	res.ItemID = item.ID()
	s.log.Infow("item ready", "item_id", res.ItemID)

	return res, nil
}

// upsert finds the record matching key, updating it when update is set,
// and creates it on ErrNotFound.  extras are keys the schema does not list
// but the backend accepts when it has one (passwordConfirm on auth
// collections).
func (s *Seeder) upsert(ctx context.Context, collection string, key store.Filter, data store.Record, extras []string, update bool, r refs) (store.Record, error) {
	fields, err := s.fields(ctx, collection)
	if err != nil {
		return nil, err
	}
	known := pickKnown(data, fields, extras)

	existing, err := s.w.FindFirst(ctx, collection, key, store.FindOptions{})
	switch {
	case err == nil:
		if !update {
			return existing, nil
		}
		rec, err := s.w.Update(ctx, collection, existing.ID(), known)
		if err != nil {
			return nil, fmt.Errorf("seed: update %s: %w", collection, err)
		}
		return rec, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("seed: find %s: %w", collection, err)
	}

	payload, err := s.fillRequired(known, fields, r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", collection, err)
	}
	rec, err := s.w.Create(ctx, collection, payload)
	if err != nil {
		return nil, fmt.Errorf("seed: create %s: %w", collection, err)
	}
	return rec, nil
}

// fields returns nil when the backend cannot describe collection.  A failed
// schema read is logged and treated the same way.
func (s *Seeder) fields(ctx context.Context, collection string) ([]store.Field, error) {
	sr, ok := s.w.(store.SchemaReader)
	if !ok {
		return nil, nil
	}
	fields, err := sr.Fields(ctx, collection)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.log.Warnw("schema unavailable", "collection", collection, "err", err)
		return nil, nil
	}
	return fields, nil
}

func pickKnown(data store.Record, fields []store.Field, extras []string) store.Record {
	if fields == nil {
		out := make(store.Record, len(data))
		for k, v := range data {
			out[k] = v
		}
		for _, k := range extras {
			delete(out, k)
		}
		return out
	}
	names := make(map[string]bool, len(fields)+len(extras))
	for _, f := range fields {
		names[f.Name] = true
	}
	for _, k := range extras {
		names[k] = true
	}
	out := make(store.Record, len(data))
	for k, v := range data {
		if names[k] && v != nil {
			out[k] = v
		}
	}
	return out
}

func (s *Seeder) fillRequired(data store.Record, fields []store.Field, r refs) (store.Record, error) {
	out := make(store.Record, len(data))
	for k, v := range data {
		out[k] = v
	}
	for _, f := range fields {
		if !f.Required || f.System {
			continue
		}
		if v, ok := out[f.Name]; ok && v != nil {
			continue
		}
		v, ok := s.placeholder(f, r)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingRequired, f.Name)
		}
		out[f.Name] = v
	}
	return out, nil
}

func (s *Seeder) placeholder(f store.Field, r refs) (any, bool) {
	switch f.Type {
	case "relation":
		var id string
		switch f.Name {
		case "owner":
			id = r.owner
		case "site":
			id = r.site
		case "category":
			id = r.category
		}
		return id, id != ""
	case "select":
		if len(f.Values) == 0 {
			return nil, false
		}
		return f.Values[0], true
	case "text", "email", "url", "editor":
		return "seed-" + f.Name, true
	case "number":
		return 0, true
	case "bool":
		return false, true
	case "date", "autodate":
		return s.now().UTC().Format(time.RFC3339), true
	}
	return nil, false
}
