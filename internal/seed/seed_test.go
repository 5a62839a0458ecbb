package seed

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/frontdoor/internal/content"
	"github.com/yanizio/frontdoor/internal/database"
	"github.com/yanizio/frontdoor/internal/site"
	"github.com/yanizio/frontdoor/internal/store"
	"github.com/yanizio/frontdoor/internal/store/sqlstore"
	"github.com/yanizio/frontdoor/internal/tenant"
)

func TestDefaultFixture(t *testing.T) {
	f, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if f.Owner.Email != "seed-1dun@example.com" || f.Site.Slug != "1dun" {
		t.Fatalf("fixture = %+v", f)
	}
	if strings.Join(f.Domains, ",") != "1dun.co,1dun.net" {
		t.Fatalf("domains = %v", f.Domains)
	}
	if f.Category.Slug != "general" || f.Item.Slug != "welcome" {
		t.Fatalf("category/item = %q/%q", f.Category.Slug, f.Item.Slug)
	}
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"unknown key": "owner: {email: a@b.c}\nbogus: 1\n",
		"no domains":  "owner: {email: a@b.c}\nsite: {slug: s}\ncategory: {slug: c}\nitem: {slug: i}\n",
		"no owner":    "site: {slug: s}\ndomains: [a.com]\n",
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc)); !errors.Is(err, ErrInvalidFixture) {
			t.Errorf("%s: err = %v, want ErrInvalidFixture", name, err)
		}
	}
}

func openSQLite(t *testing.T) (*sqlx.DB, *sqlstore.Store) {
	t.Helper()
	db, err := database.Open(context.Background(), "sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	for _, q := range []string{
		`CREATE TABLE users (id TEXT PRIMARY KEY, email TEXT, password TEXT, name TEXT, created TEXT, updated TEXT)`,
		`CREATE TABLE sites (id TEXT PRIMARY KEY, owner TEXT, site_slug TEXT, name TEXT, title TEXT, description TEXT, created TEXT, updated TEXT)`,
		`CREATE TABLE domains (id TEXT PRIMARY KEY, hostname TEXT, site TEXT, status TEXT, created TEXT, updated TEXT)`,
		`CREATE TABLE categories (id TEXT PRIMARY KEY, site TEXT, name TEXT, title TEXT, slug TEXT, description TEXT, created TEXT, updated TEXT)`,
		`CREATE TABLE items (id TEXT PRIMARY KEY, site TEXT, category TEXT, title TEXT, slug TEXT, excerpt TEXT, content TEXT, created TEXT, updated TEXT)`,
	} {
		if _, err := db.Exec(q); err != nil {
			t.Fatalf("schema: %v", err)
		}
	}
	return db, sqlstore.New(db, sqlstore.Options{})
}

func count(t *testing.T, db *sqlx.DB, table string) int {
	t.Helper()
	var n int
	if err := db.Get(&n, "SELECT COUNT(*) FROM "+table); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestRunSQLiteIdempotent(t *testing.T) {
	db, st := openSQLite(t)
	f, _ := Default()
	s := New(st, nil)

	first, err := s.Run(context.Background(), f)
	if err != nil {
		t.Fatalf("Run #1: %v", err)
	}
	second, err := s.Run(context.Background(), f)
	if err != nil {
		t.Fatalf("Run #2: %v", err)
	}

	if first.SiteID == "" || first.SiteID != second.SiteID || first.ItemID != second.ItemID {
		t.Fatalf("ids changed between runs: %+v vs %+v", first, second)
	}
	for table, want := range map[string]int{"users": 1, "sites": 1, "domains": 2, "categories": 1, "items": 1} {
		if got := count(t, db, table); got != want {
			t.Errorf("%s rows = %d, want %d", table, got, want)
		}
	}

	r := tenant.NewResolver(st, nil, tenant.Options{})
	b, err := r.Resolve(context.Background(), "1DUN.net:443")
	if err != nil || b == nil {
		t.Fatalf("Resolve = %v, %v", b, err)
	}
	if b.SiteID() != first.SiteID || b.Site.String("site_slug") != "1dun" {
		t.Fatalf("bundle site = %v", b.Site)
	}
}

// schemaWriter is an in-memory store that also describes its collections.
type schemaWriter struct {
	schema  map[string][]store.Field
	rows    map[string][]store.Record
	created map[string]store.Record
	findErr error
	nextID  int
}

func newSchemaWriter() *schemaWriter {
	return &schemaWriter{
		schema:  map[string][]store.Field{},
		rows:    map[string][]store.Record{},
		created: map[string]store.Record{},
	}
}

func (w *schemaWriter) Fields(_ context.Context, c string) ([]store.Field, error) {
	return w.schema[c], nil
}

func matches(r store.Record, f store.Filter) bool {
	switch f.Op() {
	case store.OpEq:
		return r.String(f.Field()) == f.Value()
	case store.OpAnd:
		for _, t := range f.Terms() {
			if !matches(r, t) {
				return false
			}
		}
		return true
	}
	return false
}

func (w *schemaWriter) FindFirst(_ context.Context, c string, f store.Filter, _ store.FindOptions) (store.Record, error) {
	if w.findErr != nil {
		return nil, w.findErr
	}
	for _, r := range w.rows[c] {
		if matches(r, f) {
			return r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (w *schemaWriter) List(context.Context, string, int, int, store.ListOptions) (store.ListResult, error) {
	return store.ListResult{}, nil
}

func (w *schemaWriter) Create(_ context.Context, c string, rec store.Record) (store.Record, error) {
	w.nextID++
	rec["id"] = c + "-" + string(rune('0'+w.nextID))
	w.rows[c] = append(w.rows[c], rec)
	w.created[c] = rec
	return rec, nil
}

func (w *schemaWriter) Update(_ context.Context, c, id string, rec store.Record) (store.Record, error) {
	for _, r := range w.rows[c] {
		if r.ID() == id {
			for k, v := range rec {
				r[k] = v
			}
			return r, nil
		}
	}
	return nil, store.ErrNotFound
}

func TestRunFillsRequiredFromSchema(t *testing.T) {
	w := newSchemaWriter()
	w.schema[UsersCollection] = []store.Field{
		{Name: "email", Type: "email", Required: true},
		{Name: "password", Type: "text", Required: true},
		{Name: "name", Type: "text"},
	}
	w.schema[SitesCollection] = []store.Field{
		{Name: "id", Type: "text", Required: true, System: true},
		{Name: "owner", Type: "relation", Required: true},
		{Name: "site_slug", Type: "text", Required: true},
		{Name: "plan", Type: "select", Required: true, Values: []string{"free", "pro"}},
		{Name: "tagline", Type: "text", Required: true},
		{Name: "rank", Type: "number", Required: true},
		{Name: "public", Type: "bool", Required: true},
		{Name: "launched", Type: "date", Required: true},
	}
	w.schema[DomainsCollection] = []store.Field{
		{Name: "hostname", Type: "text", Required: true},
		{Name: "site", Type: "relation", Required: true},
	}
	w.schema[CategoriesCollection] = []store.Field{
		{Name: "site", Type: "relation", Required: true},
		{Name: "slug", Type: "text"},
		{Name: "title", Type: "text"},
	}
	w.schema[ItemsCollection] = []store.Field{
		{Name: "site", Type: "relation", Required: true},
		{Name: "category", Type: "relation", Required: true},
		{Name: "slug", Type: "text"},
	}

	s := New(w, nil)
	s.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	f, _ := Default()
	res, err := s.Run(context.Background(), f)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	user := w.created[UsersCollection]
	if user.String("passwordConfirm") != "seed-1dun-password" {
		t.Errorf("passwordConfirm not sent: %v", user)
	}

	site := w.created[SitesCollection]
	if site.String("owner") != res.OwnerID || site.String("plan") != "free" || site.String("tagline") != "seed-tagline" {
		t.Errorf("site = %v", site)
	}
	if site["rank"] != 0 || site["public"] != false || site.String("launched") != "2024-01-02T03:04:05Z" {
		t.Errorf("site placeholders = %v", site)
	}
	if _, ok := site["title"]; ok {
		t.Errorf("unknown field title was sent: %v", site)
	}
	if _, ok := site["id"]; !ok || site.ID() == "" {
		t.Errorf("site id missing: %v", site)
	}

	item := w.created[ItemsCollection]
	if item.String("category") != res.CategoryID || item.String("site") != res.SiteID {
		t.Errorf("item = %v", item)
	}
}

func TestRunMissingRequired(t *testing.T) {
	w := newSchemaWriter()
	w.schema[UsersCollection] = []store.Field{
		{Name: "email", Type: "email", Required: true},
		{Name: "avatar", Type: "file", Required: true},
	}
	f, _ := Default()
	if _, err := New(w, nil).Run(context.Background(), f); !errors.Is(err, ErrMissingRequired) {
		t.Fatalf("err = %v, want ErrMissingRequired", err)
	}
}

func TestRunLookupFailureAborts(t *testing.T) {
	w := newSchemaWriter()
	w.findErr = errors.New("boom")
	f, _ := Default()
	if _, err := New(w, nil).Run(context.Background(), f); err == nil || len(w.created) != 0 {
		t.Fatalf("err = %v, created = %v", err, w.created)
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Welcome to 1dun":     "welcome-to-1dun",
		"  Hello,   World!  ": "hello-world",
		"Café -- Crème":       "caf-cr-me",
		"---":                 "",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
	if got := Slugify(strings.Repeat("a", 120)); len(got) != maxSlug {
		t.Errorf("long slug length = %d, want %d", len(got), maxSlug)
	}
}

func TestParseDerivesSlugs(t *testing.T) {
	f, err := Parse([]byte(`
owner: {email: a@b.c}
site: {name: Acme News}
domains: [acme.test]
category: {title: Road Runners}
item: {title: "Anvils: a history"}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Site.Slug != "acme-news" || f.Category.Slug != "road-runners" || f.Item.Slug != "anvils-a-history" {
		t.Fatalf("slugs = %q %q %q", f.Site.Slug, f.Category.Slug, f.Item.Slug)
	}
}

func TestSeededSiteServesContent(t *testing.T) {
	_, st := openSQLite(t)
	f, _ := Default()
	ctx := context.Background()
	if _, err := New(st, nil).Run(ctx, f); err != nil {
		t.Fatalf("Run: %v", err)
	}

	b, err := tenant.NewResolver(st, nil, tenant.Options{}).Resolve(ctx, "1dun.co")
	if err != nil || b == nil {
		t.Fatalf("Resolve = %v, %v", b, err)
	}

	p := content.NewFetcher(st, nil).Load(ctx, b.SiteID(), 12)
	if len(p.Categories) != 1 || p.Categories[0].String("slug") != "general" {
		t.Fatalf("categories = %v, want exactly general", p.Categories)
	}
	if len(p.Items) != 1 || p.Items[0].String("slug") != "welcome" {
		t.Fatalf("items = %v, want exactly welcome", p.Items)
	}

	home := site.NewHome(b.Host, b.Site, p)
	if len(home.Categories) != 1 || home.Categories[0].Label != "General" {
		t.Fatalf("home categories = %+v", home.Categories)
	}
	if len(home.Items) != 1 || home.Items[0].Title != "Welcome to 1dun" {
		t.Fatalf("home items = %+v", home.Items)
	}
}
