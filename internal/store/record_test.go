package store

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestRecordString(t *testing.T) {
	r := Record{
		"id":    "abc",
		"count": float64(3),
		"big":   int64(42),
		"raw":   []byte("bytes"),
		"flag":  true,
		"null":  nil,
	}
	checks := map[string]string{
		"id": "abc", "count": "3", "big": "42", "raw": "bytes", "flag": "true", "null": "", "missing": "",
	}
	for field, want := range checks {
		if got := r.String(field); got != want {
			t.Errorf("String(%q) = %q, want %q", field, got, want)
		}
	}
	if r.ID() != "abc" {
		t.Errorf("ID() = %q", r.ID())
	}
}

func TestRecordFirstNonEmpty(t *testing.T) {
	r := Record{"name": "  ", "title": "Title", "id": "x"}
	if got := r.FirstNonEmpty("name", "title", "id"); got != "Title" {
		t.Fatalf("got %q, want Title", got)
	}
	if got := r.FirstNonEmpty("missing"); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}

func TestRecordTime(t *testing.T) {
	r := Record{
		"pb":    "2025-06-05 10:11:12.345Z",
		"rfc":   "2025-06-05T10:11:12Z",
		"date":  "2025-06-05",
		"bad":   "not a date",
		"typed": time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC),
	}
	for _, f := range []string{"pb", "rfc", "date", "typed"} {
		got, ok := r.Time(f)
		if !ok || got.Year() != 2025 || got.Month() != time.June || got.Day() != 5 {
			t.Errorf("Time(%q) = (%v, %v)", f, got, ok)
		}
	}
	if _, ok := r.Time("bad"); ok {
		t.Errorf("Time(bad) parsed")
	}
	if _, ok := r.Time("missing"); ok {
		t.Errorf("Time(missing) parsed")
	}
}

func TestRecordExpanded(t *testing.T) {
	// JSON-decoded shape.
	r := Record{"expand": map[string]any{"site": map[string]any{"id": "s1"}}}
	site, ok := r.Expanded("site")
	if !ok || site.ID() != "s1" {
		t.Fatalf("Expanded(site) = (%v, %v)", site, ok)
	}

	// Relation present but empty.
	r = Record{"expand": map[string]any{"site": map[string]any{}}}
	if _, ok := r.Expanded("site"); ok {
		t.Fatalf("empty relation reported as expanded")
	}

	// SQL-backend shape.
	r = Record{}
	r.SetExpanded("site", Record{"id": "s2"})
	if site, ok := r.Expanded("site"); !ok || site.ID() != "s2" {
		t.Fatalf("SetExpanded round trip = (%v, %v)", site, ok)
	}
	if _, ok := r.Expanded("owner"); ok {
		t.Fatalf("unknown relation reported as expanded")
	}
}

func TestResponseErrorIs(t *testing.T) {
	if !errors.Is(&ResponseError{Status: http.StatusUnauthorized}, ErrUnauthorized) {
		t.Fatalf("401 is not ErrUnauthorized")
	}
	if errors.Is(&ResponseError{Status: http.StatusNotFound}, ErrNotFound) {
		t.Fatalf("404 must not mean record not found")
	}
}

type pagedStore struct {
	total int
	calls int
}

func (p *pagedStore) FindFirst(context.Context, string, Filter, FindOptions) (Record, error) {
	return nil, ErrNotFound
}

func (p *pagedStore) List(_ context.Context, _ string, page, perPage int, opts ListOptions) (ListResult, error) {
	p.calls++
	if !opts.SkipTotal {
		return ListResult{}, errors.New("FullList must skip totals")
	}
	start := (page - 1) * perPage
	var items []Record
	for i := start; i < p.total && i < start+perPage; i++ {
		items = append(items, Record{"id": i})
	}
	return ListResult{Page: page, PerPage: perPage, Items: items}, nil
}

func TestFullList(t *testing.T) {
	s := &pagedStore{total: 7}
	got, err := FullList(context.Background(), s, "categories", 3, ListOptions{})
	if err != nil {
		t.Fatalf("FullList: %v", err)
	}
	if len(got) != 7 || s.calls != 3 {
		t.Fatalf("len = %d calls = %d, want 7 and 3", len(got), s.calls)
	}

	s = &pagedStore{total: 6}
	got, _ = FullList(context.Background(), s, "categories", 3, ListOptions{})
	if len(got) != 6 || s.calls != 3 {
		t.Fatalf("exact multiple: len = %d calls = %d, want 6 and 3", len(got), s.calls)
	}
}
