// internal/store/store.go
//
// Record-store boundary.
//
// Context
// -------
// Tenants, categories, and items live in an external record store
// (PocketBase in production, a SQL mirror for local runs and tests).  The
// rest of the code only consumes two read capabilities:
//
//   - FindFirst: first record matching a filter, optionally expanding
//     relation fields in the same round trip.
//   - List:      one ordered page of records.
//
// Backends live in sub-packages and translate Filter into their own query
// language.
//
// Notes
// -----
//   - ErrNotFound means "the query ran and matched nothing".  Every other
//     error means the answer is unknown.
//   - Oxford commas, two spaces after periods.
package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned by FindFirst when no record matches.
	ErrNotFound = errors.New("store: record not found")

	// ErrNotConfigured is returned when the backend has no base URL or DSN,
	// or has no usable admin credentials.
	ErrNotConfigured = errors.New("store: not configured")

	// ErrUnauthorized marks 401 and 403 answers from the backend.
	ErrUnauthorized = errors.New("store: unauthorized")
)

// Store is the read surface shared by every backend.
type Store interface {
	FindFirst(ctx context.Context, collection string, filter Filter, opts FindOptions) (Record, error)
	List(ctx context.Context, collection string, page, perPage int, opts ListOptions) (ListResult, error)
}

// Writer adds the write calls the seed tool needs.
type Writer interface {
	Store
	Create(ctx context.Context, collection string, rec Record) (Record, error)
	Update(ctx context.Context, collection, id string, rec Record) (Record, error)
}

// SchemaReader is implemented by backends that can describe a collection.
type SchemaReader interface {
	Fields(ctx context.Context, collection string) ([]Field, error)
}

// FindOptions tunes FindFirst.
type FindOptions struct {
	Expand []string // relation fields to load alongside the record
}

// ListOptions tunes List.
type ListOptions struct {
	Filter    Filter
	Sort      string // "name", "-created", "a,-b"
	Expand    []string
	SkipTotal bool // skip the COUNT query; TotalItems and TotalPages stay -1
}

// ListResult is one page of records.
type ListResult struct {
	Page       int      `json:"page"`
	PerPage    int      `json:"perPage"`
	TotalItems int      `json:"totalItems"`
	TotalPages int      `json:"totalPages"`
	Items      []Record `json:"items"`
}

// Field describes one column of a collection schema.  Only the seed tool
// reads schemas.
type Field struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	System   bool     `json:"system"`
	Values   []string `json:"values,omitempty"`
}

// ResponseError carries a non-2xx answer from an HTTP backend.
type ResponseError struct {
	Status  int
	Message string
	URL     string
}

func (e *ResponseError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("store: %s: status %d: %s", e.URL, e.Status, msg)
}

// Is lets callers test ResponseError against ErrUnauthorized.  A 404 is
// deliberately not ErrNotFound: it means a missing collection, not a
// missing record.
func (e *ResponseError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden)
}

// FullList pages through every record matching opts, batch records at a
// time, and stops at the first short page.
func FullList(ctx context.Context, s Store, collection string, batch int, opts ListOptions) ([]Record, error) {
	if batch <= 0 {
		batch = 500
	}
	opts.SkipTotal = true

	out := make([]Record, 0, batch)
	for page := 1; ; page++ {
		res, err := s.List(ctx, collection, page, batch, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, res.Items...)
		if len(res.Items) < batch {
			return out, nil
		}
	}
}
