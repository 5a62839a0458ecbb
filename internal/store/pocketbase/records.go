package pocketbase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/yanizio/frontdoor/internal/store"
)

// List fetches one page of records.
func (c *Client) List(ctx context.Context, collection string, page, perPage int, opts store.ListOptions) (store.ListResult, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 30
	}

	q := url.Values{}
	q.Set("page", itoa(page))
	q.Set("perPage", itoa(perPage))
	if opts.Sort != "" {
		q.Set("sort", opts.Sort)
	}
	if f := opts.Filter.String(); f != "" {
		q.Set("filter", f)
	}
	if len(opts.Expand) > 0 {
		q.Set("expand", strings.Join(opts.Expand, ","))
	}
	if opts.SkipTotal {
		q.Set("skipTotal", "1")
	}

	var res store.ListResult
	if err := c.do(ctx, "list", http.MethodGet, recordsPath(collection), q, nil, &res); err != nil {
		return store.ListResult{}, err
	}
	if res.Items == nil {
		res.Items = []store.Record{}
	}
	return res, nil
}

// FindFirst returns the first record matching filter, or store.ErrNotFound.
func (c *Client) FindFirst(ctx context.Context, collection string, filter store.Filter, opts store.FindOptions) (store.Record, error) {
	res, err := c.List(ctx, collection, 1, 1, store.ListOptions{
		Filter:    filter,
		Expand:    opts.Expand,
		SkipTotal: true,
	})
	if err != nil {
		return nil, err
	}
	if len(res.Items) == 0 {
		return nil, store.ErrNotFound
	}
	return res.Items[0], nil
}

// Create inserts a record and returns the stored copy.
func (c *Client) Create(ctx context.Context, collection string, rec store.Record) (store.Record, error) {
	var out store.Record
	if err := c.do(ctx, "create", http.MethodPost, recordsPath(collection), nil, rec, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update patches the record with id and returns the stored copy.
func (c *Client) Update(ctx context.Context, collection, id string, rec store.Record) (store.Record, error) {
	var out store.Record
	path := recordsPath(collection) + "/" + url.PathEscape(id)
	if err := c.do(ctx, "update", http.MethodPatch, path, nil, rec, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// schemaField covers both the current "fields" layout and the legacy
// "schema" layout whose select values sit under options.
type schemaField struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	System   bool     `json:"system"`
	Values   []string `json:"values"`
	Options  struct {
		Values []string `json:"values"`
	} `json:"options"`
}

// Fields returns the collection schema.
func (c *Client) Fields(ctx context.Context, collection string) ([]store.Field, error) {
	var out struct {
		Fields []schemaField `json:"fields"`
		Schema []schemaField `json:"schema"`
	}
	path := "/api/collections/" + url.PathEscape(collection)
	if err := c.do(ctx, "schema", http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}

	raw := out.Fields
	if len(raw) == 0 {
		raw = out.Schema
	}
	fields := make([]store.Field, 0, len(raw))
	for _, f := range raw {
		vals := f.Values
		if len(vals) == 0 {
			vals = f.Options.Values
		}
		fields = append(fields, store.Field{
			Name: f.Name, Type: f.Type, Required: f.Required, System: f.System, Values: vals,
		})
	}
	return fields, nil
}

// String implements fmt.Stringer for log fields.
func (c *Client) String() string { return fmt.Sprintf("pocketbase(%s)", c.base) }
