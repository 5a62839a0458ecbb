// internal/store/sqlstore/sqlstore.go
//
// SQL mirror of the record store.
//
// Context
// -------
// Local runs, integration tests, and operators who export PocketBase into a
// relational database can point the front door at plain tables instead of
// the REST API.  Each collection is a table of the same name with an `id`
// primary key; relation columns hold the related row id.
//
// Workflow
// --------
//  1. Filter and sort are rendered into a parameterised WHERE and ORDER BY.
//  2. `SELECT *` is scanned into store.Record maps.
//  3. Each requested expand follows Relations (field → table) by id.
//
// Notes
// -----
//   - Identifiers are never quoted, they are validated.  Values always
//     travel as bind parameters, rebound for the driver's placeholder style.
//   - Oxford commas, two spaces after periods.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/frontdoor/internal/metrics"
	"github.com/yanizio/frontdoor/internal/store"
)

// DefaultRelations maps relation fields to the tables they point at.
var DefaultRelations = map[string]string{
	"site":     "sites",
	"category": "categories",
	"owner":    "users",
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ErrBadIdentifier is returned for table, column, or sort names that are
// not plain identifiers.
var ErrBadIdentifier = errors.New("sqlstore: invalid identifier")

// Options configures a Store.
type Options struct {
	Relations map[string]string // default DefaultRelations
	Logger    *zap.SugaredLogger
	Now       func() time.Time // stamps created/updated on writes
}

// Store implements store.Store over sqlx.
type Store struct {
	db        *sqlx.DB
	relations map[string]string
	log       *zap.SugaredLogger
	now       func() time.Time
}

var _ store.Writer = (*Store)(nil)

// New wraps db.
func New(db *sqlx.DB, opts Options) *Store {
	s := &Store{db: db, relations: opts.Relations, log: opts.Logger, now: opts.Now}
	if s.relations == nil {
		s.relations = DefaultRelations
	}
	if s.log == nil {
		s.log = zap.NewNop().Sugar()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func ident(name string) (string, error) {
	if !identRe.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrBadIdentifier, name)
	}
	return name, nil
}

// where renders f as a WHERE body plus its bind values.
func where(f store.Filter) (string, []any, error) {
	switch f.Op() {
	case store.OpNone:
		return "", nil, nil
	case store.OpEq:
		col, err := ident(f.Field())
		if err != nil {
			return "", nil, err
		}
		return col + " = ?", []any{f.Value()}, nil
	case store.OpAnd, store.OpOr:
		sep := " AND "
		if f.Op() == store.OpOr {
			sep = " OR "
		}
		var (
			parts []string
			args  []any
		)
		for _, t := range f.Terms() {
			clause, a, err := where(t)
			if err != nil {
				return "", nil, err
			}
			if t.Op() == store.OpAnd || t.Op() == store.OpOr {
				clause = "(" + clause + ")"
			}
			parts = append(parts, clause)
			args = append(args, a...)
		}
		return strings.Join(parts, sep), args, nil
	}
	return "", nil, fmt.Errorf("sqlstore: unknown filter op %d", f.Op())
}

// orderBy renders "name,-created" as "name ASC, created DESC".
func orderBy(spec string) (string, error) {
	if strings.TrimSpace(spec) == "" {
		return "", nil
	}
	var parts []string
	for _, term := range strings.Split(spec, ",") {
		term = strings.TrimSpace(term)
		dir := "ASC"
		switch {
		case strings.HasPrefix(term, "-"):
			dir, term = "DESC", term[1:]
		case strings.HasPrefix(term, "+"):
			term = term[1:]
		}
		col, err := ident(term)
		if err != nil {
			return "", err
		}
		parts = append(parts, col+" "+dir)
	}
	return strings.Join(parts, ", "), nil
}

// List fetches one page of rows.
func (s *Store) List(ctx context.Context, collection string, page, perPage int, opts store.ListOptions) (res store.ListResult, err error) {
	defer func() { metrics.StoreRequests.WithLabelValues("sql", "list", metrics.Outcome(err)).Inc() }()

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 30
	}
	table, err := ident(collection)
	if err != nil {
		return store.ListResult{}, err
	}
	cond, args, err := where(opts.Filter)
	if err != nil {
		return store.ListResult{}, err
	}
	order, err := orderBy(opts.Sort)
	if err != nil {
		return store.ListResult{}, err
	}

	q := "SELECT * FROM " + table
	if cond != "" {
		q += " WHERE " + cond
	}
	if order != "" {
		q += " ORDER BY " + order
	}
	q += " LIMIT ? OFFSET ?"

	items, err := s.query(ctx, q, append(args, perPage, (page-1)*perPage)...)
	if err != nil {
		return store.ListResult{}, fmt.Errorf("sqlstore: list %s: %w", table, err)
	}
	for _, rec := range items {
		if err := s.expand(ctx, rec, opts.Expand); err != nil {
			return store.ListResult{}, err
		}
	}

	res = store.ListResult{Page: page, PerPage: perPage, TotalItems: -1, TotalPages: -1, Items: items}
	if !opts.SkipTotal {
		cq := "SELECT COUNT(*) FROM " + table
		if cond != "" {
			cq += " WHERE " + cond
		}
		var total int
		if err := s.db.GetContext(ctx, &total, s.db.Rebind(cq), args...); err != nil {
			return store.ListResult{}, fmt.Errorf("sqlstore: count %s: %w", table, err)
		}
		res.TotalItems = total
		res.TotalPages = (total + perPage - 1) / perPage
	}
	return res, nil
}

// FindFirst returns the first matching row, or store.ErrNotFound.
func (s *Store) FindFirst(ctx context.Context, collection string, filter store.Filter, opts store.FindOptions) (store.Record, error) {
	res, err := s.List(ctx, collection, 1, 1, store.ListOptions{Filter: filter, Expand: opts.Expand, SkipTotal: true})
	if err != nil {
		return nil, err
	}
	if len(res.Items) == 0 {
		return nil, store.ErrNotFound
	}
	return res.Items[0], nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]store.Record, error) {
	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(q), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []store.Record{}
	for rows.Next() {
		m := map[string]any{}
		if err := rows.MapScan(m); err != nil {
			return nil, err
		}
		for k, v := range m {
			if b, ok := v.([]byte); ok {
				m[k] = string(b)
			}
		}
		out = append(out, store.Record(m))
	}
	return out, rows.Err()
}

// expand loads each requested relation by id.  Unknown relations and
// dangling ids leave the record unexpanded.
func (s *Store) expand(ctx context.Context, rec store.Record, fields []string) error {
	for _, field := range fields {
		table, ok := s.relations[field]
		if !ok {
			continue
		}
		id := rec.String(field)
		if id == "" {
			continue
		}
		rows, err := s.query(ctx, "SELECT * FROM "+table+" WHERE id = ? LIMIT 1", id)
		if err != nil {
			return fmt.Errorf("sqlstore: expand %s: %w", field, err)
		}
		if len(rows) == 0 {
			s.log.Debugw("dangling relation", "field", field, "id", id)
			continue
		}
		rec.SetExpanded(field, rows[0])
	}
	return nil
}

// Create inserts rec, filling id, created, and updated when absent.
func (s *Store) Create(ctx context.Context, collection string, rec store.Record) (out store.Record, err error) {
	defer func() { metrics.StoreRequests.WithLabelValues("sql", "create", metrics.Outcome(err)).Inc() }()

	table, err := ident(collection)
	if err != nil {
		return nil, err
	}
	row := clean(rec)
	if row.ID() == "" {
		row["id"] = strings.ReplaceAll(uuid.NewString(), "-", "")[:15]
	}
	stamp := s.now().UTC().Format("2006-01-02 15:04:05.000Z")
	if _, ok := row["created"]; !ok {
		row["created"] = stamp
	}
	if _, ok := row["updated"]; !ok {
		row["updated"] = stamp
	}

	cols, args, err := columns(row)
	if err != nil {
		return nil, err
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	q := "INSERT INTO " + table + " (" + strings.Join(cols, ", ") + ") VALUES (" + marks + ")"
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("sqlstore: insert %s: %w", table, err)
	}
	return row, nil
}

// Update patches the row with id and returns the stored copy.
func (s *Store) Update(ctx context.Context, collection, id string, rec store.Record) (out store.Record, err error) {
	defer func() { metrics.StoreRequests.WithLabelValues("sql", "update", metrics.Outcome(err)).Inc() }()

	table, err := ident(collection)
	if err != nil {
		return nil, err
	}
	row := clean(rec)
	delete(row, "id")
	row["updated"] = s.now().UTC().Format("2006-01-02 15:04:05.000Z")

	cols, args, err := columns(row)
	if err != nil {
		return nil, err
	}
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = c + " = ?"
	}
	q := "UPDATE " + table + " SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	r, err := s.db.ExecContext(ctx, s.db.Rebind(q), append(args, id)...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: update %s: %w", table, err)
	}
	if n, err := r.RowsAffected(); err == nil && n == 0 {
		return nil, store.ErrNotFound
	}

	rows, err := s.query(ctx, "SELECT * FROM "+table+" WHERE id = ? LIMIT 1", id)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: reload %s: %w", table, err)
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound
	}
	return rows[0], nil
}

// clean copies rec without the expand block.
func clean(rec store.Record) store.Record {
	row := make(store.Record, len(rec))
	for k, v := range rec {
		if k != store.ExpandKey {
			row[k] = v
		}
	}
	return row
}

func columns(row store.Record) ([]string, []any, error) {
	cols := make([]string, 0, len(row))
	for k := range row {
		if _, err := ident(k); err != nil {
			return nil, nil, err
		}
		cols = append(cols, k)
	}
	sort.Strings(cols)
	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = sqlValue(row[c])
	}
	return cols, args, nil
}

func sqlValue(v any) any {
	switch t := v.(type) {
	case bool:
		if t {
			return 1
		}
		return 0
	case time.Time:
		return t.UTC().Format("2006-01-02 15:04:05.000Z")
	case nil:
		return sql.NullString{}
	default:
		return v
	}
}
