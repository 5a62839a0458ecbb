package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Record is one row from the store.  Field values keep whatever type the
// backend decoded; the accessors below flatten them for display.
type Record map[string]any

// ExpandKey holds expanded relations, keyed by relation field name.
const ExpandKey = "expand"

// ID returns the record id.
func (r Record) ID() string { return r.String("id") }

// String returns field as text, or "" when it is missing or null.
func (r Record) String(field string) string {
	switch v := r[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// FirstNonEmpty returns the first field, in order, whose trimmed text is
// not empty.
func (r Record) FirstNonEmpty(fields ...string) string {
	for _, f := range fields {
		if v := strings.TrimSpace(r.String(f)); v != "" {
			return v
		}
	}
	return ""
}

// timeLayouts covers PocketBase ("2006-01-02 15:04:05.000Z"), RFC 3339, and
// plain SQL timestamps.
var timeLayouts = []string{
	"2006-01-02 15:04:05.000Z",
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Time parses field as a timestamp.
func (r Record) Time(field string) (time.Time, bool) {
	if t, ok := r[field].(time.Time); ok {
		return t, !t.IsZero()
	}
	s := strings.TrimSpace(r.String(field))
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Expanded returns the relation loaded under expand[field].  ok is false
// when the relation was not expanded or came back empty.
func (r Record) Expanded(field string) (Record, bool) {
	exp := asRecord(r[ExpandKey])
	if exp == nil {
		return nil, false
	}
	rel := asRecord(exp[field])
	if len(rel) == 0 {
		return nil, false
	}
	return rel, true
}

// SetExpanded stores rel under expand[field].
func (r Record) SetExpanded(field string, rel Record) {
	exp := asRecord(r[ExpandKey])
	if exp == nil {
		exp = Record{}
	}
	exp[field] = rel
	r[ExpandKey] = exp
}

func asRecord(v any) Record {
	switch m := v.(type) {
	case Record:
		return m
	case map[string]any:
		return Record(m)
	default:
		return nil
	}
}
