package store

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Op identifies a Filter node.
type Op int

const (
	OpNone Op = iota
	OpEq
	OpAnd
	OpOr
)

// Filter is a small boolean expression over field equality.  Build it with
// Eq, And, and Or; backends render it.  The zero value matches everything.
type Filter struct {
	op    Op
	field string
	value string
	terms []Filter
}

// Eq matches records whose field equals value.
func Eq(field, value string) Filter { return Filter{op: OpEq, field: field, value: value} }

// And matches when every term matches.  Zero terms are dropped.
func And(terms ...Filter) Filter { return group(OpAnd, terms) }

// Or matches when any term matches.  Zero terms are dropped.
func Or(terms ...Filter) Filter { return group(OpOr, terms) }

func group(op Op, terms []Filter) Filter {
	kept := make([]Filter, 0, len(terms))
	for _, t := range terms {
		if !t.IsZero() {
			kept = append(kept, t)
		}
	}
	switch len(kept) {
	case 0:
		return Filter{}
	case 1:
		return kept[0]
	}
	return Filter{op: op, terms: kept}
}

// IsZero reports whether f is the empty filter.
func (f Filter) IsZero() bool { return f.op == OpNone }

// Op returns the node kind.
func (f Filter) Op() Op { return f.op }

// Field returns the compared field of an OpEq node.
func (f Filter) Field() string { return f.field }

// Value returns the compared value of an OpEq node.
func (f Filter) Value() string { return f.value }

// Terms returns the children of an OpAnd or OpOr node.
func (f Filter) Terms() []Filter { return f.terms }

// String renders f in PocketBase filter syntax.  Values are JSON-quoted, so
// an untrusted host header cannot close the literal and add clauses.
func (f Filter) String() string {
	switch f.op {
	case OpEq:
		return f.field + " = " + quote(f.value)
	case OpAnd, OpOr:
		sep := " && "
		if f.op == OpOr {
			sep = " || "
		}
		parts := make([]string, len(f.terms))
		for i, t := range f.terms {
			s := t.String()
			if t.op == OpAnd || t.op == OpOr {
				s = "(" + s + ")"
			}
			parts[i] = s
		}
		return strings.Join(parts, sep)
	default:
		return ""
	}
}

func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s) // strings always encode
	return strings.TrimSuffix(buf.String(), "\n")
}
