// Package document maps catalog entities to flat index documents.
//
// Mapping is pure and deterministic: the same entity always yields the same
// document, and a document is always replaced wholesale, never patched.
package document

import (
	"sort"
	"strconv"

	"github.com/Aman-CERP/litsearch/internal/analysis"
	"github.com/Aman-CERP/litsearch/internal/catalog"
)

// Document is one index entry: a unique id, its kind and a set of fields,
// each carrying one or more values (strings or float64).
type Document struct {
	ID     string
	Kind   catalog.Kind
	Fields map[string][]any
}

func newDocument(kind catalog.Kind, id int64) Document {
	d := Document{
		ID:     strconv.FormatInt(id, 10),
		Kind:   kind,
		Fields: make(map[string][]any),
	}
	d.Fields[analysis.FieldID] = []any{d.ID}
	d.Fields[analysis.FieldCategory] = []any{string(kind)}
	return d
}

// setString records a string value, skipping empty ones.
func (d Document) setString(field, value string) {
	if value == "" {
		return
	}
	d.Fields[field] = []any{value}
}

// setInt records a non-zero integer as a literal string.
func (d Document) setInt(field string, value int64) {
	if value == 0 {
		return
	}
	d.Fields[field] = []any{strconv.FormatInt(value, 10)}
}

// setNumber records a non-zero numeric value.
func (d Document) setNumber(field string, value int) {
	if value == 0 {
		return
	}
	d.Fields[field] = []any{float64(value)}
}

// First returns the field's first value as a string, or "".
func (d Document) First(field string) string {
	vals := d.Fields[field]
	if len(vals) == 0 {
		return ""
	}
	switch v := vals[0].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// FieldNames returns the populated field names, sorted.
func (d Document) FieldNames() []string {
	out := make([]string, 0, len(d.Fields))
	for f := range d.Fields {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Source is the value handed to bleve: single-valued fields are unwrapped,
// multi-valued ones stay slices.
func (d Document) Source() map[string]any {
	out := make(map[string]any, len(d.Fields))
	for f, vals := range d.Fields {
		if len(vals) == 1 {
			out[f] = vals[0]
			continue
		}
		out[f] = append([]any(nil), vals...)
	}
	return out
}
