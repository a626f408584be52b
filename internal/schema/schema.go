// Package schema implements the read-only Schema Registry the translator
// consults to decide whether a field reference is a plain column, a JSON
// path, or an array (spec §3.2, §4.2).
package schema

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// foldCaser lower-cases identifiers for dialects that treat table/column
// names case-insensitively (e.g. MySQL on a case-insensitive filesystem),
// from the same golang.org/x/text/cases package cmd/celsql uses (as
// cases.Title) for dialect names.
var foldCaser = cases.Lower(language.English)

// FieldKind classifies how a column is stored and therefore how the
// translator must lower references to it.
type FieldKind int

const (
	// KindScalar is an ordinary SQL column.
	KindScalar FieldKind = iota
	// KindJSON is a JSON/JSONB column; FieldSelect chains rooted here switch
	// to JSON-path mode (spec §4.6.3).
	KindJSON
	// KindArray is a native array column; further member access outside of
	// a macro (exists/all/...) is an error (spec §4.6.3).
	KindArray
)

func (k FieldKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindJSON:
		return "json"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Field carries the metadata the translator needs about one column.
type Field struct {
	Name string
	Kind FieldKind

	// JSONBinary is true when a KindJSON field is stored as binary JSON
	// (e.g. PostgreSQL JSONB vs. plain JSON), affecting which path operator
	// a dialect selects (spec §3.2).
	JSONBinary bool

	// ElementType is the SQL element type for a KindArray field, e.g.
	// "integer" or "text" (spec §3.2).
	ElementType string

	// Computed marks a field backed by a generated/computed column rather
	// than raw storage. The translator reads it only for KindScalar fields,
	// where it permits further field/index access past the column; a field
	// of another Kind is lowered by its Kind whatever this flag says. The
	// index advisor does not read it.
	Computed bool
}

// Table is an ordered collection of fields for one SQL table.
type Table struct {
	Name   string
	Fields []Field

	// foldCase is set by a case-folding Registry so Field lookups on this
	// Table inherit the registry's case sensitivity even once the Table
	// value has been copied out of it.
	foldCase bool
}

// Field looks up a field by name. Lookups are case-sensitive unless this
// Table came from a case-folding Registry (NewRegistryFoldCase). The bool
// result is false on a miss; it is not an error (spec §4.2) — callers
// degrade to treating the reference as a plain column.
func (t Table) Field(name string) (Field, bool) {
	if t.foldCase {
		name = foldCaser.String(name)
	}
	for _, f := range t.Fields {
		fname := f.Name
		if t.foldCase {
			fname = foldCaser.String(fname)
		}
		if fname == name {
			return f, true
		}
	}
	return Field{}, false
}

// Registry is the immutable, request-scoped mapping from table name to
// Table (spec §3.2). The zero value is a valid, empty registry.
type Registry struct {
	tables   map[string]Table
	foldCase bool
}

// NewRegistry builds a Registry from a set of tables. Tables are indexed by
// Name; duplicate names overwrite earlier entries in iteration order.
// Lookups are case-sensitive; use NewRegistryFoldCase for dialects (e.g.
// MySQL on a case-insensitive filesystem) that treat identifiers
// case-insensitively.
func NewRegistry(tables ...Table) *Registry {
	return newRegistry(tables, false)
}

// NewRegistryFoldCase builds a Registry whose Table and Field lookups fold
// case, the way MySQL's default table-name comparison does on
// case-insensitive filesystems.
func NewRegistryFoldCase(tables ...Table) *Registry {
	return newRegistry(tables, true)
}

func newRegistry(tables []Table, foldCase bool) *Registry {
	r := &Registry{tables: make(map[string]Table, len(tables)), foldCase: foldCase}
	for _, t := range tables {
		t.foldCase = foldCase
		key := t.Name
		if foldCase {
			key = foldCaser.String(key)
		}
		r.tables[key] = t
	}
	return r
}

// Table looks up a table by name (spec §4.2), folding case when the
// Registry was built with NewRegistryFoldCase.
func (r *Registry) Table(name string) (Table, bool) {
	if r == nil {
		return Table{}, false
	}
	if r.foldCase {
		name = foldCaser.String(name)
	}
	t, ok := r.tables[name]
	return t, ok
}

// Len reports how many tables are registered, mainly for diagnostics.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.tables)
}
