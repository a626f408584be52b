// Package dialect abstracts the syntactic differences between the five SQL
// targets (PostgreSQL, MySQL, SQLite, DuckDB, BigQuery) behind one
// capability-table interface (spec §4.5). Every capability is handed a
// Writer and, where it wraps a sub-expression, an EmitFunc "emit-thunk"
// rather than a pre-rendered string — this is what lets suffix-cast
// dialects (`expr::numeric`) and function-cast dialects
// (`CAST(expr AS FLOAT64)`) share one tree walker (spec §9, glossary
// "Emit-thunk"). This package is grounded on the
// dialect.Dialect/dialect.Context pair in core/internal/dialect/dialect.go.
package dialect

import (
	"github.com/policyql/celsql/internal/ast"
)

// Writer is the minimal sink every dialect capability writes through. The
// translate package implements it as a thin wrapper over internal/buffer so
// that every write still goes through the output-length check (spec §4.3).
type Writer interface {
	WriteString(s string) error
}

// EmitFunc is a deferred sub-expression emitter: invoking it writes the
// already-translated child expression into the shared Writer. Dialect
// capabilities call these at the point in their own syntax where the child
// belongs, instead of receiving a pre-rendered string.
type EmitFunc func() error

// Dialect is the capability bundle the translator drives for every
// syntactic choice (spec §4.5). There is one concrete implementation per
// target: postgres.go, mysql.go, sqlite.go, duckdb.go, bigquery.go.
type Dialect interface {
	Name() string

	// Identifiers and placeholders.
	QuoteIdentifier(name string) string
	BindVar(ordinal int) string

	// Inline-mode literal formatting. String literals are dialect-
	// independent (single-quoted, '\'' doubled) and are handled entirely by
	// internal/param; everything else varies by dialect (spec §4.4).
	NullLiteral() string
	BoolLiteral(v bool) string
	BytesLiteral(b []byte) string
	TimestampLiteral(rfc3339 string) string
	DurationLiteral(celDuration string) string

	// Operators. Comparison/arithmetic symbols are ANSI in the common case;
	// a dialect overrides only what it must (e.g. BigQuery rejects infix %).
	CompareOp(op ast.BinaryOp) (string, error)
	ArithOp(op ast.BinaryOp) (string, error)
	Concat(w Writer, left, right EmitFunc) error

	// Temporal arithmetic and component accessors (spec §4.5 "Temporal").
	TemporalAdd(w Writer, ts, dur EmitFunc, negate bool) error
	TemporalDiff(w Writer, a, b EmitFunc) error
	TemporalComponent(w Writer, receiver EmitFunc, component TemporalComponent) error

	// String ops.
	Contains(w Writer, subject, needle EmitFunc) error
	StartsWith(w Writer, subject, prefix EmitFunc) error
	EndsWith(w Writer, subject, suffix EmitFunc) error
	StringLength(w Writer, subject EmitFunc) error
	Split(w Writer, subject, sep EmitFunc) error
	Join(w Writer, list, sep EmitFunc) error

	// Array ops.
	ArrayLength(w Writer, subject EmitFunc) error
	ArrayLiteral(w Writer, elemType string, elems []EmitFunc) error
	ArrayContains(w Writer, haystack, needle EmitFunc) error
	// ArrayElement renders `receiver[index]` (CEL's integer Index node, spec
	// §6.1) using whichever convention the dialect already uses for arrays:
	// native 1-based subscripting (PostgreSQL, DuckDB), 0-based OFFSET()
	// (BigQuery), or a JSON path step (MySQL, SQLite, whose array columns are
	// JSON-represented). scalarExtract mirrors JSONPathStep's flag for the
	// JSON-backed dialects; it is ignored where array access is native.
	ArrayElement(w Writer, receiver, index EmitFunc, scalarExtract bool) error
	// Unnest writes the FROM-clause fragment iterating source under alias
	// and returns the expression text that refers to one element inside
	// the loop body (spec §4.6.5: UNNEST on PG/DuckDB/BigQuery, JSON_TABLE
	// on MySQL, json_each on SQLite — each exposes the element differently).
	Unnest(w Writer, source EmitFunc, alias string) (elementRef string, err error)
	// ElementRef returns, without writing anything, the same text Unnest
	// would return for alias. Callers that must reference the loop element
	// inside a SELECT list rendered *before* the FROM clause (every
	// AggregateList implementation in this package renders SELECT first)
	// need this text before Unnest actually runs.
	ElementRef(alias string) string
	// AggregateList renders the full `map`/`filter` macro shape: an array-
	// typed result built from a per-element select/from/where, using
	// whatever array-construction primitive the dialect has (ARRAY(SELECT
	// ...) vs JSON_ARRAYAGG(...)).
	AggregateList(w Writer, selectList, from, where EmitFunc) error

	// JSON ops.
	JSONPathStep(w Writer, receiver EmitFunc, path []string, scalarExtract bool, binary bool) error
	// JSONKeyExists renders a key-existence test if the dialect has one
	// natively; ok is false when the dialect has no such operator and the
	// translator must fall back to an `IS NOT NULL` check on the extracted
	// path instead (spec §4.6.4).
	JSONKeyExists(w Writer, receiver EmitFunc, path []string, binary bool) (ok bool, err error)
	JSONToNumeric(w Writer, receiver EmitFunc) error
	// JSONArrayLength renders the length of a JSON-represented array reached
	// via a JSON path (spec §4.6.6's "JSON array → JSON array length" case,
	// distinct from ArrayLength which targets a schema-typed array column).
	JSONArrayLength(w Writer, receiver EmitFunc, binary bool) error

	// Casts (spec §6.1's enumerated cast set).
	Cast(w Writer, target ast.LiteralKind, operand EmitFunc) error

	// Regex. pattern is RE2/CEL syntax; the dialect translates it to its
	// native flavor or returns a RegexUnsupported-flavored error.
	WriteMatches(w Writer, subject EmitFunc, pattern string, caseInsensitive bool) error
}

// TemporalComponent enumerates CEL's timestamp accessor methods (spec §4.5).
type TemporalComponent int

const (
	ComponentYear TemporalComponent = iota
	ComponentMonth
	ComponentDayOfMonth
	ComponentHours
	ComponentMinutes
	ComponentSeconds
)
