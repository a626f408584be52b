package dialect

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/policyql/celsql/internal/ast"
)

// SQLiteDialect targets SQLite 3.38+ (built-in JSON functions). Grounded on
// core/internal/dialect/sqlite.go.
type SQLiteDialect struct{}

var _ Dialect = (*SQLiteDialect)(nil)

func (d *SQLiteDialect) Name() string { return "sqlite" }

func (d *SQLiteDialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d *SQLiteDialect) BindVar(ordinal int) string { return "?" }

func (d *SQLiteDialect) NullLiteral() string { return "NULL" }

func (d *SQLiteDialect) BoolLiteral(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func (d *SQLiteDialect) BytesLiteral(b []byte) string {
	return "X'" + hex.EncodeToString(b) + "'"
}

// SQLite has no native timestamp type; values are stored as ISO-8601 text
// and compared lexicographically, which is valid for RFC3339 UTC strings.
func (d *SQLiteDialect) TimestampLiteral(rfc3339 string) string {
	return "'" + rfc3339 + "'"
}

// SQLite has no duration type either; durations are stored/compared as a
// plain seconds count, used with datetime()'s `+N seconds` modifiers.
func (d *SQLiteDialect) DurationLiteral(celDuration string) string {
	secs, err := celDurationSeconds(celDuration)
	if err != nil {
		return "0"
	}
	return fmt.Sprintf("%g", secs)
}

func (d *SQLiteDialect) CompareOp(op ast.BinaryOp) (string, error) { return defaultCompareOp(op) }
func (d *SQLiteDialect) ArithOp(op ast.BinaryOp) (string, error)   { return defaultArithOp(op) }

func (d *SQLiteDialect) Concat(w Writer, left, right EmitFunc) error {
	return infix(w, left, " || ", right)
}

func (d *SQLiteDialect) TemporalAdd(w Writer, ts, dur EmitFunc, negate bool) error {
	sign := "+"
	if negate {
		sign = "-"
	}
	if err := w.WriteString("datetime("); err != nil {
		return err
	}
	if err := ts(); err != nil {
		return err
	}
	if err := w.WriteString(", '" + sign); err != nil {
		return err
	}
	if err := w.WriteString("' || ("); err != nil {
		return err
	}
	if err := dur(); err != nil {
		return err
	}
	return w.WriteString(") || ' seconds')")
}

func (d *SQLiteDialect) TemporalDiff(w Writer, a, b EmitFunc) error {
	if err := w.WriteString("(julianday("); err != nil {
		return err
	}
	if err := a(); err != nil {
		return err
	}
	if err := w.WriteString(") - julianday("); err != nil {
		return err
	}
	if err := b(); err != nil {
		return err
	}
	return w.WriteString(")) * 86400.0")
}

func (d *SQLiteDialect) TemporalComponent(w Writer, receiver EmitFunc, c TemporalComponent) error {
	format, err := sqliteStrftimeFormat(c)
	if err != nil {
		return err
	}
	if err := w.WriteString("CAST(strftime('" + format + "', "); err != nil {
		return err
	}
	if err := receiver(); err != nil {
		return err
	}
	return w.WriteString(") AS INTEGER)")
}

func sqliteStrftimeFormat(c TemporalComponent) (string, error) {
	switch c {
	case ComponentYear:
		return "%Y", nil
	case ComponentMonth:
		return "%m", nil
	case ComponentDayOfMonth:
		return "%d", nil
	case ComponentHours:
		return "%H", nil
	case ComponentMinutes:
		return "%M", nil
	case ComponentSeconds:
		return "%S", nil
	default:
		return "", fmt.Errorf("dialect: unknown temporal component %d", c)
	}
}

func (d *SQLiteDialect) Contains(w Writer, subject, needle EmitFunc) error {
	if err := w.WriteString("INSTR("); err != nil {
		return err
	}
	if err := subject(); err != nil {
		return err
	}
	if err := w.WriteString(", "); err != nil {
		return err
	}
	if err := needle(); err != nil {
		return err
	}
	return w.WriteString(") > 0")
}

func (d *SQLiteDialect) StartsWith(w Writer, subject, prefix EmitFunc) error {
	if err := subject(); err != nil {
		return err
	}
	if err := w.WriteString(" LIKE ("); err != nil {
		return err
	}
	if err := prefix(); err != nil {
		return err
	}
	return w.WriteString(" || '%')")
}

func (d *SQLiteDialect) EndsWith(w Writer, subject, suffix EmitFunc) error {
	if err := subject(); err != nil {
		return err
	}
	if err := w.WriteString(" LIKE ('%' || "); err != nil {
		return err
	}
	if err := suffix(); err != nil {
		return err
	}
	return w.WriteString(")")
}

func (d *SQLiteDialect) StringLength(w Writer, subject EmitFunc) error {
	return wrap(w, "LENGTH(", subject, ")")
}

func (d *SQLiteDialect) Split(w Writer, subject, sep EmitFunc) error {
	// No native split(); this kernel only needs Split() as a size()/join()
	// receiver, so project the first segment via SUBSTR/INSTR composition
	// mirroring the MySQL approximation. Appending the separator makes INSTR
	// find it, so a subject without one is kept whole.
	joined := func() error { return infix(w, subject, " || ", sep) }
	if err := wrap(w, "json_array(substr(", joined, ", 1, instr("); err != nil {
		return err
	}
	if err := wrap(w, "", joined, ", "); err != nil {
		return err
	}
	return wrap(w, "", sep, ") - 1))")
}

func (d *SQLiteDialect) Join(w Writer, list, sep EmitFunc) error {
	if err := w.WriteString("(SELECT GROUP_CONCAT(value, "); err != nil {
		return err
	}
	if err := sep(); err != nil {
		return err
	}
	if err := w.WriteString(") FROM json_each("); err != nil {
		return err
	}
	if err := list(); err != nil {
		return err
	}
	return w.WriteString("))")
}

func (d *SQLiteDialect) ArrayLength(w Writer, subject EmitFunc) error {
	return wrap(w, "json_array_length(", subject, ")")
}

func (d *SQLiteDialect) ArrayLiteral(w Writer, elemType string, elems []EmitFunc) error {
	if err := w.WriteString("json_array("); err != nil {
		return err
	}
	for i, e := range elems {
		if i != 0 {
			if err := w.WriteString(", "); err != nil {
				return err
			}
		}
		if err := e(); err != nil {
			return err
		}
	}
	return w.WriteString(")")
}

func (d *SQLiteDialect) ArrayContains(w Writer, haystack, needle EmitFunc) error {
	if err := w.WriteString("EXISTS (SELECT 1 FROM json_each("); err != nil {
		return err
	}
	if err := haystack(); err != nil {
		return err
	}
	if err := w.WriteString(") WHERE value = "); err != nil {
		return err
	}
	if err := needle(); err != nil {
		return err
	}
	return w.WriteString(")")
}

// ArrayElement indexes a json_each-represented array column by building the
// `$[N]` path dynamically via SQLite's `||` string concatenation.
func (d *SQLiteDialect) ArrayElement(w Writer, receiver, index EmitFunc, scalarExtract bool) error {
	if err := w.WriteString("json_extract("); err != nil {
		return err
	}
	if err := receiver(); err != nil {
		return err
	}
	if err := w.WriteString(", '$[' || ("); err != nil {
		return err
	}
	if err := index(); err != nil {
		return err
	}
	return w.WriteString(") || ']')")
}

func (d *SQLiteDialect) Unnest(w Writer, source EmitFunc, alias string) (string, error) {
	if err := w.WriteString("json_each("); err != nil {
		return "", err
	}
	if err := source(); err != nil {
		return "", err
	}
	if err := w.WriteString(") AS " + alias); err != nil {
		return "", err
	}
	return d.ElementRef(alias), nil
}

func (d *SQLiteDialect) ElementRef(alias string) string { return alias + ".value" }

func (d *SQLiteDialect) AggregateList(w Writer, selectList, from, where EmitFunc) error {
	if err := w.WriteString("(SELECT json_group_array("); err != nil {
		return err
	}
	if err := selectList(); err != nil {
		return err
	}
	if err := w.WriteString(")"); err != nil {
		return err
	}
	if err := from(); err != nil {
		return err
	}
	if where != nil {
		if err := where(); err != nil {
			return err
		}
	}
	return w.WriteString(")")
}

func (d *SQLiteDialect) JSONPathStep(w Writer, receiver EmitFunc, path []string, scalarExtract, binary bool) error {
	fn := "json_extract"
	if err := w.WriteString(fn + "("); err != nil {
		return err
	}
	if err := receiver(); err != nil {
		return err
	}
	if err := w.WriteString(", '$" + jsonPointerPath(path) + "')"); err != nil {
		return err
	}
	return nil
}

func (d *SQLiteDialect) JSONKeyExists(w Writer, receiver EmitFunc, path []string, binary bool) (bool, error) {
	// SQLite's json_extract() returns NULL both for an absent key and for a
	// key whose value is JSON null; there is no dedicated key-exists
	// operator, so the translator must fall back to IS NOT NULL (spec
	// §4.6.4's elsewhere-fallback case).
	return false, nil
}

func (d *SQLiteDialect) JSONToNumeric(w Writer, receiver EmitFunc) error {
	if err := w.WriteString("CAST("); err != nil {
		return err
	}
	if err := receiver(); err != nil {
		return err
	}
	return w.WriteString(" AS REAL)")
}

func (d *SQLiteDialect) JSONArrayLength(w Writer, receiver EmitFunc, binary bool) error {
	return wrap(w, "json_array_length(", receiver, ")")
}

func (d *SQLiteDialect) Cast(w Writer, target ast.LiteralKind, operand EmitFunc) error {
	sqlType, err := sqliteCastType(target)
	if err != nil {
		return err
	}
	if err := w.WriteString("CAST("); err != nil {
		return err
	}
	if err := operand(); err != nil {
		return err
	}
	return w.WriteString(" AS " + sqlType + ")")
}

func sqliteCastType(target ast.LiteralKind) (string, error) {
	switch target {
	case ast.KindInt, ast.KindUint:
		return "INTEGER", nil
	case ast.KindDouble:
		return "REAL", nil
	case ast.KindString, ast.KindTimestamp:
		return "TEXT", nil
	case ast.KindBool:
		return "INTEGER", nil
	case ast.KindBytes:
		return "BLOB", nil
	case ast.KindDuration:
		return "REAL", nil
	default:
		return "", fmt.Errorf("dialect: unsupported cast target %v", target)
	}
}

// WriteMatches: SQLite's REGEXP operator requires a user-registered
// function; it is never present by default, and SQLite has no built-in
// regex engine at all. Rather than silently emitting a call that only
// works when a particular extension happens to be loaded, this kernel
// treats every SQLite `matches()` as unsupported (spec §4.6.7, §9 open
// question (c): "the acceptable subset is not exhaustively enumerated" —
// this dialect takes the conservative side of that choice and enumerates
// an empty subset).
func (d *SQLiteDialect) WriteMatches(w Writer, subject EmitFunc, pattern string, caseInsensitive bool) error {
	return fmt.Errorf("sqlite: no built-in REGEXP implementation is guaranteed to be loaded")
}
