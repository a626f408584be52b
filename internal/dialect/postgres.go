package dialect

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/policyql/celsql/internal/ast"
)

// PostgresDialect targets PostgreSQL 11+. It is also the base DuckDB
// embeds (DuckDB's SQL surface is Postgres-shaped for every operator this
// kernel emits); see duckdb.go.
type PostgresDialect struct{}

var _ Dialect = (*PostgresDialect)(nil)

func (d *PostgresDialect) Name() string { return "postgresql" }

func (d *PostgresDialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d *PostgresDialect) BindVar(ordinal int) string {
	return fmt.Sprintf("$%d", ordinal)
}

func (d *PostgresDialect) NullLiteral() string { return "NULL" }

func (d *PostgresDialect) BoolLiteral(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func (d *PostgresDialect) BytesLiteral(b []byte) string {
	return `'\x` + hex.EncodeToString(b) + `'`
}

func (d *PostgresDialect) TimestampLiteral(rfc3339 string) string {
	return `TIMESTAMP WITH TIME ZONE '` + rfc3339 + `'`
}

func (d *PostgresDialect) DurationLiteral(celDuration string) string {
	secs, err := celDurationSeconds(celDuration)
	if err != nil {
		return `INTERVAL '0 seconds'`
	}
	return fmt.Sprintf(`INTERVAL '%g seconds'`, secs)
}

func (d *PostgresDialect) CompareOp(op ast.BinaryOp) (string, error) { return defaultCompareOp(op) }
func (d *PostgresDialect) ArithOp(op ast.BinaryOp) (string, error)   { return defaultArithOp(op) }

func (d *PostgresDialect) Concat(w Writer, left, right EmitFunc) error {
	return infix(w, left, " || ", right)
}

func (d *PostgresDialect) TemporalAdd(w Writer, ts, dur EmitFunc, negate bool) error {
	op := " + "
	if negate {
		op = " - "
	}
	return infix(w, ts, op, dur)
}

func (d *PostgresDialect) TemporalDiff(w Writer, a, b EmitFunc) error {
	return infix(w, a, " - ", b)
}

func (d *PostgresDialect) TemporalComponent(w Writer, receiver EmitFunc, c TemporalComponent) error {
	field, err := temporalExtractField(c)
	if err != nil {
		return err
	}
	if err := w.WriteString("EXTRACT(" + field + " FROM "); err != nil {
		return err
	}
	if err := receiver(); err != nil {
		return err
	}
	return w.WriteString(")")
}

func temporalExtractField(c TemporalComponent) (string, error) {
	switch c {
	case ComponentYear:
		return "YEAR", nil
	case ComponentMonth:
		return "MONTH", nil
	case ComponentDayOfMonth:
		return "DAY", nil
	case ComponentHours:
		return "HOUR", nil
	case ComponentMinutes:
		return "MINUTE", nil
	case ComponentSeconds:
		return "SECOND", nil
	default:
		return "", fmt.Errorf("dialect: unknown temporal component %d", c)
	}
}

func (d *PostgresDialect) Contains(w Writer, subject, needle EmitFunc) error {
	if err := subject(); err != nil {
		return err
	}
	if err := w.WriteString(" LIKE '%' || "); err != nil {
		return err
	}
	if err := needle(); err != nil {
		return err
	}
	return w.WriteString(" || '%'")
}

func (d *PostgresDialect) StartsWith(w Writer, subject, prefix EmitFunc) error {
	if err := subject(); err != nil {
		return err
	}
	if err := w.WriteString(" LIKE "); err != nil {
		return err
	}
	if err := prefix(); err != nil {
		return err
	}
	return w.WriteString(" || '%'")
}

func (d *PostgresDialect) EndsWith(w Writer, subject, suffix EmitFunc) error {
	if err := subject(); err != nil {
		return err
	}
	if err := w.WriteString(" LIKE '%' || "); err != nil {
		return err
	}
	return suffix()
}

func (d *PostgresDialect) StringLength(w Writer, subject EmitFunc) error {
	return wrap(w, "CHAR_LENGTH(", subject, ")")
}

func (d *PostgresDialect) Split(w Writer, subject, sep EmitFunc) error {
	if err := w.WriteString("STRING_TO_ARRAY("); err != nil {
		return err
	}
	if err := subject(); err != nil {
		return err
	}
	if err := w.WriteString(", "); err != nil {
		return err
	}
	if err := sep(); err != nil {
		return err
	}
	return w.WriteString(")")
}

func (d *PostgresDialect) Join(w Writer, list, sep EmitFunc) error {
	if err := w.WriteString("ARRAY_TO_STRING("); err != nil {
		return err
	}
	if err := list(); err != nil {
		return err
	}
	if err := w.WriteString(", "); err != nil {
		return err
	}
	if err := sep(); err != nil {
		return err
	}
	return w.WriteString(")")
}

func (d *PostgresDialect) ArrayLength(w Writer, subject EmitFunc) error {
	if err := w.WriteString("ARRAY_LENGTH("); err != nil {
		return err
	}
	if err := subject(); err != nil {
		return err
	}
	return w.WriteString(", 1)")
}

func (d *PostgresDialect) ArrayLiteral(w Writer, elemType string, elems []EmitFunc) error {
	if err := w.WriteString("ARRAY["); err != nil {
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
	if err := w.WriteString("]"); err != nil {
		return err
	}
	if elemType != "" {
		if err := w.WriteString(" :: " + elemType + "[]"); err != nil {
			return err
		}
	}
	return nil
}

func (d *PostgresDialect) ArrayContains(w Writer, haystack, needle EmitFunc) error {
	if err := needle(); err != nil {
		return err
	}
	if err := w.WriteString(" = ANY("); err != nil {
		return err
	}
	if err := haystack(); err != nil {
		return err
	}
	return w.WriteString(")")
}

// ArrayElement uses PostgreSQL's native 1-based array subscripting.
func (d *PostgresDialect) ArrayElement(w Writer, receiver, index EmitFunc, scalarExtract bool) error {
	if err := w.WriteString("("); err != nil {
		return err
	}
	if err := receiver(); err != nil {
		return err
	}
	if err := w.WriteString(")[("); err != nil {
		return err
	}
	if err := index(); err != nil {
		return err
	}
	return w.WriteString(") + 1]")
}

func (d *PostgresDialect) Unnest(w Writer, source EmitFunc, alias string) (string, error) {
	if err := w.WriteString("UNNEST("); err != nil {
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

func (d *PostgresDialect) ElementRef(alias string) string { return alias }

func (d *PostgresDialect) AggregateList(w Writer, selectList, from, where EmitFunc) error {
	if err := w.WriteString("ARRAY(SELECT "); err != nil {
		return err
	}
	if err := selectList(); err != nil {
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

func (d *PostgresDialect) JSONPathStep(w Writer, receiver EmitFunc, path []string, scalarExtract, binary bool) error {
	if err := receiver(); err != nil {
		return err
	}
	for i, p := range path {
		op := "->"
		if i == len(path)-1 && scalarExtract {
			op = "->>"
		}
		if err := w.WriteString(op + "'" + p + "'"); err != nil {
			return err
		}
	}
	return nil
}

func (d *PostgresDialect) JSONKeyExists(w Writer, receiver EmitFunc, path []string, binary bool) (bool, error) {
	if !binary {
		// Plain JSON has no `?` operator; fall back to IS NOT NULL on the
		// extracted path (spec §4.6.4).
		return false, nil
	}
	if len(path) == 1 {
		if err := receiver(); err != nil {
			return true, err
		}
		if err := w.WriteString(" ? '" + path[0] + "'"); err != nil {
			return true, err
		}
		return true, nil
	}
	// Nested key: extract the parent subtree, then test existence on it.
	if err := receiver(); err != nil {
		return true, err
	}
	for _, p := range path[:len(path)-1] {
		if err := w.WriteString("->'" + p + "'"); err != nil {
			return true, err
		}
	}
	if err := w.WriteString(" ? '" + path[len(path)-1] + "'"); err != nil {
		return true, err
	}
	return true, nil
}

func (d *PostgresDialect) JSONToNumeric(w Writer, receiver EmitFunc) error {
	if err := w.WriteString("("); err != nil {
		return err
	}
	if err := receiver(); err != nil {
		return err
	}
	return w.WriteString(")::numeric")
}

// JSONArrayLength picks json_array_length vs jsonb_array_length per the
// field's storage flag; unlike most json/jsonb function pairs these are not
// interchangeable in PostgreSQL.
func (d *PostgresDialect) JSONArrayLength(w Writer, receiver EmitFunc, binary bool) error {
	fn := "json_array_length("
	if binary {
		fn = "jsonb_array_length("
	}
	return wrap(w, fn, receiver, ")")
}

func (d *PostgresDialect) Cast(w Writer, target ast.LiteralKind, operand EmitFunc) error {
	sqlType, err := castType(target)
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

func castType(target ast.LiteralKind) (string, error) {
	switch target {
	case ast.KindInt:
		return "bigint", nil
	case ast.KindUint:
		return "bigint", nil
	case ast.KindDouble:
		return "double precision", nil
	case ast.KindString:
		return "text", nil
	case ast.KindBool:
		return "boolean", nil
	case ast.KindBytes:
		return "bytea", nil
	case ast.KindTimestamp:
		return "timestamptz", nil
	case ast.KindDuration:
		return "interval", nil
	default:
		return "", fmt.Errorf("dialect: unsupported cast target %v", target)
	}
}

func (d *PostgresDialect) WriteMatches(w Writer, subject EmitFunc, pattern string, caseInsensitive bool) error {
	if err := subject(); err != nil {
		return err
	}
	op := " ~ "
	if caseInsensitive {
		op = " ~* "
	}
	return w.WriteString(op + quoteSQLString(pattern))
}
