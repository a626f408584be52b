package dialect

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/policyql/celsql/internal/ast"
)

// MySQLDialect targets MySQL 8.0+ (required for JSON_TABLE and window-free
// JSON path functions). Grounded on core/internal/dialect/mysql.go, which
// follows the same one-struct-one-interface shape.
type MySQLDialect struct{}

var _ Dialect = (*MySQLDialect)(nil)

func (d *MySQLDialect) Name() string { return "mysql" }

func (d *MySQLDialect) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (d *MySQLDialect) BindVar(ordinal int) string { return "?" }

func (d *MySQLDialect) NullLiteral() string { return "NULL" }

func (d *MySQLDialect) BoolLiteral(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func (d *MySQLDialect) BytesLiteral(b []byte) string {
	return "X'" + hex.EncodeToString(b) + "'"
}

func (d *MySQLDialect) TimestampLiteral(rfc3339 string) string {
	return "TIMESTAMP('" + rfc3339 + "')"
}

func (d *MySQLDialect) DurationLiteral(celDuration string) string {
	secs, err := celDurationSeconds(celDuration)
	if err != nil {
		return "0"
	}
	return fmt.Sprintf("%g", secs)
}

func (d *MySQLDialect) CompareOp(op ast.BinaryOp) (string, error) { return defaultCompareOp(op) }

func (d *MySQLDialect) ArithOp(op ast.BinaryOp) (string, error) {
	if op == ast.OpMod {
		return "%", nil // MySQL accepts both `%` and MOD(); `%` keeps the walker simple.
	}
	return defaultArithOp(op)
}

func (d *MySQLDialect) Concat(w Writer, left, right EmitFunc) error {
	if err := w.WriteString("CONCAT("); err != nil {
		return err
	}
	if err := left(); err != nil {
		return err
	}
	if err := w.WriteString(", "); err != nil {
		return err
	}
	if err := right(); err != nil {
		return err
	}
	return w.WriteString(")")
}

func (d *MySQLDialect) TemporalAdd(w Writer, ts, dur EmitFunc, negate bool) error {
	fn := "DATE_ADD"
	if negate {
		fn = "DATE_SUB"
	}
	if err := w.WriteString(fn + "("); err != nil {
		return err
	}
	if err := ts(); err != nil {
		return err
	}
	if err := w.WriteString(", INTERVAL ("); err != nil {
		return err
	}
	if err := dur(); err != nil {
		return err
	}
	return w.WriteString(") SECOND)")
}

func (d *MySQLDialect) TemporalDiff(w Writer, a, b EmitFunc) error {
	if err := w.WriteString("TIMESTAMPDIFF(SECOND, "); err != nil {
		return err
	}
	if err := b(); err != nil {
		return err
	}
	if err := w.WriteString(", "); err != nil {
		return err
	}
	if err := a(); err != nil {
		return err
	}
	return w.WriteString(")")
}

func (d *MySQLDialect) TemporalComponent(w Writer, receiver EmitFunc, c TemporalComponent) error {
	fn, err := mysqlTemporalFn(c)
	if err != nil {
		return err
	}
	if err := w.WriteString(fn + "("); err != nil {
		return err
	}
	if err := receiver(); err != nil {
		return err
	}
	return w.WriteString(")")
}

func mysqlTemporalFn(c TemporalComponent) (string, error) {
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

func (d *MySQLDialect) Contains(w Writer, subject, needle EmitFunc) error {
	if err := w.WriteString("LOCATE("); err != nil {
		return err
	}
	if err := needle(); err != nil {
		return err
	}
	if err := w.WriteString(", "); err != nil {
		return err
	}
	if err := subject(); err != nil {
		return err
	}
	return w.WriteString(") > 0")
}

func (d *MySQLDialect) StartsWith(w Writer, subject, prefix EmitFunc) error {
	if err := subject(); err != nil {
		return err
	}
	if err := w.WriteString(" LIKE CONCAT("); err != nil {
		return err
	}
	if err := prefix(); err != nil {
		return err
	}
	return w.WriteString(", '%')")
}

func (d *MySQLDialect) EndsWith(w Writer, subject, suffix EmitFunc) error {
	if err := subject(); err != nil {
		return err
	}
	if err := w.WriteString(" LIKE CONCAT('%', "); err != nil {
		return err
	}
	if err := suffix(); err != nil {
		return err
	}
	return w.WriteString(")")
}

func (d *MySQLDialect) StringLength(w Writer, subject EmitFunc) error {
	return wrap(w, "CHAR_LENGTH(", subject, ")")
}

func (d *MySQLDialect) Split(w Writer, subject, sep EmitFunc) error {
	// MySQL has no native split-to-array. This returns a one-element JSON
	// array holding the text before the first separator (the whole subject
	// when the separator is absent); later segments are not produced.
	if err := w.WriteString("JSON_ARRAY(SUBSTRING_INDEX("); err != nil {
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
	return w.WriteString(", 1))")
}

func (d *MySQLDialect) Join(w Writer, list, sep EmitFunc) error {
	if err := w.WriteString("(SELECT GROUP_CONCAT(value SEPARATOR "); err != nil {
		return err
	}
	if err := sep(); err != nil {
		return err
	}
	if err := w.WriteString(") FROM JSON_TABLE("); err != nil {
		return err
	}
	if err := list(); err != nil {
		return err
	}
	return w.WriteString(", '$[*]' COLUMNS (value TEXT PATH '$')) AS t)")
}

func (d *MySQLDialect) ArrayLength(w Writer, subject EmitFunc) error {
	return wrap(w, "JSON_LENGTH(", subject, ")")
}

func (d *MySQLDialect) ArrayLiteral(w Writer, elemType string, elems []EmitFunc) error {
	if err := w.WriteString("JSON_ARRAY("); err != nil {
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

func (d *MySQLDialect) ArrayContains(w Writer, haystack, needle EmitFunc) error {
	if err := w.WriteString("JSON_CONTAINS("); err != nil {
		return err
	}
	if err := haystack(); err != nil {
		return err
	}
	if err := w.WriteString(", JSON_QUOTE(CAST("); err != nil {
		return err
	}
	if err := needle(); err != nil {
		return err
	}
	return w.WriteString(" AS CHAR)))")
}

// ArrayElement indexes a JSON_ARRAY-represented column by building the
// `$[N]` path dynamically, since index is an arbitrary expression, not a
// compile-time constant.
func (d *MySQLDialect) ArrayElement(w Writer, receiver, index EmitFunc, scalarExtract bool) error {
	fn := "JSON_EXTRACT"
	if scalarExtract {
		fn = "JSON_UNQUOTE(JSON_EXTRACT"
	}
	if err := w.WriteString(fn + "("); err != nil {
		return err
	}
	if err := receiver(); err != nil {
		return err
	}
	if err := w.WriteString(", CONCAT('$[', CAST("); err != nil {
		return err
	}
	if err := index(); err != nil {
		return err
	}
	if err := w.WriteString(" AS CHAR), ']'))"); err != nil {
		return err
	}
	if scalarExtract {
		return w.WriteString(")")
	}
	return nil
}

func (d *MySQLDialect) Unnest(w Writer, source EmitFunc, alias string) (string, error) {
	if err := w.WriteString("JSON_TABLE("); err != nil {
		return "", err
	}
	if err := source(); err != nil {
		return "", err
	}
	if err := w.WriteString(", '$[*]' COLUMNS (value JSON PATH '$')) AS " + alias + "_t"); err != nil {
		return "", err
	}
	return d.ElementRef(alias), nil
}

func (d *MySQLDialect) ElementRef(alias string) string { return alias + "_t.value" }

func (d *MySQLDialect) AggregateList(w Writer, selectList, from, where EmitFunc) error {
	if err := w.WriteString("(SELECT JSON_ARRAYAGG("); err != nil {
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

func (d *MySQLDialect) JSONPathStep(w Writer, receiver EmitFunc, path []string, scalarExtract, binary bool) error {
	fn := "JSON_EXTRACT"
	if scalarExtract {
		fn = "JSON_UNQUOTE(JSON_EXTRACT"
	}
	if err := w.WriteString(fn + "("); err != nil {
		return err
	}
	if err := receiver(); err != nil {
		return err
	}
	if err := w.WriteString(", '$" + jsonPointerPath(path) + "')"); err != nil {
		return err
	}
	if scalarExtract {
		return w.WriteString(")")
	}
	return nil
}

func (d *MySQLDialect) JSONKeyExists(w Writer, receiver EmitFunc, path []string, binary bool) (bool, error) {
	if err := w.WriteString("JSON_CONTAINS_PATH("); err != nil {
		return true, err
	}
	if err := receiver(); err != nil {
		return true, err
	}
	if err := w.WriteString(", 'one', '$" + jsonPointerPath(path) + "')"); err != nil {
		return true, err
	}
	return true, nil
}

func (d *MySQLDialect) JSONToNumeric(w Writer, receiver EmitFunc) error {
	if err := w.WriteString("CAST("); err != nil {
		return err
	}
	if err := receiver(); err != nil {
		return err
	}
	return w.WriteString(" AS DECIMAL(65,6))")
}

// JSONArrayLength: MySQL's JSON_LENGTH works uniformly on arrays and
// objects, so the storage flag is unused.
func (d *MySQLDialect) JSONArrayLength(w Writer, receiver EmitFunc, binary bool) error {
	return wrap(w, "JSON_LENGTH(", receiver, ")")
}

func (d *MySQLDialect) Cast(w Writer, target ast.LiteralKind, operand EmitFunc) error {
	sqlType, err := mysqlCastType(target)
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

func mysqlCastType(target ast.LiteralKind) (string, error) {
	switch target {
	case ast.KindInt, ast.KindUint:
		return "SIGNED", nil
	case ast.KindDouble:
		return "DECIMAL(65,6)", nil
	case ast.KindString:
		return "CHAR", nil
	case ast.KindBool:
		return "UNSIGNED", nil
	case ast.KindBytes:
		return "BINARY", nil
	case ast.KindTimestamp:
		return "DATETIME", nil
	case ast.KindDuration:
		return "SIGNED", nil
	default:
		return "", fmt.Errorf("dialect: unsupported cast target %v", target)
	}
}

// WriteMatches hands the pattern to MySQL's REGEXP (ICU regex since 8.0)
// unchanged. It neither rewrites nor rejects RE2 constructs, so it never
// returns an error for the pattern itself.
func (d *MySQLDialect) WriteMatches(w Writer, subject EmitFunc, pattern string, caseInsensitive bool) error {
	if caseInsensitive {
		if err := w.WriteString("REGEXP_LIKE("); err != nil {
			return err
		}
		if err := subject(); err != nil {
			return err
		}
		if err := w.WriteString(", " + quoteSQLString(pattern) + ", 'i')"); err != nil {
			return err
		}
		return nil
	}
	if err := subject(); err != nil {
		return err
	}
	return w.WriteString(" REGEXP " + quoteSQLString(pattern))
}
