package dialect

import (
	"fmt"
	"strings"

	"github.com/policyql/celsql/internal/ast"
)

// BigQueryDialect targets GoogleSQL (standard SQL). Unlike DuckDBDialect it
// does not embed PostgresDialect: BigQuery's identifier quoting, bind
// syntax, and JSON/array primitives diverge enough from Postgres that
// reuse through embedding would leave more overrides than shared methods,
// so it is written standalone in the same flat shape as PostgresDialect
// and MySQLDialect.
type BigQueryDialect struct{}

var _ Dialect = (*BigQueryDialect)(nil)

func (d *BigQueryDialect) Name() string { return "bigquery" }

func (d *BigQueryDialect) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (d *BigQueryDialect) BindVar(ordinal int) string {
	return fmt.Sprintf("@p%d", ordinal)
}

func (d *BigQueryDialect) NullLiteral() string { return "NULL" }

func (d *BigQueryDialect) BoolLiteral(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

func (d *BigQueryDialect) BytesLiteral(b []byte) string {
	var sb []byte
	sb = append(sb, `b"`...)
	for _, c := range b {
		sb = append(sb, fmt.Sprintf(`\x%02x`, c)...)
	}
	sb = append(sb, '"')
	return string(sb)
}

func (d *BigQueryDialect) TimestampLiteral(rfc3339 string) string {
	return "TIMESTAMP('" + rfc3339 + "')"
}

func (d *BigQueryDialect) DurationLiteral(celDuration string) string {
	secs, err := celDurationSeconds(celDuration)
	if err != nil {
		return "0"
	}
	return fmt.Sprintf("%g", secs)
}

func (d *BigQueryDialect) CompareOp(op ast.BinaryOp) (string, error) { return defaultCompareOp(op) }

// ArithOp never renders "%" as infix: GoogleSQL has no such operator, and
// emitArithOrConcatOrTemporal in internal/translate special-cases OpMod
// for this dialect into a MOD(left, right) call before ArithOp is ever
// consulted. The error here only guards against some other caller trying
// the infix path directly.
func (d *BigQueryDialect) ArithOp(op ast.BinaryOp) (string, error) {
	if op == ast.OpMod {
		return "", fmt.Errorf("bigquery: %% has no infix form, use MOD()")
	}
	return defaultArithOp(op)
}

func (d *BigQueryDialect) Concat(w Writer, left, right EmitFunc) error {
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

func (d *BigQueryDialect) TemporalAdd(w Writer, ts, dur EmitFunc, negate bool) error {
	fn := "TIMESTAMP_ADD"
	if negate {
		fn = "TIMESTAMP_SUB"
	}
	if err := w.WriteString(fn + "("); err != nil {
		return err
	}
	if err := ts(); err != nil {
		return err
	}
	if err := w.WriteString(", INTERVAL CAST("); err != nil {
		return err
	}
	if err := dur(); err != nil {
		return err
	}
	return w.WriteString(" AS INT64) SECOND)")
}

func (d *BigQueryDialect) TemporalDiff(w Writer, a, b EmitFunc) error {
	if err := w.WriteString("TIMESTAMP_DIFF("); err != nil {
		return err
	}
	if err := a(); err != nil {
		return err
	}
	if err := w.WriteString(", "); err != nil {
		return err
	}
	if err := b(); err != nil {
		return err
	}
	return w.WriteString(", SECOND)")
}

func (d *BigQueryDialect) TemporalComponent(w Writer, receiver EmitFunc, c TemporalComponent) error {
	part, err := bigqueryDatePart(c)
	if err != nil {
		return err
	}
	if err := w.WriteString("EXTRACT(" + part + " FROM "); err != nil {
		return err
	}
	if err := receiver(); err != nil {
		return err
	}
	return w.WriteString(")")
}

func bigqueryDatePart(c TemporalComponent) (string, error) {
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

func (d *BigQueryDialect) Contains(w Writer, subject, needle EmitFunc) error {
	if err := w.WriteString("STRPOS("); err != nil {
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

func (d *BigQueryDialect) StartsWith(w Writer, subject, prefix EmitFunc) error {
	if err := w.WriteString("STARTS_WITH("); err != nil {
		return err
	}
	if err := subject(); err != nil {
		return err
	}
	if err := w.WriteString(", "); err != nil {
		return err
	}
	if err := prefix(); err != nil {
		return err
	}
	return w.WriteString(")")
}

func (d *BigQueryDialect) EndsWith(w Writer, subject, suffix EmitFunc) error {
	if err := w.WriteString("ENDS_WITH("); err != nil {
		return err
	}
	if err := subject(); err != nil {
		return err
	}
	if err := w.WriteString(", "); err != nil {
		return err
	}
	if err := suffix(); err != nil {
		return err
	}
	return w.WriteString(")")
}

func (d *BigQueryDialect) StringLength(w Writer, subject EmitFunc) error {
	return wrap(w, "CHAR_LENGTH(", subject, ")")
}

func (d *BigQueryDialect) Split(w Writer, subject, sep EmitFunc) error {
	return wrap(w, "SPLIT(", func() error {
		if err := subject(); err != nil {
			return err
		}
		if err := w.WriteString(", "); err != nil {
			return err
		}
		return sep()
	}, ")")
}

func (d *BigQueryDialect) Join(w Writer, list, sep EmitFunc) error {
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

func (d *BigQueryDialect) ArrayLength(w Writer, subject EmitFunc) error {
	return wrap(w, "ARRAY_LENGTH(", subject, ")")
}

func (d *BigQueryDialect) ArrayLiteral(w Writer, elemType string, elems []EmitFunc) error {
	if err := w.WriteString("["); err != nil {
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
	return w.WriteString("]")
}

func (d *BigQueryDialect) ArrayContains(w Writer, haystack, needle EmitFunc) error {
	if err := needle(); err != nil {
		return err
	}
	if err := w.WriteString(" IN UNNEST("); err != nil {
		return err
	}
	if err := haystack(); err != nil {
		return err
	}
	return w.WriteString(")")
}

// ArrayElement uses GoogleSQL's 0-based OFFSET() array accessor.
func (d *BigQueryDialect) ArrayElement(w Writer, receiver, index EmitFunc, scalarExtract bool) error {
	if err := receiver(); err != nil {
		return err
	}
	if err := w.WriteString("[OFFSET("); err != nil {
		return err
	}
	if err := index(); err != nil {
		return err
	}
	return w.WriteString(")]")
}

func (d *BigQueryDialect) Unnest(w Writer, source EmitFunc, alias string) (string, error) {
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

func (d *BigQueryDialect) ElementRef(alias string) string { return alias }

// AggregateList uses ARRAY(subquery), which GoogleSQL supports directly
// (unlike MySQL/SQLite, which need an aggregate function instead).
func (d *BigQueryDialect) AggregateList(w Writer, selectList, from, where EmitFunc) error {
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

func (d *BigQueryDialect) JSONPathStep(w Writer, receiver EmitFunc, path []string, scalarExtract, binary bool) error {
	fn := "JSON_QUERY"
	if scalarExtract {
		fn = "JSON_VALUE"
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
	return nil
}

func (d *BigQueryDialect) JSONKeyExists(w Writer, receiver EmitFunc, path []string, binary bool) (bool, error) {
	// GoogleSQL has no key-exists predicate distinct from JSON_VALUE being
	// non-null; fall back to IS NOT NULL on the extracted path.
	return false, nil
}

func (d *BigQueryDialect) JSONToNumeric(w Writer, receiver EmitFunc) error {
	if err := w.WriteString("CAST("); err != nil {
		return err
	}
	if err := receiver(); err != nil {
		return err
	}
	return w.WriteString(" AS FLOAT64)")
}

// JSONArrayLength is a best-effort rendering: receiver is already the
// JSON_QUERY(...) subtree produced by JSONPathStep, so the array itself is
// re-extracted at the root path before counting.
func (d *BigQueryDialect) JSONArrayLength(w Writer, receiver EmitFunc, binary bool) error {
	if err := w.WriteString("ARRAY_LENGTH(JSON_QUERY_ARRAY("); err != nil {
		return err
	}
	if err := receiver(); err != nil {
		return err
	}
	return w.WriteString(", '$'))")
}

func (d *BigQueryDialect) Cast(w Writer, target ast.LiteralKind, operand EmitFunc) error {
	sqlType, err := bigqueryCastType(target)
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

func bigqueryCastType(target ast.LiteralKind) (string, error) {
	switch target {
	case ast.KindInt, ast.KindUint:
		return "INT64", nil
	case ast.KindDouble:
		return "FLOAT64", nil
	case ast.KindString:
		return "STRING", nil
	case ast.KindBool:
		return "BOOL", nil
	case ast.KindBytes:
		return "BYTES", nil
	case ast.KindTimestamp:
		return "TIMESTAMP", nil
	case ast.KindDuration:
		return "INT64", nil
	default:
		return "", fmt.Errorf("dialect: unsupported cast target %v", target)
	}
}

func (d *BigQueryDialect) WriteMatches(w Writer, subject EmitFunc, pattern string, caseInsensitive bool) error {
	if err := w.WriteString("REGEXP_CONTAINS("); err != nil {
		return err
	}
	if err := subject(); err != nil {
		return err
	}
	effectivePattern := pattern
	if caseInsensitive {
		effectivePattern = "(?i)" + pattern
	}
	if err := w.WriteString(", " + quoteSQLString(effectivePattern) + ")"); err != nil {
		return err
	}
	return nil
}
