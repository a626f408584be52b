package dialect

import (
	"fmt"
	"strings"

	"github.com/policyql/celsql/internal/ast"
)

// quoteSQLString single-quotes s per standard SQL string-literal escaping
// ('\” doubled). Every dialect uses this for regex patterns and other
// dialect-embedded string literals that are not routed through
// internal/param (which applies the same rule for CEL string literals).
func quoteSQLString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// defaultCompareOp renders the six comparison operators in their ANSI-SQL
// spelling. Every dialect in this package uses it unchanged; it is kept as
// a free function (mirroring the shared-helper pattern in
// core/internal/dialect) rather than duplicated per dialect.
func defaultCompareOp(op ast.BinaryOp) (string, error) {
	switch op {
	case ast.OpEq:
		return "=", nil
	case ast.OpNe:
		return "<>", nil
	case ast.OpLt:
		return "<", nil
	case ast.OpLe:
		return "<=", nil
	case ast.OpGt:
		return ">", nil
	case ast.OpGe:
		return ">=", nil
	default:
		return "", fmt.Errorf("dialect: %v is not a comparison operator", op)
	}
}

// defaultArithOp renders +, -, *, /, % unchanged; MySQL/SQLite/Postgres/
// DuckDB accept the infix %, while BigQuery requires the MOD() function
// and overrides ArithOp to reject %.
func defaultArithOp(op ast.BinaryOp) (string, error) {
	switch op {
	case ast.OpAdd:
		return "+", nil
	case ast.OpSub:
		return "-", nil
	case ast.OpMul:
		return "*", nil
	case ast.OpDiv:
		return "/", nil
	case ast.OpMod:
		return "%", nil
	default:
		return "", fmt.Errorf("dialect: %v is not an arithmetic operator", op)
	}
}

func wrap(w Writer, prefix string, emit EmitFunc, suffix string) error {
	if err := w.WriteString(prefix); err != nil {
		return err
	}
	if emit != nil {
		if err := emit(); err != nil {
			return err
		}
	}
	return w.WriteString(suffix)
}

func infix(w Writer, left EmitFunc, op string, right EmitFunc) error {
	if err := left(); err != nil {
		return err
	}
	if err := w.WriteString(op); err != nil {
		return err
	}
	return right()
}
