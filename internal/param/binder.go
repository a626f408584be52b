// Package param implements the translation kernel's two literal-rendering
// strategies (spec §4.4): Inline mode writes an escaped SQL token directly;
// Parameterized mode writes an ordinal placeholder and appends the Go value
// to a bound-values list for the caller to pass alongside the compiled SQL.
package param

import (
	"fmt"
	"strings"

	"github.com/policyql/celsql/internal/ast"
	"github.com/policyql/celsql/internal/cerr"
	"github.com/policyql/celsql/internal/dialect"
)

// Mode selects how literals are rendered.
type Mode int

const (
	Inline Mode = iota
	Parameterized
)

// Binder renders AST literals and validates identifiers for one dialect.
// It is per-call state (spec §5): a fresh Binder is created for each
// translation so ordinal allocation never leaks across calls.
type Binder struct {
	dialect             dialect.Dialect
	mode                Mode
	maxIdentifierLength int
	maxBytesLiteral     int

	values []interface{}
}

// New creates a Binder for one translation call.
func New(d dialect.Dialect, mode Mode, maxIdentifierLength, maxBytesLiteral int) *Binder {
	return &Binder{
		dialect:             d,
		mode:                mode,
		maxIdentifierLength: maxIdentifierLength,
		maxBytesLiteral:     maxBytesLiteral,
	}
}

// Values returns the bound-value list accumulated so far, in ordinal order.
// Empty in Inline mode.
func (b *Binder) Values() []interface{} {
	return b.values
}

// QuoteIdentifier validates and escapes name per spec §4.4: length is
// capped at maxIdentifierLength regardless of mode, since identifiers are
// never parameterizable in standard SQL.
func (b *Binder) QuoteIdentifier(pos ast.Position, name string) (string, error) {
	if name == "" || len(name) > b.maxIdentifierLength {
		return "", cerr.NewInvalidIdentifier(pos, name, b.maxIdentifierLength)
	}
	return b.dialect.QuoteIdentifier(name), nil
}

// Literal renders lit.Value as either an inline token or a placeholder,
// per b.mode. The inline string-escaping rule (single-quote doubling) is
// dialect-independent (spec §4.4); every other kind defers to the Dialect.
func (b *Binder) Literal(lit *ast.Literal) (string, error) {
	switch b.mode {
	case Parameterized:
		return b.bindPlaceholder(lit)
	default:
		return b.inlineLiteral(lit)
	}
}

func (b *Binder) bindPlaceholder(lit *ast.Literal) (string, error) {
	if lit.Kind == ast.KindBytes {
		if raw, ok := lit.Value.([]byte); ok && len(raw) > b.maxBytesLiteral {
			return "", cerr.NewBytesTooLarge(lit.Pos(), b.maxBytesLiteral)
		}
	}
	b.values = append(b.values, goValue(lit))
	ordinal := len(b.values)
	return b.dialect.BindVar(ordinal), nil
}

func (b *Binder) inlineLiteral(lit *ast.Literal) (string, error) {
	switch lit.Kind {
	case ast.KindNull:
		return b.dialect.NullLiteral(), nil
	case ast.KindBool:
		v, _ := lit.Value.(bool)
		return b.dialect.BoolLiteral(v), nil
	case ast.KindInt:
		v, _ := lit.Value.(int64)
		return fmt.Sprintf("%d", v), nil
	case ast.KindUint:
		v, _ := lit.Value.(uint64)
		return fmt.Sprintf("%d", v), nil
	case ast.KindDouble:
		v, _ := lit.Value.(float64)
		return fmt.Sprintf("%g", v), nil
	case ast.KindString:
		v, _ := lit.Value.(string)
		return quoteStringLiteral(v), nil
	case ast.KindBytes:
		v, _ := lit.Value.([]byte)
		if len(v) > b.maxBytesLiteral {
			return "", cerr.NewBytesTooLarge(lit.Pos(), b.maxBytesLiteral)
		}
		return b.dialect.BytesLiteral(v), nil
	case ast.KindTimestamp:
		v, _ := lit.Value.(string)
		return b.dialect.TimestampLiteral(v), nil
	case ast.KindDuration:
		v, _ := lit.Value.(string)
		return b.dialect.DurationLiteral(v), nil
	default:
		return "", cerr.NewInternal(lit.Pos(), fmt.Sprintf("unhandled literal kind %v", lit.Kind))
	}
}

// quoteStringLiteral applies the single dialect-independent SQL string
// escaping rule (spec §4.4: "Strings are single-quoted with ' doubled").
// This mirrors the escaping table go-sql-driver/mysql's interpolateParams
// applies for the quote character itself, the one rule all five targets
// share; dialect-specific backslash handling is not needed because every
// target here accepts standard_conforming_strings-style quoting.
func quoteStringLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// goValue extracts the plain Go value a database/sql driver would bind for
// lit, used only in Parameterized mode.
func goValue(lit *ast.Literal) interface{} {
	switch lit.Kind {
	case ast.KindNull:
		return nil
	default:
		return lit.Value
	}
}
