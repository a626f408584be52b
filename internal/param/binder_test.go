package param

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policyql/celsql/internal/ast"
	"github.com/policyql/celsql/internal/cerr"
	"github.com/policyql/celsql/internal/dialect"
)

func strLit(v string) *ast.Literal {
	return &ast.Literal{Kind: ast.KindString, Value: v}
}

func TestInlineStringEscapesQuotes(t *testing.T) {
	b := New(&dialect.PostgresDialect{}, Inline, 63, 10000)
	out, err := b.Literal(strLit("o'brien"))
	require.NoError(t, err)
	assert.Equal(t, `'o''brien'`, out)
	assert.Empty(t, b.Values())
}

func TestParameterizedAllocatesOrdinalsWithoutDeduplication(t *testing.T) {
	b := New(&dialect.PostgresDialect{}, Parameterized, 63, 10000)
	first, err := b.Literal(strLit("x"))
	require.NoError(t, err)
	second, err := b.Literal(strLit("x"))
	require.NoError(t, err)

	assert.Equal(t, "$1", first)
	assert.Equal(t, "$2", second)
	assert.Equal(t, []interface{}{"x", "x"}, b.Values())
}

func TestParameterizedBindVarPerDialect(t *testing.T) {
	cases := []struct {
		d    dialect.Dialect
		want string
	}{
		{&dialect.PostgresDialect{}, "$1"},
		{&dialect.DuckDBDialect{}, "$1"},
		{&dialect.MySQLDialect{}, "?"},
		{&dialect.SQLiteDialect{}, "?"},
		{&dialect.BigQueryDialect{}, "@p1"},
	}
	for _, c := range cases {
		b := New(c.d, Parameterized, 63, 10000)
		got, err := b.Literal(strLit("x"))
		require.NoError(t, err)
		assert.Equal(t, c.want, got, c.d.Name())
	}
}

func TestQuoteIdentifierRejectsOverLengthNames(t *testing.T) {
	b := New(&dialect.PostgresDialect{}, Inline, 8, 10000)
	_, err := b.QuoteIdentifier(ast.Position{}, "way_too_long_identifier_name")
	require.Error(t, err)
	cErr, ok := err.(*cerr.Error)
	require.True(t, ok)
	assert.Equal(t, cerr.InvalidIdentifier, cErr.Kind)
}

func TestQuoteIdentifierAcceptsWithinLimit(t *testing.T) {
	b := New(&dialect.MySQLDialect{}, Inline, 63, 10000)
	out, err := b.QuoteIdentifier(ast.Position{}, "user_id")
	require.NoError(t, err)
	assert.Equal(t, "`user_id`", out)
}

// An identifier carrying the dialect's own quote character must never reach
// the output unescaped — every dialect doubles it rather than passing it
// through bare.
func TestQuoteIdentifierEscapesDialectQuoteCharacter(t *testing.T) {
	cases := []struct {
		d    dialect.Dialect
		name string
		want string
	}{
		{&dialect.PostgresDialect{}, `evil"name`, `"evil""name"`},
		{&dialect.DuckDBDialect{}, `evil"name`, `"evil""name"`},
		{&dialect.SQLiteDialect{}, `evil"name`, `"evil""name"`},
		{&dialect.MySQLDialect{}, "evil`name", "`evil``name`"},
		{&dialect.BigQueryDialect{}, "evil`name", "`evil``name`"},
	}
	for _, c := range cases {
		b := New(c.d, Inline, 63, 10000)
		out, err := b.QuoteIdentifier(ast.Position{}, c.name)
		require.NoError(t, err, c.d.Name())
		assert.Equal(t, c.want, out, c.d.Name())
	}
}

func TestBytesLiteralOverLimitFailsInBothModes(t *testing.T) {
	big := make([]byte, 16)
	lit := &ast.Literal{Kind: ast.KindBytes, Value: big}

	inline := New(&dialect.PostgresDialect{}, Inline, 63, 8)
	_, err := inline.Literal(lit)
	require.Error(t, err)
	assert.Equal(t, cerr.BytesTooLarge, err.(*cerr.Error).Kind)

	parameterized := New(&dialect.PostgresDialect{}, Parameterized, 63, 8)
	_, err = parameterized.Literal(lit)
	require.Error(t, err)
	assert.Equal(t, cerr.BytesTooLarge, err.(*cerr.Error).Kind)
}

func TestNullLiteralGoValueIsNilInParameterizedMode(t *testing.T) {
	b := New(&dialect.PostgresDialect{}, Parameterized, 63, 10000)
	_, err := b.Literal(&ast.Literal{Kind: ast.KindNull})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{nil}, b.Values())
}
