package celsql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policyql/celsql/internal/ast"
	"github.com/policyql/celsql/internal/schema"
)

func ident(name string) *ast.Identifier { return &ast.Identifier{Name: name} }

func strLit(v string) *ast.Literal { return &ast.Literal{Kind: ast.KindString, Value: v} }

func intLit(v int64) *ast.Literal { return &ast.Literal{Kind: ast.KindInt, Value: v} }

func field(recv ast.Node, name string) *ast.FieldSelect {
	return &ast.FieldSelect{Receiver: recv, Field: name}
}

// name == "alice" && age > 30
func nameAgeConjunction() ast.Node {
	return &ast.Binary{
		Op:   ast.OpAnd,
		Left: &ast.Binary{Op: ast.OpEq, Left: ident("name"), Right: strLit("alice")},
		Right: &ast.Binary{
			Op:    ast.OpGt,
			Left:  ident("age"),
			Right: intLit(30),
		},
	}
}

func TestNameAgeConjunctionInlinePostgres(t *testing.T) {
	art, err := Translate(nameAgeConjunction(), nil, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, `("name" = 'alice' AND "age" > 30)`, art.SQL)
	assert.Empty(t, art.Parameters)
}

func TestStatusOrTagsSizeGreaterThanZero(t *testing.T) {
	registry := schema.NewRegistry(schema.Table{
		Name: "t",
		Fields: []schema.Field{
			{Name: "tags", Kind: schema.KindArray, ElementType: "text"},
		},
	})
	root := &ast.Binary{
		Op:   ast.OpOr,
		Left: &ast.Binary{Op: ast.OpEq, Left: ident("status"), Right: strLit("active")},
		Right: &ast.Binary{
			Op:    ast.OpGt,
			Left:  &ast.Call{Name: "size", Args: []ast.Node{field(ident("t"), "tags")}},
			Right: intLit(0),
		},
	}
	art, err := Translate(root, registry, DefaultConfig())
	require.NoError(t, err)
	assert.Contains(t, art.SQL, `"status" = 'active'`)
	assert.Contains(t, art.SQL, "ARRAY_LENGTH")
}

func TestJSONFieldSelectLowersToPathOperator(t *testing.T) {
	registry := schema.NewRegistry(schema.Table{
		Name: "usr",
		Fields: []schema.Field{
			{Name: "metadata", Kind: schema.KindJSON, JSONBinary: true},
		},
	})
	root := &ast.Binary{
		Op:    ast.OpEq,
		Left:  field(field(ident("usr"), "metadata"), "role"),
		Right: strLit("admin"),
	}
	art, err := Translate(root, registry, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, `("usr"."metadata"->>'role' = 'admin')`, art.SQL)
}

func TestExistsMacroLowersToExistsUnnest(t *testing.T) {
	root := &ast.Comprehension{
		Macro:     ast.MacroExists,
		IterRange: ident("items"),
		IterVar:   "x",
		Result:    &ast.Binary{Op: ast.OpGt, Left: ident("x"), Right: intLit(10)},
	}
	art, err := Translate(root, nil, DefaultConfig())
	require.NoError(t, err)
	assert.Contains(t, art.SQL, "EXISTS (SELECT 1 FROM UNNEST(")
}

func TestParameterizedModeBindsOrdinalsAndLeavesNoLiteralInSQL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = "parameterized"
	art, err := Translate(nameAgeConjunction(), nil, cfg)
	require.NoError(t, err)
	assert.Equal(t, `("name" = $1 AND "age" > $2)`, art.SQL)
	assert.Equal(t, []interface{}{"alice", int64(30)}, art.Parameters)
	assert.NotContains(t, art.SQL, "alice")
}

func TestMatchesLowersToPostgresRegexOperator(t *testing.T) {
	root := &ast.Call{Name: "matches", Args: []ast.Node{ident("email"), strLit("^.+@.+$")}}
	art, err := Translate(root, nil, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, `"email" ~ '^.+@.+$'`, art.SQL)
}

// Calling Translate twice with the same (ast, schemas, config) always
// returns byte-identical output.
func TestDeterministicAcrossRepeatedCalls(t *testing.T) {
	cfg := DefaultConfig()
	first, err := Translate(nameAgeConjunction(), nil, cfg)
	require.NoError(t, err)
	second, err := Translate(nameAgeConjunction(), nil, cfg)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// An error from Translate always leaves the returned Artifact at its zero
// value, never a partially-built one.
func TestErrorProducesEmptyArtifact(t *testing.T) {
	// size() of a numeric literal has no string/array shape to measure and
	// is always rejected (AmbiguousSize).
	root := &ast.Call{Name: "size", Args: []ast.Node{intLit(5)}}
	art, err := Translate(root, nil, DefaultConfig())
	require.Error(t, err)
	assert.Equal(t, Artifact{}, art)
}

// Substituting each bound parameter literally into the parameterized SQL,
// in order, reproduces the inline-mode SQL.
func TestParameterSubstitutionReproducesInlineSQL(t *testing.T) {
	cfgInline := DefaultConfig()
	cfgParam := DefaultConfig()
	cfgParam.Mode = "parameterized"

	inline, err := Translate(nameAgeConjunction(), nil, cfgInline)
	require.NoError(t, err)
	parameterized, err := Translate(nameAgeConjunction(), nil, cfgParam)
	require.NoError(t, err)

	substituted := parameterized.SQL
	substituted = replaceOnce(substituted, "$1", "'alice'")
	substituted = replaceOnce(substituted, "$2", "30")
	assert.Equal(t, inline.SQL, substituted)
}

func replaceOnce(s, old, new string) string {
	idx := indexOf(s, old)
	if idx < 0 {
		return s
	}
	return s[:idx] + new + s[idx+len(old):]
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

// Recursion past max_depth fails with no partial output.
func TestDepthExceededYieldsEmptyArtifact(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxDepth = 2
	root := &ast.Unary{Op: ast.OpNot, Operand: &ast.Unary{Op: ast.OpNot, Operand: &ast.Unary{Op: ast.OpNot, Operand: ident("active")}}}
	art, err := Translate(root, nil, cfg)
	require.Error(t, err)
	assert.Equal(t, Artifact{}, art)
}

// An unregistered table degrades to a plain column, never a JSON rewrite.
func TestSchemaLessTableDegradesToPlainColumn(t *testing.T) {
	root := &ast.Binary{Op: ast.OpEq, Left: field(ident("unknown"), "role"), Right: strLit("admin")}
	art, err := Translate(root, nil, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, `("unknown"."role" = 'admin')`, art.SQL)
}

// has() on a scalar field is IS NOT NULL across every dialect.
func TestHasOnScalarIsNotNullAcrossDialects(t *testing.T) {
	registry := schema.NewRegistry(schema.Table{
		Name:   "usr",
		Fields: []schema.Field{{Name: "status", Kind: schema.KindScalar}},
	})
	root := &ast.Call{Name: "has", Args: []ast.Node{field(ident("usr"), "status")}}

	for _, dialectName := range []string{"postgresql", "mysql", "sqlite", "duckdb", "bigquery"} {
		cfg := DefaultConfig()
		cfg.Dialect = dialectName
		art, err := Translate(root, registry, cfg)
		require.NoError(t, err, dialectName)
		assert.Contains(t, art.SQL, "IS NOT NULL", dialectName)
	}
}

// AdviseOnly runs only the index advisor and leaves SQL/Parameters empty.
func TestAdviseOnlySkipsTranslationButReturnsRecommendations(t *testing.T) {
	registry := schema.NewRegistry(schema.Table{
		Name: "orders",
		Fields: []schema.Field{
			{Name: "customer_id", Kind: schema.KindScalar},
		},
	})
	root := &ast.Binary{Op: ast.OpEq, Left: field(ident("orders"), "customer_id"), Right: strLit("abc")}
	cfg := DefaultConfig()
	cfg.AdviseOnly = true
	art, err := Translate(root, registry, cfg)
	require.NoError(t, err)
	assert.Empty(t, art.SQL)
	require.Len(t, art.Recommendations, 1)
	assert.Equal(t, "orders", art.Recommendations[0].Table)
	assert.Equal(t, []string{"customer_id"}, art.Recommendations[0].Columns)
}

func TestUnknownDialectNameIsRejected(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dialect = "oracle"
	_, err := Translate(ident("x"), nil, cfg)
	require.Error(t, err)
}
