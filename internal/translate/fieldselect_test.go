package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policyql/celsql/internal/ast"
	"github.com/policyql/celsql/internal/dialect"
	"github.com/policyql/celsql/internal/param"
	"github.com/policyql/celsql/internal/schema"
)

func usersRegistry() *schema.Registry {
	return schema.NewRegistry(schema.Table{
		Name: "usr",
		Fields: []schema.Field{
			{Name: "metadata", Kind: schema.KindJSON, JSONBinary: true},
			{Name: "tags", Kind: schema.KindArray, ElementType: "text"},
			{Name: "status", Kind: schema.KindScalar},
		},
	})
}

// usr.metadata.role == "admin", with usr.metadata registered as JSONB.
func TestJSONFieldSelectLowersToPathOperator(t *testing.T) {
	root := &ast.Binary{
		Op:    ast.OpEq,
		Left:  field(field(ident("usr"), "metadata"), "role"),
		Right: strLit("admin"),
	}
	got := translateBool(t, &dialect.PostgresDialect{}, usersRegistry(), root)
	assert.Equal(t, `("usr"."metadata"->>'role' = 'admin')`, got)
}

// tags.size() > 0 against a registered array field.
func TestArrayFieldSizeLowersToArrayLength(t *testing.T) {
	root := &ast.Binary{
		Op:    ast.OpGt,
		Left:  &ast.Call{Name: "size", Args: []ast.Node{field(ident("usr"), "tags")}},
		Right: intLit(0),
	}
	got := translateBool(t, &dialect.PostgresDialect{}, usersRegistry(), root)
	assert.Equal(t, `(ARRAY_LENGTH("usr"."tags", 1) > 0)`, got)
}

// An unregistered table degrades every access to a plain column.
func TestUnregisteredTableDegradesToPlainColumn(t *testing.T) {
	root := &ast.Binary{
		Op:    ast.OpEq,
		Left:  field(ident("unknown"), "role"),
		Right: strLit("admin"),
	}
	got := translateBool(t, &dialect.PostgresDialect{}, usersRegistry(), root)
	assert.Equal(t, `("unknown"."role" = 'admin')`, got)
}

// A further .field after a scalar column is NonJSONPath.
func TestFieldSelectPastScalarColumnIsNonJSONPath(t *testing.T) {
	tr, buf, _ := newTestTranslator(&dialect.PostgresDialect{}, param.Inline, usersRegistry())
	root := field(field(ident("usr"), "status"), "nested")
	err := tr.Translate(root)
	require.Error(t, err)
	assert.Empty(t, buf.String())
}

// has(usr.metadata.role) on a JSONB field uses the `?` key-exists operator.
func TestHasOnJSONBinaryFieldUsesKeyExistsOperator(t *testing.T) {
	root := &ast.Call{Name: "has", Args: []ast.Node{field(field(ident("usr"), "metadata"), "role")}}
	got := translateBool(t, &dialect.PostgresDialect{}, usersRegistry(), root)
	assert.Equal(t, `"usr"."metadata" ? 'role'`, got)
}

// has(usr.status) on a scalar field is IS NOT NULL.
func TestHasOnScalarFieldIsNotNull(t *testing.T) {
	root := &ast.Call{Name: "has", Args: []ast.Node{field(ident("usr"), "status")}}
	got := translateBool(t, &dialect.PostgresDialect{}, usersRegistry(), root)
	assert.Equal(t, `"usr"."status" IS NOT NULL`, got)
}

// has() on a plain, unresolvable bare identifier is the one case identifier
// resolution does fail (bare identifiers otherwise degrade to a plain
// column).
func TestHasOnUnresolvableBareIdentifierFails(t *testing.T) {
	tr, buf, _ := newTestTranslator(&dialect.PostgresDialect{}, param.Inline, usersRegistry())
	root := &ast.Call{Name: "has", Args: []ast.Node{ident("nothing")}}
	err := tr.Translate(root)
	require.Error(t, err)
	assert.Empty(t, buf.String())
}

// has() falls back to IS NOT NULL when the dialect has no key-exists
// operator (here, a plain (non-binary) JSON column).
func TestHasOnPlainJSONFallsBackToIsNotNull(t *testing.T) {
	registry := schema.NewRegistry(schema.Table{
		Name: "usr",
		Fields: []schema.Field{
			{Name: "metadata", Kind: schema.KindJSON, JSONBinary: false},
		},
	})
	root := &ast.Call{Name: "has", Args: []ast.Node{field(field(ident("usr"), "metadata"), "role")}}
	got := translateBool(t, &dialect.PostgresDialect{}, registry, root)
	assert.Equal(t, `"usr"."metadata"->>'role' IS NOT NULL`, got)
}
