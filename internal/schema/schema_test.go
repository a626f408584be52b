package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry(Table{
		Name: "users",
		Fields: []Field{
			{Name: "id", Kind: KindScalar},
			{Name: "metadata", Kind: KindJSON, JSONBinary: true},
			{Name: "tags", Kind: KindArray, ElementType: "text"},
		},
	})

	tbl, ok := r.Table("users")
	require.True(t, ok)

	f, ok := tbl.Field("metadata")
	require.True(t, ok)
	assert.Equal(t, KindJSON, f.Kind)
	assert.True(t, f.JSONBinary)

	_, ok = tbl.Field("MetaData")
	assert.False(t, ok, "lookup must be case-sensitive")
}

func TestRegistryMissGracefulDegradation(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Table("ghost")
	assert.False(t, ok)

	var nilReg *Registry
	_, ok = nilReg.Table("anything")
	assert.False(t, ok)
	assert.Equal(t, 0, nilReg.Len())
}

func TestFieldKindString(t *testing.T) {
	assert.Equal(t, "json", KindJSON.String())
	assert.Equal(t, "unknown", FieldKind(42).String())
}

func TestFoldCaseRegistryLooksUpRegardlessOfCase(t *testing.T) {
	r := NewRegistryFoldCase(Table{
		Name: "Users",
		Fields: []Field{
			{Name: "Email", Kind: KindScalar},
		},
	})

	tbl, ok := r.Table("users")
	require.True(t, ok, "fold-case registry must match table names regardless of case")

	f, ok := tbl.Field("EMAIL")
	require.True(t, ok, "fold-case table must match field names regardless of case")
	assert.Equal(t, KindScalar, f.Kind)

	// A plain, non-folding registry keeps exact-case semantics.
	plain := NewRegistry(Table{Name: "Users", Fields: []Field{{Name: "Email"}}})
	_, ok = plain.Table("users")
	assert.False(t, ok)
}
