package translate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policyql/celsql/internal/ast"
	"github.com/policyql/celsql/internal/buffer"
	"github.com/policyql/celsql/internal/dialect"
	"github.com/policyql/celsql/internal/param"
)

func TestMatchesReceiverStyleLowersToRegexOperator(t *testing.T) {
	root := &ast.Call{Receiver: ident("email"), Name: "matches", Args: []ast.Node{strLit("^.+@.+$")}}
	got := translateBool(t, &dialect.PostgresDialect{}, nil, root)
	assert.Equal(t, `"email" ~ '^.+@.+$'`, got)
}

// A non-literal pattern (here, a bare identifier) is rejected outright:
// letting caller-controlled data reach the regex engine uncompiled is the
// same resource-safety hazard a dynamic JSON path would be.
func TestMatchesWithNonLiteralPatternIsUnsupported(t *testing.T) {
	root := &ast.Call{Name: "matches", Args: []ast.Node{ident("email"), ident("pattern")}}
	tr, buf, _ := newTestTranslator(&dialect.PostgresDialect{}, param.Inline, nil)
	err := tr.Translate(root)
	require.Error(t, err)
	assert.Empty(t, buf.String())
}

func TestMatchesWithPatternOverLimitFails(t *testing.T) {
	limits := buffer.DefaultLimits()
	limits.MaxPatternLength = 4
	buf := buffer.New(limits)
	d := &dialect.PostgresDialect{}
	binder := param.New(d, param.Inline, limits.MaxIdentifierLength, limits.MaxBytesLiteral)
	tr := New(d, nil, binder, buf)

	root := &ast.Call{Name: "matches", Args: []ast.Node{ident("email"), strLit("toolongpattern")}}
	err := tr.Translate(root)
	require.Error(t, err)
	assert.Empty(t, buf.String())
}

// SQLite has no built-in regex engine; the dialect's WriteMatches error is
// wrapped as a RegexUnsupported diagnostic rather than emitting SQL that
// only works if an extension happens to be loaded.
func TestMatchesOnSQLiteIsWrappedAsRegexUnsupported(t *testing.T) {
	root := &ast.Call{Name: "matches", Args: []ast.Node{ident("email"), strLit("^a+$")}}
	tr, buf, _ := newTestTranslator(&dialect.SQLiteDialect{}, param.Inline, nil)
	err := tr.Translate(root)
	require.Error(t, err)
	assert.Empty(t, buf.String())
	assert.True(t, strings.Contains(err.Error(), "sqlite") || strings.Contains(err.Error(), "regex"))
}

func TestMatchesOnBigQueryUsesRegexpContains(t *testing.T) {
	root := &ast.Call{Name: "matches", Args: []ast.Node{ident("email"), strLit("^a+$")}}
	got := translateBool(t, &dialect.BigQueryDialect{}, nil, root)
	assert.Equal(t, "REGEXP_CONTAINS(`email`, '^a+$')", got)
}
