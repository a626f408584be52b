package translate

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policyql/celsql/internal/ast"
	"github.com/policyql/celsql/internal/dialect"
	"github.com/policyql/celsql/internal/param"
)

var aliasPattern = regexp.MustCompile(`x_[0-9a-f]{8}`)

func TestAllMacroLowersToNotExistsWithNegatedPredicate(t *testing.T) {
	comp := &ast.Comprehension{
		Macro:     ast.MacroAll,
		IterRange: ident("items"),
		IterVar:   "x",
		Result:    &ast.Binary{Op: ast.OpGt, Left: ident("x"), Right: intLit(0)},
	}
	got := translateBool(t, &dialect.PostgresDialect{}, nil, comp)
	assert.Regexp(t, `^NOT EXISTS \(SELECT 1 FROM UNNEST\("items"\) AS x_[0-9a-f]{8} WHERE NOT \(\(x_[0-9a-f]{8} > 0\)\)\)$`, got)
}

func TestExistsOneMacroLowersToCountEqualsOne(t *testing.T) {
	comp := &ast.Comprehension{
		Macro:     ast.MacroExistsOne,
		IterRange: ident("items"),
		IterVar:   "x",
		Result:    &ast.Binary{Op: ast.OpEq, Left: ident("x"), Right: intLit(1)},
	}
	got := translateBool(t, &dialect.PostgresDialect{}, nil, comp)
	assert.Regexp(t, `^\(SELECT COUNT\(\*\) FROM UNNEST\("items"\) AS x_[0-9a-f]{8} WHERE \(x_[0-9a-f]{8} = 1\)\) = 1$`, got)
}

// map(x, x + 1) on Postgres uses ElementRef, resolved before the FROM clause
// that produces the alias is written.
func TestMapMacroLowersToAggregateListWithProjection(t *testing.T) {
	comp := &ast.Comprehension{
		Macro:     ast.MacroMap,
		IterRange: ident("items"),
		IterVar:   "x",
		Result:    &ast.Binary{Op: ast.OpAdd, Left: ident("x"), Right: intLit(1)},
	}
	got := translateBool(t, &dialect.PostgresDialect{}, nil, comp)
	assert.Regexp(t, `^ARRAY\(SELECT \(x_[0-9a-f]{8} \+ 1\) FROM UNNEST\("items"\) AS x_[0-9a-f]{8}\)$`, got)
}

// filter(x, x > 0) projects the element itself and adds a WHERE clause.
func TestFilterMacroLowersToAggregateListWithWhere(t *testing.T) {
	comp := &ast.Comprehension{
		Macro:     ast.MacroFilter,
		IterRange: ident("items"),
		IterVar:   "x",
		Result:    &ast.Binary{Op: ast.OpGt, Left: ident("x"), Right: intLit(0)},
	}
	got := translateBool(t, &dialect.PostgresDialect{}, nil, comp)
	assert.Regexp(t, `^ARRAY\(SELECT x_[0-9a-f]{8} FROM UNNEST\("items"\) AS x_[0-9a-f]{8} WHERE \(x_[0-9a-f]{8} > 0\)\)$`, got)
}

// MySQL's element reference differs from its FROM-clause alias, so the
// SELECT and FROM fragments use different text for the same loop variable.
func TestFilterMacroOnMySQLUsesDistinctElementRefAndAlias(t *testing.T) {
	comp := &ast.Comprehension{
		Macro:     ast.MacroFilter,
		IterRange: ident("items"),
		IterVar:   "x",
		Result:    &ast.Binary{Op: ast.OpGt, Left: ident("x"), Right: intLit(0)},
	}
	got := translateBool(t, &dialect.MySQLDialect{}, nil, comp)
	matches := aliasPattern.FindAllString(got, -1)
	require.NotEmpty(t, matches)
	assert.Contains(t, got, "_t.value")
}

// Two independently minted aliases for the same iteration variable name
// never collide (nested comprehensions over the same variable name).
func TestNestedComprehensionsMintDistinctAliases(t *testing.T) {
	inner := &ast.Comprehension{
		Macro:     ast.MacroExists,
		IterRange: ident("inner"),
		IterVar:   "x",
		Result:    &ast.Binary{Op: ast.OpGt, Left: ident("x"), Right: intLit(0)},
	}
	outer := &ast.Comprehension{
		Macro:     ast.MacroExists,
		IterRange: ident("outer"),
		IterVar:   "x",
		Result:    inner,
	}
	tr, buf, _ := newTestTranslator(&dialect.PostgresDialect{}, param.Inline, nil)
	require.NoError(t, tr.Translate(outer))
	aliases := aliasPattern.FindAllString(buf.String(), -1)
	// outer's FROM alias, plus inner's FROM alias and WHERE reference (same
	// value, appearing twice).
	require.Len(t, aliases, 3)
	assert.NotEqual(t, aliases[0], aliases[1])
	assert.Equal(t, aliases[1], aliases[2])
}

// A nested macro that rebinds the same variable name must resolve its own
// range against the *outer* binding, not its own: outer.exists(x,
// x.sub.exists(x, x > 0))'s inner range "x.sub" refers to the outer x.
func TestNestedMacroRebindingSameNameResolvesRangeAgainstOuterScope(t *testing.T) {
	inner := &ast.Comprehension{
		Macro:     ast.MacroExists,
		IterRange: field(ident("x"), "sub"),
		IterVar:   "x",
		Result:    &ast.Binary{Op: ast.OpGt, Left: ident("x"), Right: intLit(0)},
	}
	outer := &ast.Comprehension{
		Macro:     ast.MacroExists,
		IterRange: ident("outer"),
		IterVar:   "x",
		Result:    inner,
	}
	got := translateBool(t, &dialect.PostgresDialect{}, nil, outer)

	outerAlias := aliasPattern.FindString(got)
	require.NotEmpty(t, outerAlias)
	// The inner range must reference the outer alias, not a second binding
	// of "x" to itself — i.e. it must read "<outerAlias>.sub", never a bare
	// "x.sub" or an inner-alias-qualified "sub".
	assert.Contains(t, got, outerAlias+`."sub"`)
}
