package translate

import (
	"github.com/policyql/celsql/internal/ast"
	"github.com/policyql/celsql/internal/cerr"
	"github.com/policyql/celsql/internal/dialect"
)

// emitComprehension lowers one of the five CEL macro shapes per the table
// in spec §4.6.5. exists/all/exists_one share one shape (UNNEST-then-WHERE,
// no ordering conflict); map/filter build an array result and need the
// loop-element reference available before the FROM clause that produces it
// is written, which is why ElementRef exists on Dialect (see dialect.go).
func (t *Translator) emitComprehension(n *ast.Comprehension, ctx Context) error {
	if err := t.buf.EnterComprehension(n.Pos()); err != nil {
		return err
	}
	defer t.buf.ExitComprehension()

	alias := mintAlias(n.IterVar)

	// IterRange belongs to the enclosing scope, not this macro's own: a
	// nested macro that rebinds the same variable name (spec §4.6.5), e.g.
	// outer.exists(x, x.sub.exists(x, x > 0)), must resolve the inner
	// range's "x" to the outer binding even though source is only invoked
	// later, after pushScope below has already shadowed it. Snapshot the
	// scope depth now and temporarily roll back to it whenever source
	// actually runs, regardless of how much scope has been pushed since.
	outerDepth := len(t.scope)
	source := func() error {
		saved := t.scope
		t.scope = t.scope[:outerDepth:outerDepth]
		err := t.emit(n.IterRange, CtxAny)
		t.scope = saved
		return err
	}

	t.pushScope(n.IterVar, t.dialect.ElementRef(alias))
	defer t.popScope()

	switch n.Macro {
	case ast.MacroExists:
		return t.emitExistsMacro(n, source, alias)
	case ast.MacroAll:
		return t.emitAllMacro(n, source, alias)
	case ast.MacroExistsOne:
		return t.emitExistsOne(n, source, alias)
	case ast.MacroMap:
		return t.emitAggregateMacro(n, source, alias, n.Result, false)
	case ast.MacroFilter:
		return t.emitAggregateMacro(n, source, alias, nil, true)
	default:
		return cerr.NewInternal(n.Pos(), "unhandled macro kind")
	}
}

func (t *Translator) fromUnnest(source dialect.EmitFunc, alias string) dialect.EmitFunc {
	return func() error {
		if err := t.buf.WriteString(" FROM "); err != nil {
			return err
		}
		_, err := t.dialect.Unnest(t.buf, source, alias)
		return err
	}
}

func (t *Translator) whereClause(pred ast.Node, negate bool) dialect.EmitFunc {
	return func() error {
		if err := t.buf.WriteString(" WHERE "); err != nil {
			return err
		}
		if negate {
			if err := t.buf.WriteString("NOT ("); err != nil {
				return err
			}
		}
		if err := t.emit(pred, CtxBoolean); err != nil {
			return err
		}
		if negate {
			return t.buf.WriteString(")")
		}
		return nil
	}
}

// emitExistsMacro handles `r.exists(x, P(x))`:
// EXISTS (SELECT 1 FROM UNNEST(r) AS x WHERE P(x)).
func (t *Translator) emitExistsMacro(n *ast.Comprehension, source dialect.EmitFunc, alias string) error {
	if err := t.buf.WriteString("EXISTS (SELECT 1"); err != nil {
		return err
	}
	if err := t.fromUnnest(source, alias)(); err != nil {
		return err
	}
	if err := t.whereClause(n.Result, false)(); err != nil {
		return err
	}
	return t.buf.WriteString(")")
}

// emitAllMacro handles `r.all(x, P(x))`:
// NOT EXISTS (SELECT 1 FROM UNNEST(r) AS x WHERE NOT (P(x))).
func (t *Translator) emitAllMacro(n *ast.Comprehension, source dialect.EmitFunc, alias string) error {
	if err := t.buf.WriteString("NOT EXISTS (SELECT 1"); err != nil {
		return err
	}
	if err := t.fromUnnest(source, alias)(); err != nil {
		return err
	}
	if err := t.whereClause(n.Result, true)(); err != nil {
		return err
	}
	return t.buf.WriteString(")")
}

// emitExistsOne handles `r.exists_one(x, P(x))`:
// (SELECT COUNT(*) FROM UNNEST(r) AS x WHERE P(x)) = 1.
func (t *Translator) emitExistsOne(n *ast.Comprehension, source dialect.EmitFunc, alias string) error {
	if err := t.buf.WriteString("(SELECT COUNT(*)"); err != nil {
		return err
	}
	if err := t.fromUnnest(source, alias)(); err != nil {
		return err
	}
	if err := t.whereClause(n.Result, false)(); err != nil {
		return err
	}
	return t.buf.WriteString(") = 1")
}

// emitAggregateMacro handles `map`/`filter`, both lowered through
// dialect.AggregateList. projection is the projected expression for map
// (n.Result); filter has none and projects the bound loop variable itself,
// so projection is nil and isFilter selects that branch. The element
// reference is computed once via dialect.ElementRef before any thunk
// executes, since AggregateList's selectList thunk always runs before its
// from thunk.
func (t *Translator) emitAggregateMacro(n *ast.Comprehension, source dialect.EmitFunc, alias string, projection ast.Node, isFilter bool) error {
	elementRef := t.dialect.ElementRef(alias)

	selectList := func() error {
		if isFilter {
			return t.buf.WriteString(elementRef)
		}
		return t.emit(projection, CtxAny)
	}
	from := t.fromUnnest(source, alias)
	var where dialect.EmitFunc
	if isFilter {
		where = t.whereClause(n.Result, false)
	}

	return t.dialect.AggregateList(t.buf, selectList, from, where)
}
