// Package translate implements the recursive-descent walker that lowers a
// CEL expression tree into a dialect-valid SQL WHERE-clause fragment (spec
// §4.6). It is grounded on core/internal/qcode's query-builder walk,
// generalized from GraphQL selection sets to CEL expression trees.
package translate

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/policyql/celsql/internal/ast"
	"github.com/policyql/celsql/internal/buffer"
	"github.com/policyql/celsql/internal/cerr"
	"github.com/policyql/celsql/internal/dialect"
	"github.com/policyql/celsql/internal/param"
	"github.com/policyql/celsql/internal/schema"
)

// Context records the syntactic position an expression is being emitted in
// (spec §4.6.1). It is passed down the tree, but no emit path branches on
// it: JSON→number coercion is decided in emitComparison from the inferred
// operand kinds, and comprehensions and has() are accepted in any context.
type Context int

const (
	CtxAny Context = iota
	CtxBoolean
	CtxNumeric
	CtxString
)

// Translator holds all per-call state for one Translate invocation (spec
// §5: single-threaded, stateless between calls). A fresh Translator must be
// created for every call; none of its fields are safe to reuse.
type Translator struct {
	dialect  dialect.Dialect
	registry *schema.Registry
	binder   *param.Binder
	buf      *buffer.Buffer

	scope []boundVar
}

// New creates a Translator for one translation call.
func New(d dialect.Dialect, registry *schema.Registry, binder *param.Binder, buf *buffer.Buffer) *Translator {
	return &Translator{dialect: d, registry: registry, binder: binder, buf: buf}
}

// Translate walks root in boolean context and writes the resulting SQL
// fragment into t.buf. Callers read t.buf.String() only after this returns
// nil; any error means the buffer must be discarded.
func (t *Translator) Translate(root ast.Node) error {
	return t.emit(root, CtxBoolean)
}

// emit is the exhaustive dispatch over every ast.Node variant (spec §4.6.1,
// §9 "tagged variants vs. virtual dispatch"). Depth is checked before
// descent so an over-limit tree never produces partial output.
func (t *Translator) emit(n ast.Node, ctx Context) error {
	if err := t.buf.EnterDepth(n.Pos()); err != nil {
		return err
	}
	defer t.buf.ExitDepth()

	switch node := n.(type) {
	case *ast.Literal:
		return t.emitLiteral(node)
	case *ast.Identifier:
		return t.emitIdentifier(node, ctx)
	case *ast.FieldSelect:
		emit, err := t.resolveChain(node)
		if err != nil {
			return err
		}
		return emit()
	case *ast.Index:
		emit, err := t.resolveChain(node)
		if err != nil {
			return err
		}
		return emit()
	case *ast.Call:
		return t.emitCall(node, ctx)
	case *ast.Unary:
		return t.emitUnary(node, ctx)
	case *ast.Binary:
		return t.emitBinary(node, ctx)
	case *ast.Conditional:
		return t.emitConditional(node, ctx)
	case *ast.ListLiteral:
		return t.emitListLiteral(node)
	case *ast.MapLiteral:
		return cerr.NewUnsupportedFeature(n.Pos(), "map literal")
	case *ast.StructLiteral:
		return cerr.NewUnsupportedFeature(n.Pos(), "struct literal")
	case *ast.Comprehension:
		return t.emitComprehension(node, ctx)
	default:
		return cerr.NewInternal(n.Pos(), fmt.Sprintf("unhandled ast node %T", n))
	}
}

func (t *Translator) emitLiteral(lit *ast.Literal) error {
	token, err := t.binder.Literal(lit)
	if err != nil {
		return err
	}
	return t.buf.WriteString(token)
}

// emitIdentifier resolves a bare name: a bound comprehension variable first,
// then the reserved literals, then a plain quoted column (spec §3.1 — a
// bare identifier translates directly to a column with no registered table
// required). The only failure is identifier quoting, e.g. an over-long name.
func (t *Translator) emitIdentifier(id *ast.Identifier, ctx Context) error {
	if v, ok := t.lookupScope(id.Name); ok {
		return t.buf.WriteString(v.alias)
	}
	switch id.Name {
	case "true":
		return t.buf.WriteString(t.dialect.BoolLiteral(true))
	case "false":
		return t.buf.WriteString(t.dialect.BoolLiteral(false))
	case "null":
		return t.buf.WriteString(t.dialect.NullLiteral())
	}
	quoted, err := t.binder.QuoteIdentifier(id.Pos(), id.Name)
	if err != nil {
		return err
	}
	return t.buf.WriteString(quoted)
}

func (t *Translator) emitListLiteral(n *ast.ListLiteral) error {
	if err := t.buf.WriteString("("); err != nil {
		return err
	}
	for i, el := range n.Elements {
		if i != 0 {
			if err := t.buf.WriteString(", "); err != nil {
				return err
			}
		}
		if err := t.emit(el, CtxAny); err != nil {
			return err
		}
	}
	return t.buf.WriteString(")")
}

func (t *Translator) emitConditional(n *ast.Conditional, ctx Context) error {
	if err := t.buf.WriteString("CASE WHEN "); err != nil {
		return err
	}
	if err := t.emit(n.Cond, CtxBoolean); err != nil {
		return err
	}
	if err := t.buf.WriteString(" THEN "); err != nil {
		return err
	}
	if err := t.emit(n.Then, ctx); err != nil {
		return err
	}
	if err := t.buf.WriteString(" ELSE "); err != nil {
		return err
	}
	if err := t.emit(n.Else, ctx); err != nil {
		return err
	}
	return t.buf.WriteString(" END")
}

func (t *Translator) emitUnary(n *ast.Unary, ctx Context) error {
	switch n.Op {
	case ast.OpNot:
		if err := t.buf.WriteString("NOT ("); err != nil {
			return err
		}
		if err := t.emit(n.Operand, CtxBoolean); err != nil {
			return err
		}
		return t.buf.WriteString(")")
	case ast.OpNeg:
		if err := t.buf.WriteString("-("); err != nil {
			return err
		}
		if err := t.emit(n.Operand, CtxNumeric); err != nil {
			return err
		}
		return t.buf.WriteString(")")
	default:
		return cerr.NewInternal(n.Pos(), fmt.Sprintf("unhandled unary op %v", n.Op))
	}
}

// boundVar is one entry in the comprehension-variable scope stack (spec
// §4.6.5): name is the CEL-visible iteration variable, alias is the SQL
// text that refers to it (the dialect's ElementRef for the synthesized
// unnest alias).
type boundVar struct {
	name  string
	alias string
}

func (t *Translator) pushScope(name, alias string) {
	t.scope = append(t.scope, boundVar{name: name, alias: alias})
}

func (t *Translator) popScope() {
	t.scope = t.scope[:len(t.scope)-1]
}

// lookupScope searches top-down so the innermost binding shadows outer
// ones of the same name.
func (t *Translator) lookupScope(name string) (boundVar, bool) {
	for i := len(t.scope) - 1; i >= 0; i-- {
		if t.scope[i].name == name {
			return t.scope[i], true
		}
	}
	return boundVar{}, false
}

func (t *Translator) isBoundVar(name string) bool {
	_, ok := t.lookupScope(name)
	return ok
}

// mintAlias synthesizes a unique SQL alias for iterVar so nested or
// independent unnest operations never collide (spec §4.6.5: "rebind the
// iteration variable with a synthesized unique name").
func mintAlias(iterVar string) string {
	id := uuid.New()
	return fmt.Sprintf("%s_%s", iterVar, id.String()[:8])
}
