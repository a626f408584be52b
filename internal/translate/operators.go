package translate

import (
	"github.com/policyql/celsql/internal/ast"
	"github.com/policyql/celsql/internal/cerr"
	"github.com/policyql/celsql/internal/dialect"
	"github.com/policyql/celsql/internal/schema"
)

// inferredKind is the walker's best-effort, purely local classification of
// an operand's type (spec §4.6.2, §9 "context-sensitive walker vs. separate
// type-check pass" — a full type-check pass is deliberately not done).
type inferredKind int

const (
	inferUnknown inferredKind = iota
	inferNumeric
	inferString
	inferBool
	inferTimestamp
	inferDuration
	inferJSON
)

// infer classifies n from syntactic shape alone: literal kinds, no-arg
// cast-style calls (timestamp(...), duration(...), int(...), ...), and
// JSON-typed field-select/index chains resolved against the registry.
func (t *Translator) infer(n ast.Node) inferredKind {
	switch v := n.(type) {
	case *ast.Literal:
		switch v.Kind {
		case ast.KindInt, ast.KindUint, ast.KindDouble:
			return inferNumeric
		case ast.KindString:
			return inferString
		case ast.KindBool:
			return inferBool
		case ast.KindTimestamp:
			return inferTimestamp
		case ast.KindDuration:
			return inferDuration
		default:
			return inferUnknown
		}
	case *ast.Call:
		if v.Receiver == nil {
			switch v.Name {
			case "timestamp":
				return inferTimestamp
			case "duration":
				return inferDuration
			case "int", "uint", "double":
				return inferNumeric
			case "string":
				return inferString
			case "bool":
				return inferBool
			}
		}
		if v.Name == "size" {
			return inferNumeric
		}
		return inferUnknown
	case *ast.FieldSelect:
		if t.isJSONChain(v) {
			return inferJSON
		}
		return inferUnknown
	case *ast.Index:
		if t.isJSONChain(v) {
			return inferJSON
		}
		return inferUnknown
	case *ast.Binary:
		if v.Op.IsComparison() || v.Op == ast.OpAnd || v.Op == ast.OpOr {
			return inferBool
		}
		return inferUnknown
	case *ast.Unary:
		if v.Op == ast.OpNot {
			return inferBool
		}
		return inferUnknown
	default:
		return inferUnknown
	}
}

// isJSONChain reports whether n is a FieldSelect/Index chain rooted at a
// registered table whose first field is JSON-typed. Unregistered roots and
// bound comprehension variables are never considered JSON (spec §4.2 — no
// schema information means no JSON rewriting fires).
func (t *Translator) isJSONChain(n ast.Node) bool {
	root, steps := unrollChain(n)
	ident, ok := root.(*ast.Identifier)
	if !ok || len(steps) == 0 {
		return false
	}
	if t.isBoundVar(ident.Name) {
		return false
	}
	tbl, ok := t.registry.Table(ident.Name)
	if !ok {
		return false
	}
	first := steps[0]
	if first.kind != stepField {
		return false
	}
	field, ok := tbl.Field(first.field)
	if !ok {
		return false
	}
	return field.Kind == schema.KindJSON
}

func isNumericKind(k inferredKind) bool  { return k == inferNumeric }
func isTemporalKind(k inferredKind) bool { return k == inferTimestamp || k == inferDuration }

func (t *Translator) emitBinary(n *ast.Binary, ctx Context) error {
	switch {
	case n.Op == ast.OpAnd || n.Op == ast.OpOr:
		return t.emitLogical(n)
	case n.Op == ast.OpIn:
		return t.emitIn(n)
	case n.Op.IsComparison():
		return t.emitComparison(n, true)
	default:
		return t.emitArithOrConcatOrTemporal(n)
	}
}

func (t *Translator) emitLogical(n *ast.Binary) error {
	joiner := " AND "
	if n.Op == ast.OpOr {
		joiner = " OR "
	}
	if err := t.buf.WriteString("("); err != nil {
		return err
	}
	if err := t.emitLogicalOperand(n.Left); err != nil {
		return err
	}
	if err := t.buf.WriteString(joiner); err != nil {
		return err
	}
	if err := t.emitLogicalOperand(n.Right); err != nil {
		return err
	}
	return t.buf.WriteString(")")
}

// emitLogicalOperand writes one side of AND/OR. A comparison operand gets no
// parentheses of its own: the AND/OR group already encloses it.
func (t *Translator) emitLogicalOperand(operand ast.Node) error {
	cmp, ok := operand.(*ast.Binary)
	if !ok || !cmp.Op.IsComparison() {
		return t.emit(operand, CtxBoolean)
	}
	if err := t.buf.EnterDepth(cmp.Pos()); err != nil {
		return err
	}
	defer t.buf.ExitDepth()
	return t.emitComparison(cmp, false)
}

// emitComparison applies the JSON→numeric coercion rule (spec §4.6.2):
// a JSON-chain operand compared against a numeric literal/cast is wrapped
// via the dialect's JSONToNumeric; compared against a string, no cast.
// parens wraps the comparison in its own parentheses.
func (t *Translator) emitComparison(n *ast.Binary, parens bool) error {
	op, err := t.dialect.CompareOp(n.Op)
	if err != nil {
		return cerr.NewTypeMismatch(n.Pos(), n.Op.String()).Wrap(err)
	}
	leftKind := t.infer(n.Left)
	rightKind := t.infer(n.Right)
	leftJSON := t.isJSONChain(n.Left)
	rightJSON := t.isJSONChain(n.Right)

	var leftEmit, rightEmit dialect.EmitFunc
	leftEmit = func() error { return t.emit(n.Left, CtxAny) }
	rightEmit = func() error { return t.emit(n.Right, CtxAny) }

	if leftJSON && isNumericKind(rightKind) {
		inner := leftEmit
		leftEmit = func() error { return t.dialect.JSONToNumeric(t.buf, inner) }
	}
	if rightJSON && isNumericKind(leftKind) {
		inner := rightEmit
		rightEmit = func() error { return t.dialect.JSONToNumeric(t.buf, inner) }
	}

	open, close := "(", ")"
	if !parens {
		open, close = "", ""
	}
	if err := t.buf.WriteString(open); err != nil {
		return err
	}
	if err := leftEmit(); err != nil {
		return err
	}
	if err := t.buf.WriteString(" " + op + " "); err != nil {
		return err
	}
	if err := rightEmit(); err != nil {
		return err
	}
	return t.buf.WriteString(close)
}

// emitArithOrConcatOrTemporal resolves CEL's overloaded +/- (and the
// non-overloaded *, /, %) in the exact precedence spec §4.6.2 requires:
// temporal first (it overlaps syntactically with string concatenation
// when both operands are literal-shaped), then string concatenation, then
// plain numeric arithmetic.
func (t *Translator) emitArithOrConcatOrTemporal(n *ast.Binary) error {
	leftKind := t.infer(n.Left)
	rightKind := t.infer(n.Right)

	if isTemporalKind(leftKind) || isTemporalKind(rightKind) {
		return t.emitTemporalArith(n, leftKind, rightKind)
	}
	if leftKind == inferString || rightKind == inferString {
		left := func() error { return t.emit(n.Left, CtxString) }
		right := func() error { return t.emit(n.Right, CtxString) }
		return t.dialect.Concat(t.buf, left, right)
	}

	// BigQuery's GoogleSQL has no infix % operator at all; MOD(left, right)
	// is the only way to express it, so this case is handled here as a
	// function call rather than through the infix op path below.
	if n.Op == ast.OpMod && t.dialect.Name() == "bigquery" {
		left := func() error { return t.emit(n.Left, CtxNumeric) }
		right := func() error { return t.emit(n.Right, CtxNumeric) }
		if err := t.buf.WriteString("MOD("); err != nil {
			return err
		}
		if err := left(); err != nil {
			return err
		}
		if err := t.buf.WriteString(", "); err != nil {
			return err
		}
		if err := right(); err != nil {
			return err
		}
		return t.buf.WriteString(")")
	}

	op, err := t.dialect.ArithOp(n.Op)
	if err != nil {
		return cerr.NewTypeMismatch(n.Pos(), n.Op.String()).Wrap(err)
	}
	if err := t.buf.WriteString("("); err != nil {
		return err
	}
	if err := t.emit(n.Left, CtxNumeric); err != nil {
		return err
	}
	if err := t.buf.WriteString(" " + op + " "); err != nil {
		return err
	}
	if err := t.emit(n.Right, CtxNumeric); err != nil {
		return err
	}
	return t.buf.WriteString(")")
}

func (t *Translator) emitTemporalArith(n *ast.Binary, leftKind, rightKind inferredKind) error {
	left := func() error { return t.emit(n.Left, CtxAny) }
	right := func() error { return t.emit(n.Right, CtxAny) }

	switch {
	case leftKind == inferTimestamp && rightKind == inferTimestamp:
		if n.Op != ast.OpSub {
			return cerr.NewTypeMismatch(n.Pos(), n.Op.String())
		}
		return t.dialect.TemporalDiff(t.buf, left, right)

	case leftKind == inferTimestamp && rightKind == inferDuration:
		return t.dialect.TemporalAdd(t.buf, left, right, n.Op == ast.OpSub)

	case leftKind == inferDuration && rightKind == inferTimestamp:
		if n.Op == ast.OpSub {
			return cerr.NewTypeMismatch(n.Pos(), n.Op.String())
		}
		return t.dialect.TemporalAdd(t.buf, right, left, false)

	case leftKind == inferDuration && rightKind == inferDuration:
		op, err := t.dialect.ArithOp(n.Op)
		if err != nil {
			return cerr.NewTypeMismatch(n.Pos(), n.Op.String()).Wrap(err)
		}
		if err := t.buf.WriteString("("); err != nil {
			return err
		}
		if err := left(); err != nil {
			return err
		}
		if err := t.buf.WriteString(" " + op + " "); err != nil {
			return err
		}
		if err := right(); err != nil {
			return err
		}
		return t.buf.WriteString(")")

	default:
		return cerr.NewTypeMismatch(n.Pos(), n.Op.String())
	}
}

// emitIn dispatches CEL's `in` operator three ways (spec §9 open question
// (a)): a list literal lowers to a plain SQL tuple IN; an array-typed or
// schema-less receiver uses the dialect's ArrayContains; a JSON-typed
// receiver has no well-specified membership semantics across the target
// dialects and surfaces UnsupportedFeature rather than guessing.
func (t *Translator) emitIn(n *ast.Binary) error {
	if _, ok := n.Right.(*ast.ListLiteral); ok {
		if err := t.emit(n.Left, CtxAny); err != nil {
			return err
		}
		if err := t.buf.WriteString(" IN "); err != nil {
			return err
		}
		return t.emit(n.Right, CtxAny)
	}
	if t.isJSONChain(n.Right) {
		return cerr.NewUnsupportedFeature(n.Pos(), "membership test against a JSON-typed value")
	}
	needle := func() error { return t.emit(n.Left, CtxAny) }
	haystack := func() error { return t.emit(n.Right, CtxAny) }
	return t.dialect.ArrayContains(t.buf, haystack, needle)
}
