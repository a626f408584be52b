package translate

import (
	"fmt"

	"github.com/policyql/celsql/internal/ast"
	"github.com/policyql/celsql/internal/cerr"
	"github.com/policyql/celsql/internal/dialect"
	"github.com/policyql/celsql/internal/schema"
)

// emitCall dispatches every Call node by name (spec §6.1's accepted string/
// cast/temporal function set). has() and matches() are handled by their
// own files (fieldselect.go, regex.go) since each carries enough
// dedicated logic to warrant it.
func (t *Translator) emitCall(n *ast.Call, ctx Context) error {
	switch n.Name {
	case "has":
		return t.emitHas(n)
	case "matches":
		return t.emitMatches(n)
	case "size":
		return t.emitSize(n)
	case "int", "uint", "double", "string", "bool", "bytes", "timestamp", "duration":
		return t.emitCast(n)
	case "contains", "startsWith", "endsWith":
		return t.emitStringPredicate(n)
	case "split":
		return t.emitSplit(n)
	case "join":
		return t.emitJoin(n)
	case "getFullYear", "getMonth", "getDayOfMonth", "getHours", "getMinutes", "getSeconds":
		return t.emitTemporalComponent(n)
	default:
		return cerr.NewUnsupportedFeature(n.Pos(), fmt.Sprintf("function %q", n.Name))
	}
}

// normalizeMethodCall unifies CEL's two call shapes: `x.f(a, b)` (Receiver
// set) and the equivalent free-function form `f(x, a, b)` (Receiver nil,
// subject as Args[0]). wantArgs is the number of arguments after the
// subject.
func normalizeMethodCall(n *ast.Call, wantArgs int) (ast.Node, []ast.Node, error) {
	if n.Receiver != nil {
		if len(n.Args) != wantArgs {
			return nil, nil, cerr.NewUnsupportedFeature(n.Pos(), fmt.Sprintf("%s() expects %d argument(s)", n.Name, wantArgs))
		}
		return n.Receiver, n.Args, nil
	}
	if len(n.Args) != wantArgs+1 {
		return nil, nil, cerr.NewUnsupportedFeature(n.Pos(), fmt.Sprintf("%s() expects %d argument(s)", n.Name, wantArgs+1))
	}
	return n.Args[0], n.Args[1:], nil
}

var castKinds = map[string]ast.LiteralKind{
	"int":       ast.KindInt,
	"uint":      ast.KindUint,
	"double":    ast.KindDouble,
	"string":    ast.KindString,
	"bool":      ast.KindBool,
	"bytes":     ast.KindBytes,
	"timestamp": ast.KindTimestamp,
	"duration":  ast.KindDuration,
}

func (t *Translator) emitCast(n *ast.Call) error {
	subject, _, err := normalizeMethodCall(n, 0)
	if err != nil {
		return err
	}
	kind, ok := castKinds[n.Name]
	if !ok {
		return cerr.NewInternal(n.Pos(), fmt.Sprintf("unregistered cast name %q", n.Name))
	}
	operand := func() error { return t.emit(subject, CtxAny) }
	return t.dialect.Cast(t.buf, kind, operand)
}

func (t *Translator) emitStringPredicate(n *ast.Call) error {
	subject, args, err := normalizeMethodCall(n, 1)
	if err != nil {
		return err
	}
	subjectEmit := func() error { return t.emit(subject, CtxString) }
	argEmit := func() error { return t.emit(args[0], CtxString) }
	switch n.Name {
	case "contains":
		return t.dialect.Contains(t.buf, subjectEmit, argEmit)
	case "startsWith":
		return t.dialect.StartsWith(t.buf, subjectEmit, argEmit)
	case "endsWith":
		return t.dialect.EndsWith(t.buf, subjectEmit, argEmit)
	default:
		return cerr.NewInternal(n.Pos(), fmt.Sprintf("unhandled string predicate %q", n.Name))
	}
}

func (t *Translator) emitSplit(n *ast.Call) error {
	subject, args, err := normalizeMethodCall(n, 1)
	if err != nil {
		return err
	}
	subjectEmit := func() error { return t.emit(subject, CtxString) }
	sepEmit := func() error { return t.emit(args[0], CtxString) }
	return t.dialect.Split(t.buf, subjectEmit, sepEmit)
}

func (t *Translator) emitJoin(n *ast.Call) error {
	list, args, err := normalizeMethodCall(n, 1)
	if err != nil {
		return err
	}
	listEmit := func() error { return t.emit(list, CtxAny) }
	sepEmit := func() error { return t.emit(args[0], CtxString) }
	return t.dialect.Join(t.buf, listEmit, sepEmit)
}

var temporalComponents = map[string]dialect.TemporalComponent{
	"getFullYear":   dialect.ComponentYear,
	"getMonth":      dialect.ComponentMonth,
	"getDayOfMonth": dialect.ComponentDayOfMonth,
	"getHours":      dialect.ComponentHours,
	"getMinutes":    dialect.ComponentMinutes,
	"getSeconds":    dialect.ComponentSeconds,
}

func (t *Translator) emitTemporalComponent(n *ast.Call) error {
	subject, _, err := normalizeMethodCall(n, 0)
	if err != nil {
		return err
	}
	component, ok := temporalComponents[n.Name]
	if !ok {
		return cerr.NewInternal(n.Pos(), fmt.Sprintf("unregistered temporal accessor %q", n.Name))
	}
	subjectEmit := func() error { return t.emit(subject, CtxAny) }
	return t.dialect.TemporalComponent(t.buf, subjectEmit, component)
}

// sizeShape is the locally-inferred receiver shape size() dispatches on
// (spec §4.6.6).
type sizeShape int

const (
	shapeString sizeShape = iota
	shapeArray
	shapeJSONArray
)

// emitSize implements size()'s three-way dispatch plus the AmbiguousSize
// fallback (spec §4.6.6).
func (t *Translator) emitSize(n *ast.Call) error {
	subject, _, err := normalizeMethodCall(n, 0)
	if err != nil {
		return err
	}
	shape, jsonReceiver, binary, err := t.inferSizeShape(subject)
	if err != nil {
		return err
	}
	switch shape {
	case shapeString:
		subjectEmit := func() error { return t.emit(subject, CtxString) }
		return t.dialect.StringLength(t.buf, subjectEmit)
	case shapeArray:
		subjectEmit := func() error { return t.emit(subject, CtxAny) }
		return t.dialect.ArrayLength(t.buf, subjectEmit)
	case shapeJSONArray:
		return t.dialect.JSONArrayLength(t.buf, jsonReceiver, binary)
	default:
		return cerr.NewAmbiguousSize(n.Pos())
	}
}

// inferSizeShape classifies subject using only the same local information
// available to infer()/isJSONChain: schema field kinds for registered
// roots, and a string-like default for everything else local inference
// cannot further narrow (bound comprehension variables, unregistered
// roots, and scalar fields), since the schema model carries no scalar
// subtype beyond "not JSON, not array".
func (t *Translator) inferSizeShape(subject ast.Node) (sizeShape, dialect.EmitFunc, bool, error) {
	if lit, ok := subject.(*ast.Literal); ok {
		if lit.Kind == ast.KindString {
			return shapeString, nil, false, nil
		}
		return 0, nil, false, cerr.NewAmbiguousSize(subject.Pos())
	}

	root, steps := unrollChain(subject)
	ident, isIdent := root.(*ast.Identifier)
	if !isIdent {
		return 0, nil, false, cerr.NewAmbiguousSize(subject.Pos())
	}
	if t.isBoundVar(ident.Name) {
		return shapeString, nil, false, nil
	}
	if len(steps) == 0 {
		return 0, nil, false, cerr.NewAmbiguousSize(subject.Pos())
	}
	tbl, ok := t.registry.Table(ident.Name)
	if !ok {
		return shapeString, nil, false, nil
	}
	first := steps[0]
	if first.kind != stepField {
		return 0, nil, false, cerr.NewAmbiguousSize(subject.Pos())
	}
	field, ok := tbl.Field(first.field)
	if !ok {
		return shapeString, nil, false, nil
	}

	switch field.Kind {
	case schema.KindArray:
		if len(steps) != 1 {
			return 0, nil, false, cerr.NewAmbiguousSize(subject.Pos())
		}
		return shapeArray, nil, false, nil
	case schema.KindJSON:
		qualified, err := t.qualifiedColumn(first.pos, ident.Name, first.field)
		if err != nil {
			return 0, nil, false, err
		}
		base := func() error { return t.buf.WriteString(qualified) }
		rest := steps[1:]
		if len(rest) == 0 {
			return shapeJSONArray, base, field.JSONBinary, nil
		}
		path, err := buildJSONPath(rest)
		if err != nil {
			return 0, nil, false, err
		}
		receiver := func() error {
			return t.dialect.JSONPathStep(t.buf, base, path, false, field.JSONBinary)
		}
		return shapeJSONArray, receiver, field.JSONBinary, nil
	case schema.KindScalar:
		if len(steps) != 1 {
			return 0, nil, false, cerr.NewAmbiguousSize(subject.Pos())
		}
		return shapeString, nil, false, nil
	default:
		return 0, nil, false, cerr.NewAmbiguousSize(subject.Pos())
	}
}
