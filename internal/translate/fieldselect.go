package translate

import (
	"fmt"

	"github.com/policyql/celsql/internal/ast"
	"github.com/policyql/celsql/internal/cerr"
	"github.com/policyql/celsql/internal/dialect"
	"github.com/policyql/celsql/internal/schema"
)

type stepKind int

const (
	stepField stepKind = iota
	stepIndex
)

// chainStep is one link of an unrolled FieldSelect/Index chain (spec
// §4.6.3). keyNode is only set for stepIndex and is the CEL expression
// computing the index/key.
type chainStep struct {
	kind      stepKind
	field     string
	keyNode   ast.Node
	indexKind ast.IndexKind
	pos       ast.Position
}

func stepName(step chainStep) string {
	if step.kind == stepField {
		return step.field
	}
	return "[index]"
}

// unrollChain walks a right-leaning FieldSelect/Index tree down to its
// root, returning the root node and the chain of steps in left-to-right
// (outermost-receiver-first) order.
func unrollChain(node ast.Node) (ast.Node, []chainStep) {
	var steps []chainStep
	cur := node
	for {
		switch n := cur.(type) {
		case *ast.FieldSelect:
			steps = append(steps, chainStep{kind: stepField, field: n.Field, pos: n.Pos()})
			cur = n.Receiver
		case *ast.Index:
			steps = append(steps, chainStep{kind: stepIndex, keyNode: n.Key, indexKind: n.Kind, pos: n.Pos()})
			cur = n.Receiver
		default:
			for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
				steps[i], steps[j] = steps[j], steps[i]
			}
			return cur, steps
		}
	}
}

// resolveChain builds the composed emit-thunk for a FieldSelect/Index
// chain used as a value (spec §9's emit-thunk design: the chain is built
// bottom-up as closures rather than written incrementally, since a
// wrapping dialect capability like ArrayElement/JSONPathStep must control
// the text around an already-resolved receiver).
func (t *Translator) resolveChain(node ast.Node) (dialect.EmitFunc, error) {
	return t.resolveChainEx(node, true)
}

// resolveChainEx is resolveChain parameterized by scalarExtract: false asks
// for the subtree form. resolveChain, its only caller, passes true.
func (t *Translator) resolveChainEx(node ast.Node, scalarExtract bool) (dialect.EmitFunc, error) {
	root, steps := unrollChain(node)
	if ident, ok := root.(*ast.Identifier); ok {
		if t.isBoundVar(ident.Name) {
			return t.resolvePlainChain(ident.Name, steps, scalarExtract)
		}
		if tbl, ok := t.registry.Table(ident.Name); ok {
			return t.resolveRootedChain(ident, tbl, steps, scalarExtract)
		}
		return t.resolvePlainChain(ident.Name, steps, scalarExtract)
	}
	base := func() error { return t.emit(root, CtxAny) }
	return t.applyChainSteps(base, steps, scalarExtract)
}

// resolveRootedChain dispatches on the schema kind of the first field
// reached from a registered table root (spec §4.6.3).
func (t *Translator) resolveRootedChain(root *ast.Identifier, tbl schema.Table, steps []chainStep, scalarExtract bool) (dialect.EmitFunc, error) {
	if len(steps) == 0 {
		return func() error {
			quoted, err := t.binder.QuoteIdentifier(root.Pos(), root.Name)
			if err != nil {
				return err
			}
			return t.buf.WriteString(quoted)
		}, nil
	}
	first := steps[0]
	if first.kind != stepField {
		return nil, cerr.NewUnsupportedFeature(first.pos, "indexing a table root directly")
	}
	field, ok := tbl.Field(first.field)
	if !ok {
		// Unregistered field on a registered table: no schema information to
		// lower against, so degrade to a plain qualified column the same way
		// an entirely-unregistered table would (spec §4.2).
		return t.resolvePlainChain(root.Name, steps, scalarExtract)
	}
	qualified, err := t.qualifiedColumn(first.pos, root.Name, first.field)
	if err != nil {
		return nil, err
	}
	base := func() error { return t.buf.WriteString(qualified) }
	rest := steps[1:]

	switch field.Kind {
	case schema.KindScalar:
		if len(rest) > 0 && !field.Computed {
			return nil, cerr.NewNonJSONPath(rest[0].pos, stepName(rest[0]))
		}
		if len(rest) > 0 {
			// A computed scalar column may still be indexed as if it were the
			// value it computes; fall through to the generic chain applier
			// using the computed expression as receiver.
			return t.applyChainSteps(base, rest, scalarExtract)
		}
		return base, nil

	case schema.KindArray:
		if len(rest) == 0 {
			return base, nil
		}
		return t.applyChainSteps(base, rest, scalarExtract)

	case schema.KindJSON:
		path, err := buildJSONPath(rest)
		if err != nil {
			return nil, err
		}
		return func() error {
			return t.dialect.JSONPathStep(t.buf, base, path, scalarExtract, field.JSONBinary)
		}, nil

	default:
		return nil, cerr.NewInternal(first.pos, fmt.Sprintf("unhandled field kind %v", field.Kind))
	}
}

// resolvePlainChain is the degraded, no-schema-information path: the root
// identifier is either a bound comprehension variable or a name absent
// from the registry entirely, so every step is rendered as a generic
// dotted/indexed access with no JSON-regime switch (spec §4.2).
func (t *Translator) resolvePlainChain(rootName string, steps []chainStep, scalarExtract bool) (dialect.EmitFunc, error) {
	base := func() error {
		if v, ok := t.lookupScope(rootName); ok {
			return t.buf.WriteString(v.alias)
		}
		quoted, err := t.binder.QuoteIdentifier(ast.Position{}, rootName)
		if err != nil {
			return err
		}
		return t.buf.WriteString(quoted)
	}
	return t.applyChainSteps(base, steps, scalarExtract)
}

// applyChainSteps folds steps onto base, composing one wrapping closure per
// step. Only the final step honors the caller's scalarExtract request;
// every intermediate step always asks for the subtree/raw form so the
// chain can keep indexing further.
func (t *Translator) applyChainSteps(base dialect.EmitFunc, steps []chainStep, scalarExtract bool) (dialect.EmitFunc, error) {
	emit := base
	for i, step := range steps {
		step := step
		prev := emit
		last := i == len(steps)-1
		switch step.kind {
		case stepField:
			emit = func() error {
				if err := prev(); err != nil {
					return err
				}
				quoted, err := t.binder.QuoteIdentifier(step.pos, step.field)
				if err != nil {
					return err
				}
				return t.buf.WriteString("." + quoted)
			}
		case stepIndex:
			indexEmit := func() error { return t.emit(step.keyNode, CtxNumeric) }
			se := last && scalarExtract
			emit = func() error {
				return t.dialect.ArrayElement(t.buf, prev, indexEmit, se)
			}
		default:
			return nil, cerr.NewInternal(step.pos, "unhandled chain step kind")
		}
	}
	return emit, nil
}

// buildJSONPath converts the steps following the JSON-typed root field into
// a dialect-agnostic path: field names are used as-is, list indices and map
// keys must be literal (a dynamic path is a resource-safety hazard the
// same way a non-literal regex pattern is, spec §4.6.7's analogous
// reasoning).
func buildJSONPath(steps []chainStep) ([]string, error) {
	path := make([]string, 0, len(steps))
	for _, s := range steps {
		switch s.kind {
		case stepField:
			path = append(path, s.field)
		case stepIndex:
			lit, ok := s.keyNode.(*ast.Literal)
			if !ok {
				return nil, cerr.NewUnsupportedFeature(s.pos, "non-literal index in a JSON path")
			}
			switch s.indexKind {
			case ast.IndexKey:
				str, ok := lit.Value.(string)
				if !ok {
					return nil, cerr.NewUnsupportedFeature(s.pos, "non-string key in a JSON path")
				}
				path = append(path, str)
			case ast.IndexList:
				switch lit.Kind {
				case ast.KindInt, ast.KindUint:
					path = append(path, fmt.Sprintf("%v", lit.Value))
				default:
					return nil, cerr.NewUnsupportedFeature(s.pos, "non-integer array index in a JSON path")
				}
			}
		}
	}
	return path, nil
}

func (t *Translator) qualifiedColumn(pos ast.Position, table, field string) (string, error) {
	qt, err := t.binder.QuoteIdentifier(pos, table)
	if err != nil {
		return "", err
	}
	qf, err := t.binder.QuoteIdentifier(pos, field)
	if err != nil {
		return "", err
	}
	return qt + "." + qf, nil
}

// emitHas implements has()'s duality (spec §4.6.4): scalar/array fields
// lower to IS NOT NULL; JSON fields try the dialect's key-exists operator
// first and fall back to IS NOT NULL on the extracted path when the
// dialect has none (JSONKeyExists's ok==false).
func (t *Translator) emitHas(n *ast.Call) error {
	if len(n.Args) != 1 {
		return cerr.NewUnsupportedFeature(n.Pos(), "has() requires exactly one argument")
	}
	root, steps := unrollChain(n.Args[0])
	ident, isIdent := root.(*ast.Identifier)
	if !isIdent {
		return cerr.NewUnsupportedFeature(n.Pos(), "has() target must be a field reference")
	}
	if t.isBoundVar(ident.Name) {
		return t.emitHasPlain(ident.Name, steps)
	}
	if tbl, ok := t.registry.Table(ident.Name); ok {
		return t.emitHasRooted(n.Pos(), ident, tbl, steps)
	}
	if len(steps) == 0 {
		// has() on a bare name that is neither a bound variable nor part of a
		// larger field-select chain has nothing resolvable to test (spec
		// §4.6.4/§7's UnresolvedIdentifier — the one case bare identifiers do
		// fail, since has() fundamentally needs a field reference target).
		return cerr.NewUnresolvedIdentifier(n.Pos(), ident.Name)
	}
	return t.emitHasPlain(ident.Name, steps)
}

func (t *Translator) emitHasPlain(rootName string, steps []chainStep) error {
	emit, err := t.resolvePlainChain(rootName, steps, true)
	if err != nil {
		return err
	}
	if err := emit(); err != nil {
		return err
	}
	return t.buf.WriteString(" IS NOT NULL")
}

func (t *Translator) emitHasRooted(pos ast.Position, root *ast.Identifier, tbl schema.Table, steps []chainStep) error {
	if len(steps) == 0 {
		return cerr.NewUnresolvedIdentifier(pos, root.Name)
	}
	first := steps[0]
	if first.kind != stepField {
		return cerr.NewUnsupportedFeature(pos, "has() requires a field reference")
	}
	field, ok := tbl.Field(first.field)
	if !ok {
		return t.emitHasPlain(root.Name, steps)
	}
	switch field.Kind {
	case schema.KindScalar, schema.KindArray:
		emit, err := t.resolveRootedChain(root, tbl, steps, true)
		if err != nil {
			return err
		}
		if err := emit(); err != nil {
			return err
		}
		return t.buf.WriteString(" IS NOT NULL")
	case schema.KindJSON:
		qualified, err := t.qualifiedColumn(first.pos, root.Name, first.field)
		if err != nil {
			return err
		}
		receiver := func() error { return t.buf.WriteString(qualified) }
		path, err := buildJSONPath(steps[1:])
		if err != nil {
			return err
		}
		ok, err := t.dialect.JSONKeyExists(t.buf, receiver, path, field.JSONBinary)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		// Dialect has no key-exists operator: fall back to IS NOT NULL on the
		// extracted path (spec §4.6.4).
		if err := t.dialect.JSONPathStep(t.buf, receiver, path, true, field.JSONBinary); err != nil {
			return err
		}
		return t.buf.WriteString(" IS NOT NULL")
	default:
		return cerr.NewInternal(pos, fmt.Sprintf("unhandled field kind %v", field.Kind))
	}
}
