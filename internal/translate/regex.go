package translate

import (
	"github.com/policyql/celsql/internal/ast"
	"github.com/policyql/celsql/internal/cerr"
)

// emitMatches implements matches(subject, pattern) (spec §4.6.7). The
// pattern must be a literal string — a non-literal pattern would let
// caller-controlled data reach the regex engine uncompiled-in-spirit,
// which spec §4.6.7 calls out as a resource-safety hazard akin to a
// dynamic JSON path.
func (t *Translator) emitMatches(n *ast.Call) error {
	subject, args, err := normalizeMethodCall(n, 1)
	if err != nil {
		return err
	}
	patternLit, ok := args[0].(*ast.Literal)
	if !ok || patternLit.Kind != ast.KindString {
		return cerr.NewUnsupportedFeature(n.Pos(), "matches() pattern must be a literal string")
	}
	pattern, _ := patternLit.Value.(string)
	if max := t.buf.Limits().MaxPatternLength; len(pattern) > max {
		return cerr.NewPatternTooLong(patternLit.Pos(), max)
	}
	subjectEmit := func() error { return t.emit(subject, CtxString) }
	if err := t.dialect.WriteMatches(t.buf, subjectEmit, pattern, false); err != nil {
		return cerr.NewRegexUnsupported(n.Pos(), t.dialect.Name(), err.Error())
	}
	return nil
}
