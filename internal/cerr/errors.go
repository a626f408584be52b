// Package cerr implements the translation kernel's dual-channel diagnostics
// (spec §4.8, §7): every error carries a public message safe to surface to
// end users and a diagnostic message with node position and internal
// context, so callers never accidentally leak user literals or internal
// tree shape (CWE-209) by logging the wrong one.
package cerr

import (
	"fmt"

	"github.com/policyql/celsql/internal/ast"
)

// Kind enumerates the error taxonomy from spec §7. It is a classification,
// not a Go type hierarchy — callers switch on Kind, not on error type.
type Kind int

const (
	ParseRejected Kind = iota
	UnsupportedFeature
	UnresolvedIdentifier
	TypeMismatch
	AmbiguousSize
	NonJSONPath
	RegexUnsupported
	InvalidIdentifier
	DepthExceeded
	OutputTooLarge
	ComprehensionTooDeep
	PatternTooLong
	BytesTooLarge
	Internal
)

func (k Kind) String() string {
	switch k {
	case ParseRejected:
		return "ParseRejected"
	case UnsupportedFeature:
		return "UnsupportedFeature"
	case UnresolvedIdentifier:
		return "UnresolvedIdentifier"
	case TypeMismatch:
		return "TypeMismatch"
	case AmbiguousSize:
		return "AmbiguousSize"
	case NonJSONPath:
		return "NonJSONPath"
	case RegexUnsupported:
		return "RegexUnsupported"
	case InvalidIdentifier:
		return "InvalidIdentifier"
	case DepthExceeded:
		return "DepthExceeded"
	case OutputTooLarge:
		return "OutputTooLarge"
	case ComprehensionTooDeep:
		return "ComprehensionTooDeep"
	case PatternTooLong:
		return "PatternTooLong"
	case BytesTooLarge:
		return "BytesTooLarge"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Error is the one exported error type the kernel returns. It satisfies the
// standard error interface via Error(), which returns the diagnostic form —
// internal callers (logs, tests) usually want the detail. Public-facing
// callers must call Public() explicitly so the safe/unsafe choice is always
// visible at the call site.
type Error struct {
	Kind Kind
	// publicMsg contains no literal fragments from user input and no
	// internal node paths (spec §7).
	publicMsg string
	// detail adds position/context information safe only for internal logs.
	detail string
	Pos    ast.Position
	cause  error
}

func (e *Error) Error() string {
	return e.Diagnostic()
}

// Public returns the message safe to show to an end user.
func (e *Error) Public() string {
	return e.publicMsg
}

// Diagnostic returns the full internal message: kind, position, and detail.
// Never pass this string to a public-facing response.
func (e *Error) Diagnostic() string {
	if e.detail == "" {
		return fmt.Sprintf("%s at %d:%d", e.Kind, e.Pos.Line, e.Pos.Column)
	}
	return fmt.Sprintf("%s at %d:%d: %s", e.Kind, e.Pos.Line, e.Pos.Column, e.detail)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New builds an Error with a public message, independent of any position or
// internal detail. Use Wrap/WithDetail to attach those when available.
func New(kind Kind, public string) *Error {
	return &Error{Kind: kind, publicMsg: public}
}

// WithPos returns a copy of e with position information attached.
func (e *Error) WithPos(pos ast.Position) *Error {
	c := *e
	c.Pos = pos
	return &c
}

// WithDetail returns a copy of e with internal-only diagnostic detail
// attached. detail must never be derived from e.publicMsg in a way that
// could leak it back out through Error(); it is fine for detail itself to
// include literal fragments since Diagnostic() is never meant for end users.
func (e *Error) WithDetail(format string, args ...interface{}) *Error {
	c := *e
	c.detail = fmt.Sprintf(format, args...)
	return &c
}

// Wrap attaches a lower-level cause, preserved via errors.Unwrap/errors.Is.
func (e *Error) Wrap(cause error) *Error {
	c := *e
	c.cause = cause
	return &c
}

// Is supports errors.Is(err, cerr.New(cerr.DepthExceeded, "")) style checks
// against a bare Kind sentinel constructed with New(kind, "").
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Preset constructors for the resource-limit kinds, whose public messages
// never vary by call site (spec §4.3).

func NewDepthExceeded(pos ast.Position, max int) *Error {
	return New(DepthExceeded, "expression is nested too deeply").
		WithPos(pos).
		WithDetail("max_depth=%d exceeded", max)
}

func NewOutputTooLarge(max int) *Error {
	return New(OutputTooLarge, "compiled query exceeds the maximum allowed size").
		WithDetail("max_output_length=%d exceeded", max)
}

func NewComprehensionTooDeep(pos ast.Position, max int) *Error {
	return New(ComprehensionTooDeep, "expression uses too many nested comprehensions").
		WithPos(pos).
		WithDetail("max_comprehension_nesting=%d exceeded", max)
}

func NewPatternTooLong(pos ast.Position, max int) *Error {
	return New(PatternTooLong, "regular expression pattern is too long").
		WithPos(pos).
		WithDetail("max_pattern_length=%d exceeded", max)
}

func NewBytesTooLarge(pos ast.Position, max int) *Error {
	return New(BytesTooLarge, "bytes literal is too large").
		WithPos(pos).
		WithDetail("max_bytes_literal=%d exceeded", max)
}

func NewInvalidIdentifier(pos ast.Position, name string, max int) *Error {
	return New(InvalidIdentifier, "a field or table name is invalid").
		WithPos(pos).
		WithDetail("identifier %q exceeds max_identifier_length=%d or contains disallowed characters", name, max)
}

func NewUnresolvedIdentifier(pos ast.Position, name string) *Error {
	return New(UnresolvedIdentifier, "expression references an unknown name").
		WithPos(pos).
		WithDetail("identifier %q not found in schema registry and not a reserved literal", name)
}

func NewUnsupportedFeature(pos ast.Position, what string) *Error {
	return New(UnsupportedFeature, "expression uses an unsupported feature").
		WithPos(pos).
		WithDetail("%s is outside the accepted CEL surface", what)
}

func NewTypeMismatch(pos ast.Position, op string) *Error {
	return New(TypeMismatch, "expression has incompatible operand types").
		WithPos(pos).
		WithDetail("operator %q rejects the inferred operand type", op)
}

func NewAmbiguousSize(pos ast.Position) *Error {
	return New(AmbiguousSize, "size() could not be resolved for this expression").
		WithPos(pos).
		WithDetail("receiver type for size() is unresolvable from local inference")
}

func NewNonJSONPath(pos ast.Position, field string) *Error {
	return New(NonJSONPath, "field access is not valid here").
		WithPos(pos).
		WithDetail("field %q follows a scalar column; only JSON-typed roots support chained field access", field)
}

func NewRegexUnsupported(pos ast.Position, dialect, reason string) *Error {
	return New(RegexUnsupported, "this regular expression is not supported by the target database").
		WithPos(pos).
		WithDetail("dialect %s: %s", dialect, reason)
}

func NewInternal(pos ast.Position, detail string) *Error {
	return New(Internal, "an internal error occurred while compiling the expression").
		WithPos(pos).
		WithDetail("%s", detail)
}
