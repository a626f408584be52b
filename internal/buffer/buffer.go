// Package buffer implements the translation kernel's append-only output
// writer and the three resource counters that bound it (spec §4.3): byte
// length, AST recursion depth, and comprehension nesting depth. Every
// counter is checked before descent, never after, so an over-limit input
// produces no partial SQL.
package buffer

import (
	"strings"

	"github.com/policyql/celsql/internal/ast"
	"github.com/policyql/celsql/internal/cerr"
)

// Limits holds the six size-bound configuration values from spec §6.2.
// Zero values are not valid; use DefaultLimits() and override selectively.
type Limits struct {
	MaxOutputLength         int
	MaxDepth                int
	MaxComprehensionNesting int
	MaxPatternLength        int
	MaxIdentifierLength     int
	MaxBytesLiteral         int
}

// DefaultLimits returns the defaults spec §4.3/§6.2 specifies.
func DefaultLimits() Limits {
	return Limits{
		MaxOutputLength:         50000,
		MaxDepth:                100,
		MaxComprehensionNesting: 3,
		MaxPatternLength:        500,
		MaxIdentifierLength:     63,
		MaxBytesLiteral:         10000,
	}
}

// Buffer is the walker's single output sink plus its resource counters. It
// is per-call state (spec §5) and is never exposed mid-translation; callers
// read String() only after a successful, complete walk.
type Buffer struct {
	limits Limits
	sb     strings.Builder

	depth            int
	comprehension    int
	maxDepthSeen     int
	maxComprehension int
}

// New creates an empty Buffer governed by limits.
func New(limits Limits) *Buffer {
	return &Buffer{limits: limits}
}

// WriteString appends s and fails with OutputTooLarge if the cumulative
// length would exceed MaxOutputLength. The check happens before the write
// commits, so the buffer never silently holds over-limit content.
func (b *Buffer) WriteString(s string) error {
	if b.sb.Len()+len(s) > b.limits.MaxOutputLength {
		return cerr.NewOutputTooLarge(b.limits.MaxOutputLength)
	}
	b.sb.WriteString(s)
	return nil
}

// String returns the accumulated output.
func (b *Buffer) String() string {
	return b.sb.String()
}

// Len reports the current output length in bytes.
func (b *Buffer) Len() int {
	return b.sb.Len()
}

// EnterDepth must be called before descending into a child node. It fails
// with DepthExceeded without mutating buffer state further if the new depth
// would exceed MaxDepth. Callers must pair every successful EnterDepth with
// a deferred ExitDepth.
func (b *Buffer) EnterDepth(pos ast.Position) error {
	if b.depth+1 > b.limits.MaxDepth {
		return cerr.NewDepthExceeded(pos, b.limits.MaxDepth)
	}
	b.depth++
	if b.depth > b.maxDepthSeen {
		b.maxDepthSeen = b.depth
	}
	return nil
}

// ExitDepth undoes the corresponding EnterDepth.
func (b *Buffer) ExitDepth() {
	b.depth--
}

// EnterComprehension must be called before descending into a comprehension
// body. It fails with ComprehensionTooDeep if nesting would exceed
// MaxComprehensionNesting (spec: ">3 levels" is the default bound).
func (b *Buffer) EnterComprehension(pos ast.Position) error {
	if b.comprehension+1 > b.limits.MaxComprehensionNesting {
		return cerr.NewComprehensionTooDeep(pos, b.limits.MaxComprehensionNesting)
	}
	b.comprehension++
	if b.comprehension > b.maxComprehension {
		b.maxComprehension = b.comprehension
	}
	return nil
}

// ExitComprehension undoes the corresponding EnterComprehension.
func (b *Buffer) ExitComprehension() {
	b.comprehension--
}

// Limits exposes the configured bounds for checks that live outside Buffer
// (the pattern-length check in translate/regex).
func (b *Buffer) Limits() Limits {
	return b.limits
}
