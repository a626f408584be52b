package cerr

import (
	"errors"
	"testing"

	"github.com/policyql/celsql/internal/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicNeverLeaksDetail(t *testing.T) {
	e := NewUnresolvedIdentifier(ast.Position{Line: 3, Column: 1}, "usr.secret_token")
	assert.NotContains(t, e.Public(), "usr.secret_token")
	assert.Contains(t, e.Diagnostic(), "usr.secret_token")
}

func TestDiagnosticIncludesPosition(t *testing.T) {
	e := NewDepthExceeded(ast.Position{Line: 7, Column: 2}, 100)
	assert.Contains(t, e.Diagnostic(), "7:2")
	assert.Contains(t, e.Diagnostic(), "DepthExceeded")
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("boom")
	e := NewInternal(ast.Position{}, "wrapped").Wrap(cause)
	require.ErrorIs(t, e, cause)
}

func TestIsMatchesByKind(t *testing.T) {
	a := NewOutputTooLarge(50000)
	b := New(OutputTooLarge, "")
	assert.True(t, errors.Is(a, b))

	c := New(Internal, "")
	assert.False(t, errors.Is(a, c))
}
