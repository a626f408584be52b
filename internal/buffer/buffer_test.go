package buffer

import (
	"testing"

	"github.com/policyql/celsql/internal/ast"
	"github.com/policyql/celsql/internal/cerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteStringRespectsMaxOutputLength(t *testing.T) {
	b := New(Limits{MaxOutputLength: 5, MaxDepth: 10, MaxComprehensionNesting: 3})
	require.NoError(t, b.WriteString("abcde"))
	err := b.WriteString("f")
	require.Error(t, err)
	var ce *cerr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, cerr.OutputTooLarge, ce.Kind)
	assert.Equal(t, "abcde", b.String(), "buffer must not contain the rejected append")
}

func TestDepthCheckedBeforeDescent(t *testing.T) {
	b := New(Limits{MaxOutputLength: 1000, MaxDepth: 2, MaxComprehensionNesting: 3})
	require.NoError(t, b.EnterDepth(ast.Position{}))
	require.NoError(t, b.EnterDepth(ast.Position{}))
	err := b.EnterDepth(ast.Position{})
	require.Error(t, err)
	var ce *cerr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, cerr.DepthExceeded, ce.Kind)
}

func TestComprehensionNesting(t *testing.T) {
	b := New(Limits{MaxOutputLength: 1000, MaxDepth: 100, MaxComprehensionNesting: 3})
	for i := 0; i < 3; i++ {
		require.NoError(t, b.EnterComprehension(ast.Position{}))
	}
	err := b.EnterComprehension(ast.Position{})
	require.Error(t, err)
	var ce *cerr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, cerr.ComprehensionTooDeep, ce.Kind)
}

func TestExitRestoresCapacity(t *testing.T) {
	b := New(Limits{MaxOutputLength: 1000, MaxDepth: 1, MaxComprehensionNesting: 1})
	require.NoError(t, b.EnterDepth(ast.Position{}))
	b.ExitDepth()
	require.NoError(t, b.EnterDepth(ast.Position{}))
}
