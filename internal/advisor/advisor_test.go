package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policyql/celsql/internal/ast"
	"github.com/policyql/celsql/internal/schema"
)

func ordersRegistry() *schema.Registry {
	return schema.NewRegistry(schema.Table{
		Name: "orders",
		Fields: []schema.Field{
			{Name: "customer_id", Kind: schema.KindScalar},
			{Name: "status", Kind: schema.KindScalar},
			{Name: "created_at", Kind: schema.KindScalar},
			{Name: "amount", Kind: schema.KindScalar},
			{Name: "metadata", Kind: schema.KindJSON, JSONBinary: true},
		},
	})
}

func id(name string) *ast.Identifier { return &ast.Identifier{Name: name} }

func col(table, field string) *ast.FieldSelect {
	return &ast.FieldSelect{Receiver: id(table), Field: field}
}

func strV(v string) *ast.Literal { return &ast.Literal{Kind: ast.KindString, Value: v} }

func intV(v int64) *ast.Literal { return &ast.Literal{Kind: ast.KindInt, Value: v} }

func TestSingleEqualityPredicateProducesOneRecommendation(t *testing.T) {
	root := &ast.Binary{Op: ast.OpEq, Left: col("orders", "customer_id"), Right: strV("abc123")}
	recs := Collect(root, ordersRegistry())
	require.Len(t, recs, 1)
	assert.Equal(t, "orders", recs[0].Table)
	assert.Equal(t, []string{"customer_id"}, recs[0].Columns)
	assert.Equal(t, "==", recs[0].Operator)
	assert.Equal(t, ClassEquality, recs[0].Class)
}

func TestTwoEqualityPredicatesAndedProduceCompositeRecommendation(t *testing.T) {
	root := &ast.Binary{
		Op:   ast.OpAnd,
		Left: &ast.Binary{Op: ast.OpEq, Left: col("orders", "customer_id"), Right: strV("abc123")},
		Right: &ast.Binary{
			Op:    ast.OpEq,
			Left:  col("orders", "status"),
			Right: strV("active"),
		},
	}
	recs := Collect(root, ordersRegistry())
	require.Len(t, recs, 1)
	assert.Equal(t, []string{"customer_id", "status"}, recs[0].Columns)
	assert.Equal(t, "composite", recs[0].Operator)
	assert.Equal(t, 0, recs[0].Priority)
}

// An equality column and a range column ANDed together still recommend a
// composite index, but the equality column sorts first and the priority is
// worse than an equality-only composite.
func TestEqualityAndRangeAndedOrdersEqualityColumnFirst(t *testing.T) {
	root := &ast.Binary{
		Op:   ast.OpAnd,
		Left: &ast.Binary{Op: ast.OpGt, Left: col("orders", "amount"), Right: intV(100)},
		Right: &ast.Binary{
			Op:    ast.OpEq,
			Left:  col("orders", "customer_id"),
			Right: strV("abc123"),
		},
	}
	recs := Collect(root, ordersRegistry())
	require.Len(t, recs, 1)
	assert.Equal(t, []string{"customer_id", "amount"}, recs[0].Columns)
	assert.Equal(t, "composite", recs[0].Operator)
	assert.True(t, recs[0].Priority > 0)
}

// OR-ed predicates are mutually exclusive at runtime and never combined into
// one composite recommendation.
func TestOrredPredicatesProduceSeparateRecommendations(t *testing.T) {
	root := &ast.Binary{
		Op:   ast.OpOr,
		Left: &ast.Binary{Op: ast.OpEq, Left: col("orders", "customer_id"), Right: strV("abc123")},
		Right: &ast.Binary{
			Op:    ast.OpEq,
			Left:  col("orders", "status"),
			Right: strV("done"),
		},
	}
	recs := Collect(root, ordersRegistry())
	require.Len(t, recs, 2)
	var cols []string
	for _, r := range recs {
		cols = append(cols, r.Columns[0])
	}
	assert.ElementsMatch(t, []string{"customer_id", "status"}, cols)
}

func TestPureRangePredicateIsLowestPriority(t *testing.T) {
	root := &ast.Binary{Op: ast.OpGt, Left: col("orders", "created_at"), Right: strV("2024-01-01")}
	recs := Collect(root, ordersRegistry())
	require.Len(t, recs, 1)
	assert.Equal(t, ClassRange, recs[0].Class)
	assert.Equal(t, 3, recs[0].Priority)
}

func TestHasPredicateCountsAsEqualityClass(t *testing.T) {
	root := &ast.Call{Name: "has", Args: []ast.Node{col("orders", "metadata")}}
	recs := Collect(root, ordersRegistry())
	require.Len(t, recs, 1)
	assert.Equal(t, ClassEquality, recs[0].Class)
	assert.Equal(t, []string{"metadata"}, recs[0].Columns)
}

// An unregistered table contributes no recommendation: the advisor has
// nothing to suggest an index over without schema information.
func TestUnregisteredTableProducesNoRecommendation(t *testing.T) {
	root := &ast.Binary{Op: ast.OpEq, Left: col("unknown", "field"), Right: strV("x")}
	recs := Collect(root, ordersRegistry())
	assert.Empty(t, recs)
}

func TestThreeWayAndChainFoldsIntoOneCompositeWithRangeLast(t *testing.T) {
	root := &ast.Binary{
		Op:   ast.OpAnd,
		Left: &ast.Binary{Op: ast.OpGt, Left: col("orders", "created_at"), Right: strV("2024-01-01")},
		Right: &ast.Binary{
			Op:   ast.OpAnd,
			Left: &ast.Binary{Op: ast.OpEq, Left: col("orders", "customer_id"), Right: strV("abc123")},
			Right: &ast.Binary{
				Op:    ast.OpEq,
				Left:  col("orders", "status"),
				Right: strV("active"),
			},
		},
	}
	recs := Collect(root, ordersRegistry())
	require.Len(t, recs, 1)
	// All three columns fold into a single conjunction group since the whole
	// tree is one chain of ANDs; range "created_at" sorts after the two
	// equality columns.
	assert.Equal(t, []string{"customer_id", "status", "created_at"}, recs[0].Columns)
}

// An OR of a fully-equality conjunction and a pure range predicate produces
// two recommendations, the equality composite ranked ahead of the range one.
func TestRecommendationsAreSortedByPriority(t *testing.T) {
	equalityGroup := &ast.Binary{
		Op:   ast.OpAnd,
		Left: &ast.Binary{Op: ast.OpEq, Left: col("orders", "customer_id"), Right: strV("abc123")},
		Right: &ast.Binary{
			Op:    ast.OpEq,
			Left:  col("orders", "status"),
			Right: strV("active"),
		},
	}
	rangeGroup := &ast.Binary{Op: ast.OpGt, Left: col("orders", "created_at"), Right: strV("2024-01-01")}
	root := &ast.Binary{Op: ast.OpOr, Left: equalityGroup, Right: rangeGroup}

	recs := Collect(root, ordersRegistry())
	require.Len(t, recs, 2)
	assert.Equal(t, []string{"customer_id", "status"}, recs[0].Columns)
	assert.Equal(t, 0, recs[0].Priority)
	assert.Equal(t, []string{"created_at"}, recs[1].Columns)
	assert.Equal(t, 3, recs[1].Priority)
}
