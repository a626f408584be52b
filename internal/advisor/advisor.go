// Package advisor implements the index-advisor walker (spec §4.7): a second,
// independent pass over the original CEL AST (never the translated SQL) that
// records every column referenced in a comparison or range predicate and
// aggregates them into single-column and composite index recommendations,
// equality predicates ordered before range predicates. It is grounded on the
// same traversal shape as internal/translate's walker but never writes SQL —
// it only classifies and counts.
package advisor

import (
	"sort"

	"github.com/policyql/celsql/internal/ast"
	"github.com/policyql/celsql/internal/schema"
)

// Class distinguishes the two predicate shapes the advisor cares about:
// equality (==, !=, in) is the most selective and always recommended first
// within a composite index; range (< <= > >=) follows.
type Class int

const (
	ClassEquality Class = iota
	ClassRange
)

func (c Class) String() string {
	if c == ClassRange {
		return "range"
	}
	return "equality"
}

// Recommendation is one single-column or composite index suggestion.
type Recommendation struct {
	Table    string
	Columns  []string
	Operator string // symbolic operator for a single-column recommendation; "composite" otherwise
	Class    Class
	Priority int // 0 is highest; equality-only groups rank above mixed, range-only ranks lowest
}

// columnRef is one resolved (table, column, operator) triple collected from
// a single comparison or has() predicate.
type columnRef struct {
	table    string
	column   string
	operator string
	class    Class
}

// Collect walks root and returns recommendations sorted by descending
// estimated usefulness (equality-heavy composites first, single-column
// equality next, then ranges). registry resolves identifier chains to
// (table, column) pairs the same way internal/translate does; an
// unregistered root contributes no recommendation (spec §4.2's "no schema,
// no inference" rule applies here too — the advisor has nothing to
// recommend an index over without knowing it is a real table).
func Collect(root ast.Node, registry *schema.Registry) []Recommendation {
	if root == nil || registry == nil {
		return nil
	}
	groups := walk(root, registry)

	byKey := map[string]*Recommendation{}
	var order []string
	for _, g := range groups {
		if len(g) == 0 {
			continue
		}
		table := g[0].table
		cols := make([]string, 0, len(g))
		seen := map[string]bool{}
		hasEquality, hasRange := false, false
		opSet := map[string]bool{}
		for _, ref := range g {
			if ref.table != table {
				// A group should never mix tables (each comparison resolves to
				// exactly one table); guard defensively and split by ignoring the
				// cross-table entry rather than producing a nonsensical composite.
				continue
			}
			if !seen[ref.column] {
				seen[ref.column] = true
				cols = append(cols, ref.column)
			}
			opSet[ref.operator] = true
			if ref.class == ClassEquality {
				hasEquality = true
			} else {
				hasRange = true
			}
		}
		if len(cols) == 0 {
			continue
		}
		sortColumnsEqualityFirst(cols, g)

		operator := soleOperator(opSet)
		if len(cols) > 1 {
			operator = "composite"
		}
		priority := priorityFor(hasEquality, hasRange, len(cols))

		key := table + "\x00" + joinCols(cols)
		if existing, ok := byKey[key]; ok {
			if priority < existing.Priority {
				existing.Priority = priority
			}
			continue
		}
		rec := &Recommendation{
			Table:    table,
			Columns:  cols,
			Operator: operator,
			Class:    classFor(hasEquality, hasRange),
			Priority: priority,
		}
		byKey[key] = rec
		order = append(order, key)
	}

	recs := make([]Recommendation, 0, len(order))
	for _, key := range order {
		recs = append(recs, *byKey[key])
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Priority < recs[j].Priority })
	return recs
}

func classFor(hasEquality, hasRange bool) Class {
	if hasEquality {
		return ClassEquality
	}
	_ = hasRange
	return ClassRange
}

// priorityFor ranks a group: equality-only multi-column composites first,
// then single equality columns, then mixed composites, then pure ranges.
func priorityFor(hasEquality, hasRange bool, numCols int) int {
	switch {
	case hasEquality && !hasRange && numCols > 1:
		return 0
	case hasEquality && !hasRange:
		return 1
	case hasEquality && hasRange:
		return 2
	default:
		return 3
	}
}

func soleOperator(opSet map[string]bool) string {
	ops := make([]string, 0, len(opSet))
	for op := range opSet {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	if len(ops) == 1 {
		return ops[0]
	}
	if len(ops) == 0 {
		return ""
	}
	return "mixed"
}

func joinCols(cols []string) string {
	out := cols[0]
	for _, c := range cols[1:] {
		out += "," + c
	}
	return out
}

// sortColumnsEqualityFirst reorders cols in place so that columns referenced
// by at least one equality predicate sort before columns referenced only by
// range predicates, preserving first-seen order within each bucket (spec
// §4.7: "prioritizing equality-before-range").
func sortColumnsEqualityFirst(cols []string, refs []columnRef) {
	bestClass := map[string]Class{}
	for _, r := range refs {
		cur, ok := bestClass[r.column]
		if !ok || r.class < cur {
			bestClass[r.column] = r.class
		}
	}
	sort.SliceStable(cols, func(i, j int) bool {
		return bestClass[cols[i]] < bestClass[cols[j]]
	})
}

// walk returns one group per set of predicates the advisor considers
// jointly indexable: every comparison/has() found while descending through
// AND forms one group (they co-occur in the same conjunction, so a
// composite index over all of them is viable); OR branches and conditional
// branches are mutually exclusive at runtime and so are kept as separate
// groups.
func walk(n ast.Node, registry *schema.Registry) [][]columnRef {
	switch v := n.(type) {
	case *ast.Binary:
		switch v.Op {
		case ast.OpAnd:
			left := walk(v.Left, registry)
			right := walk(v.Right, registry)
			return mergeConjunction(left, right)
		case ast.OpOr:
			var groups [][]columnRef
			groups = append(groups, walk(v.Left, registry)...)
			groups = append(groups, walk(v.Right, registry)...)
			return groups
		default:
			if ref, ok := extractComparison(v, registry); ok {
				return [][]columnRef{{ref}}
			}
			return nil
		}
	case *ast.Unary:
		if v.Op == ast.OpNot {
			return walk(v.Operand, registry)
		}
		return nil
	case *ast.Conditional:
		var groups [][]columnRef
		groups = append(groups, walk(v.Cond, registry)...)
		groups = append(groups, walk(v.Then, registry)...)
		groups = append(groups, walk(v.Else, registry)...)
		return groups
	case *ast.Call:
		if v.Name == "has" && len(v.Args) == 1 {
			if ref, ok := extractFieldRef(v.Args[0], registry, "has"); ok {
				return [][]columnRef{{ref}}
			}
		}
		return nil
	default:
		return nil
	}
}

// mergeConjunction cross-joins two sets of AND-ed groups into one: since &&
// is left-associative in practice each side normally carries at most one
// group, but the general cross-join keeps this correct for `(a || b) && c`,
// where left has two OR-branch groups that must each separately absorb c.
func mergeConjunction(left, right [][]columnRef) [][]columnRef {
	if len(left) == 0 {
		return right
	}
	if len(right) == 0 {
		return left
	}
	merged := make([][]columnRef, 0, len(left)*len(right))
	for _, l := range left {
		for _, r := range right {
			combined := make([]columnRef, 0, len(l)+len(r))
			combined = append(combined, l...)
			combined = append(combined, r...)
			merged = append(merged, combined)
		}
	}
	return merged
}

// extractComparison resolves a comparison's column reference from whichever
// side is a registered-table field chain (the other side is the value being
// compared against and is not itself indexable).
func extractComparison(n *ast.Binary, registry *schema.Registry) (columnRef, bool) {
	op := n.Op.String()
	class := ClassRange
	if n.Op == ast.OpEq || n.Op == ast.OpNe || n.Op == ast.OpIn {
		class = ClassEquality
	}
	if ref, ok := extractFieldRef(n.Left, registry, op); ok {
		ref.class = class
		return ref, true
	}
	if ref, ok := extractFieldRef(n.Right, registry, op); ok {
		ref.class = class
		return ref, true
	}
	return columnRef{}, false
}

// extractFieldRef resolves a single-level field access (table.column) rooted
// at a registered table. Deeper JSON paths are not recommended individually:
// expression/partial indexes over a JSON subpath are dialect-specific enough
// that a blanket recommendation would be more often wrong than useful, so
// the advisor only ever names the top-level JSON/array/scalar column itself.
func extractFieldRef(n ast.Node, registry *schema.Registry, operator string) (columnRef, bool) {
	fs, ok := n.(*ast.FieldSelect)
	if !ok {
		return columnRef{}, false
	}
	ident, ok := fs.Receiver.(*ast.Identifier)
	if !ok {
		return columnRef{}, false
	}
	tbl, ok := registry.Table(ident.Name)
	if !ok {
		return columnRef{}, false
	}
	if _, ok := tbl.Field(fs.Field); !ok {
		return columnRef{}, false
	}
	// class defaults to ClassEquality: has()'s caller sets nothing further,
	// which is correct since an existence test behaves like an equality
	// predicate for indexing purposes; extractComparison overwrites it for
	// the range operators.
	return columnRef{table: ident.Name, column: fs.Field, operator: operator}, true
}
