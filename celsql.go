// Package celsql is the public entry point for the CEL→SQL translation
// kernel (spec §3.3, §5): a pure function of (ast, schemas, config) that
// never performs I/O and never retains state between calls. It wires
// together internal/buffer, internal/param, internal/dialect,
// internal/translate, and internal/advisor the way a query compiler wires
// a schema-aware walker and a dialect-capability table around a shared
// registry, except every piece here is request-scoped rather than held on
// a long-lived engine — there is no connection pool to own.
package celsql

import (
	"github.com/policyql/celsql/internal/advisor"
	"github.com/policyql/celsql/internal/ast"
	"github.com/policyql/celsql/internal/buffer"
	"github.com/policyql/celsql/internal/param"
	"github.com/policyql/celsql/internal/schema"
	"github.com/policyql/celsql/internal/translate"
)

// Recommendation mirrors internal/advisor.Recommendation in the public
// artifact shape spec §6.3 names: {table, columns[], operator, priority}.
type Recommendation struct {
	Table    string
	Columns  []string
	Operator string
	Priority int
}

// Artifact is the output shape spec §3.3/§6.3 defines. Parameters is always
// non-nil but empty in inline mode. The advisor runs on every call; its
// Recommendations are nil when no registry is given. AdviseOnly skips the
// translation pass instead and leaves SQL empty.
type Artifact struct {
	SQL             string
	Parameters      []interface{}
	Recommendations []Recommendation
}

// Translate compiles root into a dialect-valid WHERE-clause fragment per
// cfg. On error the returned Artifact is always the zero value — callers
// must not inspect a non-nil error's Artifact.
func Translate(root ast.Node, registry *schema.Registry, cfg Config) (Artifact, error) {
	d, err := resolveDialect(cfg.Dialect)
	if err != nil {
		return Artifact{}, err
	}
	mode, err := resolveMode(cfg.Mode)
	if err != nil {
		return Artifact{}, err
	}
	limits := cfg.limits()

	recs := adviseRecommendations(root, registry)

	if cfg.AdviseOnly {
		return Artifact{Parameters: []interface{}{}, Recommendations: recs}, nil
	}

	buf := buffer.New(limits)
	binder := param.New(d, mode, limits.MaxIdentifierLength, limits.MaxBytesLiteral)
	tr := translate.New(d, registry, binder, buf)

	if err := tr.Translate(root); err != nil {
		return Artifact{}, err
	}

	values := binder.Values()
	if values == nil {
		values = []interface{}{}
	}

	return Artifact{
		SQL:             buf.String(),
		Parameters:      values,
		Recommendations: recs,
	}, nil
}

func adviseRecommendations(root ast.Node, registry *schema.Registry) []Recommendation {
	raw := advisor.Collect(root, registry)
	if raw == nil {
		return nil
	}
	out := make([]Recommendation, 0, len(raw))
	for _, r := range raw {
		out = append(out, Recommendation{
			Table:    r.Table,
			Columns:  r.Columns,
			Operator: r.Operator,
			Priority: r.Priority,
		})
	}
	return out
}
