package celsql

import (
	"fmt"

	"github.com/policyql/celsql/internal/buffer"
	"github.com/policyql/celsql/internal/dialect"
	"github.com/policyql/celsql/internal/param"
)

// Config follows a plain-struct-with-defaults configuration shape
// (core/config.go): every field has a documented default and the zero
// value of Config is never used directly — callers start from
// DefaultConfig() and override selectively (spec §6.2).
type Config struct {
	// Dialect selects the SQL target: "postgresql", "mysql", "sqlite",
	// "duckdb", or "bigquery".
	Dialect string

	// Mode selects literal rendering: "inline" or "parameterized".
	Mode string

	// AdviseOnly, when true, skips the translation walk entirely and runs
	// only the index advisor, returning an artifact with SQL/Parameters
	// left empty (SPEC_FULL.md §4's dry-run/explain-mode supplement).
	AdviseOnly bool

	MaxDepth                int
	MaxOutputLength         int
	MaxComprehensionNesting int
	MaxPatternLength        int
	MaxIdentifierLength     int
	MaxBytesLiteral         int
}

// DefaultConfig returns the spec §6.2 defaults with Dialect "postgresql"
// and Mode "inline".
func DefaultConfig() Config {
	limits := buffer.DefaultLimits()
	return Config{
		Dialect:                 "postgresql",
		Mode:                    "inline",
		MaxDepth:                limits.MaxDepth,
		MaxOutputLength:         limits.MaxOutputLength,
		MaxComprehensionNesting: limits.MaxComprehensionNesting,
		MaxPatternLength:        limits.MaxPatternLength,
		MaxIdentifierLength:     limits.MaxIdentifierLength,
		MaxBytesLiteral:         limits.MaxBytesLiteral,
	}
}

func (c Config) limits() buffer.Limits {
	l := buffer.DefaultLimits()
	if c.MaxDepth > 0 {
		l.MaxDepth = c.MaxDepth
	}
	if c.MaxOutputLength > 0 {
		l.MaxOutputLength = c.MaxOutputLength
	}
	if c.MaxComprehensionNesting > 0 {
		l.MaxComprehensionNesting = c.MaxComprehensionNesting
	}
	if c.MaxPatternLength > 0 {
		l.MaxPatternLength = c.MaxPatternLength
	}
	if c.MaxIdentifierLength > 0 {
		l.MaxIdentifierLength = c.MaxIdentifierLength
	}
	if c.MaxBytesLiteral > 0 {
		l.MaxBytesLiteral = c.MaxBytesLiteral
	}
	return l
}

func resolveDialect(name string) (dialect.Dialect, error) {
	switch name {
	case "postgresql", "":
		return &dialect.PostgresDialect{}, nil
	case "mysql":
		return &dialect.MySQLDialect{}, nil
	case "sqlite":
		return &dialect.SQLiteDialect{}, nil
	case "duckdb":
		return &dialect.DuckDBDialect{}, nil
	case "bigquery":
		return &dialect.BigQueryDialect{}, nil
	default:
		return nil, fmt.Errorf("celsql: unknown dialect %q", name)
	}
}

func resolveMode(mode string) (param.Mode, error) {
	switch mode {
	case "inline", "":
		return param.Inline, nil
	case "parameterized":
		return param.Parameterized, nil
	default:
		return param.Inline, fmt.Errorf("celsql: unknown mode %q", mode)
	}
}
