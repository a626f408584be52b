package dialect

import (
	"encoding/hex"
)

// DuckDBDialect embeds PostgresDialect the way SnowflakeDialect embeds
// PostgresDialect (core/internal/dialect/snowflake.go) — DuckDB's
// analytical-SQL surface matches Postgres closely enough for every
// operator this kernel emits that only JSON handling, byte literals, regex
// matching, and list aggregation need overriding.
type DuckDBDialect struct {
	PostgresDialect
}

var _ Dialect = (*DuckDBDialect)(nil)

func (d *DuckDBDialect) Name() string { return "duckdb" }

// DuckDB has no bytea hex-escape convention; BLOB literals are written as
// a hex string cast to BLOB.
func (d *DuckDBDialect) BytesLiteral(b []byte) string {
	return "'\\x" + hex.EncodeToString(b) + "'::BLOB"
}

// DuckDB lacks the jsonb `?` key-exists operator; it has json_exists().
func (d *DuckDBDialect) JSONKeyExists(w Writer, receiver EmitFunc, path []string, binary bool) (bool, error) {
	if err := w.WriteString("json_exists("); err != nil {
		return true, err
	}
	if err := receiver(); err != nil {
		return true, err
	}
	if err := w.WriteString(", '$" + jsonPointerPath(path) + "')"); err != nil {
		return true, err
	}
	return true, nil
}

// DuckDB exposes RE2 matching as regexp_matches(), not a `~` operator.
func (d *DuckDBDialect) WriteMatches(w Writer, subject EmitFunc, pattern string, caseInsensitive bool) error {
	if err := w.WriteString("regexp_matches("); err != nil {
		return err
	}
	if err := subject(); err != nil {
		return err
	}
	if err := w.WriteString(", " + quoteSQLString(pattern)); err != nil {
		return err
	}
	if caseInsensitive {
		if err := w.WriteString(", 'i'"); err != nil {
			return err
		}
	}
	return w.WriteString(")")
}

func jsonPointerPath(path []string) string {
	out := ""
	for _, p := range path {
		out += "." + p
	}
	return out
}

// DuckDB's json extension uses one function name regardless of storage.
func (d *DuckDBDialect) JSONArrayLength(w Writer, receiver EmitFunc, binary bool) error {
	return wrap(w, "json_array_length(", receiver, ")")
}

// DuckDB has no Postgres-style `ARRAY(subquery)` constructor; it builds a
// list from an aggregate instead: `(SELECT list(x) FROM ... WHERE ...)`.
func (d *DuckDBDialect) AggregateList(w Writer, selectList, from, where EmitFunc) error {
	if err := w.WriteString("(SELECT list("); err != nil {
		return err
	}
	if err := selectList(); err != nil {
		return err
	}
	if err := w.WriteString(")"); err != nil {
		return err
	}
	if err := from(); err != nil {
		return err
	}
	if where != nil {
		if err := where(); err != nil {
			return err
		}
	}
	return w.WriteString(")")
}
