// Package sqlbuilder compiles declarative query requests into dialect-correct
// analytical SQL. Compilation is pure: a request plus a metadata snapshot
// produce an immutable statement tree, which the renderer serializes to a
// deterministic SQL string with literal-bound values.
package sqlbuilder

import (
	"fmt"
	"strings"
	"time"

	"bq-demo/internal/domain"
)

// Dialect is the explicit rendering strategy for a target SQL engine.
// It is chosen at builder construction time; there is no global registry.
type Dialect interface {
	Name() string

	// QuoteIdent quotes a single identifier.
	QuoteIdent(name string) string

	// StringLiteral renders a string as a SQL literal. Only quote
	// characters are escaped; percent signs pass through verbatim, since
	// the output is executed directly and never fed through a
	// placeholder-interpolating driver.
	StringLiteral(s string) string

	// TimestampLiteral renders a timestamp as a SQL literal.
	TimestampLiteral(t time.Time) string

	// TimeTrunc wraps a temporal expression in the engine's truncation
	// function for the given grain. GrainAll collapses to a constant
	// bucket so every row lands in one series.
	TimeTrunc(expr, grain string) string
}

// BigQuery renders backtick-quoted identifiers and TIMESTAMP_TRUNC
// bucketing.
type BigQuery struct{}

func (BigQuery) Name() string { return "bigquery" }

func (BigQuery) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "\\`") + "`"
}

func (BigQuery) StringLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "\\'") + "'"
}

func (BigQuery) TimestampLiteral(t time.Time) string {
	return "TIMESTAMP '" + t.UTC().Format("2006-01-02 15:04:05") + "'"
}

func (BigQuery) TimeTrunc(expr, grain string) string {
	if grain == domain.GrainAll {
		return "TIMESTAMP '1970-01-01 00:00:00'"
	}
	return fmt.Sprintf("TIMESTAMP_TRUNC(%s, %s)", expr, strings.ToUpper(grain))
}

// ANSI renders double-quoted identifiers and DATE_TRUNC bucketing, for
// engines without BigQuery-specific syntax.
type ANSI struct{}

func (ANSI) Name() string { return "ansi" }

func (ANSI) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (ANSI) StringLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (ANSI) TimestampLiteral(t time.Time) string {
	return "TIMESTAMP '" + t.UTC().Format("2006-01-02 15:04:05") + "'"
}

func (ANSI) TimeTrunc(expr, grain string) string {
	if grain == domain.GrainAll {
		return "TIMESTAMP '1970-01-01 00:00:00'"
	}
	return fmt.Sprintf("DATE_TRUNC('%s', %s)", grain, expr)
}

// DialectByName returns the dialect registered under name, defaulting to
// BigQuery for the empty string.
func DialectByName(name string) (Dialect, error) {
	switch name {
	case "", "bigquery":
		return BigQuery{}, nil
	case "ansi":
		return ANSI{}, nil
	default:
		return nil, domain.ErrValidation("unknown dialect %q", name)
	}
}
