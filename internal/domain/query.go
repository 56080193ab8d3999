package domain

import "time"

// Time grains supported by temporal bucketing. GrainAll collapses the
// temporal dimension into a single constant bucket.
const (
	GrainAll     = "all"
	GrainSecond  = "second"
	GrainMinute  = "minute"
	GrainHour    = "hour"
	GrainDay     = "day"
	GrainWeek    = "week"
	GrainMonth   = "month"
	GrainQuarter = "quarter"
	GrainYear    = "year"
)

// ValidGrain reports whether g is a recognized time grain. The empty
// string is treated as GrainDay by the compiler.
func ValidGrain(g string) bool {
	switch g {
	case "", GrainAll, GrainSecond, GrainMinute, GrainHour, GrainDay,
		GrainWeek, GrainMonth, GrainQuarter, GrainYear:
		return true
	}
	return false
}

// Filter operators accepted by the filter compiler.
const (
	OpIn    = "in"
	OpNotIn = "not in"
	OpEq    = "=="
	OpNeq   = "!="
	OpGt    = ">"
	OpLt    = "<"
	OpGte   = ">="
	OpLte   = "<="
	OpLike  = "LIKE"
)

// Filter is one abstract predicate against a dataset column.
// For in/not-in operators, Values carries the operand set; for all other
// operators Value carries the single operand.
type Filter struct {
	Column string
	Op     string
	Value  string
	Values []string
}

// OrderBy pairs a selected column or metric name with a sort direction.
type OrderBy struct {
	Column    string
	Ascending bool
}

// QueryRequest is the declarative description of an analytical query.
// It is an input to the compiler and is never persisted.
type QueryRequest struct {
	// GroupBy selects aggregate mode: the listed columns are grouped and
	// projected alongside Metrics. Mutually exclusive with Columns.
	GroupBy []string
	Metrics []string

	// Columns selects raw-projection mode: exactly these columns, no
	// aggregation.
	Columns []string

	// Granularity names the temporal column to bucket on; Grain picks the
	// bucket size. An empty Granularity falls back to the dataset's main
	// temporal column. Timeseries requests that cannot resolve a temporal
	// column are rejected.
	Granularity  string
	Grain        string
	IsTimeseries bool

	From time.Time
	To   time.Time

	// InnerFrom/InnerTo override the time window of the series-limit
	// subquery. Zero values fall back to From/To.
	InnerFrom time.Time
	InnerTo   time.Time

	Filters []Filter

	// ExtraWhere and ExtraHaving are raw SQL fragments, expanded by the
	// template processor before compilation and treated as opaque SQL.
	ExtraWhere  string
	ExtraHaving string

	OrderBy  []OrderBy
	RowLimit int // 0 = unlimited

	// SeriesLimit caps the number of distinct group-by series returned,
	// ranked by SeriesLimitMetric (default: the primary metric).
	SeriesLimit       int
	SeriesLimitMetric string
}

// Validate checks structural invariants that do not require metadata.
// Name resolution is the compiler's job.
func (r *QueryRequest) Validate() error {
	if len(r.GroupBy) > 0 && len(r.Columns) > 0 {
		return ErrConflictingProjection("group_by and columns are mutually exclusive")
	}
	if !ValidGrain(r.Grain) {
		return ErrValidation("grain %q is not recognized", r.Grain)
	}
	if r.RowLimit < 0 {
		return ErrValidation("row_limit must be >= 0")
	}
	if r.SeriesLimit < 0 {
		return ErrValidation("series_limit must be >= 0")
	}
	return nil
}
