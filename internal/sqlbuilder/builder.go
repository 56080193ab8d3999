package sqlbuilder

import (
	"fmt"
	"time"

	"bq-demo/internal/domain"
)

// TimestampAlias is the projection alias of the bucketed temporal column
// in timeseries queries.
const TimestampAlias = "__timestamp"

const (
	seriesAlias     = "series_limit"
	seriesRankAlias = "rank__"
	innerSuffix     = "__"
)

// Builder compiles query requests against a metadata snapshot for one
// dialect. A Builder is stateless across calls and safe for concurrent
// use.
type Builder struct {
	dialect       Dialect
	strictFilters bool
}

// New creates a Builder for the given dialect.
func New(d Dialect) *Builder {
	return &Builder{dialect: d}
}

// SetStrictFilters makes unknown filter columns and uncoercible filter
// values fatal instead of silently dropped.
func (b *Builder) SetStrictFilters(strict bool) {
	b.strictFilters = strict
}

// Build compiles a request into an immutable statement tree. It either
// succeeds with a well-formed query or fails with one fatal error before
// any SQL is emitted.
func (b *Builder) Build(snap *domain.Snapshot, req domain.QueryRequest) (*CompiledQuery, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	d := b.dialect

	// Resolve every referenced metric up front so bad names fail before
	// any assembly happens.
	metrics := make([]domain.Metric, 0, len(req.Metrics))
	for _, name := range req.Metrics {
		m, ok := snap.Metric(name)
		if !ok {
			return nil, domain.ErrUnknownField("metric %q not found", name)
		}
		metrics = append(metrics, m)
	}

	stmt := &SelectStatement{
		From:  d.QuoteIdent(snap.Dataset().FullName()),
		Limit: req.RowLimit,
	}

	// The primary metric drives default ordering and series ranking.
	primary := domain.CountMetric(snap.Dataset().ID)
	if len(metrics) > 0 {
		primary = metrics[0]
	}

	var groupRefs []string
	switch {
	case len(req.Columns) > 0:
		// Raw-projection mode: exactly the named columns, no aggregation.
		for _, name := range req.Columns {
			col, ok := snap.Column(name)
			if !ok {
				return nil, domain.ErrUnknownField("column %q not found", name)
			}
			stmt.Select = append(stmt.Select, columnItem(d, col))
		}

	default:
		// Aggregate mode.
		for _, name := range req.GroupBy {
			col, ok := snap.Column(name)
			if !ok {
				return nil, domain.ErrUnknownField("group-by column %q not found", name)
			}
			ref := columnRef(d, col)
			groupRefs = append(groupRefs, ref)
			stmt.Select = append(stmt.Select, SelectItem{Expr: ref, Alias: col.Name})
			stmt.GroupBy = append(stmt.GroupBy, ref)
		}
	}

	// Temporal bucketing and the time-range predicate.
	var temporal *domain.Column
	if req.Granularity != "" || req.IsTimeseries {
		col, ok := snap.TemporalColumn(req.Granularity)
		if !ok {
			if req.IsTimeseries {
				return nil, domain.ErrMissingTemporalColumn(
					"granularity %q does not resolve to a temporal column", req.Granularity)
			}
		} else {
			temporal = &col
		}
	}
	if req.IsTimeseries {
		bucket := timestampRef(d, *temporal, req.Grain)
		stmt.Select = append(stmt.Select, SelectItem{Expr: bucket, Alias: TimestampAlias})
		// Raw projections are not aggregated, so the bucket is a plain
		// selected expression there, never a grouping key.
		if len(req.Columns) == 0 {
			stmt.GroupBy = append(stmt.GroupBy, bucket)
		}
	}

	if len(req.Columns) == 0 {
		if len(metrics) == 0 {
			stmt.Select = append(stmt.Select, metricItem(primary))
		}
		for _, m := range metrics {
			stmt.Select = append(stmt.Select, metricItem(m))
		}
	}

	// WHERE: time range first, then user filters, then the opaque extra
	// fragment.
	var timeFilter string
	if temporal != nil {
		timeFilter = timeRangePredicate(d, *temporal, req.From, req.To)
	}
	if timeFilter != "" {
		stmt.Where = append(stmt.Where, timeFilter)
	}
	preds, err := compileFilters(d, snap, req.Filters, b.strictFilters)
	if err != nil {
		return nil, err
	}
	stmt.Where = append(stmt.Where, preds...)
	if req.ExtraWhere != "" {
		stmt.Where = append(stmt.Where, "("+req.ExtraWhere+")")
	}
	if req.ExtraHaving != "" {
		stmt.Having = append(stmt.Having, "("+req.ExtraHaving+")")
	}

	// Ordering: grouped results default to top contributors first.
	switch {
	case len(req.GroupBy) > 0:
		stmt.OrderBy = []OrderItem{{Expr: primary.Name, Desc: true}}
	case len(req.OrderBy) > 0:
		for _, ob := range req.OrderBy {
			expr, err := b.orderExpr(snap, ob.Column)
			if err != nil {
				return nil, err
			}
			stmt.OrderBy = append(stmt.OrderBy, OrderItem{Expr: expr, Desc: !ob.Ascending})
		}
	}

	// Series limiting. A plain LIMIT on aggregated rows would truncate
	// time buckets arbitrarily; instead the outer query is joined to a
	// top-N ranking of the series over the inner window.
	if req.IsTimeseries && req.SeriesLimit > 0 && len(req.GroupBy) > 0 {
		rank := primary
		if req.SeriesLimitMetric != "" {
			m, ok := snap.Metric(req.SeriesLimitMetric)
			if !ok {
				return nil, domain.ErrUnknownField("series limit metric %q not found", req.SeriesLimitMetric)
			}
			rank = m
		}
		join, err := b.seriesLimitJoin(snap, req, groupRefs, preds, rank)
		if err != nil {
			return nil, err
		}
		stmt.Join = join
	}

	return &CompiledQuery{stmt: stmt, dialect: d}, nil
}

// seriesLimitJoin builds the inner top-N subquery and the equality join
// binding the outer query to its surviving series.
func (b *Builder) seriesLimitJoin(snap *domain.Snapshot, req domain.QueryRequest, groupRefs, preds []string, rank domain.Metric) (*JoinClause, error) {
	d := b.dialect

	inner := &SelectStatement{
		From:  d.QuoteIdent(snap.Dataset().FullName()),
		Limit: req.SeriesLimit,
	}
	on := make([]string, 0, len(req.GroupBy))
	for i, name := range req.GroupBy {
		innerAlias := name + innerSuffix
		inner.Select = append(inner.Select, SelectItem{Expr: groupRefs[i], Alias: innerAlias})
		inner.GroupBy = append(inner.GroupBy, groupRefs[i])
		on = append(on, fmt.Sprintf("%s = %s.%s",
			groupRefs[i], d.QuoteIdent(seriesAlias), d.QuoteIdent(innerAlias)))
	}
	inner.Select = append(inner.Select, SelectItem{Expr: rank.Expression, Alias: seriesRankAlias})
	inner.OrderBy = []OrderItem{{Expr: seriesRankAlias, Desc: true}}

	// The inner window defaults to the outer one but may be overridden,
	// e.g. to rank series over a longer reference period.
	col, ok := snap.TemporalColumn(req.Granularity)
	if !ok {
		return nil, domain.ErrMissingTemporalColumn(
			"granularity %q does not resolve to a temporal column", req.Granularity)
	}
	from, to := req.InnerFrom, req.InnerTo
	if from.IsZero() {
		from = req.From
	}
	if to.IsZero() {
		to = req.To
	}
	inner.Where = append(inner.Where, preds...)
	if req.ExtraWhere != "" {
		inner.Where = append(inner.Where, "("+req.ExtraWhere+")")
	}
	if tf := timeRangePredicate(d, col, from, to); tf != "" {
		inner.Where = append(inner.Where, tf)
	}

	return &JoinClause{Sub: inner, Alias: d.QuoteIdent(seriesAlias), On: on}, nil
}

// orderExpr resolves an explicit order-by name to a metric alias or a
// column reference.
func (b *Builder) orderExpr(snap *domain.Snapshot, name string) (string, error) {
	if _, ok := snap.Metric(name); ok {
		return name, nil
	}
	if col, ok := snap.Column(name); ok {
		return columnRef(b.dialect, col), nil
	}
	return "", domain.ErrUnknownField("order-by field %q not found", name)
}

// timeRangePredicate bounds the temporal column by the request window.
// Either bound may be absent.
func timeRangePredicate(d Dialect, col domain.Column, from, to time.Time) string {
	ref := columnRef(d, col)
	switch {
	case !from.IsZero() && !to.IsZero():
		return fmt.Sprintf("%s BETWEEN %s AND %s", ref, d.TimestampLiteral(from), d.TimestampLiteral(to))
	case !from.IsZero():
		return fmt.Sprintf("%s >= %s", ref, d.TimestampLiteral(from))
	case !to.IsZero():
		return fmt.Sprintf("%s <= %s", ref, d.TimestampLiteral(to))
	default:
		return ""
	}
}
