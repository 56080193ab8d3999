package sqlbuilder

import "bq-demo/internal/domain"

// columnRef returns the bare SQL expression for a column: its declared
// expression when set, else the quoted column name.
func columnRef(d Dialect, c domain.Column) string {
	if c.Expression != "" {
		return c.Expression
	}
	return d.QuoteIdent(c.Name)
}

// columnItem projects a column aliased to its logical name.
func columnItem(d Dialect, c domain.Column) SelectItem {
	return SelectItem{Expr: columnRef(d, c), Alias: c.Name}
}

// metricItem projects a metric's aggregate expression aliased to the
// metric name.
func metricItem(m domain.Metric) SelectItem {
	return SelectItem{Expr: m.Expression, Alias: m.Name}
}

// timestampRef buckets a temporal column at the requested grain. An empty
// grain defaults to day.
func timestampRef(d Dialect, c domain.Column, grain string) string {
	if grain == "" {
		grain = domain.GrainDay
	}
	return d.TimeTrunc(columnRef(d, c), grain)
}
