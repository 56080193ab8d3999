package domain

import (
	"time"
	"unicode/utf8"
)

const (
	MetricTypeCount         = "count"
	MetricTypeSum           = "sum"
	MetricTypeAvg           = "avg"
	MetricTypeMin           = "min"
	MetricTypeMax           = "max"
	MetricTypeCountDistinct = "count_distinct"
	MetricTypeCustom        = "custom"

	// Approximate distinct-count column types. A count_distinct metric
	// generated from a column of one of these types keeps the column type
	// as its metric type, preserving the engine-specific aggregation.
	SketchTypeHyperUnique = "hyperUnique"
	SketchTypeThetaSketch = "thetaSketch"

	// CountMetricName is the implicit COUNT(*) metric every dataset has.
	CountMetricName = "count"
)

// IsSketchType reports whether a column type belongs to the approximate
// distinct-count family.
func IsSketchType(columnType string) bool {
	return columnType == SketchTypeHyperUnique || columnType == SketchTypeThetaSketch
}

// Metric is a named aggregate SQL expression attached to a dataset.
type Metric struct {
	ID         string
	DatasetID  string
	Name       string
	MetricType string
	Expression string // aggregate SQL fragment, e.g. SUM(revenue)
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CountMetric returns the implicit COUNT(*) metric for a dataset. It is
// available to every query even when not stored.
func CountMetric(datasetID string) Metric {
	return Metric{
		DatasetID:  datasetID,
		Name:       CountMetricName,
		MetricType: MetricTypeCount,
		Expression: "COUNT(*)",
	}
}

// CreateMetricRequest holds parameters for registering a metric.
type CreateMetricRequest struct {
	DatasetID  string
	Name       string
	MetricType string
	Expression string
}

// Validate checks that the request is well-formed.
func (r *CreateMetricRequest) Validate() error {
	if r.DatasetID == "" {
		return ErrValidation("dataset_id is required")
	}
	if r.Name == "" {
		return ErrValidation("name is required")
	}
	if utf8.RuneCountInString(r.Name) > MaxNameLength {
		return ErrValidation("name must be <= %d characters", MaxNameLength)
	}
	if r.Expression == "" {
		return ErrValidation("expression is required")
	}
	switch r.MetricType {
	case MetricTypeCount, MetricTypeSum, MetricTypeAvg, MetricTypeMin,
		MetricTypeMax, MetricTypeCountDistinct, MetricTypeCustom,
		SketchTypeHyperUnique, SketchTypeThetaSketch:
		return nil
	default:
		return ErrValidation("metric_type %q is not recognized", r.MetricType)
	}
}

// UpdateMetricRequest holds partial-update parameters.
type UpdateMetricRequest struct {
	MetricType *string
	Expression *string
}
