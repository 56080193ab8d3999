package domain

import (
	"time"
	"unicode/utf8"
)

// Column describes one field of a dataset: how it is expressed in SQL and
// which query roles it can play. Columns are read-only to the compiler.
type Column struct {
	ID         string
	DatasetID  string
	Name       string
	Type       string // warehouse type, e.g. STRING, INTEGER, TIMESTAMP
	Expression string // SQL fragment; empty means the quoted column name
	IsNumeric  bool
	Groupable  bool
	Filterable bool
	IsTemporal bool

	// Metric derivation flags. Each true flag yields one generated metric.
	Sum           bool
	Avg           bool
	Min           bool
	Max           bool
	CountDistinct bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateColumnRequest holds parameters for registering a column.
type CreateColumnRequest struct {
	DatasetID  string
	Name       string
	Type       string
	Expression string
	IsNumeric  bool
	Groupable  bool
	Filterable bool
	IsTemporal bool

	Sum           bool
	Avg           bool
	Min           bool
	Max           bool
	CountDistinct bool
}

// Validate checks that the request is well-formed.
func (r *CreateColumnRequest) Validate() error {
	if r.DatasetID == "" {
		return ErrValidation("dataset_id is required")
	}
	if r.Name == "" {
		return ErrValidation("name is required")
	}
	if utf8.RuneCountInString(r.Name) > MaxNameLength {
		return ErrValidation("name must be <= %d characters", MaxNameLength)
	}
	if !r.IsNumeric && (r.Sum || r.Avg || r.Min || r.Max) {
		return ErrValidation("sum/avg/min/max flags require a numeric column")
	}
	return nil
}

// UpdateColumnRequest holds partial-update parameters.
type UpdateColumnRequest struct {
	Type          *string
	Expression    *string
	IsNumeric     *bool
	Groupable     *bool
	Filterable    *bool
	IsTemporal    *bool
	Sum           *bool
	Avg           *bool
	Min           *bool
	Max           *bool
	CountDistinct *bool
}
