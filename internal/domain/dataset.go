package domain

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// MaxNameLength bounds dataset, column, and metric names.
const MaxNameLength = 255

// Dataset identifies a BigQuery table whose columns and metrics are
// registered in the metastore.
type Dataset struct {
	ID                  string
	ProjectID           string
	DatasetName         string
	TableName           string
	Description         string
	MainTemporalColumn  string
	RowLimit            int // default cap applied when a request has none
	MetadataRefreshedAt *time.Time
	CreatedBy           string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// FullName returns the fully qualified BigQuery table reference.
func (d Dataset) FullName() string {
	return fmt.Sprintf("%s.%s.%s", d.ProjectID, d.DatasetName, d.TableName)
}

// CreateDatasetRequest holds parameters for registering a dataset.
type CreateDatasetRequest struct {
	ProjectID          string
	DatasetName        string
	TableName          string
	Description        string
	MainTemporalColumn string
	RowLimit           int
}

// Validate checks that the request is well-formed.
func (r *CreateDatasetRequest) Validate() error {
	if r.ProjectID == "" {
		return ErrValidation("project_id is required")
	}
	if r.DatasetName == "" {
		return ErrValidation("dataset_name is required")
	}
	if r.TableName == "" {
		return ErrValidation("table_name is required")
	}
	if utf8.RuneCountInString(r.TableName) > MaxNameLength {
		return ErrValidation("table_name must be <= %d characters", MaxNameLength)
	}
	if r.RowLimit < 0 {
		return ErrValidation("row_limit must be >= 0")
	}
	return nil
}

// UpdateDatasetRequest holds partial-update parameters.
type UpdateDatasetRequest struct {
	Description        *string
	MainTemporalColumn *string
	RowLimit           *int
}
