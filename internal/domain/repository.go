package domain

import "context"

// DatasetRepository persists dataset registrations.
type DatasetRepository interface {
	Create(ctx context.Context, d *Dataset) (*Dataset, error)
	GetByID(ctx context.Context, id string) (*Dataset, error)
	GetByName(ctx context.Context, projectID, datasetName, tableName string) (*Dataset, error)
	List(ctx context.Context) ([]Dataset, error)
	Update(ctx context.Context, id string, req UpdateDatasetRequest) (*Dataset, error)
	TouchRefreshedAt(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// ColumnRepository persists dataset columns.
type ColumnRepository interface {
	Create(ctx context.Context, c *Column) (*Column, error)
	GetByID(ctx context.Context, id string) (*Column, error)
	GetByName(ctx context.Context, datasetID, name string) (*Column, error)
	ListByDataset(ctx context.Context, datasetID string) ([]Column, error)
	Update(ctx context.Context, id string, req UpdateColumnRequest) (*Column, error)
	Delete(ctx context.Context, id string) error
}

// MetricRepository persists dataset metrics. GetByName backs the
// idempotence check of metric generation.
type MetricRepository interface {
	Create(ctx context.Context, m *Metric) (*Metric, error)
	GetByName(ctx context.Context, datasetID, name string) (*Metric, error)
	ListByDataset(ctx context.Context, datasetID string) ([]Metric, error)
	Update(ctx context.Context, id string, req UpdateMetricRequest) (*Metric, error)
	Delete(ctx context.Context, id string) error
}
