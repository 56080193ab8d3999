// Package metadata manages dataset registrations, their column metadata,
// and derived metrics in the metastore.
package metadata

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"bq-demo/internal/domain"
)

// Service provides business logic for dataset metadata management.
type Service struct {
	datasets  domain.DatasetRepository
	columns   domain.ColumnRepository
	metrics   domain.MetricRepository
	warehouse domain.Warehouse
	logger    *slog.Logger

	// Serializes metric generation per dataset so concurrent calls cannot
	// race each other into duplicate-name conflicts.
	genMu   sync.Mutex
	genLock map[string]*sync.Mutex
}

// NewService creates a new metadata Service.
func NewService(
	datasets domain.DatasetRepository,
	columns domain.ColumnRepository,
	metrics domain.MetricRepository,
	warehouse domain.Warehouse,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		datasets:  datasets,
		columns:   columns,
		metrics:   metrics,
		warehouse: warehouse,
		logger:    logger.With("component", "metadata"),
		genLock:   map[string]*sync.Mutex{},
	}
}

// CreateDataset registers a new dataset.
func (s *Service) CreateDataset(ctx context.Context, principal string, req domain.CreateDatasetRequest) (*domain.Dataset, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return s.datasets.Create(ctx, &domain.Dataset{
		ProjectID:          req.ProjectID,
		DatasetName:        req.DatasetName,
		TableName:          req.TableName,
		Description:        req.Description,
		MainTemporalColumn: req.MainTemporalColumn,
		RowLimit:           req.RowLimit,
		CreatedBy:          principal,
	})
}

// GetDataset retrieves a dataset by ID.
func (s *Service) GetDataset(ctx context.Context, id string) (*domain.Dataset, error) {
	return s.datasets.GetByID(ctx, id)
}

// GetDatasetByName retrieves a dataset by its qualified table reference.
func (s *Service) GetDatasetByName(ctx context.Context, projectID, datasetName, tableName string) (*domain.Dataset, error) {
	return s.datasets.GetByName(ctx, projectID, datasetName, tableName)
}

// ListDatasets lists all registered datasets.
func (s *Service) ListDatasets(ctx context.Context) ([]domain.Dataset, error) {
	return s.datasets.List(ctx)
}

// UpdateDataset applies partial updates to a dataset.
func (s *Service) UpdateDataset(ctx context.Context, id string, req domain.UpdateDatasetRequest) (*domain.Dataset, error) {
	return s.datasets.Update(ctx, id, req)
}

// DeleteDataset removes a dataset with its columns and metrics.
func (s *Service) DeleteDataset(ctx context.Context, id string) error {
	return s.datasets.Delete(ctx, id)
}

// CreateColumn registers a column on a dataset.
func (s *Service) CreateColumn(ctx context.Context, req domain.CreateColumnRequest) (*domain.Column, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.datasets.GetByID(ctx, req.DatasetID); err != nil {
		return nil, err
	}
	if req.IsTemporal {
		if err := s.checkTemporalSlot(ctx, req.DatasetID, ""); err != nil {
			return nil, err
		}
	}

	return s.columns.Create(ctx, &domain.Column{
		DatasetID:     req.DatasetID,
		Name:          req.Name,
		Type:          req.Type,
		Expression:    req.Expression,
		IsNumeric:     req.IsNumeric,
		Groupable:     req.Groupable,
		Filterable:    req.Filterable,
		IsTemporal:    req.IsTemporal,
		Sum:           req.Sum,
		Avg:           req.Avg,
		Min:           req.Min,
		Max:           req.Max,
		CountDistinct: req.CountDistinct,
	})
}

// ListColumns lists a dataset's columns.
func (s *Service) ListColumns(ctx context.Context, datasetID string) ([]domain.Column, error) {
	return s.columns.ListByDataset(ctx, datasetID)
}

// UpdateColumn applies partial updates to a column.
func (s *Service) UpdateColumn(ctx context.Context, id string, req domain.UpdateColumnRequest) (*domain.Column, error) {
	if req.IsTemporal != nil && *req.IsTemporal {
		col, err := s.columns.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.checkTemporalSlot(ctx, col.DatasetID, id); err != nil {
			return nil, err
		}
	}
	return s.columns.Update(ctx, id, req)
}

// checkTemporalSlot rejects a second temporal column on a dataset. A
// column may keep its own temporal flag, so exceptID excludes the column
// being updated.
func (s *Service) checkTemporalSlot(ctx context.Context, datasetID, exceptID string) error {
	columns, err := s.columns.ListByDataset(ctx, datasetID)
	if err != nil {
		return err
	}
	for _, c := range columns {
		if c.IsTemporal && c.ID != exceptID {
			return domain.ErrConflict("column %q is already the temporal column of this dataset", c.Name)
		}
	}
	return nil
}

// DeleteColumn removes a column.
func (s *Service) DeleteColumn(ctx context.Context, id string) error {
	return s.columns.Delete(ctx, id)
}

// CreateMetric registers a custom metric on a dataset.
func (s *Service) CreateMetric(ctx context.Context, req domain.CreateMetricRequest) (*domain.Metric, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.datasets.GetByID(ctx, req.DatasetID); err != nil {
		return nil, err
	}

	return s.metrics.Create(ctx, &domain.Metric{
		DatasetID:  req.DatasetID,
		Name:       req.Name,
		MetricType: req.MetricType,
		Expression: req.Expression,
	})
}

// ListMetrics lists a dataset's stored metrics.
func (s *Service) ListMetrics(ctx context.Context, datasetID string) ([]domain.Metric, error) {
	return s.metrics.ListByDataset(ctx, datasetID)
}

// UpdateMetric applies partial updates to a metric.
func (s *Service) UpdateMetric(ctx context.Context, id string, req domain.UpdateMetricRequest) (*domain.Metric, error) {
	return s.metrics.Update(ctx, id, req)
}

// DeleteMetric removes a metric.
func (s *Service) DeleteMetric(ctx context.Context, id string) error {
	return s.metrics.Delete(ctx, id)
}

// Snapshot assembles the immutable metadata view used for query
// compilation.
func (s *Service) Snapshot(ctx context.Context, datasetID string) (*domain.Snapshot, error) {
	ds, err := s.datasets.GetByID(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	columns, err := s.columns.ListByDataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	metrics, err := s.metrics.ListByDataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	return domain.NewSnapshot(*ds, columns, metrics), nil
}

func (s *Service) datasetLock(datasetID string) *sync.Mutex {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	mu, ok := s.genLock[datasetID]
	if !ok {
		mu = &sync.Mutex{}
		s.genLock[datasetID] = mu
	}
	return mu
}

// ensureMetric creates the metric unless one with the same name already
// exists on the dataset. It returns the stored metric either way.
func (s *Service) ensureMetric(ctx context.Context, m domain.Metric) (*domain.Metric, bool, error) {
	existing, err := s.metrics.GetByName(ctx, m.DatasetID, m.Name)
	if err == nil {
		return existing, false, nil
	}
	var nfe *domain.NotFoundError
	if !errors.As(err, &nfe) {
		return nil, false, err
	}

	created, err := s.metrics.Create(ctx, &m)
	if err != nil {
		// Another writer may have slipped in between lookup and insert.
		var ce *domain.ConflictError
		if errors.As(err, &ce) {
			existing, getErr := s.metrics.GetByName(ctx, m.DatasetID, m.Name)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		}
		return nil, false, err
	}
	return created, true, nil
}
