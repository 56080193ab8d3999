package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bq-demo/internal/domain"
)

// Compile-time check.
var _ domain.MetricRepository = (*MetricRepo)(nil)

// MetricRepo implements MetricRepository using SQLite. Writes go
// through the single-writer pool, reads through the read pool.
type MetricRepo struct {
	write *sql.DB
	read  *sql.DB
}

// NewMetricRepo creates a new MetricRepo.
func NewMetricRepo(write, read *sql.DB) *MetricRepo {
	return &MetricRepo{write: write, read: read}
}

const metricColumns = `id, dataset_id, name, metric_type, expression, created_at, updated_at`

// Create inserts a new metric. A duplicate (dataset_id, name) pair maps to
// a ConflictError via the UNIQUE constraint.
func (r *MetricRepo) Create(ctx context.Context, m *domain.Metric) (*domain.Metric, error) {
	id := domain.NewID()
	now := time.Now().UTC()
	_, err := r.write.ExecContext(ctx, `
		INSERT INTO dataset_metrics (id, dataset_id, name, metric_type, expression, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, m.DatasetID, m.Name, m.MetricType, m.Expression, now, now)
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.getByID(ctx, id)
}

// GetByName returns a metric by dataset and name.
func (r *MetricRepo) GetByName(ctx context.Context, datasetID, name string) (*domain.Metric, error) {
	row := r.read.QueryRowContext(ctx,
		`SELECT `+metricColumns+` FROM dataset_metrics WHERE dataset_id = ? AND name = ?`,
		datasetID, name)
	return scanMetric(row)
}

// ListByDataset returns all metrics of a dataset ordered by name.
func (r *MetricRepo) ListByDataset(ctx context.Context, datasetID string) ([]domain.Metric, error) {
	rows, err := r.read.QueryContext(ctx,
		`SELECT `+metricColumns+` FROM dataset_metrics WHERE dataset_id = ? ORDER BY name`,
		datasetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var metrics []domain.Metric
	for rows.Next() {
		m, err := scanMetricRow(rows)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, *m)
	}
	return metrics, rows.Err()
}

// Update applies partial updates using read-modify-write.
func (r *MetricRepo) Update(ctx context.Context, id string, req domain.UpdateMetricRequest) (*domain.Metric, error) {
	current, err := r.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	metricType := current.MetricType
	if req.MetricType != nil {
		metricType = *req.MetricType
	}
	expression := current.Expression
	if req.Expression != nil {
		expression = *req.Expression
	}

	_, err = r.write.ExecContext(ctx, `
		UPDATE dataset_metrics SET metric_type = ?, expression = ?, updated_at = ? WHERE id = ?`,
		metricType, expression, time.Now().UTC(), id)
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.getByID(ctx, id)
}

// Delete removes a metric by ID.
func (r *MetricRepo) Delete(ctx context.Context, id string) error {
	res, err := r.write.ExecContext(ctx, `DELETE FROM dataset_metrics WHERE id = ?`, id)
	if err != nil {
		return mapDBError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound("metric %q not found", id)
	}
	return nil
}

func (r *MetricRepo) getByID(ctx context.Context, id string) (*domain.Metric, error) {
	row := r.read.QueryRowContext(ctx,
		`SELECT `+metricColumns+` FROM dataset_metrics WHERE id = ?`, id)
	return scanMetric(row)
}

func scanMetric(row *sql.Row) (*domain.Metric, error) {
	m, err := scanMetricRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, mapDBError(err)
	}
	return m, err
}

func scanMetricRow(s rowScanner) (*domain.Metric, error) {
	var m domain.Metric
	err := s.Scan(&m.ID, &m.DatasetID, &m.Name, &m.MetricType, &m.Expression,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
