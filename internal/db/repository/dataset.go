package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bq-demo/internal/domain"
)

// Compile-time check.
var _ domain.DatasetRepository = (*DatasetRepo)(nil)

// DatasetRepo implements DatasetRepository using SQLite. Writes go
// through the single-writer pool, reads through the read pool.
type DatasetRepo struct {
	write *sql.DB
	read  *sql.DB
}

// NewDatasetRepo creates a new DatasetRepo.
func NewDatasetRepo(write, read *sql.DB) *DatasetRepo {
	return &DatasetRepo{write: write, read: read}
}

const datasetColumns = `id, project_id, dataset_name, table_name, description,
	main_temporal_column, row_limit, metadata_refreshed_at, created_by, created_at, updated_at`

// Create inserts a new dataset registration.
func (r *DatasetRepo) Create(ctx context.Context, d *domain.Dataset) (*domain.Dataset, error) {
	id := domain.NewID()
	now := time.Now().UTC()
	_, err := r.write.ExecContext(ctx, `
		INSERT INTO datasets (id, project_id, dataset_name, table_name, description,
			main_temporal_column, row_limit, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, d.ProjectID, d.DatasetName, d.TableName, d.Description,
		d.MainTemporalColumn, d.RowLimit, d.CreatedBy, now, now)
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.GetByID(ctx, id)
}

// GetByID returns a dataset by ID.
func (r *DatasetRepo) GetByID(ctx context.Context, id string) (*domain.Dataset, error) {
	row := r.read.QueryRowContext(ctx,
		`SELECT `+datasetColumns+` FROM datasets WHERE id = ?`, id)
	return scanDataset(row)
}

// GetByName returns a dataset by its fully qualified table reference.
func (r *DatasetRepo) GetByName(ctx context.Context, projectID, datasetName, tableName string) (*domain.Dataset, error) {
	row := r.read.QueryRowContext(ctx,
		`SELECT `+datasetColumns+` FROM datasets
		WHERE project_id = ? AND dataset_name = ? AND table_name = ?`,
		projectID, datasetName, tableName)
	return scanDataset(row)
}

// List returns all registered datasets ordered by qualified name.
func (r *DatasetRepo) List(ctx context.Context) ([]domain.Dataset, error) {
	rows, err := r.read.QueryContext(ctx,
		`SELECT `+datasetColumns+` FROM datasets ORDER BY project_id, dataset_name, table_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var datasets []domain.Dataset
	for rows.Next() {
		d, err := scanDatasetRow(rows)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, *d)
	}
	return datasets, rows.Err()
}

// Update applies partial updates using read-modify-write.
func (r *DatasetRepo) Update(ctx context.Context, id string, req domain.UpdateDatasetRequest) (*domain.Dataset, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	description := current.Description
	if req.Description != nil {
		description = *req.Description
	}
	temporal := current.MainTemporalColumn
	if req.MainTemporalColumn != nil {
		temporal = *req.MainTemporalColumn
	}
	rowLimit := current.RowLimit
	if req.RowLimit != nil {
		rowLimit = *req.RowLimit
	}

	_, err = r.write.ExecContext(ctx, `
		UPDATE datasets
		SET description = ?, main_temporal_column = ?, row_limit = ?, updated_at = ?
		WHERE id = ?`,
		description, temporal, rowLimit, time.Now().UTC(), id)
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.GetByID(ctx, id)
}

// TouchRefreshedAt records a completed metadata refresh.
func (r *DatasetRepo) TouchRefreshedAt(ctx context.Context, id string) error {
	now := time.Now().UTC()
	res, err := r.write.ExecContext(ctx,
		`UPDATE datasets SET metadata_refreshed_at = ?, updated_at = ? WHERE id = ?`,
		now, now, id)
	if err != nil {
		return mapDBError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound("dataset %q not found", id)
	}
	return nil
}

// Delete removes a dataset; columns and metrics cascade.
func (r *DatasetRepo) Delete(ctx context.Context, id string) error {
	res, err := r.write.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, id)
	if err != nil {
		return mapDBError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound("dataset %q not found", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDataset(row *sql.Row) (*domain.Dataset, error) {
	d, err := scanDatasetRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, mapDBError(err)
	}
	return d, err
}

func scanDatasetRow(s rowScanner) (*domain.Dataset, error) {
	var d domain.Dataset
	var refreshed sql.NullTime
	err := s.Scan(&d.ID, &d.ProjectID, &d.DatasetName, &d.TableName, &d.Description,
		&d.MainTemporalColumn, &d.RowLimit, &refreshed, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if refreshed.Valid {
		t := refreshed.Time
		d.MetadataRefreshedAt = &t
	}
	return &d, nil
}
