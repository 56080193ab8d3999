package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bq-demo/internal/domain"
)

// Compile-time check.
var _ domain.ColumnRepository = (*ColumnRepo)(nil)

// ColumnRepo implements ColumnRepository using SQLite. Writes go
// through the single-writer pool, reads through the read pool.
type ColumnRepo struct {
	write *sql.DB
	read  *sql.DB
}

// NewColumnRepo creates a new ColumnRepo.
func NewColumnRepo(write, read *sql.DB) *ColumnRepo {
	return &ColumnRepo{write: write, read: read}
}

const columnColumns = `id, dataset_id, name, type, expression, is_numeric, groupable,
	filterable, is_temporal, sum_enabled, avg_enabled, min_enabled, max_enabled,
	count_distinct, created_at, updated_at`

// Create inserts a new column.
func (r *ColumnRepo) Create(ctx context.Context, c *domain.Column) (*domain.Column, error) {
	id := domain.NewID()
	now := time.Now().UTC()
	_, err := r.write.ExecContext(ctx, `
		INSERT INTO dataset_columns (id, dataset_id, name, type, expression, is_numeric,
			groupable, filterable, is_temporal, sum_enabled, avg_enabled, min_enabled,
			max_enabled, count_distinct, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, c.DatasetID, c.Name, c.Type, c.Expression, boolToInt(c.IsNumeric),
		boolToInt(c.Groupable), boolToInt(c.Filterable), boolToInt(c.IsTemporal),
		boolToInt(c.Sum), boolToInt(c.Avg), boolToInt(c.Min),
		boolToInt(c.Max), boolToInt(c.CountDistinct), now, now)
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.GetByID(ctx, id)
}

// GetByName returns a column by dataset and name.
func (r *ColumnRepo) GetByName(ctx context.Context, datasetID, name string) (*domain.Column, error) {
	row := r.read.QueryRowContext(ctx,
		`SELECT `+columnColumns+` FROM dataset_columns WHERE dataset_id = ? AND name = ?`,
		datasetID, name)
	return scanColumn(row)
}

// ListByDataset returns all columns of a dataset ordered by name.
func (r *ColumnRepo) ListByDataset(ctx context.Context, datasetID string) ([]domain.Column, error) {
	rows, err := r.read.QueryContext(ctx,
		`SELECT `+columnColumns+` FROM dataset_columns WHERE dataset_id = ? ORDER BY name`,
		datasetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var columns []domain.Column
	for rows.Next() {
		c, err := scanColumnRow(rows)
		if err != nil {
			return nil, err
		}
		columns = append(columns, *c)
	}
	return columns, rows.Err()
}

// Update applies partial updates using read-modify-write.
func (r *ColumnRepo) Update(ctx context.Context, id string, req domain.UpdateColumnRequest) (*domain.Column, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	colType := current.Type
	if req.Type != nil {
		colType = *req.Type
	}
	expression := current.Expression
	if req.Expression != nil {
		expression = *req.Expression
	}
	isNumeric := current.IsNumeric
	if req.IsNumeric != nil {
		isNumeric = *req.IsNumeric
	}
	groupable := current.Groupable
	if req.Groupable != nil {
		groupable = *req.Groupable
	}
	filterable := current.Filterable
	if req.Filterable != nil {
		filterable = *req.Filterable
	}
	isTemporal := current.IsTemporal
	if req.IsTemporal != nil {
		isTemporal = *req.IsTemporal
	}
	sum := current.Sum
	if req.Sum != nil {
		sum = *req.Sum
	}
	avg := current.Avg
	if req.Avg != nil {
		avg = *req.Avg
	}
	minFlag := current.Min
	if req.Min != nil {
		minFlag = *req.Min
	}
	maxFlag := current.Max
	if req.Max != nil {
		maxFlag = *req.Max
	}
	countDistinct := current.CountDistinct
	if req.CountDistinct != nil {
		countDistinct = *req.CountDistinct
	}

	_, err = r.write.ExecContext(ctx, `
		UPDATE dataset_columns
		SET type = ?, expression = ?, is_numeric = ?, groupable = ?, filterable = ?,
			is_temporal = ?, sum_enabled = ?, avg_enabled = ?, min_enabled = ?,
			max_enabled = ?, count_distinct = ?, updated_at = ?
		WHERE id = ?`,
		colType, expression, boolToInt(isNumeric), boolToInt(groupable), boolToInt(filterable),
		boolToInt(isTemporal), boolToInt(sum), boolToInt(avg), boolToInt(minFlag),
		boolToInt(maxFlag), boolToInt(countDistinct), time.Now().UTC(), id)
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.GetByID(ctx, id)
}

// Delete removes a column by ID.
func (r *ColumnRepo) Delete(ctx context.Context, id string) error {
	res, err := r.write.ExecContext(ctx, `DELETE FROM dataset_columns WHERE id = ?`, id)
	if err != nil {
		return mapDBError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound("column %q not found", id)
	}
	return nil
}

// GetByID returns a column by ID.
func (r *ColumnRepo) GetByID(ctx context.Context, id string) (*domain.Column, error) {
	row := r.read.QueryRowContext(ctx,
		`SELECT `+columnColumns+` FROM dataset_columns WHERE id = ?`, id)
	return scanColumn(row)
}

func scanColumn(row *sql.Row) (*domain.Column, error) {
	c, err := scanColumnRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, mapDBError(err)
	}
	return c, err
}

func scanColumnRow(s rowScanner) (*domain.Column, error) {
	var c domain.Column
	err := s.Scan(&c.ID, &c.DatasetID, &c.Name, &c.Type, &c.Expression, &c.IsNumeric,
		&c.Groupable, &c.Filterable, &c.IsTemporal, &c.Sum, &c.Avg, &c.Min,
		&c.Max, &c.CountDistinct, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
