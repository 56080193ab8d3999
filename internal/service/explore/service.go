// Package explore compiles declarative query requests against registered
// datasets and runs them in the warehouse.
package explore

import (
	"context"
	"log/slog"
	"time"

	"bq-demo/internal/domain"
	"bq-demo/internal/service/metadata"
	"bq-demo/internal/sqlbuilder"
)

// ExplainResult is a compiled query that was not executed.
type ExplainResult struct {
	SQL     string
	Dialect string
}

// RunResult is a compiled and executed query with its rows.
type RunResult struct {
	SQL      string
	Columns  []string
	Rows     [][]any
	RowCount int
	Duration time.Duration
}

// Service wires metadata snapshots, the SQL builder, and the warehouse.
type Service struct {
	metadata  *metadata.Service
	warehouse domain.Warehouse
	builder   *sqlbuilder.Builder
	logger    *slog.Logger
}

// NewService creates an explore Service compiling for the given dialect.
func NewService(meta *metadata.Service, wh domain.Warehouse, dialect sqlbuilder.Dialect, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		metadata:  meta,
		warehouse: wh,
		builder:   sqlbuilder.New(dialect),
		logger:    logger.With("component", "explore"),
	}
}

// SetStrictFilters switches filter compilation from lenient to strict.
func (s *Service) SetStrictFilters(strict bool) {
	s.builder.SetStrictFilters(strict)
}

// compile resolves the dataset snapshot, applies the dataset's default row
// limit, expands template fragments, and builds the statement.
func (s *Service) compile(ctx context.Context, datasetID string, req domain.QueryRequest) (*sqlbuilder.CompiledQuery, domain.QueryRequest, error) {
	snap, err := s.metadata.Snapshot(ctx, datasetID)
	if err != nil {
		return nil, req, err
	}

	if req.RowLimit == 0 {
		req.RowLimit = snap.Dataset().RowLimit
	}

	req, err = renderFragments(req)
	if err != nil {
		return nil, req, err
	}

	q, err := s.builder.Build(snap, req)
	return q, req, err
}

// Explain compiles a request and returns the SQL without executing it.
func (s *Service) Explain(ctx context.Context, datasetID string, req domain.QueryRequest) (*ExplainResult, error) {
	q, _, err := s.compile(ctx, datasetID, req)
	if err != nil {
		return nil, err
	}
	return &ExplainResult{SQL: q.SQL(), Dialect: q.Dialect().Name()}, nil
}

// Run compiles a request and executes it in the warehouse. Warehouse
// failures come back as an ExecutionError carrying the attempted SQL.
func (s *Service) Run(ctx context.Context, datasetID string, req domain.QueryRequest) (*RunResult, error) {
	if s.warehouse == nil {
		return nil, domain.ErrValidation("no warehouse configured, use explain instead")
	}
	q, effective, err := s.compile(ctx, datasetID, req)
	if err != nil {
		return nil, err
	}
	sql := q.SQL()

	start := time.Now()
	result, err := s.warehouse.Query(ctx, sql, effective.RowLimit)
	duration := time.Since(start)
	if err != nil {
		s.logger.Error("query failed", "dataset_id", datasetID, "error", err)
		return nil, &domain.ExecutionError{SQL: sql, Err: err}
	}

	s.logger.Info("query executed",
		"dataset_id", datasetID, "rows", len(result.Rows), "duration_ms", duration.Milliseconds())

	return &RunResult{
		SQL:      sql,
		Columns:  result.Columns,
		Rows:     result.Rows,
		RowCount: len(result.Rows),
		Duration: duration,
	}, nil
}
