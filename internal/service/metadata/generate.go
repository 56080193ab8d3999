package metadata

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"bq-demo/internal/domain"
)

// derivedMetrics expands a column's aggregation flags into metric
// definitions named "{agg}__{column}". The expansion is deterministic so
// repeated generation always produces the same set.
func derivedMetrics(c domain.Column) []domain.Metric {
	ref := c.Name
	if c.Expression != "" {
		ref = c.Expression
	}

	var out []domain.Metric
	add := func(agg, metricType, expr string) {
		out = append(out, domain.Metric{
			DatasetID:  c.DatasetID,
			Name:       fmt.Sprintf("%s__%s", agg, c.Name),
			MetricType: metricType,
			Expression: expr,
		})
	}

	if c.Sum {
		add("sum", domain.MetricTypeSum, fmt.Sprintf("SUM(%s)", ref))
	}
	if c.Avg {
		add("avg", domain.MetricTypeAvg, fmt.Sprintf("AVG(%s)", ref))
	}
	if c.Min {
		add("min", domain.MetricTypeMin, fmt.Sprintf("MIN(%s)", ref))
	}
	if c.Max {
		add("max", domain.MetricTypeMax, fmt.Sprintf("MAX(%s)", ref))
	}
	if c.CountDistinct {
		// Sketch-typed columns keep the column type as the metric type so
		// downstream consumers know the distinct count is approximate; the
		// expression stays a plain COUNT(DISTINCT ...).
		metricType := domain.MetricTypeCountDistinct
		if domain.IsSketchType(c.Type) {
			metricType = c.Type
		}
		add("count_distinct", metricType, fmt.Sprintf("COUNT(DISTINCT %s)", ref))
	}
	return out
}

// GenerateMetricsForColumn materializes the metrics implied by one
// column's aggregation flags. Existing metrics with the same name are left
// untouched, so the operation is safe to repeat.
func (s *Service) GenerateMetricsForColumn(ctx context.Context, datasetID, columnName string) ([]domain.Metric, error) {
	col, err := s.columns.GetByName(ctx, datasetID, columnName)
	if err != nil {
		return nil, err
	}

	mu := s.datasetLock(datasetID)
	mu.Lock()
	defer mu.Unlock()

	want := append([]domain.Metric{countMetric(datasetID)}, derivedMetrics(*col)...)
	return s.ensureMetrics(ctx, want)
}

// countMetric is the stored form of the dataset-level row count, generated
// alongside every column's metrics.
func countMetric(datasetID string) domain.Metric {
	return domain.Metric{
		DatasetID:  datasetID,
		Name:       domain.CountMetricName,
		MetricType: domain.MetricTypeCount,
		Expression: "COUNT(*)",
	}
}

// GenerateMetrics materializes metrics for every column of a dataset plus
// the dataset-level count metric. It returns only the metrics created by
// this call.
func (s *Service) GenerateMetrics(ctx context.Context, datasetID string) ([]domain.Metric, error) {
	columns, err := s.columns.ListByDataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	mu := s.datasetLock(datasetID)
	mu.Lock()
	defer mu.Unlock()

	want := []domain.Metric{countMetric(datasetID)}
	for _, col := range columns {
		want = append(want, derivedMetrics(col)...)
	}
	return s.ensureMetrics(ctx, want)
}

func (s *Service) ensureMetrics(ctx context.Context, want []domain.Metric) ([]domain.Metric, error) {
	var created []domain.Metric
	for _, m := range want {
		stored, isNew, err := s.ensureMetric(ctx, m)
		if err != nil {
			return nil, err
		}
		if isNew {
			created = append(created, *stored)
		}
	}
	if len(created) > 0 {
		s.logger.Info("metrics generated", "dataset_id", want[0].DatasetID, "created", len(created))
	}
	return created, nil
}

// columnFlagsForType derives metadata flags from a warehouse field type.
func columnFlagsForType(fieldType string) domain.CreateColumnRequest {
	req := domain.CreateColumnRequest{Type: fieldType}
	switch fieldType {
	case "STRING", "BOOLEAN", "BOOL":
		req.Groupable = true
		req.Filterable = true
	case "INTEGER", "INT64", "FLOAT", "FLOAT64", "NUMERIC", "BIGNUMERIC":
		req.IsNumeric = true
		req.Filterable = true
		req.Sum = true
		req.Avg = true
		req.Min = true
		req.Max = true
	case "TIMESTAMP", "DATETIME", "DATE":
		req.IsTemporal = true
		req.Filterable = true
	}
	return req
}

// Refresh introspects the warehouse table and reconciles the dataset's
// column metadata: new fields are registered with flags derived from their
// type, known fields get their type updated. Columns are never dropped
// automatically since they may carry hand-tuned flags or expressions.
func (s *Service) Refresh(ctx context.Context, datasetID string) error {
	if s.warehouse == nil {
		return domain.ErrValidation("no warehouse configured, metadata refresh is unavailable")
	}
	ds, err := s.datasets.GetByID(ctx, datasetID)
	if err != nil {
		return err
	}

	fields, err := s.warehouse.TableSchema(ctx, ds.ProjectID, ds.DatasetName, ds.TableName)
	if err != nil {
		return fmt.Errorf("introspect %s: %w", ds.FullName(), err)
	}

	existing, err := s.columns.ListByDataset(ctx, datasetID)
	if err != nil {
		return err
	}
	byName := make(map[string]domain.Column, len(existing))
	hasTemporal := false
	for _, c := range existing {
		byName[c.Name] = c
		if c.IsTemporal {
			hasTemporal = true
		}
	}

	var added int
	for _, f := range fields {
		if current, ok := byName[f.Name]; ok {
			if current.Type != f.Type {
				t := f.Type
				if _, err := s.columns.Update(ctx, current.ID, domain.UpdateColumnRequest{Type: &t}); err != nil {
					return err
				}
			}
			continue
		}

		req := columnFlagsForType(f.Type)
		req.DatasetID = datasetID
		req.Name = f.Name
		// A dataset has at most one temporal column; the first timestamp
		// field claims the role, later ones stay plain filterable columns.
		if req.IsTemporal {
			if hasTemporal {
				req.IsTemporal = false
			} else {
				hasTemporal = true
			}
		}
		if _, err := s.CreateColumn(ctx, req); err != nil {
			return err
		}
		added++
	}

	generated, err := s.GenerateMetrics(ctx, datasetID)
	if err != nil {
		return err
	}

	if err := s.datasets.TouchRefreshedAt(ctx, datasetID); err != nil {
		return err
	}
	s.logger.Info("metadata refreshed",
		"dataset", ds.FullName(), "fields", len(fields), "added", added, "metrics", len(generated))
	return nil
}

// RefreshAll refreshes every registered dataset with bounded concurrency.
// The first failure cancels the remaining refreshes.
func (s *Service) RefreshAll(ctx context.Context) error {
	datasets, err := s.datasets.List(ctx)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, ds := range datasets {
		g.Go(func() error {
			return s.Refresh(ctx, ds.ID)
		})
	}
	return g.Wait()
}
