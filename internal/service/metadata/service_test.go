package metadata

import (
	"context"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "bq-demo/internal/db"
	"bq-demo/internal/db/repository"
	"bq-demo/internal/domain"
)

type mockWarehouse struct {
	queryFn       func(ctx context.Context, sql string, maxRows int) (*domain.QueryResult, error)
	tableSchemaFn func(ctx context.Context, projectID, datasetName, tableName string) ([]domain.TableField, error)
}

func (m *mockWarehouse) Query(ctx context.Context, sql string, maxRows int) (*domain.QueryResult, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, sql, maxRows)
	}
	panic("unexpected call to mockWarehouse.Query")
}

func (m *mockWarehouse) TableSchema(ctx context.Context, projectID, datasetName, tableName string) ([]domain.TableField, error) {
	if m.tableSchemaFn != nil {
		return m.tableSchemaFn(ctx, projectID, datasetName, tableName)
	}
	panic("unexpected call to mockWarehouse.TableSchema")
}

func setupService(t *testing.T, wh domain.Warehouse) *Service {
	t.Helper()
	writeDB, readDB := internaldb.OpenTestSQLite(t)
	return NewService(
		repository.NewDatasetRepo(writeDB, readDB),
		repository.NewColumnRepo(writeDB, readDB),
		repository.NewMetricRepo(writeDB, readDB),
		wh,
		nil,
	)
}

func createTestDataset(t *testing.T, svc *Service) *domain.Dataset {
	t.Helper()
	ds, err := svc.CreateDataset(context.Background(), "admin", domain.CreateDatasetRequest{
		ProjectID:          "acme",
		DatasetName:        "sales",
		TableName:          "orders",
		MainTemporalColumn: "created_ts",
	})
	require.NoError(t, err)
	return ds
}

func TestService_GenerateMetricsForColumn(t *testing.T) {
	svc := setupService(t, &mockWarehouse{})
	ctx := context.Background()
	ds := createTestDataset(t, svc)

	_, err := svc.CreateColumn(ctx, domain.CreateColumnRequest{
		DatasetID: ds.ID,
		Name:      "revenue",
		Type:      "FLOAT",
		IsNumeric: true,
		Sum:       true,
		Avg:       true,
	})
	require.NoError(t, err)

	created, err := svc.GenerateMetricsForColumn(ctx, ds.ID, "revenue")
	require.NoError(t, err)

	names := make([]string, len(created))
	for i, m := range created {
		names[i] = m.Name
	}
	assert.ElementsMatch(t, []string{"count", "sum__revenue", "avg__revenue"}, names)

	sum, err := svc.metrics.GetByName(ctx, ds.ID, "sum__revenue")
	require.NoError(t, err)
	assert.Equal(t, "SUM(revenue)", sum.Expression)
	assert.Equal(t, domain.MetricTypeSum, sum.MetricType)

	t.Run("second run creates nothing", func(t *testing.T) {
		again, err := svc.GenerateMetricsForColumn(ctx, ds.ID, "revenue")
		require.NoError(t, err)
		assert.Empty(t, again)

		all, err := svc.ListMetrics(ctx, ds.ID)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})
}

func TestService_GenerateMetricsSketchColumn(t *testing.T) {
	svc := setupService(t, &mockWarehouse{})
	ctx := context.Background()
	ds := createTestDataset(t, svc)

	_, err := svc.CreateColumn(ctx, domain.CreateColumnRequest{
		DatasetID:     ds.ID,
		Name:          "user_id",
		Type:          domain.SketchTypeHyperUnique,
		CountDistinct: true,
	})
	require.NoError(t, err)

	_, err = svc.GenerateMetricsForColumn(ctx, ds.ID, "user_id")
	require.NoError(t, err)

	// The sketch type is carried on the metric type only; the expression
	// stays a plain COUNT(DISTINCT ...).
	m, err := svc.metrics.GetByName(ctx, ds.ID, "count_distinct__user_id")
	require.NoError(t, err)
	assert.Equal(t, domain.SketchTypeHyperUnique, m.MetricType)
	assert.Equal(t, "COUNT(DISTINCT user_id)", m.Expression)
}

func TestService_GenerateMetricsUsesColumnExpression(t *testing.T) {
	svc := setupService(t, &mockWarehouse{})
	ctx := context.Background()
	ds := createTestDataset(t, svc)

	_, err := svc.CreateColumn(ctx, domain.CreateColumnRequest{
		DatasetID:  ds.ID,
		Name:       "margin",
		Type:       "FLOAT",
		Expression: "revenue - cost",
		IsNumeric:  true,
		Sum:        true,
	})
	require.NoError(t, err)

	_, err = svc.GenerateMetricsForColumn(ctx, ds.ID, "margin")
	require.NoError(t, err)

	m, err := svc.metrics.GetByName(ctx, ds.ID, "sum__margin")
	require.NoError(t, err)
	assert.Equal(t, "SUM(revenue - cost)", m.Expression)
}

func TestService_GenerateMetricsWholeDataset(t *testing.T) {
	svc := setupService(t, &mockWarehouse{})
	ctx := context.Background()
	ds := createTestDataset(t, svc)

	_, err := svc.CreateColumn(ctx, domain.CreateColumnRequest{
		DatasetID: ds.ID, Name: "revenue", Type: "FLOAT", IsNumeric: true, Sum: true,
	})
	require.NoError(t, err)
	_, err = svc.CreateColumn(ctx, domain.CreateColumnRequest{
		DatasetID: ds.ID, Name: "units", Type: "INTEGER", IsNumeric: true, Max: true,
	})
	require.NoError(t, err)

	created, err := svc.GenerateMetrics(ctx, ds.ID)
	require.NoError(t, err)
	assert.Len(t, created, 3) // count, sum__revenue, max__units
}

func TestService_Snapshot(t *testing.T) {
	svc := setupService(t, &mockWarehouse{})
	ctx := context.Background()
	ds := createTestDataset(t, svc)

	_, err := svc.CreateColumn(ctx, domain.CreateColumnRequest{
		DatasetID: ds.ID, Name: "country", Type: "STRING", Groupable: true,
	})
	require.NoError(t, err)

	snap, err := svc.Snapshot(ctx, ds.ID)
	require.NoError(t, err)

	_, ok := snap.Column("country")
	assert.True(t, ok)

	// The implicit count metric is present without generation.
	m, ok := snap.Metric("count")
	require.True(t, ok)
	assert.Equal(t, "COUNT(*)", m.Expression)
}

func TestService_Refresh(t *testing.T) {
	wh := &mockWarehouse{
		tableSchemaFn: func(_ context.Context, projectID, datasetName, tableName string) ([]domain.TableField, error) {
			return []domain.TableField{
				{Name: "country", Type: "STRING"},
				{Name: "revenue", Type: "FLOAT"},
				{Name: "created_ts", Type: "TIMESTAMP"},
			}, nil
		},
	}
	svc := setupService(t, wh)
	ctx := context.Background()
	ds := createTestDataset(t, svc)

	require.NoError(t, svc.Refresh(ctx, ds.ID))

	columns, err := svc.ListColumns(ctx, ds.ID)
	require.NoError(t, err)
	require.Len(t, columns, 3)

	byName := map[string]domain.Column{}
	for _, c := range columns {
		byName[c.Name] = c
	}
	assert.True(t, byName["country"].Groupable)
	assert.True(t, byName["country"].Filterable)
	assert.True(t, byName["revenue"].IsNumeric)
	assert.True(t, byName["revenue"].Sum)
	assert.True(t, byName["created_ts"].IsTemporal)

	refreshed, err := svc.GetDataset(ctx, ds.ID)
	require.NoError(t, err)
	assert.NotNil(t, refreshed.MetadataRefreshedAt)

	// Refresh generates metrics for the discovered columns in the same
	// pass, so a fresh dataset is queryable right away.
	metrics, err := svc.ListMetrics(ctx, ds.ID)
	require.NoError(t, err)
	metricNames := make([]string, len(metrics))
	for i, m := range metrics {
		metricNames[i] = m.Name
	}
	assert.ElementsMatch(t,
		[]string{"count", "sum__revenue", "avg__revenue", "min__revenue", "max__revenue"},
		metricNames)

	t.Run("repeat refresh keeps hand-tuned flags", func(t *testing.T) {
		groupable := true
		_, err := svc.UpdateColumn(ctx, byName["revenue"].ID, domain.UpdateColumnRequest{
			Groupable: &groupable,
		})
		require.NoError(t, err)

		require.NoError(t, svc.Refresh(ctx, ds.ID))

		col, err := svc.columns.GetByName(ctx, ds.ID, "revenue")
		require.NoError(t, err)
		assert.True(t, col.Groupable)

		columns, err := svc.ListColumns(ctx, ds.ID)
		require.NoError(t, err)
		assert.Len(t, columns, 3)
	})
}

func TestService_RefreshSecondTimestampStaysPlain(t *testing.T) {
	wh := &mockWarehouse{
		tableSchemaFn: func(_ context.Context, projectID, datasetName, tableName string) ([]domain.TableField, error) {
			return []domain.TableField{
				{Name: "created_ts", Type: "TIMESTAMP"},
				{Name: "updated_ts", Type: "TIMESTAMP"},
			}, nil
		},
	}
	svc := setupService(t, wh)
	ctx := context.Background()
	ds := createTestDataset(t, svc)

	require.NoError(t, svc.Refresh(ctx, ds.ID))

	columns, err := svc.ListColumns(ctx, ds.ID)
	require.NoError(t, err)
	require.Len(t, columns, 2)

	byName := map[string]domain.Column{}
	for _, c := range columns {
		byName[c.Name] = c
	}
	assert.True(t, byName["created_ts"].IsTemporal)
	assert.False(t, byName["updated_ts"].IsTemporal)
	assert.True(t, byName["updated_ts"].Filterable)
}

func TestService_SingleTemporalColumn(t *testing.T) {
	svc := setupService(t, &mockWarehouse{})
	ctx := context.Background()
	ds := createTestDataset(t, svc)

	first, err := svc.CreateColumn(ctx, domain.CreateColumnRequest{
		DatasetID:  ds.ID,
		Name:       "created_ts",
		Type:       "TIMESTAMP",
		IsTemporal: true,
		Filterable: true,
	})
	require.NoError(t, err)

	_, err = svc.CreateColumn(ctx, domain.CreateColumnRequest{
		DatasetID:  ds.ID,
		Name:       "updated_ts",
		Type:       "TIMESTAMP",
		IsTemporal: true,
	})
	var ce *domain.ConflictError
	require.ErrorAs(t, err, &ce)

	other, err := svc.CreateColumn(ctx, domain.CreateColumnRequest{
		DatasetID: ds.ID,
		Name:      "updated_ts",
		Type:      "TIMESTAMP",
	})
	require.NoError(t, err)

	t.Run("update cannot claim a taken slot", func(t *testing.T) {
		temporal := true
		_, err := svc.UpdateColumn(ctx, other.ID, domain.UpdateColumnRequest{
			IsTemporal: &temporal,
		})
		require.ErrorAs(t, err, &ce)
	})

	t.Run("holder can reassert its own flag", func(t *testing.T) {
		temporal := true
		updated, err := svc.UpdateColumn(ctx, first.ID, domain.UpdateColumnRequest{
			IsTemporal: &temporal,
		})
		require.NoError(t, err)
		assert.True(t, updated.IsTemporal)
	})

	t.Run("slot frees up when released", func(t *testing.T) {
		temporal := false
		_, err := svc.UpdateColumn(ctx, first.ID, domain.UpdateColumnRequest{
			IsTemporal: &temporal,
		})
		require.NoError(t, err)

		temporal = true
		updated, err := svc.UpdateColumn(ctx, other.ID, domain.UpdateColumnRequest{
			IsTemporal: &temporal,
		})
		require.NoError(t, err)
		assert.True(t, updated.IsTemporal)
	})
}
