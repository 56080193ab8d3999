package repository

import (
	"context"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "bq-demo/internal/db"
	"bq-demo/internal/domain"
)

func setupMetadataRepos(t *testing.T) (*DatasetRepo, *ColumnRepo, *MetricRepo, string) {
	t.Helper()
	writeDB, readDB := internaldb.OpenTestSQLite(t)
	datasets := NewDatasetRepo(writeDB, readDB)

	ds, err := datasets.Create(context.Background(), &domain.Dataset{
		ProjectID: "acme", DatasetName: "sales", TableName: "orders",
	})
	require.NoError(t, err)

	return datasets, NewColumnRepo(writeDB, readDB), NewMetricRepo(writeDB, readDB), ds.ID
}

func TestColumnRepo_CRUD(t *testing.T) {
	_, columns, _, datasetID := setupMetadataRepos(t)
	ctx := context.Background()

	created, err := columns.Create(ctx, &domain.Column{
		DatasetID:  datasetID,
		Name:       "revenue",
		Type:       "FLOAT",
		IsNumeric:  true,
		Filterable: true,
		Sum:        true,
		Avg:        true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.True(t, created.Sum)
	assert.True(t, created.Avg)
	assert.False(t, created.Max)

	t.Run("get by name", func(t *testing.T) {
		got, err := columns.GetByName(ctx, datasetID, "revenue")
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.True(t, got.IsNumeric)
	})

	t.Run("update flips flags", func(t *testing.T) {
		maxFlag := true
		sum := false
		updated, err := columns.Update(ctx, created.ID, domain.UpdateColumnRequest{
			Max: &maxFlag,
			Sum: &sum,
		})
		require.NoError(t, err)
		assert.True(t, updated.Max)
		assert.False(t, updated.Sum)
		assert.True(t, updated.Avg)
	})

	t.Run("duplicate name conflicts", func(t *testing.T) {
		_, err := columns.Create(ctx, &domain.Column{
			DatasetID: datasetID, Name: "revenue", Type: "FLOAT",
		})
		var ce *domain.ConflictError
		require.ErrorAs(t, err, &ce)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, columns.Delete(ctx, created.ID))

		_, err := columns.GetByName(ctx, datasetID, "revenue")
		var nfe *domain.NotFoundError
		require.ErrorAs(t, err, &nfe)
	})
}

func TestMetricRepo_CRUD(t *testing.T) {
	_, _, metrics, datasetID := setupMetadataRepos(t)
	ctx := context.Background()

	created, err := metrics.Create(ctx, &domain.Metric{
		DatasetID:  datasetID,
		Name:       "sum__revenue",
		MetricType: domain.MetricTypeSum,
		Expression: "SUM(revenue)",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	t.Run("get by name", func(t *testing.T) {
		got, err := metrics.GetByName(ctx, datasetID, "sum__revenue")
		require.NoError(t, err)
		assert.Equal(t, "SUM(revenue)", got.Expression)
	})

	t.Run("duplicate name conflicts", func(t *testing.T) {
		_, err := metrics.Create(ctx, &domain.Metric{
			DatasetID:  datasetID,
			Name:       "sum__revenue",
			MetricType: domain.MetricTypeSum,
			Expression: "SUM(revenue)",
		})
		var ce *domain.ConflictError
		require.ErrorAs(t, err, &ce)
	})

	t.Run("update expression", func(t *testing.T) {
		expr := "SUM(net_revenue)"
		updated, err := metrics.Update(ctx, created.ID, domain.UpdateMetricRequest{Expression: &expr})
		require.NoError(t, err)
		assert.Equal(t, "SUM(net_revenue)", updated.Expression)
	})

	t.Run("list by dataset", func(t *testing.T) {
		all, err := metrics.ListByDataset(ctx, datasetID)
		require.NoError(t, err)
		require.Len(t, all, 1)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, metrics.Delete(ctx, created.ID))

		all, err := metrics.ListByDataset(ctx, datasetID)
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}

func TestMetadataRepos_DeleteCascades(t *testing.T) {
	datasets, columns, metrics, datasetID := setupMetadataRepos(t)
	ctx := context.Background()

	_, err := columns.Create(ctx, &domain.Column{DatasetID: datasetID, Name: "country", Type: "STRING"})
	require.NoError(t, err)
	_, err = metrics.Create(ctx, &domain.Metric{
		DatasetID: datasetID, Name: "count_rows", MetricType: domain.MetricTypeCount, Expression: "COUNT(*)",
	})
	require.NoError(t, err)

	require.NoError(t, datasets.Delete(ctx, datasetID))

	cols, err := columns.ListByDataset(ctx, datasetID)
	require.NoError(t, err)
	assert.Empty(t, cols)

	ms, err := metrics.ListByDataset(ctx, datasetID)
	require.NoError(t, err)
	assert.Empty(t, ms)
}
