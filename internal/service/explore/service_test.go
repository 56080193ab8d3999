package explore

import (
	"context"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "bq-demo/internal/db"
	"bq-demo/internal/db/repository"
	"bq-demo/internal/domain"
	"bq-demo/internal/service/metadata"
	"bq-demo/internal/sqlbuilder"
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

func setupExplore(t *testing.T, wh domain.Warehouse) (*Service, string) {
	t.Helper()
	writeDB, readDB := internaldb.OpenTestSQLite(t)
	meta := metadata.NewService(
		repository.NewDatasetRepo(writeDB, readDB),
		repository.NewColumnRepo(writeDB, readDB),
		repository.NewMetricRepo(writeDB, readDB),
		wh,
		nil,
	)
	ctx := context.Background()

	ds, err := meta.CreateDataset(ctx, "admin", domain.CreateDatasetRequest{
		ProjectID:          "acme",
		DatasetName:        "sales",
		TableName:          "orders",
		MainTemporalColumn: "ts",
		RowLimit:           1000,
	})
	require.NoError(t, err)

	for _, req := range []domain.CreateColumnRequest{
		{DatasetID: ds.ID, Name: "country", Type: "STRING", Groupable: true, Filterable: true},
		{DatasetID: ds.ID, Name: "revenue", Type: "FLOAT", IsNumeric: true, Sum: true},
		{DatasetID: ds.ID, Name: "ts", Type: "TIMESTAMP", IsTemporal: true},
	} {
		_, err := meta.CreateColumn(ctx, req)
		require.NoError(t, err)
	}
	_, err = meta.GenerateMetrics(ctx, ds.ID)
	require.NoError(t, err)

	return NewService(meta, wh, sqlbuilder.BigQuery{}, nil), ds.ID
}

func TestExplain(t *testing.T) {
	svc, datasetID := setupExplore(t, &mockWarehouse{})

	res, err := svc.Explain(context.Background(), datasetID, domain.QueryRequest{
		GroupBy:  []string{"country"},
		Metrics:  []string{"sum__revenue"},
		RowLimit: 10,
	})
	require.NoError(t, err)

	assert.Equal(t, "bigquery", res.Dialect)
	want := "SELECT `country` AS country, SUM(revenue) AS sum__revenue\n" +
		"FROM `acme.sales.orders`\n" +
		"GROUP BY `country`\n" +
		"ORDER BY sum__revenue DESC\n" +
		"LIMIT 10"
	assert.Equal(t, want, res.SQL)
}

func TestExplain_DatasetRowLimitDefault(t *testing.T) {
	svc, datasetID := setupExplore(t, &mockWarehouse{})

	res, err := svc.Explain(context.Background(), datasetID, domain.QueryRequest{
		Metrics: []string{"count"},
	})
	require.NoError(t, err)
	assert.Contains(t, res.SQL, "LIMIT 1000")
}

func TestExplain_TemplateFragments(t *testing.T) {
	svc, datasetID := setupExplore(t, &mockWarehouse{})

	res, err := svc.Explain(context.Background(), datasetID, domain.QueryRequest{
		GroupBy:    []string{"country"},
		ExtraWhere: "country != 'XX' /* limit {{.RowLimit}} */",
		RowLimit:   50,
	})
	require.NoError(t, err)
	assert.Contains(t, res.SQL, "limit 50")
}

func TestExplain_InvalidTemplate(t *testing.T) {
	svc, datasetID := setupExplore(t, &mockWarehouse{})

	_, err := svc.Explain(context.Background(), datasetID, domain.QueryRequest{
		ExtraWhere: "{{.Nope}}",
	})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestExplain_UnknownDataset(t *testing.T) {
	svc, _ := setupExplore(t, &mockWarehouse{})

	_, err := svc.Explain(context.Background(), "missing", domain.QueryRequest{})
	var nfe *domain.NotFoundError
	require.ErrorAs(t, err, &nfe)
}

func TestRun(t *testing.T) {
	var gotSQL string
	var gotMaxRows int
	wh := &mockWarehouse{
		queryFn: func(_ context.Context, sql string, maxRows int) (*domain.QueryResult, error) {
			gotSQL = sql
			gotMaxRows = maxRows
			return &domain.QueryResult{
				Columns: []string{"country", "sum__revenue"},
				Rows:    [][]any{{"US", 42.0}, {"FR", 17.5}},
			}, nil
		},
	}
	svc, datasetID := setupExplore(t, wh)

	res, err := svc.Run(context.Background(), datasetID, domain.QueryRequest{
		GroupBy: []string{"country"},
		Metrics: []string{"sum__revenue"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.RowCount)
	assert.Equal(t, []string{"country", "sum__revenue"}, res.Columns)
	assert.Contains(t, gotSQL, "GROUP BY `country`")
	assert.Equal(t, 1000, gotMaxRows) // dataset default applied
}

func TestRun_WarehouseFailure(t *testing.T) {
	wh := &mockWarehouse{
		queryFn: func(_ context.Context, _ string, _ int) (*domain.QueryResult, error) {
			return nil, errors.New("quota exceeded")
		},
	}
	svc, datasetID := setupExplore(t, wh)

	_, err := svc.Run(context.Background(), datasetID, domain.QueryRequest{
		Metrics: []string{"count"},
	})

	var ee *domain.ExecutionError
	require.ErrorAs(t, err, &ee)
	assert.Contains(t, ee.SQL, "COUNT(*)")
	assert.Contains(t, ee.Err.Error(), "quota exceeded")
}
