// Package warehouse implements the domain Warehouse interface against
// BigQuery.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/bigquery"
	"golang.org/x/time/rate"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"bq-demo/internal/domain"
)

// Compile-time check.
var _ domain.Warehouse = (*BigQueryClient)(nil)

// BigQueryClient wraps the BigQuery SDK client with a rate limiter so a
// burst of explore requests cannot exhaust the project's query quota.
type BigQueryClient struct {
	client    *bigquery.Client
	projectID string
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// Options configures a BigQueryClient.
type Options struct {
	ProjectID       string
	CredentialsFile string  // empty means application default credentials
	QueriesPerSec   float64 // 0 defaults to 5
	Logger          *slog.Logger
}

// NewBigQueryClient creates a client for the given project.
func NewBigQueryClient(ctx context.Context, opts Options) (*BigQueryClient, error) {
	if opts.ProjectID == "" {
		return nil, domain.ErrValidation("warehouse project_id is required")
	}
	if opts.QueriesPerSec <= 0 {
		opts.QueriesPerSec = 5
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}

	client, err := bigquery.NewClient(ctx, opts.ProjectID, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create bigquery client: %w", err)
	}

	return &BigQueryClient{
		client:    client,
		projectID: opts.ProjectID,
		limiter:   rate.NewLimiter(rate.Limit(opts.QueriesPerSec), 1),
		logger:    opts.Logger.With("component", "warehouse"),
	}, nil
}

// Query runs sql and collects at most maxRows rows.
func (c *BigQueryClient) Query(ctx context.Context, sql string, maxRows int) (*domain.QueryResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := c.client.Query(sql)
	q.DefaultProjectID = c.projectID

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}

	result := &domain.QueryResult{}
	for {
		if maxRows > 0 && len(result.Rows) >= maxRows {
			break
		}
		var row []bigquery.Value
		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		values := make([]any, len(row))
		for i, v := range row {
			values[i] = v
		}
		result.Rows = append(result.Rows, values)
	}

	for _, field := range it.Schema {
		result.Columns = append(result.Columns, field.Name)
	}

	c.logger.Debug("query executed", "rows", len(result.Rows))
	return result, nil
}

// TableSchema introspects a table's field list.
func (c *BigQueryClient) TableSchema(ctx context.Context, projectID, datasetName, tableName string) ([]domain.TableField, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	md, err := c.client.DatasetInProject(projectID, datasetName).Table(tableName).Metadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("table metadata %s.%s.%s: %w", projectID, datasetName, tableName, err)
	}

	fields := make([]domain.TableField, 0, len(md.Schema))
	for _, f := range md.Schema {
		fields = append(fields, domain.TableField{Name: f.Name, Type: string(f.Type)})
	}
	return fields, nil
}

// Close releases the underlying SDK client.
func (c *BigQueryClient) Close() error {
	return c.client.Close()
}
