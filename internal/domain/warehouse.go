package domain

import "context"

// QueryResult holds the rows returned by a warehouse query in column order.
type QueryResult struct {
	Columns []string
	Rows    [][]any
}

// TableField describes one column of a warehouse table as reported by
// introspection.
type TableField struct {
	Name string
	Type string
}

// Warehouse executes SQL against the analytical engine and introspects
// table schemas. Implementations must be safe for concurrent use.
type Warehouse interface {
	// Query runs sql and returns at most maxRows rows. maxRows <= 0 means
	// no cap.
	Query(ctx context.Context, sql string, maxRows int) (*QueryResult, error)

	// TableSchema returns the field list of a fully qualified table.
	TableSchema(ctx context.Context, projectID, datasetName, tableName string) ([]TableField, error)
}
