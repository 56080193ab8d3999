// Package cli implements the bqctl command-line interface. It operates
// directly on the SQLite metastore, so no API server needs to be running.
package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	internaldb "bq-demo/internal/db"
	"bq-demo/internal/db/repository"
	"bq-demo/internal/service/metadata"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		dbPath string
		output string
	)

	rootCmd := &cobra.Command{
		Use:           "bqctl",
		Short:         "BigQuery dataset metastore CLI",
		Long:          "Command-line interface for managing dataset metadata and compiling queries.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("db") {
				if v := os.Getenv("META_DB_PATH"); v != "" {
					dbPath = v
				}
			}
			return validateOutputFormat(output)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "bq_meta.sqlite", "Path to the SQLite metastore")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")

	rootCmd.AddCommand(newDatasetsCmd())
	rootCmd.AddCommand(newColumnsCmd())
	rootCmd.AddCommand(newMetricsCmd())
	rootCmd.AddCommand(newCompileCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// openMetastore opens the metastore named by the root --db flag, runs
// pending migrations, and wires a metadata service over it. The caller
// must Close the returned handle.
func openMetastore(cmd *cobra.Command) (*sql.DB, *metadata.Service, error) {
	dbPath, _ := cmd.Root().PersistentFlags().GetString("db")

	db, err := internaldb.OpenSQLite(dbPath, "write", 0)
	if err != nil {
		return nil, nil, fmt.Errorf("open metastore %s: %w", dbPath, err)
	}
	if err := internaldb.RunMigrations(db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate metastore: %w", err)
	}

	// The CLI is a single short-lived caller, so one handle serves
	// both the write and read roles.
	svc := metadata.NewService(
		repository.NewDatasetRepo(db, db),
		repository.NewColumnRepo(db, db),
		repository.NewMetricRepo(db, db),
		nil,
		nil,
	)
	return db, svc, nil
}
