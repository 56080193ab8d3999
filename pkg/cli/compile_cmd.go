package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"bq-demo/internal/sqlbuilder"
)

func newCompileCmd() *cobra.Command {
	var (
		requestFile string
		dialectName string
		strict      bool
	)

	cmd := &cobra.Command{
		Use:   "compile <dataset-id>",
		Short: "Compile a query request file to SQL",
		Long: "Reads a YAML query request, resolves it against the dataset's metadata, and\n" +
			"prints the compiled SQL. Nothing is executed.",
		Example: `  bqctl compile 0190f6a2 -f request.yaml
  bqctl compile 0190f6a2 -f request.yaml --dialect ansi`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := loadQueryFile(requestFile)
			if err != nil {
				return err
			}
			dialect, err := sqlbuilder.DialectByName(dialectName)
			if err != nil {
				return err
			}

			db, svc, err := openMetastore(cmd)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			snap, err := svc.Snapshot(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			builder := sqlbuilder.New(dialect)
			builder.SetStrictFilters(strict)
			q, err := builder.Build(snap, req)
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"sql":     q.SQL(),
					"dialect": dialect.Name(),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), q.SQL())
			return nil
		},
	}

	cmd.Flags().StringVarP(&requestFile, "file", "f", "", "YAML query request file")
	cmd.Flags().StringVar(&dialectName, "dialect", "bigquery", "SQL dialect (bigquery, ansi)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on unknown filter columns instead of skipping them")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"version": version,
					"commit":  commit,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "bqctl version %s (commit: %s)\n", version, commit)
			return nil
		},
	}
}
