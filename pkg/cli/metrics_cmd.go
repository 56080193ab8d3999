package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"bq-demo/internal/domain"
)

func newMetricsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Manage dataset metrics",
	}
	cmd.AddCommand(newMetricsListCmd())
	cmd.AddCommand(newMetricsGenerateCmd())
	return cmd
}

func newMetricsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <dataset-id>",
		Short: "List a dataset's stored metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, svc, err := openMetastore(cmd)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			metrics, err := svc.ListMetrics(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), metrics)
			}
			rows := make([][]string, 0, len(metrics))
			for _, m := range metrics {
				rows = append(rows, []string{m.Name, m.MetricType, m.Expression})
			}
			return printTable(cmd.OutOrStdout(), []string{"NAME", "TYPE", "EXPRESSION"}, rows)
		},
	}
}

func newMetricsGenerateCmd() *cobra.Command {
	var column string

	cmd := &cobra.Command{
		Use:   "generate <dataset-id>",
		Short: "Generate metrics from column aggregation flags",
		Long: "Derives one metric per enabled aggregation flag on the dataset's columns,\n" +
			"plus the implicit count metric. Existing metrics are left untouched, so the\n" +
			"command is safe to re-run.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, svc, err := openMetastore(cmd)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			var created []domain.Metric
			if column != "" {
				metrics, err := svc.GenerateMetricsForColumn(cmd.Context(), args[0], column)
				if err != nil {
					return err
				}
				created = metrics
			} else {
				metrics, err := svc.GenerateMetrics(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				created = metrics
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), created)
			}
			for _, m := range created {
				fmt.Fprintf(cmd.OutOrStdout(), "created %s = %s\n", m.Name, m.Expression)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d metric(s) created\n", len(created))
			return nil
		},
	}

	cmd.Flags().StringVar(&column, "column", "", "Generate for a single column only")
	return cmd
}
