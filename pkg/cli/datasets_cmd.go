package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"bq-demo/internal/domain"
)

func newDatasetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "Manage registered datasets",
	}
	cmd.AddCommand(newDatasetsListCmd())
	cmd.AddCommand(newDatasetsAddCmd())
	cmd.AddCommand(newDatasetsUpdateCmd())
	cmd.AddCommand(newDatasetsRemoveCmd())
	return cmd
}

func newDatasetsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, svc, err := openMetastore(cmd)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			datasets, err := svc.ListDatasets(cmd.Context())
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), datasets)
			}
			rows := make([][]string, 0, len(datasets))
			for _, d := range datasets {
				rows = append(rows, []string{
					d.ID, d.FullName(), d.MainTemporalColumn, strconv.Itoa(d.RowLimit),
				})
			}
			return printTable(cmd.OutOrStdout(), []string{"ID", "TABLE", "TEMPORAL", "ROW LIMIT"}, rows)
		},
	}
}

func newDatasetsAddCmd() *cobra.Command {
	var req domain.CreateDatasetRequest

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a BigQuery table as a dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, svc, err := openMetastore(cmd)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			ds, err := svc.CreateDataset(cmd.Context(), "bqctl", req)
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), ds)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s as %s\n", ds.FullName(), ds.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.ProjectID, "project", "", "GCP project ID")
	cmd.Flags().StringVar(&req.DatasetName, "dataset", "", "BigQuery dataset name")
	cmd.Flags().StringVar(&req.TableName, "table", "", "BigQuery table name")
	cmd.Flags().StringVar(&req.Description, "description", "", "Dataset description")
	cmd.Flags().StringVar(&req.MainTemporalColumn, "temporal", "", "Main temporal column for timeseries queries")
	cmd.Flags().IntVar(&req.RowLimit, "row-limit", 0, "Default row limit for queries (0 = unlimited)")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("dataset")
	_ = cmd.MarkFlagRequired("table")

	return cmd
}

func newDatasetsUpdateCmd() *cobra.Command {
	var (
		description string
		temporal    string
		rowLimit    int
	)

	cmd := &cobra.Command{
		Use:   "update <dataset-id>",
		Short: "Update a dataset's settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, svc, err := openMetastore(cmd)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			// Only flags the caller actually set become part of the patch.
			var req domain.UpdateDatasetRequest
			cmd.Flags().Visit(func(f *pflag.Flag) {
				switch f.Name {
				case "description":
					req.Description = &description
				case "temporal":
					req.MainTemporalColumn = &temporal
				case "row-limit":
					req.RowLimit = &rowLimit
				}
			})

			ds, err := svc.UpdateDataset(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), ds)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", ds.FullName())
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Dataset description")
	cmd.Flags().StringVar(&temporal, "temporal", "", "Main temporal column")
	cmd.Flags().IntVar(&rowLimit, "row-limit", 0, "Default row limit (0 = unlimited)")

	return cmd
}

func newDatasetsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <dataset-id>",
		Short: "Remove a dataset with its columns and metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, svc, err := openMetastore(cmd)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			if err := svc.DeleteDataset(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}
}
