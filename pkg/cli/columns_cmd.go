package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bq-demo/internal/domain"
)

func newColumnsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "columns",
		Short: "Manage dataset columns",
	}
	cmd.AddCommand(newColumnsListCmd())
	cmd.AddCommand(newColumnsAddCmd())
	return cmd
}

func newColumnsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <dataset-id>",
		Short: "List a dataset's columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, svc, err := openMetastore(cmd)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			columns, err := svc.ListColumns(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), columns)
			}
			rows := make([][]string, 0, len(columns))
			for _, c := range columns {
				rows = append(rows, []string{c.Name, c.Type, columnRoles(c), columnAggs(c)})
			}
			return printTable(cmd.OutOrStdout(), []string{"NAME", "TYPE", "ROLES", "AGGREGATIONS"}, rows)
		},
	}
}

func columnRoles(c domain.Column) string {
	var roles []string
	if c.Groupable {
		roles = append(roles, "group")
	}
	if c.Filterable {
		roles = append(roles, "filter")
	}
	if c.IsTemporal {
		roles = append(roles, "temporal")
	}
	if c.IsNumeric {
		roles = append(roles, "numeric")
	}
	return strings.Join(roles, ",")
}

func columnAggs(c domain.Column) string {
	var aggs []string
	if c.Sum {
		aggs = append(aggs, "sum")
	}
	if c.Avg {
		aggs = append(aggs, "avg")
	}
	if c.Min {
		aggs = append(aggs, "min")
	}
	if c.Max {
		aggs = append(aggs, "max")
	}
	if c.CountDistinct {
		aggs = append(aggs, "count_distinct")
	}
	return strings.Join(aggs, ",")
}

func newColumnsAddCmd() *cobra.Command {
	var req domain.CreateColumnRequest

	cmd := &cobra.Command{
		Use:   "add <dataset-id>",
		Short: "Register a column on a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, svc, err := openMetastore(cmd)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			req.DatasetID = args[0]
			col, err := svc.CreateColumn(cmd.Context(), req)
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), col)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered column %s (%s)\n", col.Name, col.Type)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Column name")
	cmd.Flags().StringVar(&req.Type, "type", "", "Warehouse type (STRING, INTEGER, TIMESTAMP, ...)")
	cmd.Flags().StringVar(&req.Expression, "expression", "", "SQL expression overriding the column name")
	cmd.Flags().BoolVar(&req.IsNumeric, "numeric", false, "Column holds numeric values")
	cmd.Flags().BoolVar(&req.Groupable, "groupable", false, "Column may appear in GROUP BY")
	cmd.Flags().BoolVar(&req.Filterable, "filterable", false, "Column may appear in filters")
	cmd.Flags().BoolVar(&req.IsTemporal, "temporal", false, "Column holds timestamps")
	cmd.Flags().BoolVar(&req.Sum, "sum", false, "Derive a SUM metric")
	cmd.Flags().BoolVar(&req.Avg, "avg", false, "Derive an AVG metric")
	cmd.Flags().BoolVar(&req.Min, "min", false, "Derive a MIN metric")
	cmd.Flags().BoolVar(&req.Max, "max", false, "Derive a MAX metric")
	cmd.Flags().BoolVar(&req.CountDistinct, "count-distinct", false, "Derive a COUNT(DISTINCT) metric")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}
