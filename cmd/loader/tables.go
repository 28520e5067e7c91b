package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func (a *app) tablesCommand() *cobra.Command {
	var database string

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List catalog tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			b, err := a.openBackend(ctx)
			if err != nil {
				return err
			}
			defer a.closeBackend(b)

			tables, err := b.catalog.ListTables(ctx, database)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TABLE\tTYPE\tCOLUMNS\tCREATED\tLOCATION")
			for _, t := range tables {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
					t.Info, t.Type, len(t.Columns), t.CreatedAt.Format(time.RFC3339), t.Location)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&database, "database", "", "Only list tables of this database")
	return cmd
}
