package main

import (
	"fmt"

	"github.com/dvloznov/dataset-loader/internal/catalog"
	"github.com/dvloznov/dataset-loader/internal/pipeline"
	"github.com/spf13/cobra"
)

func (a *app) loadCommand() *cobra.Command {
	var table, database string

	cmd := &cobra.Command{
		Use:   "load <archive>",
		Short: "Load an annotated image archive into a new table",
		Long: `Load extracts the archive (once), splits its images into train, valid and
test folders, reads every YOLO label file and writes one row per bounding box
into a newly created table.

The archive path is relative to the data root, or a gs:// URI.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if database == "" {
				database = a.settings.Catalog.DefaultDatabase
			}

			b, err := a.openBackend(ctx)
			if err != nil {
				return err
			}
			defer a.closeBackend(b)

			report, err := a.newLoader(b, nil).Load(ctx, pipeline.Request{
				ArchivePath: args[0],
				Table:       catalog.NewTableInfo(database, table),
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), report.Summary())
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&table, "table", "", "Name of the table to create (required)")
	flags.StringVar(&database, "database", "", "Database of the table (default from config)")
	flags.Float64("train", 0, "Share of images assigned to the train split")
	flags.Float64("valid", 0, "Share of images assigned to the valid split")
	flags.Float64("test", 0, "Share of images assigned to the test split")
	flags.Uint64("seed", 0, "Shuffle seed; 0 draws one from the clock")
	_ = cmd.MarkFlagRequired("table")

	a.bindFlag("split.train", flags.Lookup("train"))
	a.bindFlag("split.valid", flags.Lookup("valid"))
	a.bindFlag("split.test", flags.Lookup("test"))
	a.bindFlag("split.seed", flags.Lookup("seed"))

	return cmd
}
