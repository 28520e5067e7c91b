package main

import (
	"context"
	"fmt"

	"github.com/dvloznov/dataset-loader/internal/annotation"
	"github.com/dvloznov/dataset-loader/internal/catalog"
	"github.com/dvloznov/dataset-loader/internal/config"
	"github.com/dvloznov/dataset-loader/internal/dataset"
	"github.com/dvloznov/dataset-loader/internal/gcsuploader"
	infraBQ "github.com/dvloznov/dataset-loader/internal/infra/bigquery"
	"github.com/dvloznov/dataset-loader/internal/infra/sqlite"
	"github.com/dvloznov/dataset-loader/internal/logger"
	"github.com/dvloznov/dataset-loader/internal/metrics"
	"github.com/dvloznov/dataset-loader/internal/pipeline"
	"github.com/dvloznov/dataset-loader/internal/split"
	"github.com/dvloznov/dataset-loader/internal/storage"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// app carries what every subcommand needs once flags and config are read.
type app struct {
	v        *viper.Viper
	cfgFile  string
	settings *config.Settings
	log      zerolog.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{v: config.New()}

	rootCmd := &cobra.Command{
		Use:          "loader",
		Short:        "Load YOLO-annotated image archives into catalog tables",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initialize(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "Config file (default ./loader.yaml)")
	flags.String("data-root", "", "Directory holding archives and the dataset tree")
	flags.String("backend", "", "Catalog backend: sqlite or bigquery")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")

	a.bindFlag("data_root", flags.Lookup("data-root"))
	a.bindFlag("catalog.backend", flags.Lookup("backend"))
	a.bindFlag("log.level", flags.Lookup("log-level"))

	rootCmd.AddCommand(
		a.loadCommand(),
		a.tablesCommand(),
		a.uploadCommand(),
		a.serveCommand(),
	)

	return rootCmd
}

// initialize loads and validates the settings and sets up logging. It runs
// after flag parsing so bound flags take precedence.
func (a *app) initialize(cmd *cobra.Command) error {
	settings, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	log, err := logger.NewWithConfig(cmd.ErrOrStderr(), settings.Log.Level, settings.Log.Format)
	if err != nil {
		return err
	}

	a.settings = settings
	a.log = log
	cmd.SetContext(logger.WithContext(cmd.Context(), log))
	return nil
}

func (a *app) bindFlag(key string, flag *pflag.Flag) {
	// Binding only fails for a nil flag, which is a programming error.
	if err := a.v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", key, err))
	}
}

// backend is an opened catalog together with the engines for its tables.
type backend struct {
	catalog catalog.Catalog
	engines storage.Factory
	close   func() error
}

func (a *app) openBackend(ctx context.Context) (*backend, error) {
	s := a.settings
	switch s.Catalog.Backend {
	case config.BackendBigQuery:
		bq, err := infraBQ.NewBigQueryCatalog(ctx, infraBQ.Config{
			ProjectID:       s.Catalog.BigQuery.Project,
			Location:        s.Catalog.BigQuery.Location,
			CredentialsFile: s.Catalog.BigQuery.CredentialsFile,
		})
		if err != nil {
			return nil, err
		}
		return &backend{catalog: bq, engines: bq, close: bq.Close}, nil
	default:
		store, err := sqlite.Open(sqlite.Config{
			Path:  s.Catalog.SQLitePath,
			Debug: s.Log.Level == "debug",
		})
		if err != nil {
			return nil, err
		}
		return &backend{catalog: store, engines: store, close: store.Close}, nil
	}
}

func (a *app) closeBackend(b *backend) {
	if err := b.close(); err != nil {
		a.log.Warn().Err(err).Msg("Failed to close catalog backend")
	}
}

func (a *app) newLoader(b *backend, m *metrics.IngestMetrics) *pipeline.Loader {
	s := a.settings
	layout := dataset.NewLayout(s.DataRoot, s.RawDir)

	return pipeline.NewLoader(pipeline.Deps{
		Stager:        dataset.NewStager(layout, gcsuploader.NewGCSArchiveStore()),
		Partitioner:   split.NewPartitioner(s.Split.Seed),
		Tabulator:     annotation.NewTabulator(),
		Catalog:       b.catalog,
		Engines:       b.engines,
		Metrics:       m,
		DefaultRatios: s.Ratios(),
	})
}
