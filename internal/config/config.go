// Package config loads loader settings from defaults, an optional YAML
// file, LOADER_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/dataset-loader/internal/catalog"
	"github.com/dvloznov/dataset-loader/internal/dataset"
	"github.com/dvloznov/dataset-loader/internal/logger"
	"github.com/dvloznov/dataset-loader/internal/split"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override, e.g. LOADER_DATA_ROOT.
	EnvPrefix = "LOADER"

	// DefaultConfigName is looked up in the working directory when no
	// config file is given.
	DefaultConfigName = "loader"

	BackendSQLite   = "sqlite"
	BackendBigQuery = "bigquery"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Settings is the full loader configuration.
type Settings struct {
	DataRoot string          `mapstructure:"data_root"`
	RawDir   string          `mapstructure:"raw_dir"`
	Split    SplitSettings   `mapstructure:"split"`
	Catalog  CatalogSettings `mapstructure:"catalog"`
	GCS      GCSSettings     `mapstructure:"gcs"`
	Server   ServerSettings  `mapstructure:"server"`
	Jobs     JobsSettings    `mapstructure:"jobs"`
	Log      LogSettings     `mapstructure:"log"`
}

// SplitSettings are the default split ratios and shuffle seed.
// A zero seed draws one from the clock.
type SplitSettings struct {
	Train float64 `mapstructure:"train"`
	Valid float64 `mapstructure:"valid"`
	Test  float64 `mapstructure:"test"`
	Seed  uint64  `mapstructure:"seed"`
}

// CatalogSettings select and configure the catalog backend.
type CatalogSettings struct {
	Backend         string           `mapstructure:"backend"`
	DefaultDatabase string           `mapstructure:"default_database"`
	SQLitePath      string           `mapstructure:"sqlite_path"`
	BigQuery        BigQuerySettings `mapstructure:"bigquery"`
}

// BigQuerySettings configure the BigQuery backend.
type BigQuerySettings struct {
	Project         string `mapstructure:"project"`
	Location        string `mapstructure:"location"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// GCSSettings configure archive upload and download.
type GCSSettings struct {
	Bucket string `mapstructure:"bucket"`
}

type ServerSettings struct {
	Port int `mapstructure:"port"`
}

// JobsSettings configure the in-process job queue.
type JobsSettings struct {
	Workers   int           `mapstructure:"workers"`
	Buffer    int           `mapstructure:"buffer"`
	Retention time.Duration `mapstructure:"retention"`
}

type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// New returns a viper instance with defaults and environment bindings set.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	ratios := split.DefaultRatios()

	v.SetDefault("data_root", "data")
	v.SetDefault("raw_dir", dataset.DefaultRawDir)

	v.SetDefault("split.train", ratios.Train)
	v.SetDefault("split.valid", ratios.Valid)
	v.SetDefault("split.test", ratios.Test)
	v.SetDefault("split.seed", 0)

	v.SetDefault("catalog.backend", BackendSQLite)
	v.SetDefault("catalog.default_database", catalog.DefaultDatabase)
	v.SetDefault("catalog.sqlite_path", "data/catalog.db")
	v.SetDefault("catalog.bigquery.project", "")
	v.SetDefault("catalog.bigquery.location", "EU")
	v.SetDefault("catalog.bigquery.credentials_file", "")

	v.SetDefault("gcs.bucket", "")

	v.SetDefault("server.port", 8080)

	v.SetDefault("jobs.workers", 1)
	v.SetDefault("jobs.buffer", 100)
	v.SetDefault("jobs.retention", 24*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logger.FormatConsole)
}

// Load reads the config file into v and decodes the settings. An explicit
// path must exist; without one, ./loader.yaml is read if present.
func Load(v *viper.Viper, path string) (*Settings, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &s, nil
}

// Ratios returns the configured default split ratios.
func (s *Settings) Ratios() split.Ratios {
	return split.Ratios{Train: s.Split.Train, Valid: s.Split.Valid, Test: s.Split.Test}
}

// Validate rejects settings the loader cannot run with.
func (s *Settings) Validate() error {
	if s.DataRoot == "" {
		return fmt.Errorf("%w: data_root is required", ErrInvalidConfig)
	}
	if s.RawDir == "" {
		return fmt.Errorf("%w: raw_dir is required", ErrInvalidConfig)
	}
	if err := s.Ratios().Validate(); err != nil {
		return fmt.Errorf("%w: split: %v", ErrInvalidConfig, err)
	}

	switch s.Catalog.Backend {
	case BackendSQLite:
		if s.Catalog.SQLitePath == "" {
			return fmt.Errorf("%w: catalog.sqlite_path is required for the sqlite backend", ErrInvalidConfig)
		}
	case BackendBigQuery:
		if s.Catalog.BigQuery.Project == "" {
			return fmt.Errorf("%w: catalog.bigquery.project is required for the bigquery backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown catalog backend %q", ErrInvalidConfig, s.Catalog.Backend)
	}

	if err := catalog.NewTableInfo(s.Catalog.DefaultDatabase, "t").Validate(); err != nil {
		return fmt.Errorf("%w: catalog.default_database: %v", ErrInvalidConfig, err)
	}
	if s.Server.Port < 1 || s.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, s.Server.Port)
	}
	if s.Jobs.Workers < 1 {
		return fmt.Errorf("%w: jobs.workers must be at least 1", ErrInvalidConfig)
	}
	if s.Jobs.Buffer < 0 {
		return fmt.Errorf("%w: jobs.buffer cannot be negative", ErrInvalidConfig)
	}
	if s.Jobs.Retention < 0 {
		return fmt.Errorf("%w: jobs.retention cannot be negative", ErrInvalidConfig)
	}
	switch strings.ToLower(s.Log.Format) {
	case "", logger.FormatConsole, logger.FormatJSON:
	default:
		return fmt.Errorf("%w: unknown log.format %q", ErrInvalidConfig, s.Log.Format)
	}
	return nil
}
