package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dvloznov/dataset-loader/internal/split"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "data", s.DataRoot)
	assert.Equal(t, "obj_train_data", s.RawDir)
	assert.Equal(t, split.DefaultRatios(), s.Ratios())
	assert.Zero(t, s.Split.Seed)
	assert.Equal(t, BackendSQLite, s.Catalog.Backend)
	assert.Equal(t, "default", s.Catalog.DefaultDatabase)
	assert.Equal(t, "data/catalog.db", s.Catalog.SQLitePath)
	assert.Equal(t, 8080, s.Server.Port)
	assert.Equal(t, 1, s.Jobs.Workers)
	assert.Equal(t, 24*time.Hour, s.Jobs.Retention)
	assert.Equal(t, "info", s.Log.Level)

	require.NoError(t, s.Validate())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loader.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_root: /srv/datasets
split:
  train: 0.7
  valid: 0.15
  test: 0.15
  seed: 42
catalog:
  backend: bigquery
  default_database: farm
  bigquery:
    project: my-project
    location: US
jobs:
  workers: 3
  retention: 90m
log:
  format: json
`), 0o644))

	s, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/datasets", s.DataRoot)
	assert.Equal(t, split.Ratios{Train: 0.7, Valid: 0.15, Test: 0.15}, s.Ratios())
	assert.Equal(t, uint64(42), s.Split.Seed)
	assert.Equal(t, BackendBigQuery, s.Catalog.Backend)
	assert.Equal(t, "farm", s.Catalog.DefaultDatabase)
	assert.Equal(t, "my-project", s.Catalog.BigQuery.Project)
	assert.Equal(t, "US", s.Catalog.BigQuery.Location)
	assert.Equal(t, 3, s.Jobs.Workers)
	assert.Equal(t, 90*time.Minute, s.Jobs.Retention)
	assert.Equal(t, "json", s.Log.Format)

	// Unset keys keep their defaults.
	assert.Equal(t, "obj_train_data", s.RawDir)
	assert.Equal(t, 8080, s.Server.Port)

	require.NoError(t, s.Validate())
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loader.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_root: /from/file\nserver:\n  port: 9000\n"), 0o644))

	t.Setenv("LOADER_DATA_ROOT", "/from/env")
	t.Setenv("LOADER_CATALOG_SQLITE_PATH", "/tmp/cat.db")
	t.Setenv("LOADER_JOBS_WORKERS", "4")

	s, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, "/from/env", s.DataRoot)
	assert.Equal(t, "/tmp/cat.db", s.Catalog.SQLitePath)
	assert.Equal(t, 4, s.Jobs.Workers)
	assert.Equal(t, 9000, s.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Settings)
	}{
		{name: "empty data root", mutate: func(s *Settings) { s.DataRoot = "" }},
		{name: "empty raw dir", mutate: func(s *Settings) { s.RawDir = "" }},
		{name: "ratios do not sum to one", mutate: func(s *Settings) { s.Split.Train = 0.9 }},
		{name: "negative ratio", mutate: func(s *Settings) { s.Split.Valid = -0.1; s.Split.Test = 0.3 }},
		{name: "unknown backend", mutate: func(s *Settings) { s.Catalog.Backend = "postgres" }},
		{name: "sqlite without path", mutate: func(s *Settings) { s.Catalog.SQLitePath = "" }},
		{name: "bigquery without project", mutate: func(s *Settings) { s.Catalog.Backend = BackendBigQuery }},
		{name: "bad default database", mutate: func(s *Settings) { s.Catalog.DefaultDatabase = "my-db" }},
		{name: "port out of range", mutate: func(s *Settings) { s.Server.Port = 70000 }},
		{name: "no workers", mutate: func(s *Settings) { s.Jobs.Workers = 0 }},
		{name: "negative buffer", mutate: func(s *Settings) { s.Jobs.Buffer = -1 }},
		{name: "negative retention", mutate: func(s *Settings) { s.Jobs.Retention = -time.Second }},
		{name: "unknown log format", mutate: func(s *Settings) { s.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Load(New(), "")
			require.NoError(t, err)

			tt.mutate(s)
			assert.ErrorIs(t, s.Validate(), ErrInvalidConfig)
		})
	}
}
