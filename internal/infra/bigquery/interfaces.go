package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/dataset-loader/internal/catalog"
	"github.com/dvloznov/dataset-loader/internal/storage"
	"google.golang.org/api/option"
)

// Re-export interfaces from shared packages
type Catalog = catalog.Catalog
type Engine = storage.Engine

// Config selects the BigQuery project. Each catalog database maps to a
// BigQuery dataset of the same name.
type Config struct {
	ProjectID       string
	Location        string
	CredentialsFile string
}

// BigQueryCatalog is the concrete implementation of Catalog and
// storage.Factory that interacts with BigQuery. It holds a shared BigQuery
// client to avoid creating a new connection for each operation.
type BigQueryCatalog struct {
	client   *bigquery.Client
	location string
	engine   *BigQueryEngine
}

var (
	_ Catalog         = (*BigQueryCatalog)(nil)
	_ storage.Factory = (*BigQueryCatalog)(nil)
)

// NewBigQueryCatalog creates a new instance of BigQueryCatalog with a
// shared BigQuery client.
func NewBigQueryCatalog(ctx context.Context, cfg Config) (*BigQueryCatalog, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("NewBigQueryCatalog: project id is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := bigquery.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryCatalog: creating client: %w", err)
	}
	if cfg.Location != "" {
		client.Location = cfg.Location
	}

	return &BigQueryCatalog{
		client:   client,
		location: cfg.Location,
		engine:   &BigQueryEngine{client: client},
	}, nil
}

// Close closes the BigQuery client connection. This should be called when
// the catalog is no longer needed to release resources.
func (r *BigQueryCatalog) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// GetTable delegates to GetTableWithClient with the shared client.
func (r *BigQueryCatalog) GetTable(ctx context.Context, info catalog.TableInfo) (*catalog.TableEntry, error) {
	return GetTableWithClient(ctx, r.client, info)
}

// CreateTable delegates to CreateTableWithClient with the shared client.
func (r *BigQueryCatalog) CreateTable(ctx context.Context, info catalog.TableInfo, columns []catalog.ColumnDefinition, tableType catalog.TableType) (*catalog.TableEntry, error) {
	return CreateTableWithClient(ctx, r.client, r.location, info, columns, tableType)
}

// ListTables delegates to ListTablesWithClient with the shared client.
func (r *BigQueryCatalog) ListTables(ctx context.Context, database string) ([]*catalog.TableEntry, error) {
	return ListTablesWithClient(ctx, r.client, database)
}

// EngineFor returns the shared engine. BigQuery tables are created together
// with their catalog entry, so every entry is served by the same engine.
func (r *BigQueryCatalog) EngineFor(entry *catalog.TableEntry) (storage.Engine, error) {
	if entry == nil {
		return nil, fmt.Errorf("EngineFor: nil table entry")
	}
	return r.engine, nil
}

// BigQueryEngine is the concrete implementation of Engine that streams rows
// into BigQuery tables.
type BigQueryEngine struct {
	client *bigquery.Client
}

var (
	_ Engine          = (*BigQueryEngine)(nil)
	_ storage.Counter = (*BigQueryEngine)(nil)
)

// Create delegates to VerifyTableWithClient with the shared client.
func (e *BigQueryEngine) Create(ctx context.Context, entry *catalog.TableEntry) error {
	return VerifyTableWithClient(ctx, e.client, entry)
}

// Write delegates to InsertRowsWithClient with the shared client.
func (e *BigQueryEngine) Write(ctx context.Context, entry *catalog.TableEntry, batch *storage.Batch) error {
	return InsertRowsWithClient(ctx, e.client, entry, batch)
}

// Count delegates to CountRowsWithClient with the shared client.
func (e *BigQueryEngine) Count(ctx context.Context, entry *catalog.TableEntry) (int64, error) {
	return CountRowsWithClient(ctx, e.client, entry)
}
