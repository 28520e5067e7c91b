package bigquery

import (
	"context"
	"fmt"
	"sort"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/dataset-loader/internal/catalog"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

// Labels stored on every table the loader registers.
const (
	labelTableType = "table_type"
	labelEntryID   = "entry_id"
)

// GetTableWithClient reads the table metadata of info.
// Returns nil if the table does not exist.
func GetTableWithClient(ctx context.Context, client *bigquery.Client, info catalog.TableInfo) (*catalog.TableEntry, error) {
	table := client.Dataset(info.Database).Table(info.Table)
	md, err := table.Metadata(ctx)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetTableWithClient: reading metadata of %s: %w", info, err)
	}

	entry, err := entryFromMetadata(info, table.FullyQualifiedName(), md)
	if err != nil {
		return nil, fmt.Errorf("GetTableWithClient: %w", err)
	}
	return entry, nil
}

// CreateTableWithClient creates the dataset (if needed) and the table with
// its schema. A table that already exists yields catalog.ErrTableExists.
func CreateTableWithClient(ctx context.Context, client *bigquery.Client, location string, info catalog.TableInfo, columns []catalog.ColumnDefinition, tableType catalog.TableType) (*catalog.TableEntry, error) {
	if err := info.Validate(); err != nil {
		return nil, fmt.Errorf("CreateTableWithClient: %w", err)
	}
	schema, err := toSchema(columns)
	if err != nil {
		return nil, fmt.Errorf("CreateTableWithClient: %s: %w", info, err)
	}

	if err := ensureDataset(ctx, client, location, info.Database); err != nil {
		return nil, err
	}

	table := client.Dataset(info.Database).Table(info.Table)
	err = table.Create(ctx, &bigquery.TableMetadata{
		Schema:      schema,
		Description: "Object detection annotations loaded by dataset-loader",
		Labels: map[string]string{
			labelTableType: tableTypeLabel(tableType),
			labelEntryID:   uuid.NewString(),
		},
	})
	if isConflict(err) {
		return nil, fmt.Errorf("CreateTableWithClient: %s: %w", info, catalog.ErrTableExists)
	}
	if err != nil {
		return nil, fmt.Errorf("CreateTableWithClient: creating %s: %w", info, err)
	}

	return GetTableWithClient(ctx, client, info)
}

// ListTablesWithClient lists the tables of one dataset, ordered by name.
// A missing dataset has no tables.
func ListTablesWithClient(ctx context.Context, client *bigquery.Client, database string) ([]*catalog.TableEntry, error) {
	if database == "" {
		database = catalog.DefaultDatabase
	}

	var entries []*catalog.TableEntry
	it := client.Dataset(database).Tables(ctx)
	for {
		table, err := it.Next()
		if err == iterator.Done {
			break
		}
		if isNotFound(err) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("ListTablesWithClient: iterating: %w", err)
		}

		md, err := table.Metadata(ctx)
		if err != nil {
			return nil, fmt.Errorf("ListTablesWithClient: reading metadata of %s: %w", table.TableID, err)
		}
		info := catalog.TableInfo{Database: database, Table: table.TableID}
		entry, err := entryFromMetadata(info, table.FullyQualifiedName(), md)
		if err != nil {
			return nil, fmt.Errorf("ListTablesWithClient: %w", err)
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Info.Table < entries[j].Info.Table
	})
	return entries, nil
}

func ensureDataset(ctx context.Context, client *bigquery.Client, location, database string) error {
	ds := client.Dataset(database)
	_, err := ds.Metadata(ctx)
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("ensureDataset: reading dataset %s: %w", database, err)
	}

	err = ds.Create(ctx, &bigquery.DatasetMetadata{Location: location})
	if err != nil && !isConflict(err) {
		return fmt.Errorf("ensureDataset: creating dataset %s: %w", database, err)
	}
	return nil
}
