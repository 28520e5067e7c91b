package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/dataset-loader/internal/catalog"
	"github.com/dvloznov/dataset-loader/internal/storage"
	"google.golang.org/api/iterator"
)

// insertChunkSize keeps streaming insert requests well under the API limits.
const insertChunkSize = 500

// VerifyTableWithClient checks the table backing entry exists. BigQuery
// tables get their storage when the catalog creates them.
func VerifyTableWithClient(ctx context.Context, client *bigquery.Client, entry *catalog.TableEntry) error {
	if _, err := client.Dataset(entry.Info.Database).Table(entry.Info.Table).Metadata(ctx); err != nil {
		return fmt.Errorf("VerifyTableWithClient: %s: %w", entry.Info, err)
	}
	return nil
}

// InsertRowsWithClient streams the batch into the table of entry.
func InsertRowsWithClient(ctx context.Context, client *bigquery.Client, entry *catalog.TableEntry, batch *storage.Batch) error {
	if batch.Len() == 0 {
		return nil
	}
	if err := storage.CheckColumns(entry, batch); err != nil {
		return fmt.Errorf("InsertRowsWithClient: %w", err)
	}

	savers := valueSavers(batch)
	inserter := client.Dataset(entry.Info.Database).Table(entry.Info.Table).Inserter()
	for start := 0; start < len(savers); start += insertChunkSize {
		end := min(start+insertChunkSize, len(savers))
		if err := inserter.Put(ctx, savers[start:end]); err != nil {
			return fmt.Errorf("InsertRowsWithClient: inserting rows %d-%d into %s: %w", start, end, entry.Info, err)
		}
	}
	return nil
}

// CountRowsWithClient returns the row count of the table of entry.
func CountRowsWithClient(ctx context.Context, client *bigquery.Client, entry *catalog.TableEntry) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) AS n FROM `%s`", entry.Location)

	it, err := client.Query(query).Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("CountRowsWithClient: reading query: %w", err)
	}

	var row struct {
		N int64 `bigquery:"n"`
	}
	err = it.Next(&row)
	if err == iterator.Done {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("CountRowsWithClient: iterating: %w", err)
	}
	return row.N, nil
}
