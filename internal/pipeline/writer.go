package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/dataset-loader/internal/annotation"
	"github.com/dvloznov/dataset-loader/internal/catalog"
)

// Writer appends tabulated annotations to the storage engine of a table.
type Writer struct {
	engines EngineFactory
}

// NewWriter creates a Writer.
func NewWriter(engines EngineFactory) *Writer {
	return &Writer{engines: engines}
}

// Write allocates storage when the table was created in this run, then
// issues exactly one write with every row. It returns the row count.
func (w *Writer) Write(ctx context.Context, entry *catalog.TableEntry, created bool, table *annotation.Table) (int, error) {
	engine, err := w.engines.EngineFor(entry)
	if err != nil {
		return 0, fmt.Errorf("resolve storage engine for %s: %w", entry.Info, err)
	}

	if created {
		if err := engine.Create(ctx, entry); err != nil {
			return 0, fmt.Errorf("create storage for %s: %w", entry.Info, err)
		}
	}

	batch, err := table.Batch()
	if err != nil {
		return 0, fmt.Errorf("build batch: %w", err)
	}
	if err := engine.Write(ctx, entry, batch); err != nil {
		return 0, fmt.Errorf("write %d rows to %s: %w", batch.Len(), entry.Info, err)
	}
	return batch.Len(), nil
}
