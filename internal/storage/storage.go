// Package storage defines the storage-engine boundary: tabular batches and
// the engines that persist them.
package storage

import (
	"context"
	"fmt"

	"github.com/dvloznov/dataset-loader/internal/catalog"
)

// Batch is an in-memory set of rows destined for a single write.
type Batch struct {
	Columns []string
	Rows    [][]any
}

// NewBatch creates an empty batch with the given column order.
func NewBatch(columns []string) *Batch {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Batch{Columns: cols}
}

// Append adds one row. The number of values must match the column count.
func (b *Batch) Append(values ...any) error {
	if len(values) != len(b.Columns) {
		return fmt.Errorf("batch: row has %d values, want %d", len(values), len(b.Columns))
	}
	row := make([]any, len(values))
	copy(row, values)
	b.Rows = append(b.Rows, row)
	return nil
}

// Len returns the number of rows.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Rows)
}

// Records returns each row as a column-name keyed map.
func (b *Batch) Records() []map[string]any {
	out := make([]map[string]any, 0, len(b.Rows))
	for _, row := range b.Rows {
		rec := make(map[string]any, len(b.Columns))
		for i, col := range b.Columns {
			rec[col] = row[i]
		}
		out = append(out, rec)
	}
	return out
}

// Engine persists batches for catalog tables.
type Engine interface {
	// Create allocates physical storage for a newly registered table.
	Create(ctx context.Context, entry *catalog.TableEntry) error

	// Write appends batch to the table in one call.
	Write(ctx context.Context, entry *catalog.TableEntry, batch *Batch) error
}

// Counter is implemented by engines that can report a table's row count.
type Counter interface {
	Count(ctx context.Context, entry *catalog.TableEntry) (int64, error)
}

// Factory returns the engine responsible for a table.
type Factory interface {
	EngineFor(entry *catalog.TableEntry) (Engine, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(entry *catalog.TableEntry) (Engine, error)

// EngineFor calls f(entry).
func (f FactoryFunc) EngineFor(entry *catalog.TableEntry) (Engine, error) {
	return f(entry)
}

// CheckColumns verifies batch columns match the table schema exactly.
func CheckColumns(entry *catalog.TableEntry, batch *Batch) error {
	want := entry.ColumnNames()
	if len(want) != len(batch.Columns) {
		return fmt.Errorf("batch has %d columns, table %s has %d", len(batch.Columns), entry.Info, len(want))
	}
	for i := range want {
		if want[i] != batch.Columns[i] {
			return fmt.Errorf("batch column %d is %q, table %s expects %q", i, batch.Columns[i], entry.Info, want[i])
		}
	}
	return nil
}
