package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/dataset-loader/internal/catalog"
	"github.com/dvloznov/dataset-loader/internal/storage"
	"gorm.io/gorm"
)

const insertBatchSize = 500

// Engine stores table rows in plain SQLite tables named after the catalog
// entry's location.
type Engine struct {
	db *gorm.DB
}

var (
	_ storage.Engine  = (*Engine)(nil)
	_ storage.Counter = (*Engine)(nil)
	_ storage.Factory = (*Store)(nil)
)

// EngineFor returns the engine for entry. Every table of the store shares
// one engine.
func (s *Store) EngineFor(entry *catalog.TableEntry) (storage.Engine, error) {
	if entry == nil || entry.Location == "" {
		return nil, fmt.Errorf("EngineFor: table entry has no location")
	}
	return s.engine, nil
}

// Create creates the physical table for a newly registered entry.
func (e *Engine) Create(ctx context.Context, entry *catalog.TableEntry) error {
	defs := make([]string, len(entry.Columns))
	for i, c := range entry.Columns {
		typ, err := sqliteType(c.Type)
		if err != nil {
			return fmt.Errorf("Create: %s: %w", entry.Info, err)
		}
		defs[i] = fmt.Sprintf("%s %s", quoteIdent(c.Name), typ)
	}

	stmt := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(entry.Location), strings.Join(defs, ", "))
	if err := e.db.WithContext(ctx).Exec(stmt).Error; err != nil {
		return fmt.Errorf("Create: %s: %w", entry.Info, err)
	}
	return nil
}

// Write appends the batch inside a single transaction.
func (e *Engine) Write(ctx context.Context, entry *catalog.TableEntry, batch *storage.Batch) error {
	if batch.Len() == 0 {
		return nil
	}
	if err := storage.CheckColumns(entry, batch); err != nil {
		return fmt.Errorf("Write: %w", err)
	}

	records := batch.Records()
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Table(entry.Location).CreateInBatches(records, insertBatchSize).Error
	})
	if err != nil {
		return fmt.Errorf("Write: %s: inserting %d rows: %w", entry.Info, len(records), err)
	}
	return nil
}

// Count returns the number of rows stored for entry.
func (e *Engine) Count(ctx context.Context, entry *catalog.TableEntry) (int64, error) {
	var n int64
	if err := e.db.WithContext(ctx).Table(entry.Location).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("Count: %s: %w", entry.Info, err)
	}
	return n, nil
}

func sqliteType(t catalog.ColumnType) (string, error) {
	switch t {
	case catalog.ColumnTypeText:
		return "TEXT", nil
	case catalog.ColumnTypeInteger:
		return "INTEGER", nil
	case catalog.ColumnTypeFloat:
		return "REAL", nil
	default:
		return "", fmt.Errorf("unsupported column type %q", t)
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
