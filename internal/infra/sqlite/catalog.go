package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/dataset-loader/internal/catalog"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var _ catalog.Catalog = (*Store)(nil)

// GetTable returns the entry for info, or nil when it is not registered.
func (s *Store) GetTable(ctx context.Context, info catalog.TableInfo) (*catalog.TableEntry, error) {
	var rec tableRecord
	err := s.db.WithContext(ctx).
		Preload("Columns", orderByPosition).
		Where("database_name = ? AND table_name = ?", info.Database, info.Table).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetTable: %s: %w", info, err)
	}
	return rec.toEntry(), nil
}

// CreateTable registers a table and its columns in one transaction. A name
// that is already taken yields catalog.ErrTableExists.
func (s *Store) CreateTable(ctx context.Context, info catalog.TableInfo, columns []catalog.ColumnDefinition, tableType catalog.TableType) (*catalog.TableEntry, error) {
	if err := info.Validate(); err != nil {
		return nil, fmt.Errorf("CreateTable: %w", err)
	}
	if err := catalog.ValidateColumns(columns); err != nil {
		return nil, fmt.Errorf("CreateTable: %s: %w", info, err)
	}

	id := uuid.New()
	rec := tableRecord{
		ID:           id.String(),
		DatabaseName: info.Database,
		Name:         info.Table,
		TableType:    string(tableType),
		Location:     physicalName(id),
	}
	for i, c := range columns {
		rec.Columns = append(rec.Columns, columnRecord{
			TableID:  rec.ID,
			Position: i,
			Name:     c.Name,
			Type:     string(c.Type),
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rec).Error
	})
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("CreateTable: %s: %w", info, catalog.ErrTableExists)
	}
	if err != nil {
		return nil, fmt.Errorf("CreateTable: %s: %w", info, err)
	}
	return rec.toEntry(), nil
}

// ListTables returns the tables of database ordered by name. An empty
// database lists every table.
func (s *Store) ListTables(ctx context.Context, database string) ([]*catalog.TableEntry, error) {
	q := s.db.WithContext(ctx).Preload("Columns", orderByPosition)
	if database != "" {
		q = q.Where("database_name = ?", database)
	}

	var recs []tableRecord
	if err := q.Order("database_name, table_name").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("ListTables: %w", err)
	}

	entries := make([]*catalog.TableEntry, len(recs))
	for i := range recs {
		entries[i] = recs[i].toEntry()
	}
	return entries, nil
}

func orderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

// physicalName is the SQLite table holding the rows of the entry with id.
// SQLite folds identifier case, so names are derived from the id rather than
// from the database and table names.
func physicalName(id uuid.UUID) string {
	return "ds_" + strings.ReplaceAll(id.String(), "-", "")
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}
