package sqlite

import (
	"time"

	"github.com/dvloznov/dataset-loader/internal/catalog"
)

// tableRecord is a catalog entry. (database_name, table_name) is unique so
// two concurrent registrations of one name cannot both succeed.
type tableRecord struct {
	ID           string         `gorm:"primaryKey;type:varchar(36)"`
	DatabaseName string         `gorm:"not null;uniqueIndex:idx_catalog_table_name"`
	Name         string         `gorm:"column:table_name;not null;uniqueIndex:idx_catalog_table_name"`
	TableType    string         `gorm:"not null"`
	Location     string         `gorm:"not null"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	Columns      []columnRecord `gorm:"foreignKey:TableID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM.
func (tableRecord) TableName() string {
	return "catalog_tables"
}

type columnRecord struct {
	ID       uint   `gorm:"primaryKey"`
	TableID  string `gorm:"not null;index;type:varchar(36)"`
	Position int    `gorm:"not null"`
	Name     string `gorm:"not null"`
	Type     string `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (columnRecord) TableName() string {
	return "catalog_columns"
}

func (r *tableRecord) toEntry() *catalog.TableEntry {
	cols := make([]catalog.ColumnDefinition, len(r.Columns))
	for i, c := range r.Columns {
		cols[i] = catalog.ColumnDefinition{Name: c.Name, Type: catalog.ColumnType(c.Type)}
	}
	return &catalog.TableEntry{
		ID:        r.ID,
		Info:      catalog.TableInfo{Database: r.DatabaseName, Table: r.Name},
		Columns:   cols,
		Type:      catalog.TableType(r.TableType),
		Location:  r.Location,
		CreatedAt: r.CreatedAt,
	}
}
