// Package catalog defines the table metadata types shared by the ingestion
// pipeline and the catalog backends.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
)

// DefaultDatabase is used when a request does not name a database.
const DefaultDatabase = "default"

// ErrTableExists is returned by CreateTable when the (database, table) key
// is already taken.
var ErrTableExists = errors.New("catalog: table exists")

// ColumnType is the logical type of a column.
type ColumnType string

const (
	ColumnTypeText    ColumnType = "TEXT"
	ColumnTypeInteger ColumnType = "INTEGER"
	ColumnTypeFloat   ColumnType = "FLOAT"
)

// Valid reports whether t is a known column type.
func (t ColumnType) Valid() bool {
	switch t {
	case ColumnTypeText, ColumnTypeInteger, ColumnTypeFloat:
		return true
	}
	return false
}

// TableType classifies what a table holds.
type TableType string

const (
	TableTypeStructuredData TableType = "STRUCTURED_DATA"
)

// ColumnDefinition is one column of a table schema.
type ColumnDefinition struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// TableInfo identifies a table by database and name.
type TableInfo struct {
	Database string `json:"database"`
	Table    string `json:"table"`
}

// NewTableInfo builds a TableInfo, substituting DefaultDatabase for an
// empty database.
func NewTableInfo(database, table string) TableInfo {
	if database == "" {
		database = DefaultDatabase
	}
	return TableInfo{Database: database, Table: table}
}

// String returns the qualified name, e.g. "default.cows".
func (ti TableInfo) String() string {
	return ti.Database + "." + ti.Table
}

// Validate checks both parts are plain identifiers.
func (ti TableInfo) Validate() error {
	if !identPattern.MatchString(ti.Database) {
		return fmt.Errorf("invalid database name %q", ti.Database)
	}
	if !identPattern.MatchString(ti.Table) {
		return fmt.Errorf("invalid table name %q", ti.Table)
	}
	return nil
}

// TableEntry is the catalog's record of a table.
type TableEntry struct {
	ID        string             `json:"id"`
	Info      TableInfo          `json:"info"`
	Columns   []ColumnDefinition `json:"columns"`
	Type      TableType          `json:"table_type"`
	Location  string             `json:"location"`
	CreatedAt time.Time          `json:"created_at"`
}

// ColumnNames returns the column names in schema order.
func (e *TableEntry) ColumnNames() []string {
	names := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		names[i] = c.Name
	}
	return names
}

// Catalog stores table metadata.
type Catalog interface {
	// GetTable returns the entry for info, or (nil, nil) if no such table exists.
	GetTable(ctx context.Context, info TableInfo) (*TableEntry, error)

	// CreateTable registers a new table. It returns ErrTableExists if the
	// name is already taken.
	CreateTable(ctx context.Context, info TableInfo, columns []ColumnDefinition, tableType TableType) (*TableEntry, error)

	// ListTables returns all tables in database, ordered by name.
	ListTables(ctx context.Context, database string) ([]*TableEntry, error)
}

// ValidateColumns checks a schema has at least one column, every column has
// a name and a known type, and names are unique.
func ValidateColumns(columns []ColumnDefinition) error {
	if len(columns) == 0 {
		return fmt.Errorf("schema must have at least one column")
	}
	seen := make(map[string]struct{}, len(columns))
	for i, c := range columns {
		if c.Name == "" {
			return fmt.Errorf("column %d: name cannot be empty", i)
		}
		if !identPattern.MatchString(c.Name) {
			return fmt.Errorf("column %d: invalid name %q", i, c.Name)
		}
		if !c.Type.Valid() {
			return fmt.Errorf("column '%s': unknown type %q", c.Name, c.Type)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("column '%s' defined twice", c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}
