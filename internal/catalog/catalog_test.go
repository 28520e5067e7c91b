package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnotationColumns(t *testing.T) {
	cols := AnnotationColumns()
	require.NoError(t, ValidateColumns(cols))

	entry := &TableEntry{Columns: cols}
	assert.Equal(t, []string{
		"image_path", "class_id", "x_center", "y_center", "width", "height", "dir_path",
	}, entry.ColumnNames())

	assert.Equal(t, ColumnTypeText, cols[0].Type)
	assert.Equal(t, ColumnTypeInteger, cols[1].Type)
	assert.Equal(t, ColumnTypeText, cols[6].Type)

	// Callers get their own copy.
	cols[0].Name = "mutated"
	assert.Equal(t, ColumnImagePath, AnnotationColumns()[0].Name)
}

func TestValidateColumns(t *testing.T) {
	tests := []struct {
		name    string
		columns []ColumnDefinition
		wantErr bool
	}{
		{"empty", nil, true},
		{"missing name", []ColumnDefinition{{Type: ColumnTypeText}}, true},
		{"bad name", []ColumnDefinition{{Name: "x-center", Type: ColumnTypeFloat}}, true},
		{"unknown type", []ColumnDefinition{{Name: "a", Type: "BLOB"}}, true},
		{"duplicate", []ColumnDefinition{{Name: "a", Type: ColumnTypeText}, {Name: "a", Type: ColumnTypeFloat}}, true},
		{"ok", []ColumnDefinition{{Name: "a", Type: ColumnTypeText}, {Name: "b", Type: ColumnTypeInteger}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateColumns(tt.columns)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTableInfo(t *testing.T) {
	info := NewTableInfo("", "cows")
	assert.Equal(t, DefaultDatabase, info.Database)
	assert.Equal(t, "default.cows", info.String())
	assert.NoError(t, info.Validate())

	assert.Error(t, NewTableInfo("db", "").Validate())
	assert.Error(t, NewTableInfo("db", "cows; DROP").Validate())
	assert.Error(t, NewTableInfo("1db", "cows").Validate())
	assert.NoError(t, NewTableInfo("vision", "cows_v2").Validate())
}
