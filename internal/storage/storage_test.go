package storage

import (
	"testing"

	"github.com/dvloznov/dataset-loader/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchAppend(t *testing.T) {
	b := NewBatch([]string{"a", "b"})
	require.NoError(t, b.Append("x", 1))
	require.NoError(t, b.Append("y", 2))
	assert.Error(t, b.Append("z"))

	assert.Equal(t, 2, b.Len())
	assert.Equal(t, []map[string]any{
		{"a": "x", "b": 1},
		{"a": "y", "b": 2},
	}, b.Records())

	var nilBatch *Batch
	assert.Equal(t, 0, nilBatch.Len())
}

func TestCheckColumns(t *testing.T) {
	entry := &catalog.TableEntry{
		Info:    catalog.NewTableInfo("", "cows"),
		Columns: catalog.AnnotationColumns(),
	}

	assert.NoError(t, CheckColumns(entry, NewBatch(entry.ColumnNames())))
	assert.Error(t, CheckColumns(entry, NewBatch([]string{"image_path"})))

	swapped := entry.ColumnNames()
	swapped[0], swapped[1] = swapped[1], swapped[0]
	assert.Error(t, CheckColumns(entry, NewBatch(swapped)))
}

func TestFactoryFunc(t *testing.T) {
	var called *catalog.TableEntry
	f := FactoryFunc(func(entry *catalog.TableEntry) (Engine, error) {
		called = entry
		return nil, nil
	})

	entry := &catalog.TableEntry{ID: "t1"}
	_, err := f.EngineFor(entry)
	require.NoError(t, err)
	assert.Same(t, entry, called)
}
