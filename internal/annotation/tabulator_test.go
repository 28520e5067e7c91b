package annotation

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dvloznov/dataset-loader/internal/dataset"
	ingesterrors "github.com/dvloznov/dataset-loader/internal/errors"
	"github.com/dvloznov/dataset-loader/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stage(t *testing.T, files testutil.Files) *dataset.Staged {
	t.Helper()
	root := t.TempDir()
	testutil.WriteZip(t, filepath.Join(root, "cows.zip"), files)
	staged, err := dataset.NewStager(dataset.NewLayout(root, ""), nil).Stage(context.Background(), "cows.zip")
	require.NoError(t, err)
	return staged
}

func TestTabulateCows(t *testing.T) {
	staged := stage(t, testutil.YOLOExport(10, func(i int) string {
		if i < 8 {
			return "0 0.5 0.5 0.25 0.25\n"
		}
		return ""
	}))

	table, err := NewTabulator().Tabulate(context.Background(), staged)
	require.NoError(t, err)
	assert.Equal(t, 10, table.Images)
	assert.Equal(t, 8, table.LabeledImages)
	require.Len(t, table.Rows, 8)

	for i, r := range table.Rows {
		assert.Equal(t, fmt.Sprintf("img_%03d.jpg", i), r.ImagePath)
		assert.Equal(t, staged.Dir, r.DirPath)
		assert.Equal(t, 0, r.ClassID)
	}
}

func TestTabulateRowCountMatchesLabelLines(t *testing.T) {
	// Image i carries i boxes.
	staged := stage(t, testutil.YOLOExport(6, func(i int) string {
		var sb strings.Builder
		for j := 0; j < i; j++ {
			fmt.Fprintf(&sb, "%d 0.5 0.5 0.1 0.1\n", j)
		}
		return sb.String()
	}))

	table, err := NewTabulator().Tabulate(context.Background(), staged)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 0+1+2+3+4+5)

	perImage := map[string]int{}
	for _, r := range table.Rows {
		perImage[r.ImagePath]++
	}
	assert.Equal(t, 5, perImage["img_005.jpg"])
	assert.Zero(t, perImage["img_000.jpg"])
	assert.Equal(t, 5, table.LabeledImages, "img_000 has no label file")
}

func TestTabulateIgnoresOrphanLabels(t *testing.T) {
	files := testutil.Files{
		"obj_train_data/a.PNG":    "png",
		"obj_train_data/a.txt":    "1 0.1 0.1 0.1 0.1\n",
		"obj_train_data/b.txt":    "2 0.1 0.1 0.1 0.1\n",
		"obj_train_data/notes.md": "ignored",
	}
	table, err := NewTabulator().Tabulate(context.Background(), stage(t, files))
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "a.PNG", table.Rows[0].ImagePath)
}

func TestTabulateMalformedFailsWhole(t *testing.T) {
	staged := stage(t, testutil.YOLOExport(3, func(i int) string {
		if i == 2 {
			return "0 0.5 0.5\n"
		}
		return "0 0.5 0.5 0.25 0.25\n"
	}))

	table, err := NewTabulator().Tabulate(context.Background(), staged)
	assert.Nil(t, table)
	assert.ErrorIs(t, err, ingesterrors.ErrMalformedAnnotation)
	assert.Contains(t, err.Error(), "img_002.txt:1")
}

func TestTabulateMissingRawFolder(t *testing.T) {
	staged := stage(t, testutil.Files{"other/a.jpg": "x"})

	_, err := NewTabulator().Tabulate(context.Background(), staged)
	assert.Error(t, err)
}

func TestTabulateEmptyExport(t *testing.T) {
	staged := stage(t, testutil.Files{"obj_train_data/readme.txt": ""})

	table, err := NewTabulator().Tabulate(context.Background(), staged)
	require.NoError(t, err)
	assert.Zero(t, table.Images)
	assert.Empty(t, table.Rows)
}
