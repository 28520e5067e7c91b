package annotation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dvloznov/dataset-loader/internal/dataset"
	"github.com/dvloznov/dataset-loader/internal/logger"
)

// Tabulator builds annotation rows from the raw export folder of a staged
// dataset.
type Tabulator struct{}

// NewTabulator creates a Tabulator.
func NewTabulator() *Tabulator {
	return &Tabulator{}
}

// Tabulate scans images in name order and emits one row per box in each
// image's label file. Images without a label file contribute no rows. The
// split folders are not read; rows always come from the raw export.
func (t *Tabulator) Tabulate(ctx context.Context, staged *dataset.Staged) (*Table, error) {
	log := logger.Component(ctx, "tabulator")

	images, err := dataset.ListImages(staged.RawDir)
	if err != nil {
		return nil, err
	}

	table := &Table{Images: len(images)}
	for _, image := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		boxes, found, err := readLabels(filepath.Join(staged.RawDir, dataset.LabelFileName(image)))
		if err != nil {
			return nil, err
		}
		if !found {
			log.Debug().Str("image", image).Msg("No label file")
			continue
		}

		table.LabeledImages++
		for _, b := range boxes {
			table.Rows = append(table.Rows, Row{ImagePath: image, Box: b, DirPath: staged.Dir})
		}
	}

	log.Info().
		Int("images", table.Images).
		Int("labeled", table.LabeledImages).
		Int("rows", len(table.Rows)).
		Msg("Annotations tabulated")
	return table, nil
}

func readLabels(path string) ([]Box, bool, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("open label file: %w", err)
	}
	defer f.Close()

	boxes, err := ParseLabels(f, filepath.Base(path))
	if err != nil {
		return nil, true, err
	}
	return boxes, true, nil
}
