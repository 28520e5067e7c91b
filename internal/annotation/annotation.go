// Package annotation turns YOLO label files into annotation rows.
package annotation

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/dvloznov/dataset-loader/internal/catalog"
	ingesterrors "github.com/dvloznov/dataset-loader/internal/errors"
	"github.com/dvloznov/dataset-loader/internal/storage"
)

// Box is one bounding box line of a label file. Coordinates are normalized
// to the image size.
type Box struct {
	ClassID int
	XCenter float64
	YCenter float64
	Width   float64
	Height  float64
}

// Row is a Box together with the image it belongs to.
type Row struct {
	ImagePath string
	Box
	DirPath string
}

// Values returns the row in annotation schema column order.
func (r Row) Values() []any {
	return []any{r.ImagePath, r.ClassID, r.XCenter, r.YCenter, r.Width, r.Height, r.DirPath}
}

// Table is the tabulation of one dataset.
type Table struct {
	Rows          []Row
	Images        int
	LabeledImages int
}

// Batch converts the rows into a storage batch with the annotation schema.
func (t *Table) Batch() (*storage.Batch, error) {
	cols := catalog.AnnotationColumns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}

	b := storage.NewBatch(names)
	for _, r := range t.Rows {
		if err := b.Append(r.Values()...); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// ParseLabels reads a label file. Blank lines are ignored; any other line
// that is not five numbers with an integral class id fails the whole file.
// name is only used in error messages.
func ParseLabels(r io.Reader, name string) ([]Box, error) {
	var boxes []Box
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		box, err := ParseLine(text)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", name, line, err)
		}
		boxes = append(boxes, box)
	}
	if err := sc.Err(); err != nil {
		if ingesterrors.Is(err, bufio.ErrTooLong) {
			return nil, fmt.Errorf("%s:%d: %w: line exceeds %d bytes", name, line+1, ingesterrors.ErrMalformedAnnotation, bufio.MaxScanTokenSize)
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return boxes, nil
}

// ParseLine parses "class x_center y_center width height".
func ParseLine(text string) (Box, error) {
	fields := strings.Fields(text)
	if len(fields) != 5 {
		return Box{}, fmt.Errorf("%w: want 5 fields, got %d", ingesterrors.ErrMalformedAnnotation, len(fields))
	}

	var nums [5]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return Box{}, fmt.Errorf("%w: field %d %q is not a number", ingesterrors.ErrMalformedAnnotation, i+1, f)
		}
		nums[i] = v
	}

	if nums[0] != math.Trunc(nums[0]) || math.Abs(nums[0]) > math.MaxInt32 {
		return Box{}, fmt.Errorf("%w: class id %q is not an integer", ingesterrors.ErrMalformedAnnotation, fields[0])
	}

	return Box{
		ClassID: int(nums[0]),
		XCenter: nums[1],
		YCenter: nums[2],
		Width:   nums[3],
		Height:  nums[4],
	}, nil
}
