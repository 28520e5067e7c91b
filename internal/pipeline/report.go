package pipeline

import (
	"fmt"
	"time"

	"github.com/dvloznov/dataset-loader/internal/catalog"
	"github.com/dvloznov/dataset-loader/internal/storage"
)

// Report summarizes a successful ingestion.
type Report struct {
	TableID       string            `json:"table_id"`
	Table         catalog.TableInfo `json:"table"`
	Rows          int               `json:"rows"`
	Images        int               `json:"images"`
	LabeledImages int               `json:"labeled_images"`
	Extracted     bool              `json:"extracted"`
	SplitSeed     uint64            `json:"split_seed,omitempty"`
	Created       bool              `json:"created"`
	Duration      time.Duration     `json:"duration"`
}

// Summary is the one-line message returned to the caller.
func (r *Report) Summary() string {
	return fmt.Sprintf(summaryFormat, r.Rows)
}

// Batch returns the summary as a one-row, one-column batch.
func (r *Report) Batch() *storage.Batch {
	b := storage.NewBatch([]string{SummaryColumn})
	_ = b.Append(r.Summary())
	return b
}
