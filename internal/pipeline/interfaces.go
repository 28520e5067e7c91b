package pipeline

import (
	"context"

	"github.com/dvloznov/dataset-loader/internal/annotation"
	"github.com/dvloznov/dataset-loader/internal/catalog"
	"github.com/dvloznov/dataset-loader/internal/dataset"
	"github.com/dvloznov/dataset-loader/internal/split"
	"github.com/dvloznov/dataset-loader/internal/storage"
)

// ArchiveStager extracts an archive into the dataset tree.
// This interface enables mocking and testing of the file system side.
type ArchiveStager interface {
	Stage(ctx context.Context, archive string) (*dataset.Staged, error)
}

// SplitPartitioner assigns and copies images into split directories.
type SplitPartitioner interface {
	Partition(ctx context.Context, staged *dataset.Staged, ratios split.Ratios) (*split.Result, error)
}

// AnnotationTabulator reads the label files of a staged dataset.
type AnnotationTabulator interface {
	Tabulate(ctx context.Context, staged *dataset.Staged) (*annotation.Table, error)
}

// Re-export collaborator interfaces from shared packages
type Catalog = catalog.Catalog
type EngineFactory = storage.Factory

var (
	_ ArchiveStager       = (*dataset.Stager)(nil)
	_ SplitPartitioner    = (*split.Partitioner)(nil)
	_ AnnotationTabulator = (*annotation.Tabulator)(nil)
)
