package pipeline_test

import (
	"context"

	"github.com/dvloznov/dataset-loader/internal/annotation"
	"github.com/dvloznov/dataset-loader/internal/catalog"
	"github.com/dvloznov/dataset-loader/internal/dataset"
	"github.com/dvloznov/dataset-loader/internal/split"
	"github.com/dvloznov/dataset-loader/internal/storage"
)

// MockCatalog is a mock implementation of Catalog for testing.
type MockCatalog struct {
	GetTableFunc    func(ctx context.Context, info catalog.TableInfo) (*catalog.TableEntry, error)
	CreateTableFunc func(ctx context.Context, info catalog.TableInfo, columns []catalog.ColumnDefinition, tableType catalog.TableType) (*catalog.TableEntry, error)
	ListTablesFunc  func(ctx context.Context, database string) ([]*catalog.TableEntry, error)

	CreateCalls int
}

func (m *MockCatalog) GetTable(ctx context.Context, info catalog.TableInfo) (*catalog.TableEntry, error) {
	if m.GetTableFunc != nil {
		return m.GetTableFunc(ctx, info)
	}
	return nil, nil
}

func (m *MockCatalog) CreateTable(ctx context.Context, info catalog.TableInfo, columns []catalog.ColumnDefinition, tableType catalog.TableType) (*catalog.TableEntry, error) {
	m.CreateCalls++
	if m.CreateTableFunc != nil {
		return m.CreateTableFunc(ctx, info, columns, tableType)
	}
	return &catalog.TableEntry{ID: "mock-id", Info: info, Columns: columns, Type: tableType, Location: "mock"}, nil
}

func (m *MockCatalog) ListTables(ctx context.Context, database string) ([]*catalog.TableEntry, error) {
	if m.ListTablesFunc != nil {
		return m.ListTablesFunc(ctx, database)
	}
	return nil, nil
}

// MockEngine is a mock implementation of storage.Engine for testing.
type MockEngine struct {
	CreateFunc func(ctx context.Context, entry *catalog.TableEntry) error
	WriteFunc  func(ctx context.Context, entry *catalog.TableEntry, batch *storage.Batch) error

	CreateCalls int
	Batches     []*storage.Batch
}

func (m *MockEngine) Create(ctx context.Context, entry *catalog.TableEntry) error {
	m.CreateCalls++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, entry)
	}
	return nil
}

func (m *MockEngine) Write(ctx context.Context, entry *catalog.TableEntry, batch *storage.Batch) error {
	m.Batches = append(m.Batches, batch)
	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, entry, batch)
	}
	return nil
}

func mockFactory(e *MockEngine) storage.Factory {
	return storage.FactoryFunc(func(*catalog.TableEntry) (storage.Engine, error) {
		return e, nil
	})
}

// MockStager is a mock implementation of ArchiveStager for testing.
type MockStager struct {
	StageFunc func(ctx context.Context, archive string) (*dataset.Staged, error)
}

func (m *MockStager) Stage(ctx context.Context, archive string) (*dataset.Staged, error) {
	if m.StageFunc != nil {
		return m.StageFunc(ctx, archive)
	}
	return &dataset.Staged{ArchivePath: archive, Dir: "/data/dataset/mock", RawDir: "/data/dataset/mock/obj_train_data", Extracted: true}, nil
}

// MockPartitioner is a mock implementation of SplitPartitioner for testing.
type MockPartitioner struct {
	PartitionFunc func(ctx context.Context, staged *dataset.Staged, ratios split.Ratios) (*split.Result, error)
}

func (m *MockPartitioner) Partition(ctx context.Context, staged *dataset.Staged, ratios split.Ratios) (*split.Result, error) {
	if m.PartitionFunc != nil {
		return m.PartitionFunc(ctx, staged, ratios)
	}
	return &split.Result{Ran: true, Manifest: &split.Manifest{Seed: 7, Ratios: ratios}}, nil
}

// MockTabulator is a mock implementation of AnnotationTabulator for testing.
type MockTabulator struct {
	TabulateFunc func(ctx context.Context, staged *dataset.Staged) (*annotation.Table, error)
}

func (m *MockTabulator) Tabulate(ctx context.Context, staged *dataset.Staged) (*annotation.Table, error) {
	if m.TabulateFunc != nil {
		return m.TabulateFunc(ctx, staged)
	}
	return &annotation.Table{
		Images:        2,
		LabeledImages: 1,
		Rows: []annotation.Row{
			{ImagePath: "a.jpg", Box: annotation.Box{ClassID: 1, XCenter: 0.5, YCenter: 0.5, Width: 0.1, Height: 0.1}, DirPath: staged.Dir},
		},
	}, nil
}
