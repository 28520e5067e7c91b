package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/dataset-loader/internal/annotation"
	"github.com/dvloznov/dataset-loader/internal/catalog"
	"github.com/dvloznov/dataset-loader/internal/dataset"
	ingesterrors "github.com/dvloznov/dataset-loader/internal/errors"
	"github.com/dvloznov/dataset-loader/internal/logger"
	"github.com/dvloznov/dataset-loader/internal/metrics"
	"github.com/dvloznov/dataset-loader/internal/split"
)

// PipelineStep represents a single step in the ingestion pipeline.
type PipelineStep interface {
	Phase() ingesterrors.Phase
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	Request     Request
	Staged      *dataset.Staged
	Split       *split.Result
	Annotations *annotation.Table
	Entry       *catalog.TableEntry
	Created     bool
	Report      *Report
}

// Step 1: StageArchiveStep extracts the archive unless already extracted.
type StageArchiveStep struct {
	Stager ArchiveStager
}

func (s *StageArchiveStep) Phase() ingesterrors.Phase { return ingesterrors.PhaseStage }

func (s *StageArchiveStep) Execute(ctx context.Context, state *PipelineState) error {
	staged, err := s.Stager.Stage(ctx, state.Request.ArchivePath)
	if err != nil {
		return err
	}
	state.Staged = staged
	return nil
}

// Step 2: PartitionSplitsStep materializes the train/valid/test split.
type PartitionSplitsStep struct {
	Partitioner SplitPartitioner
}

func (s *PartitionSplitsStep) Phase() ingesterrors.Phase { return ingesterrors.PhasePartition }

func (s *PartitionSplitsStep) Execute(ctx context.Context, state *PipelineState) error {
	res, err := s.Partitioner.Partition(ctx, state.Staged, state.Request.Ratios)
	if err != nil {
		return err
	}
	state.Split = res
	return nil
}

// Step 3: TabulateAnnotationsStep parses every label file into rows. It
// runs before registration so a malformed file never leaves a catalog entry.
type TabulateAnnotationsStep struct {
	Tabulator AnnotationTabulator
}

func (s *TabulateAnnotationsStep) Phase() ingesterrors.Phase { return ingesterrors.PhaseTabulate }

func (s *TabulateAnnotationsStep) Execute(ctx context.Context, state *PipelineState) error {
	table, err := s.Tabulator.Tabulate(ctx, state.Staged)
	if err != nil {
		return err
	}
	state.Annotations = table
	return nil
}

// Step 4: RegisterTableStep creates the catalog entry.
type RegisterTableStep struct {
	Registrar *Registrar
}

func (s *RegisterTableStep) Phase() ingesterrors.Phase { return ingesterrors.PhaseRegister }

func (s *RegisterTableStep) Execute(ctx context.Context, state *PipelineState) error {
	entry, err := s.Registrar.Register(ctx, state.Request.Table)
	if err != nil {
		return err
	}
	state.Entry = entry
	state.Created = true
	return nil
}

// Step 5: WriteBatchStep writes the rows and builds the report.
type WriteBatchStep struct {
	Writer *Writer
}

func (s *WriteBatchStep) Phase() ingesterrors.Phase { return ingesterrors.PhaseWrite }

func (s *WriteBatchStep) Execute(ctx context.Context, state *PipelineState) error {
	rows, err := s.Writer.Write(ctx, state.Entry, state.Created, state.Annotations)
	if err != nil {
		return err
	}

	report := &Report{
		TableID:       state.Entry.ID,
		Table:         state.Entry.Info,
		Rows:          rows,
		Images:        state.Annotations.Images,
		LabeledImages: state.Annotations.LabeledImages,
		Extracted:     state.Staged.Extracted,
		Created:       state.Created,
	}
	if state.Split != nil && state.Split.Manifest != nil {
		report.SplitSeed = state.Split.Manifest.Seed
	}
	state.Report = report
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps   []PipelineStep
	metrics *metrics.IngestMetrics
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// WithMetrics records step durations and failures into m.
func (p *Pipeline) WithMetrics(m *metrics.IngestMetrics) *Pipeline {
	p.metrics = m
	return p
}

// Execute runs all steps in the pipeline sequentially and stops at the
// first failure, which is returned as an *errors.IngestError carrying the
// step's phase.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.Component(ctx, "pipeline")

	for i, step := range p.steps {
		phase := step.Phase()
		start := time.Now()

		err := step.Execute(ctx, state)
		elapsed := time.Since(start)
		if err != nil {
			ie := ingesterrors.New(fmt.Errorf("pipeline step %d failed: %w", i+1, err)).
				Phase(phase).
				Category(categoryFor(phase, err)).
				Context("step", i+1).
				Build()
			p.metrics.ObservePhase(phase, elapsed, ie)
			failLog := logger.WithFields(log, ie.GetContext())
			failLog.Error().
				Err(err).
				Str("phase", string(phase)).
				Str("category", string(ie.Category)).
				Dur("elapsed", elapsed).
				Msg("Pipeline step failed")
			return ie
		}

		p.metrics.ObservePhase(phase, elapsed, nil)
		log.Debug().Str("phase", string(phase)).Dur("elapsed", elapsed).Msg("Pipeline step done")
	}
	return nil
}

// categoryFor keeps a recognized category and otherwise classifies by
// phase: file system phases are I/O, catalog and storage phases database.
func categoryFor(phase ingesterrors.Phase, err error) ingesterrors.ErrorCategory {
	if c := ingesterrors.CategoryOf(err); c != ingesterrors.CategoryGeneric {
		return c
	}
	switch phase {
	case ingesterrors.PhaseStage, ingesterrors.PhasePartition, ingesterrors.PhaseTabulate:
		return ingesterrors.CategoryFileIO
	case ingesterrors.PhaseRegister, ingesterrors.PhaseWrite:
		return ingesterrors.CategoryDatabase
	default:
		return ingesterrors.CategoryGeneric
	}
}

// NewIngestionPipeline creates the standard 5-step pipeline for loading a
// dataset archive.
func NewIngestionPipeline(deps Deps) *Pipeline {
	return NewPipeline(
		&StageArchiveStep{Stager: deps.Stager},
		&PartitionSplitsStep{Partitioner: deps.Partitioner},
		&TabulateAnnotationsStep{Tabulator: deps.Tabulator},
		&RegisterTableStep{Registrar: NewRegistrar(deps.Catalog)},
		&WriteBatchStep{Writer: NewWriter(deps.Engines)},
	).WithMetrics(deps.Metrics)
}
