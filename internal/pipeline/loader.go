package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/dataset-loader/internal/catalog"
	ingesterrors "github.com/dvloznov/dataset-loader/internal/errors"
	"github.com/dvloznov/dataset-loader/internal/logger"
	"github.com/dvloznov/dataset-loader/internal/metrics"
	"github.com/dvloznov/dataset-loader/internal/split"
)

// Request is a parsed load statement: which archive goes into which table.
type Request struct {
	ArchivePath string            `json:"archive_path"`
	Table       catalog.TableInfo `json:"table"`
	Ratios      split.Ratios      `json:"ratios"`
}

// Validate checks the request before anything touches the disk.
func (r Request) Validate() error {
	if r.ArchivePath == "" {
		return fmt.Errorf("%w: archive path is required", ingesterrors.ErrInvalidRequest)
	}
	if err := r.Table.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ingesterrors.ErrInvalidRequest, err)
	}
	return r.Ratios.Validate()
}

// Deps are the collaborators of a Loader.
type Deps struct {
	Stager      ArchiveStager
	Partitioner SplitPartitioner
	Tabulator   AnnotationTabulator
	Catalog     Catalog
	Engines     EngineFactory
	Metrics     *metrics.IngestMetrics
	// DefaultRatios replaces zero ratios in a request; 80/10/10 if unset.
	DefaultRatios split.Ratios
}

// Loader runs load requests through the ingestion pipeline.
type Loader struct {
	pipeline      *Pipeline
	metrics       *metrics.IngestMetrics
	defaultRatios split.Ratios
}

// NewLoader creates a Loader using the standard pipeline.
func NewLoader(deps Deps) *Loader {
	ratios := deps.DefaultRatios
	if ratios.IsZero() {
		ratios = split.DefaultRatios()
	}
	return &Loader{
		pipeline:      NewIngestionPipeline(deps),
		metrics:       deps.Metrics,
		defaultRatios: ratios,
	}
}

// Load ingests one archive into a new table. It is not safe to run two
// loads for the same archive or table name at once; callers serialize them.
func (l *Loader) Load(ctx context.Context, req Request) (*Report, error) {
	if req.Ratios.IsZero() {
		req.Ratios = l.defaultRatios
	}
	if req.Table.Database == "" {
		req.Table.Database = catalog.DefaultDatabase
	}

	log := logger.Component(ctx, "loader").With().
		Str("archive", req.ArchivePath).
		Str("table", req.Table.String()).
		Logger()
	ctx = logger.WithContext(ctx, log)
	start := time.Now()

	if err := req.Validate(); err != nil {
		ie := ingesterrors.New(err).
			Phase(ingesterrors.PhaseRequest).
			Category(ingesterrors.CategoryValidation).
			Build()
		l.metrics.RecordIngestion(0, ie)
		return nil, ie
	}

	log.Info().Str("ratios", req.Ratios.String()).Msg("Loading dataset")

	state := &PipelineState{Request: req}
	if err := l.pipeline.Execute(ctx, state); err != nil {
		l.metrics.RecordIngestion(0, err)
		return nil, err
	}

	report := state.Report
	report.Duration = time.Since(start)
	l.metrics.RecordIngestion(report.Rows, nil)

	log.Info().
		Int("rows", report.Rows).
		Int("images", report.Images).
		Bool("extracted", report.Extracted).
		Dur("duration", report.Duration).
		Msg(report.Summary())
	return report, nil
}
