package jobs

import (
	"context"
	"fmt"

	"github.com/dvloznov/dataset-loader/internal/logger"
	"github.com/dvloznov/dataset-loader/internal/pipeline"
)

// Loader runs one load request.
type Loader interface {
	Load(ctx context.Context, req pipeline.Request) (*pipeline.Report, error)
}

// NewLoadHandler returns a JobHandler that runs load jobs through loader
// while holding the job's archive and table locks.
func NewLoadHandler(loader Loader, locks *NamedLocks) JobHandler {
	if locks == nil {
		locks = NewNamedLocks()
	}
	return func(ctx context.Context, job Job) error {
		load, ok := job.(*LoadDatasetJob)
		if !ok {
			return fmt.Errorf("unsupported job type %s", job.GetType())
		}

		log := logger.Component(ctx, "worker").With().
			Str("job_id", load.JobID).
			Str("archive", load.ArchivePath).
			Str("table", load.TableInfo().String()).
			Logger()
		ctx = logger.WithContext(ctx, log)

		unlock := locks.Lock(LockKeys(load)...)
		defer unlock()

		log.Debug().Msg("Acquired job locks")

		report, err := loader.Load(ctx, load.Request())
		if err != nil {
			return err
		}
		load.Rows = report.Rows
		load.Summary = report.Summary()
		return nil
	}
}
