package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/dataset-loader/internal/catalog"
	"github.com/dvloznov/dataset-loader/internal/pipeline"
	"github.com/dvloznov/dataset-loader/internal/split"
)

// ErrJobNotFound is returned by a JobStore for unknown or expired job IDs.
var ErrJobNotFound = errors.New("job not found")

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeLoadDataset represents a dataset load job.
	JobTypeLoadDataset JobType = "load_dataset"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
)

// Final reports whether the status is terminal.
func (s JobStatus) Final() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// LoadDatasetJob represents a job to load an archive into a new table.
// Loads are not retried: a failed load may have registered its table, and a
// second attempt would only hit "already exists".
type LoadDatasetJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// ArchivePath is the archive to load, relative to the data root or a
	// gs:// URI.
	ArchivePath string `json:"archive_path"`

	// Database and Table name the table to create.
	Database string `json:"database"`
	Table    string `json:"table"`

	// Ratios overrides the default split ratios when non-zero.
	Ratios split.Ratios `json:"ratios"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	// CreatedAt is when the job was created.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when the job started processing.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the job completed (success or failure).
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	// Rows is the number of annotation rows written.
	Rows int `json:"rows"`

	// Summary is the one-line result message of a completed load.
	Summary string `json:"summary,omitempty"`
}

// Job is a generic interface for all job types.
type Job interface {
	// GetID returns the unique job identifier.
	GetID() string

	// GetType returns the job type.
	GetType() JobType

	// GetStatus returns the current job status.
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *LoadDatasetJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *LoadDatasetJob) GetType() JobType {
	return JobTypeLoadDataset
}

// GetStatus implements the Job interface.
func (j *LoadDatasetJob) GetStatus() JobStatus {
	return j.Status
}

// TableInfo returns the qualified table the job loads into.
func (j *LoadDatasetJob) TableInfo() catalog.TableInfo {
	return catalog.NewTableInfo(j.Database, j.Table)
}

// Request converts the job into a pipeline load request.
func (j *LoadDatasetJob) Request() pipeline.Request {
	return pipeline.Request{
		ArchivePath: j.ArchivePath,
		Table:       j.TableInfo(),
		Ratios:      j.Ratios,
	}
}

// Publisher defines the interface for publishing jobs to a queue.
type Publisher interface {
	// PublishLoadDataset publishes a dataset load job.
	PublishLoadDataset(ctx context.Context, job *LoadDatasetJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler is a function that processes a job.
// A returned error marks the job failed.
type JobHandler func(ctx context.Context, job Job) error

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *LoadDatasetJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*LoadDatasetJob, error)

	// ListJobs retrieves jobs with optional filtering.
	ListJobs(ctx context.Context, filter JobFilter) ([]*LoadDatasetJob, error)

	// UpdateJobStatus updates the status of a job.
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// Table filters jobs by qualified table name, e.g. "default.cows".
	Table string

	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
