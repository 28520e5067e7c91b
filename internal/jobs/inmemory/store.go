package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dvloznov/dataset-loader/internal/jobs"
	"github.com/patrickmn/go-cache"
)

// Store is an in-memory implementation of JobStore backed by go-cache.
// Jobs expire retention after their last update; a zero retention keeps
// them for the life of the process. Data is lost on restart.
type Store struct {
	mu        sync.Mutex
	cache     *cache.Cache
	retention time.Duration
}

// NewStore creates a new in-memory job store.
func NewStore(retention time.Duration) *Store {
	expiration := retention
	if retention <= 0 {
		expiration = cache.NoExpiration
		retention = 0
	}
	// The janitor only runs for a positive cleanup interval.
	return &Store{
		cache:     cache.New(expiration, retention),
		retention: retention,
	}
}

// SaveJob implements the JobStore interface.
// It saves or updates a copy of the job.
func (s *Store) SaveJob(ctx context.Context, job *jobs.LoadDatasetJob) error {
	if job.JobID == "" {
		return fmt.Errorf("job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	jobCopy := *job
	s.cache.Set(job.JobID, &jobCopy, cache.DefaultExpiration)
	return nil
}

// GetJob implements the JobStore interface.
// It retrieves a copy of the job by ID.
func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.LoadDatasetJob, error) {
	v, ok := s.cache.Get(jobID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", jobs.ErrJobNotFound, jobID)
	}

	jobCopy := *v.(*jobs.LoadDatasetJob)
	return &jobCopy, nil
}

// ListJobs implements the JobStore interface.
// Jobs are returned oldest first.
func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.LoadDatasetJob, error) {
	result := []*jobs.LoadDatasetJob{}

	for _, item := range s.cache.Items() {
		job := item.Object.(*jobs.LoadDatasetJob)

		if filter.Table != "" && job.TableInfo().String() != filter.Table {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}

		jobCopy := *job
		result = append(result, &jobCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].JobID < result[j].JobID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*jobs.LoadDatasetJob{}, nil
		}
		result = result[filter.Offset:]
	}

	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

// UpdateJobStatus implements the JobStore interface.
func (s *Store) UpdateJobStatus(ctx context.Context, jobID string, status jobs.JobStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.cache.Get(jobID)
	if !ok {
		return fmt.Errorf("%w: %s", jobs.ErrJobNotFound, jobID)
	}

	jobCopy := *v.(*jobs.LoadDatasetJob)
	jobCopy.Status = status
	if errorMsg != "" {
		jobCopy.Error = errorMsg
	}
	s.cache.Set(jobID, &jobCopy, cache.DefaultExpiration)
	return nil
}

// Retention returns how long finished jobs are kept; zero means forever.
func (s *Store) Retention() time.Duration {
	return s.retention
}

// Ensure Store implements JobStore interface.
var _ jobs.JobStore = (*Store)(nil)
