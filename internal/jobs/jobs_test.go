package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dvloznov/dataset-loader/internal/catalog"
	"github.com/dvloznov/dataset-loader/internal/pipeline"
	"github.com/dvloznov/dataset-loader/internal/split"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLoader struct {
	LoadFunc func(ctx context.Context, req pipeline.Request) (*pipeline.Report, error)
}

func (m *mockLoader) Load(ctx context.Context, req pipeline.Request) (*pipeline.Report, error) {
	return m.LoadFunc(ctx, req)
}

type otherJob struct{}

func (otherJob) GetID() string        { return "x" }
func (otherJob) GetType() JobType     { return "other" }
func (otherJob) GetStatus() JobStatus { return JobStatusPending }

func TestLoadDatasetJobRequest(t *testing.T) {
	job := &LoadDatasetJob{
		JobID:       "j1",
		ArchivePath: "cows.zip",
		Table:       "cows",
		Ratios:      split.Ratios{Train: 0.6, Valid: 0.2, Test: 0.2},
	}

	req := job.Request()
	assert.Equal(t, "cows.zip", req.ArchivePath)
	assert.Equal(t, catalog.TableInfo{Database: catalog.DefaultDatabase, Table: "cows"}, req.Table)
	assert.Equal(t, job.Ratios, req.Ratios)

	assert.Equal(t, JobTypeLoadDataset, job.GetType())
	assert.Equal(t, "j1", job.GetID())
}

func TestJobStatusFinal(t *testing.T) {
	assert.False(t, JobStatusPending.Final())
	assert.False(t, JobStatusRunning.Final())
	assert.True(t, JobStatusCompleted.Final())
	assert.True(t, JobStatusFailed.Final())
}

func TestLockKeys(t *testing.T) {
	job := &LoadDatasetJob{ArchivePath: "sub/cows.tar.gz", Database: "farm", Table: "cows"}
	assert.Equal(t, []string{"archive:cows", "table:farm.cows"}, LockKeys(job))

	// Archives with the same base name extract into the same directory.
	assert.Equal(t, ArchiveLockKey("cows.zip"), ArchiveLockKey("cows.tar"))
}

func TestNamedLocksExclusion(t *testing.T) {
	locks := NewNamedLocks()

	var active, maxActive int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("archive:cows", "table:default.cows")
			defer unlock()

			n := atomic.AddInt32(&active, 1)
			for {
				m := atomic.LoadInt32(&maxActive)
				if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxActive)
}

func TestNamedLocksIndependentKeys(t *testing.T) {
	locks := NewNamedLocks()
	unlockA := locks.Lock("table:default.a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := locks.Lock("table:default.b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on an unrelated key blocked")
	}
}

func TestLoadHandlerSuccess(t *testing.T) {
	loader := &mockLoader{
		LoadFunc: func(ctx context.Context, req pipeline.Request) (*pipeline.Report, error) {
			assert.Equal(t, "cows.zip", req.ArchivePath)
			return &pipeline.Report{Table: req.Table, Rows: 8}, nil
		},
	}
	handler := NewLoadHandler(loader, nil)

	job := &LoadDatasetJob{JobID: "j1", ArchivePath: "cows.zip", Table: "cows"}
	require.NoError(t, handler(context.Background(), job))
	assert.Equal(t, 8, job.Rows)
	assert.Equal(t, "Number of loaded annotations: 8", job.Summary)
}

func TestLoadHandlerError(t *testing.T) {
	loadErr := errors.New("boom")
	loader := &mockLoader{
		LoadFunc: func(ctx context.Context, req pipeline.Request) (*pipeline.Report, error) {
			return nil, loadErr
		},
	}
	handler := NewLoadHandler(loader, NewNamedLocks())

	job := &LoadDatasetJob{JobID: "j1", ArchivePath: "cows.zip", Table: "cows"}
	err := handler(context.Background(), job)
	assert.ErrorIs(t, err, loadErr)
	assert.Zero(t, job.Rows)
}

func TestLoadHandlerUnsupportedJob(t *testing.T) {
	handler := NewLoadHandler(&mockLoader{}, nil)
	assert.Error(t, handler(context.Background(), otherJob{}))
}

func TestLoadHandlerSerializesSameTable(t *testing.T) {
	var active, maxActive int32
	loader := &mockLoader{
		LoadFunc: func(ctx context.Context, req pipeline.Request) (*pipeline.Report, error) {
			n := atomic.AddInt32(&active, 1)
			if n > atomic.LoadInt32(&maxActive) {
				atomic.StoreInt32(&maxActive, n)
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			return &pipeline.Report{}, nil
		},
	}
	handler := NewLoadHandler(loader, NewNamedLocks())

	var wg sync.WaitGroup
	for _, archive := range []string{"a.zip", "b.zip", "c.zip"} {
		wg.Add(1)
		go func(archive string) {
			defer wg.Done()
			job := &LoadDatasetJob{ArchivePath: archive, Table: "cows"}
			_ = handler(context.Background(), job)
		}(archive)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxActive))
}
