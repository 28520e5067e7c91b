package split

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dvloznov/dataset-loader/internal/dataset"
	ingesterrors "github.com/dvloznov/dataset-loader/internal/errors"
	"github.com/dvloznov/dataset-loader/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stageCows extracts ten images, the first eight labeled.
func stageCows(t *testing.T) *dataset.Staged {
	t.Helper()
	root := t.TempDir()
	testutil.WriteZip(t, filepath.Join(root, "cows.zip"), testutil.CowsExport())

	staged, err := dataset.NewStager(dataset.NewLayout(root, ""), nil).Stage(context.Background(), "cows.zip")
	require.NoError(t, err)
	require.True(t, staged.Extracted)
	return staged
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

func TestPartitionCows(t *testing.T) {
	staged := stageCows(t)

	res, err := NewPartitioner(1).Partition(context.Background(), staged, DefaultRatios())
	require.NoError(t, err)
	assert.True(t, res.Ran)
	assert.False(t, res.Resumed)
	assert.Equal(t, 18, res.Copied, "10 images and 8 labels")
	assert.Zero(t, res.Skipped)

	want := map[dataset.Split]int{dataset.Train: 8, dataset.Valid: 1, dataset.Test: 1}
	labels := 0
	for _, s := range dataset.Splits {
		imageDir, labelDir := dataset.SplitDirs(staged.Dir, s)
		assert.Equal(t, want[s], countFiles(t, imageDir), string(s))
		labels += countFiles(t, labelDir)

		for _, image := range res.Manifest.Assignment().Files(s) {
			assert.FileExists(t, filepath.Join(imageDir, image))
		}
	}
	assert.Equal(t, 8, labels)

	m, err := LoadManifest(staged.Dir)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.True(t, m.Complete)
	assert.Equal(t, uint64(1), m.Seed)
	assert.Equal(t, 10, m.Assignment().Len())
}

func TestPartitionSkipsCompletedSplit(t *testing.T) {
	staged := stageCows(t)
	p := NewPartitioner(1)

	_, err := p.Partition(context.Background(), staged, DefaultRatios())
	require.NoError(t, err)
	before := testutil.Snapshot(t, staged.Dir)

	// A later run with different ratios keeps the recorded split.
	res, err := p.Partition(context.Background(), staged, Ratios{Train: 1})
	require.NoError(t, err)
	assert.False(t, res.Ran)
	assert.Equal(t, DefaultRatios(), res.Manifest.Ratios)
	assert.Equal(t, before, testutil.Snapshot(t, staged.Dir))
}

func TestPartitionResumesIncompleteManifest(t *testing.T) {
	staged := stageCows(t)

	m := &Manifest{
		Seed:   99,
		Ratios: DefaultRatios(),
		Train:  []string{"img_000.jpg", "img_001.jpg", "img_002.jpg", "img_003.jpg", "img_004.jpg", "img_005.jpg", "img_006.jpg", "img_007.jpg"},
		Valid:  []string{"img_008.jpg"},
		Test:   []string{"img_009.jpg"},
	}
	require.NoError(t, m.Save(staged.Dir))

	// One image was already copied by the interrupted run.
	trainImages, _ := dataset.SplitDirs(staged.Dir, dataset.Train)
	stale := filepath.Join(trainImages, "img_000.jpg")
	require.NoError(t, os.WriteFile(stale, []byte("earlier copy"), 0o644))

	// The memo directory already exists on the second run.
	staged.Extracted = false
	res, err := NewPartitioner(5).Partition(context.Background(), staged, Ratios{Train: 1})
	require.NoError(t, err)
	assert.True(t, res.Ran)
	assert.True(t, res.Resumed)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 17, res.Copied)

	data, err := os.ReadFile(stale)
	require.NoError(t, err)
	assert.Equal(t, "earlier copy", string(data))

	validImages, _ := dataset.SplitDirs(staged.Dir, dataset.Valid)
	assert.FileExists(t, filepath.Join(validImages, "img_008.jpg"))

	got, err := LoadManifest(staged.Dir)
	require.NoError(t, err)
	assert.True(t, got.Complete)
	assert.Equal(t, uint64(99), got.Seed)
}

func TestPartitionNoopWhenExtractionReused(t *testing.T) {
	staged := stageCows(t)
	staged.Extracted = false

	// Split folders filled by an earlier run that kept no manifest.
	trainImages, _ := dataset.SplitDirs(staged.Dir, dataset.Train)
	require.NoError(t, os.WriteFile(filepath.Join(trainImages, "img_000.jpg"), []byte("jpg"), 0o644))

	res, err := NewPartitioner(1).Partition(context.Background(), staged, DefaultRatios())
	require.NoError(t, err)
	assert.False(t, res.Ran)
	assert.Nil(t, res.Manifest)
	assert.NoFileExists(t, ManifestPath(staged.Dir))
}

func TestPartitionAfterExtractionWithoutManifest(t *testing.T) {
	// The extraction was committed but the run stopped before the manifest
	// was written.
	staged := stageCows(t)
	staged.Extracted = false

	res, err := NewPartitioner(1).Partition(context.Background(), staged, DefaultRatios())
	require.NoError(t, err)
	assert.True(t, res.Ran)
	assert.False(t, res.Resumed)
	assert.Equal(t, 18, res.Copied)

	m, err := LoadManifest(staged.Dir)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.True(t, m.Complete)
}

func TestPartitionInvalidRatios(t *testing.T) {
	staged := stageCows(t)

	_, err := NewPartitioner(1).Partition(context.Background(), staged, Ratios{Train: 0.5})
	assert.ErrorIs(t, err, ingesterrors.ErrInvalidRequest)
	assert.NoFileExists(t, ManifestPath(staged.Dir))
}

func TestPartitionClockSeed(t *testing.T) {
	staged := stageCows(t)
	p := NewPartitioner(0)
	p.now = func() time.Time { return time.Unix(0, 12345) }

	res, err := p.Partition(context.Background(), staged, DefaultRatios())
	require.NoError(t, err)
	assert.Equal(t, uint64(12345), res.Manifest.Seed)
}

func TestPartitionCancelled(t *testing.T) {
	staged := stageCows(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPartitioner(1).Partition(ctx, staged, DefaultRatios())
	assert.ErrorIs(t, err, context.Canceled)

	m, err := LoadManifest(staged.Dir)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.False(t, m.Complete)
}
