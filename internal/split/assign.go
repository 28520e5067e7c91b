package split

import (
	"math/rand/v2"
	"sort"

	"github.com/dvloznov/dataset-loader/internal/dataset"
)

// Assignment maps every image file name to exactly one split.
type Assignment struct {
	Train []string
	Valid []string
	Test  []string
}

// Files returns the images assigned to s.
func (a Assignment) Files(s dataset.Split) []string {
	switch s {
	case dataset.Train:
		return a.Train
	case dataset.Valid:
		return a.Valid
	case dataset.Test:
		return a.Test
	default:
		return nil
	}
}

// Len is the total number of assigned images.
func (a Assignment) Len() int {
	return len(a.Train) + len(a.Valid) + len(a.Test)
}

// NewRand returns a generator fully determined by seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Assign shuffles images with rng and slices the result by Counts. The input
// is sorted first so the outcome depends only on the image set and the
// generator state. A nil rng keeps sorted order.
func Assign(images []string, r Ratios, rng *rand.Rand) Assignment {
	files := make([]string, len(images))
	copy(files, images)
	sort.Strings(files)

	if rng != nil {
		rng.Shuffle(len(files), func(i, j int) {
			files[i], files[j] = files[j], files[i]
		})
	}

	train, valid, _ := Counts(len(files), r)
	return Assignment{
		Train: files[:train:train],
		Valid: files[train : train+valid : train+valid],
		Test:  files[train+valid:],
	}
}
