// Package split partitions the images of an extracted dataset into train,
// validation and test sets and copies them into their split directories.
package split

import (
	"fmt"
	"math"

	ingesterrors "github.com/dvloznov/dataset-loader/internal/errors"
)

const ratioTolerance = 1e-6

// Ratios are the target proportions of each split.
type Ratios struct {
	Train float64 `yaml:"train" json:"train"`
	Valid float64 `yaml:"valid" json:"valid"`
	Test  float64 `yaml:"test" json:"test"`
}

// DefaultRatios returns 80/10/10.
func DefaultRatios() Ratios {
	return Ratios{Train: 0.8, Valid: 0.1, Test: 0.1}
}

// IsZero reports whether no ratio was set.
func (r Ratios) IsZero() bool {
	return r == Ratios{}
}

// Validate checks each ratio is within [0,1] and that they sum to 1.
func (r Ratios) Validate() error {
	for name, v := range map[string]float64{"train": r.Train, "valid": r.Valid, "test": r.Test} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%w: %s ratio %v outside [0,1]", ingesterrors.ErrInvalidRequest, name, v)
		}
	}
	if sum := r.Train + r.Valid + r.Test; math.Abs(sum-1) > ratioTolerance {
		return fmt.Errorf("%w: split ratios sum to %v, want 1", ingesterrors.ErrInvalidRequest, sum)
	}
	return nil
}

// String formats the ratios as "train/valid/test".
func (r Ratios) String() string {
	return fmt.Sprintf("%g/%g/%g", r.Train, r.Valid, r.Test)
}

// Counts returns how many of n images go to each split: floor(n*train),
// floor(n*valid), and the remainder to test.
func Counts(n int, r Ratios) (train, valid, test int) {
	if n <= 0 {
		return 0, 0, 0
	}
	train = min(floorCount(n, r.Train), n)
	valid = min(floorCount(n, r.Valid), n-train)
	test = n - train - valid
	return train, valid, test
}

// floorCount tolerates products like 100*0.29 landing just below an integer.
func floorCount(n int, ratio float64) int {
	return int(math.Floor(float64(n)*ratio + 1e-9))
}
