package split

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dvloznov/dataset-loader/internal/dataset"
	"github.com/dvloznov/dataset-loader/internal/logger"
)

// Partitioner materializes split assignments on disk.
type Partitioner struct {
	seed uint64
	now  func() time.Time
}

// NewPartitioner creates a Partitioner. A zero seed draws one from the
// clock for every new assignment; the seed used is kept in the manifest.
func NewPartitioner(seed uint64) *Partitioner {
	return &Partitioner{seed: seed, now: time.Now}
}

// Result summarizes one Partition call.
type Result struct {
	Manifest *Manifest
	// Ran is false when there was nothing to do.
	Ran bool
	// Resumed is true when an incomplete manifest from an earlier run was
	// reused.
	Resumed bool
	Copied  int
	Skipped int
}

// Partition assigns the raw images of a staged dataset to splits and copies
// them (with their label files, when present) into the split directories.
//
// It runs after a fresh extraction, when an earlier run left an
// incomplete manifest behind, or when a reused extraction has no manifest
// and empty split directories. The assignment is saved before the first copy
// and marked complete after the last one. Destinations that already exist
// are left alone.
func (p *Partitioner) Partition(ctx context.Context, staged *dataset.Staged, ratios Ratios) (*Result, error) {
	log := logger.Component(ctx, "partitioner")

	m, err := LoadManifest(staged.Dir)
	if err != nil {
		return nil, err
	}

	res := &Result{Manifest: m}
	switch {
	case m != nil && m.Complete:
		if m.Ratios != ratios {
			log.Info().
				Str("recorded", m.Ratios.String()).
				Str("requested", ratios.String()).
				Msg("Dataset already split, keeping recorded ratios")
		}
		return res, nil
	case m != nil:
		res.Resumed = true
		log.Info().Uint64("seed", m.Seed).Msg("Resuming incomplete split")
	case !staged.Extracted:
		empty, err := splitsEmpty(staged.Dir)
		if err != nil {
			return nil, err
		}
		if !empty {
			log.Debug().Str("dir", staged.Dir).Msg("Extraction reused without split manifest, skipping partition")
			return res, nil
		}
		log.Info().Str("dir", staged.Dir).Msg("Extraction reused with empty splits, partitioning")
		fallthrough
	default:
		if err := ratios.Validate(); err != nil {
			return nil, err
		}
		images, err := dataset.ListImages(staged.RawDir)
		if err != nil {
			return nil, err
		}

		seed := p.seed
		if seed == 0 {
			seed = uint64(p.now().UnixNano())
		}
		a := Assign(images, ratios, NewRand(seed))
		m = &Manifest{
			Seed:      seed,
			Ratios:    ratios,
			CreatedAt: p.now().UTC(),
			Train:     a.Train,
			Valid:     a.Valid,
			Test:      a.Test,
		}
		if err := m.Save(staged.Dir); err != nil {
			return nil, err
		}
		res.Manifest = m

		log.Info().
			Uint64("seed", seed).
			Int("train", len(a.Train)).
			Int("valid", len(a.Valid)).
			Int("test", len(a.Test)).
			Msg("Split assigned")
	}

	res.Ran = true
	assignment := m.Assignment()
	for _, s := range dataset.Splits {
		imageDir, labelDir := dataset.SplitDirs(staged.Dir, s)
		for _, d := range []string{imageDir, labelDir} {
			if err := os.MkdirAll(d, 0o755); err != nil {
				return nil, fmt.Errorf("create %s: %w", d, err)
			}
		}
		for _, image := range assignment.Files(s) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			copied, err := copyIfMissing(filepath.Join(staged.RawDir, image), filepath.Join(imageDir, image))
			if err != nil {
				return nil, err
			}
			res.count(copied)

			label := dataset.LabelFileName(image)
			src := filepath.Join(staged.RawDir, label)
			if _, err := os.Stat(src); err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return nil, fmt.Errorf("stat label %s: %w", src, err)
			}
			copied, err = copyIfMissing(src, filepath.Join(labelDir, label))
			if err != nil {
				return nil, err
			}
			res.count(copied)
		}
	}

	m.Complete = true
	if err := m.Save(staged.Dir); err != nil {
		return nil, err
	}

	log.Info().Int("copied", res.Copied).Int("skipped", res.Skipped).Msg("Split materialized")
	return res, nil
}

func (r *Result) count(copied bool) {
	if copied {
		r.Copied++
	} else {
		r.Skipped++
	}
}

// copyIfMissing copies src to dst unless dst exists. The copy goes through
// a temporary file so an interrupted run never leaves a truncated dst.
// splitsEmpty reports whether no split directory under dir holds a file.
// Missing directories count as empty.
func splitsEmpty(dir string) (bool, error) {
	for _, s := range dataset.Splits {
		imageDir, labelDir := dataset.SplitDirs(dir, s)
		for _, d := range []string{imageDir, labelDir} {
			entries, err := os.ReadDir(d)
			if os.IsNotExist(err) {
				continue
			}
			if err != nil {
				return false, fmt.Errorf("read %s: %w", d, err)
			}
			if len(entries) > 0 {
				return false, nil
			}
		}
	}
	return true, nil
}

func copyIfMissing(src, dst string) (bool, error) {
	if _, err := os.Stat(dst); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat %s: %w", dst, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return false, fmt.Errorf("create %s: %w", tmp, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return false, fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return false, fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		return false, fmt.Errorf("rename %s: %w", tmp, err)
	}
	return true, nil
}
