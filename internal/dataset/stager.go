package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ingesterrors "github.com/dvloznov/dataset-loader/internal/errors"
	"github.com/dvloznov/dataset-loader/internal/gcs"
	"github.com/dvloznov/dataset-loader/internal/logger"
	"github.com/google/uuid"
)

// Stager extracts archives into the dataset tree at most once per archive.
type Stager struct {
	layout Layout
	store  gcs.ArchiveStore
}

// NewStager creates a Stager. store may be nil, in which case gs:// archives
// are rejected.
func NewStager(layout Layout, store gcs.ArchiveStore) *Stager {
	return &Stager{layout: layout, store: store}
}

// Layout returns the layout the stager works in.
func (s *Stager) Layout() Layout {
	return s.layout
}

// Stage makes sure the archive is extracted and its split folders exist.
//
// An existing extraction directory is reused untouched. A fresh extraction
// is written to a temporary sibling and renamed into place, so the
// directory only becomes visible once it is complete. A missing archive
// returns ErrDatasetNotFound before anything is created on disk.
func (s *Stager) Stage(ctx context.Context, archive string) (*Staged, error) {
	log := logger.Component(ctx, "stager")

	local, err := s.resolve(ctx, archive)
	if err != nil {
		return nil, err
	}

	dir := s.layout.ExtractDir(local)
	staged := &Staged{
		ArchivePath: local,
		Dir:         dir,
		RawDir:      s.layout.RawPath(dir),
	}

	info, err := os.Stat(dir)
	switch {
	case err == nil && info.IsDir():
		log.Debug().Str("dir", dir).Msg("Extraction directory exists, skipping extraction")
		return staged, nil
	case err == nil:
		return nil, fmt.Errorf("extraction path %s exists and is not a directory", dir)
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("stat extraction directory: %w", err)
	}

	if detectFormat(local) == formatUnknown {
		return nil, fmt.Errorf("%s: %w", filepath.Base(local), ingesterrors.ErrUnsupportedArchive)
	}

	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return nil, fmt.Errorf("create dataset directory: %w", err)
	}

	partial := dir + ".partial-" + uuid.NewString()
	if err := os.Mkdir(partial, 0o755); err != nil {
		return nil, fmt.Errorf("create partial extraction directory: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			if rmErr := os.RemoveAll(partial); rmErr != nil {
				log.Warn().Err(rmErr).Str("dir", partial).Msg("Failed to remove partial extraction")
			}
		}
	}()

	log.Info().
		Str("archive", local).
		Str("format", FormatName(local)).
		Str("dir", dir).
		Msg("Extracting archive")

	if err := extractArchive(ctx, local, partial); err != nil {
		return nil, err
	}

	for _, split := range Splits {
		imageDir, labelDir := SplitDirs(partial, split)
		if err := os.MkdirAll(imageDir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", imageDir, err)
		}
		if err := os.MkdirAll(labelDir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", labelDir, err)
		}
	}

	if err := os.Rename(partial, dir); err != nil {
		return nil, fmt.Errorf("commit extraction directory: %w", err)
	}
	committed = true
	staged.Extracted = true

	log.Info().Str("dir", dir).Msg("Archive extracted")
	return staged, nil
}

// resolve returns the local path of the archive, downloading gs:// archives
// into the dataset root when they are not there yet.
func (s *Stager) resolve(ctx context.Context, archive string) (string, error) {
	if !strings.HasPrefix(archive, gcs.URIScheme) {
		local, err := s.layout.ArchivePath(archive)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ingesterrors.ErrInvalidRequest, err)
		}
		if err := requireFile(local); err != nil {
			return "", err
		}
		return local, nil
	}

	if s.store == nil {
		return "", fmt.Errorf("%w: remote archive %s but no archive store configured", ingesterrors.ErrInvalidRequest, archive)
	}

	name := s.store.ExtractFilenameFromGCSURI(archive)
	local, err := s.layout.ArchivePath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ingesterrors.ErrInvalidRequest, err)
	}

	if _, err := os.Stat(local); err == nil {
		return local, nil
	}

	log := logger.Component(ctx, "stager")
	log.Info().
		Str("uri", archive).
		Str("dest", local).
		Msg("Downloading archive")

	if err := s.store.DownloadFile(ctx, archive, local); err != nil {
		return "", fmt.Errorf("fetch archive %s: %w", archive, err)
	}
	return local, nil
}

func requireFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) || (err == nil && info.IsDir()) {
		return fmt.Errorf("load %s failed: no valid file found on path %s: %w",
			FormatName(path), path, ingesterrors.ErrDatasetNotFound)
	}
	if err != nil {
		return fmt.Errorf("stat archive %s: %w", path, err)
	}
	return nil
}
