// Package dataset lays out the on-disk dataset tree and stages archives into
// it: one extraction directory per archive, holding the raw export plus
// images/ and labels/ folders for each split.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// DatasetDir is the directory under the root that holds extractions.
	DatasetDir = "dataset"

	// DefaultRawDir is the folder a CVAT YOLO export unpacks its images and
	// labels into.
	DefaultRawDir = "obj_train_data"

	ImagesDir = "images"
	LabelsDir = "labels"

	// LabelExt is the extension of per-image label files.
	LabelExt = ".txt"
)

// Split is one of the train/validation/test partitions.
type Split string

const (
	Train Split = "train"
	Valid Split = "valid"
	Test  Split = "test"
)

// Splits lists the partitions in assignment order.
var Splits = []Split{Train, Valid, Test}

var imageExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
}

// Layout resolves every path of the dataset tree below Root.
type Layout struct {
	Root   string
	RawDir string
}

// NewLayout returns a Layout, defaulting RawDir.
func NewLayout(root, rawDir string) Layout {
	if rawDir == "" {
		rawDir = DefaultRawDir
	}
	return Layout{Root: root, RawDir: rawDir}
}

// ArchivePath resolves an archive path against the root. Paths that would
// leave the root are rejected.
func (l Layout) ArchivePath(archive string) (string, error) {
	if archive == "" {
		return "", fmt.Errorf("archive path is empty")
	}
	p := filepath.Join(l.Root, archive)
	rel, err := filepath.Rel(l.Root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("archive path %q escapes dataset root", archive)
	}
	return p, nil
}

// ExtractDir is the memo directory an archive is extracted into.
func (l Layout) ExtractDir(archive string) string {
	return filepath.Join(l.Root, DatasetDir, ArchiveBaseName(archive))
}

// RawPath is the raw export folder inside an extraction directory.
func (l Layout) RawPath(extractDir string) string {
	return filepath.Join(extractDir, l.RawDir)
}

// ArchiveBaseName returns the file name up to its first dot, so
// "cows.tar.gz" and "cows.zip" both map to "cows".
func ArchiveBaseName(archive string) string {
	base := filepath.Base(archive)
	if i := strings.Index(base, "."); i > 0 {
		return base[:i]
	}
	return base
}

// SplitDirs returns the image and label directories of a split.
func SplitDirs(extractDir string, split Split) (imageDir, labelDir string) {
	return filepath.Join(extractDir, ImagesDir, string(split)),
		filepath.Join(extractDir, LabelsDir, string(split))
}

// IsImage reports whether name has a supported image extension,
// ignoring case.
func IsImage(name string) bool {
	_, ok := imageExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// LabelFileName returns the label file name for an image: same stem, .txt.
func LabelFileName(image string) string {
	return strings.TrimSuffix(image, filepath.Ext(image)) + LabelExt
}

// ListImages returns the names of regular image files directly inside dir,
// sorted by name.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list images in %s: %w", dir, err)
	}

	var images []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !IsImage(e.Name()) {
			continue
		}
		images = append(images, e.Name())
	}
	sort.Strings(images)
	return images, nil
}

// Staged describes an archive after staging.
type Staged struct {
	// ArchivePath is the local archive file.
	ArchivePath string
	// Dir is the extraction directory.
	Dir string
	// RawDir is the raw export folder inside Dir.
	RawDir string
	// Extracted is true when this call performed the extraction, false when
	// the extraction directory already existed.
	Extracted bool
}
