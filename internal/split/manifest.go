package split

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ManifestFile is stored in the extraction directory next to the raw export.
const ManifestFile = "split.yaml"

// Manifest records a split assignment so later runs reuse it instead of
// reshuffling.
type Manifest struct {
	Seed      uint64    `yaml:"seed"`
	Ratios    Ratios    `yaml:"ratios"`
	Complete  bool      `yaml:"complete"`
	CreatedAt time.Time `yaml:"created_at"`
	Train     []string  `yaml:"train"`
	Valid     []string  `yaml:"valid"`
	Test      []string  `yaml:"test"`
}

// ManifestPath returns the manifest location for an extraction directory.
func ManifestPath(dir string) string {
	return filepath.Join(dir, ManifestFile)
}

// LoadManifest reads the manifest in dir. It returns nil, nil when none
// exists.
func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(ManifestPath(dir))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read split manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse split manifest %s: %w", ManifestPath(dir), err)
	}
	return &m, nil
}

// Save writes the manifest into dir, replacing any previous one atomically.
func (m *Manifest) Save(dir string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode split manifest: %w", err)
	}

	tmp := ManifestPath(dir) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write split manifest: %w", err)
	}
	if err := os.Rename(tmp, ManifestPath(dir)); err != nil {
		return fmt.Errorf("commit split manifest: %w", err)
	}
	return nil
}

// Assignment returns the recorded split assignment.
func (m *Manifest) Assignment() Assignment {
	return Assignment{Train: m.Train, Valid: m.Valid, Test: m.Test}
}
