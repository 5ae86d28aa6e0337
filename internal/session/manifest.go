package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"visual-vertical/internal/config"
	"visual-vertical/internal/version"

	"github.com/google/uuid"
)

// ManifestVersion is the current manifest format.
const ManifestVersion = 1

// Manifest describes one run (<prefix>_session.json). Output paths are
// stored relative to the manifest.
type Manifest struct {
	Version    int       `json:"version"`
	AppVersion string    `json:"app_version"`
	ID         string    `json:"id"`
	Created    time.Time `json:"created"`
	Modified   time.Time `json:"modified"`
	Source     string    `json:"source"`
	Camera     bool      `json:"camera"`

	Frames     int     `json:"frames"`
	FinalAngle float64 `json:"final_angle"`
	AverageFPS float64 `json:"average_fps,omitempty"`

	CSVPath   string `json:"csv,omitempty"`
	VideoPath string `json:"video,omitempty"`
	PlotPath  string `json:"plot,omitempty"`
	DBPath    string `json:"db,omitempty"`

	Config *config.Config `json:"config,omitempty"`
}

// NewManifest starts a manifest for source with a fresh session id.
func NewManifest(source string, camera bool, cfg *config.Config) *Manifest {
	now := time.Now()
	return &Manifest{
		Version:    ManifestVersion,
		AppVersion: version.Version,
		ID:         uuid.NewString(),
		Created:    now,
		Modified:   now,
		Source:     source,
		Camera:     camera,
		Config:     cfg,
	}
}

// LoadManifest reads a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}

	return &m, nil
}

// Save writes the manifest to path.
func (m *Manifest) Save(path string) error {
	m.Modified = time.Now()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Relative returns target relative to the manifest directory, or target
// itself if no relative path exists.
func Relative(manifestPath, target string) string {
	if target == "" {
		return ""
	}
	rel, err := filepath.Rel(filepath.Dir(manifestPath), target)
	if err != nil {
		return target
	}
	return rel
}

// Resolve returns the absolute form of a path stored in the manifest.
func Resolve(manifestPath, stored string) string {
	if stored == "" {
		return ""
	}
	if filepath.IsAbs(stored) {
		return stored
	}
	return filepath.Join(filepath.Dir(manifestPath), stored)
}
