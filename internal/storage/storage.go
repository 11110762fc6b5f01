package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pfrederiksen/night-courses/internal/catalog"
)

// ErrModuleNotFound is returned when a snapshot has no record of a module
var ErrModuleNotFound = errors.New("module not found")

// Storage handles persistence of snapshots and cached module details
type Storage struct {
	dataDir string
}

// New creates a new Storage instance rooted at dataDir, creating it if needed.
// The path is used as given; callers resolve ~ (see config.ResolveDataDir).
func New(dataDir string) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// Dir returns the resolved data directory
func (s *Storage) Dir() string {
	return s.dataDir
}

func (s *Storage) getSnapshotPath(year string) string {
	return filepath.Join(s.dataDir, fmt.Sprintf("snapshot_%s.json", year))
}

func (s *Storage) getDetailCachePath(year string) string {
	return filepath.Join(s.dataDir, fmt.Sprintf("details_%s.json", year))
}

// LoadSnapshot loads the snapshot for an academic year. A missing file yields an
// empty snapshot.
func (s *Storage) LoadSnapshot(year string) (*catalog.Snapshot, error) {
	path := s.getSnapshotPath(year)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return catalog.NewSnapshot(year), nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot catalog.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	if snapshot.Records == nil {
		snapshot.Records = make(map[string]catalog.Record)
	}
	if snapshot.AcademicYear == "" {
		snapshot.AcademicYear = year
	}

	return &snapshot, nil
}

// HasSnapshot reports whether a snapshot was saved for the academic year
func (s *Storage) HasSnapshot(year string) bool {
	_, err := os.Stat(s.getSnapshotPath(year))
	return err == nil
}

// SaveSnapshot saves a snapshot to disk
func (s *Storage) SaveSnapshot(snapshot *catalog.Snapshot) error {
	if snapshot.AcademicYear == "" {
		return fmt.Errorf("snapshot has no academic year")
	}
	if snapshot.UpdatedAt == "" {
		snapshot.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	return writeJSON(s.getSnapshotPath(snapshot.AcademicYear), snapshot)
}

// CreateSnapshotFromGrouping creates and saves a snapshot of a grouping
func (s *Storage) CreateSnapshotFromGrouping(year string, g catalog.Grouping) error {
	return s.SaveSnapshot(catalog.CreateSnapshot(year, g, time.Now()))
}

// GetRecordsByCode returns every saved record of a module across semesters
func (s *Storage) GetRecordsByCode(year, moduleCode string) ([]catalog.Record, error) {
	snapshot, err := s.LoadSnapshot(year)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	var records []catalog.Record
	for _, id := range snapshot.Order {
		r, ok := snapshot.Records[id]
		if ok && strings.EqualFold(r.ModuleCode, moduleCode) {
			records = append(records, r)
		}
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, moduleCode)
	}
	return records, nil
}

// detailCacheFile is the on-disk form of the module detail cache
type detailCacheFile struct {
	SavedAt string                 `json:"saved_at"`
	Entries []catalog.CachedDetail `json:"entries"`
}

// LoadDetailCache loads cached module details. A missing file yields no entries.
func (s *Storage) LoadDetailCache(year string) ([]catalog.CachedDetail, error) {
	data, err := os.ReadFile(s.getDetailCachePath(year))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading detail cache: %w", err)
	}

	var file detailCacheFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing detail cache: %w", err)
	}
	return file.Entries, nil
}

// SaveDetailCache saves cached module details
func (s *Storage) SaveDetailCache(year string, entries []catalog.CachedDetail) error {
	file := detailCacheFile{
		SavedAt: time.Now().UTC().Format(time.RFC3339),
		Entries: entries,
	}
	return writeJSON(s.getDetailCachePath(year), file)
}

// writeJSON writes v to path through a temporary file so readers never see a
// partial document
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}
