package collector

import (
	"fmt"
	"os"

	"RateBoard/internal/model"
	"RateBoard/internal/repository"
)

// SnapshotFetcher reads the bundled rates snapshot from disk.
type SnapshotFetcher struct {
	Path string
}

// NewSnapshotFetcher creates a snapshot reader for the given file.
func NewSnapshotFetcher(path string) *SnapshotFetcher {
	return &SnapshotFetcher{Path: path}
}

func (f *SnapshotFetcher) Name() string { return "snapshot" }

// Load reads and normalizes every currency in the snapshot file.
func (f *SnapshotFetcher) Load() (map[string]*model.CurrencyRecord, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	recs, err := repository.LoadSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", f.Path, err)
	}
	return recs, nil
}
