package settings

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore persists the settings blob to a JSON file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by path. The file is created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the settings file. Returns the defaults if the file doesn't exist.
func (f *FileStore) Load() (Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	var st Settings
	if err := json.Unmarshal(data, &st); err != nil {
		log.Printf("[WARN] settings file %s unreadable, using defaults: %v", f.path, err)
		return Default(), nil
	}
	return st.Normalize(), nil
}

// Save writes the settings file.
func (f *FileStore) Save(st Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	st = st.Normalize()
	st.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create settings dir: %w", err)
		}
	}
	return os.WriteFile(f.path, data, 0644)
}

func (f *FileStore) Close() error { return nil }

// MemoryStore keeps settings in memory only. It is used when no path is configured.
type MemoryStore struct {
	mu    sync.Mutex
	saved *Settings
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Load() (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		return Default(), nil
	}
	return *m.saved, nil
}

func (m *MemoryStore) Save(st Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st = st.Normalize()
	st.UpdatedAt = time.Now()
	m.saved = &st
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// Open picks the SQLite store when sqlitePath is set, then the file store, then memory.
func Open(sqlitePath, filePath string) (Store, error) {
	switch {
	case sqlitePath != "":
		if dir := filepath.Dir(sqlitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create settings dir: %w", err)
			}
		}
		return NewSQLiteStore(sqlitePath)
	case filePath != "":
		return NewFileStore(filePath), nil
	default:
		log.Println("[WARN] no settings path configured, settings will not persist")
		return NewMemoryStore(), nil
	}
}
