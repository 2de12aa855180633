package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Persister reads and writes the serialized aggregate.
type Persister interface {
	Load() ([]byte, error)
	Save(data []byte) error
}

// FilePersister stores the aggregate in a single JSON file.
type FilePersister struct {
	Path string
}

// Load reads the whole file.
func (p FilePersister) Load() ([]byte, error) {
	return os.ReadFile(p.Path)
}

// Save replaces the file atomically using temp file + rename.
func (p FilePersister) Save(data []byte) error {
	dir := filepath.Dir(p.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".deskctx-tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on error
	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, p.Path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	tmpFile = nil
	return nil
}

// Decode parses a serialized aggregate over the defaults, so fields
// absent from older files keep their default values.
func Decode(raw []byte) (PersistData, error) {
	data := DefaultData()
	if err := json.Unmarshal(raw, &data); err != nil {
		return DefaultData(), fmt.Errorf("failed to parse state: %w", err)
	}
	data.normalize()
	return data, nil
}

// Load reads the aggregate from p. Any read or parse failure yields the
// default aggregate: a missing file and a corrupt one start fresh alike.
func Load(p Persister) PersistData {
	data, _ := load(p)
	return data
}

func load(p Persister) (PersistData, error) {
	raw, err := p.Load()
	if err != nil {
		return DefaultData(), err
	}
	return Decode(raw)
}

func encode(d *PersistData) ([]byte, error) {
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return append(b, '\n'), nil
}
