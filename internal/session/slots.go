package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Slot is a single storage substrate holding at most one serialized session.
type Slot interface {
	// Load returns the stored bytes, or (nil, nil) when the slot is empty.
	Load() ([]byte, error)
	// Store replaces the slot content atomically.
	Store(data []byte) error
	// Clear empties the slot. Clearing an empty slot is not an error.
	Clear() error
}

// MemorySlot is the ephemeral substrate. It lives only as long as the
// process, mirroring tab-scoped session storage.
type MemorySlot struct {
	mu   sync.Mutex
	data []byte
}

// NewMemorySlot returns an empty in-memory slot.
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

func (m *MemorySlot) Load() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out, nil
}

func (m *MemorySlot) Store(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make([]byte, len(data))
	copy(m.data, data)
	return nil
}

func (m *MemorySlot) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}

// FileSlot is the durable substrate: one JSON document on disk that
// survives process restarts. Writes go through a temp file and rename so a
// reader never observes a half-written session.
type FileSlot struct {
	mu   sync.Mutex
	path string
}

// NewFileSlot creates a file-backed slot at path, creating parent
// directories as needed.
func NewFileSlot(path string) (*FileSlot, error) {
	if path == "" {
		return nil, fmt.Errorf("file slot: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("file slot: create dir: %w", err)
	}
	return &FileSlot{path: path}, nil
}

func (f *FileSlot) Load() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("file slot: read: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return data, nil
}

func (f *FileSlot) Store(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("file slot: write: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("file slot: replace: %w", err)
	}
	return nil
}

func (f *FileSlot) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("file slot: clear: %w", err)
	}
	return nil
}
