// Package labels maps class indices to display names read from a JSON file
// of the form {"0": "Acer rubrum", "1": "..."}.
package labels

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"
)

// Store reads the label file lazily and re-reads it whenever its
// modification time changes. Lookups never fail.
type Store struct {
	path string

	mu      sync.RWMutex
	names   map[string]string
	modTime time.Time
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Name returns the display name for idx, or "Class {idx}" when the file is
// unavailable or has no entry for it.
func (s *Store) Name(idx int) string {
	key := strconv.Itoa(idx)
	if name, ok := s.current()[key]; ok {
		return name
	}
	return Fallback(idx)
}

func Fallback(idx int) string {
	return fmt.Sprintf("Class %d", idx)
}

func (s *Store) current() map[string]string {
	fi, err := os.Stat(s.path)
	if err != nil {
		slog.Debug("Label file unavailable", slog.String("path", s.path), slog.String("error", err.Error()))
		return nil
	}

	s.mu.RLock()
	if s.names != nil && fi.ModTime().Equal(s.modTime) {
		names := s.names
		s.mu.RUnlock()
		return names
	}
	s.mu.RUnlock()

	names, err := read(s.path)
	if err != nil {
		slog.Warn("Failed to read label file", slog.String("path", s.path), slog.String("error", err.Error()))
		return nil
	}

	s.mu.Lock()
	s.names = names
	s.modTime = fi.ModTime()
	s.mu.Unlock()
	return names
}

func read(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string)
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("invalid label file: %w", err)
	}
	return names, nil
}
