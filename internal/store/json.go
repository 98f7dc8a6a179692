package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sumalravindran/My-journal-new/internal/records"
)

// JSONStore keeps one JSON array per kind under <state>/records
type JSONStore struct {
	dir string
	mu  sync.RWMutex
}

// NewJSONStore creates a file-backed gateway rooted at the state directory
func NewJSONStore(statePath string) *JSONStore {
	return &JSONStore{dir: filepath.Join(statePath, "records")}
}

func (s *JSONStore) path(kind records.Kind) string {
	return filepath.Join(s.dir, string(kind)+".json")
}

// fileItem is one record as written on disk; its id is read from the "id" field
type fileItem = json.RawMessage

func (s *JSONStore) read(kind records.Kind) ([]Item, error) {
	data, err := os.ReadFile(s.path(kind))
	if os.IsNotExist(err) {
		return []Item{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", kind, err)
	}

	var raw []fileItem
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", kind, err)
	}

	items := make([]Item, 0, len(raw))
	for _, r := range raw {
		var head struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(r, &head); err != nil || head.ID == "" {
			continue // skip malformed records
		}
		items = append(items, Item{ID: head.ID, Data: r})
	}
	return items, nil
}

func (s *JSONStore) write(kind records.Kind, items []Item) error {
	raw := make([]fileItem, len(items))
	for i, it := range items {
		raw[i] = it.Data
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", kind, err)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp := s.path(kind) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", kind, err)
	}
	return os.Rename(tmp, s.path(kind))
}

func (s *JSONStore) GetList(ctx context.Context, kind records.Kind) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(kind)
}

func (s *JSONStore) PutList(ctx context.Context, kind records.Kind, items []Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.read(kind)
	if err != nil {
		return err
	}
	return s.write(kind, merge(existing, items))
}

func (s *JSONStore) DeleteByID(ctx context.Context, kind records.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.read(kind)
	if err != nil {
		return err
	}
	kept := existing[:0]
	for _, it := range existing {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(existing) {
		return nil
	}
	return s.write(kind, kept)
}
