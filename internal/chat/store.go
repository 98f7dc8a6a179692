package chat

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store persists streams as one JSON file per stream under <state>/chat
type Store struct {
	mu  sync.Mutex
	dir string
}

// NewStore creates a stream store rooted at the state directory
func NewStore(statePath string) *Store {
	return &Store{dir: filepath.Join(statePath, "chat")}
}

func (s *Store) path(id StreamID) string {
	return filepath.Join(s.dir, string(id)+".json")
}

// Load reads a stream from disk. A missing file yields an empty stream.
func (s *Store) Load(id StreamID) (*Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return NewStream(id), nil
		}
		return nil, fmt.Errorf("failed to read stream %s: %w", id, err)
	}

	var stream Stream
	if err := json.Unmarshal(data, &stream); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stream %s: %w", id, err)
	}
	if stream.Messages == nil {
		stream.Messages = []Message{}
	}
	stream.ID = id

	// Clamp a cursor that drifted past the end (hand-edited file)
	if stream.Processed > len(stream.Messages) {
		stream.Processed = len(stream.Messages)
	}
	if stream.Processed < 0 {
		stream.Processed = 0
	}
	return &stream, nil
}

// Save writes the stream to disk via a temp file and rename
func (s *Store) Save(stream *Stream) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create chat dir: %w", err)
	}

	data, err := json.MarshalIndent(stream, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stream %s: %w", stream.ID, err)
	}

	tmp := s.path(stream.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write stream %s: %w", stream.ID, err)
	}
	if err := os.Rename(tmp, s.path(stream.ID)); err != nil {
		return fmt.Errorf("failed to replace stream %s: %w", stream.ID, err)
	}
	return nil
}
