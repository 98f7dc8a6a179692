// Package chat holds the append-only conversation streams that feed the
// consolidation engine.
package chat

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stream is an append-only conversation. Insertion order is temporal order.
// Processed is the persisted consolidation cursor position.
type Stream struct {
	ID        StreamID  `json:"id"`
	Messages  []Message `json:"messages"`
	Processed int       `json:"processed"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewStream creates an empty stream
func NewStream(id StreamID) *Stream {
	return &Stream{ID: id, Messages: []Message{}}
}

// Append adds a message, filling in the id and timestamp when missing.
// Returns the stored copy.
func (s *Stream) Append(m Message) Message {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	s.Messages = append(s.Messages, m)
	s.UpdatedAt = m.Timestamp
	return m
}

// Len returns the number of messages in the stream
func (s *Stream) Len() int {
	return len(s.Messages)
}

// Snapshot returns a copy of the messages so callers can read them outside
// the owner's lock
func (s *Stream) Snapshot() []Message {
	out := make([]Message, len(s.Messages))
	copy(out, s.Messages)
	return out
}

// Validate checks the cursor invariant 0 <= Processed <= len(Messages)
func (s *Stream) Validate() error {
	if s.Processed < 0 || s.Processed > len(s.Messages) {
		return fmt.Errorf("stream %s: processed count %d out of range [0, %d]", s.ID, s.Processed, len(s.Messages))
	}
	return nil
}
