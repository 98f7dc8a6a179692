package consolidate

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sumalravindran/My-journal-new/internal/chat"
	"github.com/sumalravindran/My-journal-new/internal/logging"
)

// Manager hands out one Session per stream. Streams share no state, so
// their flushes run independently.
type Manager struct {
	cfg Config

	mu       sync.Mutex
	sessions map[chat.StreamID]*Session
}

// NewManager creates a manager; sessions are loaded lazily from cfg.Chats
func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:      cfg,
		sessions: make(map[chat.StreamID]*Session),
	}
}

// Session returns the session for id, loading its stream on first use
func (m *Manager) Session(id chat.StreamID) (*Session, error) {
	if id == "" {
		return nil, fmt.Errorf("stream id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		return s, nil
	}

	stream := chat.NewStream(id)
	if m.cfg.Chats != nil {
		loaded, err := m.cfg.Chats.Load(id)
		if err != nil {
			return nil, err
		}
		stream = loaded
	}
	if pending := stream.Len() - stream.Processed; pending > 0 {
		logging.Info("consolidate", "[%s] loaded with %d unconsolidated message(s)", id, pending)
	}

	s := NewSession(stream, m.cfg)
	m.sessions[id] = s
	return s, nil
}

// Sessions returns the open sessions ordered by stream id
func (m *Manager) Sessions() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// LeaveAll runs the leave flush on every open session concurrently
func (m *Manager) LeaveAll(ctx context.Context) map[chat.StreamID]FlushResult {
	sessions := m.Sessions()

	var mu sync.Mutex
	results := make(map[chat.StreamID]FlushResult, len(sessions))
	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			r := s.Leave(ctx)
			mu.Lock()
			results[s.ID()] = r
			mu.Unlock()
		}(s)
	}
	wg.Wait()
	return results
}

// Close closes every session, waiting for in-flight flushes
func (m *Manager) Close() {
	for _, s := range m.Sessions() {
		s.Close()
	}
}
