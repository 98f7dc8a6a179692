package store

import (
	"context"
	"sync"

	"github.com/sumalravindran/My-journal-new/internal/records"
)

// Memory is an in-process gateway (tests, --dry-run)
type Memory struct {
	mu    sync.RWMutex
	lists map[records.Kind][]Item

	// FailPut, when set, is returned by PutList for that kind
	FailPut map[records.Kind]error
}

// NewMemory creates an empty in-memory gateway
func NewMemory() *Memory {
	return &Memory{lists: make(map[records.Kind][]Item)}
}

func (m *Memory) GetList(ctx context.Context, kind records.Kind) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Item, len(m.lists[kind]))
	copy(out, m.lists[kind])
	return out, nil
}

func (m *Memory) PutList(ctx context.Context, kind records.Kind, items []Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.FailPut[kind]; err != nil {
		return err
	}
	m.lists[kind] = merge(m.lists[kind], items)
	return nil
}

func (m *Memory) DeleteByID(ctx context.Context, kind records.Kind, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.lists[kind]
	for i := range list {
		if list[i].ID == id {
			m.lists[kind] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return nil
}
