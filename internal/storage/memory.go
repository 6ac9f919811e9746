package storage

import (
	"context"
	"sync"

	"github.com/starford/navkit/internal/apperr"
	"github.com/starford/navkit/internal/state"
)

// Memory keeps the snapshot as an encoded document in process memory, so a
// restore never aliases live state.
type Memory struct {
	mu   sync.Mutex
	data []byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Save(ctx context.Context, s *state.NavigationState) error {
	if err := ctx.Err(); err != nil {
		return apperr.PersistenceFailed("save", err)
	}
	data, err := state.Encode(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
	return nil
}

func (m *Memory) Restore(ctx context.Context) (*state.NavigationState, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.PersistenceFailed("restore", err)
	}
	m.mu.Lock()
	data := m.data
	m.mu.Unlock()
	if data == nil {
		return nil, nil
	}
	return state.Decode(data)
}

func (m *Memory) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return apperr.PersistenceFailed("clear", err)
	}
	m.mu.Lock()
	m.data = nil
	m.mu.Unlock()
	return nil
}
