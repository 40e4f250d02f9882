package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/peloton/internal/domain/model"
)

// Memory keeps rosters in process memory. Used in tests and for throwaway runs.
type Memory struct {
	mu     sync.RWMutex
	data   map[string][]model.Roster
	closed bool
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]model.Roster)}
}

// Load implements roster.Repository.
func (m *Memory) Load(_ context.Context, key string) (rosters []model.Roster, found bool, err error) {
	defer func(start time.Time) { observe(BackendMemory, "load", start, err) }(time.Now())
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, false, ErrClosed
	}
	rs, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return model.CloneRosters(rs), true, nil
}

// Save implements roster.Repository.
func (m *Memory) Save(_ context.Context, key string, rosters []model.Roster) (err error) {
	defer func(start time.Time) { observe(BackendMemory, "save", start, err) }(time.Now())
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.data[key] = model.CloneRosters(rosters)
	return nil
}

// Close marks the repository unusable.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
