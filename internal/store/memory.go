package store

import (
	"context"
	"sort"
	"sync"

	"github.com/kingdomforge/kingdom-server-go/internal/game/rules"
)

// Memory keeps logs in process memory.
type Memory struct {
	mu    sync.RWMutex
	games map[string][]rules.Event
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{games: make(map[string][]rules.Event)}
}

func (m *Memory) Append(ctx context.Context, gameID string, events []rules.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	log := m.games[gameID]
	if err := checkContiguous(gameID, uint64(len(log)), events); err != nil {
		return err
	}
	m.games[gameID] = append(log, events...)
	return nil
}

func (m *Memory) Load(ctx context.Context, gameID string) ([]rules.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	log, ok := m.games[gameID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]rules.Event(nil), log...), nil
}

func (m *Memory) LastSeq(ctx context.Context, gameID string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.games[gameID])), nil
}

func (m *Memory) ListGames(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.games))
	for id := range m.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *Memory) Close() error {
	return nil
}
