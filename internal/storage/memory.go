package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/imperiumfree/imperium-server-go/internal/game"
)

// MemoryStore keeps encoded snapshots in memory. Loads decode a fresh copy,
// so callers never share a snapshot with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[string][]byte
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[string][]byte)}
}

func (m *MemoryStore) Save(_ context.Context, snap *game.Snapshot) error {
	if err := checkID(snap.GameID); err != nil {
		return err
	}
	data, err := snap.Bytes()
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[snap.GameID] = data
	return nil
}

func (m *MemoryStore) Load(_ context.Context, gameID string) (*game.Snapshot, error) {
	m.mu.RLock()
	data, ok := m.snaps[gameID]
	m.mu.RUnlock()
	if !ok {
		return nil, notFound(gameID)
	}
	return game.ParseSnapshot(data)
}

func (m *MemoryStore) Delete(_ context.Context, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.snaps[gameID]; !ok {
		return notFound(gameID)
	}
	delete(m.snaps, gameID)
	return nil
}

func (m *MemoryStore) List(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.snaps))
	for id := range m.snaps {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemoryStore) Close() {}
