// internal/store/memory.go
//
// Snapshot persistence for in-progress sessions.
// Responsibilities:
//   - SnapshotStore: the interface the HTTP layer saves and rehydrates through.
//   - memory: an RWMutex map implementation for tests and ephemeral servers.
//
// Snapshots are kept per player, not per date; a stale day's snapshot is
// rejected by stacks.Restore and overwritten on the next save.

package store

import (
	"context"
	"sync"

	"github.com/robalobadob/stacks/internal/stacks"
)

// SnapshotStore persists the latest snapshot per player.
type SnapshotStore interface {
	// Save persists or replaces the player's snapshot.
	Save(ctx context.Context, playerID string, snap stacks.Snapshot) error

	// Load returns the player's snapshot; ok is false when none is stored.
	Load(ctx context.Context, playerID string) (snap stacks.Snapshot, ok bool, err error)

	// Delete drops the player's snapshot. Missing entries are not an error.
	Delete(ctx context.Context, playerID string) error
}

// ClaimingStore can hand an anonymous player's snapshot to a signed-in user.
type ClaimingStore interface {
	SnapshotStore
	Claim(ctx context.Context, anonID, userID string) error
}

// Memory is a map-based SnapshotStore. State is lost on restart.
type Memory struct {
	mu    sync.RWMutex
	snaps map[string]stacks.Snapshot
}

func NewMemory() *Memory {
	return &Memory{snaps: make(map[string]stacks.Snapshot)}
}

func (m *Memory) Save(ctx context.Context, playerID string, snap stacks.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[playerID] = snap
	return nil
}

func (m *Memory) Load(ctx context.Context, playerID string) (stacks.Snapshot, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snaps[playerID]
	return snap, ok, nil
}

func (m *Memory) Delete(ctx context.Context, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snaps, playerID)
	return nil
}

// Claim moves anonID's snapshot to userID unless userID already has one.
func (m *Memory) Claim(ctx context.Context, anonID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.snaps[anonID]
	if !ok {
		return nil
	}
	delete(m.snaps, anonID)
	if _, taken := m.snaps[userID]; !taken {
		m.snaps[userID] = snap
	}
	return nil
}
