package store

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/stacks/internal/stacks"
)

const saveTimeout = 5 * time.Second

type pending struct {
	snap  stacks.Snapshot
	timer *time.Timer
}

// Debouncer coalesces rapid snapshot saves per player: only the newest
// snapshot is written once the player has been idle for delay. Save errors
// are logged and dropped.
type Debouncer struct {
	store SnapshotStore
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*pending
	closed  bool
}

func NewDebouncer(s SnapshotStore, delay time.Duration) *Debouncer {
	return &Debouncer{store: s, delay: delay, pending: make(map[string]*pending)}
}

// Schedule queues snap for playerID, replacing any unsaved snapshot.
// After Close it saves immediately.
func (d *Debouncer) Schedule(playerID string, snap stacks.Snapshot) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.write(playerID, snap)
		return
	}
	if p, ok := d.pending[playerID]; ok {
		p.snap = snap
		p.timer.Reset(d.delay)
		d.mu.Unlock()
		return
	}
	d.pending[playerID] = &pending{
		snap:  snap,
		timer: time.AfterFunc(d.delay, func() { d.fire(playerID) }),
	}
	d.mu.Unlock()
}

func (d *Debouncer) fire(playerID string) {
	d.mu.Lock()
	p, ok := d.pending[playerID]
	if ok {
		delete(d.pending, playerID)
	}
	d.mu.Unlock()
	if ok {
		d.write(playerID, p.snap)
	}
}

// Flush writes every pending snapshot now.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	batch := d.pending
	d.pending = make(map[string]*pending)
	for _, p := range batch {
		p.timer.Stop()
	}
	d.mu.Unlock()
	for id, p := range batch {
		d.write(id, p.snap)
	}
}

// FlushPlayer writes playerID's pending snapshot now, if there is one.
func (d *Debouncer) FlushPlayer(playerID string) {
	d.mu.Lock()
	p, ok := d.pending[playerID]
	if ok {
		p.timer.Stop()
		delete(d.pending, playerID)
	}
	d.mu.Unlock()
	if ok {
		d.write(playerID, p.snap)
	}
}

// Close flushes pending saves; later Schedule calls write through.
func (d *Debouncer) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.Flush()
}

func (d *Debouncer) write(playerID string, snap stacks.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := d.store.Save(ctx, playerID, snap); err != nil {
		log.Warn().Err(err).Str("player", playerID).Str("date", snap.DateKey).Msg("snapshot save failed")
	}
}
