package httpserver

import (
	"sync"
	"time"

	"github.com/robalobadob/stacks/internal/stacks"
)

const (
	// liveIdleTTL is how long an untouched session stays in memory. An
	// evicted game is rebuilt from its saved snapshot on the next request.
	liveIdleTTL = 30 * time.Minute
	sweepEvery  = time.Minute
)

type liveKey struct{ player, date string }

type liveEntry struct {
	sess     *stacks.Session
	lastUsed time.Time
}

// liveSessions holds in-progress games in memory, keyed by player|date.
type liveSessions struct {
	mu        sync.Mutex
	m         map[liveKey]*liveEntry
	lastSweep time.Time
}

func newLiveSessions() *liveSessions {
	return &liveSessions{m: make(map[liveKey]*liveEntry)}
}

func (l *liveSessions) get(k liveKey, now time.Time) (*stacks.Session, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.m[k]
	if !ok {
		return nil, false
	}
	e.lastUsed = now
	return e.sess, true
}

// put stores sess unless another request got there first; the winner is
// returned.
func (l *liveSessions) put(k liveKey, sess *stacks.Session, now time.Time) *stacks.Session {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cur, ok := l.m[k]; ok {
		cur.lastUsed = now
		return cur.sess
	}
	l.m[k] = &liveEntry{sess: sess, lastUsed: now}
	return sess
}

// sweep drops today's sessions once idle longer than liveIdleTTL, and
// sessions for any other date once idle longer than sweepEvery. It does
// nothing if it last ran under sweepEvery ago, and returns the dropped keys.
func (l *liveSessions) sweep(today string, now time.Time) []liveKey {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.lastSweep.IsZero() && now.Sub(l.lastSweep) < sweepEvery {
		return nil
	}
	l.lastSweep = now
	var dropped []liveKey
	for k, e := range l.m {
		ttl := liveIdleTTL
		if k.date != today {
			ttl = sweepEvery
		}
		if now.Sub(e.lastUsed) > ttl {
			delete(l.m, k)
			dropped = append(dropped, k)
		}
	}
	return dropped
}

func (l *liveSessions) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}

func (l *liveSessions) dropPlayer(player string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for k := range l.m {
		if k.player == player {
			delete(l.m, k)
		}
	}
}
