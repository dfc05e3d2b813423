package stacks

import "time"

// Timer accumulates active play time across pauses.
type Timer struct {
	Running   bool      `json:"running"`
	StartedAt time.Time `json:"startedAt"`
	PausedAt  time.Time `json:"pausedAt"`
	AccumSec  float64   `json:"accumSec"`
}

// Start begins a running segment. No-op if already running.
func (t *Timer) Start(now time.Time) {
	if t.Running {
		return
	}
	t.Running = true
	t.StartedAt = now
	t.PausedAt = time.Time{}
}

// Pause folds the running segment into AccumSec. No-op if stopped.
func (t *Timer) Pause(now time.Time) {
	if !t.Running {
		return
	}
	t.AccumSec += segment(t.StartedAt, now)
	t.Running = false
	t.PausedAt = now
}

// Elapsed returns total active seconds as of now.
func (t Timer) Elapsed(now time.Time) float64 {
	if t.Running {
		return t.AccumSec + segment(t.StartedAt, now)
	}
	return t.AccumSec
}

// Started reports whether the timer has ever run.
func (t Timer) Started() bool { return t.Running || t.AccumSec > 0 || !t.PausedAt.IsZero() }

func segment(from, to time.Time) float64 {
	if d := to.Sub(from).Seconds(); d > 0 {
		return d
	}
	return 0
}
