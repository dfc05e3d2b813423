package stacks

import (
	"sort"
	"time"
)

// SnapshotVersion is the schema version written by Snapshot.
const SnapshotVersion = 1

// PuzzleEcho identifies the puzzle a snapshot was taken against.
type PuzzleEcho struct {
	WordOfDay string `json:"wordOfDay"`
	BagList   string `json:"bagList"`
}

// Snapshot is the resumable form of a Session. History is authoritative;
// UsedIndices, BagCounts and the row fields are conveniences.
type Snapshot struct {
	Version         int           `json:"version"`
	DateKey         string        `json:"dateKey"`
	Puzzle          PuzzleEcho    `json:"puzzle"`
	History         []HistoryItem `json:"history"`
	UsedIndices     []int         `json:"usedIndices"`
	BagCounts       Counts        `json:"bagCounts"`
	CurrentStack    string        `json:"currentStack"`
	Candidate       string        `json:"candidate"`
	SlotMeta        []SlotMeta    `json:"slotMeta"`
	PreviewReserved []int         `json:"previewReserved"`
	UndoCount       int           `json:"undoCount"`
	Timer           Timer         `json:"timer"`
	SavedAt         time.Time     `json:"savedAt"`
}

// Snapshot captures the session for later Restore.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	st := s.state
	return Snapshot{
		Version:         SnapshotVersion,
		DateKey:         st.Puzzle.Date,
		Puzzle:          PuzzleEcho{WordOfDay: st.Puzzle.WordOfDay, BagList: st.Puzzle.Bag},
		History:         append([]HistoryItem{}, st.History...),
		UsedIndices:     st.Used.Sorted(),
		BagCounts:       st.BagCounts.Clone(),
		CurrentStack:    st.CurrentStack,
		Candidate:       s.candidateLocked(),
		SlotMeta:        s.metasLocked(),
		PreviewReserved: s.reserved.Sorted(),
		UndoCount:       s.undos,
		Timer:           s.timer,
		SavedAt:         s.now(),
	}
}

// Restore rebuilds a session for p from snap. It reports false, returning a
// fresh session instead, when the snapshot belongs to another day or
// puzzle, has an unknown version, or its history does not fit the bag.
func Restore(p Puzzle, snap Snapshot, dict Dictionary, opts ...Option) (*Session, bool) {
	s := NewSession(p, dict, opts...)
	if !s.restore(p, snap) {
		return NewSession(p, dict, opts...), false
	}
	return s, true
}

func (s *Session) restore(p Puzzle, snap Snapshot) bool {
	if snap.Version != SnapshotVersion || snap.DateKey != p.Date {
		return false
	}
	if snap.Puzzle.WordOfDay != p.WordOfDay || !sameTiles(snap.Puzzle.BagList, p.Bag) {
		return false
	}

	// The stored bag may be a shuffle of the day's bag; keep its order.
	pz := p
	pz.Bag = snap.Puzzle.BagList

	prev := p.WordOfDay
	for _, h := range snap.History {
		if !IsWord(h.Word) {
			return false
		}
		ov := PositionalOverlap(prev, h.Word)
		if ov.Count < 1 || ov.Count > WordLen-1 || h.Overlap != ov.Count {
			return false
		}
		// Counts are replayed from Spent, so it must be exactly what the
		// word draws from the bag.
		if !sameCounts(h.Spent, NetNeed(h.Word, ov)) {
			return false
		}
		prev = h.Word
	}
	counts := ReplayCounts(pz.Bag, snap.History)
	for _, n := range counts {
		if n < 0 {
			return false
		}
	}

	st := NewState(pz)
	st.History = append(st.History, snap.History...)
	st.BagCounts = counts
	st.Used = ReplayUsedIndices(pz.Bag, snap.History)
	if stored := IndexSetOf(snap.UsedIndices); equivalentTiles(pz.Bag, stored, st.Used) {
		// After a shuffle the stored positions differ from a replay but
		// spend the same letters; keep them so tiles don't jump.
		st.Used = stored
	}
	st.CurrentStack = prev
	if n := len(st.History); n > 0 {
		st.StartedAt = st.History[0].Timestamp
		if counts.Total() == 0 {
			st.Status = StatusCleared
			st.EndedAt = st.History[n-1].Timestamp
		}
	}

	s.state = st
	s.moves = RowsFromHistory(p.WordOfDay, st.History)
	s.undos = snap.UndoCount
	s.recorded = st.Status == StatusCleared
	s.timer = snap.Timer
	if s.timer.Running {
		s.timer.Pause(snap.SavedAt)
	}
	if st.Status == StatusPlaying {
		for _, r := range snap.Candidate {
			if len(s.row) == WordLen {
				break
			}
			_, _ = s.typeLocked(r)
		}
	}
	return true
}

// sameCounts compares tallies, treating a missing letter as zero.
func sameCounts(a, b Counts) bool {
	for l, n := range a {
		if b[l] != n {
			return false
		}
	}
	for l, n := range b {
		if a[l] != n {
			return false
		}
	}
	return true
}

// sameTiles reports whether a and b hold the same letters in any order.
func sameTiles(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return sortedLetters(a) == sortedLetters(b)
}

func sortedLetters(s string) string {
	b := []byte(upperASCII(s))
	sort.Slice(b, func(i, j int) bool { return b[i] < b[j] })
	return string(b)
}

// equivalentTiles reports whether got is a valid index set over bag that
// spends exactly the same letters as want.
func equivalentTiles(bag string, got, want IndexSet) bool {
	if len(got) != len(want) {
		return false
	}
	tally := Counts{}
	for i := range got {
		if i < 0 || i >= len(bag) {
			return false
		}
		tally[bag[i:i+1]]++
	}
	for i := range want {
		tally[bag[i:i+1]]--
	}
	for _, n := range tally {
		if n != 0 {
			return false
		}
	}
	return true
}

// View is everything a client needs to render the session.
type View struct {
	Snapshot
	Status     Status      `json:"status"`
	Remaining  int         `json:"remaining"`
	ElapsedSec float64     `json:"elapsedSec"`
	Rows       []RowRecord `json:"rows"`
}

// View returns the render model for the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		Snapshot:   s.snapshotLocked(),
		Status:     s.state.Status,
		Remaining:  s.state.Remaining(),
		ElapsedSec: s.timer.Elapsed(s.now()),
		Rows:       append([]RowRecord{}, s.moves...),
	}
}
