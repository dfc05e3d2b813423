// internal/stacks/apply.go
//
// Committing moves and rebuilding state from history.
//
// Tile claiming contract: for each letter a move spends, the lowest unused
// bag index holding that letter is claimed first. Apply (incremental) and
// ReplayUsedIndices (from scratch) both go through claim, so over the same
// bag order they always agree.

package stacks

import "time"

// Apply commits a validated move and returns the new state; st is left
// untouched. It never fails: legality is Validate's job.
func Apply(st *State, mv Move, now time.Time) *State {
	next := st.clone()
	for l, n := range mv.Need {
		next.BagCounts[l] -= n
	}
	claim(next.Puzzle.Bag, next.Used, mv.Need)

	if next.StartedAt.IsZero() {
		next.StartedAt = now
	}
	next.History = append(next.History, HistoryItem{
		Word:      mv.Word,
		Spent:     mv.Need.Clone(),
		Overlap:   mv.Overlap,
		Timestamp: now,
	})
	next.CurrentStack = mv.Word

	if next.BagCounts.Total() == 0 {
		next.Status = StatusCleared
		next.EndedAt = now
	} else {
		next.Status = StatusPlaying
	}
	return next
}

// ReplayUsedIndices reconstructs the spent tile positions for history over
// bag, using the same lowest-unused-index rule as Apply.
func ReplayUsedIndices(bag string, history []HistoryItem) IndexSet {
	used := IndexSet{}
	for _, h := range history {
		claim(bag, used, h.Spent)
	}
	return used
}

// ReplayCounts is the bag's letter counts minus everything history spent.
func ReplayCounts(bag string, history []HistoryItem) Counts {
	c := LetterCounts(bag)
	for _, h := range history {
		for l, n := range h.Spent {
			c[l] -= n
		}
	}
	return c
}

// Rewind returns st with history truncated to keep items and every derived
// field recomputed from what remains. Status is always playing afterwards.
// Used indices come from ReplayUsedIndices, so after a ShuffleBag the kept
// moves own the earliest tiles of each letter, not necessarily the tiles
// they held before; counts per letter are unaffected.
func Rewind(st *State, keep int) *State {
	keep = max(0, min(keep, len(st.History)))
	next := st.clone()
	next.History = next.History[:keep]
	next.BagCounts = ReplayCounts(next.Puzzle.Bag, next.History)
	next.Used = ReplayUsedIndices(next.Puzzle.Bag, next.History)
	next.CurrentStack = next.Puzzle.WordOfDay
	if keep > 0 {
		next.CurrentStack = next.History[keep-1].Word
	}
	next.Status = StatusPlaying
	next.EndedAt = time.Time{}
	return next
}

// claim marks, per letter in sorted order, the first need[l] unused indices
// of bag holding l.
func claim(bag string, used IndexSet, need Counts) {
	for _, l := range need.Letters() {
		remain := need[l]
		for i := 0; i < len(bag) && remain > 0; i++ {
			if bag[i:i+1] == l && !used.Has(i) {
				used.Add(i)
				remain--
			}
		}
	}
}

// firstFree returns the lowest index of bag holding letter that is in
// neither used nor reserved, or -1.
func firstFree(bag, letter string, used, reserved IndexSet) int {
	for i := 0; i < len(bag); i++ {
		if bag[i:i+1] == letter && !used.Has(i) && !reserved.Has(i) {
			return i
		}
	}
	return -1
}
