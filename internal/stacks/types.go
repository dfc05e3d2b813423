// internal/stacks/types.go
//
// Core type definitions for the Stacks move engine.
// Defines:
//   - Puzzle: the day's starting word and bag layout.
//   - HistoryItem: one committed move (net bag spend, never raw indices).
//   - State: the authoritative history plus its derived caches.
//   - SlotMeta: per-position letter source for the row being typed.

package stacks

import (
	"sort"
	"time"
)

const (
	// WordLen is the fixed length of every word in play.
	WordLen = 5
	// BagSize is the number of tiles in every puzzle's bag.
	BagSize = 15
)

// Status is the coarse game state.
type Status string

const (
	StatusPlaying Status = "playing"
	StatusCleared Status = "cleared"
)

// Puzzle is the immutable per-day input. Bag order may change via shuffle,
// its content never does.
type Puzzle struct {
	Date      string `json:"date"`
	WordOfDay string `json:"wordOfDay"`
	Bag       string `json:"bagList"`
}

// HistoryItem records one committed move.
type HistoryItem struct {
	Word      string    `json:"word"`
	Spent     Counts    `json:"spent"`
	Overlap   int       `json:"overlap"`
	Timestamp time.Time `json:"ts"`
}

// IndexSet is a set of bag positions.
type IndexSet map[int]struct{}

// Has reports whether i is in the set.
func (s IndexSet) Has(i int) bool {
	_, ok := s[i]
	return ok
}

// Add inserts i.
func (s IndexSet) Add(i int) { s[i] = struct{}{} }

// Clone returns an independent copy.
func (s IndexSet) Clone() IndexSet {
	out := make(IndexSet, len(s))
	for i := range s {
		out[i] = struct{}{}
	}
	return out
}

// Sorted returns the members in ascending order.
func (s IndexSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for i := range s {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// IndexSetOf builds a set from a slice.
func IndexSetOf(idx []int) IndexSet {
	out := make(IndexSet, len(idx))
	for _, i := range idx {
		out[i] = struct{}{}
	}
	return out
}

// State is the committed game state. History is the source of truth;
// BagCounts and Used are projections kept in step with it.
type State struct {
	Puzzle       Puzzle
	CurrentStack string
	BagCounts    Counts
	Used         IndexSet
	History      []HistoryItem
	Status       Status
	StartedAt    time.Time
	EndedAt      time.Time
}

// NewState returns the start-of-day state for p.
func NewState(p Puzzle) *State {
	return &State{
		Puzzle:       p,
		CurrentStack: p.WordOfDay,
		BagCounts:    LetterCounts(p.Bag),
		Used:         IndexSet{},
		History:      []HistoryItem{},
		Status:       StatusPlaying,
	}
}

// clone copies st deeply enough that mutating the copy never touches st.
func (st *State) clone() *State {
	next := *st
	next.BagCounts = st.BagCounts.Clone()
	next.Used = st.Used.Clone()
	next.History = append(make([]HistoryItem, 0, len(st.History)+1), st.History...)
	return &next
}

// Remaining returns the number of unspent bag tiles.
func (st *State) Remaining() int { return st.BagCounts.Total() }

// Source identifies where a candidate letter comes from.
type Source string

const (
	SourceEmpty Source = ""
	SourceBag   Source = "bag"
	SourceStack Source = "stack"
	SourceError Source = "error"
)

// SlotMeta describes one candidate position. BagIndex is meaningful only
// for SourceBag, StackPos only for SourceStack.
type SlotMeta struct {
	Source   Source `json:"source"`
	BagIndex int    `json:"bagIndex"`
	StackPos int    `json:"stackPos"`
}
