package stacks

import (
	"math"
	"time"
)

// RowRecord is one committed word with the source of each letter, used for
// share text.
type RowRecord struct {
	Word    string   `json:"word"`
	Sources []Source `json:"sources"`
}

// Record is the completed-game summary written once per date key.
type Record struct {
	DateKey       string      `json:"dateKey"`
	FinishedAt    time.Time   `json:"finishedAt"`
	DurationSec   int         `json:"durationSec"`
	StacksCleared int         `json:"stacksCleared"`
	Undos         int         `json:"undos"`
	Rows          []RowRecord `json:"rows"`
}

// RecordSink receives the completion record. Implementations must keep the
// first record per date key and ignore later ones.
type RecordSink interface {
	SaveRecord(rec Record) error
}

// RecordSinkFunc adapts a function to RecordSink.
type RecordSinkFunc func(rec Record) error

func (f RecordSinkFunc) SaveRecord(rec Record) error { return f(rec) }

// RowsFromHistory derives letter sources for every move: a position that
// matches the previous word came from the stack, anything else from the bag.
func RowsFromHistory(wordOfDay string, history []HistoryItem) []RowRecord {
	rows := make([]RowRecord, 0, len(history))
	prev := wordOfDay
	for _, h := range history {
		rows = append(rows, rowRecord(prev, h.Word))
		prev = h.Word
	}
	return rows
}

func rowRecord(prev, word string) RowRecord {
	src := make([]Source, len(word))
	for i := range src {
		if i < len(prev) && prev[i] == word[i] {
			src[i] = SourceStack
		} else {
			src[i] = SourceBag
		}
	}
	return RowRecord{Word: word, Sources: src}
}

func wholeSeconds(sec float64) int { return int(math.Round(sec)) }
