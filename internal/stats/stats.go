// internal/stats/stats.go
//
// Aggregates over a player's completed games, plus the share text.
//
// Streaks run over consecutive date keys; the current streak is the run
// ending at the most recent record, whatever today is.

package stats

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/robalobadob/stacks/internal/stacks"
)

// Histogram bounds; values outside are clamped into the end buckets.
const (
	MinBucket = 3
	MaxBucket = 8
)

// Summary is the stats panel model.
type Summary struct {
	GamesPlayed   int         `json:"gamesPlayed"`
	AvgStacks     float64     `json:"avgStacks"`
	CurrentStreak int         `json:"currentStreak"`
	MaxStreak     int         `json:"maxStreak"`
	Histogram     map[int]int `json:"histogram"`
}

// Compute summarizes records. Records sharing a date count once toward
// streaks.
func Compute(records []stacks.Record) Summary {
	sum := Summary{GamesPlayed: len(records), Histogram: make(map[int]int, MaxBucket-MinBucket+1)}
	for b := MinBucket; b <= MaxBucket; b++ {
		sum.Histogram[b] = 0
	}
	if len(records) == 0 {
		return sum
	}

	total := 0
	dates := make(map[string]struct{}, len(records))
	for _, r := range records {
		total += r.StacksCleared
		sum.Histogram[min(max(r.StacksCleared, MinBucket), MaxBucket)]++
		dates[r.DateKey] = struct{}{}
	}
	sum.AvgStacks = math.Round(float64(total)/float64(len(records))*100) / 100

	ordered := make([]string, 0, len(dates))
	for d := range dates {
		ordered = append(ordered, d)
	}
	sort.Strings(ordered)

	cur := 0
	var prev time.Time
	for _, key := range ordered {
		day, err := time.Parse("2006-01-02", key)
		if err != nil {
			cur = 0
			continue
		}
		if !prev.IsZero() && day.Sub(prev) == 24*time.Hour {
			cur++
		} else {
			cur = 1
		}
		prev = day
		sum.MaxStreak = max(sum.MaxStreak, cur)
	}
	sum.CurrentStreak = cur
	return sum
}

// FormatClock renders whole seconds as m:ss.
func FormatClock(sec int) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%d:%02d", sec/60, sec%60)
}

const shareFooter = "Can you beat my score?"

// Share renders rec as spoiler-free text: one line per row, blue for
// letters kept from the stack and green for bag tiles.
func Share(rec stacks.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I finished %d Stacks in %s\n", rec.StacksCleared, FormatClock(rec.DurationSec))
	for _, row := range rec.Rows {
		for _, src := range row.Sources {
			if src == stacks.SourceStack {
				b.WriteString("🟦")
			} else {
				b.WriteString("🟩")
			}
		}
		b.WriteByte('\n')
	}
	b.WriteString(shareFooter)
	return b.String()
}
