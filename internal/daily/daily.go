// internal/daily/daily.go
//
// Puzzle selection by calendar date.
// Responsibilities:
//   - DateKey: the YYYY-MM-DD key every other layer uses.
//   - Catalog: the TOML list of hand-picked puzzles.
//   - Resolve: the exact catalog entry for a date, or a deterministic
//     HMAC(salt, date) pick re-dated to the requested day.

package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/robalobadob/stacks/assets"
	"github.com/robalobadob/stacks/internal/stacks"
)

// ErrEmptyCatalog is returned when no puzzles are available.
var ErrEmptyCatalog = errors.New("daily: puzzle catalog is empty")

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// ParseDateKey validates a YYYY-MM-DD key.
func ParseDateKey(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("daily: bad date key %q: %w", s, err)
	}
	return t, nil
}

// WordIndex returns a deterministic index for a date using HMAC(salt, YYYY-MM-DD) % n.
func WordIndex(date time.Time, salt string, n int) int {
	if n <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	// take first 8 bytes to uint64 for modulus distribution
	v := binary.BigEndian.Uint64(sum[:8])
	return int(v % uint64(n))
}

// entry mirrors one [[puzzle]] table.
type entry struct {
	Date string `toml:"date"`
	Word string `toml:"word"`
	Bag  string `toml:"bag"`
}

type catalogFile struct {
	Puzzles []entry `toml:"puzzle"`
}

// Catalog is an immutable, date-sorted puzzle list.
type Catalog struct {
	salt   string
	list   []stacks.Puzzle
	byDate map[string]stacks.Puzzle
}

// LoadCatalog reads the embedded catalog.
func LoadCatalog(salt string) (*Catalog, error) {
	raw, err := assets.Puzzles()
	if err != nil {
		return nil, fmt.Errorf("daily: read catalog: %w", err)
	}
	return ParseCatalog(raw, salt)
}

// ParseCatalog decodes TOML and validates every puzzle.
func ParseCatalog(raw []byte, salt string) (*Catalog, error) {
	var f catalogFile
	if err := toml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("daily: parse catalog: %w", err)
	}
	c := &Catalog{salt: salt, byDate: make(map[string]stacks.Puzzle, len(f.Puzzles))}
	for i, e := range f.Puzzles {
		p := stacks.Puzzle{
			Date:      strings.TrimSpace(e.Date),
			WordOfDay: strings.ToUpper(strings.TrimSpace(e.Word)),
			Bag:       strings.ToUpper(strings.TrimSpace(e.Bag)),
		}
		if err := Check(p); err != nil {
			return nil, fmt.Errorf("daily: puzzle %d: %w", i, err)
		}
		if _, dup := c.byDate[p.Date]; dup {
			return nil, fmt.Errorf("daily: puzzle %d: duplicate date %s", i, p.Date)
		}
		c.byDate[p.Date] = p
		c.list = append(c.list, p)
	}
	if len(c.list) == 0 {
		return nil, ErrEmptyCatalog
	}
	sort.Slice(c.list, func(i, j int) bool { return c.list[i].Date < c.list[j].Date })
	return c, nil
}

// Check validates a puzzle's shape.
func Check(p stacks.Puzzle) error {
	if _, err := ParseDateKey(p.Date); err != nil {
		return err
	}
	if !stacks.IsWord(p.WordOfDay) {
		return fmt.Errorf("word of day %q is not 5 letters A–Z", p.WordOfDay)
	}
	if len(p.Bag) != stacks.BagSize {
		return fmt.Errorf("bag %q has %d tiles, want %d", p.Bag, len(p.Bag), stacks.BagSize)
	}
	for i := 0; i < len(p.Bag); i++ {
		if p.Bag[i] < 'A' || p.Bag[i] > 'Z' {
			return fmt.Errorf("bag %q has non-letter tile %q", p.Bag, p.Bag[i])
		}
	}
	return nil
}

// Len returns the number of catalog puzzles.
func (c *Catalog) Len() int { return len(c.list) }

// Resolve returns the puzzle for dateKey.
func (c *Catalog) Resolve(dateKey string) (stacks.Puzzle, error) {
	t, err := ParseDateKey(dateKey)
	if err != nil {
		return stacks.Puzzle{}, err
	}
	if p, ok := c.byDate[dateKey]; ok {
		return p, nil
	}
	p := c.list[WordIndex(t, c.salt, len(c.list))]
	p.Date = dateKey
	return p, nil
}

// Today resolves the puzzle for now.
func (c *Catalog) Today(now time.Time) (stacks.Puzzle, error) {
	return c.Resolve(DateKey(now))
}
