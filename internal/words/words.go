// internal/words/words.go
//
// Dictionary gateway for the move validator.
//
// Responsibilities:
//   - Hold the allowed and banned word sets behind IsAllowed / IsBanned.
//   - Start from the small embedded lists so validation works before any
//     file has loaded.
//   - Swap in lists read from disk without blocking readers.
//
// Word lists:
//   - "allowed": every word a player may submit.
//   - "banned":  words rejected even when the allowed list has them.
//
// Constraints:
//   • Words must be 5 letters A–Z.
//   • Lists are normalized to uppercase; '#' lines are comments.
//   • A loaded allowed list of 100 words or fewer is merged into the
//     embedded one instead of replacing it.

package words

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/robalobadob/stacks/assets"
)

// minStandalone is the size an allowed list needs to replace the embedded one.
const minStandalone = 100

type wordSet map[string]struct{}

// sets is one installed generation of lists.
type sets struct {
	allowed wordSet
	banned  wordSet
}

// Lists is a concurrency-safe dictionary.
type Lists struct {
	cur      atomic.Pointer[sets]
	embedded sets
}

// New returns Lists seeded with the embedded fallback.
func New() (*Lists, error) {
	allowed, err := assets.AllowedList()
	if err != nil {
		return nil, fmt.Errorf("words: embedded allowed list: %w", err)
	}
	banned, err := assets.BannedList()
	if err != nil {
		return nil, fmt.Errorf("words: embedded banned list: %w", err)
	}
	l := &Lists{embedded: sets{allowed: toSet(allowed), banned: toSet(banned)}}
	l.cur.Store(&l.embedded)
	return l, nil
}

// NewFromWords builds Lists from explicit slices, with no embedded fallback.
func NewFromWords(allowed, banned []string) *Lists {
	l := &Lists{embedded: sets{allowed: toSet(normalize(allowed)), banned: toSet(normalize(banned))}}
	l.cur.Store(&l.embedded)
	return l
}

// IsAllowed reports whether w is in the allowed set.
func (l *Lists) IsAllowed(w string) bool {
	_, ok := l.cur.Load().allowed[strings.ToUpper(w)]
	return ok
}

// IsBanned reports whether w is in the banned set.
func (l *Lists) IsBanned(w string) bool {
	_, ok := l.cur.Load().banned[strings.ToUpper(w)]
	return ok
}

// Stats returns counts of installed words: (allowed, banned).
func (l *Lists) Stats() (allowedCount int, bannedCount int) {
	s := l.cur.Load()
	return len(s.allowed), len(s.banned)
}

// Install replaces the installed lists. A nil slice keeps the embedded
// list for that kind; a short allowed list is merged with the embedded one.
func (l *Lists) Install(allowed, banned []string) {
	next := &sets{allowed: l.embedded.allowed, banned: l.embedded.banned}
	if allowed != nil {
		a := toSet(normalize(allowed))
		if len(a) <= minStandalone {
			for w := range l.embedded.allowed {
				a[w] = struct{}{}
			}
		}
		next.allowed = a
	}
	if banned != nil {
		next.banned = toSet(normalize(banned))
	}
	l.cur.Store(next)
}

// Load reads the given files (either may be empty to keep the embedded
// list) and installs them. On error nothing changes.
func (l *Lists) Load(allowedPath, bannedPath string) error {
	var allowed, banned []string
	var err error
	if allowedPath != "" {
		if allowed, err = ReadWordFile(allowedPath); err != nil {
			return err
		}
	}
	if bannedPath != "" {
		if banned, err = ReadWordFile(bannedPath); err != nil {
			return err
		}
	}
	l.Install(allowed, banned)
	return nil
}

// ReadWordFile loads one word per line, keeping valid 5-letter words.
func ReadWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("words: open %s: %w", path, err)
	}
	defer f.Close()
	out, err := readWords(f)
	if err != nil {
		return nil, fmt.Errorf("words: read %s: %w", path, err)
	}
	return out, nil
}

func readWords(r io.Reader) ([]string, error) {
	out := []string{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if w := strings.ToUpper(line); isWord(w) {
			out = append(out, w)
		}
	}
	return out, sc.Err()
}

// normalize uppercases and drops anything that isn't a 5-letter word.
func normalize(list []string) []string {
	out := make([]string, 0, len(list))
	for _, w := range list {
		if w = strings.ToUpper(strings.TrimSpace(w)); isWord(w) {
			out = append(out, w)
		}
	}
	return out
}

// toSet converts a list of strings into a lookup set.
func toSet(list []string) wordSet {
	m := make(wordSet, len(list))
	for _, w := range list {
		m[w] = struct{}{}
	}
	return m
}

// isWord reports whether s is 5 uppercase ASCII letters.
func isWord(s string) bool {
	if len(s) != 5 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
