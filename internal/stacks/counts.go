package stacks

import "sort"

// Counts maps an uppercase letter to a tally.
type Counts map[string]int

// LetterCounts uppercases word and counts each letter.
func LetterCounts(word string) Counts {
	c := Counts{}
	w := upperASCII(word)
	for i := 0; i < len(w); i++ {
		c[w[i:i+1]]++
	}
	return c
}

// Total sums every tally.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Clone returns an independent copy.
func (c Counts) Clone() Counts {
	out := make(Counts, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Letters returns the keys in alphabetical order.
func (c Counts) Letters() []string {
	out := make([]string, 0, len(c))
	for k := range c {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Overlap is the index-aligned agreement between two words.
type Overlap struct {
	Count     int
	PerLetter Counts
}

// PositionalOverlap counts positions where prev and next hold the same
// letter. A shared letter in a different position does not count.
func PositionalOverlap(prev, next string) Overlap {
	prev, next = upperASCII(prev), upperASCII(next)
	o := Overlap{PerLetter: Counts{}}
	n := min(len(prev), len(next))
	for i := 0; i < n; i++ {
		if prev[i] == next[i] {
			o.Count++
			o.PerLetter[prev[i:i+1]]++
		}
	}
	return o
}

// IsWord reports whether w is exactly WordLen letters A–Z.
func IsWord(w string) bool {
	if len(w) != WordLen {
		return false
	}
	for i := 0; i < len(w); i++ {
		if !isUpper(w[i]) {
			return false
		}
	}
	return true
}

func isUpper(b byte) bool { return b >= 'A' && b <= 'Z' }

// upperASCII uppercases a–z only. Every other byte is kept as is, so a
// non-ASCII rune can never turn into an A–Z letter and pass IsWord.
func upperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
