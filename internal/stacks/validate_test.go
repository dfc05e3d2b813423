package stacks

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// testDict is a fixed Dictionary for tests.
type testDict struct {
	allowed map[string]bool
	banned  map[string]bool
}

func newTestDict(allowed []string, banned ...string) testDict {
	d := testDict{allowed: map[string]bool{}, banned: map[string]bool{}}
	for _, w := range allowed {
		d.allowed[w] = true
	}
	for _, w := range banned {
		d.banned[w] = true
	}
	return d
}

func (d testDict) IsAllowed(w string) bool { return d.allowed[w] }
func (d testDict) IsBanned(w string) bool  { return d.banned[w] }

var dict = newTestDict(
	[]string{"QUEUE", "BREAD", "TREAD", "GREAT", "BRAND", "BROAD", "DREAD", "BREAK", "SHITE"},
	"SHITE", "PRICK",
)

func TestLetterCounts(t *testing.T) {
	t.Parallel()
	got := LetterCounts("queue")
	want := Counts{"Q": 1, "U": 2, "E": 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LetterCounts mismatch (-want +got):\n%s", diff)
	}
	if got.Total() != 5 {
		t.Errorf("Total() = %d, want 5", got.Total())
	}
}

func TestPositionalOverlap(t *testing.T) {
	t.Parallel()
	tests := []struct {
		prev, next string
		count      int
		per        Counts
	}{
		{"QUEUE", "BREAD", 1, Counts{"E": 1}},
		{"BREAD", "TREAD", 4, Counts{"R": 1, "E": 1, "A": 1, "D": 1}},
		{"QUEUE", "QUEUE", 5, Counts{"Q": 1, "U": 2, "E": 2}},
		// same letters, wrong positions
		{"BREAD", "DEBAR", 1, Counts{"A": 1}},
		{"ABCDE", "EDCBA", 1, Counts{"C": 1}},
		{"ABCDE", "VWXYZ", 0, Counts{}},
		{"bread", "BREAD", 5, Counts{"B": 1, "R": 1, "E": 1, "A": 1, "D": 1}},
	}
	for _, tc := range tests {
		got := PositionalOverlap(tc.prev, tc.next)
		if got.Count != tc.count {
			t.Errorf("PositionalOverlap(%q, %q).Count = %d, want %d", tc.prev, tc.next, got.Count, tc.count)
		}
		if diff := cmp.Diff(tc.per, got.PerLetter); diff != "" {
			t.Errorf("PositionalOverlap(%q, %q) per-letter (-want +got):\n%s", tc.prev, tc.next, diff)
		}
	}
}

func queueState(bag string) *State {
	return NewState(Puzzle{Date: "2025-01-01", WordOfDay: "QUEUE", Bag: bag})
}

func TestValidateSharesOneLetter(t *testing.T) {
	t.Parallel()
	st := queueState("BRADE")
	mv, err := Validate(st, dict, "BREAD")
	if err != nil {
		t.Fatalf("Validate(BREAD): %v", err)
	}
	want := Move{Word: "BREAD", Need: Counts{"B": 1, "R": 1, "A": 1, "D": 1}, Overlap: 1}
	if diff := cmp.Diff(want, mv); diff != "" {
		t.Errorf("move mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateFailures(t *testing.T) {
	t.Parallel()
	st := queueState("BRADE")
	tests := []struct {
		name string
		word string
		want error
	}{
		{"too short", "BRE", ErrNotFiveLetters},
		{"too long", "BREADS", ErrNotFiveLetters},
		{"non letter", "BR3AD", ErrNotFiveLetters},
		{"space", "BREA ", ErrNotFiveLetters},
		{"long s folds to S", "ſhite", ErrNotFiveLetters},
		{"dotless i folds to I", "brıck", ErrNotFiveLetters},
		{"banned before dictionary", "PRICK", ErrBannedWord},
		{"banned and allowed", "SHITE", ErrBannedWord},
		{"unknown word", "XYZZY", ErrNotInDictionary},
		{"identical to stack", "QUEUE", ErrBadOverlap},
		{"no positional match", "BRAND", ErrBadOverlap},
		{"letter missing from bag", "GREAT", ErrInsufficientBag},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Validate(st, dict, tc.word)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Validate(%q) = %v, want %v", tc.word, err, tc.want)
			}
			var re *RuleError
			if !errors.As(err, &re) || re.Message == "" {
				t.Errorf("Validate(%q) error %v is not a RuleError with a message", tc.word, err)
			}
		})
	}
}

func TestValidateInsufficientNamesLetter(t *testing.T) {
	t.Parallel()
	st := queueState("BRADE")
	_, err := Validate(st, dict, "GREAT")
	if got, want := err.Error(), "Need 1×G but bag has 0×"; got != want {
		t.Errorf("message = %q, want %q", got, want)
	}
}

func TestValidateIsPure(t *testing.T) {
	t.Parallel()
	st := queueState("BRADE")
	before := st.clone()
	_, err1 := Validate(st, dict, "GREAT")
	_, err2 := Validate(st, dict, "GREAT")
	if err1.Error() != err2.Error() {
		t.Errorf("repeated Validate differs: %v vs %v", err1, err2)
	}
	mv1, _ := Validate(st, dict, "BREAD")
	mv2, _ := Validate(st, dict, "BREAD")
	if diff := cmp.Diff(mv1, mv2); diff != "" {
		t.Errorf("repeated Validate differs:\n%s", diff)
	}
	if diff := cmp.Diff(before, st); diff != "" {
		t.Errorf("Validate mutated state:\n%s", diff)
	}
}

func TestValidateLowercaseInput(t *testing.T) {
	t.Parallel()
	mv, err := Validate(queueState("BRADE"), dict, "bread")
	if err != nil {
		t.Fatalf("Validate(bread): %v", err)
	}
	if mv.Word != "BREAD" {
		t.Errorf("Word = %q, want BREAD", mv.Word)
	}
}

func TestNetNeedDuplicateLetters(t *testing.T) {
	t.Parallel()
	// DREAD vs BREAD: R,E,A,D match; the leading D still needs a tile.
	ov := PositionalOverlap("BREAD", "DREAD")
	got := NetNeed("DREAD", ov)
	if diff := cmp.Diff(Counts{"D": 1}, got); diff != "" {
		t.Errorf("NetNeed mismatch (-want +got):\n%s", diff)
	}
}
