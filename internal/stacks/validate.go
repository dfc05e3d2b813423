// internal/stacks/validate.go
//
// Move validation. Checks run in a fixed order and the first failure wins:
//   1. shape        (exactly 5 letters A–Z)
//   2. banned list  (before membership, so banned words never read as unknown)
//   3. dictionary membership
//   4. positional overlap with the current stack in [1,4]
//   5. bag sufficiency for the net need
//
// Validate is pure: it reads the state it is given and never mutates it.

package stacks

// Dictionary answers word-list questions. Implementations must be safe to
// call while their lists are being replaced.
type Dictionary interface {
	IsAllowed(word string) bool
	IsBanned(word string) bool
}

// Move is a validated candidate together with the exact bag draw it needs.
type Move struct {
	Word    string
	Need    Counts
	Overlap int
}

// Validate checks candidate against st and returns the move to apply, or a
// *RuleError naming the first rule it breaks.
func Validate(st *State, dict Dictionary, candidate string) (Move, error) {
	w := upperASCII(candidate)
	if !IsWord(w) {
		return Move{}, ErrNotFiveLetters
	}
	if dict.IsBanned(w) {
		return Move{}, ErrBannedWord
	}
	if !dict.IsAllowed(w) {
		return Move{}, ErrNotInDictionary
	}

	ov := PositionalOverlap(st.CurrentStack, w)
	if ov.Count < 1 || ov.Count > WordLen-1 {
		return Move{}, ErrBadOverlap
	}

	need := NetNeed(w, ov)
	// Implied by the overlap bound (every unmatched position adds one to its
	// letter's need) but kept as its own guard.
	if need.Total() == 0 {
		return Move{}, ruleErrorf(CodeBadOverlap, "Word must use at least one tile from the bag")
	}
	for _, l := range need.Letters() {
		if have := st.BagCounts[l]; have < need[l] {
			return Move{}, ruleErrorf(CodeInsufficientBag, "Need %d×%s but bag has %d×", need[l], l, have)
		}
	}
	return Move{Word: w, Need: need, Overlap: ov.Count}, nil
}

// NetNeed is the per-letter bag draw for word once positional matches are
// subtracted. Letters with no draw are omitted.
func NetNeed(word string, ov Overlap) Counts {
	need := LetterCounts(word)
	for l, n := range need {
		if left := n - ov.PerLetter[l]; left > 0 {
			need[l] = left
		} else {
			delete(need, l)
		}
	}
	return need
}
