package stacks

import "fmt"

// Code names a rule violation. Codes are stable and safe to show to clients.
type Code string

const (
	CodeNotFiveLetters  Code = "not-5-letters"
	CodeNotInDictionary Code = "not-in-dictionary"
	CodeBannedWord      Code = "banned-word"
	CodeBadOverlap      Code = "bad-overlap"
	CodeInsufficientBag Code = "insufficient-bag"
	CodeNoSource        Code = "no-source-for-letter"
	CodeRowIncomplete   Code = "row-incomplete-or-invalid"
)

// RuleError is an expected, recoverable rule violation. Two RuleErrors
// match under errors.Is when their codes are equal.
type RuleError struct {
	Code    Code
	Message string
}

func (e *RuleError) Error() string { return e.Message }

// Is matches on Code so callers can test against the Err* sentinels.
func (e *RuleError) Is(target error) bool {
	t, ok := target.(*RuleError)
	return ok && t.Code == e.Code
}

var (
	ErrNotFiveLetters  = &RuleError{Code: CodeNotFiveLetters, Message: "Word must be 5 letters (A–Z)"}
	ErrNotInDictionary = &RuleError{Code: CodeNotInDictionary, Message: "Not in dictionary"}
	ErrBannedWord      = &RuleError{Code: CodeBannedWord, Message: "That word isn't allowed"}
	ErrBadOverlap      = &RuleError{Code: CodeBadOverlap, Message: "Word must share 1–4 letters in the same positions"}
	ErrInsufficientBag = &RuleError{Code: CodeInsufficientBag, Message: "Not enough tiles in the bag"}
	ErrNoSource        = &RuleError{Code: CodeNoSource, Message: "No tile available for that letter"}
	ErrRowIncomplete   = &RuleError{Code: CodeRowIncomplete, Message: "Fill all 5 slots with available letters"}
)

func ruleErrorf(code Code, format string, args ...any) *RuleError {
	return &RuleError{Code: code, Message: fmt.Sprintf(format, args...)}
}
