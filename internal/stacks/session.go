// internal/stacks/session.go
//
// Session is the stateful controller a UI drives: typing a candidate row
// letter by letter, submitting it, undoing, and shuffling the bag.
//
// Notes:
//   - The committed State is replaced wholesale after every move, never
//     edited in place, so a reader never sees half an update.
//   - One Session per player per day; a single mutex guards it.
//   - Rule violations come back as *RuleError and leave state untouched.

package stacks

import (
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// ErrCleared is returned for row and move operations once the bag is empty.
var ErrCleared = errors.New("stacks: puzzle already cleared")

type slot struct {
	letter string
	meta   SlotMeta
}

// Session owns one player's game for one puzzle.
type Session struct {
	mu sync.Mutex

	state    *State
	dict     Dictionary
	row      []slot
	reserved IndexSet
	moves    []RowRecord
	undos    int
	timer    Timer
	recorded bool

	now      func() time.Time
	intn     func(n int) int
	sink     RecordSink
	onChange func(Snapshot)
	onError  func(error)
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(s *Session) { s.now = now } }

// WithRand supplies the random source used by ShuffleBag.
func WithRand(r *rand.Rand) Option { return func(s *Session) { s.intn = r.IntN } }

// WithRecordSink sets where the completion record goes.
func WithRecordSink(sink RecordSink) Option { return func(s *Session) { s.sink = sink } }

// WithOnChange registers a hook called with a fresh snapshot after every
// state change. It runs under the session lock and must not call back in.
func WithOnChange(fn func(Snapshot)) Option { return func(s *Session) { s.onChange = fn } }

// WithErrorHook receives record sink failures, which never reach the player.
func WithErrorHook(fn func(error)) Option { return func(s *Session) { s.onError = fn } }

// NewSession starts a fresh game for p.
func NewSession(p Puzzle, dict Dictionary, opts ...Option) *Session {
	s := &Session{
		state:    NewState(p),
		dict:     dict,
		reserved: IndexSet{},
		now:      time.Now,
		intn:     rand.IntN,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// State returns a copy of the committed state.
func (s *Session) State() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Status reports playing or cleared.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Status
}

// Candidate returns the letters typed so far.
func (s *Session) Candidate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.candidateLocked()
}

// UndoCount returns how many undo operations changed the game.
func (s *Session) UndoCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.undos
}

// TypeLetter places letter in the first empty slot. A letter matching the
// current stack at that position costs nothing; otherwise the lowest free
// bag tile for it is reserved. With no source the letter still fills the
// slot, marked as an error, and ErrNoSource-coded error is returned.
// Typing into a full row does nothing.
func (s *Session) TypeLetter(letter rune) (SlotMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Status == StatusCleared {
		return SlotMeta{}, ErrCleared
	}
	meta, err := s.typeLocked(letter)
	if meta.Source != SourceEmpty {
		s.timer.Start(s.now())
		s.changedLocked()
	}
	return meta, err
}

func (s *Session) typeLocked(letter rune) (SlotMeta, error) {
	l := upperASCII(string(letter))
	if len(l) != 1 || !isUpper(l[0]) {
		return SlotMeta{}, ErrNotFiveLetters
	}
	pos := len(s.row)
	if pos >= WordLen {
		return SlotMeta{}, nil
	}

	var meta SlotMeta
	var err error
	switch {
	case pos < len(s.state.CurrentStack) && s.state.CurrentStack[pos:pos+1] == l:
		meta = SlotMeta{Source: SourceStack, StackPos: pos}
	default:
		if i := firstFree(s.state.Puzzle.Bag, l, s.state.Used, s.reserved); i >= 0 {
			s.reserved.Add(i)
			meta = SlotMeta{Source: SourceBag, BagIndex: i}
		} else {
			meta = SlotMeta{Source: SourceError}
			err = ruleErrorf(CodeNoSource, "No %s left in the bag", l)
		}
	}
	s.row = append(s.row, slot{letter: l, meta: meta})
	return meta, err
}

// PopLetter removes the last typed letter and releases its reservation.
func (s *Session) PopLetter() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.row) == 0 {
		return
	}
	last := s.row[len(s.row)-1]
	if last.meta.Source == SourceBag {
		delete(s.reserved, last.meta.BagIndex)
	}
	s.row = s.row[:len(s.row)-1]
	s.changedLocked()
}

// ClearRow empties the candidate and releases every reservation.
func (s *Session) ClearRow() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.row) == 0 {
		return
	}
	s.resetRowLocked()
	s.changedLocked()
}

// SetCandidate replaces the row by typing word one letter at a time. It
// returns the first typing error, if any; letters without a source remain in
// the row marked as errors. A word longer than WordLen leaves the row empty
// and returns ErrNotFiveLetters.
func (s *Session) SetCandidate(word string) ([]SlotMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Status == StatusCleared {
		return nil, ErrCleared
	}
	s.resetRowLocked()
	if utf8.RuneCountInString(word) > WordLen {
		s.changedLocked()
		return s.metasLocked(), ErrNotFiveLetters
	}
	var first error
	for _, r := range word {
		if _, err := s.typeLocked(r); err != nil && first == nil {
			first = err
			if errors.Is(err, ErrNotFiveLetters) {
				s.resetRowLocked()
				break
			}
		}
	}
	if len(s.row) > 0 {
		s.timer.Start(s.now())
	}
	s.changedLocked()
	return s.metasLocked(), first
}

// SubmitResult describes a committed move.
type SubmitResult struct {
	Item    HistoryItem
	Row     RowRecord
	Cleared bool
	Record  *Record
}

// Submit commits the candidate row. The row must be full with every slot
// sourced from the stack or the bag; the word must then pass Validate. On
// any failure the game is unchanged and the row is kept for editing.
func (s *Session) Submit() (SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Status == StatusCleared {
		return SubmitResult{}, ErrCleared
	}
	if !s.rowReadyLocked() {
		return SubmitResult{}, ErrRowIncomplete
	}
	mv, err := Validate(s.state, s.dict, s.candidateLocked())
	if err != nil {
		return SubmitResult{}, err
	}

	now := s.now()
	s.timer.Start(now)
	row := RowRecord{Word: mv.Word, Sources: make([]Source, len(s.row))}
	for i, sl := range s.row {
		row.Sources[i] = sl.meta.Source
	}

	s.state = Apply(s.state, mv, now)
	s.moves = append(s.moves, row)
	s.resetRowLocked()

	res := SubmitResult{
		Item:    s.state.History[len(s.state.History)-1],
		Row:     row,
		Cleared: s.state.Status == StatusCleared,
	}
	if res.Cleared {
		s.timer.Pause(now)
		rec := s.recordLocked(now)
		res.Record = &rec
		if !s.recorded {
			s.recorded = true
			if s.sink != nil {
				if err := s.sink.SaveRecord(rec); err != nil && s.onError != nil {
					s.onError(err)
				}
			}
		}
	}
	s.changedLocked()
	return res, nil
}

// Undo drops the most recent move. It reports false, changing nothing,
// when there is no history.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rewindLocked(len(s.state.History) - 1)
}

// UndoTo truncates history to its first keep moves. It reports false,
// changing nothing, when keep is not below the current history length.
func (s *Session) UndoTo(keep int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rewindLocked(keep)
}

func (s *Session) rewindLocked(keep int) bool {
	if keep < 0 {
		keep = 0
	}
	if keep >= len(s.state.History) {
		return false
	}
	wasCleared := s.state.Status == StatusCleared
	s.state = Rewind(s.state, keep)
	s.moves = s.moves[:min(keep, len(s.moves))]
	s.resetRowLocked()
	s.undos++
	if wasCleared {
		s.timer.Start(s.now())
	}
	s.changedLocked()
	return true
}

// ShuffleBag reorders the bag uniformly at random. Used and reserved
// flags travel with their tiles, so counts and history are unaffected.
func (s *Session) ShuffleBag() {
	s.mu.Lock()
	defer s.mu.Unlock()

	bag := s.state.Puzzle.Bag
	perm := make([]int, len(bag))
	for i := range perm {
		perm[i] = i
	}
	for i := len(perm) - 1; i > 0; i-- {
		j := s.intn(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}
	s.applyPermLocked(perm)
	s.changedLocked()
}

// applyPermLocked moves the tile at old index perm[k] to index k.
func (s *Session) applyPermLocked(perm []int) {
	old := s.state.Puzzle.Bag
	moved := make([]int, len(perm))
	var b strings.Builder
	next := s.state.clone()
	next.Used = IndexSet{}
	reserved := IndexSet{}
	for k, from := range perm {
		b.WriteByte(old[from])
		moved[from] = k
		if s.state.Used.Has(from) {
			next.Used.Add(k)
		}
		if s.reserved.Has(from) {
			reserved.Add(k)
		}
	}
	next.Puzzle.Bag = b.String()
	for i := range s.row {
		if s.row[i].meta.Source == SourceBag {
			s.row[i].meta.BagIndex = moved[s.row[i].meta.BagIndex]
		}
	}
	s.state = next
	s.reserved = reserved
}

// Pause stops the play clock.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.timer.Running {
		return
	}
	s.timer.Pause(s.now())
	s.changedLocked()
}

// Resume restarts the play clock if the game is in progress.
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer.Running || s.state.Status == StatusCleared || !s.timer.Started() {
		return
	}
	s.timer.Start(s.now())
	s.changedLocked()
}

// ElapsedSec returns active play seconds so far.
func (s *Session) ElapsedSec() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer.Elapsed(s.now())
}

// Record returns the completion record once cleared.
func (s *Session) Record() (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Status != StatusCleared {
		return Record{}, false
	}
	return s.recordLocked(s.state.EndedAt), true
}

func (s *Session) recordLocked(finished time.Time) Record {
	rows := make([]RowRecord, len(s.moves))
	copy(rows, s.moves)
	return Record{
		DateKey:       s.state.Puzzle.Date,
		FinishedAt:    finished,
		DurationSec:   wholeSeconds(s.timer.Elapsed(finished)),
		StacksCleared: len(s.state.History),
		Undos:         s.undos,
		Rows:          rows,
	}
}

func (s *Session) rowReadyLocked() bool {
	if len(s.row) != WordLen {
		return false
	}
	for _, sl := range s.row {
		if sl.meta.Source != SourceBag && sl.meta.Source != SourceStack {
			return false
		}
	}
	return true
}

func (s *Session) resetRowLocked() {
	s.row = s.row[:0]
	s.reserved = IndexSet{}
}

func (s *Session) candidateLocked() string {
	var b strings.Builder
	for _, sl := range s.row {
		b.WriteString(sl.letter)
	}
	return b.String()
}

func (s *Session) metasLocked() []SlotMeta {
	out := make([]SlotMeta, WordLen)
	for i, sl := range s.row {
		out[i] = sl.meta
	}
	return out
}

func (s *Session) changedLocked() {
	if s.onChange != nil {
		s.onChange(s.snapshotLocked())
	}
}
