// internal/httpserver/play.go
//
// Routes that drive one player's game for one day:
//   - POST /play/load              → load or rehydrate the session, with a "played" flag
//   - GET  /play                   → current view
//   - POST /play/type {letter}     → type one letter into the row
//   - POST /play/pop, /play/clear  → edit the row
//   - POST /play/candidate {word}  → replace the row in one call
//   - POST /play/submit            → commit the row (422 with a rule code on failure)
//   - POST /play/undo, /play/undo-to {index}, /play/shuffle, /play/pause, /play/resume
//
// Every route accepts ?date=YYYY-MM-DD and defaults to today (UTC).
// Sessions live in memory; each change schedules a debounced snapshot
// save, and a session missing from memory is rehydrated from its snapshot.
// Idle sessions are evicted; see liveSessions.sweep.

package httpserver

import (
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/stacks/internal/daily"
	"github.com/robalobadob/stacks/internal/stacks"
	"github.com/robalobadob/stacks/internal/stats"
)

// playRes wraps the view with whatever the action produced.
type playRes struct {
	View    stacks.View       `json:"view"`
	Played  bool              `json:"played,omitempty"`
	Slot    *stacks.SlotMeta  `json:"slot,omitempty"`
	Slots   []stacks.SlotMeta `json:"slots,omitempty"`
	Changed *bool             `json:"changed,omitempty"`
	Record  *stacks.Record    `json:"record,omitempty"`
	Share   string            `json:"share,omitempty"`
}

// gameErrorRes is a rule violation plus the view the client should show.
type gameErrorRes struct {
	Error   string       `json:"error"`
	Message string       `json:"message"`
	View    *stacks.View `json:"view,omitempty"`
}

type letterReq struct {
	Letter string `json:"letter"`
}

type wordReq struct {
	Word string `json:"word"`
}

type indexReq struct {
	Index int `json:"index"`
}

func (s *Server) mountPlay(r chi.Router) {
	r.Route("/play", func(r chi.Router) {
		r.Post("/load", s.handleLoad)
		r.Get("/", s.play(s.handleView))
		r.Post("/type", s.play(s.handleType))
		r.Post("/pop", s.play(func(w http.ResponseWriter, r *http.Request, sess *stacks.Session) {
			sess.PopLetter()
			writeJSON(w, http.StatusOK, playRes{View: sess.View()})
		}))
		r.Post("/clear", s.play(func(w http.ResponseWriter, r *http.Request, sess *stacks.Session) {
			sess.ClearRow()
			writeJSON(w, http.StatusOK, playRes{View: sess.View()})
		}))
		r.Post("/candidate", s.play(s.handleCandidate))
		r.Post("/submit", s.play(s.handleSubmit))
		r.Post("/undo", s.play(func(w http.ResponseWriter, r *http.Request, sess *stacks.Session) {
			changed := sess.Undo()
			writeJSON(w, http.StatusOK, playRes{View: sess.View(), Changed: &changed})
		}))
		r.Post("/undo-to", s.play(s.handleUndoTo))
		r.Post("/shuffle", s.play(func(w http.ResponseWriter, r *http.Request, sess *stacks.Session) {
			sess.ShuffleBag()
			writeJSON(w, http.StatusOK, playRes{View: sess.View()})
		}))
		r.Post("/pause", s.play(func(w http.ResponseWriter, r *http.Request, sess *stacks.Session) {
			sess.Pause()
			writeJSON(w, http.StatusOK, playRes{View: sess.View()})
		}))
		r.Post("/resume", s.play(func(w http.ResponseWriter, r *http.Request, sess *stacks.Session) {
			sess.Resume()
			writeJSON(w, http.StatusOK, playRes{View: sess.View()})
		}))
	})
}

type playHandler func(w http.ResponseWriter, r *http.Request, sess *stacks.Session)

// play resolves the caller's session before running h.
func (s *Server) play(h playHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _, ok := s.session(w, r)
		if !ok {
			return
		}
		h(w, r, sess)
	}
}

// session returns the live session for the caller and requested date,
// rehydrating or creating it as needed. It writes the error response and
// reports false when the date is unusable.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*stacks.Session, string, bool) {
	p, ok := s.resolvePuzzle(w, r)
	if !ok {
		return nil, "", false
	}
	player := s.playerID(w, r)
	now := s.now()
	if dropped := s.live.sweep(daily.DateKey(now), now); len(dropped) > 0 {
		log.Debug().Int("dropped", len(dropped)).Int("live", s.live.len()).Msg("evicted idle sessions")
	}
	key := liveKey{player: player, date: p.Date}
	if sess, ok := s.live.get(key, now); ok {
		return sess, player, true
	}
	return s.live.put(key, s.openSession(r, player, p), now), player, true
}

func (s *Server) openSession(r *http.Request, player string, p stacks.Puzzle) *stacks.Session {
	opts := []stacks.Option{
		stacks.WithClock(s.now),
		stacks.WithRecordSink(s.records.Sink(player)),
		stacks.WithOnChange(func(snap stacks.Snapshot) { s.saver.Schedule(player, snap) }),
		stacks.WithErrorHook(func(err error) {
			log.Warn().Err(err).Str("player", player).Str("date", p.Date).Msg("record save failed")
		}),
	}
	// An evicted session may still have a save queued.
	s.saver.FlushPlayer(player)
	snap, ok, err := s.snaps.Load(r.Context(), player)
	if err != nil {
		log.Warn().Err(err).Str("player", player).Msg("snapshot load failed")
	}
	if !ok || err != nil {
		return stacks.NewSession(p, s.words, opts...)
	}
	sess, restored := stacks.Restore(p, snap, s.words, opts...)
	if !restored {
		log.Debug().Str("player", player).Str("date", p.Date).Str("snapshotDate", snap.DateKey).
			Msg("discarded snapshot")
	}
	return sess
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	sess, player, ok := s.session(w, r)
	if !ok {
		return
	}
	view := sess.View()
	played, err := s.records.AlreadyPlayed(r.Context(), player, view.DateKey)
	if err != nil {
		log.Warn().Err(err).Str("player", player).Msg("check played")
	}
	writeJSON(w, http.StatusOK, playRes{View: view, Played: played})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request, sess *stacks.Session) {
	writeJSON(w, http.StatusOK, playRes{View: sess.View()})
}

func (s *Server) handleType(w http.ResponseWriter, r *http.Request, sess *stacks.Session) {
	var req letterReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if utf8.RuneCountInString(req.Letter) != 1 {
		writeGameError(w, stacks.ErrNotFiveLetters, nil)
		return
	}
	l, _ := utf8.DecodeRuneInString(req.Letter)
	meta, err := sess.TypeLetter(l)
	if err != nil {
		view := sess.View()
		writeGameError(w, err, &view)
		return
	}
	writeJSON(w, http.StatusOK, playRes{View: sess.View(), Slot: &meta})
}

func (s *Server) handleCandidate(w http.ResponseWriter, r *http.Request, sess *stacks.Session) {
	var req wordReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	slots, err := sess.SetCandidate(req.Word)
	if err != nil {
		view := sess.View()
		writeGameError(w, err, &view)
		return
	}
	writeJSON(w, http.StatusOK, playRes{View: sess.View(), Slots: slots})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request, sess *stacks.Session) {
	res, err := sess.Submit()
	if err != nil {
		view := sess.View()
		writeGameError(w, err, &view)
		return
	}
	out := playRes{View: sess.View(), Record: res.Record}
	if res.Record != nil {
		out.Share = stats.Share(*res.Record)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUndoTo(w http.ResponseWriter, r *http.Request, sess *stacks.Session) {
	var req indexReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	changed := sess.UndoTo(req.Index)
	writeJSON(w, http.StatusOK, playRes{View: sess.View(), Changed: &changed})
}

// writeGameError maps rule violations to 422 and a finished game to 409.
func writeGameError(w http.ResponseWriter, err error, view *stacks.View) {
	var re *stacks.RuleError
	switch {
	case errors.As(err, &re):
		writeJSON(w, http.StatusUnprocessableEntity, gameErrorRes{Error: string(re.Code), Message: re.Message, View: view})
	case errors.Is(err, stacks.ErrCleared):
		writeJSON(w, http.StatusConflict, gameErrorRes{Error: "cleared", Message: err.Error(), View: view})
	default:
		log.Error().Err(err).Msg("play")
		writeError(w, http.StatusInternalServerError, "internal", "unexpected error")
	}
}
