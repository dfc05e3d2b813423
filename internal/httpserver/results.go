// internal/httpserver/results.go
//
// Read-only routes over puzzles and finished games:
//   - GET /puzzle/today?date=      → the resolved puzzle
//   - GET /games/mine              → the caller's records, oldest first
//   - GET /games/{date}            → one record plus share text
//   - GET /stats/me                → streaks, averages, histogram
//   - GET /daily/leaderboard?date= → top 20 finishers for a day

package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/stacks/internal/daily"
	"github.com/robalobadob/stacks/internal/stacks"
	"github.com/robalobadob/stacks/internal/stats"
)

const leaderboardSize = 20

type puzzleRes struct {
	Date      string `json:"date"`
	WordOfDay string `json:"wordOfDay"`
	BagList   string `json:"bagList"`
}

type gameRes struct {
	Record stacks.Record `json:"record"`
	Share  string        `json:"share"`
}

type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

func (s *Server) mountResults(r chi.Router) {
	r.Get("/games/mine", s.handleMyGames)
	r.Get("/games/{date}", s.handleGame)
	r.Get("/stats/me", s.handleMyStats)
	r.Get("/daily/leaderboard", s.handleLeaderboard)
}

// resolvePuzzle reads ?date= (default today) and resolves it. Future days
// are refused so the bag can't be previewed.
func (s *Server) resolvePuzzle(w http.ResponseWriter, r *http.Request) (stacks.Puzzle, bool) {
	today := daily.DateKey(s.now())
	date := r.URL.Query().Get("date")
	if date == "" {
		date = today
	}
	p, err := s.catalog.Resolve(date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_date", err.Error())
		return stacks.Puzzle{}, false
	}
	if p.Date > today {
		writeError(w, http.StatusBadRequest, "future_date", "that puzzle isn't out yet")
		return stacks.Puzzle{}, false
	}
	return p, true
}

func (s *Server) handlePuzzle(w http.ResponseWriter, r *http.Request) {
	p, ok := s.resolvePuzzle(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, puzzleRes{Date: p.Date, WordOfDay: p.WordOfDay, BagList: p.Bag})
}

func (s *Server) handleMyGames(w http.ResponseWriter, r *http.Request) {
	list, err := s.records.List(r.Context(), s.playerID(w, r))
	if err != nil {
		log.Error().Err(err).Msg("list records")
		writeError(w, http.StatusInternalServerError, "db_error", "could not load games")
		return
	}
	if list == nil {
		list = []stacks.Record{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGame(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if _, err := daily.ParseDateKey(date); err != nil {
		writeError(w, http.StatusBadRequest, "bad_date", err.Error())
		return
	}
	rec, ok, err := s.records.Get(r.Context(), s.playerID(w, r), date)
	if err != nil {
		log.Error().Err(err).Msg("get record")
		writeError(w, http.StatusInternalServerError, "db_error", "could not load game")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "no finished game for "+date)
		return
	}
	writeJSON(w, http.StatusOK, gameRes{Record: rec, Share: stats.Share(rec)})
}

func (s *Server) handleMyStats(w http.ResponseWriter, r *http.Request) {
	list, err := s.records.List(r.Context(), s.playerID(w, r))
	if err != nil {
		log.Error().Err(err).Msg("list records")
		writeError(w, http.StatusInternalServerError, "db_error", "could not load stats")
		return
	}
	writeJSON(w, http.StatusOK, stats.Compute(list))
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(s.now())
	}
	rows, err := s.records.Leaderboard(r.Context(), date, leaderboardSize)
	if err != nil {
		log.Error().Err(err).Msg("leaderboard")
		writeError(w, http.StatusInternalServerError, "db_error", "could not load leaderboard")
		return
	}
	if rows == nil {
		rows = []daily.LBRow{}
	}
	writeJSON(w, http.StatusOK, lbRes{Date: date, Top: rows})
}
