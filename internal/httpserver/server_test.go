package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/robalobadob/stacks/assets"
	"github.com/robalobadob/stacks/internal/config"
	"github.com/robalobadob/stacks/internal/daily"
	"github.com/robalobadob/stacks/internal/db"
	"github.com/robalobadob/stacks/internal/stacks"
	"github.com/robalobadob/stacks/internal/store"
	"github.com/robalobadob/stacks/internal/words"
)

// 2025-09-01 is PRINT with bag SLALGNKDIBLYUBS.
var today = time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

var solution = []string{"BUILD", "LYING", "BLINK", "BASIS"}

func testConfig() config.Config {
	return config.Config{
		JWTSecret:      "test-secret",
		JWTExpiresDays: 1,
		CookieName:     "stacks_token",
		AnonCookieName: "stacks_anon",
		ClientOrigin:   "http://localhost:5173",
		SaveDebounce:   time.Hour,
	}
}

func testDeps(t *testing.T) Deps {
	t.Helper()
	sqlDB, err := db.OpenMigrated(context.Background(), filepath.Join(t.TempDir(), "stacks.db"), assets.Migrations())
	if err != nil {
		t.Fatalf("OpenMigrated: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	cat, err := daily.LoadCatalog("test")
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	lists, err := words.New()
	if err != nil {
		t.Fatalf("words.New: %v", err)
	}
	return Deps{
		Config:  testConfig(),
		DB:      sqlDB,
		Catalog: cat,
		Words:   lists,
		Records: daily.NewStore(sqlDB),
		Snaps:   store.NewSQLite(sqlDB),
		Now:     func() time.Time { return today },
	}
}

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func startServer(t *testing.T, d Deps) (*Server, *httptest.Server) {
	t.Helper()
	srv := New(d)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return srv, ts
}

func newClient(t *testing.T, ts *httptest.Server) *client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &client{t: t, base: ts.URL, http: &http.Client{Jar: jar}}
}

// do sends body as JSON and decodes the reply into out (if non-nil).
func (c *client) do(method, path string, body, out any) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			c.t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return res.StatusCode
}

func (c *client) submitWord(word string) playRes {
	c.t.Helper()
	var res playRes
	if code := c.do(http.MethodPost, "/play/candidate", wordReq{Word: word}, &res); code != http.StatusOK {
		c.t.Fatalf("candidate %s: status %d", word, code)
	}
	if code := c.do(http.MethodPost, "/play/submit", nil, &res); code != http.StatusOK {
		c.t.Fatalf("submit %s: status %d", word, code)
	}
	return res
}

func TestHealthAndPuzzle(t *testing.T) {
	t.Parallel()
	_, ts := startServer(t, testDeps(t))
	c := newClient(t, ts)

	var health map[string]bool
	if code := c.do(http.MethodGet, "/health", nil, &health); code != http.StatusOK || !health["ok"] {
		t.Fatalf("health = %d %v", code, health)
	}

	var p puzzleRes
	if code := c.do(http.MethodGet, "/puzzle/today", nil, &p); code != http.StatusOK {
		t.Fatalf("puzzle status = %d", code)
	}
	if p != (puzzleRes{Date: "2025-09-01", WordOfDay: "PRINT", BagList: "SLALGNKDIBLYUBS"}) {
		t.Errorf("puzzle = %+v", p)
	}

	for _, q := range []string{"?date=2025-09-02", "?date=someday"} {
		var e errorRes
		if code := c.do(http.MethodGet, "/puzzle/today"+q, nil, &e); code != http.StatusBadRequest {
			t.Errorf("GET /puzzle/today%s = %d, want 400", q, code)
		}
	}

	var counts map[string]int
	c.do(http.MethodGet, "/debug/words", nil, &counts)
	if counts["allowed"] == 0 || counts["banned"] == 0 {
		t.Errorf("word counts = %v", counts)
	}
}

func TestPlayThroughPuzzle(t *testing.T) {
	t.Parallel()
	_, ts := startServer(t, testDeps(t))
	c := newClient(t, ts)

	var load playRes
	if code := c.do(http.MethodPost, "/play/load", nil, &load); code != http.StatusOK {
		t.Fatalf("load status = %d", code)
	}
	if load.Played || load.View.CurrentStack != "PRINT" || load.View.Remaining != stacks.BagSize {
		t.Fatalf("load = %+v", load)
	}

	var last playRes
	for _, w := range solution {
		last = c.submitWord(w)
	}
	if last.View.Status != stacks.StatusCleared || last.Record == nil {
		t.Fatalf("after solution: status=%q record=%v", last.View.Status, last.Record)
	}
	if last.Record.StacksCleared != 4 || !strings.HasPrefix(last.Share, "I finished 4 Stacks in ") {
		t.Errorf("record=%+v share=%q", last.Record, last.Share)
	}

	var game gameRes
	if code := c.do(http.MethodGet, "/games/2025-09-01", nil, &game); code != http.StatusOK {
		t.Fatalf("GET /games/2025-09-01 = %d", code)
	}
	if len(game.Record.Rows) != 4 || game.Record.Rows[0].Word != "BUILD" {
		t.Errorf("stored rows = %+v", game.Record.Rows)
	}

	var sum struct {
		GamesPlayed   int `json:"gamesPlayed"`
		CurrentStreak int `json:"currentStreak"`
	}
	c.do(http.MethodGet, "/stats/me", nil, &sum)
	if sum.GamesPlayed != 1 || sum.CurrentStreak != 1 {
		t.Errorf("stats = %+v", sum)
	}

	var lb lbRes
	c.do(http.MethodGet, "/daily/leaderboard", nil, &lb)
	if len(lb.Top) != 1 || lb.Top[0].StacksCleared != 4 {
		t.Errorf("leaderboard = %+v", lb)
	}

	// A finished game refuses more moves.
	var ge gameErrorRes
	if code := c.do(http.MethodPost, "/play/submit", nil, &ge); code != http.StatusConflict || ge.Error != "cleared" {
		t.Errorf("submit after clear = %d %+v", code, ge)
	}

	var again playRes
	c.do(http.MethodPost, "/play/load", nil, &again)
	if !again.Played {
		t.Error("load after finishing does not report played")
	}
}

func TestPlayRuleErrors(t *testing.T) {
	t.Parallel()
	_, ts := startServer(t, testDeps(t))
	c := newClient(t, ts)
	c.do(http.MethodPost, "/play/load", nil, nil)

	tests := []struct {
		word string
		code stacks.Code
	}{
		{"PRINT", stacks.CodeBadOverlap},
		{"BUILS", stacks.CodeNotInDictionary},
		{"BUILT", ""},
	}
	for _, tc := range tests {
		var res playRes
		if code := c.do(http.MethodPost, "/play/candidate", wordReq{Word: tc.word}, &res); code != http.StatusOK {
			t.Fatalf("candidate %s: status %d", tc.word, code)
		}
		if tc.code == "" {
			continue
		}
		var ge gameErrorRes
		if code := c.do(http.MethodPost, "/play/submit", nil, &ge); code != http.StatusUnprocessableEntity {
			t.Fatalf("submit %s: status %d, want 422", tc.word, code)
		}
		if ge.Error != string(tc.code) || ge.Message == "" || ge.View == nil {
			t.Errorf("submit %s: %+v", tc.word, ge)
		}
	}

	// A letter the bag doesn't hold still lands, flagged, with a 422.
	var ge gameErrorRes
	if code := c.do(http.MethodPost, "/play/candidate", wordReq{Word: "XYZZY"}, &ge); code != http.StatusUnprocessableEntity {
		t.Fatalf("candidate XYZZY: status %d", code)
	}
	if ge.Error != string(stacks.CodeNoSource) {
		t.Errorf("candidate XYZZY error = %q", ge.Error)
	}
	if code := c.do(http.MethodPost, "/play/submit", nil, &ge); code != http.StatusUnprocessableEntity || ge.Error != string(stacks.CodeRowIncomplete) {
		t.Errorf("submit flagged row = %d %q", code, ge.Error)
	}

	var typed playRes
	c.do(http.MethodPost, "/play/clear", nil, nil)
	if code := c.do(http.MethodPost, "/play/type", letterReq{Letter: "b"}, &typed); code != http.StatusOK {
		t.Fatalf("type b: status %d", code)
	}
	if typed.Slot == nil || typed.Slot.Source != stacks.SourceBag || typed.View.Candidate != "B" {
		t.Errorf("type b = %+v", typed)
	}
	for _, l := range []string{"7", "ı", "ſ"} {
		if code := c.do(http.MethodPost, "/play/type", letterReq{Letter: l}, &ge); code != http.StatusUnprocessableEntity {
			t.Errorf("type %s: status %d", l, code)
		}
	}
	c.do(http.MethodPost, "/play/pop", nil, &typed)
	if typed.View.Candidate != "" {
		t.Errorf("candidate after pop = %q", typed.View.Candidate)
	}

	// Too many letters empties the row rather than keeping the first five.
	ge = gameErrorRes{}
	if code := c.do(http.MethodPost, "/play/candidate", wordReq{Word: "BUILTS"}, &ge); code != http.StatusUnprocessableEntity {
		t.Fatalf("candidate BUILTS: status %d, want 422", code)
	}
	if ge.Error != string(stacks.CodeNotFiveLetters) || ge.View == nil || ge.View.Candidate != "" {
		t.Errorf("candidate BUILTS = %+v", ge)
	}
	if code := c.do(http.MethodPost, "/play/submit", nil, &ge); code != http.StatusUnprocessableEntity || ge.Error != string(stacks.CodeRowIncomplete) {
		t.Errorf("submit after BUILTS = %d %q", code, ge.Error)
	}
}

func TestUndoAndShuffle(t *testing.T) {
	t.Parallel()
	_, ts := startServer(t, testDeps(t))
	c := newClient(t, ts)
	c.submitWord("BUILD")
	c.submitWord("LYING")

	var res playRes
	c.do(http.MethodPost, "/play/shuffle", nil, &res)
	if got := res.View.Puzzle.BagList; len(got) != stacks.BagSize {
		t.Fatalf("shuffled bag = %q", got)
	}
	if len(res.View.UsedIndices) != 8 {
		t.Errorf("used after shuffle = %v", res.View.UsedIndices)
	}

	c.do(http.MethodPost, "/play/undo", nil, &res)
	if res.Changed == nil || !*res.Changed || res.View.CurrentStack != "BUILD" || res.View.UndoCount != 1 {
		t.Errorf("undo = %+v", res)
	}
	c.do(http.MethodPost, "/play/undo-to", indexReq{Index: 5}, &res)
	if res.Changed == nil || *res.Changed {
		t.Errorf("undo-to past history changed the game")
	}
	c.do(http.MethodPost, "/play/undo-to", indexReq{Index: 0}, &res)
	if res.View.CurrentStack != "PRINT" || res.View.Remaining != stacks.BagSize {
		t.Errorf("undo-to 0 = stack %q remaining %d", res.View.CurrentStack, res.View.Remaining)
	}
}

func TestSessionRehydratesFromSnapshot(t *testing.T) {
	t.Parallel()
	d := testDeps(t)
	first, ts1 := startServer(t, d)
	c := newClient(t, ts1)
	c.submitWord("BUILD")
	c.do(http.MethodPost, "/play/candidate", wordReq{Word: "LY"}, nil)
	first.Close()

	// A fresh server over the same database, as after a restart.
	_, ts2 := startServer(t, d)
	c.base = ts2.URL
	var res playRes
	if code := c.do(http.MethodGet, "/play", nil, &res); code != http.StatusOK {
		t.Fatalf("GET /play = %d", code)
	}
	if len(res.View.History) != 1 || res.View.CurrentStack != "BUILD" || res.View.Candidate != "LY" {
		t.Errorf("rehydrated view = stack %q history %d candidate %q",
			res.View.CurrentStack, len(res.View.History), res.View.Candidate)
	}
}

func TestAuthClaimsGuestProgress(t *testing.T) {
	t.Parallel()
	_, ts := startServer(t, testDeps(t))
	c := newClient(t, ts)
	for _, w := range solution {
		c.submitWord(w)
	}

	var e errorRes
	if code := c.do(http.MethodGet, "/auth/me", nil, &e); code != http.StatusUnauthorized {
		t.Fatalf("/auth/me as guest = %d", code)
	}

	creds := authReq{Username: "stacker", Password: "correct horse"}
	var me authUser
	if code := c.do(http.MethodPost, "/auth/signup", creds, &me); code != http.StatusOK || me.Username != "stacker" {
		t.Fatalf("signup = %d %+v", code, me)
	}
	if code := c.do(http.MethodPost, "/auth/signup", creds, &e); code != http.StatusConflict {
		t.Errorf("duplicate signup = %d, want 409", code)
	}
	if code := c.do(http.MethodGet, "/auth/me", nil, &me); code != http.StatusOK {
		t.Fatalf("/auth/me = %d", code)
	}

	// The guest's finished game now belongs to the account.
	var game gameRes
	if code := c.do(http.MethodGet, "/games/2025-09-01", nil, &game); code != http.StatusOK {
		t.Fatalf("GET /games/2025-09-01 as user = %d", code)
	}
	var view playRes
	c.do(http.MethodPost, "/play/load", nil, &view)
	if view.View.Status != stacks.StatusCleared || !view.Played {
		t.Errorf("user's session = status %q played %v", view.View.Status, view.Played)
	}

	c.do(http.MethodPost, "/auth/logout", nil, nil)
	if code := c.do(http.MethodGet, "/auth/me", nil, &e); code != http.StatusUnauthorized {
		t.Errorf("/auth/me after logout = %d", code)
	}

	var bad errorRes
	if code := c.do(http.MethodPost, "/auth/login", authReq{Username: "stacker", Password: "wrong password"}, &bad); code != http.StatusUnauthorized {
		t.Errorf("bad login = %d", code)
	}
	if code := c.do(http.MethodPost, "/auth/login", creds, &me); code != http.StatusOK {
		t.Errorf("login = %d", code)
	}
}
