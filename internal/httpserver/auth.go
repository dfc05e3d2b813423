// internal/httpserver/auth.go
//
// Accounts and player identity.
// Responsibilities:
//   - Users table helpers (bcrypt password hashes).
//   - HS256 JWT issue/verify, carried in a cookie or Authorization header.
//   - Optional/required auth middleware.
//   - Anonymous player cookie so guests keep a stable identity; signing up
//     or logging in claims the guest's records and saved session.

package httpserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var errUsernameTaken = errors.New("username taken")

const anonCookieTTL = 180 * 24 * time.Hour

type authReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// authUser is placed into request context by auth middleware.
type authUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type ctxUserKey struct{}

func userFrom(ctx context.Context) *authUser {
	me, _ := ctx.Value(ctxUserKey{}).(*authUser)
	return me
}

func (s *Server) mountAuthRoutes() {
	s.r.Post("/auth/signup", s.handleSignup)
	s.r.Post("/auth/login", s.handleLogin)
	s.r.Post("/auth/logout", s.handleLogout)
	s.r.With(s.requireAuth()).Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, userFrom(r.Context()))
	})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body authReq
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	u, err := s.createUser(r.Context(), body.Username, body.Password)
	if errors.Is(err, errUsernameTaken) {
		writeError(w, http.StatusConflict, "username_taken", "Username taken")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_signup", err.Error())
		return
	}
	if !s.issueToken(w, u) {
		return
	}
	s.claimAnon(r, u.ID)
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body authReq
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	u, hash, err := s.findUserByUsername(r.Context(), strings.TrimSpace(body.Username))
	if err != nil || !checkPassword(hash, body.Password) {
		writeError(w, http.StatusUnauthorized, "bad_credentials", "Invalid username or password")
		return
	}
	if !s.issueToken(w, u) {
		return
	}
	s.claimAnon(r, u.ID)
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.setCookie(w, s.cfg.CookieName, "", -1)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) issueToken(w http.ResponseWriter, u *authUser) bool {
	tok, err := s.signJWT(u.ID, u.Username)
	if err != nil {
		log.Error().Err(err).Msg("sign jwt")
		writeError(w, http.StatusInternalServerError, "sign_failed", "could not sign token")
		return false
	}
	s.setCookie(w, s.cfg.CookieName, tok, s.cfg.JWTTTL())
	return true
}

// claimAnon hands the guest's records and saved session to userID and
// drops the guest's live sessions. Failures are logged, not returned.
func (s *Server) claimAnon(r *http.Request, userID string) {
	c, err := r.Cookie(s.cfg.AnonCookieName)
	if err != nil || c.Value == "" || c.Value == userID {
		return
	}
	anon := c.Value
	ctx := r.Context()
	if err := s.records.Claim(ctx, anon, userID); err != nil {
		log.Warn().Err(err).Str("user", userID).Msg("claim anon records")
	}
	s.saver.Flush()
	if err := s.snaps.Claim(ctx, anon, userID); err != nil {
		log.Warn().Err(err).Str("user", userID).Msg("claim anon snapshot")
	}
	s.live.dropPlayer(anon)
}

// --------------------------- middleware ------------------------------------

// withOptionalAuth decorates requests with user context if a valid JWT is
// present. It never 401s.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if u, err := s.authenticate(r); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, u))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireAuth enforces a valid JWT and injects authUser into request context.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, err := s.authenticate(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, u)))
		})
	}
}

func (s *Server) authenticate(r *http.Request) (*authUser, error) {
	tokenStr := s.bearerOrCookie(r)
	if tokenStr == "" {
		return nil, errors.New("missing token")
	}
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	id, _ := claims["id"].(string)
	if id == "" {
		return nil, errors.New("invalid token")
	}
	// The account must still exist.
	u, err := s.findUserByID(r.Context(), id)
	if err != nil {
		return nil, errors.New("invalid token")
	}
	return u, nil
}

// playerID is the signed-in user's ID, or the guest cookie (set if absent).
func (s *Server) playerID(w http.ResponseWriter, r *http.Request) string {
	if me := userFrom(r.Context()); me != nil {
		return me.ID
	}
	if c, err := r.Cookie(s.cfg.AnonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	s.setCookie(w, s.cfg.AnonCookieName, id, anonCookieTTL)
	// Later reads in this request see the new cookie.
	r.AddCookie(&http.Cookie{Name: s.cfg.AnonCookieName, Value: id})
	return id
}

// ------------------------------ users --------------------------------------

func (s *Server) createUser(ctx context.Context, username, pw string) (*authUser, error) {
	username = strings.TrimSpace(username)
	if err := validateSignup(username, pw); err != nil {
		return nil, err
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &authUser{ID: uuid.NewString(), Username: username}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		u.ID, u.Username, string(h), s.now().UTC().Format(time.RFC3339))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, errUsernameTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *Server) findUserByUsername(ctx context.Context, username string) (*authUser, string, error) {
	var u authUser
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash FROM users WHERE username=?`, username,
	).Scan(&u.ID, &u.Username, &hash)
	if err != nil {
		return nil, "", err
	}
	return &u, hash, nil
}

func (s *Server) findUserByID(ctx context.Context, id string) (*authUser, error) {
	var u authUser
	err := s.db.QueryRowContext(ctx, `SELECT id, username FROM users WHERE id=?`, id).Scan(&u.ID, &u.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.New("no such user")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func checkPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// validateSignup enforces basic username/password rules.
func validateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return errors.New("username must be 3–24 chars")
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.New("username: letters, numbers, underscore only")
		}
	}
	if len(p) < 8 || len(p) > 100 {
		return errors.New("password must be 8–100 chars")
	}
	return nil
}

// ------------------------------ JWT & cookies ------------------------------

func (s *Server) signJWT(id, username string) (string, error) {
	now := s.now()
	exp := now.Add(s.cfg.JWTTTL())
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id,
		"username": username,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	})
	return t.SignedString([]byte(s.cfg.JWTSecret))
}

// setCookie writes an HttpOnly cookie living for ttl; ttl < 0 deletes it.
func (s *Server) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	maxAge := int(ttl / time.Second)
	if ttl < 0 {
		maxAge = -1
	}
	sameSite := http.SameSiteLaxMode
	if s.cfg.SecureCookies {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: sameSite,
		MaxAge:   maxAge,
	})
}

// bearerOrCookie extracts a bearer token from Authorization header or auth cookie.
func (s *Server) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.cfg.CookieName); err == nil {
		return c.Value
	}
	return ""
}
