package daily

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robalobadob/stacks/internal/stacks"
)

// Store persists completed-game records, one per player and date key.
type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Save inserts rec for playerID. An existing record for the same date wins:
// the insert is ignored and inserted reports false.
func (s *Store) Save(ctx context.Context, playerID string, rec stacks.Record) (inserted bool, err error) {
	rows, err := json.Marshal(rec.Rows)
	if err != nil {
		return false, fmt.Errorf("daily: encode rows: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO game_records
		    (player_id, date_key, finished_at, duration_sec, stacks_cleared, undos, rows_json)
		 VALUES (?,?,?,?,?,?,?)`,
		playerID, rec.DateKey, rec.FinishedAt.UTC().Format(time.RFC3339Nano),
		rec.DurationSec, rec.StacksCleared, rec.Undos, string(rows),
	)
	if err != nil {
		return false, fmt.Errorf("daily: insert record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("daily: insert record: %w", err)
	}
	return n > 0, nil
}

// AlreadyPlayed reports whether playerID has a record for date.
func (s *Store) AlreadyPlayed(ctx context.Context, playerID, date string) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM game_records WHERE player_id=? AND date_key=?",
		playerID, date,
	).Scan(&cnt)
	return cnt > 0, err
}

const recordCols = `date_key, finished_at, duration_sec, stacks_cleared, undos, rows_json`

// Get returns playerID's record for date, if any.
func (s *Store) Get(ctx context.Context, playerID, date string) (stacks.Record, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordCols+` FROM game_records WHERE player_id=? AND date_key=?`, playerID, date)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return stacks.Record{}, false, nil
	}
	if err != nil {
		return stacks.Record{}, false, err
	}
	return rec, true, nil
}

// List returns every record for playerID, oldest date first.
func (s *Store) List(ctx context.Context, playerID string) ([]stacks.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordCols+` FROM game_records WHERE player_id=? ORDER BY date_key ASC`, playerID)
	if err != nil {
		return nil, fmt.Errorf("daily: list records: %w", err)
	}
	defer rows.Close()
	var out []stacks.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Claim moves anonID's records to userID. Dates the user already has keep
// the user's record.
func (s *Store) Claim(ctx context.Context, anonID, userID string) error {
	if anonID == "" || userID == "" || anonID == userID {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `UPDATE OR IGNORE game_records SET player_id=? WHERE player_id=?`, userID, anonID); err != nil {
		return fmt.Errorf("daily: claim records: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM game_records WHERE player_id=?`, anonID); err != nil {
		return fmt.Errorf("daily: drop claimed duplicates: %w", err)
	}
	return tx.Commit()
}

// LBRow is one leaderboard line.
type LBRow struct {
	PlayerID      string `json:"playerId"`
	StacksCleared int    `json:"stacksCleared"`
	DurationSec   int    `json:"durationSec"`
}

// Leaderboard returns the best results for date: fewest stacks, then
// fastest, then earliest.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT player_id, stacks_cleared, duration_sec
		 FROM game_records
		 WHERE date_key=?
		 ORDER BY stacks_cleared ASC, duration_sec ASC, created_at ASC
		 LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("daily: leaderboard: %w", err)
	}
	defer rows.Close()
	out := make([]LBRow, 0, limit)
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.PlayerID, &r.StacksCleared, &r.DurationSec); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// sinkTimeout bounds a record write made from inside a game session.
const sinkTimeout = 5 * time.Second

// Sink binds the store to one player as a stacks.RecordSink. Sessions
// outlive requests, so each write gets its own bounded context.
func (s *Store) Sink(playerID string) stacks.RecordSink {
	return stacks.RecordSinkFunc(func(rec stacks.Record) error {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		defer cancel()
		_, err := s.Save(ctx, playerID, rec)
		return err
	})
}

type scanner interface{ Scan(dest ...any) error }

func scanRecord(sc scanner) (stacks.Record, error) {
	var rec stacks.Record
	var finished, rows string
	if err := sc.Scan(&rec.DateKey, &finished, &rec.DurationSec, &rec.StacksCleared, &rec.Undos, &rows); err != nil {
		return stacks.Record{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, finished)
	if err != nil {
		return stacks.Record{}, fmt.Errorf("daily: bad finished_at %q: %w", finished, err)
	}
	rec.FinishedAt = t
	if err := json.Unmarshal([]byte(rows), &rec.Rows); err != nil {
		return stacks.Record{}, fmt.Errorf("daily: decode rows: %w", err)
	}
	return rec, nil
}
