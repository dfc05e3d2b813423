package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robalobadob/stacks/internal/stacks"
)

// SQLite keeps snapshots as JSON in the session_snapshots table.
type SQLite struct{ db *sql.DB }

func NewSQLite(db *sql.DB) *SQLite { return &SQLite{db: db} }

func (s *SQLite) Save(ctx context.Context, playerID string, snap stacks.Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("store: encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session_snapshots (player_id, date_key, body, updated_at)
		 VALUES (?,?,?,?)
		 ON CONFLICT(player_id) DO UPDATE SET
		   date_key=excluded.date_key, body=excluded.body, updated_at=excluded.updated_at`,
		playerID, snap.DateKey, string(body), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("store: save snapshot: %w", err)
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context, playerID string) (stacks.Snapshot, bool, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		"SELECT body FROM session_snapshots WHERE player_id=?", playerID,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return stacks.Snapshot{}, false, nil
	}
	if err != nil {
		return stacks.Snapshot{}, false, fmt.Errorf("store: load snapshot: %w", err)
	}
	var snap stacks.Snapshot
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		return stacks.Snapshot{}, false, fmt.Errorf("store: decode snapshot: %w", err)
	}
	return snap, true, nil
}

func (s *SQLite) Delete(ctx context.Context, playerID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM session_snapshots WHERE player_id=?", playerID); err != nil {
		return fmt.Errorf("store: delete snapshot: %w", err)
	}
	return nil
}

// Claim moves anonID's snapshot to userID unless userID already has one.
func (s *SQLite) Claim(ctx context.Context, anonID, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: claim: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx,
		"UPDATE OR IGNORE session_snapshots SET player_id=? WHERE player_id=?", userID, anonID,
	); err != nil {
		return fmt.Errorf("store: claim: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM session_snapshots WHERE player_id=?", anonID); err != nil {
		return fmt.Errorf("store: claim: %w", err)
	}
	return tx.Commit()
}
