package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists session scripts so they survive restarts.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and migrates) the session database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS session_scripts (
		session_id TEXT PRIMARY KEY,
		text       TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate session db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Put(ctx context.Context, sessionID, text string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO session_scripts (session_id, text, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (session_id) DO UPDATE SET text = excluded.text, updated_at = excluded.updated_at`,
		sessionID, text, time.Now().UnixMilli())
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, sessionID string) (Script, bool, error) {
	var text string
	var updated int64
	err := s.db.QueryRowContext(ctx,
		`SELECT text, updated_at FROM session_scripts WHERE session_id = ?`, sessionID).Scan(&text, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Script{}, false, nil
	}
	if err != nil {
		return Script{}, false, err
	}
	return Script{SessionID: sessionID, Text: text, UpdatedAt: time.UnixMilli(updated)}, true, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
