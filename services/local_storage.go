package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// LocalStore is the on-device staging store: JSON-encoded values
// under string keys, held in SQLite until migration moves them into
// the hosted backend. Callers needing plain local storage use it
// directly; it is not reachable through the selector.
type LocalStore struct {
	db *sql.DB
}

// OpenLocalStore opens (or creates) the staging database at path.
func OpenLocalStore(path string) (*LocalStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("local store path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping local store: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS staged_state (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
	)`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to init local store schema: %w", err)
	}

	return &LocalStore{db: db}, nil
}

func (s *LocalStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the raw JSON stored under key and whether it exists.
func (s *LocalStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM staged_state WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read local key %s: %w", key, err)
	}
	return []byte(value), true, nil
}

// Set stores raw JSON under key, replacing any previous value.
func (s *LocalStore) Set(ctx context.Context, key string, value []byte) error {
	query := `
	INSERT INTO staged_state (key, value) VALUES (?, ?)
	ON CONFLICT (key) DO UPDATE
	SET value = excluded.value,
	    updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
	`
	if _, err := s.db.ExecContext(ctx, query, key, string(value)); err != nil {
		return fmt.Errorf("failed to write local key %s: %w", key, err)
	}
	return nil
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM staged_state WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete local key %s: %w", key, err)
	}
	return nil
}

// Staged key names, one per entity kind, per user.
func profileKey(userID string) string    { return "user_profile_" + userID }
func settingsKey(userID string) string   { return "game_settings_" + userID }
func statisticsKey(userID string) string { return "game_statistics_" + userID }
func powerUpsKey(userID string) string   { return "power_ups_" + userID }
func clanKey(userID string) string       { return "clan_" + userID }
func referralsKey(userID string) string  { return "referrals_" + userID }

// StagedKeys lists every staging key the migration owns for a user.
func StagedKeys(userID string) []string {
	return []string{
		profileKey(userID),
		settingsKey(userID),
		statisticsKey(userID),
		powerUpsKey(userID),
		clanKey(userID),
		referralsKey(userID),
	}
}

// HasStagedData reports whether any staging key exists for the user.
func (s *LocalStore) HasStagedData(ctx context.Context, userID string) (bool, error) {
	for _, key := range StagedKeys(userID) {
		_, found, err := s.Get(ctx, key)
		if err != nil {
			return false, err
		}
		if found {
			return true, nil
		}
	}
	return false, nil
}
