package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const tokenKey = "auth.token"

// TokenStore persists the bearer token for one server origin.
// The session manager is the only writer; other components read through
// Get. An empty token means no credential is stored.
type TokenStore struct {
	db     *DB
	origin string
}

// NewTokenStore creates a token store scoped to the given origin.
func NewTokenStore(db *DB, origin string) *TokenStore {
	return &TokenStore{db: db, origin: origin}
}

// Set stores the bearer token, replacing any previous value.
func (s *TokenStore) Set(ctx context.Context, token string) error {
	query := `
		INSERT INTO settings (origin, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (origin, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query, s.origin, tokenKey, token, time.Now())
	if err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

// Clear removes the stored token. Clearing an absent token is a no-op.
func (s *TokenStore) Clear(ctx context.Context) error {
	query := `DELETE FROM settings WHERE origin = ? AND key = ?`

	_, err := s.db.ExecContext(ctx, query, s.origin, tokenKey)
	if err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}

// Get returns the stored token, or "" when none is present.
func (s *TokenStore) Get(ctx context.Context) (string, error) {
	query := `SELECT value FROM settings WHERE origin = ? AND key = ?`

	var token string
	err := s.db.QueryRowContext(ctx, query, s.origin, tokenKey).Scan(&token)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return token, nil
}
