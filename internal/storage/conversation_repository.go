package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domerrors "github.com/ugrasage/sagebot-go/internal/errors"
)

// GetConversation returns the persisted dialog state blob for a user.
// The blob is opaque JSON owned by the dialog engine.
func (db *DB) GetConversation(ctx context.Context, userID string) ([]byte, error) {
	query := `SELECT state FROM conversations WHERE user_id = ?`

	var state []byte
	err := db.conn.QueryRowContext(ctx, query, userID).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return state, nil
}

// SaveConversation inserts or updates the dialog state blob for a user.
func (db *DB) SaveConversation(ctx context.Context, userID string, state []byte) error {
	query := `
		INSERT INTO conversations (user_id, state, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			state = excluded.state,
			updated_at = excluded.updated_at
	`
	if _, err := db.conn.ExecContext(ctx, query, userID, state, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

// DeleteConversation drops the dialog state for a user. Used by the
// welcome/reset path. Deleting a missing conversation is not an error.
func (db *DB) DeleteConversation(ctx context.Context, userID string) error {
	query := `DELETE FROM conversations WHERE user_id = ?`
	if _, err := db.conn.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

// PurgeStaleConversations deletes conversations untouched for longer
// than maxAge and returns how many were removed.
func (db *DB) PurgeStaleConversations(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).Unix()
	res, err := db.conn.ExecContext(ctx, `DELETE FROM conversations WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge stale conversations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged conversations: %w", err)
	}
	return n, nil
}
