package storage

import (
	"context"
	"fmt"
	"time"
)

// ListClassNames returns the known canonical class names for an
// organization. An empty organization lists every name, which is what
// the catalog loads at startup.
func (db *DB) ListClassNames(ctx context.Context, org string) ([]string, error) {
	query := `
		SELECT name FROM class_names
		WHERE (? = '' OR organization = ?)
		ORDER BY name
	`
	rows, err := db.conn.QueryContext(ctx, query, org, org)
	if err != nil {
		return nil, fmt.Errorf("failed to list class names: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan class name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ReplaceClassNames swaps in the class name roster for an organization.
func (db *DB) ReplaceClassNames(ctx context.Context, org string, names []string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin class name replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM class_names WHERE organization = ?`, org); err != nil {
		return fmt.Errorf("failed to clear class names: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO class_names (organization, name, cached_at) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare class name insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	cachedAt := time.Now().Unix()
	for _, name := range names {
		if _, err := stmt.ExecContext(ctx, org, name, cachedAt); err != nil {
			return fmt.Errorf("failed to insert class name %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit class name replace: %w", err)
	}
	return nil
}
