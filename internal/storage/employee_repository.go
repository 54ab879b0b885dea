package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domerrors "github.com/ugrasage/sagebot-go/internal/errors"
	"github.com/ugrasage/sagebot-go/internal/stringutil"
)

const employeeColumns = `id, organization, first_name, last_name, patronymic,
	position, department, campus, room, cached_at`

func scanEmployees(rows *sql.Rows) ([]*Employee, error) {
	var employees []*Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(
			&e.ID, &e.Organization, &e.FirstName, &e.LastName, &e.Patronymic,
			&e.Position, &e.Department, &e.Campus, &e.Room, &e.CachedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, &e)
	}
	return employees, rows.Err()
}

// GetEmployee returns an employee by external id.
func (db *DB) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = ?`

	var e Employee
	err := db.conn.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.Organization, &e.FirstName, &e.LastName, &e.Patronymic,
		&e.Position, &e.Department, &e.Campus, &e.Room, &e.CachedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return &e, nil
}

// FindEmployees looks up employees by name parts. Extracted names arrive
// inflected, so each provided part is matched as a prefix after crude
// stemming. Empty parts are ignored; at least one must be non-empty.
func (db *DB) FindEmployees(ctx context.Context, org, lastName, firstName, patronymic string) ([]*Employee, error) {
	if lastName == "" && firstName == "" && patronymic == "" {
		return nil, domerrors.ErrInvalidInput
	}

	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE organization = ?
			AND (? = '' OR last_name LIKE ?)
			AND (? = '' OR first_name LIKE ?)
			AND (? = '' OR patronymic LIKE ?)
		ORDER BY last_name, first_name
	`
	rows, err := db.conn.QueryContext(ctx, query,
		org,
		lastName, stemPattern(lastName),
		firstName, stemPattern(firstName),
		patronymic, stemPattern(patronymic),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find employees: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanEmployees(rows)
}

func stemPattern(part string) string {
	return stringutil.Stem(stringutil.Lower(part)) + "%"
}

// ReplaceEmployees swaps in a freshly scraped employee roster for an
// organization in one transaction.
func (db *DB) ReplaceEmployees(ctx context.Context, org string, employees []*Employee) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin employee replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM employees WHERE organization = ?`, org); err != nil {
		return fmt.Errorf("failed to clear employees: %w", err)
	}

	query := `
		INSERT INTO employees (id, organization, first_name, last_name, patronymic,
			position, department, campus, room, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare employee insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	cachedAt := time.Now().Unix()
	for _, e := range employees {
		if _, err := stmt.ExecContext(ctx,
			e.ID, org, e.FirstName, e.LastName, e.Patronymic,
			e.Position, e.Department, e.Campus, e.Room, cachedAt,
		); err != nil {
			return fmt.Errorf("failed to insert employee %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit employee replace: %w", err)
	}
	return nil
}

// CountEmployees returns the number of unexpired roster entries for an
// organization. Used by health checks.
func (db *DB) CountEmployees(ctx context.Context, org string) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM employees WHERE organization = ? AND cached_at > ?`,
		org, db.getTTLTimestamp(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count employees: %w", err)
	}
	return count, nil
}
