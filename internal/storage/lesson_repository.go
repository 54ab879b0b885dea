package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const lessonColumns = `id, organization, group_name, subgroup, class_name, spec,
	weekday, starts_at, ends_at, campus, room, employee_id, employee_name, cached_at`

func scanLessons(rows *sql.Rows) ([]*Lesson, error) {
	var lessons []*Lesson
	for rows.Next() {
		var l Lesson
		if err := rows.Scan(
			&l.ID, &l.Organization, &l.GroupName, &l.Subgroup, &l.ClassName, &l.Spec,
			&l.Weekday, &l.StartsAt, &l.EndsAt, &l.Campus, &l.Room,
			&l.EmployeeID, &l.EmployeeName, &l.CachedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lessons = append(lessons, &l)
	}
	return lessons, rows.Err()
}

// GetGroupLessons returns the lessons of a group on a weekday, ordered
// by start time. Subgroup filtering keeps whole-group lessons (empty
// subgroup) plus the requested subgroup; an empty subgroup argument
// returns everything.
func (db *DB) GetGroupLessons(ctx context.Context, org, group, subgroup string, weekday int) ([]*Lesson, error) {
	query := `
		SELECT ` + lessonColumns + `
		FROM lessons
		WHERE organization = ? AND group_name = ? AND weekday = ?
			AND (subgroup = '' OR ? = '' OR subgroup = ?)
			AND cached_at > ?
		ORDER BY starts_at
	`
	rows, err := db.conn.QueryContext(ctx, query, org, group, weekday, subgroup, subgroup, db.getTTLTimestamp())
	if err != nil {
		return nil, fmt.Errorf("failed to query group lessons: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanLessons(rows)
}

// GetEmployeeLessons returns the lessons an employee teaches on a
// weekday, ordered by start time.
func (db *DB) GetEmployeeLessons(ctx context.Context, org, employeeID string, weekday int) ([]*Lesson, error) {
	query := `
		SELECT ` + lessonColumns + `
		FROM lessons
		WHERE organization = ? AND employee_id = ? AND weekday = ?
			AND cached_at > ?
		ORDER BY starts_at
	`
	rows, err := db.conn.QueryContext(ctx, query, org, employeeID, weekday, db.getTTLTimestamp())
	if err != nil {
		return nil, fmt.Errorf("failed to query employee lessons: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanLessons(rows)
}

// GetRoomLessons returns the lessons held in a room on a weekday,
// ordered by start time. An empty campus matches any campus.
func (db *DB) GetRoomLessons(ctx context.Context, org, campus, room string, weekday int) ([]*Lesson, error) {
	query := `
		SELECT ` + lessonColumns + `
		FROM lessons
		WHERE organization = ? AND room = ? AND weekday = ?
			AND (? = '' OR campus = ?)
			AND cached_at > ?
		ORDER BY starts_at
	`
	rows, err := db.conn.QueryContext(ctx, query, org, room, weekday, campus, campus, db.getTTLTimestamp())
	if err != nil {
		return nil, fmt.Errorf("failed to query room lessons: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanLessons(rows)
}

// ReplaceLessons swaps in a freshly scraped lesson set for an
// organization in one transaction.
func (db *DB) ReplaceLessons(ctx context.Context, org string, lessons []*Lesson) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin lesson replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM lessons WHERE organization = ?`, org); err != nil {
		return fmt.Errorf("failed to clear lessons: %w", err)
	}

	query := `
		INSERT INTO lessons (organization, group_name, subgroup, class_name, spec,
			weekday, starts_at, ends_at, campus, room, employee_id, employee_name, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare lesson insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	cachedAt := time.Now().Unix()
	for _, l := range lessons {
		if _, err := stmt.ExecContext(ctx,
			org, l.GroupName, l.Subgroup, l.ClassName, l.Spec,
			l.Weekday, l.StartsAt, l.EndsAt, l.Campus, l.Room,
			l.EmployeeID, l.EmployeeName, cachedAt,
		); err != nil {
			return fmt.Errorf("failed to insert lesson for %s: %w", l.GroupName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit lesson replace: %w", err)
	}
	return nil
}

// ListOrganizations returns the distinct organizations that have
// unexpired lessons, sorted.
func (db *DB) ListOrganizations(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT DISTINCT organization FROM lessons WHERE cached_at > ? ORDER BY organization`,
		db.getTTLTimestamp(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query organizations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var orgs []string
	for rows.Next() {
		var org string
		if err := rows.Scan(&org); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

// CountLessons returns the number of unexpired lessons for an
// organization. Used by health checks and the refresh scheduler.
func (db *DB) CountLessons(ctx context.Context, org string) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM lessons WHERE organization = ? AND cached_at > ?`,
		org, db.getTTLTimestamp(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count lessons: %w", err)
	}
	return count, nil
}
