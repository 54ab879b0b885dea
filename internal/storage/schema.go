package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
// Note: WAL mode is configured in db.go.
func InitSchema(db *sql.DB) error {
	if err := createConversationsTable(db); err != nil {
		return err
	}
	if err := createProfilesTable(db); err != nil {
		return err
	}
	if err := createLessonsTable(db); err != nil {
		return err
	}
	if err := createEmployeesTable(db); err != nil {
		return err
	}
	return createClassNamesTable(db)
}

func createConversationsTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS conversations (
		user_id TEXT PRIMARY KEY,
		state TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_updated_at ON conversations(updated_at);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create conversations table: %w", err)
	}

	return nil
}

func createProfilesTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		organization TEXT NOT NULL,
		is_group_member INTEGER NOT NULL,
		group_name TEXT NOT NULL DEFAULT '',
		subgroup TEXT NOT NULL DEFAULT '',
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		patronymic TEXT NOT NULL DEFAULT '',
		employee_id TEXT NOT NULL DEFAULT '',
		updated_at INTEGER NOT NULL
	);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create profiles table: %w", err)
	}

	return nil
}

func createLessonsTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS lessons (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		organization TEXT NOT NULL,
		group_name TEXT NOT NULL,
		subgroup TEXT NOT NULL DEFAULT '',
		class_name TEXT NOT NULL,
		spec TEXT NOT NULL DEFAULT '',
		weekday INTEGER NOT NULL,
		starts_at TEXT NOT NULL,
		ends_at TEXT NOT NULL,
		campus TEXT NOT NULL DEFAULT '',
		room TEXT NOT NULL DEFAULT '',
		employee_id TEXT NOT NULL DEFAULT '',
		employee_name TEXT NOT NULL DEFAULT '',
		cached_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_lessons_group ON lessons(organization, group_name, weekday);
	CREATE INDEX IF NOT EXISTS idx_lessons_employee ON lessons(organization, employee_name, weekday);
	CREATE INDEX IF NOT EXISTS idx_lessons_room ON lessons(organization, campus, room, weekday);
	CREATE INDEX IF NOT EXISTS idx_lessons_cached_at ON lessons(cached_at);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create lessons table: %w", err)
	}

	return nil
}

func createEmployeesTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		organization TEXT NOT NULL,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL,
		patronymic TEXT NOT NULL DEFAULT '',
		position TEXT NOT NULL DEFAULT '',
		department TEXT NOT NULL DEFAULT '',
		campus TEXT NOT NULL DEFAULT '',
		room TEXT NOT NULL DEFAULT '',
		cached_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_employees_last_name ON employees(organization, last_name);
	CREATE INDEX IF NOT EXISTS idx_employees_cached_at ON employees(cached_at);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create employees table: %w", err)
	}

	return nil
}

func createClassNamesTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS class_names (
		organization TEXT NOT NULL,
		name TEXT NOT NULL,
		cached_at INTEGER NOT NULL,
		PRIMARY KEY (organization, name)
	);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create class_names table: %w", err)
	}

	return nil
}
