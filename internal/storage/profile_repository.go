package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domerrors "github.com/ugrasage/sagebot-go/internal/errors"
)

// GetProfile returns the stored profile for a user, or ErrNotFound if
// the user has never declared an identity.
func (db *DB) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	query := `
		SELECT user_id, organization, is_group_member, group_name, subgroup,
		       first_name, last_name, patronymic, employee_id, updated_at
		FROM profiles WHERE user_id = ?
	`

	var p Profile
	err := db.conn.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &p.Organization, &p.IsGroupMember, &p.GroupName, &p.Subgroup,
		&p.FirstName, &p.LastName, &p.Patronymic, &p.EmployeeID, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

// SaveProfile inserts or updates a user profile.
func (db *DB) SaveProfile(ctx context.Context, p *Profile) error {
	query := `
		INSERT INTO profiles (user_id, organization, is_group_member, group_name, subgroup,
			first_name, last_name, patronymic, employee_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			organization = excluded.organization,
			is_group_member = excluded.is_group_member,
			group_name = excluded.group_name,
			subgroup = excluded.subgroup,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			patronymic = excluded.patronymic,
			employee_id = excluded.employee_id,
			updated_at = excluded.updated_at
	`
	_, err := db.conn.ExecContext(ctx, query,
		p.UserID, p.Organization, p.IsGroupMember, p.GroupName, p.Subgroup,
		p.FirstName, p.LastName, p.Patronymic, p.EmployeeID, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}
