// Package profile implements the identity declaration intent: the user
// states who they are, and later turns default to that identity.
package profile

import (
	"context"
	"fmt"

	"github.com/ugrasage/sagebot-go/internal/logger"
	"github.com/ugrasage/sagebot-go/internal/nlu/entity"
	"github.com/ugrasage/sagebot-go/internal/storage"
)

// Handler persists a declared identity.
type Handler struct {
	db     *storage.DB
	logger *logger.Logger
}

// NewHandler creates a profile handler.
func NewHandler(db *storage.DB, log *logger.Logger) *Handler {
	return &Handler{db: db, logger: log.WithModule("profile")}
}

// Declare saves the identity the collected entities describe: the
// organization plus either a group (with optional subgroup) or an
// employee name.
func (h *Handler) Declare(ctx context.Context, userID string, ents *entity.Store) (string, error) {
	p := &storage.Profile{UserID: userID}

	if org, ok := ents.Organization(); ok {
		p.Organization = org.Name
	}

	if group, ok := ents.Group(); ok {
		p.IsGroupMember = true
		p.GroupName = group.Name
		if sg, sgOK := ents.Subgroup(); sgOK {
			p.Subgroup = sg.Name
		}
	} else if emp, ok := ents.Employee(); ok {
		p.FirstName = emp.Name.First
		p.LastName = emp.Name.Last
		p.Patronymic = emp.Name.Patronymic
		p.EmployeeID = emp.ExternalID
	}

	if err := h.db.SaveProfile(ctx, p); err != nil {
		return "", err
	}
	h.logger.WithUser(userID).Info("Profile updated")

	if p.IsGroupMember {
		if p.Subgroup != "" {
			return fmt.Sprintf("Запомнил: группа %s, подгруппа %s.", p.GroupName, p.Subgroup), nil
		}
		return fmt.Sprintf("Запомнил: группа %s.", p.GroupName), nil
	}
	return "Запомнил, будем знакомы!", nil
}
