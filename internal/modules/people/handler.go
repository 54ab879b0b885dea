// Package people implements the person-centric intents: employee info,
// an employee's current whereabouts, and who shares a class session.
package people

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domerrors "github.com/ugrasage/sagebot-go/internal/errors"
	"github.com/ugrasage/sagebot-go/internal/logger"
	"github.com/ugrasage/sagebot-go/internal/nlu/entity"
	"github.com/ugrasage/sagebot-go/internal/storage"
)

// Handler answers person-centric questions.
type Handler struct {
	db     *storage.DB
	logger *logger.Logger
	now    func() time.Time
}

// NewHandler creates a people handler.
func NewHandler(db *storage.DB, log *logger.Logger) *Handler {
	return &Handler{db: db, logger: log.WithModule("people"), now: time.Now}
}

// NewHandlerWithClock creates a people handler with an injected clock.
func NewHandlerWithClock(db *storage.DB, log *logger.Logger, now func() time.Time) *Handler {
	return &Handler{db: db, logger: log.WithModule("people"), now: now}
}

// findEmployee resolves the store's employee entity to a roster record.
func (h *Handler) findEmployee(ctx context.Context, ents *entity.Store) (*storage.Employee, error) {
	emp, ok := ents.Employee()
	if !ok {
		return nil, domerrors.ErrNotFound
	}

	if emp.ExternalID != "" {
		return h.db.GetEmployee(ctx, emp.ExternalID)
	}

	org := ""
	if o, hasOrg := ents.Organization(); hasOrg {
		org = o.Name
	}
	found, err := h.db.FindEmployees(ctx, org, emp.Name.Last, emp.Name.First, emp.Name.Patronymic)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, domerrors.ErrNotFound
	}
	return found[0], nil
}

// EmployeeInfo answers who a person is: position and department.
func (h *Handler) EmployeeInfo(ctx context.Context, _ string, ents *entity.Store) (string, error) {
	e, err := h.findEmployee(ctx, ents)
	if errors.Is(err, domerrors.ErrNotFound) {
		return "Такой сотрудник мне не известен.", nil
	}
	if err != nil {
		return "", err
	}

	parts := []string{e.FullName()}
	if e.Position != "" {
		parts = append(parts, e.Position)
	}
	if e.Department != "" {
		parts = append(parts, e.Department)
	}
	return strings.Join(parts, ", ") + ".", nil
}

// EducatorPlace answers where a person currently is: the room of the
// lesson in progress, or their office from the roster.
func (h *Handler) EducatorPlace(ctx context.Context, _ string, ents *entity.Store) (string, error) {
	e, err := h.findEmployee(ctx, ents)
	if errors.Is(err, domerrors.ErrNotFound) {
		return "Такой сотрудник мне не известен.", nil
	}
	if err != nil {
		return "", err
	}

	now := h.now()
	weekday := goWeekday(now.Weekday())
	clock := now.Format("15:04")

	lessons, err := h.db.GetEmployeeLessons(ctx, e.Organization, e.ID, weekday)
	if err != nil {
		return "", err
	}
	for _, l := range lessons {
		if l.StartsAt <= clock && clock < l.EndsAt {
			place := "аудитории " + l.Room
			if l.Campus != "" {
				place += " корпуса " + l.Campus
			}
			return fmt.Sprintf("%s сейчас ведет %s в %s.", e.FullName(), l.ClassName, place), nil
		}
	}

	if e.Room != "" {
		place := "кабинет " + e.Room
		if e.Campus != "" {
			place += " в корпусе " + e.Campus
		}
		return fmt.Sprintf("Сейчас у %s занятий нет, %s.", e.FullName(), place), nil
	}
	return fmt.Sprintf("Сейчас у %s занятий нет.", e.FullName()), nil
}

// ClassPeer answers who shares a session: the other groups scheduled
// for the same class at the same time, and the educator leading it.
func (h *Handler) ClassPeer(ctx context.Context, _ string, ents *entity.Store) (string, error) {
	org := ""
	if o, ok := ents.Organization(); ok {
		org = o.Name
	}

	group, hasGroup := ents.Group()
	if !hasGroup {
		if e, err := h.findEmployee(ctx, ents); err == nil {
			return h.employeePeers(ctx, e)
		}
		return "Не нашлось занятий, о которых можно рассказать.", nil
	}

	weekday := goWeekday(h.now().Weekday())
	subgroup := ""
	if sg, ok := ents.Subgroup(); ok {
		subgroup = sg.Name
	}
	lessons, err := h.db.GetGroupLessons(ctx, org, group.Name, subgroup, weekday)
	if err != nil {
		return "", err
	}

	target := pickLesson(lessons, ents)
	if target == nil {
		return fmt.Sprintf("Сегодня у группы %s занятий нет.", group.Name), nil
	}

	peers, err := h.sessionPeers(ctx, org, target, group.Name)
	if err != nil {
		return "", err
	}

	text := fmt.Sprintf("На %s (%s) ", target.ClassName, target.StartsAt)
	if len(peers) > 0 {
		text += fmt.Sprintf("вместе с группой %s будут: %s. ", group.Name, strings.Join(peers, ", "))
	} else {
		text += fmt.Sprintf("группа %s будет одна. ", group.Name)
	}
	if target.EmployeeName != "" {
		text += "Ведет " + target.EmployeeName + "."
	}
	return strings.TrimSpace(text), nil
}

// pickLesson chooses the session to describe: the named class when one
// is present, otherwise the first lesson of the day.
func pickLesson(lessons []*storage.Lesson, ents *entity.Store) *storage.Lesson {
	if len(lessons) == 0 {
		return nil
	}
	if cls, ok := ents.Class(); ok {
		for _, l := range lessons {
			if l.ClassName == cls.Name {
				return l
			}
		}
		return nil
	}
	return lessons[0]
}

// sessionPeers finds other groups scheduled for the same class at the
// same time slot.
func (h *Handler) sessionPeers(ctx context.Context, org string, target *storage.Lesson, ownGroup string) ([]string, error) {
	lessons, err := h.db.GetRoomLessons(ctx, org, target.Campus, target.Room, target.Weekday)
	if err != nil {
		return nil, err
	}

	var peers []string
	for _, l := range lessons {
		if l.GroupName != ownGroup && l.StartsAt == target.StartsAt && l.ClassName == target.ClassName {
			peers = append(peers, l.GroupName)
		}
	}
	return peers, nil
}

// employeePeers lists the groups an employee teaches today.
func (h *Handler) employeePeers(ctx context.Context, e *storage.Employee) (string, error) {
	weekday := goWeekday(h.now().Weekday())
	lessons, err := h.db.GetEmployeeLessons(ctx, e.Organization, e.ID, weekday)
	if err != nil {
		return "", err
	}
	if len(lessons) == 0 {
		return fmt.Sprintf("Сегодня у %s занятий нет.", e.FullName()), nil
	}

	seen := make(map[string]struct{})
	var groups []string
	for _, l := range lessons {
		if _, ok := seen[l.GroupName]; ok {
			continue
		}
		seen[l.GroupName] = struct{}{}
		groups = append(groups, l.GroupName)
	}
	return fmt.Sprintf("Сегодня %s занимается с группами: %s.", e.FullName(), strings.Join(groups, ", ")), nil
}

func goWeekday(wd time.Weekday) int {
	if wd == time.Sunday {
		return 7
	}
	return int(wd)
}
