// Package schedule implements the schedule lookup intents: the next
// upcoming class and the day's class list.
package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ugrasage/sagebot-go/internal/logger"
	"github.com/ugrasage/sagebot-go/internal/nlu/entity"
	"github.com/ugrasage/sagebot-go/internal/storage"
)

// Weekday display names, 1 = Monday.
var weekdayNames = [8]string{"", "понедельник", "вторник", "среда", "четверг", "пятница", "суббота", "воскресенье"}

var specNames = map[string]string{
	"лаб": "лабораторная",
	"пр":  "практика",
	"лек": "лекция",
}

// Handler answers schedule questions from the lessons table.
type Handler struct {
	db     *storage.DB
	logger *logger.Logger
	now    func() time.Time
}

// NewHandler creates a schedule handler.
func NewHandler(db *storage.DB, log *logger.Logger) *Handler {
	return &Handler{db: db, logger: log.WithModule("schedule"), now: time.Now}
}

// NewHandlerWithClock creates a schedule handler with an injected clock.
func NewHandlerWithClock(db *storage.DB, log *logger.Logger, now func() time.Time) *Handler {
	return &Handler{db: db, logger: log.WithModule("schedule"), now: now}
}

// goWeekday converts time.Weekday to the 1=Monday..7=Sunday convention.
func goWeekday(wd time.Weekday) int {
	if wd == time.Sunday {
		return 7
	}
	return int(wd)
}

// targetDay resolves the day entity to a concrete weekday and a display
// label. Absent day means today. A negative weekday refers to the named
// day of the previous week; the weekly schedule repeats, so lookup uses
// the same weekday.
func (h *Handler) targetDay(ents *entity.Store) (int, string) {
	day, ok := ents.Day()
	if !ok {
		return goWeekday(h.now().Weekday()), "сегодня"
	}
	if day.Weekday != nil {
		wd := *day.Weekday
		if wd < 0 {
			wd = -wd
		}
		return wd, weekdayNames[wd]
	}

	offset := 0
	if day.Offset != nil {
		offset = *day.Offset
	}
	target := h.now().AddDate(0, 0, offset)
	label := weekdayNames[goWeekday(target.Weekday())]
	switch offset {
	case 0:
		label = "сегодня"
	case 1:
		label = "завтра"
	case -1:
		label = "вчера"
	}
	return goWeekday(target.Weekday()), label
}

// lessonsFor fetches the day's lessons for whichever subject the store
// identifies: a group (with optional subgroup), an employee, or a room.
func (h *Handler) lessonsFor(ctx context.Context, ents *entity.Store, weekday int) ([]*storage.Lesson, string, error) {
	org := ""
	if o, ok := ents.Organization(); ok {
		org = o.Name
	}

	if group, ok := ents.Group(); ok {
		subgroup := ""
		if sg, sgOK := ents.Subgroup(); sgOK {
			subgroup = sg.Name
		}
		lessons, err := h.db.GetGroupLessons(ctx, org, group.Name, subgroup, weekday)
		return lessons, fmt.Sprintf("у группы %s", group.Name), err
	}

	if emp, ok := ents.Employee(); ok && emp.ExternalID != "" {
		lessons, err := h.db.GetEmployeeLessons(ctx, org, emp.ExternalID, weekday)
		return lessons, fmt.Sprintf("у преподавателя %s", emp.Name.Last), err
	}

	if place, ok := ents.Place(); ok {
		lessons, err := h.db.GetRoomLessons(ctx, org, place.Campus, place.Room, weekday)
		return lessons, fmt.Sprintf("в аудитории %s", place.Room), err
	}

	return nil, "", nil
}

func formatLesson(l *storage.Lesson) string {
	var sb strings.Builder
	sb.WriteString(l.StartsAt)
	sb.WriteString(" ")
	sb.WriteString(l.ClassName)
	if name, ok := specNames[l.Spec]; ok {
		sb.WriteString(" (")
		sb.WriteString(name)
		sb.WriteString(")")
	}
	if l.Room != "" {
		sb.WriteString(", аудитория ")
		sb.WriteString(l.Room)
		if l.Campus != "" {
			sb.WriteString(" корпус ")
			sb.WriteString(l.Campus)
		}
	}
	if l.EmployeeName != "" {
		sb.WriteString(", ")
		sb.WriteString(l.EmployeeName)
	}
	return sb.String()
}

// NextClass answers the next upcoming class question. On the current
// day only lessons that have not started yet count; on other days the
// first lesson of the day is the answer.
func (h *Handler) NextClass(ctx context.Context, _ string, ents *entity.Store) (string, error) {
	weekday, label := h.targetDay(ents)
	lessons, subject, err := h.lessonsFor(ctx, ents, weekday)
	if err != nil {
		return "", err
	}

	today := !ents.Contains(entity.KindDay) || label == "сегодня"
	if today {
		cutoff := h.now().Format("15:04")
		upcoming := lessons[:0:0]
		for _, l := range lessons {
			if l.StartsAt > cutoff {
				upcoming = append(upcoming, l)
			}
		}
		lessons = upcoming
	}

	if len(lessons) == 0 {
		return fmt.Sprintf("Больше занятий %s %s нет.", label, subjectOrDefault(subject)), nil
	}

	// Filter to the asked class when one was named.
	if cls, ok := ents.Class(); ok {
		for _, l := range lessons {
			if l.ClassName == cls.Name && (cls.Spec == "" || l.Spec == cls.Spec) {
				return fmt.Sprintf("Ближайшая %s %s: %s.", cls.Name, label, formatLesson(l)), nil
			}
		}
		return fmt.Sprintf("Занятий по %s %s не нашлось.", cls.Name, label), nil
	}

	return fmt.Sprintf("Следующее занятие %s: %s.", label, formatLesson(lessons[0])), nil
}

// ClassList answers the day's class list question.
func (h *Handler) ClassList(ctx context.Context, _ string, ents *entity.Store) (string, error) {
	weekday, label := h.targetDay(ents)
	lessons, subject, err := h.lessonsFor(ctx, ents, weekday)
	if err != nil {
		return "", err
	}

	if len(lessons) == 0 {
		return fmt.Sprintf("Занятий %s %s нет.", label, subjectOrDefault(subject)), nil
	}

	lines := make([]string, 0, len(lessons)+1)
	lines = append(lines, fmt.Sprintf("Занятия %s %s:", label, subjectOrDefault(subject)))
	for _, l := range lessons {
		lines = append(lines, formatLesson(l))
	}
	return strings.Join(lines, "\n"), nil
}

func subjectOrDefault(subject string) string {
	if subject == "" {
		return "у вас"
	}
	return subject
}
