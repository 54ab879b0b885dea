package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugrasage/sagebot-go/internal/logger"
	"github.com/ugrasage/sagebot-go/internal/nlu/entity"
	"github.com/ugrasage/sagebot-go/internal/storage"
)

// mondayMorning is a fixed Monday 09:00 clock.
func mondayMorning() time.Time {
	return time.Date(2024, 9, 2, 9, 0, 0, 0, time.UTC)
}

func setupHandler(t *testing.T) *Handler {
	t.Helper()

	db, err := storage.NewTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	lessons := []*storage.Lesson{
		{
			GroupName: "1491м", ClassName: "математический анализ", Spec: "лек",
			Weekday: 1, StartsAt: "08:30", EndsAt: "10:00", Room: "312", Campus: "1",
			EmployeeID: "42", EmployeeName: "петров иван",
		},
		{
			GroupName: "1491м", ClassName: "физика", Spec: "лаб",
			Weekday: 1, StartsAt: "10:15", EndsAt: "11:45", Room: "101",
			EmployeeID: "43", EmployeeName: "сидорова анна",
		},
		{
			GroupName: "1491м", ClassName: "физика", Spec: "лек",
			Weekday: 2, StartsAt: "08:30", EndsAt: "10:00", Room: "201",
			EmployeeID: "43", EmployeeName: "сидорова анна",
		},
	}
	require.NoError(t, db.ReplaceLessons(context.Background(), "югу", lessons))

	return NewHandlerWithClock(db, logger.New("error"), mondayMorning)
}

func groupStore(values ...entity.Value) *entity.Store {
	s := entity.NewStore()
	s.Set(entity.Organization{Name: "югу"})
	s.Set(entity.Group{Name: "1491м"})
	for _, v := range values {
		s.Set(v)
	}
	return s
}

func TestNextClass(t *testing.T) {
	h := setupHandler(t)
	ctx := context.Background()

	t.Run("skips already started lessons today", func(t *testing.T) {
		text, err := h.NextClass(ctx, "u1", groupStore())
		require.NoError(t, err)
		assert.Contains(t, text, "физика")
		assert.Contains(t, text, "10:15")
		assert.NotContains(t, text, "математический")
	})

	t.Run("explicit day takes the first lesson", func(t *testing.T) {
		text, err := h.NextClass(ctx, "u1", groupStore(entity.DayWeekday(2)))
		require.NoError(t, err)
		assert.Contains(t, text, "вторник")
		assert.Contains(t, text, "08:30")
	})

	t.Run("named class filter", func(t *testing.T) {
		text, err := h.NextClass(ctx, "u1", groupStore(entity.Class{Name: "физика"}))
		require.NoError(t, err)
		assert.Contains(t, text, "физика")
	})

	t.Run("no lessons left", func(t *testing.T) {
		late := NewHandlerWithClock(h.db, logger.New("error"), func() time.Time {
			return time.Date(2024, 9, 2, 20, 0, 0, 0, time.UTC)
		})
		text, err := late.NextClass(ctx, "u1", groupStore())
		require.NoError(t, err)
		assert.Contains(t, text, "нет")
	})
}

func TestClassList(t *testing.T) {
	h := setupHandler(t)
	ctx := context.Background()

	t.Run("today lists both lessons", func(t *testing.T) {
		text, err := h.ClassList(ctx, "u1", groupStore())
		require.NoError(t, err)
		assert.Contains(t, text, "математический анализ")
		assert.Contains(t, text, "физика")
		assert.Contains(t, text, "группы 1491м")
	})

	t.Run("tomorrow", func(t *testing.T) {
		text, err := h.ClassList(ctx, "u1", groupStore(entity.DayOffset(1)))
		require.NoError(t, err)
		assert.Contains(t, text, "завтра")
		assert.Contains(t, text, "физика")
		assert.NotContains(t, text, "математический")
	})

	t.Run("empty day", func(t *testing.T) {
		text, err := h.ClassList(ctx, "u1", groupStore(entity.DayWeekday(5)))
		require.NoError(t, err)
		assert.Contains(t, text, "нет")
	})

	t.Run("employee subject", func(t *testing.T) {
		store := entity.NewStore()
		store.Set(entity.Organization{Name: "югу"})
		store.Set(entity.Employee{Name: entity.PersonName{Last: "сидорова"}, ExternalID: "43"})
		text, err := h.ClassList(ctx, "u1", store)
		require.NoError(t, err)
		assert.Contains(t, text, "преподавателя сидорова")
		assert.Contains(t, text, "физика")
	})
}
