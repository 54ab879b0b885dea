package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugrasage/sagebot-go/internal/nlu/entity"
	"github.com/ugrasage/sagebot-go/internal/nlu/extract"
)

func contextWith(values ...entity.Value) *entity.Store {
	s := entity.NewStore()
	for _, v := range values {
		s.Set(v)
	}
	return s
}

func studentProfile() *Profile {
	return &Profile{
		Organization:  "югорский государственный университет",
		IsGroupMember: true,
		Group:         "1491м",
	}
}

func TestContextFill(t *testing.T) {
	t.Parallel()

	t.Run("pronoun pulls employee and organization", func(t *testing.T) {
		t.Parallel()
		ctx := contextWith(
			entity.Employee{Name: entity.PersonName{Last: "петров"}},
			entity.Organization{Name: "югу"},
		)
		store := entity.NewStore()

		ContextFill(store, ctx, []extract.Reference{{Anchor: "он", Hint: "у"}})

		assert.True(t, store.Contains(entity.KindEmployee))
		assert.True(t, store.Contains(entity.KindOrganization))
	})

	t.Run("pronoun with locative hint pulls group only", func(t *testing.T) {
		t.Parallel()
		ctx := contextWith(
			entity.Employee{Name: entity.PersonName{Last: "петров"}},
			entity.Group{Name: "1491м"},
		)
		store := entity.NewStore()

		ContextFill(store, ctx, []extract.Reference{{Anchor: "она", Hint: "в"}})

		assert.True(t, store.Contains(entity.KindGroup))
		assert.False(t, store.Contains(entity.KindEmployee))
	})

	t.Run("class hint", func(t *testing.T) {
		t.Parallel()
		ctx := contextWith(entity.Class{Name: "математика"})
		store := entity.NewStore()

		ContextFill(store, ctx, []extract.Reference{{Anchor: "он", Hint: "по"}})

		cls, ok := store.Class()
		require.True(t, ok)
		assert.Equal(t, "математика", cls.Name)
	})

	t.Run("noun anchors", func(t *testing.T) {
		t.Parallel()
		ctx := contextWith(
			entity.Organization{Name: "югу"},
			entity.Group{Name: "1491м"},
			entity.DayOffset(1),
		)
		store := entity.NewStore()

		ContextFill(store, ctx, []extract.Reference{
			{Anchor: "университет", Hint: "в"},
			{Anchor: "группа"},
			{Anchor: "день"},
		})

		assert.True(t, store.Contains(entity.KindOrganization))
		assert.True(t, store.Contains(entity.KindGroup))
		assert.True(t, store.Contains(entity.KindDay))
	})

	t.Run("never overwrites directly extracted entity", func(t *testing.T) {
		t.Parallel()
		ctx := contextWith(entity.Group{Name: "2251"})
		store := entity.NewStore()
		store.Set(entity.Group{Name: "1491м"})

		ContextFill(store, ctx, []extract.Reference{{Anchor: "группа"}})

		group, _ := store.Group()
		assert.Equal(t, "1491м", group.Name)
	})

	t.Run("nil context is a no-op", func(t *testing.T) {
		t.Parallel()
		store := entity.NewStore()
		ContextFill(store, nil, []extract.Reference{{Anchor: "группа"}})
		assert.Equal(t, 0, store.Len())
	})
}

func TestProfileFill(t *testing.T) {
	t.Parallel()

	t.Run("self reference fills identity unconditionally", func(t *testing.T) {
		t.Parallel()
		store := entity.NewStore()
		store.Set(entity.Place{Room: "312"})

		ProfileFill(store, studentProfile(), []extract.Reference{{Anchor: "я", Hint: "у"}})

		assert.True(t, store.Contains(entity.KindOrganization))
		group, ok := store.Group()
		require.True(t, ok)
		assert.Equal(t, "1491м", group.Name)
	})

	t.Run("direct extraction beats profile value", func(t *testing.T) {
		t.Parallel()
		store := entity.NewStore()
		store.Set(entity.Group{Name: "2251"})

		ProfileFill(store, studentProfile(), []extract.Reference{{Anchor: "я"}})

		group, _ := store.Group()
		assert.Equal(t, "2251", group.Name)
	})

	t.Run("identity withheld when another subject is named", func(t *testing.T) {
		t.Parallel()
		store := entity.NewStore()
		store.Set(entity.Employee{Name: entity.PersonName{Last: "петров"}})

		ProfileFill(store, studentProfile(), nil)

		assert.True(t, store.Contains(entity.KindOrganization))
		assert.False(t, store.Contains(entity.KindGroup))
	})

	t.Run("identity withheld when place is present", func(t *testing.T) {
		t.Parallel()
		store := entity.NewStore()
		store.Set(entity.Place{Room: "101"})

		ProfileFill(store, studentProfile(), nil)

		assert.False(t, store.Contains(entity.KindGroup))
	})

	t.Run("identity filled on a bare phrase", func(t *testing.T) {
		t.Parallel()
		store := entity.NewStore()

		ProfileFill(store, studentProfile(), nil)

		assert.True(t, store.Contains(entity.KindOrganization))
		assert.True(t, store.Contains(entity.KindGroup))
	})

	t.Run("employee profile fills employee identity", func(t *testing.T) {
		t.Parallel()
		profile := &Profile{
			Organization: "югу",
			Name:         entity.PersonName{First: "иван", Last: "петров"},
			EmployeeID:   "42",
		}
		store := entity.NewStore()

		ProfileFill(store, profile, nil)

		emp, ok := store.Employee()
		require.True(t, ok)
		assert.Equal(t, "петров", emp.Name.Last)
		assert.Equal(t, "42", emp.ExternalID)
	})

	t.Run("subgroup comes with group", func(t *testing.T) {
		t.Parallel()
		profile := studentProfile()
		profile.Subgroup = "2"
		store := entity.NewStore()

		ProfileFill(store, profile, nil)

		subgroup, ok := store.Subgroup()
		require.True(t, ok)
		assert.Equal(t, "2", subgroup.Name)
	})

	t.Run("nil profile is a no-op", func(t *testing.T) {
		t.Parallel()
		store := entity.NewStore()
		ProfileFill(store, nil, nil)
		assert.Equal(t, 0, store.Len())
	})
}
