package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFillPreservesFirstWrite(t *testing.T) {
	s := NewStore()

	assert.True(t, s.Fill(Group{Name: "1491м"}))
	// A second fill with a different value must never change the first.
	assert.False(t, s.Fill(Group{Name: "1162б"}))

	g, ok := s.Group()
	require.True(t, ok)
	assert.Equal(t, "1491м", g.Name)
}

func TestSetOverwrites(t *testing.T) {
	s := NewStore()
	s.Set(Group{Name: "1491м"})
	s.Set(Group{Name: "1162б"})

	g, _ := s.Group()
	assert.Equal(t, "1162б", g.Name)
}

func TestContains(t *testing.T) {
	s := NewStore()
	assert.False(t, s.Contains(KindSubgroup))

	// Present with an empty name still counts as present: it records an
	// explicitly stated "no subgroup".
	s.Set(Subgroup{Name: ""})
	assert.True(t, s.Contains(KindSubgroup))
}

func TestMergeFrom(t *testing.T) {
	s := NewStore()
	s.Set(Group{Name: "1491м"})

	other := NewStore()
	other.Set(Group{Name: "1162б"})
	other.Set(Organization{Name: "югорский государственный университет"})

	s.MergeFrom(other)

	g, _ := s.Group()
	assert.Equal(t, "1491м", g.Name, "merge must not overwrite")
	org, ok := s.Organization()
	require.True(t, ok)
	assert.Equal(t, "югорский государственный университет", org.Name)
}

func TestMergeFromNil(t *testing.T) {
	s := NewStore()
	s.Set(Group{Name: "1491м"})
	s.MergeFrom(nil)
	assert.Equal(t, 1, s.Len())
}

func TestCloneIsIndependent(t *testing.T) {
	s := NewStore()
	s.Set(DayOffset(1))
	s.Set(Group{Name: "1491м"})

	c := s.Clone()
	c.Set(Group{Name: "2251"})
	d, _ := c.Day()
	*d.Offset = 99

	g, _ := s.Group()
	assert.Equal(t, "1491м", g.Name)
	orig, _ := s.Day()
	assert.Equal(t, 1, *orig.Offset)
}

func TestJSONRoundTrip(t *testing.T) {
	s := NewStore()
	s.Set(Organization{Name: "югу"})
	s.Set(Group{Name: "1491м"})
	s.Set(Subgroup{Name: "2"})
	s.Set(Class{Name: "химия нефти и газа", Spec: "лаб"})
	s.Set(Employee{Name: PersonName{First: "Андрей", Last: "Кутышкин"}, ExternalID: "42"})
	s.Set(DayWeekday(5))
	s.Set(Place{Campus: "2", Room: "312"})

	data, err := json.Marshal(s)
	require.NoError(t, err)

	restored := NewStore()
	require.NoError(t, json.Unmarshal(data, restored))

	assert.Equal(t, s.Len(), restored.Len())
	cls, ok := restored.Class()
	require.True(t, ok)
	assert.Equal(t, "химия нефти и газа", cls.Name)
	assert.Equal(t, "лаб", cls.Spec)
	emp, ok := restored.Employee()
	require.True(t, ok)
	assert.Equal(t, "Кутышкин", emp.Name.Last)
	day, ok := restored.Day()
	require.True(t, ok)
	require.NotNil(t, day.Weekday)
	assert.Equal(t, 5, *day.Weekday)
	assert.Nil(t, day.Offset)
}

func TestUnmarshalUnknownKind(t *testing.T) {
	restored := NewStore()
	err := json.Unmarshal([]byte(`{"widget":{"name":"x"}}`), restored)
	assert.Error(t, err)
}

func TestKindValid(t *testing.T) {
	for _, k := range Kinds() {
		assert.True(t, k.Valid())
	}
	assert.False(t, Kind("widget").Valid())
}
