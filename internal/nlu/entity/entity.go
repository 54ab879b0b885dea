// Package entity defines the entity kinds a phrase can mention and the
// ordered store that collects them during a dialog turn.
//
// An entity is present in a store only when extraction or resolution
// positively identified it. Absence always means "unknown"; there are no
// sentinel empty values. The one deliberate exception is Subgroup with an
// empty Name, which records that the user explicitly stated they have no
// subgroup.
package entity

// Kind identifies one entity slot.
type Kind string

// The fixed enumerated set of entity kinds.
const (
	KindOrganization Kind = "organization"
	KindGroup        Kind = "group"
	KindSubgroup     Kind = "subgroup"
	KindClass        Kind = "class"
	KindEmployee     Kind = "employee"
	KindDay          Kind = "day"
	KindPlace        Kind = "place"
)

// Kinds returns all entity kinds in canonical extraction order.
func Kinds() []Kind {
	return []Kind{
		KindOrganization,
		KindEmployee,
		KindGroup,
		KindSubgroup,
		KindClass,
		KindDay,
		KindPlace,
	}
}

// Valid reports whether k is one of the enumerated kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindOrganization, KindGroup, KindSubgroup, KindClass,
		KindEmployee, KindDay, KindPlace:
		return true
	}
	return false
}

// Placeholder returns the token that replaces a matched span in the phrase,
// so later extractors cannot re-match consumed text and can anchor on it.
func (k Kind) Placeholder() string {
	return string(k)
}

// Value is a structured entity value. Each concrete type reports the kind
// it belongs to, so a store entry can never be filed under the wrong slot.
type Value interface {
	EntityKind() Kind
}

// Organization is an educational organization mentioned by name.
type Organization struct {
	Name string `json:"name"`
}

// EntityKind implements Value.
func (Organization) EntityKind() Kind { return KindOrganization }

// Group is a study group code, e.g. "1491м" or "11г".
type Group struct {
	Name string `json:"name"`
}

// EntityKind implements Value.
func (Group) EntityKind() Kind { return KindGroup }

// Subgroup is a subgroup number within a group. An empty Name means the
// user explicitly stated they have no subgroup.
type Subgroup struct {
	Name string `json:"name"`
}

// EntityKind implements Value.
func (Subgroup) EntityKind() Kind { return KindSubgroup }

// Class is a class (course) name with an optional delivery spec
// ("лаб", "пр", "лек").
type Class struct {
	Name string `json:"name"`
	Spec string `json:"spec,omitempty"`
}

// EntityKind implements Value.
func (Class) EntityKind() Kind { return KindClass }

// PersonName holds the parts of a Russian full name. Any part may be
// empty; correction against the employee catalog happens downstream.
type PersonName struct {
	First      string `json:"first,omitempty"`
	Last       string `json:"last,omitempty"`
	Patronymic string `json:"patronymic,omitempty"`
}

// Empty reports whether no name part is set.
func (n PersonName) Empty() bool {
	return n.First == "" && n.Last == "" && n.Patronymic == ""
}

// Employee is an instructor or staff member.
type Employee struct {
	Name       PersonName `json:"name"`
	ExternalID string     `json:"external_id,omitempty"`
}

// EntityKind implements Value.
func (Employee) EntityKind() Kind { return KindEmployee }

// Day is a day reference: either an offset in days relative to today
// ("завтра" = +1) or a weekday (1 = Monday .. 7 = Sunday, negative for
// the previous week). Exactly one of the two fields is set.
type Day struct {
	Offset  *int `json:"offset,omitempty"`
	Weekday *int `json:"weekday,omitempty"`
}

// EntityKind implements Value.
func (Day) EntityKind() Kind { return KindDay }

// DayOffset builds a Day with a relative offset.
func DayOffset(offset int) Day {
	return Day{Offset: &offset}
}

// DayWeekday builds a Day with a weekday number.
func DayWeekday(weekday int) Day {
	return Day{Weekday: &weekday}
}

// Place is a location: campus building and/or room number.
type Place struct {
	Campus string `json:"campus,omitempty"`
	Room   string `json:"room,omitempty"`
}

// EntityKind implements Value.
func (Place) EntityKind() Kind { return KindPlace }
