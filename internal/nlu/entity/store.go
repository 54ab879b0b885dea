package entity

import (
	"encoding/json"
	"fmt"
)

// Store maps entity kinds to their structured values for one dialog turn.
// Keys are unique; insertion order is irrelevant. Not safe for concurrent
// use: a store belongs to exactly one turn of one user's conversation.
type Store struct {
	values map[Kind]Value
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{values: make(map[Kind]Value)}
}

// Set writes v unconditionally, overwriting any existing value of its kind.
func (s *Store) Set(v Value) {
	s.values[v.EntityKind()] = v
}

// Fill writes v only if its kind is absent, preserving a higher-priority
// earlier write. Conflicts are silently ignored. Returns true if written.
func (s *Store) Fill(v Value) bool {
	k := v.EntityKind()
	if _, ok := s.values[k]; ok {
		return false
	}
	s.values[k] = v
	return true
}

// Contains reports whether a value of kind k is present.
func (s *Store) Contains(k Kind) bool {
	_, ok := s.values[k]
	return ok
}

// Get returns the value of kind k.
func (s *Store) Get(k Kind) (Value, bool) {
	v, ok := s.values[k]
	return v, ok
}

// MergeFrom fills every kind present in other, keeping this store's
// priority on conflicts.
func (s *Store) MergeFrom(other *Store) {
	if other == nil {
		return
	}
	for _, k := range Kinds() {
		if v, ok := other.values[k]; ok {
			s.Fill(v)
		}
	}
}

// Len returns the number of kinds present.
func (s *Store) Len() int {
	return len(s.values)
}

// PresentKinds returns the kinds present, in canonical order.
func (s *Store) PresentKinds() []Kind {
	var kinds []Kind
	for _, k := range Kinds() {
		if _, ok := s.values[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Clone returns a deep copy of the store.
func (s *Store) Clone() *Store {
	c := NewStore()
	for k, v := range s.values {
		if day, ok := v.(Day); ok {
			// Day carries pointers; copy them so the clone is independent.
			var cp Day
			if day.Offset != nil {
				o := *day.Offset
				cp.Offset = &o
			}
			if day.Weekday != nil {
				w := *day.Weekday
				cp.Weekday = &w
			}
			c.values[k] = cp
			continue
		}
		c.values[k] = v
	}
	return c
}

// Typed accessors. Each returns the zero value and false when absent.

// Organization returns the organization entity.
func (s *Store) Organization() (Organization, bool) {
	v, ok := s.values[KindOrganization].(Organization)
	return v, ok
}

// Group returns the group entity.
func (s *Store) Group() (Group, bool) {
	v, ok := s.values[KindGroup].(Group)
	return v, ok
}

// Subgroup returns the subgroup entity.
func (s *Store) Subgroup() (Subgroup, bool) {
	v, ok := s.values[KindSubgroup].(Subgroup)
	return v, ok
}

// Class returns the class entity.
func (s *Store) Class() (Class, bool) {
	v, ok := s.values[KindClass].(Class)
	return v, ok
}

// Employee returns the employee entity.
func (s *Store) Employee() (Employee, bool) {
	v, ok := s.values[KindEmployee].(Employee)
	return v, ok
}

// Day returns the day entity.
func (s *Store) Day() (Day, bool) {
	v, ok := s.values[KindDay].(Day)
	return v, ok
}

// Place returns the place entity.
func (s *Store) Place() (Place, bool) {
	v, ok := s.values[KindPlace].(Place)
	return v, ok
}

// MarshalJSON encodes the store as a kind-keyed object, suitable for the
// persisted conversation context.
func (s *Store) MarshalJSON() ([]byte, error) {
	out := make(map[Kind]Value, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a kind-keyed object, dispatching each entry to its
// concrete value type. Unknown kinds are rejected: they indicate a schema
// mismatch between the persisted context and the code.
func (s *Store) UnmarshalJSON(data []byte) error {
	raw := make(map[Kind]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.values = make(map[Kind]Value, len(raw))
	for k, msg := range raw {
		v, err := decodeValue(k, msg)
		if err != nil {
			return err
		}
		s.values[k] = v
	}
	return nil
}

func decodeValue(k Kind, msg json.RawMessage) (Value, error) {
	var (
		v   Value
		err error
	)
	switch k {
	case KindOrganization:
		var e Organization
		err = json.Unmarshal(msg, &e)
		v = e
	case KindGroup:
		var e Group
		err = json.Unmarshal(msg, &e)
		v = e
	case KindSubgroup:
		var e Subgroup
		err = json.Unmarshal(msg, &e)
		v = e
	case KindClass:
		var e Class
		err = json.Unmarshal(msg, &e)
		v = e
	case KindEmployee:
		var e Employee
		err = json.Unmarshal(msg, &e)
		v = e
	case KindDay:
		var e Day
		err = json.Unmarshal(msg, &e)
		v = e
	case KindPlace:
		var e Place
		err = json.Unmarshal(msg, &e)
		v = e
	default:
		return nil, fmt.Errorf("decode entity store: unknown kind %q", k)
	}
	if err != nil {
		return nil, fmt.Errorf("decode entity %q: %w", k, err)
	}
	return v, nil
}
