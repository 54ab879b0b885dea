// Package resolve fills entity gaps from the previous turn's context and
// from the asker's profile. Both passes use fill semantics only: an
// entity already present in the store is never overwritten.
package resolve

import (
	"github.com/ugrasage/sagebot-go/internal/nlu/entity"
	"github.com/ugrasage/sagebot-go/internal/nlu/extract"
)

// Profile is the asker's stored identity: their organization and either
// a group membership or an employee record.
type Profile struct {
	Organization string

	// IsGroupMember selects which identity entity the profile carries.
	IsGroupMember bool
	Group         string
	Subgroup      string

	Name       entity.PersonName
	EmployeeID string
}

// Anchor words resolved by ContextFill without hint disambiguation.
var anchorTargets = map[string][]entity.Kind{
	"они":           {entity.KindGroup},
	"университет":   {entity.KindOrganization},
	"школа":         {entity.KindOrganization},
	"колледж":       {entity.KindOrganization},
	"группа":        {entity.KindGroup},
	"класс":         {entity.KindGroup},
	"преподаватель": {entity.KindEmployee},
	"учитель":       {entity.KindEmployee},
	"человек":       {entity.KindEmployee},
	"дисциплина":    {entity.KindClass},
	"занятие":       {entity.KindClass},
	"пара":          {entity.KindClass},
	"урок":          {entity.KindClass},
	"день":          {entity.KindDay},
}

// ContextFill copies entities referenced anaphorically from the previous
// turn's context snapshot into the store. Third-person pronouns are
// disambiguated by their governing preposition; whenever a group or
// employee is pulled from context, the organization comes along, since
// organization is a near-constant attribute of both.
func ContextFill(store, contextEnts *entity.Store, refs []extract.Reference) {
	if contextEnts == nil {
		return
	}

	fill := func(kinds ...entity.Kind) {
		for _, k := range kinds {
			v, ok := contextEnts.Get(k)
			if !ok {
				continue
			}
			store.Fill(v)
			if k == entity.KindGroup || k == entity.KindEmployee {
				if org, orgOK := contextEnts.Get(entity.KindOrganization); orgOK {
					store.Fill(org)
				}
			}
		}
	}

	for _, ref := range refs {
		switch ref.Anchor {
		case "он", "она":
			switch ref.Hint {
			case "о", "у", "с", "":
				fill(entity.KindEmployee, entity.KindGroup)
			case "в":
				fill(entity.KindGroup)
			case "по":
				fill(entity.KindClass)
			}
		default:
			if kinds, ok := anchorTargets[ref.Anchor]; ok {
				fill(kinds...)
			}
		}
	}
}

// ProfileFill defaults missing entities from the asker's profile. A
// self-referential pronoun fills both the organization and the identity
// entity unconditionally (fill semantics still apply) and takes
// precedence over everything below. Otherwise the organization is always
// defaulted, but the identity entity only when none of group, employee
// or place is already present, so the asker's own identity is never
// silently substituted for an entity the phrase names.
func ProfileFill(store *entity.Store, profile *Profile, refs []extract.Reference) {
	if profile == nil {
		return
	}

	for _, ref := range refs {
		if ref.Anchor == "я" {
			fillOrganization(store, profile)
			fillIdentity(store, profile)
			return
		}
	}

	fillOrganization(store, profile)
	if !store.Contains(entity.KindGroup) &&
		!store.Contains(entity.KindEmployee) &&
		!store.Contains(entity.KindPlace) {
		fillIdentity(store, profile)
	}
}

func fillOrganization(store *entity.Store, profile *Profile) {
	if profile.Organization == "" {
		return
	}
	store.Fill(entity.Organization{Name: profile.Organization})
}

func fillIdentity(store *entity.Store, profile *Profile) {
	if profile.IsGroupMember {
		if profile.Group == "" {
			return
		}
		store.Fill(entity.Group{Name: profile.Group})
		if profile.Subgroup != "" {
			store.Fill(entity.Subgroup{Name: profile.Subgroup})
		}
		return
	}

	if profile.Name.Empty() && profile.EmployeeID == "" {
		return
	}
	store.Fill(entity.Employee{Name: profile.Name, ExternalID: profile.EmployeeID})
}
