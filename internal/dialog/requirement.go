package dialog

import (
	"math/rand"

	"github.com/ugrasage/sagebot-go/internal/nlu/entity"
	"github.com/ugrasage/sagebot-go/internal/nlu/intent"
)

// Group is one alternative-group of a requirement: an ordered list of
// entity kinds of which the first satisfied one settles the group.
// Optional groups never block progress; they exist so strictly-optional
// slots still pass through validation. Shuffle randomizes the order
// candidates are tried and asked, to vary question phrasing; it never
// changes which kinds belong to the group.
type Group struct {
	Kinds    []entity.Kind `json:"kinds"`
	Optional bool          `json:"optional,omitempty"`
	Shuffle  bool          `json:"shuffle,omitempty"`
}

func required(kinds ...entity.Kind) Group {
	return Group{Kinds: kinds}
}

func optional(kinds ...entity.Kind) Group {
	return Group{Kinds: kinds, Optional: true}
}

func shuffled(kinds ...entity.Kind) Group {
	return Group{Kinds: kinds, Shuffle: true}
}

// Requirements returns the static per-intent requirement table. Groups
// are evaluated in order; the subject of a question is always the first
// kind of the first unsatisfiable non-optional group.
func Requirements(key intent.Key) []Group {
	switch key {
	case intent.NextClass:
		return []Group{
			optional(entity.KindSubgroup, entity.KindClass),
			shuffled(entity.KindGroup, entity.KindEmployee, entity.KindPlace),
			required(entity.KindOrganization),
		}
	case intent.ClassList:
		return []Group{
			optional(entity.KindSubgroup, entity.KindDay),
			shuffled(entity.KindGroup, entity.KindEmployee),
			required(entity.KindOrganization),
		}
	case intent.ClassPeer:
		return []Group{
			optional(entity.KindSubgroup, entity.KindClass),
			shuffled(entity.KindGroup, entity.KindEmployee),
			required(entity.KindOrganization),
		}
	case intent.UserClar:
		return []Group{
			optional(entity.KindSubgroup),
			shuffled(entity.KindGroup, entity.KindEmployee),
			required(entity.KindOrganization),
		}
	case intent.EmployeeInfo, intent.EducatorPlace:
		return []Group{
			required(entity.KindEmployee),
			required(entity.KindOrganization),
		}
	case intent.BotInfo:
		return nil
	default:
		return nil
	}
}

// evalResult is the outcome of evaluating a requirement list against an
// entity store.
type evalResult struct {
	satisfied bool
	ask       entity.Kind // kind to ask about when not satisfied
	remaining []Group     // groups not yet evaluated, excluding the asked one
}

// evaluate walks the groups in order. Within a group the first present
// kind short-circuits it; an unsatisfiable non-optional group halts
// evaluation and picks the question subject. rng orders shuffle-eligible
// groups and must be injectable for deterministic tests.
func evaluate(groups []Group, store *entity.Store, rng *rand.Rand) evalResult {
	for i, g := range groups {
		order := g.Kinds
		if g.Shuffle && rng != nil {
			order = make([]entity.Kind, len(g.Kinds))
			copy(order, g.Kinds)
			rng.Shuffle(len(order), func(a, b int) { order[a], order[b] = order[b], order[a] })
		}

		found := false
		for _, k := range order {
			if store.Contains(k) {
				found = true
				break
			}
		}
		if found || g.Optional {
			continue
		}

		return evalResult{
			ask:       order[0],
			remaining: groups[i+1:],
		}
	}

	return evalResult{satisfied: true}
}
