package extract

import (
	"regexp"

	"github.com/ugrasage/sagebot-go/internal/nlu/entity"
	"github.com/ugrasage/sagebot-go/internal/stringutil"
)

// Go's regexp has ASCII-only \b, so word boundaries around Cyrillic
// patterns are expressed as explicit non-word character classes. The
// boundary class excludes '-' because group codes may carry a hyphenated
// prefix ("озбу-2н93н").
const codeBoundary = `[^0-9a-zа-яё-]`

var groupRe = regexp.MustCompile(
	// University codes: "А1071", "2251", "озбу-2н93н".
	// School codes: "11г".
	`(?i)(?:^|` + codeBoundary + `)((?:[а-я]{1,4}-|А)?[0-9](?:[0-9]|[а-я])[0-9]{2}[а-я]?|(?:[1-9]|1[01])[а-я])(?:` + codeBoundary + `|$)`,
)

// GroupExtractor recognizes study group codes.
type GroupExtractor struct{}

// NewGroupExtractor creates a group code extractor.
func NewGroupExtractor() *GroupExtractor { return &GroupExtractor{} }

// Kind implements Extractor.
func (e *GroupExtractor) Kind() entity.Kind { return entity.KindGroup }

// Extract implements Extractor.
func (e *GroupExtractor) Extract(phrase string) (string, entity.Value, bool) {
	loc := groupRe.FindStringSubmatchIndex(phrase)
	if loc == nil {
		return phrase, nil, false
	}
	start, end := loc[2], loc[3]
	name := stringutil.Lower(phrase[start:end])
	rewritten := replaceSpans(phrase, []span{{start, end}}, entity.KindGroup.Placeholder())
	return rewritten, entity.Group{Name: name}, true
}

// Subgroup numbers share the bare numeric token family with group codes;
// ambiguity is resolved by requiring the marker word to be adjacent.
var subgroupVariants = []*regexp.Regexp{
	regexp.MustCompile(`(?i)подгруп[а-яё]*\s+([1-9])(?:[^0-9]|$)`),
	regexp.MustCompile(`(?i)(?:^|[^0-9])([1-9])\s+подгруп[а-яё]*`),
}

// SubgroupExtractor recognizes subgroup numbers next to the marker word.
type SubgroupExtractor struct{}

// NewSubgroupExtractor creates a subgroup extractor.
func NewSubgroupExtractor() *SubgroupExtractor { return &SubgroupExtractor{} }

// Kind implements Extractor.
func (e *SubgroupExtractor) Kind() entity.Kind { return entity.KindSubgroup }

// Extract implements Extractor.
func (e *SubgroupExtractor) Extract(phrase string) (string, entity.Value, bool) {
	for _, re := range subgroupVariants {
		loc := re.FindStringSubmatchIndex(phrase)
		if loc == nil {
			continue
		}
		start, end := loc[2], loc[3]
		value := entity.Subgroup{Name: phrase[start:end]}
		rewritten := replaceSpans(phrase, []span{{start, end}}, entity.KindSubgroup.Placeholder())
		return rewritten, value, true
	}
	return phrase, nil, false
}

var (
	campusVariants = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:корп|дом|здани|постройк|камп)[а-яё]*\s+([1-9])(?:[^0-9]|$)`),
		regexp.MustCompile(`(?i)(?:^|[^0-9])([1-9])\s+(?:корп|дом|здани|постройк|камп)[а-яё]*`),
	}
	roomVariants = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:кабин|комнат|аудитор)[а-яё]*\s+(\d+)(?:[^0-9]|$)`),
		regexp.MustCompile(`(?i)(?:^|[^0-9])(\d+)\s+(?:кабин|комнат|аудитор)[а-яё]*`),
	}
)

// PlaceExtractor recognizes campus and room numbers near their marker
// nouns. Campus and room are independent sub-fields; either suffices.
type PlaceExtractor struct{}

// NewPlaceExtractor creates a place extractor.
func NewPlaceExtractor() *PlaceExtractor { return &PlaceExtractor{} }

// Kind implements Extractor.
func (e *PlaceExtractor) Kind() entity.Kind { return entity.KindPlace }

// Extract implements Extractor.
func (e *PlaceExtractor) Extract(phrase string) (string, entity.Value, bool) {
	var place entity.Place
	found := false

	phrase, campus, ok := firstNumber(phrase, campusVariants)
	if ok {
		place.Campus = campus
		found = true
	}
	phrase, room, ok := firstNumber(phrase, roomVariants)
	if ok {
		place.Room = room
		found = true
	}

	if !found {
		return phrase, nil, false
	}
	return phrase, place, true
}

func firstNumber(phrase string, variants []*regexp.Regexp) (string, string, bool) {
	for _, re := range variants {
		loc := re.FindStringSubmatchIndex(phrase)
		if loc == nil {
			continue
		}
		start, end := loc[2], loc[3]
		number := phrase[start:end]
		rewritten := replaceSpans(phrase, []span{{start, end}}, entity.KindPlace.Placeholder())
		return rewritten, number, true
	}
	return phrase, "", false
}
