package extract

import (
	"strconv"

	"github.com/ugrasage/sagebot-go/internal/nlu/entity"
	"github.com/ugrasage/sagebot-go/internal/stringutil"
)

// Relative day adverbs and their offsets from today.
var dayOffsets = map[string]int{
	"сегодня":     0,
	"завтра":      1,
	"послезавтра": 2,
	"вчера":       -1,
	"позавчера":   -2,
}

// Weekday roots, 1 = Monday .. 7 = Sunday. Matched by prefix to cover
// inflected forms ("в пятницу", "по средам").
var weekdayRoots = []struct {
	root string
	num  int
}{
	{"понедельник", 1},
	{"вторник", 2},
	{"сред", 3},
	{"четверг", 4},
	{"пятниц", 5},
	{"суббот", 6},
	{"воскресень", 7},
}

// DayExtractor recognizes day references: relative adverbs, "через N
// дней" offsets, and weekday names with an optional previous-week marker.
// Only offsets relative to the current day are handled; absolute dates
// belong to the schedule lookup itself.
type DayExtractor struct{}

// NewDayExtractor creates a day extractor.
func NewDayExtractor() *DayExtractor { return &DayExtractor{} }

// Kind implements Extractor.
func (e *DayExtractor) Kind() entity.Kind { return entity.KindDay }

// Extract implements Extractor.
func (e *DayExtractor) Extract(phrase string) (string, entity.Value, bool) {
	tokens := stringutil.Tokenize(phrase)

	for i, tok := range tokens {
		lower := stringutil.Lower(tok.Text)

		if offset, ok := dayOffsets[lower]; ok {
			day := entity.DayOffset(offset)
			return replaceTokens(phrase, tokens[i:i+1]), day, true
		}

		if lower == "через" && i+1 < len(tokens) {
			if day, width, ok := parseAfter(tokens[i+1:]); ok {
				return replaceTokens(phrase, tokens[i:i+1+width]), day, true
			}
		}

		if num, ok := weekdayNumber(lower); ok {
			backward := i > 0 && stringutil.HasAnyPrefix(stringutil.Lower(tokens[i-1].Text), "прошл", "предыдущ")
			if backward {
				num = -num
				return replaceTokens(phrase, tokens[i-1:i+1]), entity.DayWeekday(num), true
			}
			return replaceTokens(phrase, tokens[i:i+1]), entity.DayWeekday(num), true
		}
	}

	return phrase, nil, false
}

// parseAfter handles the tokens following "через": either a bare count
// word ("день", "неделю") or a number plus a unit. Returns the day value
// and how many tokens were consumed.
func parseAfter(rest []stringutil.Token) (entity.Day, int, bool) {
	if len(rest) == 0 {
		return entity.Day{}, 0, false
	}
	first := stringutil.Lower(rest[0].Text)

	if stringutil.HasAnyPrefix(first, "ден", "дн") {
		return entity.DayOffset(1), 1, true
	}
	if stringutil.HasAnyPrefix(first, "недел") {
		return entity.DayOffset(7), 1, true
	}

	if stringutil.IsNumeric(first) && len(rest) >= 2 {
		n, err := strconv.Atoi(first)
		if err != nil {
			return entity.Day{}, 0, false
		}
		unit := stringutil.Lower(rest[1].Text)
		if stringutil.HasAnyPrefix(unit, "ден", "дн") {
			return entity.DayOffset(n), 2, true
		}
		if stringutil.HasAnyPrefix(unit, "недел") {
			return entity.DayOffset(n * 7), 2, true
		}
	}

	return entity.Day{}, 0, false
}

func weekdayNumber(lower string) (int, bool) {
	for _, wd := range weekdayRoots {
		if stringutil.HasAnyPrefix(lower, wd.root) {
			return wd.num, true
		}
	}
	return 0, false
}

// replaceTokens replaces the span covering the given consecutive tokens
// with the day placeholder.
func replaceTokens(phrase string, tokens []stringutil.Token) string {
	if len(tokens) == 0 {
		return phrase
	}
	sp := span{Start: tokens[0].Start, End: tokens[len(tokens)-1].End}
	return replaceSpans(phrase, []span{sp}, entity.KindDay.Placeholder())
}
