package extract

import (
	"strings"

	"github.com/ugrasage/sagebot-go/internal/nlu/entity"
	"github.com/ugrasage/sagebot-go/internal/stringutil"
)

// ClassBaseMatcher anchors class-name recognition on a known vocabulary
// of subject base words ("математика", "программирование", ...).
type ClassBaseMatcher interface {
	// HasBase reports whether the stem belongs to a known class base word.
	HasBase(stem string) bool
}

// Session type markers and their canonical spec codes.
var specMarkers = []struct {
	spec  string
	forms []string
}{
	{"лаб", []string{"лб", "лаб", "лаба", "лабораторк", "лабораторн"}},
	{"пр", []string{"пр", "прак", "практик", "практическ"}},
	{"лек", []string{"лек", "лекци"}},
}

// Words that terminate the trailing part of a class name.
var classSuffixStop = map[string]struct{}{
	"в": {}, "во": {}, "на": {}, "у": {}, "с": {}, "со": {}, "по": {},
	"из": {}, "о": {}, "об": {}, "для": {}, "до": {}, "после": {},
	"когда": {}, "где": {}, "будет": {}, "была": {}, "был": {}, "есть": {},
	"сегодня": {}, "завтра": {}, "вчера": {},
}

// ClassExtractor recognizes class-session names anchored on a catalog
// base word, with an optional adjective prefix ("инженерная графика"),
// a short genitive tail ("химия нефти и газа"), and an optional leading
// session-type marker ("лаба по", "лекция по"). The captured name is
// raw text; correction to the canonical roster spelling happens later.
type ClassExtractor struct {
	bases ClassBaseMatcher
}

// NewClassExtractor creates a class extractor over the given base-word
// vocabulary.
func NewClassExtractor(bases ClassBaseMatcher) *ClassExtractor {
	return &ClassExtractor{bases: bases}
}

// Kind implements Extractor.
func (e *ClassExtractor) Kind() entity.Kind { return entity.KindClass }

// Extract implements Extractor.
func (e *ClassExtractor) Extract(phrase string) (string, entity.Value, bool) {
	tokens := stringutil.Tokenize(phrase)

	for i, tok := range tokens {
		lower := stringutil.Lower(tok.Text)
		if !stringutil.IsCyrillicWord(lower) || !e.bases.HasBase(stringutil.Stem(lower)) {
			continue
		}

		start, end := i, i

		// Adjective prefix, possibly a pair joined by "и" or a comma.
		for start > 0 && hasAdjectiveEnding(stringutil.Lower(tokens[start-1].Text)) {
			start--
			if start > 0 && isPairSep(tokens[start-1].Text) &&
				start > 1 && hasAdjectiveEnding(stringutil.Lower(tokens[start-2].Text)) {
				start -= 2
			}
		}

		// Short trailing tail of Cyrillic words, stopping at
		// prepositions, verbs and other boundary words.
		for end+1 < len(tokens) && end-i < 4 {
			next := stringutil.Lower(tokens[end+1].Text)
			if next == "и" && end+2 < len(tokens) && isTailWord(stringutil.Lower(tokens[end+2].Text)) {
				end += 2
				continue
			}
			if !isTailWord(next) {
				break
			}
			end++
		}

		cls := entity.Class{Name: joinLower(tokens[start : end+1])}

		// Session-type marker just before the name or before "по".
		markerStart := start
		if spec, mStart, ok := findSpecMarker(tokens, start); ok {
			cls.Spec = spec
			markerStart = mStart
		}

		rewritten := replaceSpans(phrase,
			[]span{{Start: tokens[markerStart].Start, End: tokens[end].End}},
			entity.KindClass.Placeholder())
		return rewritten, cls, true
	}

	return phrase, nil, false
}

// findSpecMarker looks left of the name start for "лаба по" / "лекция" /
// "пр." style markers, returning the canonical spec and the new span start.
func findSpecMarker(tokens []stringutil.Token, nameStart int) (string, int, bool) {
	j := nameStart - 1
	if j < 0 {
		return "", 0, false
	}
	if stringutil.Lower(tokens[j].Text) == "по" {
		j--
	}
	if j < 0 {
		return "", 0, false
	}
	word := strings.TrimSuffix(stringutil.Lower(tokens[j].Text), ".")
	for _, m := range specMarkers {
		for _, form := range m.forms {
			if word == form || (len(form) > 3 && strings.HasPrefix(word, form)) {
				return m.spec, j, true
			}
		}
	}
	return "", 0, false
}

func isTailWord(lower string) bool {
	if _, stop := classSuffixStop[lower]; stop {
		return false
	}
	return stringutil.IsCyrillicWord(lower) && len([]rune(lower)) > 2
}

func isPairSep(text string) bool {
	lower := stringutil.Lower(text)
	return lower == "и" || lower == ","
}

func joinLower(tokens []stringutil.Token) string {
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		parts = append(parts, stringutil.Lower(t.Text))
	}
	return strings.Join(parts, " ")
}
