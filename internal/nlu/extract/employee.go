package extract

import (
	"strings"

	"github.com/ugrasage/sagebot-go/internal/nlu/entity"
	"github.com/ugrasage/sagebot-go/internal/stringutil"
)

// Capitalized words that start sentences or are common question openers,
// never person names on their own.
var nameStopWords = map[string]struct{}{
	"что": {}, "кто": {}, "где": {}, "когда": {}, "какой": {}, "какая": {},
	"какие": {}, "какое": {}, "как": {}, "куда": {}, "откуда": {},
	"почему": {}, "зачем": {}, "сколько": {}, "чей": {}, "чья": {},
	"привет": {}, "здравствуйте": {}, "скажи": {}, "подскажи": {},
	"расскажи": {}, "покажи": {}, "напомни": {}, "спасибо": {},
	"я": {}, "ты": {}, "он": {}, "она": {}, "они": {}, "мы": {}, "вы": {},
	"а": {}, "и": {}, "но": {}, "не": {}, "ли": {}, "же": {}, "бы": {},
}

var patronymicSuffixes = []string{
	"ович", "евич", "ьич", "ич",
	"овна", "евна", "ична", "инична",
}

var surnameSuffixes = []string{
	"ов", "ев", "ёв", "ин", "ын",
	"ова", "ева", "ёва", "ина", "ына",
	"ский", "цкий", "ская", "цкая",
	"ском", "ским", "ской", "цкой",
	"ову", "овым", "овой", "ове",
	"еву", "евым", "евой", "еве",
	"ину", "иным", "иной", "ине",
	"ко", "ук", "юк", "енко",
}

// EmployeeExtractor recognizes person names as a run of capitalized
// Cyrillic words, classifying each word as first name, surname or
// patronymic by its ending. Spelling is corrected later against the
// employee roster, so the raw capture is kept as written.
type EmployeeExtractor struct{}

// NewEmployeeExtractor creates an employee extractor.
func NewEmployeeExtractor() *EmployeeExtractor { return &EmployeeExtractor{} }

// Kind implements Extractor.
func (e *EmployeeExtractor) Kind() entity.Kind { return entity.KindEmployee }

// Extract implements Extractor.
func (e *EmployeeExtractor) Extract(phrase string) (string, entity.Value, bool) {
	tokens := stringutil.Tokenize(phrase)

	name := entity.PersonName{}
	var spans []span

	for i, tok := range tokens {
		if !isNameCandidate(tok.Text) {
			continue
		}

		// Collect the full run of consecutive candidates.
		j := i
		for j < len(tokens) && isNameCandidate(tokens[j].Text) && j-i < 3 {
			j++
		}
		run := tokens[i:j]
		if len(run) == 1 && i == 0 {
			// A lone capitalized word at phrase start is most likely
			// just sentence case, not a name.
			continue
		}

		for _, t := range run {
			lower := stringutil.Lower(t.Text)
			switch {
			case hasSuffixAny(lower, patronymicSuffixes) && name.Patronymic == "":
				name.Patronymic = lower
			case hasSuffixAny(lower, surnameSuffixes) && name.Last == "":
				name.Last = lower
			case name.First == "":
				name.First = lower
			case name.Last == "":
				name.Last = lower
			}
			spans = append(spans, span{Start: t.Start, End: t.End})
		}
		break
	}

	if name.Empty() {
		return phrase, nil, false
	}

	rewritten := replaceSpans(phrase, spans, entity.KindEmployee.Placeholder())
	return rewritten, entity.Employee{Name: name}, true
}

func isNameCandidate(word string) bool {
	if !stringutil.IsCapitalized(word) || !stringutil.IsCyrillicWord(word) {
		return false
	}
	lower := stringutil.Lower(word)
	if _, stop := nameStopWords[lower]; stop {
		return false
	}
	return len([]rune(word)) >= 2
}

func hasSuffixAny(lower string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s) && len([]rune(lower)) > len([]rune(s))+1 {
			return true
		}
	}
	return false
}
