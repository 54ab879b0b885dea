package extract

import (
	"strings"

	"github.com/ugrasage/sagebot-go/internal/nlu/entity"
	"github.com/ugrasage/sagebot-go/internal/stringutil"
)

// Cue roots that anchor an organization mention.
var orgRoots = []string{
	"универ",
	"школ",
	"колледж",
	"лице",
	"гимназ",
	"институт",
	"академ",
	"техникум",
}

// maxOrgModifiers bounds how many words to the left of the cue are
// absorbed into the organization name.
const maxOrgModifiers = 3

// Words that stop leftward expansion even when capitalized or adjectival.
var orgStopWords = map[string]struct{}{
	"в": {}, "во": {}, "на": {}, "из": {}, "у": {}, "о": {}, "об": {},
	"мой": {}, "моя": {}, "моей": {}, "моем": {}, "моём": {}, "мою": {},
	"наш": {}, "наша": {}, "нашей": {}, "нашем": {}, "нашу": {},
	"твой": {}, "твоя": {}, "твоей": {}, "твоем": {}, "твоём": {},
	"этот": {}, "эта": {}, "этой": {}, "этом": {}, "эту": {},
	"какой": {}, "какая": {}, "какой-то": {}, "свой": {}, "своей": {},
}

// OrganizationExtractor finds organization mentions anchored on an
// institution noun, pulling in up to a few preceding modifier words
// ("вторая городская школа", "Югорский государственный университет").
type OrganizationExtractor struct{}

// NewOrganizationExtractor creates an organization extractor.
func NewOrganizationExtractor() *OrganizationExtractor { return &OrganizationExtractor{} }

// Kind implements Extractor.
func (e *OrganizationExtractor) Kind() entity.Kind { return entity.KindOrganization }

// Extract implements Extractor.
func (e *OrganizationExtractor) Extract(phrase string) (string, entity.Value, bool) {
	tokens := stringutil.Tokenize(phrase)

	for i, tok := range tokens {
		lower := stringutil.Lower(tok.Text)
		if !stringutil.HasAnyPrefix(lower, orgRoots...) {
			continue
		}

		start := i
		for start > 0 && i-start < maxOrgModifiers {
			prev := tokens[start-1]
			if !isOrgModifier(prev.Text) {
				break
			}
			start--
		}

		// Absorb a trailing number or abbreviation ("школа 5",
		// "лицей им. Иванова" keeps just the number case simple).
		end := i
		if i+1 < len(tokens) && stringutil.IsNumeric(tokens[i+1].Text) {
			end = i + 1
		}

		parts := make([]string, 0, end-start+1)
		for _, t := range tokens[start : end+1] {
			parts = append(parts, stringutil.Lower(t.Text))
		}
		name := strings.Join(parts, " ")

		rewritten := replaceSpans(phrase,
			[]span{{Start: tokens[start].Start, End: tokens[end].End}},
			entity.KindOrganization.Placeholder())
		return rewritten, entity.Organization{Name: name}, true
	}

	return phrase, nil, false
}

// IsGenericOrgName reports whether name consists only of bare
// institution nouns ("университете", "школа"), with nothing that could
// tell one organization from another.
func IsGenericOrgName(name string) bool {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if !stringutil.HasAnyPrefix(f, orgRoots...) {
			return false
		}
	}
	return true
}

// isOrgModifier reports whether a word may extend an organization name
// leftward: an adjective-looking Cyrillic word that is not a possessive,
// preposition or demonstrative.
func isOrgModifier(word string) bool {
	lower := stringutil.Lower(word)
	if _, stop := orgStopWords[lower]; stop {
		return false
	}
	if !stringutil.IsCyrillicWord(lower) {
		return false
	}
	return hasAdjectiveEnding(lower)
}

var adjectiveEndings = []string{
	"ый", "ий", "ой", "ая", "яя", "ое", "ее",
	"ом", "ем", "ём", "им", "ым", "ую", "юю", "ей",
}

func hasAdjectiveEnding(lower string) bool {
	if len([]rune(lower)) < 5 {
		return false
	}
	for _, end := range adjectiveEndings {
		if strings.HasSuffix(lower, end) {
			return true
		}
	}
	return false
}
