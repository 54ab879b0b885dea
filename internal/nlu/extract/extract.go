// Package extract runs the ordered entity extraction pipeline over a raw
// phrase. Each extractor rewrites recognized spans to opaque placeholder
// tokens so later extractors cannot re-match consumed text and can use the
// placeholders as positional anchors for their own rules.
package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ugrasage/sagebot-go/internal/nlu/entity"
)

// Extractor recognizes one entity kind in a phrase.
//
// Extract searches for the first qualifying occurrence only. On a match it
// returns the phrase with every matched span replaced by the kind's
// placeholder token, the structured value, and true. Otherwise it returns
// the phrase unchanged. Implementations must be deterministic for
// identical input and safe for concurrent use.
type Extractor interface {
	Kind() entity.Kind
	Extract(phrase string) (rewritten string, value entity.Value, ok bool)
}

// Discourse fillers stripped before extraction. Purely textual
// normalization with no bearing on entity semantics.
var fillerPhrases = []string{
	"вроде бы",
	"как бы",
	"вроде",
	"пускай",
	"пусть",
	"например",
	"допустим",
	"ну",
	"но",
	"а",
}

var (
	fillerRe = regexp.MustCompile(`(?i)(?:^|[\s,.!?])(` + strings.Join(fillerAlternation(), "|") + `)(?:[\s,.!?]|$)`)

	doubledCommaRe = regexp.MustCompile(`,[\s,]*,`)
	doubledSpaceRe = regexp.MustCompile(`\s{2,}`)
)

func fillerAlternation() []string {
	quoted := make([]string, len(fillerPhrases))
	for i, p := range fillerPhrases {
		quoted[i] = regexp.QuoteMeta(p)
	}
	return quoted
}

// StripFillers removes discourse filler words and collapses the doubled
// separators left behind.
func StripFillers(phrase string) string {
	for {
		loc := fillerRe.FindStringSubmatchIndex(phrase)
		if loc == nil {
			break
		}
		start, end := loc[2], loc[3]
		// Consume the whitespace preceding the filler as well.
		for start > 0 && phrase[start-1] == ' ' {
			start--
		}
		phrase = phrase[:start] + phrase[end:]
	}
	phrase = doubledCommaRe.ReplaceAllString(phrase, ",")
	phrase = doubledSpaceRe.ReplaceAllString(phrase, " ")
	return strings.TrimSpace(phrase)
}

// Orchestrator runs a fixed ordered set of extractors over a phrase.
// Order is significant: organization before class (organization-like
// nouns would otherwise be captured as the subject of a class name),
// group before subgroup (the subgroup marker word disambiguates the
// shared numeric token family).
type Orchestrator struct {
	extractors []Extractor
}

// NewOrchestrator creates an orchestrator running the given extractors in
// the given order.
func NewOrchestrator(extractors ...Extractor) *Orchestrator {
	return &Orchestrator{extractors: extractors}
}

// HasKind reports whether an extractor for kind k is registered.
// Used for startup validation of the intent requirement table.
func (o *Orchestrator) HasKind(k entity.Kind) bool {
	for _, ex := range o.extractors {
		if ex.Kind() == k {
			return true
		}
	}
	return false
}

// ByKind returns the extractor for kind k, or nil.
func (o *Orchestrator) ByKind(k entity.Kind) Extractor {
	for _, ex := range o.extractors {
		if ex.Kind() == k {
			return ex
		}
	}
	return nil
}

// Extract strips fillers, runs the extractor pipeline, and returns the
// collected entities together with the residual placeholder-rewritten
// phrase.
func (o *Orchestrator) Extract(phrase string) (*entity.Store, string) {
	phrase = StripFillers(phrase)

	store := entity.NewStore()
	for _, ex := range o.extractors {
		rewritten, value, ok := ex.Extract(phrase)
		if !ok {
			continue
		}
		phrase = rewritten
		store.Set(value)
	}
	return store, phrase
}

// span is a byte range [Start, End) in a phrase.
type span struct {
	Start int
	End   int
}

// replaceSpans replaces every span in phrase with the placeholder token,
// adjusting offsets as earlier replacements shift the text.
func replaceSpans(phrase string, spans []span, placeholder string) string {
	sorted := make([]span, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	shift := 0
	for _, sp := range sorted {
		start, end := sp.Start-shift, sp.End-shift
		phrase = phrase[:start] + placeholder + phrase[end:]
		shift += (end - start) - len(placeholder)
	}
	return phrase
}
