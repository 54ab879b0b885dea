package extract

import (
	"github.com/ugrasage/sagebot-go/internal/stringutil"
)

// Reference is an anaphoric mention found in a phrase: the canonical
// anchor word and the governing preposition, if one directly precedes it.
// References live for one turn only and are never persisted.
type Reference struct {
	Anchor string
	Hint   string
}

// Pronoun surface forms, mapped to the canonical anchor.
var pronounForms = map[string]string{
	"я": "я", "меня": "я", "мне": "я", "мной": "я", "мною": "я",
	"он": "он", "него": "он", "нем": "он", "нём": "он", "ним": "он", "ему": "он",
	"она": "она", "нее": "она", "неё": "она", "ней": "она", "нею": "она",
	"они": "они", "них": "они", "ними": "они",
}

// Anchor nouns matched by prefix to cover inflected forms.
var nounAnchors = []struct {
	root   string
	anchor string
}{
	{"университет", "университет"},
	{"школ", "школа"},
	{"колледж", "колледж"},
	{"групп", "группа"},
	{"класс", "класс"},
	{"преподавател", "преподаватель"},
	{"учител", "учитель"},
	{"человек", "человек"},
	{"дисциплин", "дисциплина"},
	{"заняти", "занятие"},
	{"урок", "урок"},
}

// "пара" and "день" have short roots that collide with unrelated words,
// so they are matched against exact inflected forms instead.
var exactNounForms = map[string]string{
	"пара": "пара", "пары": "пара", "паре": "пара", "пару": "пара",
	"парой": "пара", "пар": "пара", "парах": "пара",
	"день": "день", "дня": "день", "дню": "день", "днем": "день",
	"днём": "день", "дне": "день", "дни": "день", "дней": "день",
}

// Preposition hints, normalized to one canonical form per family.
var hintForms = map[string]string{
	"о": "о", "об": "о", "обо": "о",
	"у": "у",
	"с": "с", "со": "с",
	"в": "в", "во": "в",
	"по": "по",
}

// ExtractRefs finds anaphoric references in a phrase, in order of
// occurrence. It runs over the placeholder-rewritten phrase so that
// consumed entity text cannot produce spurious anchors.
func ExtractRefs(phrase string) []Reference {
	tokens := stringutil.Tokenize(phrase)

	var refs []Reference
	for i, tok := range tokens {
		lower := stringutil.Lower(tok.Text)

		anchor, ok := pronounForms[lower]
		if !ok {
			anchor, ok = exactNounForms[lower]
		}
		if !ok {
			for _, na := range nounAnchors {
				if stringutil.HasAnyPrefix(lower, na.root) {
					anchor, ok = na.anchor, true
					break
				}
			}
		}
		if !ok {
			continue
		}

		ref := Reference{Anchor: anchor}
		if i > 0 {
			if hint, hok := hintForms[stringutil.Lower(tokens[i-1].Text)]; hok {
				ref.Hint = hint
			}
		}
		refs = append(refs, ref)
	}

	return refs
}
