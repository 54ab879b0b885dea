// Package stringutil provides common string manipulation utilities for
// Russian-language phrase processing.
package stringutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lowerRU = cases.Lower(language.Russian)

// Lower lowercases a string with Russian casing rules.
// strings.ToLower handles Cyrillic too, but the language-aware caser is
// kept as the single lowering path so all matching normalizes identically.
func Lower(s string) string {
	return lowerRU.String(s)
}

// IsNumeric checks if a string contains only digits.
// Returns false for empty strings.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// IsCyrillicWord reports whether s consists entirely of Cyrillic letters
// or hyphens and is non-empty.
func IsCyrillicWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != '-' && !unicode.Is(unicode.Cyrillic, r) {
			return false
		}
	}
	return true
}

// IsCapitalized reports whether the first rune of s is an uppercase letter.
func IsCapitalized(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

// Token is a word with its byte span in the source string.
type Token struct {
	Text  string
	Start int
	End   int
}

// Tokenize splits s into whitespace-separated tokens, keeping byte spans.
// Leading and trailing punctuation is trimmed from the token text, with
// spans adjusted accordingly, so "группе," yields the token "группе".
func Tokenize(s string) []Token {
	var tokens []Token
	start := -1
	for i, r := range s {
		if unicode.IsSpace(r) {
			if start >= 0 {
				tokens = append(tokens, trimToken(s, start, i))
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, trimToken(s, start, len(s)))
	}
	return tokens
}

func trimToken(s string, start, end int) Token {
	text := s[start:end]
	trimmed := strings.TrimLeftFunc(text, isEdgePunct)
	start += len(text) - len(trimmed)
	trimmed = strings.TrimRightFunc(trimmed, isEdgePunct)
	end = start + len(trimmed)
	return Token{Text: trimmed, Start: start, End: end}
}

func isEdgePunct(r rune) bool {
	return unicode.IsPunct(r) && r != '-'
}

// HasAnyPrefix reports whether the lowercased word starts with any of the
// given root prefixes. Used for crude lemma matching of inflected forms.
func HasAnyPrefix(word string, roots ...string) bool {
	w := Lower(word)
	for _, root := range roots {
		if strings.HasPrefix(w, root) {
			return true
		}
	}
	return false
}

// Inflectional endings stripped by Stem, longest first.
var stemEndings = []string{
	"иями", "ями", "ами", "иях", "иям",
	"ого", "ому", "ыми", "ими", "его", "ему",
	"ия", "ие", "ий", "ии", "ию", "ым", "им", "ых", "их",
	"ая", "яя", "ое", "ее", "ой", "ей", "ом", "ем", "ах", "ях",
	"ов", "ев", "ам", "ям", "ую", "юю",
	"а", "я", "о", "е", "и", "ы", "у", "ю", "ь", "й",
}

// Stem strips a single inflectional ending from a lowercase Russian word,
// leaving at least three runes. It is a blunt instrument: equality of
// stems means "probably the same lemma", good enough for anchoring
// catalog words, not for general morphology.
func Stem(word string) string {
	runes := []rune(word)
	for _, end := range stemEndings {
		er := []rune(end)
		if len(runes)-len(er) < 3 {
			continue
		}
		if string(runes[len(runes)-len(er):]) == end {
			return string(runes[:len(runes)-len(er)])
		}
	}
	return word
}
