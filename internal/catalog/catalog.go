// Package catalog holds the roster of known class names and corrects
// raw extracted mentions to their canonical spelling. Matching uses BM25
// over stemmed tokens: extracted names arrive inflected and partial
// ("физике", "инженерной графике"), so exact lookup is useless.
package catalog

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/crawlab-team/bm25"

	"github.com/ugrasage/sagebot-go/internal/logger"
	"github.com/ugrasage/sagebot-go/internal/stringutil"
)

// minScore is the BM25 score below which a correction candidate is
// rejected as noise.
const minScore = 0.1

// Catalog is a BM25-backed class-name roster. Safe for concurrent use;
// Load may be called again to swap in a fresh roster.
type Catalog struct {
	mu        sync.RWMutex
	names     []string
	nameStems []map[string]struct{}
	stems     map[string]struct{}
	index     *bm25.BM25Okapi
	logger    *logger.Logger
}

// New creates an empty catalog.
func New(log *logger.Logger) *Catalog {
	return &Catalog{
		stems:  make(map[string]struct{}),
		logger: log.WithModule("catalog"),
	}
}

func stemTokens(s string) []string {
	fields := strings.Fields(stringutil.Lower(s))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if !stringutil.IsCyrillicWord(f) || len([]rune(f)) < 3 {
			continue
		}
		tokens = append(tokens, stringutil.Stem(f))
	}
	return tokens
}

// Load replaces the roster with the given canonical class names and
// rebuilds the index.
func (c *Catalog) Load(names []string) error {
	stems := make(map[string]struct{})
	corpus := make([]string, 0, len(names))
	kept := make([]string, 0, len(names))
	perName := make([]map[string]struct{}, 0, len(names))

	for _, name := range names {
		tokens := stemTokens(name)
		if len(tokens) == 0 {
			continue
		}
		own := make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			stems[t] = struct{}{}
			own[t] = struct{}{}
		}
		corpus = append(corpus, name)
		kept = append(kept, stringutil.Lower(name))
		perName = append(perName, own)
	}

	var index *bm25.BM25Okapi
	if len(corpus) > 0 {
		var err error
		index, err = bm25.NewBM25Okapi(corpus, stemTokens, 1.5, 0.75, nil)
		if err != nil {
			return fmt.Errorf("build class name index: %w", err)
		}
	}

	c.mu.Lock()
	c.names = kept
	c.nameStems = perName
	c.stems = stems
	c.index = index
	c.mu.Unlock()

	c.logger.WithField("names", len(kept)).Info("Class name catalog loaded")
	return nil
}

// HasBase reports whether stem belongs to a word of any known class name.
func (c *Catalog) HasBase(stem string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.stems[stem]
	return ok
}

// Size returns the number of loaded class names.
func (c *Catalog) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.names)
}

// Correct maps a raw extracted class name to its canonical roster
// spelling. Returns false when the roster is empty or no candidate
// scores above the noise floor.
func (c *Catalog) Correct(raw string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.index == nil {
		return "", false
	}
	query := stemTokens(raw)
	if len(query) == 0 {
		return "", false
	}

	scores, err := c.index.GetScores(query)
	if err != nil {
		c.logger.WithError(err).Warn("Class name scoring failed")
		return "", false
	}

	best, bestScore := -1, 0.0
	for i, score := range scores {
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 || bestScore < minScore {
		// BM25's IDF zeroes out a term that appears in half or more of
		// the documents, which on a roster of two or three names is
		// every term. Plain stem overlap still separates the names.
		return c.correctByOverlap(query)
	}
	return c.names[best], true
}

// correctByOverlap picks the single name sharing the most stems with
// the query. A tie means the query does not discriminate, so no match.
func (c *Catalog) correctByOverlap(query []string) (string, bool) {
	best, bestHits, ties := -1, 0, 0
	for i, stems := range c.nameStems {
		hits := 0
		for _, q := range query {
			if _, ok := stems[q]; ok {
				hits++
			}
		}
		switch {
		case hits > bestHits:
			best, bestHits, ties = i, hits, 1
		case hits == bestHits && hits > 0:
			ties++
		}
	}
	if best < 0 || ties != 1 {
		return "", false
	}
	return c.names[best], true
}

// Names returns the loaded canonical names, sorted. Used by the roster
// admin surface and tests.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.names))
	copy(out, c.names)
	sort.Strings(out)
	return out
}
