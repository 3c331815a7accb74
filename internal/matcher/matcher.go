// Package matcher decides whether differently spelled team names refer to
// the same school, and picks the display name for a group of spellings.
package matcher

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/teamarete/TBBAS/internal/models"
	"github.com/teamarete/TBBAS/internal/names"
)

// DefaultThreshold is the minimum similarity ratio for a fuzzy match
const DefaultThreshold = 0.90

// Matcher holds the curated tables it matches with. It is read-only after
// construction and safe for concurrent use.
type Matcher struct {
	norm      *names.Normalizer
	synonyms  *names.SynonymTable
	threshold float64
}

// New creates a Matcher. A threshold outside (0, 1] falls back to DefaultThreshold.
func New(n *names.Normalizer, s *names.SynonymTable, threshold float64) *Matcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Matcher{norm: n, synonyms: s, threshold: threshold}
}

// Normalizer returns the normalizer the matcher uses
func (m *Matcher) Normalizer() *names.Normalizer {
	return m.norm
}

// SameEntity reports whether a and b denote the same school. The decision
// depends only on the normalized forms and is symmetric.
func (m *Matcher) SameEntity(a, b string) bool {
	return m.SameKey(m.norm.Normalize(a), m.norm.Normalize(b))
}

// SameKey is SameEntity for already normalized keys:
//  1. equal keys
//  2. similarity ratio at or above the threshold
//  3. same canonical city and same base name after decomposition
func (m *Matcher) SameKey(a, b string) bool {
	if a == b {
		return true
	}
	if Similarity(a, b) >= m.threshold {
		return true
	}

	cityA, baseA := m.norm.Decompose(a)
	cityB, baseB := m.norm.Decompose(b)
	return cityA == cityB && baseA == baseB
}

// Identity returns the key used to align a team across sources in a
// division. Curated synonyms apply first. UIL schools are identified by
// base name with the city dropped; private schools keep the city because
// it is often the only distinguishing word (Houston Christian, Lubbock
// Christian).
func (m *Matcher) Identity(name string, division models.Division) string {
	if canonical, ok := m.Resolve(name, division); ok {
		name = canonical
	}

	key := m.norm.Normalize(name)
	if division.Tier() == models.TierPrivate {
		return key
	}

	_, base := m.norm.Decompose(key)
	return base
}

// Resolve looks name up in the synonym table, trying the display-cleaned
// name when the raw spelling has no entry
func (m *Matcher) Resolve(name string, division models.Division) (string, bool) {
	if canonical, ok := m.synonyms.Resolve(name, division); ok {
		return canonical, true
	}
	if cleaned := m.norm.CleanDisplay(name); cleaned != name {
		return m.synonyms.Resolve(cleaned, division)
	}
	return "", false
}

// Similarity returns 1 - levenshtein(a, b) / max(len(a), len(b)), counting runes
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}

	distance := levenshtein.ComputeDistance(a, b)

	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1.0
	}

	return 1.0 - float64(distance)/float64(maxLen)
}

type representative struct {
	fullCity    bool
	tokens      int
	capitalized bool
}

func (r representative) better(o representative) bool {
	if r.fullCity != o.fullCity {
		return r.fullCity
	}
	if r.tokens != o.tokens {
		return r.tokens > o.tokens
	}
	return r.capitalized && !o.capitalized
}

// BestRepresentative picks the display name for a group of equivalent
// names. Names are display-cleaned first, then ranked by: city spelled out
// in full, more tokens, starts with a capital letter. Ties keep the
// earliest name. Returns "" for an empty group.
func (m *Matcher) BestRepresentative(group []string) string {
	var (
		best     string
		bestRank representative
		found    bool
	)

	for _, raw := range group {
		name := m.norm.CleanDisplay(raw)
		if name == "" {
			continue
		}

		_, _, fullCity := m.norm.SplitCity(name)
		first, _ := utf8.DecodeRuneInString(name)
		rank := representative{
			fullCity:    fullCity,
			tokens:      len(strings.Fields(name)),
			capitalized: unicode.IsUpper(first),
		}

		if !found || rank.better(bestRank) {
			best, bestRank, found = name, rank, true
		}
	}

	return best
}
