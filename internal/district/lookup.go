// Package district maps a team in a division to its district through a
// three-tier cascade: curated overrides, the reference table, then a
// substring heuristic over the reference table.
package district

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/teamarete/TBBAS/internal/models"
	"github.com/teamarete/TBBAS/internal/names"
)

// DefaultMinSubstringLen gates the substring tier so short common words
// ("high", "lake") cannot match unrelated schools
const DefaultMinSubstringLen = 5

// Tier identifies which layer of the cascade produced a district
type Tier string

const (
	TierOverride  Tier = "override"
	TierReference Tier = "reference"
	TierSubstring Tier = "substring"
)

// ReferenceSource provides the structured reference table
type ReferenceSource interface {
	ListDistricts(ctx context.Context) ([]models.DistrictEntry, error)
}

// StaticReference is an in-memory ReferenceSource
type StaticReference []models.DistrictEntry

// ListDistricts returns the entries
func (s StaticReference) ListDistricts(ctx context.Context) ([]models.DistrictEntry, error) {
	return s, nil
}

// Match is a successful lookup
type Match struct {
	District string
	Tier     Tier
}

type referenceEntry struct {
	key      string
	district string
}

// Lookup resolves districts. It is immutable after construction.
type Lookup struct {
	overrides    *OverrideTable
	norm         *names.Normalizer
	variants     *names.VariantGenerator
	byKey        map[entryKey]string
	byDivision   map[models.Division][]referenceEntry
	minSubstring int
}

// NewLookup indexes the reference table. Duplicate reference keys keep the
// first entry.
func NewLookup(overrides *OverrideTable, reference []models.DistrictEntry, n *names.Normalizer, v *names.VariantGenerator, minSubstring int) *Lookup {
	if minSubstring <= 0 {
		minSubstring = DefaultMinSubstringLen
	}
	if overrides == nil {
		overrides = NewOverrideTable(nil)
	}

	l := &Lookup{
		overrides:    overrides,
		norm:         n,
		variants:     v,
		byKey:        make(map[entryKey]string, len(reference)),
		byDivision:   make(map[models.Division][]referenceEntry),
		minSubstring: minSubstring,
	}

	for _, e := range reference {
		key := n.Normalize(e.CanonicalName)
		k := entryKey{name: key, division: e.Division}
		if _, ok := l.byKey[k]; ok {
			continue
		}
		l.byKey[k] = e.District
		l.byDivision[e.Division] = append(l.byDivision[e.Division], referenceEntry{key: key, district: e.District})
	}

	return l
}

// District returns the district for one team name
func (l *Lookup) District(name string, division models.Division) (string, bool) {
	m, ok := l.Find([]string{name}, division)
	return m.District, ok
}

// Find runs the cascade over every candidate spelling of one team. Each
// tier is tried for all candidates before the next tier, so a substring
// hit on one spelling never beats an override on another.
func (l *Lookup) Find(candidates []string, division models.Division) (Match, bool) {
	for _, name := range candidates {
		if d, ok := l.overrides.Get(name, division); ok {
			return Match{District: d, Tier: TierOverride}, true
		}
	}

	for _, name := range candidates {
		for _, v := range l.variants.Variants(name, division) {
			if d, ok := l.byKey[entryKey{name: l.norm.Normalize(v), division: division}]; ok {
				return Match{District: d, Tier: TierReference}, true
			}
		}
	}

	for _, name := range candidates {
		query := l.norm.Normalize(name)
		if utf8.RuneCountInString(query) < l.minSubstring {
			continue
		}
		for _, ref := range l.byDivision[division] {
			if containsPhrase(ref.key, query) {
				return Match{District: ref.district, Tier: TierSubstring}, true
			}
		}
	}

	return Match{}, false
}

// containsPhrase reports whether phrase occurs in s on token boundaries
func containsPhrase(s, phrase string) bool {
	return strings.Contains(" "+s+" ", " "+phrase+" ")
}
