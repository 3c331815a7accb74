package names

import (
	"strings"

	"github.com/teamarete/TBBAS/internal/models"
)

// VariantGenerator produces the spellings used to probe other sources and
// the historical results store
type VariantGenerator struct {
	norm     *Normalizer
	synonyms *SynonymTable
}

// NewVariantGenerator creates a VariantGenerator
func NewVariantGenerator(n *Normalizer, s *SynonymTable) *VariantGenerator {
	return &VariantGenerator{norm: n, synonyms: s}
}

// Variants returns an ordered set of spellings for raw in division: the
// original, the abbreviation-expanded form, the curated synonym, the name
// without a school suffix, then the names with a leading city removed.
// Lookups use the first match, so the order is significant. The original is
// always present.
func (g *VariantGenerator) Variants(raw string, division models.Division) []string {
	var out orderedSet

	original := collapse(raw)
	out.add(original)

	expanded := g.norm.Expand(original)
	out.add(expanded)

	if canonical, ok := g.synonyms.Resolve(original, division); ok {
		out.add(canonical)
	} else if canonical, ok := g.synonyms.Resolve(expanded, division); ok {
		out.add(canonical)
	}

	out.add(g.norm.TrimSuffix(original))

	for _, name := range []string{original, expanded} {
		if _, rest, ok := g.norm.SplitCity(name); ok {
			out.add(rest)
		}
	}

	return out.items
}

type orderedSet struct {
	items []string
	seen  map[string]struct{}
}

func (s *orderedSet) add(v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}
