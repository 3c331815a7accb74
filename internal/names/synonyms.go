package names

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/teamarete/TBBAS/internal/models"
)

// ErrAmbiguousSynonym marks an alias that maps to more than one canonical
// name within one division
var ErrAmbiguousSynonym = errors.New("ambiguous synonym")

// Ambiguity is one alias that cannot be resolved within a division scope.
// An empty Division means the unscoped entries conflict.
type Ambiguity struct {
	Alias      string
	Division   models.Division
	Canonicals []string
}

func (a Ambiguity) Error() string {
	scope := string(a.Division)
	if scope == "" {
		scope = "all divisions"
	}
	return fmt.Sprintf("%s: %q in %s maps to %s", ErrAmbiguousSynonym, a.Alias, scope, strings.Join(a.Canonicals, ", "))
}

func (a Ambiguity) Unwrap() error {
	return ErrAmbiguousSynonym
}

type synonymKey struct {
	alias    string
	division models.Division
}

// SynonymTable resolves curated alternate spellings. Resolution within one
// scope is a function: aliases with conflicting entries never resolve.
type SynonymTable struct {
	entries     map[synonymKey]string
	ambiguous   map[synonymKey]struct{}
	ambiguities []Ambiguity
}

// NewSynonymTable indexes entries by exact (case-insensitive) alias and scope
func NewSynonymTable(entries []models.SynonymEntry) *SynonymTable {
	t := &SynonymTable{
		entries:   make(map[synonymKey]string, len(entries)),
		ambiguous: make(map[synonymKey]struct{}),
	}

	seen := make(map[synonymKey][]string)
	var order []synonymKey
	for _, e := range entries {
		key := synonymKey{alias: fold(e.Alias), division: e.Division}
		if _, ok := seen[key]; !ok {
			order = append(order, key)
		}
		seen[key] = appendUnique(seen[key], strings.TrimSpace(e.Canonical))
	}

	for _, key := range order {
		canonicals := seen[key]
		if len(canonicals) == 1 {
			t.entries[key] = canonicals[0]
			continue
		}
		t.ambiguous[key] = struct{}{}
		sorted := append([]string(nil), canonicals...)
		sort.Strings(sorted)
		t.ambiguities = append(t.ambiguities, Ambiguity{Alias: key.alias, Division: key.division, Canonicals: sorted})
	}

	return t
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if fold(existing) == fold(v) {
			return list
		}
	}
	return append(list, v)
}

// Resolve returns the canonical name for name in division. A division-scoped
// entry takes precedence over an unscoped one; an ambiguous alias resolves
// to nothing in that scope and does not fall back.
func (t *SynonymTable) Resolve(name string, division models.Division) (string, bool) {
	alias := fold(name)

	if division != "" {
		scoped := synonymKey{alias: alias, division: division}
		if _, bad := t.ambiguous[scoped]; bad {
			return "", false
		}
		if canonical, ok := t.entries[scoped]; ok {
			return canonical, true
		}
	}

	global := synonymKey{alias: alias}
	if _, bad := t.ambiguous[global]; bad {
		return "", false
	}
	canonical, ok := t.entries[global]
	return canonical, ok
}

// Ambiguities lists every conflicting alias found at construction
func (t *SynonymTable) Ambiguities() []Ambiguity {
	return append([]Ambiguity(nil), t.ambiguities...)
}

// Len returns the number of resolvable entries
func (t *SynonymTable) Len() int {
	return len(t.entries)
}
