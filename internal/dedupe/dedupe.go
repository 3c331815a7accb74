// Package dedupe collapses duplicate entries of one source's ranked list.
package dedupe

import (
	"github.com/rs/zerolog/log"

	"github.com/teamarete/TBBAS/internal/matcher"
	"github.com/teamarete/TBBAS/internal/models"
)

// Deduplicator groups records the Matcher considers the same school and
// keeps one survivor per group
type Deduplicator struct {
	matcher *matcher.Matcher
}

// New creates a Deduplicator
func New(m *matcher.Matcher) *Deduplicator {
	return &Deduplicator{matcher: m}
}

// Score rates a record for survival: 1000-rank when ranked, plus 100+wins
// when wins are known, minus 0.01 per position so earlier entries win ties
func Score(r models.TeamRecord, index int) float64 {
	score := 0.0
	if r.Ranked() {
		score += 1000 - float64(*r.Rank)
	}
	if r.Wins != nil {
		score += 100 + float64(*r.Wins)
	}
	return score - 0.01*float64(index)
}

// Dedupe returns one record per equivalence class of records, in order of
// each class's first appearance. Equivalence is the transitive closure of
// Matcher.SameEntity. The survivor keeps its own rank and record and takes
// the best representative name of its class; every merged spelling is kept
// in Aliases. Input records are not modified.
func (d *Deduplicator) Dedupe(records []models.TeamRecord) []models.TeamRecord {
	if len(records) == 0 {
		return nil
	}

	norm := d.matcher.Normalizer()
	keys := make([]string, len(records))
	for i, r := range records {
		keys[i] = norm.Normalize(r.RawName)
	}

	uf := newUnionFind(len(records))
	for i := range records {
		for j := i + 1; j < len(records); j++ {
			if d.matcher.SameKey(keys[i], keys[j]) {
				uf.union(i, j)
			}
		}
	}

	// groups in order of first member
	var roots []int
	members := make(map[int][]int)
	for i := range records {
		root := uf.find(i)
		if _, ok := members[root]; !ok {
			roots = append(roots, root)
		}
		members[root] = append(members[root], i)
	}

	out := make([]models.TeamRecord, 0, len(roots))
	for _, root := range roots {
		group := members[root]

		survivor := group[0]
		best := Score(records[survivor], survivor)
		groupNames := make([]string, 0, len(group))
		var aliases []string
		for _, idx := range group {
			if s := Score(records[idx], idx); s > best {
				survivor, best = idx, s
			}
			groupNames = append(groupNames, records[idx].RawName)
			aliases = appendUnique(aliases, records[idx].RawName)
			for _, a := range records[idx].Aliases {
				aliases = appendUnique(aliases, a)
			}
		}

		kept := records[survivor]
		kept.RawName = d.matcher.BestRepresentative(groupNames)
		if kept.RawName == "" {
			kept.RawName = records[survivor].RawName
		}
		kept.CanonicalKey = norm.Normalize(kept.RawName)
		kept.Aliases = aliases
		out = append(out, kept)

		if len(group) > 1 {
			log.Debug().
				Str("division", string(kept.Division)).
				Str("source", string(kept.Source)).
				Str("team", kept.RawName).
				Int("merged", len(group)).
				Msg("Merged duplicate entries")
		}
	}

	return out
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

// union keeps the smaller index as root
func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
}
