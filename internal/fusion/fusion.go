// Package fusion merges per-source ranked lists of one division into a
// consensus ranking.
package fusion

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/teamarete/TBBAS/internal/matcher"
	"github.com/teamarete/TBBAS/internal/models"
)

// DefaultMinCalculatedGames is the sample size below which the calculated
// rating is left out of an entity's average
const DefaultMinCalculatedGames = 15

// Config controls rank fusion
type Config struct {
	// MinCalculatedGames gates the calculated source per entity
	MinCalculatedGames int

	// Weights per source; a missing source weighs 1. A zero weight keeps
	// the source's rank in the output but out of the average.
	Weights map[models.Source]float64

	// RecordTrustOrder lists sources whose win/loss records are trusted, best first
	RecordTrustOrder []models.Source
}

// DefaultConfig returns the production fusion settings
func DefaultConfig() Config {
	return Config{
		MinCalculatedGames: DefaultMinCalculatedGames,
		RecordTrustOrder:   []models.Source{models.SourceTABC, models.SourceCalculated, models.SourceMediaSite},
	}
}

// Engine fuses ranked lists
type Engine struct {
	matcher *matcher.Matcher
	cfg     Config
}

// NewEngine creates a fusion engine
func NewEngine(m *matcher.Matcher, cfg Config) *Engine {
	if len(cfg.RecordTrustOrder) == 0 {
		cfg.RecordTrustOrder = DefaultConfig().RecordTrustOrder
	}
	return &Engine{matcher: m, cfg: cfg}
}

// Result is one division's fused ranking
type Result struct {
	Teams      []models.CompositeTeamRecord
	Coverage   models.Coverage
	Collisions []Collision
}

// Collision is a record left out because an earlier record of the same
// source already holds its identity
type Collision struct {
	Source   models.Source
	Identity string
	Kept     string
	Dropped  string
}

func (c Collision) String() string {
	return fmt.Sprintf("%s: %q dropped, %q already holds identity %q", c.Source, c.Dropped, c.Kept, c.Identity)
}

type entity struct {
	key     string
	records map[models.Source]models.TeamRecord
}

type scored struct {
	entity   *entity
	weighted float64
	ranks    map[models.Source]*int
}

// Fuse aligns the per-source lists of one division, averages the ranks of
// each entity, and returns at most size entities ranked 1..n.
//
// gameCounts maps team names (any spelling) to historical game counts. The
// calculated rank is excluded for an entity with fewer than
// MinCalculatedGames games; when no count is known the calculated record's
// own game count is used, and failing that the count is zero.
//
// Entities without any contributing rank are dropped. Equal weighted ranks
// keep discovery order: sources are visited in AllSources order and each
// list in its given order. Records that lose their identity to an earlier
// record of the same source are reported in Result.Collisions.
func (e *Engine) Fuse(division models.Division, lists map[models.Source][]models.TeamRecord, gameCounts map[string]int, size int) Result {
	coverage := models.Coverage{
		Size:           size,
		Sources:        []models.Source{},
		MissingSources: []models.Source{},
	}
	for _, src := range models.AllSources {
		if len(lists[src]) > 0 {
			coverage.Sources = append(coverage.Sources, src)
		} else {
			coverage.MissingSources = append(coverage.MissingSources, src)
		}
	}

	entities, collisions := e.align(division, lists)
	coverage.Collisions = len(collisions)

	var candidates []scored
	for _, ent := range entities {
		s, ok := e.score(ent, gameCounts)
		if !ok {
			continue
		}
		candidates = append(candidates, s)
	}
	coverage.Entities = len(candidates)

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].weighted < candidates[j].weighted
	})

	if size > 0 && len(candidates) > size {
		candidates = candidates[:size]
	}

	teams := make([]models.CompositeTeamRecord, 0, len(candidates))
	for i, c := range candidates {
		teams = append(teams, e.composite(division, c, i+1))
	}

	coverage.Published = len(teams)
	coverage.UnderFilled = size > 0 && len(teams) < size

	log.Debug().
		Str("division", string(division)).
		Int("entities", coverage.Entities).
		Int("published", coverage.Published).
		Bool("under_filled", coverage.UnderFilled).
		Int("collisions", coverage.Collisions).
		Msg("Division fused")

	return Result{Teams: teams, Coverage: coverage, Collisions: collisions}
}

// align groups records of all sources by matcher identity. Within one
// source the first record for an identity wins and later ones come back
// as collisions.
func (e *Engine) align(division models.Division, lists map[models.Source][]models.TeamRecord) ([]*entity, []Collision) {
	var entities []*entity
	var collisions []Collision
	byKey := make(map[string]*entity)

	for _, src := range models.AllSources {
		for _, rec := range lists[src] {
			key := e.matcher.Identity(rec.RawName, division)

			ent, ok := byKey[key]
			if !ok {
				for _, existing := range entities {
					if e.matcher.SameKey(key, existing.key) {
						ent = existing
						break
					}
				}
				if ent == nil {
					ent = &entity{key: key, records: make(map[models.Source]models.TeamRecord)}
					entities = append(entities, ent)
				}
				byKey[key] = ent
			}

			if prev, dup := ent.records[src]; dup {
				log.Warn().
					Str("division", string(division)).
					Str("source", string(src)).
					Str("kept", prev.RawName).
					Str("dropped", rec.RawName).
					Msg("Duplicate identity within source")
				collisions = append(collisions, Collision{
					Source:   src,
					Identity: ent.key,
					Kept:     prev.RawName,
					Dropped:  rec.RawName,
				})
				continue
			}
			ent.records[src] = rec
		}
	}

	return entities, collisions
}

func (e *Engine) score(ent *entity, gameCounts map[string]int) (scored, bool) {
	ranks := make(map[models.Source]*int, len(models.AllSources))
	var sum, weights float64

	for _, src := range models.AllSources {
		rec, ok := ent.records[src]
		if !ok || !rec.Ranked() {
			ranks[src] = nil
			continue
		}
		rank := *rec.Rank
		ranks[src] = &rank

		if src == models.SourceCalculated {
			if games := e.gameCount(ent, rec, gameCounts); games < e.cfg.MinCalculatedGames {
				log.Debug().
					Str("team", rec.RawName).
					Int("games", games).
					Int("rank", rank).
					Msg("Calculated rank excluded for small sample")
				continue
			}
		}

		w := e.weight(src)
		if w <= 0 {
			continue
		}
		sum += w * float64(rank)
		weights += w
	}

	if weights == 0 {
		return scored{}, false
	}
	return scored{entity: ent, weighted: sum / weights, ranks: ranks}, true
}

func (e *Engine) weight(src models.Source) float64 {
	if w, ok := e.cfg.Weights[src]; ok {
		return w
	}
	return 1
}

// gameCount is the largest count known under any spelling of the entity
func (e *Engine) gameCount(ent *entity, calculated models.TeamRecord, gameCounts map[string]int) int {
	best, found := 0, false
	for _, name := range ent.names() {
		if c, ok := gameCounts[name]; ok {
			if !found || c > best {
				best = c
			}
			found = true
		}
	}
	if c, ok := gameCounts[ent.key]; ok && (!found || c > best) {
		best, found = c, true
	}
	if found {
		return best
	}
	if calculated.Games != nil {
		return *calculated.Games
	}
	return 0
}

// names lists every spelling of the entity in source order
func (ent *entity) names() []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(n string) {
		if _, ok := seen[n]; ok || n == "" {
			return
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	for _, src := range models.AllSources {
		rec, ok := ent.records[src]
		if !ok {
			continue
		}
		add(rec.RawName)
		for _, a := range rec.Aliases {
			add(a)
		}
	}
	return out
}

func (e *Engine) composite(division models.Division, c scored, rank int) models.CompositeTeamRecord {
	aliases := c.entity.names()

	out := models.CompositeTeamRecord{
		CanonicalName: e.matcher.BestRepresentative(aliases),
		Division:      division,
		Rank:          rank,
		WeightedRank:  c.weighted,
		SourceRanks:   c.ranks,
		Aliases:       aliases,
	}

	for _, src := range e.cfg.RecordTrustOrder {
		rec, ok := c.entity.records[src]
		if ok && rec.HasRecord() {
			wins, losses := *rec.Wins, *rec.Losses
			out.Wins, out.Losses = &wins, &losses
			break
		}
	}
	out.Record = models.FormatRecord(out.Wins, out.Losses)

	return out
}
