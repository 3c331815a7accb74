// Package stats enriches fused rankings with game-derived statistics.
package stats

import (
	"context"
	"fmt"
	"math"

	"github.com/teamarete/TBBAS/internal/models"
	"github.com/teamarete/TBBAS/internal/names"
)

// GameResultStore finds a team's historical results. FindGames tries the
// names in order and returns the results for the first one with any games.
type GameResultStore interface {
	FindGames(ctx context.Context, variants []string) ([]models.GameResult, error)
}

// Enricher attaches ppg, opp_ppg and games to composite records
type Enricher struct {
	store    GameResultStore
	variants *names.VariantGenerator
}

// NewEnricher creates an Enricher
func NewEnricher(store GameResultStore, v *names.VariantGenerator) *Enricher {
	return &Enricher{store: store, variants: v}
}

// Enrich returns a copy of rec with game stats filled in. When no spelling
// of the team has stored games the stats stay nil.
func (e *Enricher) Enrich(ctx context.Context, rec models.CompositeTeamRecord) (models.CompositeTeamRecord, error) {
	candidates := append([]string{rec.CanonicalName}, rec.Aliases...)
	results, err := e.store.FindGames(ctx, e.probeNames(candidates, rec.Division))
	if err != nil {
		return rec, fmt.Errorf("failed to find games for %s: %w", rec.CanonicalName, err)
	}

	out := rec
	if games, ppg, oppPPG, ok := Summarize(results); ok {
		out.Games = &games
		out.PPG = &ppg
		out.OppPPG = &oppPPG
	}
	return out, nil
}

// GameCounts returns the number of stored games for each record, keyed by
// raw name. Records without stored games are left out.
func (e *Enricher) GameCounts(ctx context.Context, records []models.TeamRecord) (map[string]int, error) {
	counts := make(map[string]int, len(records))
	for _, r := range records {
		candidates := append([]string{r.RawName}, r.Aliases...)
		results, err := e.store.FindGames(ctx, e.probeNames(candidates, r.Division))
		if err != nil {
			return nil, fmt.Errorf("failed to count games for %s: %w", r.RawName, err)
		}
		if len(results) > 0 {
			counts[r.RawName] = len(results)
		}
	}
	return counts, nil
}

// probeNames concatenates the variants of every candidate, keeping the
// first occurrence of each spelling
func (e *Enricher) probeNames(candidates []string, division models.Division) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, c := range candidates {
		for _, v := range e.variants.Variants(c, division) {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// Summarize computes game count and scoring averages rounded to one
// decimal. ok is false for an empty result set.
func Summarize(results []models.GameResult) (games int, ppg, oppPPG float64, ok bool) {
	if len(results) == 0 {
		return 0, 0, 0, false
	}

	var scored, allowed int
	for _, r := range results {
		scored += r.PointsScored
		allowed += r.PointsAllowed
	}

	n := float64(len(results))
	return len(results), round1(float64(scored) / n), round1(float64(allowed) / n), true
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
