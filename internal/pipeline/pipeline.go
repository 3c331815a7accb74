// Package pipeline runs one end-to-end ranking cycle: load every source,
// collapse duplicates, fuse each division, enrich, attach districts and
// publish the snapshot.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/teamarete/TBBAS/internal/client"
	"github.com/teamarete/TBBAS/internal/dedupe"
	"github.com/teamarete/TBBAS/internal/district"
	"github.com/teamarete/TBBAS/internal/fusion"
	"github.com/teamarete/TBBAS/internal/matcher"
	"github.com/teamarete/TBBAS/internal/metrics"
	"github.com/teamarete/TBBAS/internal/models"
	"github.com/teamarete/TBBAS/internal/names"
	"github.com/teamarete/TBBAS/internal/stats"
)

// DefaultLoadConcurrency bounds parallel source loads
const DefaultLoadConcurrency = 3

// Publisher swaps in a finished document
type Publisher interface {
	Publish(ctx context.Context, doc *models.RankingDocument) error
}

// Deps are the collaborators of a Pipeline
type Deps struct {
	Loader    client.Loader
	Tables    *names.Tables
	Overrides *district.OverrideTable
	Reference district.ReferenceSource
	Games     stats.GameResultStore
	Publisher Publisher
}

// Options tune a Pipeline
type Options struct {
	MatchThreshold          float64
	Fusion                  fusion.Config
	DistrictMinSubstringLen int
	UILSize                 int
	PrivateSize             int
	LoadConcurrency         int
	Now                     func() time.Time
}

// DefaultOptions returns the production settings
func DefaultOptions() Options {
	return Options{
		MatchThreshold:          matcher.DefaultThreshold,
		Fusion:                  fusion.DefaultConfig(),
		DistrictMinSubstringLen: district.DefaultMinSubstringLen,
		UILSize:                 25,
		PrivateSize:             10,
		LoadConcurrency:         DefaultLoadConcurrency,
		Now:                     time.Now,
	}
}

// Pipeline holds the immutable components shared by every run
type Pipeline struct {
	deps     Deps
	opts     Options
	norm     *names.Normalizer
	synonyms *names.SynonymTable
	variants *names.VariantGenerator
	dedupe   *dedupe.Deduplicator
	fusion   *fusion.Engine
	enricher *stats.Enricher
}

// New wires a Pipeline from its collaborators
func New(deps Deps, opts Options) *Pipeline {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.LoadConcurrency <= 0 {
		opts.LoadConcurrency = DefaultLoadConcurrency
	}
	if deps.Overrides == nil {
		deps.Overrides = district.NewOverrideTable(nil)
	}

	norm := names.NewNormalizer(deps.Tables)
	synonyms := names.NewSynonymTable(deps.Tables.Synonyms)
	variants := names.NewVariantGenerator(norm, synonyms)
	m := matcher.New(norm, synonyms, opts.MatchThreshold)

	metrics.AmbiguousSynonyms.Set(float64(len(synonyms.Ambiguities())))

	return &Pipeline{
		deps:     deps,
		opts:     opts,
		norm:     norm,
		synonyms: synonyms,
		variants: variants,
		dedupe:   dedupe.New(m),
		fusion:   fusion.NewEngine(m, opts.Fusion),
		enricher: stats.NewEnricher(deps.Games, variants),
	}
}

// Run builds the document and publishes it. Nothing is published when the
// build fails or ctx is cancelled before the swap.
func (p *Pipeline) Run(ctx context.Context, trigger string) (*models.RankingDocument, error) {
	start := time.Now()

	doc, err := p.Build(ctx)
	if err == nil {
		err = ctx.Err()
	}
	if err == nil {
		err = p.deps.Publisher.Publish(ctx, doc)
	}

	duration := time.Since(start)
	if err != nil {
		metrics.RecordRun(trigger, "error", duration.Seconds())
		metrics.RecordError("pipeline", "run_failed")
		log.Error().Err(err).Str("trigger", trigger).Dur("duration", duration).Msg("Ranking run failed")
		return nil, err
	}

	metrics.RecordRun(trigger, "success", duration.Seconds())
	log.Info().
		Str("trigger", trigger).
		Dur("duration", duration).
		Int("warnings", len(doc.Warnings)).
		Msg("Ranking run completed")

	return doc, nil
}

// Build produces a complete document without publishing it
func (p *Pipeline) Build(ctx context.Context) (*models.RankingDocument, error) {
	doc := models.NewRankingDocument(p.opts.Now())

	for _, a := range p.synonyms.Ambiguities() {
		log.Warn().Err(a).Msg("Ambiguous synonym")
		doc.AddWarning("%s", a.Error())
	}
	for _, c := range p.deps.Overrides.Conflicts() {
		log.Warn().Str("conflict", c.String()).Msg("Conflicting district override excluded")
		doc.AddWarning("conflicting %s", c)
	}

	lookup := p.districtLookup(ctx, doc)

	loaded := p.loadSources(ctx)
	for _, src := range models.AllSources {
		if _, ok := loaded[src]; !ok {
			doc.AddWarning("source %s unavailable", src)
		}
	}

	for _, div := range models.AllDivisions() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		teams, cov, err := p.buildDivision(ctx, div, loaded, lookup, doc)
		if err != nil {
			return nil, fmt.Errorf("division %s: %w", div, err)
		}

		doc.SetDivision(div, teams, cov)
		metrics.RecordDivision(string(div), cov.Entities, cov.Published, cov.UnderFilled)
		if cov.UnderFilled && cov.Published > 0 {
			doc.AddWarning("division %s under-filled: %d of %d", div, cov.Published, cov.Size)
		}
	}

	return doc, nil
}

// districtLookup loads the reference table once per run. When it cannot be
// read the overrides still apply and the document says so.
func (p *Pipeline) districtLookup(ctx context.Context, doc *models.RankingDocument) *district.Lookup {
	var reference []models.DistrictEntry
	if p.deps.Reference != nil {
		entries, err := p.deps.Reference.ListDistricts(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("District reference unavailable, using overrides only")
			metrics.RecordError("district", "reference_unavailable")
			doc.AddWarning("district reference unavailable")
		} else {
			reference = entries
		}
	}
	return district.NewLookup(p.deps.Overrides, reference, p.norm, p.variants, p.opts.DistrictMinSubstringLen)
}

// loadSources loads every source in parallel. A failed source is logged
// and left out; the others still contribute.
func (p *Pipeline) loadSources(ctx context.Context) map[models.Source]client.SourceLists {
	results := make([]client.SourceLists, len(models.AllSources))

	var g errgroup.Group
	g.SetLimit(p.opts.LoadConcurrency)

	for i, src := range models.AllSources {
		i, src := i, src
		g.Go(func() error {
			start := time.Now()
			lists, err := p.deps.Loader.Load(ctx, src)
			elapsed := time.Since(start).Seconds()
			if err != nil {
				metrics.RecordSourceFetch(string(src), "error", elapsed)
				log.Warn().Err(err).Str("source", string(src)).Msg("Source load failed")
				return nil
			}
			metrics.RecordSourceFetch(string(src), "success", elapsed)
			log.Info().
				Str("source", string(src)).
				Int("divisions", len(lists)).
				Int("records", lists.Records()).
				Msg("Source loaded")
			results[i] = lists
			return nil
		})
	}
	_ = g.Wait()

	loaded := make(map[models.Source]client.SourceLists)
	for i, src := range models.AllSources {
		if results[i] != nil {
			loaded[src] = results[i]
		}
	}
	return loaded
}

func (p *Pipeline) buildDivision(ctx context.Context, div models.Division, loaded map[models.Source]client.SourceLists, lookup *district.Lookup, doc *models.RankingDocument) ([]models.CompositeTeamRecord, models.Coverage, error) {
	lists := make(map[models.Source][]models.TeamRecord)
	for _, src := range models.AllSources {
		rows := loaded[src][div]
		if len(rows) == 0 {
			continue
		}

		records := make([]models.TeamRecord, 0, len(rows))
		for _, row := range rows {
			records = append(records, row.ToTeamRecord(src, div, p.norm.Normalize(row.TeamName)))
		}

		deduped := p.dedupe.Dedupe(records)
		if removed := len(records) - len(deduped); removed > 0 {
			metrics.RecordDedupe(string(src), removed)
			log.Info().
				Str("source", string(src)).
				Str("division", string(div)).
				Int("removed", removed).
				Msg("Removed duplicate entries")
		}
		lists[src] = deduped
	}

	gameCounts, err := p.enricher.GameCounts(ctx, lists[models.SourceCalculated])
	if err != nil {
		return nil, models.Coverage{}, err
	}

	result := p.fusion.Fuse(div, lists, gameCounts, p.publicationSize(div))
	for _, c := range result.Collisions {
		metrics.RecordCollision(string(c.Source))
		doc.AddWarning("division %s identity collision in %s", div, c)
	}

	var noGames, noDistrict int
	teams := make([]models.CompositeTeamRecord, 0, len(result.Teams))
	for _, t := range result.Teams {
		enriched, err := p.enricher.Enrich(ctx, t)
		if err != nil {
			return nil, models.Coverage{}, err
		}
		if enriched.Games == nil {
			noGames++
		}

		candidates := append([]string{enriched.CanonicalName}, enriched.Aliases...)
		if m, ok := lookup.Find(candidates, div); ok {
			d := m.District
			enriched.District = &d
		} else {
			noDistrict++
		}

		teams = append(teams, enriched)
	}

	metrics.RecordUnresolved("games", noGames)
	metrics.RecordUnresolved("district", noDistrict)

	return teams, result.Coverage, nil
}

func (p *Pipeline) publicationSize(div models.Division) int {
	if div.Tier() == models.TierPrivate {
		return p.opts.PrivateSize
	}
	return p.opts.UILSize
}

