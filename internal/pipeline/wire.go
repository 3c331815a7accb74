package pipeline

import (
	"fmt"

	"github.com/teamarete/TBBAS/internal/cache"
	"github.com/teamarete/TBBAS/internal/client"
	"github.com/teamarete/TBBAS/internal/config"
	"github.com/teamarete/TBBAS/internal/district"
	"github.com/teamarete/TBBAS/internal/fusion"
	"github.com/teamarete/TBBAS/internal/names"
	"github.com/teamarete/TBBAS/internal/publish"
	"github.com/teamarete/TBBAS/internal/repository"
)

// Resources are the long-lived connections a pipeline runs on. Cache may
// be nil.
type Resources struct {
	DB    *repository.Database
	Cache *cache.RedisCache
}

// FromConfig loads the curated tables and wires a Pipeline for cfg
func FromConfig(cfg *config.Config, res Resources) (*Pipeline, error) {
	tables, err := names.LoadTables(cfg.CuratedTablesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load curated tables: %w", err)
	}

	overrides, err := district.LoadOverrides(cfg.DistrictOverridesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load district overrides: %w", err)
	}

	trust, err := cfg.TrustOrder()
	if err != nil {
		return nil, err
	}
	weights, err := cfg.Weights()
	if err != nil {
		return nil, err
	}

	var mirror publish.SnapshotMirror
	if cfg.RedisEnabled && res.Cache != nil {
		mirror = res.Cache
	}

	opts := DefaultOptions()
	opts.MatchThreshold = cfg.MatchThreshold
	opts.Fusion = fusion.Config{
		MinCalculatedGames: cfg.MinCalculatedGames,
		Weights:            weights,
		RecordTrustOrder:   trust,
	}
	opts.DistrictMinSubstringLen = cfg.DistrictMinSubstringLen
	opts.UILSize = cfg.UILPublicationSize
	opts.PrivateSize = cfg.PrivatePublicationSize

	return New(Deps{
		Loader:    NewLoader(cfg),
		Tables:    tables,
		Overrides: overrides,
		Reference: res.DB.Districts,
		Games:     repository.SeasonStore{Games: res.DB.Games},
		Publisher: publish.NewPublisher(cfg.OutputPath, mirror, cfg.RedisSnapshotKey),
	}, opts), nil
}

// NewLoader returns the source loader selected by SOURCE_MODE
func NewLoader(cfg *config.Config) client.Loader {
	if cfg.SourceMode == config.SourceModeHTTP {
		return client.NewHTTPClient(cfg.SourceBaseURL, cfg.SourceTimeout, cfg.SourceRateLimit, cfg.SourceMaxRetries)
	}
	return client.NewFileLoader(cfg.SourceDir)
}
