package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamarete/TBBAS/internal/models"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_PASSWORD", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, SourceModeFile, cfg.SourceMode)
	assert.Equal(t, 30*time.Second, cfg.SourceTimeout)
	assert.Equal(t, 0.90, cfg.MatchThreshold)
	assert.Equal(t, 15, cfg.MinCalculatedGames)
	assert.Equal(t, 25, cfg.UILPublicationSize)
	assert.Equal(t, 10, cfg.PrivatePublicationSize)
	assert.Equal(t, "0 6 * * 1", cfg.RankingsCron)
	assert.Equal(t, "localhost", cfg.RedisHost)
	assert.Equal(t, 6379, cfg.RedisPort)

	order, err := cfg.TrustOrder()
	require.NoError(t, err)
	assert.Equal(t, []models.Source{models.SourceTABC, models.SourceCalculated, models.SourceMediaSite}, order)
}

func TestLoadMissingPassword(t *testing.T) {
	t.Setenv("DATABASE_PASSWORD", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadWeights(t *testing.T) {
	t.Setenv("DATABASE_PASSWORD", "secret")
	t.Setenv("SOURCE_WEIGHTS", "tabc:2,media:0.5")

	cfg, err := Load()
	require.NoError(t, err)

	w, err := cfg.Weights()
	require.NoError(t, err)
	assert.Equal(t, map[models.Source]float64{models.SourceTABC: 2, models.SourceMediaSite: 0.5}, w)
}

func validConfig() Config {
	return Config{
		DatabasePassword:       "secret",
		MatchThreshold:         0.9,
		UILPublicationSize:     25,
		PrivatePublicationSize: 10,
		SourceMode:             SourceModeFile,
		RecordTrustOrder:       []string{"tabc", "calculated", "media"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(c *Config) {}, true},
		{"threshold zero", func(c *Config) { c.MatchThreshold = 0 }, false},
		{"threshold one", func(c *Config) { c.MatchThreshold = 1 }, true},
		{"threshold above one", func(c *Config) { c.MatchThreshold = 1.1 }, false},
		{"zero size", func(c *Config) { c.UILPublicationSize = 0 }, false},
		{"negative min games", func(c *Config) { c.MinCalculatedGames = -1 }, false},
		{"unknown mode", func(c *Config) { c.SourceMode = "ftp" }, false},
		{"http without url", func(c *Config) { c.SourceMode = SourceModeHTTP }, false},
		{"http with url", func(c *Config) {
			c.SourceMode = SourceModeHTTP
			c.SourceBaseURL = "http://feeds.local"
		}, true},
		{"unknown trust source", func(c *Config) { c.RecordTrustOrder = []string{"tabc", "maxpreps"} }, false},
		{"zero weight", func(c *Config) { c.SourceWeights = map[string]float64{"media": 0} }, true},
		{"negative weight", func(c *Config) { c.SourceWeights = map[string]float64{"media": -1} }, false},
		{"bad season date", func(c *Config) { c.SeasonStart = "11/01/2024" }, false},
		{"season reversed", func(c *Config) {
			c.SeasonStart = "2025-03-31"
			c.SeasonEnd = "2024-11-01"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSeasonWindow(t *testing.T) {
	cfg := validConfig()
	start, end, err := cfg.SeasonWindow()
	require.NoError(t, err)
	assert.True(t, start.IsZero())
	assert.True(t, end.IsZero())

	cfg.SeasonStart = "2024-11-01"
	cfg.SeasonEnd = "2025-03-31"
	start, end, err = cfg.SeasonWindow()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), end)
}
