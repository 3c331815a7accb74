//go:build integration

package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/teamarete/TBBAS/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGame(date time.Time, home, away string, hs, as int32) *models.Game {
	return &models.Game{
		GameDate:  date,
		Season:    models.SeasonOf(date),
		Division:  sql.NullString{String: "AAAAAA", Valid: true},
		HomeTeam:  home,
		AwayTeam:  away,
		HomeScore: hs,
		AwayScore: as,
	}
}

func TestGameRepository_Upsert(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	day := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	game := testGame(day, "Brennan", "Clark", 61, 55)

	require.NoError(t, db.Games.Upsert(ctx, game), "Should insert game")
	assert.NotZero(t, game.ID)
	firstID := game.ID

	// Corrected score for the same matchup updates in place
	game.HomeScore = 63
	require.NoError(t, db.Games.Upsert(ctx, game), "Should update game")
	assert.Equal(t, firstID, game.ID)

	count, err := db.Games.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := db.Games.FindGamesInSeason(ctx, 2024, []string{game.HomeTeam})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 63, results[0].PointsScored)
}

func TestGameRepository_FindGames(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	day := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Games.Upsert(ctx, testGame(day, "Brennan", "Clark", 61, 55)))
	require.NoError(t, db.Games.Upsert(ctx, testGame(day.AddDate(0, 0, 3), "Reagan", "Brennan", 48, 70)))
	require.NoError(t, db.Games.Upsert(ctx, testGame(day.AddDate(-1, 0, 0), "Brennan", "Warren", 40, 50)))

	// The first variant with games wins; names match case-insensitively
	results, err := db.Games.FindGames(ctx, []string{"San Antonio Brennan", "BRENNAN"})
	require.NoError(t, err)
	assert.Len(t, results, 3)

	results, err = db.Games.FindGamesInSeason(ctx, 2024, []string{"Brennan"})
	require.NoError(t, err)
	assert.Equal(t, []models.GameResult{
		{PointsScored: 61, PointsAllowed: 55},
		{PointsScored: 70, PointsAllowed: 48},
	}, results)

	store := SeasonStore{Games: db.Games, Season: 2023}
	results, err = store.FindGames(ctx, []string{"Brennan"})
	require.NoError(t, err)
	assert.Len(t, results, 1)

	results, err = db.Games.FindGames(ctx, []string{"Nobody", "Clark"})
	require.NoError(t, err)
	assert.Len(t, results, 1)

	results, err = db.Games.FindGames(ctx, []string{"Nobody"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDistrictRepository(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	require.NoError(t, db.Districts.Upsert(ctx, models.DistrictEntry{CanonicalName: "Brennan", Division: models.Division6A, District: "27"}))
	require.NoError(t, db.Districts.Upsert(ctx, models.DistrictEntry{CanonicalName: "Brennan", Division: models.Division6A, District: "28"}))
	require.NoError(t, db.Districts.Upsert(ctx, models.DistrictEntry{CanonicalName: "Dunbar", Division: models.Division4A, District: "8"}))

	count, err := db.Districts.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	entries, err := db.Districts.ListDistricts(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Contains(t, entries, models.DistrictEntry{CanonicalName: "Brennan", Division: models.Division6A, District: "28"})
}
