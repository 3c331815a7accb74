package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/teamarete/TBBAS/internal/models"

	"github.com/rs/zerolog/log"
)

// GameRepository handles historical game results
type GameRepository struct {
	db *Database
}

// Upsert inserts or updates a game keyed by date and teams
func (r *GameRepository) Upsert(ctx context.Context, game *models.Game) error {
	query := `
		INSERT INTO games (
			game_date, season, division, home_team, away_team,
			home_score, away_score, source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (game_date, home_team, away_team) DO UPDATE SET
			season = EXCLUDED.season,
			division = EXCLUDED.division,
			home_score = EXCLUDED.home_score,
			away_score = EXCLUDED.away_score,
			source = EXCLUDED.source,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(
		ctx, query,
		game.GameDate, game.Season, game.Division, game.HomeTeam, game.AwayTeam,
		game.HomeScore, game.AwayScore, game.Source,
	).Scan(&game.ID, &game.CreatedAt, &game.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert game: %w", err)
	}

	log.Debug().
		Int("id", game.ID).
		Str("home", game.HomeTeam).
		Str("away", game.AwayTeam).
		Msg("Game upserted")

	return nil
}

// FindGames returns the results of the first name variant that has any
// games, across all seasons
func (r *GameRepository) FindGames(ctx context.Context, variants []string) ([]models.GameResult, error) {
	return r.FindGamesInSeason(ctx, 0, variants)
}

// FindGamesInSeason is FindGames restricted to one season; season 0 means all
func (r *GameRepository) FindGamesInSeason(ctx context.Context, season int, variants []string) ([]models.GameResult, error) {
	for _, name := range variants {
		results, err := r.resultsFor(ctx, season, name)
		if err != nil {
			return nil, err
		}
		if len(results) > 0 {
			return results, nil
		}
	}
	return nil, nil
}

func (r *GameRepository) resultsFor(ctx context.Context, season int, team string) ([]models.GameResult, error) {
	query := `
		SELECT
			CASE WHEN LOWER(home_team) = LOWER($1) THEN home_score ELSE away_score END,
			CASE WHEN LOWER(home_team) = LOWER($1) THEN away_score ELSE home_score END
		FROM games
		WHERE (LOWER(home_team) = LOWER($1) OR LOWER(away_team) = LOWER($1))
		  AND ($2 = 0 OR season = $2)
		ORDER BY game_date
	`

	rows, err := r.db.Pool.Query(ctx, query, team, season)
	if err != nil {
		return nil, fmt.Errorf("failed to query games for %s: %w", team, err)
	}
	defer rows.Close()

	var results []models.GameResult
	for rows.Next() {
		var res models.GameResult
		if err := rows.Scan(&res.PointsScored, &res.PointsAllowed); err != nil {
			return nil, fmt.Errorf("failed to scan game result: %w", err)
		}
		results = append(results, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating games: %w", err)
	}

	return results, nil
}

// Count returns the total number of games
func (r *GameRepository) Count(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM games`

	var count int
	err := r.db.Pool.QueryRow(ctx, query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count games: %w", err)
	}

	return count, nil
}

// SeasonStore restricts game lookups to a single season. A zero Season
// follows the calendar: each lookup uses the season in progress.
type SeasonStore struct {
	Games  *GameRepository
	Season int
}

// FindGames implements stats.GameResultStore
func (s SeasonStore) FindGames(ctx context.Context, variants []string) ([]models.GameResult, error) {
	season := s.Season
	if season == 0 {
		season = models.SeasonOf(time.Now())
	}
	return s.Games.FindGamesInSeason(ctx, season, variants)
}
