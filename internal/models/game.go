package models

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Game represents one historical high-school basketball result
type Game struct {
	ID        int            `db:"id"`
	GameDate  time.Time      `db:"game_date"`
	Season    int            `db:"season"`
	Division  sql.NullString `db:"division"`
	HomeTeam  string         `db:"home_team"`
	AwayTeam  string         `db:"away_team"`
	HomeScore int32          `db:"home_score"`
	AwayScore int32          `db:"away_score"`
	Source    sql.NullString `db:"source"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// GameResult is a game seen from one team's side
type GameResult struct {
	PointsScored  int `json:"points_scored"`
	PointsAllowed int `json:"points_allowed"`
}

// GameInput is used for importing games from scraper exports
type GameInput struct {
	Date      string `json:"date" validate:"required"` // YYYY-MM-DD or RFC 3339
	Division  string `json:"division"`
	HomeTeam  string `json:"home_team" validate:"required"`
	AwayTeam  string `json:"away_team" validate:"required,nefield=HomeTeam"`
	HomeScore int    `json:"home_score" validate:"min=0"`
	AwayScore int    `json:"away_score" validate:"min=0"`
	Source    string `json:"source"`
}

// ToGame converts GameInput to the Game model
func (gi *GameInput) ToGame() (*Game, error) {
	gameDate, err := parseGameDate(gi.Date)
	if err != nil {
		return nil, err
	}

	game := &Game{
		GameDate:  gameDate,
		Season:    SeasonOf(gameDate),
		HomeTeam:  strings.TrimSpace(gi.HomeTeam),
		AwayTeam:  strings.TrimSpace(gi.AwayTeam),
		HomeScore: int32(gi.HomeScore),
		AwayScore: int32(gi.AwayScore),
	}

	if gi.Division != "" {
		game.Division = sql.NullString{String: gi.Division, Valid: true}
	}
	if gi.Source != "" {
		game.Source = sql.NullString{String: gi.Source, Valid: true}
	}

	return game, nil
}

func parseGameDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid game date %q", s)
	}
	return t, nil
}

// SeasonOf returns the season a date belongs to. A basketball season spans
// the new year and is named for the year it starts in (Nov 2024 - Mar 2025 is 2024).
func SeasonOf(t time.Time) int {
	if t.Month() >= time.August {
		return t.Year()
	}
	return t.Year() - 1
}

// ResultFor returns the game from the named team's side. The name must match
// one of the stored team names case-insensitively.
func (g *Game) ResultFor(team string) (GameResult, bool) {
	switch {
	case strings.EqualFold(g.HomeTeam, team):
		return GameResult{PointsScored: int(g.HomeScore), PointsAllowed: int(g.AwayScore)}, true
	case strings.EqualFold(g.AwayTeam, team):
		return GameResult{PointsScored: int(g.AwayScore), PointsAllowed: int(g.HomeScore)}, true
	}
	return GameResult{}, false
}
