package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestDivisionTier(t *testing.T) {
	assert.Equal(t, TierUIL, Division6A.Tier())
	assert.Equal(t, TierUIL, Division1A.Tier())
	assert.Equal(t, TierPrivate, DivisionTAPPS6A.Tier())
	assert.Len(t, AllDivisions(), 12)
}

func TestParseDivision(t *testing.T) {
	div, err := ParseDivision("tapps_5a")
	require.NoError(t, err)
	assert.Equal(t, DivisionTAPPS5A, div)

	_, err = ParseDivision("AAAAAAA")
	assert.Error(t, err)
}

func TestParseSource(t *testing.T) {
	src, err := ParseSource(" TABC ")
	require.NoError(t, err)
	assert.Equal(t, SourceTABC, src)

	_, err = ParseSource("maxpreps")
	assert.Error(t, err)
}

func TestFormatRecord(t *testing.T) {
	assert.Equal(t, "10-2", FormatRecord(intPtr(10), intPtr(2)))
	assert.Equal(t, "", FormatRecord(intPtr(10), nil))
	assert.Equal(t, "", FormatRecord(nil, nil))
}

func TestGameResultFor(t *testing.T) {
	g := &Game{HomeTeam: "Brennan", AwayTeam: "Clark", HomeScore: 61, AwayScore: 55}

	res, ok := g.ResultFor("brennan")
	require.True(t, ok)
	assert.Equal(t, GameResult{PointsScored: 61, PointsAllowed: 55}, res)

	res, ok = g.ResultFor("Clark")
	require.True(t, ok)
	assert.Equal(t, GameResult{PointsScored: 55, PointsAllowed: 61}, res)

	_, ok = g.ResultFor("Reagan")
	assert.False(t, ok)
}

func TestGameInputToGame(t *testing.T) {
	gi := &GameInput{Date: "2025-01-14", HomeTeam: " Brennan ", AwayTeam: "Clark", HomeScore: 61, AwayScore: 55, Division: "AAAAAA"}
	game, err := gi.ToGame()
	require.NoError(t, err)
	assert.Equal(t, "Brennan", game.HomeTeam)
	assert.Equal(t, 2024, game.Season)
	assert.True(t, game.Division.Valid)
	assert.False(t, game.Source.Valid)

	gi.Date = "Jan 14"
	_, err = gi.ToGame()
	assert.Error(t, err)
}

func TestSeasonOf(t *testing.T) {
	assert.Equal(t, 2024, SeasonOf(time.Date(2024, time.November, 12, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 2024, SeasonOf(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)))
}

func TestRankingDocumentJSON(t *testing.T) {
	ts := time.Date(2025, time.January, 20, 6, 0, 0, 0, time.UTC)
	doc := NewRankingDocument(ts)
	doc.SetDivision(Division6A, []CompositeTeamRecord{{
		CanonicalName: "Brennan",
		Division:      Division6A,
		Rank:          1,
		WeightedRank:  1.33,
		SourceRanks:   map[Source]*int{SourceTABC: intPtr(1), SourceMediaSite: nil},
		Wins:          intPtr(10),
		Losses:        intPtr(2),
		Record:        "10-2",
		Aliases:       []string{"San Antonio Brennan"},
	}}, Coverage{Size: 25, Entities: 1, Published: 1, UnderFilled: true})
	doc.SetDivision(DivisionTAPPS6A, nil, Coverage{Size: 10})

	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "2025-01-20T06:00:00Z", decoded["last_updated"])

	uil := decoded["uil"].(map[string]interface{})
	team := uil["AAAAAA"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "Brennan", team["team_name"])
	assert.Equal(t, "10-2", team["record"])
	assert.Nil(t, team["ppg"])
	assert.NotContains(t, team, "Aliases")

	private := decoded["private"].(map[string]interface{})
	assert.Equal(t, []interface{}{}, private["TAPPS_6A"])
	assert.Len(t, doc.Division(Division6A), 1)
}
