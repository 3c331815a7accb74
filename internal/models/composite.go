package models

import (
	"fmt"
	"time"
)

// CompositeTeamRecord is one entry of a published consensus ranking
type CompositeTeamRecord struct {
	CanonicalName string   `json:"team_name"`
	Division      Division `json:"classification"`

	// Rank is the final 1-based position; WeightedRank is the pre-rounding mean
	Rank         int             `json:"rank"`
	WeightedRank float64         `json:"weighted_rank"`
	SourceRanks  map[Source]*int `json:"source_ranks"`

	Wins   *int   `json:"wins"`
	Losses *int   `json:"losses"`
	Record string `json:"record"`

	District *string `json:"district"`

	// Game-derived stats; nil means unknown, never zero
	PPG    *float64 `json:"ppg"`
	OppPPG *float64 `json:"opp_ppg"`
	Games  *int     `json:"games"`

	// Aliases are every raw name that was merged into this entity
	Aliases []string `json:"-"`
}

// FormatRecord renders a "W-L" string, or "" when either side is unknown
func FormatRecord(wins, losses *int) string {
	if wins == nil || losses == nil {
		return ""
	}
	return fmt.Sprintf("%d-%d", *wins, *losses)
}

// Coverage reports how completely a division was filled on one run
type Coverage struct {
	Size           int      `json:"size"`
	Entities       int      `json:"entities"`
	Published      int      `json:"published"`
	UnderFilled    bool     `json:"under_filled"`
	Collisions     int      `json:"collisions"`
	Sources        []Source `json:"sources"`
	MissingSources []Source `json:"missing_sources"`
}

// RankingDocument is the snapshot consumed by the front-end
type RankingDocument struct {
	LastUpdated time.Time                          `json:"last_updated"`
	UIL         map[Division][]CompositeTeamRecord `json:"uil"`
	Private     map[Division][]CompositeTeamRecord `json:"private"`
	Coverage    map[Division]Coverage              `json:"coverage"`
	Warnings    []string                           `json:"warnings,omitempty"`
}

// NewRankingDocument creates an empty document stamped with ts
func NewRankingDocument(ts time.Time) *RankingDocument {
	return &RankingDocument{
		LastUpdated: ts.UTC(),
		UIL:         make(map[Division][]CompositeTeamRecord),
		Private:     make(map[Division][]CompositeTeamRecord),
		Coverage:    make(map[Division]Coverage),
	}
}

// SetDivision stores a division's list under its tier key. A nil list is
// stored as an empty list so the division still serializes as [].
func (d *RankingDocument) SetDivision(div Division, teams []CompositeTeamRecord, cov Coverage) {
	if teams == nil {
		teams = []CompositeTeamRecord{}
	}
	if div.Tier() == TierPrivate {
		d.Private[div] = teams
	} else {
		d.UIL[div] = teams
	}
	d.Coverage[div] = cov
}

// Division returns the published list for div
func (d *RankingDocument) Division(div Division) []CompositeTeamRecord {
	if div.Tier() == TierPrivate {
		return d.Private[div]
	}
	return d.UIL[div]
}

// AddWarning appends a document-level warning
func (d *RankingDocument) AddWarning(format string, args ...interface{}) {
	d.Warnings = append(d.Warnings, fmt.Sprintf(format, args...))
}
