package models

// RawRecord is one row of a scraped ranking list as the scrapers emit it
type RawRecord struct {
	Rank     *int   `json:"rank" validate:"omitempty,min=1"`
	TeamName string `json:"team_name" validate:"required"`
	Wins     *int   `json:"wins" validate:"omitempty,min=0"`
	Losses   *int   `json:"losses" validate:"omitempty,min=0"`
	Games    *int   `json:"games,omitempty" validate:"omitempty,min=0"`
}

// TeamRecord is a ranked-team record from one source for one division.
// Records are produced fresh on every run and never modified once fusion
// reads them.
type TeamRecord struct {
	RawName      string
	CanonicalKey string
	Division     Division
	Source       Source

	// Rank is 1-based within Source and Division; nil means unranked
	Rank   *int
	Wins   *int
	Losses *int

	// Games is the source's own game count when it reports one
	Games *int

	// Aliases holds the raw names folded into this record by dedupe
	Aliases []string
}

// ToTeamRecord converts a raw row into a TeamRecord for the given source and division
func (r RawRecord) ToTeamRecord(source Source, division Division, canonicalKey string) TeamRecord {
	return TeamRecord{
		RawName:      r.TeamName,
		CanonicalKey: canonicalKey,
		Division:     division,
		Source:       source,
		Rank:         r.Rank,
		Wins:         r.Wins,
		Losses:       r.Losses,
		Games:        r.Games,
	}
}

// Ranked reports whether the source ranked this team
func (r TeamRecord) Ranked() bool {
	return r.Rank != nil
}

// HasRecord reports whether both wins and losses are known
func (r TeamRecord) HasRecord() bool {
	return r.Wins != nil && r.Losses != nil
}

// SynonymEntry maps one alternate spelling to a canonical name. An empty
// Division applies in every division.
type SynonymEntry struct {
	Alias     string   `yaml:"alias" validate:"required"`
	Canonical string   `yaml:"canonical" validate:"required"`
	Division  Division `yaml:"division,omitempty"`
}

// DistrictEntry maps a school in a division to its district.
// Lookup-only reference data.
type DistrictEntry struct {
	CanonicalName string   `db:"school_name" yaml:"team_name" validate:"required"`
	Division      Division `db:"division" yaml:"division" validate:"required"`
	District      string   `db:"district" yaml:"district" validate:"required"`
}
