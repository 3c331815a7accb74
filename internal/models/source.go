package models

import (
	"fmt"
	"strings"
)

// Source identifies one independent ranking feed
type Source string

const (
	// SourceTABC is the coaches' poll
	SourceTABC Source = "tabc"
	// SourceMediaSite is the high-school sports media site
	SourceMediaSite Source = "media"
	// SourceCalculated is the internally calculated efficiency rating
	SourceCalculated Source = "calculated"
)

// AllSources lists every source in discovery order. Fusion walks sources in
// this order, so it also fixes tie-break order between equal weighted ranks.
var AllSources = []Source{SourceTABC, SourceMediaSite, SourceCalculated}

// Valid reports whether s is a known source
func (s Source) Valid() bool {
	for _, known := range AllSources {
		if s == known {
			return true
		}
	}
	return false
}

// ParseSource converts a config or CLI string into a Source
func ParseSource(s string) (Source, error) {
	src := Source(strings.ToLower(strings.TrimSpace(s)))
	if !src.Valid() {
		return "", fmt.Errorf("unknown source %q", s)
	}
	return src, nil
}

// Tier is a governing body tier; each tier has its own publication size
type Tier string

const (
	TierUIL     Tier = "uil"
	TierPrivate Tier = "private"
)

// Division is a classification code such as AAAAAA or TAPPS_6A
type Division string

// UIL classifications
const (
	Division6A Division = "AAAAAA"
	Division5A Division = "AAAAA"
	Division4A Division = "AAAA"
	Division3A Division = "AAA"
	Division2A Division = "AA"
	Division1A Division = "A"
)

// TAPPS (private school) classifications
const (
	DivisionTAPPS6A Division = "TAPPS_6A"
	DivisionTAPPS5A Division = "TAPPS_5A"
	DivisionTAPPS4A Division = "TAPPS_4A"
	DivisionTAPPS3A Division = "TAPPS_3A"
	DivisionTAPPS2A Division = "TAPPS_2A"
	DivisionTAPPS1A Division = "TAPPS_1A"
)

var (
	// UILDivisions are published under the "uil" key
	UILDivisions = []Division{Division6A, Division5A, Division4A, Division3A, Division2A, Division1A}

	// PrivateDivisions are published under the "private" key
	PrivateDivisions = []Division{
		DivisionTAPPS6A, DivisionTAPPS5A, DivisionTAPPS4A,
		DivisionTAPPS3A, DivisionTAPPS2A, DivisionTAPPS1A,
	}
)

// AllDivisions returns UIL divisions followed by private divisions
func AllDivisions() []Division {
	all := make([]Division, 0, len(UILDivisions)+len(PrivateDivisions))
	all = append(all, UILDivisions...)
	return append(all, PrivateDivisions...)
}

// Tier returns the governing body tier of the division
func (d Division) Tier() Tier {
	if strings.HasPrefix(string(d), "TAPPS") {
		return TierPrivate
	}
	return TierUIL
}

// Valid reports whether d is a known division
func (d Division) Valid() bool {
	for _, known := range AllDivisions() {
		if d == known {
			return true
		}
	}
	return false
}

// ParseDivision accepts a division code, case-insensitively
func ParseDivision(s string) (Division, error) {
	div := Division(strings.ToUpper(strings.TrimSpace(s)))
	if !div.Valid() {
		return "", fmt.Errorf("unknown division %q", s)
	}
	return div, nil
}
