package district

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamarete/TBBAS/internal/models"
	"github.com/teamarete/TBBAS/internal/names"
)

func newTestLookup(t *testing.T, overrides []models.DistrictEntry, reference []models.DistrictEntry) *Lookup {
	t.Helper()
	tables, err := names.DefaultTables()
	require.NoError(t, err)
	n := names.NewNormalizer(tables)
	v := names.NewVariantGenerator(n, names.NewSynonymTable(tables.Synonyms))
	return NewLookup(NewOverrideTable(overrides), reference, n, v, DefaultMinSubstringLen)
}

var reference = []models.DistrictEntry{
	{CanonicalName: "San Antonio Brennan", Division: models.Division6A, District: "27"},
	{CanonicalName: "Katy Seven Lakes", Division: models.Division6A, District: "19"},
	{CanonicalName: "Lake Travis", Division: models.Division6A, District: "26"},
	{CanonicalName: "Fort Worth Dunbar", Division: models.Division4A, District: "8"},
	{CanonicalName: "Houston Christian", Division: models.DivisionTAPPS6A, District: "3"},
}

func TestOverrideWinsOverSubstring(t *testing.T) {
	l := newTestLookup(t, []models.DistrictEntry{
		{CanonicalName: "Brennan", Division: models.Division6A, District: "28"},
	}, reference)

	m, ok := l.Find([]string{"Brennan"}, models.Division6A)
	require.True(t, ok)
	assert.Equal(t, Match{District: "28", Tier: TierOverride}, m)
}

func TestOverrideOnAnyCandidateBeatsReference(t *testing.T) {
	l := newTestLookup(t, []models.DistrictEntry{
		{CanonicalName: "SA Brennan", Division: models.Division6A, District: "28"},
	}, reference)

	m, ok := l.Find([]string{"San Antonio Brennan", "SA Brennan"}, models.Division6A)
	require.True(t, ok)
	assert.Equal(t, TierOverride, m.Tier)
	assert.Equal(t, "28", m.District)
}

func TestReferenceMatchThroughVariants(t *testing.T) {
	l := newTestLookup(t, nil, reference)

	m, ok := l.Find([]string{"SA Brennan"}, models.Division6A)
	require.True(t, ok)
	assert.Equal(t, Match{District: "27", Tier: TierReference}, m)

	m, ok = l.Find([]string{"Ft. Worth Dunbar HS"}, models.Division4A)
	require.True(t, ok)
	assert.Equal(t, TierReference, m.Tier)
	assert.Equal(t, "8", m.District)
}

func TestSubstringTier(t *testing.T) {
	l := newTestLookup(t, nil, reference)

	m, ok := l.Find([]string{"Seven Lakes"}, models.Division6A)
	require.True(t, ok)
	assert.Equal(t, Match{District: "19", Tier: TierSubstring}, m)

	_, ok = l.Find([]string{"Lake"}, models.Division6A)
	assert.False(t, ok, "short queries never use the substring tier")

	_, ok = l.Find([]string{"Seven Lakes"}, models.Division5A)
	assert.False(t, ok, "substring matches stay within the division")

	_, ok = l.Find([]string{"Travi"}, models.Division6A)
	assert.False(t, ok, "matches respect token boundaries")
}

func TestDistrictNotFound(t *testing.T) {
	l := newTestLookup(t, nil, reference)

	d, ok := l.District("Zzyzx Prep", models.Division6A)
	assert.False(t, ok)
	assert.Equal(t, "", d)
}

func TestPrivateDivisionLookup(t *testing.T) {
	l := newTestLookup(t, nil, reference)

	d, ok := l.District("Houston Christian", models.DivisionTAPPS6A)
	require.True(t, ok)
	assert.Equal(t, "3", d)
}

func TestOverrideConflictsAreExcluded(t *testing.T) {
	table := NewOverrideTable([]models.DistrictEntry{
		{CanonicalName: "Seven Lakes", Division: models.Division6A, District: "1"},
		{CanonicalName: "seven lakes", Division: models.Division6A, District: "19"},
		{CanonicalName: "Harlan", Division: models.Division6A, District: "28"},
		{CanonicalName: "Harlan", Division: models.Division6A, District: "28"},
	})

	_, ok := table.Get("Seven Lakes", models.Division6A)
	assert.False(t, ok)

	d, ok := table.Get("HARLAN", models.Division6A)
	require.True(t, ok)
	assert.Equal(t, "28", d)

	conflicts := table.Conflicts()
	require.Len(t, conflicts, 1)
	assert.Equal(t, "Seven Lakes", conflicts[0].TeamName)
	assert.Equal(t, []string{"1", "19"}, conflicts[0].Districts)
	assert.Contains(t, conflicts[0].String(), "Seven Lakes")
	assert.Equal(t, 1, table.Len())
}

func TestDefaultOverrides(t *testing.T) {
	table, err := DefaultOverrides()
	require.NoError(t, err)
	assert.Empty(t, table.Conflicts())

	d, ok := table.Get("San Antonio Brennan", models.Division6A)
	require.True(t, ok)
	assert.Equal(t, "28", d)
}

func TestParseOverridesValidation(t *testing.T) {
	_, err := ParseOverrides(strings.NewReader("districts:\n  - {team_name: Brennan, division: AAAAAA}\n"))
	assert.Error(t, err, "district is required")

	_, err = ParseOverrides(strings.NewReader("districts:\n  - {team_name: Brennan, division: 7A, district: \"1\"}\n"))
	assert.Error(t, err, "division must be known")

	_, err = ParseOverrides(strings.NewReader("entries: []\n"))
	assert.Error(t, err, "unknown keys are rejected")

	refs, err := ParseReference(strings.NewReader("districts:\n  - {team_name: Lake Travis, division: AAAAAA, district: \"26\"}\n"))
	require.NoError(t, err)
	assert.Len(t, refs, 1)
}
