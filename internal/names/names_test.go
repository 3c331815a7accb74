package names

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamarete/TBBAS/internal/models"
)

func setupNormalizer(t *testing.T) (*Normalizer, *Tables) {
	t.Helper()
	tables, err := DefaultTables()
	require.NoError(t, err, "compiled-in tables should load")
	return NewNormalizer(tables), tables
}

func TestNormalize(t *testing.T) {
	n, _ := setupNormalizer(t)

	tests := []struct {
		raw  string
		want string
	}{
		{"San Antonio Brennan", "san antonio brennan"},
		{"SA Brennan", "san antonio brennan"},
		{"  Cypress   Springs (Cypress, TX) ", "cypress springs"},
		{"Cypress Springs High School", "cypress springs"},
		{"Brennan H.S.", "brennan"},
		{"Ft. Worth Dunbar", "fort worth dunbar"},
		{"Houston Mem", "houston memorial"},
		{"Hou Mem", "houston memorial"},
		{"Juárez-Lincoln", "juarez lincoln"},
		{"St. Mark's (Dallas)", "st marks"},
		{"Episcopal School of Dallas (Bellaire, TX)", "episcopal school of dallas"},
		{"Cy-Fair (Cypress, TX) High School", "cypress fair"},
		{"SA HS", "san antonio"},
		{"HS", "hs"},
		{"X (TX)", "x (tx)"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.raw))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	n, tables := setupNormalizer(t)

	inputs := []string{
		"San Antonio Brennan", "SA Brennan", "Cypress Springs (Cypress, TX)",
		"Brennan H.S.", "Hou Mem", "((TX))", "", "   ", "SA", "SA HS", "A",
		"Cy-Fair (Cypress, TX) High School", "Fort Worth Dunbar (Fort Worth, Texas)",
		"West Brook", "Beaumont West Brook HS", "Prep", "The Woodlands (TX) (Girls)",
	}
	for _, s := range tables.Synonyms {
		inputs = append(inputs, s.Alias, s.Canonical)
	}

	for _, in := range inputs {
		once := n.Normalize(in)
		assert.Equal(t, once, n.Normalize(once), "normalize should be idempotent for %q", in)
	}
}

func TestCleanDisplay(t *testing.T) {
	n, _ := setupNormalizer(t)

	assert.Equal(t, "Cypress Springs", n.CleanDisplay("Cypress Springs (Cypress, TX)"))
	assert.Equal(t, "Cypress Springs", n.CleanDisplay(" Cypress  Springs "))
	assert.Equal(t, "St. Mark's (Dallas)", n.CleanDisplay("St. Mark's (Dallas)"))
	assert.Equal(t, "(TX)", n.CleanDisplay("(TX)"))
}

func TestExpand(t *testing.T) {
	n, _ := setupNormalizer(t)

	assert.Equal(t, "San Antonio Brennan", n.Expand("SA Brennan"))
	assert.Equal(t, "Houston Memorial", n.Expand("Hou Mem"))
	assert.Equal(t, "Fort Bend Marshall", n.Expand("FB Marshall"))
	assert.Equal(t, "sa", n.Expand("sa"), "a lone abbreviation has nothing to prefix")
}

func TestDecompose(t *testing.T) {
	n, _ := setupNormalizer(t)

	tests := []struct {
		key      string
		wantCity string
		wantBase string
	}{
		{"san antonio brennan", "san antonio", "brennan"},
		{"brennan", "", "brennan"},
		{"katy", "", "katy"},
		{"west brook", "", "west brook"},
		{"beaumont west brook", "beaumont", "west brook"},
		{"ft worth dunbar", "fort worth", "dunbar"},
		{"fort worth dunbar", "fort worth", "dunbar"},
		{"west mesquite", "", "west mesquite"},
		{"north richland hills birdville", "north richland hills", "birdville"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			city, base := n.Decompose(tt.key)
			assert.Equal(t, tt.wantCity, city)
			assert.Equal(t, tt.wantBase, base)
		})
	}
}

func TestSplitCity(t *testing.T) {
	n, _ := setupNormalizer(t)

	city, rest, ok := n.SplitCity("San Antonio Brennan")
	require.True(t, ok)
	assert.Equal(t, "San Antonio", city)
	assert.Equal(t, "Brennan", rest)

	_, _, ok = n.SplitCity("SA Brennan")
	assert.False(t, ok, "abbreviated cities are not spelled out")

	_, rest, ok = n.SplitCity("West Brook")
	assert.False(t, ok)
	assert.Equal(t, "West Brook", rest)
}

func TestSynonymTable(t *testing.T) {
	table := NewSynonymTable([]models.SynonymEntry{
		{Alias: "Jefferson", Canonical: "El Paso Jefferson", Division: models.Division5A},
		{Alias: "Jefferson", Canonical: "Port Arthur Jefferson", Division: models.Division4A},
		{Alias: "Jefferson", Canonical: "Dallas Jefferson", Division: models.Division4A},
		{Alias: "Jefferson", Canonical: "Jefferson"},
		{Alias: "Cy Falls", Canonical: "Cypress Falls"},
		{Alias: "cy falls", Canonical: "cypress falls"},
	})

	got, ok := table.Resolve("JEFFERSON", models.Division5A)
	require.True(t, ok)
	assert.Equal(t, "El Paso Jefferson", got, "scoped entry wins")

	_, ok = table.Resolve("Jefferson", models.Division4A)
	assert.False(t, ok, "ambiguous scope must not resolve or fall back")

	got, ok = table.Resolve("Jefferson", models.Division6A)
	require.True(t, ok)
	assert.Equal(t, "Jefferson", got)

	got, ok = table.Resolve("Cy Falls", "")
	require.True(t, ok)
	assert.Equal(t, "Cypress Falls", got)

	_, ok = table.Resolve("Brennan", models.Division6A)
	assert.False(t, ok)

	ambiguities := table.Ambiguities()
	require.Len(t, ambiguities, 1)
	assert.Equal(t, models.Division4A, ambiguities[0].Division)
	assert.Equal(t, []string{"Dallas Jefferson", "Port Arthur Jefferson"}, ambiguities[0].Canonicals)
	assert.True(t, errors.Is(ambiguities[0], ErrAmbiguousSynonym))
	assert.Equal(t, 3, table.Len())
}

func TestDefaultTablesHaveNoAmbiguities(t *testing.T) {
	_, tables := setupNormalizer(t)
	assert.Empty(t, NewSynonymTable(tables.Synonyms).Ambiguities())
}

func TestVariants(t *testing.T) {
	n, tables := setupNormalizer(t)
	g := NewVariantGenerator(n, NewSynonymTable(tables.Synonyms))

	assert.Equal(t,
		[]string{"SA Brennan", "San Antonio Brennan", "Brennan"},
		g.Variants("SA Brennan", models.Division6A))

	assert.Equal(t,
		[]string{"SA Harlan", "San Antonio Harlan", "Harlan"},
		g.Variants("SA Harlan", models.Division6A))

	assert.Equal(t,
		[]string{"Jefferson", "Port Arthur Jefferson"},
		g.Variants("Jefferson", models.Division4A))

	assert.Equal(t,
		[]string{"Jefferson"},
		g.Variants("Jefferson", models.Division6A))

	assert.Equal(t,
		[]string{"Brennan High School", "Brennan"},
		g.Variants("Brennan High School", models.Division6A))

	variants := g.Variants("Some Unknown Academy", models.DivisionTAPPS2A)
	require.NotEmpty(t, variants)
	assert.Equal(t, "Some Unknown Academy", variants[0], "the original is always first")
}

func TestParseTablesRejectsUnknownKeys(t *testing.T) {
	_, err := ParseTables(strings.NewReader("cities: [katy]\nstate_codes: [tx]\ncity_abbreviations: {SA: San Antonio}\nbogus: 1\n"))
	assert.Error(t, err)
}

func TestParseTablesRejectsSelfExpandingAbbreviation(t *testing.T) {
	doc := `
city_abbreviations:
  SA: San Antonio
  San: Santa
cities: [san antonio]
state_codes: [tx]
`
	_, err := ParseTables(strings.NewReader(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "starts with another abbreviation")
}

func TestParseTablesRejectsUnknownSynonymDivision(t *testing.T) {
	doc := `
city_abbreviations: {SA: San Antonio}
cities: [san antonio]
state_codes: [tx]
synonyms:
  - alias: Westwood
    canonical: Round Rock Westwood
    division: AAAAAAAA
`
	_, err := ParseTables(strings.NewReader(doc))
	assert.Error(t, err)
}
