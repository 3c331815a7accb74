package district

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/teamarete/TBBAS/internal/models"
)

//go:embed overrides.yaml
var overridesYAML []byte

var validate = validator.New()

// districtFile is the YAML shape of both the overrides and a file-based
// reference table
type districtFile struct {
	Districts []models.DistrictEntry `yaml:"districts" validate:"dive"`
}

type entryKey struct {
	name     string
	division models.Division
}

func keyOf(name string, division models.Division) entryKey {
	return entryKey{name: strings.ToLower(strings.Join(strings.Fields(name), " ")), division: division}
}

// Conflict is an override key listed with more than one district
type Conflict struct {
	TeamName  string
	Division  models.Division
	Districts []string
}

func (c Conflict) String() string {
	return fmt.Sprintf("district override %q in %s lists districts %s", c.TeamName, c.Division, strings.Join(c.Districts, ", "))
}

// OverrideTable is the hand-curated patch layer. Conflicting keys are
// reported and left out; they never resolve.
type OverrideTable struct {
	entries   map[entryKey]string
	conflicts []Conflict
}

// NewOverrideTable indexes entries by case-insensitive name and division
func NewOverrideTable(entries []models.DistrictEntry) *OverrideTable {
	t := &OverrideTable{entries: make(map[entryKey]string, len(entries))}

	districts := make(map[entryKey][]string)
	display := make(map[entryKey]string)
	var order []entryKey
	for _, e := range entries {
		k := keyOf(e.CanonicalName, e.Division)
		if _, ok := districts[k]; !ok {
			order = append(order, k)
			display[k] = e.CanonicalName
		}
		if !contains(districts[k], e.District) {
			districts[k] = append(districts[k], e.District)
		}
	}

	for _, k := range order {
		if len(districts[k]) == 1 {
			t.entries[k] = districts[k][0]
			continue
		}
		sorted := append([]string(nil), districts[k]...)
		sort.Strings(sorted)
		t.conflicts = append(t.conflicts, Conflict{TeamName: display[k], Division: k.division, Districts: sorted})
	}

	return t
}

// Get returns the override for an exact team name in division
func (t *OverrideTable) Get(name string, division models.Division) (string, bool) {
	d, ok := t.entries[keyOf(name, division)]
	return d, ok
}

// Conflicts lists keys excluded for listing more than one district
func (t *OverrideTable) Conflicts() []Conflict {
	return append([]Conflict(nil), t.conflicts...)
}

// Len returns the number of usable overrides
func (t *OverrideTable) Len() int {
	return len(t.entries)
}

// DefaultOverrides returns the overrides compiled into the binary
func DefaultOverrides() (*OverrideTable, error) {
	return ParseOverrides(bytes.NewReader(overridesYAML))
}

// LoadOverrides reads overrides from path, or the compiled-in table when path is empty
func LoadOverrides(path string) (*OverrideTable, error) {
	if path == "" {
		return DefaultOverrides()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open district overrides: %w", err)
	}
	defer f.Close()

	return ParseOverrides(f)
}

// ParseOverrides decodes an overrides YAML document
func ParseOverrides(r io.Reader) (*OverrideTable, error) {
	entries, err := decodeEntries(r, "overrides")
	if err != nil {
		return nil, err
	}
	return NewOverrideTable(entries), nil
}

// ParseReference decodes a reference table YAML document
func ParseReference(r io.Reader) ([]models.DistrictEntry, error) {
	return decodeEntries(r, "reference table")
}

func decodeEntries(r io.Reader, what string) ([]models.DistrictEntry, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file districtFile
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode %s: %w", what, err)
	}

	if err := validate.Struct(file); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", what, err)
	}
	for i, e := range file.Districts {
		if !e.Division.Valid() {
			return nil, fmt.Errorf("invalid %s: entry %d (%q): unknown division %q", what, i, e.CanonicalName, e.Division)
		}
	}

	return file.Districts, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
