package names

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/teamarete/TBBAS/internal/models"
)

//go:embed curated.yaml
var curatedYAML []byte

var validate = validator.New()

// Tables holds the curated naming data. A Tables value is loaded once per
// process and shared read-only by every component built from it.
type Tables struct {
	// CityAbbreviations expand a leading token, e.g. "SA" to "San Antonio"
	CityAbbreviations map[string]string `yaml:"city_abbreviations" validate:"required,dive,keys,required,endkeys,required"`

	// SchoolAbbreviations expand any token, e.g. "Mem" to "Memorial"
	SchoolAbbreviations map[string]string `yaml:"school_abbreviations" validate:"dive,keys,required,endkeys,required"`

	// Cities are recognized city prefixes; CityVariants map alternate
	// spellings onto one of them
	Cities       []string          `yaml:"cities" validate:"required,dive,required"`
	CityVariants map[string]string `yaml:"city_variants" validate:"dive,keys,required,endkeys,required"`

	// ProtectedNames start with a city-like word but are one school name
	ProtectedNames []string `yaml:"protected_names" validate:"dive,required"`

	Suffixes   []string              `yaml:"suffixes" validate:"dive,required"`
	StateCodes []string              `yaml:"state_codes" validate:"required,dive,required"`
	Synonyms   []models.SynonymEntry `yaml:"synonyms" validate:"dive"`
}

// DefaultTables returns the tables compiled into the binary
func DefaultTables() (*Tables, error) {
	return ParseTables(bytes.NewReader(curatedYAML))
}

// LoadTables reads tables from path, or the compiled-in tables when path is empty
func LoadTables(path string) (*Tables, error) {
	if path == "" {
		return DefaultTables()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open curated tables: %w", err)
	}
	defer f.Close()

	return ParseTables(f)
}

// ParseTables decodes YAML tables. Unknown keys are rejected.
func ParseTables(r io.Reader) (*Tables, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var t Tables
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("failed to decode curated tables: %w", err)
	}

	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid curated tables: %w", err)
	}

	return &t, nil
}

// Validate checks table structure and the constraints normalization relies on
func (t *Tables) Validate() error {
	if err := validate.Struct(t); err != nil {
		return err
	}

	for i, s := range t.Synonyms {
		if s.Division != "" && !s.Division.Valid() {
			return fmt.Errorf("synonym %d (%q): unknown division %q", i, s.Alias, s.Division)
		}
	}

	// An expansion must not start with another key, or expansion would never settle
	cityKeys := lowerKeys(t.CityAbbreviations)
	for key, expansion := range t.CityAbbreviations {
		if _, ok := cityKeys[firstToken(cleanKey(expansion))]; ok {
			return fmt.Errorf("city abbreviation %q expands to %q which starts with another abbreviation", key, expansion)
		}
	}
	schoolKeys := lowerKeys(t.SchoolAbbreviations)
	for key, expansion := range t.SchoolAbbreviations {
		for _, tok := range strings.Fields(cleanKey(expansion)) {
			if _, ok := schoolKeys[tok]; ok {
				return fmt.Errorf("school abbreviation %q expands to %q which contains another abbreviation", key, expansion)
			}
		}
	}

	cities := make(map[string]struct{}, len(t.Cities))
	for _, c := range t.Cities {
		cities[cleanKey(c)] = struct{}{}
	}
	for variant, city := range t.CityVariants {
		if _, ok := cities[cleanKey(city)]; !ok {
			return fmt.Errorf("city variant %q maps to unknown city %q", variant, city)
		}
	}

	return nil
}

func lowerKeys(m map[string]string) map[string]struct{} {
	keys := make(map[string]struct{}, len(m))
	for k := range m {
		keys[cleanKey(k)] = struct{}{}
	}
	return keys
}

func firstToken(s string) string {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i]
	}
	return s
}
