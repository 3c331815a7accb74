package names

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var punctuation = strings.NewReplacer(
	".", "", "'", "", "’", "", "`", "", "\"", "",
	"-", " ", "–", " ", ",", " ", "/", " ", ":", " ", ";", " ",
)

// fold lowercases, strips accents and collapses whitespace
func fold(s string) string {
	stripAccents := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripAccents, s)
	if err != nil {
		stripped = s
	}
	return collapse(cases.Fold().String(stripped))
}

// cleanKey is fold plus punctuation cleanup; curated table keys go through it
func cleanKey(s string) string {
	return collapse(punctuation.Replace(fold(s)))
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

type abbreviation struct {
	key       []string
	expansion []string
	display   string
}

type cityPrefix struct {
	prefix    string
	tokens    int
	canonical string
}

// Normalizer turns raw team names into comparison keys
type Normalizer struct {
	cityAbbrevs   []abbreviation
	schoolAbbrevs map[string]abbreviation
	cities        []cityPrefix
	protected     map[string]struct{}
	suffixes      []string
	stateCodes    map[string]struct{}
}

// NewNormalizer builds a Normalizer from validated tables
func NewNormalizer(t *Tables) *Normalizer {
	n := &Normalizer{
		schoolAbbrevs: make(map[string]abbreviation, len(t.SchoolAbbreviations)),
		protected:     make(map[string]struct{}, len(t.ProtectedNames)),
		stateCodes:    make(map[string]struct{}, len(t.StateCodes)),
	}

	for key, expansion := range t.CityAbbreviations {
		n.cityAbbrevs = append(n.cityAbbrevs, abbreviation{
			key:       strings.Fields(cleanKey(key)),
			expansion: strings.Fields(cleanKey(expansion)),
			display:   expansion,
		})
	}
	// longest keys first, then alphabetical so map order never leaks
	sort.Slice(n.cityAbbrevs, func(i, j int) bool {
		a, b := n.cityAbbrevs[i], n.cityAbbrevs[j]
		if len(a.key) != len(b.key) {
			return len(a.key) > len(b.key)
		}
		return strings.Join(a.key, " ") < strings.Join(b.key, " ")
	})

	for key, expansion := range t.SchoolAbbreviations {
		n.schoolAbbrevs[cleanKey(key)] = abbreviation{
			key:       []string{cleanKey(key)},
			expansion: strings.Fields(cleanKey(expansion)),
			display:   expansion,
		}
	}

	for _, c := range t.Cities {
		key := cleanKey(c)
		n.cities = append(n.cities, cityPrefix{prefix: key, tokens: len(strings.Fields(key)), canonical: key})
	}
	for variant, city := range t.CityVariants {
		key := cleanKey(variant)
		n.cities = append(n.cities, cityPrefix{prefix: key, tokens: len(strings.Fields(key)), canonical: cleanKey(city)})
	}
	sort.Slice(n.cities, func(i, j int) bool {
		a, b := n.cities[i], n.cities[j]
		if a.tokens != b.tokens {
			return a.tokens > b.tokens
		}
		if len(a.prefix) != len(b.prefix) {
			return len(a.prefix) > len(b.prefix)
		}
		return a.prefix < b.prefix
	})

	for _, p := range t.ProtectedNames {
		n.protected[cleanKey(p)] = struct{}{}
	}

	for _, s := range t.Suffixes {
		n.suffixes = append(n.suffixes, cleanKey(s))
	}
	sort.Slice(n.suffixes, func(i, j int) bool {
		if len(n.suffixes[i]) != len(n.suffixes[j]) {
			return len(n.suffixes[i]) > len(n.suffixes[j])
		}
		return n.suffixes[i] < n.suffixes[j]
	})

	for _, code := range t.StateCodes {
		n.stateCodes[cleanKey(code)] = struct{}{}
	}

	return n
}

// Normalize returns the comparison key for a raw team name. It removes
// trailing location parentheticals, expands abbreviations and strips school
// suffixes, repeating until nothing changes, so Normalize(Normalize(x)) ==
// Normalize(x). When the result would be shorter than two characters the
// lowercased input is returned instead.
func (n *Normalizer) Normalize(raw string) string {
	basic := fold(raw)

	key := basic
	for passes := 4*len(basic) + 8; passes > 0; passes-- {
		next := n.step(key)
		if next == key {
			break
		}
		key = next
	}

	if utf8.RuneCountInString(key) < 2 {
		return basic
	}
	return key
}

// step applies the first transformation that changes s
func (n *Normalizer) step(s string) string {
	if stripped, ok := n.stripParenthetical(s, true); ok {
		return stripped
	}
	if stripped, ok := n.stripParenthetical(s, false); ok {
		return stripped
	}
	if cleaned := collapse(punctuation.Replace(s)); cleaned != s {
		return cleaned
	}
	if expanded, ok := n.expand(strings.Fields(s)); ok {
		return strings.Join(expanded, " ")
	}
	if stripped, ok := n.stripSuffix(s); ok {
		return stripped
	}
	return s
}

// stripParenthetical removes one trailing "(...)" group. With locationOnly
// set, the group must contain a state code token such as "TX".
func (n *Normalizer) stripParenthetical(s string, locationOnly bool) (string, bool) {
	if !strings.HasSuffix(s, ")") {
		return s, false
	}
	open := strings.LastIndexByte(s, '(')
	if open < 0 {
		return s, false
	}
	inner := s[open+1 : len(s)-1]
	if strings.ContainsAny(inner, "()") {
		return s, false
	}
	if locationOnly && !n.hasStateCode(inner) {
		return s, false
	}

	rest := strings.TrimSpace(s[:open])
	if rest == "" {
		return s, false
	}
	return rest, true
}

func (n *Normalizer) hasStateCode(s string) bool {
	tokens := strings.FieldsFunc(fold(s), func(r rune) bool { return !unicode.IsLetter(r) })
	for _, tok := range tokens {
		if _, ok := n.stateCodes[tok]; ok {
			return true
		}
	}
	return false
}

// expand rewrites a leading city abbreviation and any school abbreviation
// tokens. Tokens must already be cleaned.
func (n *Normalizer) expand(tokens []string) ([]string, bool) {
	out := make([]string, 0, len(tokens)+2)
	changed := false

	rest := tokens
	for _, a := range n.cityAbbrevs {
		if len(tokens) > len(a.key) && equalTokens(tokens[:len(a.key)], a.key) {
			out = append(out, a.expansion...)
			rest = tokens[len(a.key):]
			changed = true
			break
		}
	}

	for _, tok := range rest {
		if a, ok := n.schoolAbbrevs[tok]; ok {
			out = append(out, a.expansion...)
			changed = true
			continue
		}
		out = append(out, tok)
	}

	return out, changed
}

func (n *Normalizer) stripSuffix(s string) (string, bool) {
	for _, suffix := range n.suffixes {
		if !strings.HasSuffix(s, " "+suffix) {
			continue
		}
		rest := strings.TrimSpace(strings.TrimSuffix(s, suffix))
		if utf8.RuneCountInString(rest) >= 2 {
			return rest, true
		}
	}
	return s, false
}

// CleanDisplay strips trailing location parentheticals such as
// "(Cypress, TX)" and extra whitespace, keeping the original casing.
func (n *Normalizer) CleanDisplay(raw string) string {
	s := collapse(raw)
	for {
		stripped, ok := n.stripParenthetical(s, true)
		if !ok {
			break
		}
		s = stripped
	}
	if utf8.RuneCountInString(s) < 2 {
		return collapse(raw)
	}
	return s
}

// Expand returns raw with a leading city abbreviation and school
// abbreviations spelled out, preserving the casing of untouched tokens.
func (n *Normalizer) Expand(raw string) string {
	tokens := strings.Fields(raw)
	cleaned := make([]string, len(tokens))
	for i, tok := range tokens {
		cleaned[i] = cleanKey(tok)
	}

	out := make([]string, 0, len(tokens)+2)
	start := 0
	for _, a := range n.cityAbbrevs {
		if len(cleaned) > len(a.key) && equalTokens(cleaned[:len(a.key)], a.key) {
			out = append(out, a.display)
			start = len(a.key)
			break
		}
	}
	for i := start; i < len(tokens); i++ {
		if a, ok := n.schoolAbbrevs[cleaned[i]]; ok {
			out = append(out, a.display)
			continue
		}
		out = append(out, tokens[i])
	}

	return strings.Join(out, " ")
}

// Decompose splits a normalized key into its canonical city and base name.
// Protected compound names and keys without a recognized city prefix come
// back with an empty city.
func (n *Normalizer) Decompose(key string) (city, base string) {
	if _, ok := n.protected[key]; ok {
		return "", key
	}
	for _, c := range n.cities {
		if rest, ok := strings.CutPrefix(key, c.prefix+" "); ok && rest != "" {
			return c.canonical, rest
		}
	}
	return "", key
}

// SplitCity splits a raw name into its spelled-out leading city and the
// remainder, preserving casing. Abbreviated cities are not recognized.
func (n *Normalizer) SplitCity(raw string) (city, rest string, ok bool) {
	if _, protected := n.protected[cleanKey(raw)]; protected {
		return "", raw, false
	}

	tokens := strings.Fields(raw)
	for _, c := range n.cities {
		if len(tokens) <= c.tokens {
			continue
		}
		if cleanKey(strings.Join(tokens[:c.tokens], " ")) == c.prefix {
			return strings.Join(tokens[:c.tokens], " "), strings.Join(tokens[c.tokens:], " "), true
		}
	}
	return "", raw, false
}

func equalTokens(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TrimSuffix removes a trailing school-type suffix such as "HS" from a raw
// name and any location parenthetical after it, preserving casing
func (n *Normalizer) TrimSuffix(raw string) string {
	cleaned := n.CleanDisplay(raw)
	tokens := strings.Fields(cleaned)
	for _, suffix := range n.suffixes {
		k := len(strings.Fields(suffix))
		if len(tokens) <= k {
			continue
		}
		if cleanKey(strings.Join(tokens[len(tokens)-k:], " ")) != suffix {
			continue
		}
		rest := strings.Join(tokens[:len(tokens)-k], " ")
		if utf8.RuneCountInString(rest) >= 2 {
			return rest
		}
	}
	return cleaned
}
