package vma

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Thermal-moisture regimes accepted in the "Thermal-Moisture Regime" column.
var Regimes = []string{
	"Tropical-Humid",
	"Temperate/Boreal-Humid",
	"Tropical-Semi-Arid",
	"Temperate/Boreal-Semi-Arid",
	"Global Arid",
	"Global Arctic",
}

// MainRegions are the aggregate Drawdown regions plus World.
var MainRegions = []string{
	"World",
	"OECD90",
	"Eastern Europe",
	"Asia (Sans Japan)",
	"Middle East and Africa",
	"Latin America",
}

// SpecialRegions maps each named sub-region to the aggregate region it belongs to.
var SpecialRegions = map[string]string{
	"USA":   "OECD90",
	"EU":    "OECD90",
	"China": "Asia (Sans Japan)",
	"India": "Asia (Sans Japan)",
}

// spellingCorrections holds historical variants seen in curated VMA sheets.
var spellingCorrections = map[string]string{
	"Asia (sans Japan)":          "Asia (Sans Japan)",
	"Asia (Sans japan)":          "Asia (Sans Japan)",
	"Asia (sans japan)":          "Asia (Sans Japan)",
	"Middle East & Africa":       "Middle East and Africa",
	"Middle East And Africa":     "Middle East and Africa",
	"Middle East & africa":       "Middle East and Africa",
	"OECD 90":                    "OECD90",
	"Latin America & Caribbean":  "Latin America",
	"Eastern europe":             "Eastern Europe",
	"Tropical-humid":             "Tropical-Humid",
	"Temperate/boreal-Humid":     "Temperate/Boreal-Humid",
	"Temperate/Boreal-humid":     "Temperate/Boreal-Humid",
	"Temperate/Boreal - Humid":   "Temperate/Boreal-Humid",
	"Tropical-Semi-arid":         "Tropical-Semi-Arid",
	"Temperate/Boreal-Semi-arid": "Temperate/Boreal-Semi-Arid",
	"Global arid":                "Global Arid",
	"Global arctic":              "Global Arctic",
}

var (
	regimeSet = toSet(Regimes)
	regionSet = func() map[string]struct{} {
		s := toSet(MainRegions)
		for r := range SpecialRegions {
			s[r] = struct{}{}
		}
		return s
	}()
)

func toSet(vals []string) map[string]struct{} {
	out := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		out[v] = struct{}{}
	}
	return out
}

// CorrectSpelling canonicalizes a categorical cell: NFC normalization, whitespace
// trimming and the fixed correction table. Unknown values pass through.
func CorrectSpelling(s string) string {
	s = strings.TrimSpace(norm.NFC.String(s))
	if fixed, ok := spellingCorrections[s]; ok {
		return fixed
	}
	return s
}

// ValidRegime reports whether s is a known regime.
func ValidRegime(s string) bool {
	_, ok := regimeSet[s]
	return ok
}

// ValidRegion reports whether s is a known aggregate or special region.
func ValidRegion(s string) bool {
	_, ok := regionSet[s]
	return ok
}

// IsSpecialRegion reports whether s is a named sub-region (e.g. a country).
func IsSpecialRegion(s string) bool {
	_, ok := SpecialRegions[s]
	return ok
}

// ParentRegion returns the aggregate a special region belongs to.
func ParentRegion(s string) (string, bool) {
	p, ok := SpecialRegions[s]
	return p, ok
}

// Members returns the special regions that belong to the aggregate, sorted.
func Members(aggregate string) []string {
	var out []string
	for child, parent := range SpecialRegions {
		if parent == aggregate {
			out = append(out, child)
		}
	}
	sort.Strings(out)
	return out
}

// AllRegions lists main regions followed by the sorted special regions.
func AllRegions() []string {
	out := append([]string(nil), MainRegions...)
	specials := make([]string, 0, len(SpecialRegions))
	for r := range SpecialRegions {
		specials = append(specials, r)
	}
	sort.Strings(specials)
	return append(out, specials...)
}

// RegionMatches reports whether a record tagged with region satisfies the filter.
// An aggregate filter also matches its special members; a special filter matches
// only itself.
func RegionMatches(filter string, region *string) bool {
	if filter == "" {
		return true
	}
	if region == nil {
		return false
	}
	if *region == filter {
		return true
	}
	parent, ok := SpecialRegions[*region]
	return ok && parent == filter
}

func normalizeRegime(cell string) string {
	s := CorrectSpelling(cell)
	if ValidRegime(s) {
		return s
	}
	return ""
}

func normalizeRegion(cell string) *string {
	s := CorrectSpelling(cell)
	if !ValidRegion(s) {
		return nil
	}
	return &s
}
