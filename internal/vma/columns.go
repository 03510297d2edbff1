package vma

import "strings"

// Recognized column headers of a VMA sheet.
const (
	ColSourceID       = "Source ID"
	ColLink           = "Link"
	ColRegion         = "World / Drawdown Region"
	ColLocation       = "Specific Geographic Location"
	ColValidationCode = "Source Validation Code"
	ColDate           = "Year / Date"
	ColLicense        = "License Code"
	ColRawInput       = "Raw Data Input"
	ColOriginalUnits  = "Original Units"
	ColConversion     = "Conversion calculation"
	ColCommonUnits    = "Common Units"
	ColWeight         = "Weight"
	ColAssumptions    = "Assumptions"
	ColExclude        = "Exclude Data?"
	ColRegime         = "Thermal-Moisture Regime"
)

// columnAliases maps lowercased header spellings to the canonical column.
var columnAliases = map[string]string{
	"source id: author/org, date, info": ColSourceID,
	"source id":                         ColSourceID,
	"world / drawdown region":           ColRegion,
	"region":                            ColRegion,
	"exclude data?":                     ColExclude,
	"exclude?":                          ColExclude,
	"thermal-moisture regime":           ColRegime,
	"tmr":                               ColRegime,
}

// canonicalColumn maps a header cell to its canonical name, or returns it trimmed.
func canonicalColumn(h string) string {
	h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	key := strings.ToLower(h)
	if c, ok := columnAliases[key]; ok {
		return c
	}
	for _, c := range []string{
		ColLink, ColLocation, ColValidationCode, ColDate, ColLicense, ColRawInput,
		ColOriginalUnits, ColConversion, ColCommonUnits, ColWeight, ColAssumptions,
	} {
		if strings.ToLower(c) == key {
			return c
		}
	}
	return h
}
