package vma

import (
	"math"
	"strconv"
	"strings"
)

// ParseValue converts a raw cell into a number in common units.
//
// Accepted forms are a bare number ("1,250.5"), a percentage ("39%" -> 0.39) and a
// number with an explicit conversion factor ("2500 / 1000", "0.1*1000", optionally
// prefixed with a spreadsheet "="). Anything else, ranges like "10-15%" included,
// yields +Inf and ok=false so the defect stays visible in the aggregate.
func ParseValue(s string) (float64, bool) {
	raw := strings.TrimSpace(strings.ReplaceAll(s, "\u00A0", " "))
	raw = strings.TrimPrefix(raw, "=")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return math.Inf(1), false
	}
	if i := strings.IndexAny(raw, "/*"); i > 0 {
		lhs, ok1 := parseScalar(raw[:i])
		rhs, ok2 := parseScalar(raw[i+1:])
		if !ok1 || !ok2 {
			return math.Inf(1), false
		}
		if raw[i] == '*' {
			return lhs * rhs, true
		}
		if rhs == 0 {
			return math.Inf(1), false
		}
		return lhs / rhs, true
	}
	v, ok := parseScalar(raw)
	if !ok {
		return math.Inf(1), false
	}
	return v, true
}

// parseScalar handles a single number, optionally a percentage.
func parseScalar(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	pct := false
	if strings.HasSuffix(raw, "%") {
		pct = true
		raw = strings.TrimSpace(strings.TrimSuffix(raw, "%"))
	}
	if raw == "" || strings.Contains(raw, "%") {
		return 0, false
	}
	// Thousands separators only; the sheets use '.' as decimal separator.
	raw = strings.ReplaceAll(raw, ",", "")
	raw = strings.ReplaceAll(raw, " ", "")
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	if pct {
		f /= 100.0
	}
	return f, true
}

// ParseWeight returns the weight of a row. Blank means 1.0.
func ParseWeight(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 1.0, true
	}
	f, ok := parseScalar(raw)
	if !ok {
		return 1.0, false
	}
	return f, true
}

// ParseExclude interprets the "Exclude Data?" flag.
func ParseExclude(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "x", "1":
		return true
	default:
		return false
	}
}
