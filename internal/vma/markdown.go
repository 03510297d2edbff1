package vma

import (
	"fmt"
	"math"
	"strings"
)

// Markdown renders the current snapshot as a compact report: summary, per-region
// breakdown, the normalized records and any load warnings. maxRows limits the
// record table; 0 means all rows.
func (v *VMA) Markdown(f Filter, maxRows int) string {
	s := v.current()
	res := summarize(s.Records, f, v.params)

	var b strings.Builder
	b.WriteString("[VMA SUMMARY]\n")
	if name := v.Name(); name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", s.Len()))
	if s.HasUnits {
		b.WriteString(fmt.Sprintf("Units: %s\n", s.Units))
	}
	if f.Regime != "" || f.Region != "" {
		b.WriteString(fmt.Sprintf("Filter: regime=%s region=%s\n", safeName(f.Regime), safeName(f.Region)))
	}
	p := v.params
	b.WriteString(fmt.Sprintf("Settings: low_sd %.4g, high_sd %.4g, discard %.4g, stat_correction %t, use_weight %t\n",
		p.LowSD, p.HighSD, p.Discard, p.StatCorrection, p.UseWeight))
	b.WriteString(fmt.Sprintf("Snapshot: %s\n\n", s.ID))

	b.WriteString("[RESULT]\n")
	b.WriteString(fmt.Sprintf("- mean %s, high %s, low %s (n=%d", FormatNumber(res.Mean), FormatNumber(res.High), FormatNumber(res.Low), res.N))
	if res.Rejected > 0 {
		b.WriteString(fmt.Sprintf(", %d rejected as outliers", res.Rejected))
	}
	b.WriteString(")\n")

	if regions := v.ByRegion(f.Regime); len(regions) > 0 {
		b.WriteString("\n[BY REGION]\n")
		for _, br := range regions {
			b.WriteString(fmt.Sprintf("- %s (n=%d): mean %s (high %s, low %s)\n",
				br.Category, br.Result.N, FormatNumber(br.Result.Mean), FormatNumber(br.Result.High), FormatNumber(br.Result.Low)))
		}
	}

	if s.Len() > 0 {
		b.WriteString("\n[RECORDS]\n")
		b.WriteString("| Row | Source ID | Value | Units | Weight | Excluded | Regime | Region |\n")
		b.WriteString("| --- | --- | --- | --- | --- | --- | --- | --- |\n")
		for i, r := range s.Records {
			if maxRows > 0 && i >= maxRows {
				break
			}
			src := r.SourceID
			if runes := []rune(src); len(runes) > 60 {
				src = string(runes[:57]) + "..."
			}
			b.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %.4g | %t | %s | %s |\n",
				r.Row, safeVal(src), FormatNumber(r.Value), safeVal(r.Units), r.Weight, r.Excluded, safeVal(r.Regime), safeVal(r.RegionName())))
		}
		if maxRows > 0 && s.Len() > maxRows {
			b.WriteString(fmt.Sprintf("(%d more rows)\n", s.Len()-maxRows))
		}
	}

	if len(s.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range s.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// FormatNumber prints a value, spelling out NaN and infinities.
func FormatNumber(x float64) string {
	switch {
	case math.IsNaN(x):
		return "NaN"
	case math.IsInf(x, 1):
		return "+Inf"
	case math.IsInf(x, -1):
		return "-Inf"
	}
	return fmt.Sprintf("%.6g", x)
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(any)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
