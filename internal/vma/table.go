package vma

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Record is one normalized row. Region is nil when the cell is missing or not a
// known region, while Regime falls back to "" in the same situation.
type Record struct {
	Row      int
	SourceID string
	Value    float64
	Units    string
	Weight   float64
	Excluded bool
	Regime   string
	Region   *string
}

// RegionName returns the region or "" when absent.
func (r Record) RegionName() string {
	if r.Region == nil {
		return ""
	}
	return *r.Region
}

// Snapshot is an immutable product of one load of the source.
type Snapshot struct {
	ID       string
	LoadedAt time.Time
	Raw      RawTable
	Records  []Record
	Units    string
	HasUnits bool
	Warnings []string
}

// Len returns the number of normalized records.
func (s *Snapshot) Len() int { return len(s.Records) }

func (s *Snapshot) clone() *Snapshot {
	out := *s
	out.Raw = s.Raw.Clone()
	out.Records = cloneRecords(s.Records)
	out.Warnings = slices.Clone(s.Warnings)
	return &out
}

// cloneRecords copies records including the region each one points to.
func cloneRecords(recs []Record) []Record {
	out := slices.Clone(recs)
	for i := range out {
		if out[i].Region != nil {
			region := *out[i].Region
			out[i].Region = &region
		}
	}
	return out
}

// normalize builds the working table from a raw table. Records correspond 1:1
// and in order to raw rows.
func normalize(raw RawTable) *Snapshot {
	snap := &Snapshot{
		ID:       uuid.NewString(),
		LoadedAt: time.Now(),
		Raw:      raw,
		Records:  make([]Record, 0, len(raw.Rows)),
	}
	var (
		iSource  = raw.Index(ColSourceID)
		iRaw     = raw.Index(ColRawInput)
		iConv    = raw.Index(ColConversion)
		iUnits   = raw.Index(ColCommonUnits)
		iWeight  = raw.Index(ColWeight)
		iExclude = raw.Index(ColExclude)
		iRegime  = raw.Index(ColRegime)
		iRegion  = raw.Index(ColRegion)
	)
	for i := range raw.Rows {
		rec := Record{
			Row:      i + 1,
			SourceID: raw.Cell(i, iSource),
			Units:    raw.Cell(i, iUnits),
			Excluded: ParseExclude(raw.Cell(i, iExclude)),
			Regime:   normalizeRegime(raw.Cell(i, iRegime)),
			Region:   normalizeRegion(raw.Cell(i, iRegion)),
		}

		cell := raw.Cell(i, iRaw)
		if conv := raw.Cell(i, iConv); conv != "" {
			cell = conv
		}
		v, ok := ParseValue(cell)
		rec.Value = v
		if !ok {
			snap.Warnings = append(snap.Warnings, fmt.Sprintf("row %d: value %q is not a number; treated as +Inf", i+1, cell))
		}

		w, ok := ParseWeight(raw.Cell(i, iWeight))
		rec.Weight = w
		if !ok {
			snap.Warnings = append(snap.Warnings, fmt.Sprintf("row %d: weight %q is not a number; using 1.0", i+1, raw.Cell(i, iWeight)))
		}

		switch {
		case rec.Units == "":
		case !snap.HasUnits:
			snap.Units = rec.Units
			snap.HasUnits = true
		case rec.Units != snap.Units:
			snap.Warnings = append(snap.Warnings, fmt.Sprintf("row %d: common units %q differ from %q", i+1, rec.Units, snap.Units))
		}
		snap.Records = append(snap.Records, rec)
	}
	return snap
}
