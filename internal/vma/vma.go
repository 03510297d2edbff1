// Package vma implements Variable Meta-Analysis: it loads curated tables of
// literature estimates for one quantity, normalizes them and reduces them to a
// (mean, high, low) estimate with outlier rejection and optional weighting.
package vma

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/KaramelBytes/vma-cli/internal/export"
	"github.com/KaramelBytes/vma-cli/internal/utils"
	"github.com/rs/zerolog"
)

// Options configures a VMA.
type Options struct {
	// Path of a .csv, .tsv or .xlsx file. Takes precedence over Reader.
	Path string
	// Reader supplies CSV text when Path is empty. Reload needs an io.Seeker.
	Reader io.Reader
	// Delimiter for CSV. If 0, ',' (or '\t' for .tsv paths).
	Delimiter rune
	// XLSX sheet selection; SheetIndex is 1-based and used when SheetName is empty.
	SheetName  string
	SheetIndex int

	LowSD             float64
	HighSD            float64
	DiscardMultiplier float64
	StatCorrection    bool
	UseWeight         bool

	Logger *zerolog.Logger
}

// DefaultOptions returns the settings used by the Drawdown VMA sheets.
func DefaultOptions() Options {
	return Options{
		LowSD:             1.0,
		HighSD:            1.0,
		DiscardMultiplier: 3.0,
		StatCorrection:    true,
	}
}

// Params returns the statistics settings carried by the options.
func (o Options) Params() Params {
	return Params{
		LowSD:          o.LowSD,
		HighSD:         o.HighSD,
		Discard:        o.DiscardMultiplier,
		StatCorrection: o.StatCorrection,
		UseWeight:      o.UseWeight,
	}
}

// VMA holds the current snapshot of a source. Summaries are safe for concurrent
// use; Reload swaps the snapshot atomically.
type VMA struct {
	src    *source
	params Params
	log    zerolog.Logger

	mu   sync.Mutex // serializes Reload and WriteToFile
	snap atomic.Pointer[Snapshot]
}

// New loads and normalizes the source. With neither Path nor Reader set the
// table is empty and every summary is NaN.
func New(opt Options) (*VMA, error) {
	v := &VMA{
		src: &source{
			path:       opt.Path,
			reader:     opt.Reader,
			delimiter:  opt.Delimiter,
			sheetName:  opt.SheetName,
			sheetIndex: opt.SheetIndex,
		},
		params: opt.Params(),
		log:    zerolog.Nop(),
	}
	if opt.Path != "" {
		v.src.reader = nil
	}
	if opt.Logger != nil {
		v.log = *opt.Logger
	}
	snap, err := v.load()
	if err != nil {
		return nil, err
	}
	v.snap.Store(snap)
	return v, nil
}

func (v *VMA) load() (*Snapshot, error) {
	raw, err := v.src.read()
	if err != nil {
		v.log.Error().Err(err).Str("source", v.src.name()).Msg("load vma source")
		return nil, err
	}
	snap := normalize(raw)
	v.log.Debug().
		Str("source", v.src.name()).
		Str("snapshot", snap.ID).
		Int("rows", snap.Len()).
		Int("warnings", len(snap.Warnings)).
		Msg("loaded vma table")
	for _, w := range snap.Warnings {
		v.log.Warn().Str("source", v.src.name()).Msg(w)
	}
	return snap, nil
}

// Reload re-reads the source and replaces the snapshot. On error the previous
// snapshot stays in place.
func (v *VMA) Reload() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	snap, err := v.load()
	if err != nil {
		return err
	}
	v.snap.Store(snap)
	return nil
}

// current is the live snapshot. It must not escape to callers.
func (v *VMA) current() *Snapshot { return v.snap.Load() }

// Snapshot returns a copy of the current table; edits to it do not reach the VMA.
func (v *VMA) Snapshot() *Snapshot { return v.current().clone() }

// Raw returns a copy of the source table of the current snapshot.
func (v *VMA) Raw() RawTable { return v.current().Raw.Clone() }

// Records returns a copy of the normalized records of the current snapshot.
func (v *VMA) Records() []Record { return cloneRecords(v.current().Records) }

// Units returns the common units of the table, if any row states one.
func (v *VMA) Units() (string, bool) {
	s := v.current()
	return s.Units, s.HasUnits
}

// Warnings returns the load warnings of the current snapshot.
func (v *VMA) Warnings() []string { return slices.Clone(v.current().Warnings) }

// Name is a display name for the source.
func (v *VMA) Name() string {
	if v.src.path != "" {
		return filepath.Base(v.src.path)
	}
	return v.src.name()
}

// Params returns the statistics settings in use.
func (v *VMA) Params() Params { return v.params }

// Summarize validates key and computes the triple for the filter.
func (v *VMA) Summarize(key string, f Filter) (Result, error) {
	if _, err := ParseKey(key); err != nil {
		return Result{}, err
	}
	return summarize(v.current().Records, f, v.params), nil
}

// Component returns a single component of the summary.
func (v *VMA) Component(key string, f Filter) (float64, error) {
	k, err := ParseKey(key)
	if err != nil {
		return 0, err
	}
	return summarize(v.current().Records, f, v.params).Component(k), nil
}

// AvgHighLow returns (mean, high, low) for the filter.
func (v *VMA) AvgHighLow(f Filter) (mean, high, low float64) {
	r := summarize(v.current().Records, f, v.params)
	return r.Mean, r.High, r.Low
}

// Breakdown is a summary for one category value.
type Breakdown struct {
	Category string
	Result   Result
}

// ByRegion summarizes each region that has at least one usable record.
func (v *VMA) ByRegion(regime string) []Breakdown {
	recs := v.current().Records
	var out []Breakdown
	for _, region := range AllRegions() {
		r := summarize(recs, Filter{Regime: regime, Region: region}, v.params)
		if r.N == 0 {
			continue
		}
		out = append(out, Breakdown{Category: region, Result: r})
	}
	return out
}

// ByRegime summarizes each regime that has at least one usable record.
func (v *VMA) ByRegime(region string) []Breakdown {
	recs := v.current().Records
	var out []Breakdown
	for _, regime := range Regimes {
		r := summarize(recs, Filter{Regime: regime, Region: region}, v.params)
		if r.N == 0 {
			continue
		}
		out = append(out, Breakdown{Category: regime, Result: r})
	}
	return out
}

// Exports registers the named values a VMA publishes for downstream models.
func (v *VMA) Exports(f Filter) *export.Registry {
	reg := export.NewRegistry()
	reg.Register("summary", func() (map[string]float64, error) {
		r := summarize(v.current().Records, f, v.params)
		return map[string]float64{"mean": r.Mean, "high": r.High, "low": r.Low}, nil
	})
	reg.Register("by_region", func() (map[string]float64, error) {
		return breakdownMeans(v.ByRegion(f.Regime)), nil
	})
	reg.Register("by_regime", func() (map[string]float64, error) {
		return breakdownMeans(v.ByRegime(f.Region)), nil
	})
	return reg
}

func breakdownMeans(bs []Breakdown) map[string]float64 {
	out := make(map[string]float64, len(bs))
	for _, b := range bs {
		out[b.Category] = b.Result.Mean
	}
	return out
}

// WriteToFile replaces the source file with the given raw table. Only CSV path
// sources can be written; the next Reload picks the change up.
func (v *VMA) WriteToFile(t RawTable) error {
	if v.src.path == "" {
		return errors.New("write vma: source is not a file")
	}
	if v.src.isXLSX() {
		return errors.New("write vma: xlsx sources are read-only")
	}
	if len(t.Header) == 0 {
		return errors.New("write vma: table has no header")
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	b, err := encodeCSV(t)
	if err != nil {
		return fmt.Errorf("write vma: %w", err)
	}
	if err := utils.SafeWriteFile(v.src.path, b); err != nil {
		return fmt.Errorf("write vma: %w", err)
	}
	v.log.Info().Str("source", v.src.path).Int("rows", len(t.Rows)).Msg("wrote vma table")
	return nil
}
