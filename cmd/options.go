package cmd

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/vma-cli/internal/utils"
	"github.com/KaramelBytes/vma-cli/internal/vma"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// statFlags are the statistics and source flags shared by summarize, batch and inspect.
type statFlags struct {
	regime         string
	region         string
	lowSD          float64
	highSD         float64
	discard        float64
	statCorrection bool
	useWeight      bool
	sheetName      string
	sheetIndex     int
	delimiter      string
}

func (s *statFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&s.regime, "regime", "", "thermal-moisture regime filter (see 'vma categories')")
	c.Flags().StringVar(&s.region, "region", "", "region filter; an aggregate also matches its member countries")
	c.Flags().Float64Var(&s.lowSD, "low-sd", 1.0, "standard deviations below the mean for the low value")
	c.Flags().Float64Var(&s.highSD, "high-sd", 1.0, "standard deviations above the mean for the high value")
	c.Flags().Float64Var(&s.discard, "discard", 3.0, "outlier rejection threshold in standard deviations")
	c.Flags().BoolVar(&s.statCorrection, "stat-correction", true, "apply the small-sample correction during outlier rejection")
	c.Flags().BoolVar(&s.useWeight, "use-weight", false, "use the Weight column (disables outlier rejection)")
	c.Flags().StringVar(&s.sheetName, "sheet-name", "", "XLSX: sheet name to read")
	c.Flags().IntVar(&s.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	c.Flags().StringVar(&s.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
}

// options resolves defaults < config < changed flags.
func (s *statFlags) options(c *cobra.Command) (vma.Options, error) {
	opt := configuredOptions()
	opt.SheetName = s.sheetName
	opt.SheetIndex = s.sheetIndex
	return s.apply(c, opt)
}

// apply overlays the flags the user changed onto opt.
func (s *statFlags) apply(c *cobra.Command, opt vma.Options) (vma.Options, error) {
	f := c.Flags()
	if f.Changed("low-sd") {
		opt.LowSD = s.lowSD
	}
	if f.Changed("high-sd") {
		opt.HighSD = s.highSD
	}
	if f.Changed("discard") {
		opt.DiscardMultiplier = s.discard
	}
	if f.Changed("stat-correction") {
		opt.StatCorrection = s.statCorrection
	}
	if f.Changed("use-weight") {
		opt.UseWeight = s.useWeight
	}
	if f.Changed("sheet-name") {
		opt.SheetName = s.sheetName
	}
	if f.Changed("sheet-index") {
		opt.SheetIndex = s.sheetIndex
	}
	d, err := parseDelimiter(s.delimiter)
	if err != nil {
		return opt, err
	}
	opt.Delimiter = d
	opt.Logger = &logger
	return opt, nil
}

// configuredOptions returns the library defaults with the config file applied.
func configuredOptions() vma.Options {
	opt := vma.DefaultOptions()
	if cfg != nil {
		opt.LowSD = cfg.LowSD
		opt.HighSD = cfg.HighSD
		opt.DiscardMultiplier = cfg.DiscardMultiplier
		opt.StatCorrection = cfg.StatCorrection
		opt.UseWeight = cfg.UseWeight
	}
	return opt
}

// filter validates the category flags after spelling correction.
func (s *statFlags) filter() (vma.Filter, error) {
	var f vma.Filter
	if s.regime != "" {
		f.Regime = vma.CorrectSpelling(s.regime)
		if !vma.ValidRegime(f.Regime) {
			return f, fmt.Errorf("unknown regime: %s (see 'vma categories')", s.regime)
		}
	}
	if s.region != "" {
		f.Region = vma.CorrectSpelling(s.region)
		if !vma.ValidRegion(f.Region) {
			return f, fmt.Errorf("unknown region: %s (see 'vma categories')", s.region)
		}
	}
	return f, nil
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	default:
		return 0, fmt.Errorf("unsupported --delimiter: %s", s)
	}
}

func parseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "text", "json", "yaml":
		return f, nil
	case "yml":
		return "yaml", nil
	default:
		return "", fmt.Errorf("unsupported format: %s (use text, json or yaml)", s)
	}
}

// outputFormat picks the --format flag if set, else the configured default.
func outputFormat(c *cobra.Command, flag string) (string, error) {
	if !c.Flags().Changed("format") && cfg != nil && cfg.OutputFormat != "" {
		return parseFormat(cfg.OutputFormat)
	}
	return parseFormat(flag)
}

// summaryRow is the structured form of one summary. Non-finite values are
// omitted in JSON and YAML and spelled out in text.
type summaryRow struct {
	Variable string   `json:"variable" yaml:"variable"`
	Units    string   `json:"units,omitempty" yaml:"units,omitempty"`
	Regime   string   `json:"regime,omitempty" yaml:"regime,omitempty"`
	Region   string   `json:"region,omitempty" yaml:"region,omitempty"`
	Mean     *float64 `json:"mean,omitempty" yaml:"mean,omitempty"`
	High     *float64 `json:"high,omitempty" yaml:"high,omitempty"`
	Low      *float64 `json:"low,omitempty" yaml:"low,omitempty"`
	N        int      `json:"n" yaml:"n"`
	Rejected int      `json:"rejected" yaml:"rejected"`
}

func newSummaryRow(name string, t *vma.VMA, f vma.Filter, key vma.Key, r vma.Result) summaryRow {
	row := summaryRow{Variable: name, Regime: f.Regime, Region: f.Region, N: r.N, Rejected: r.Rejected}
	if u, ok := t.Units(); ok {
		row.Units = u
	}
	if key == vma.KeyAll || key == vma.KeyMean {
		row.Mean = finite(r.Mean)
	}
	if key == vma.KeyAll || key == vma.KeyHigh {
		row.High = finite(r.High)
	}
	if key == vma.KeyAll || key == vma.KeyLow {
		row.Low = finite(r.Low)
	}
	return row
}

func finite(x float64) *float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil
	}
	return &x
}

func (r summaryRow) text(key vma.Key, res vma.Result) string {
	var b strings.Builder
	b.WriteString(r.Variable)
	if r.Regime != "" || r.Region != "" {
		b.WriteString(" [")
		b.WriteString(strings.TrimSpace(strings.Join([]string{r.Regime, r.Region}, " ")))
		b.WriteString("]")
	}
	b.WriteString(": ")
	if key == vma.KeyAll {
		b.WriteString(fmt.Sprintf("mean %s, high %s, low %s", vma.FormatNumber(res.Mean), vma.FormatNumber(res.High), vma.FormatNumber(res.Low)))
	} else {
		b.WriteString(fmt.Sprintf("%s %s", key, vma.FormatNumber(res.Component(key))))
	}
	if r.Units != "" {
		b.WriteString(" ")
		b.WriteString(r.Units)
	}
	b.WriteString(fmt.Sprintf(" (n=%d", res.N))
	if res.Rejected > 0 {
		b.WriteString(fmt.Sprintf(", %d rejected", res.Rejected))
	}
	b.WriteString(")")
	return b.String()
}

func encode(format string, v any) ([]byte, error) {
	switch format {
	case "json":
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal json: %w", err)
		}
		return append(b, '\n'), nil
	case "yaml":
		b, err := yaml.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal yaml: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// emit writes to --output when set, else stdout.
func emit(out string, data []byte) error {
	if out == "" {
		fmt.Print(string(data))
		return nil
	}
	if err := utils.SafeWriteFile(out, data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Printf("✓ Wrote %s\n", out)
	return nil
}

// catalogsDir resolves the configured catalogs directory, expanding ~.
func catalogsDir() (string, error) {
	dir := ""
	if cfg != nil {
		dir = cfg.CatalogsDir
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".vma", "catalogs")
	}
	if strings.HasPrefix(dir, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, strings.TrimLeft(strings.TrimPrefix(dir, "~"), `/\`))
	}
	dir = filepath.Clean(dir)
	if err := utils.EnsureDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

func resolveCatalogDir(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("catalog name is required")
	}
	root, err := catalogsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, name), nil
}
