package cmd

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/vma-cli/internal/catalog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const regionCSV = `Source ID,Raw Data Input,Original Units,Conversion calculation,Common Units,Weight,Exclude Data?,Thermal-Moisture Regime,World / Drawdown Region
A,0.4,Mha,,Mha,1.0,False,Temperate/Boreal-Humid,OECD90
B,0.5,Mha,,Mha,1.0,False,Temperate/Boreal-Humid,USA
C,0.6,Mha,,Mha,1.0,False,Tropical-Humid,Latin America
`

// resetFlags restores every flag to its default so sticky values and Changed
// state do not leak between invocations.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		_ = fl.Value.Set(fl.DefValue)
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) {
	t.Helper()
	if err := execCmd(args...); err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
}

func execCmd(args ...string) error {
	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

// useTempHome isolates config and catalogs under a temporary HOME.
func useTempHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	oldHome := os.Getenv("HOME")
	t.Cleanup(func() { os.Setenv("HOME", oldHome) })
	os.Setenv("HOME", home)
	return home
}

func writeFile(t *testing.T, path, body string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

func TestCLI_SummarizeFormats(t *testing.T) {
	home := useTempHome(t)
	src := writeFile(t, filepath.Join(home, "land.csv"), regionCSV)

	out := filepath.Join(home, "out.json")
	runCmd(t, "summarize", src, "--region", "OECD90", "--format", "json", "-o", out)
	var row map[string]any
	if err := json.Unmarshal([]byte(readFile(t, out)), &row); err != nil {
		t.Fatalf("parse json: %v", err)
	}
	if row["mean"].(float64) < 0.4499 || row["mean"].(float64) > 0.4501 {
		t.Fatalf("unexpected mean: %v", row["mean"])
	}
	if row["units"] != "Mha" || row["region"] != "OECD90" || row["n"].(float64) != 2 {
		t.Fatalf("unexpected row: %v", row)
	}

	txt := filepath.Join(home, "out.txt")
	runCmd(t, "summarize", src, "--key", "mean", "--region", "USA", "-o", txt)
	body := readFile(t, txt)
	if !strings.Contains(body, "mean 0.5 Mha") || strings.Contains(body, "high") {
		t.Fatalf("unexpected text output: %q", body)
	}

	yml := filepath.Join(home, "out.yaml")
	runCmd(t, "summarize", src, "--regime", "Tropical-Humid", "-f", "yaml", "-o", yml)
	var y map[string]any
	if err := yaml.Unmarshal([]byte(readFile(t, yml)), &y); err != nil {
		t.Fatalf("parse yaml: %v", err)
	}
	if y["mean"] != 0.6 || y["high"] != 0.6 {
		t.Fatalf("unexpected yaml: %v", y)
	}
}

func TestCLI_SummarizeRejectsBadInput(t *testing.T) {
	home := useTempHome(t)
	src := writeFile(t, filepath.Join(home, "land.csv"), regionCSV)

	if err := execCmd("summarize", src, "--key", "median"); err == nil {
		t.Fatalf("expected invalid key error")
	}
	if err := execCmd("summarize", src, "--region", "Atlantis"); err == nil {
		t.Fatalf("expected unknown region error")
	}
	if err := execCmd("summarize", filepath.Join(home, "missing.csv")); err == nil {
		t.Fatalf("expected missing file error")
	}
	if err := execCmd("summarize", src, "--format", "xml"); err == nil {
		t.Fatalf("expected format error")
	}
}

func TestCLI_SummarizeExports(t *testing.T) {
	home := useTempHome(t)
	src := writeFile(t, filepath.Join(home, "land.csv"), regionCSV)
	out := filepath.Join(home, "exports.json")
	runCmd(t, "summarize", src, "--exports", "--region", "China", "-o", out)

	var doc map[string]map[string]float64
	if err := json.Unmarshal([]byte(readFile(t, out)), &doc); err != nil {
		t.Fatalf("parse exports: %v", err)
	}
	if doc["summary"]["mean"] != 0 {
		t.Fatalf("empty selection should export 0, got %v", doc["summary"]["mean"])
	}
	if doc["by_region"]["OECD90"] < 0.4499 || doc["by_region"]["OECD90"] > 0.4501 {
		t.Fatalf("unexpected by_region: %v", doc["by_region"])
	}
}

func TestCLI_BatchGlobYAML(t *testing.T) {
	home := useTempHome(t)
	writeFile(t, filepath.Join(home, "d1", "land.csv"), regionCSV)
	writeFile(t, filepath.Join(home, "d2", "yield.csv"), "Source ID,Raw Data Input,Common Units\nA,39%,%\n")

	out := filepath.Join(home, "batch.yaml")
	runCmd(t, "batch", filepath.Join(home, "d*", "*.csv"), "--format", "yaml", "--quiet", "-o", out)
	var rows []map[string]any
	if err := yaml.Unmarshal([]byte(readFile(t, out)), &rows); err != nil {
		t.Fatalf("parse yaml: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["variable"] != "land" || rows[1]["variable"] != "yield" {
		t.Fatalf("unexpected order: %v", rows)
	}
	if rows[1]["mean"] != 0.39 {
		t.Fatalf("unexpected yield mean: %v", rows[1]["mean"])
	}

	if err := execCmd("batch", filepath.Join(home, "nothing", "*.csv")); err == nil {
		t.Fatalf("expected no-match error")
	}
}

func TestCLI_CatalogLifecycleAndBatch(t *testing.T) {
	home := useTempHome(t)
	land := writeFile(t, filepath.Join(home, "land.csv"), regionCSV)
	var b strings.Builder
	b.WriteString("Source ID,Raw Data Input\n")
	for i := 0; i < 15; i++ {
		b.WriteString("s,10000\n")
	}
	b.WriteString("p,20000\nq,1\n")
	eff := writeFile(t, filepath.Join(home, "efficiency.csv"), b.String())

	runCmd(t, "catalog", "init", "drawdown", "-d", "integration test")
	if err := execCmd("catalog", "init", "drawdown"); err == nil {
		t.Fatalf("expected error re-initializing catalog")
	}
	runCmd(t, "catalog", "add", land, "-c", "drawdown", "--desc", "land area")
	runCmd(t, "catalog", "add", eff, "-c", "drawdown", "--name", "efficiency", "--discard", "1")
	runCmd(t, "catalog", "list")
	runCmd(t, "catalog", "list", "-c", "drawdown")

	dir, err := resolveCatalogDir("drawdown")
	if err != nil {
		t.Fatalf("resolve catalog: %v", err)
	}
	c, err := catalog.LoadCatalog(dir)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	v, ok := c.Find("efficiency")
	if !ok || v.Discard == nil || *v.Discard != 1 || v.LowSD != nil {
		t.Fatalf("override not persisted: %+v", v)
	}

	out := filepath.Join(home, "batch.json")
	runCmd(t, "batch", "--catalog", "drawdown", "-f", "json", "-o", out)
	var rows []map[string]any
	if err := json.Unmarshal([]byte(readFile(t, out)), &rows); err != nil {
		t.Fatalf("parse json: %v", err)
	}
	if len(rows) != 2 || rows[0]["variable"] != "efficiency" {
		t.Fatalf("unexpected rows: %v", rows)
	}
	if rows[0]["mean"] != 10000.0 || rows[0]["rejected"].(float64) != 2 {
		t.Fatalf("catalog discard override not applied: %v", rows[0])
	}

	runCmd(t, "catalog", "remove", "efficiency", "-c", "drawdown")
	c, err = catalog.LoadCatalog(dir)
	if err != nil {
		t.Fatalf("reload catalog: %v", err)
	}
	if len(c.Variables) != 1 {
		t.Fatalf("expected 1 variable after remove, got %d", len(c.Variables))
	}
}

func TestCLI_ConfigSetAffectsDefaults(t *testing.T) {
	home := useTempHome(t)
	runCmd(t, "config", "set", "output_format", "json")
	runCmd(t, "config", "set", "high_sd", "2")
	body := readFile(t, filepath.Join(home, ".vma", "config.yaml"))
	if !strings.Contains(body, "output_format: json") || !strings.Contains(body, "high_sd: 2") {
		t.Fatalf("config not saved: %s", body)
	}
	if err := execCmd("config", "set", "use_weight", "sometimes"); err == nil {
		t.Fatalf("expected invalid bool error")
	}
	if err := execCmd("config", "set", "colour", "blue"); err == nil {
		t.Fatalf("expected unknown key error")
	}
	runCmd(t, "config", "show")

	src := writeFile(t, filepath.Join(home, "two.csv"), "Source ID,Raw Data Input\nA,1\nB,3\n")
	out := filepath.Join(home, "two.json")
	runCmd(t, "summarize", src, "-o", out)
	var row map[string]any
	if err := json.Unmarshal([]byte(readFile(t, out)), &row); err != nil {
		t.Fatalf("configured output_format should be json: %v", err)
	}
	// mean 2, sd sqrt(2), high_sd 2
	if h := row["high"].(float64); h < 4.828 || h > 4.829 {
		t.Fatalf("configured high_sd not applied: %v", h)
	}
}

func TestCLI_InspectAndCategories(t *testing.T) {
	home := useTempHome(t)
	src := writeFile(t, filepath.Join(home, "land.csv"), regionCSV+"D,10-15%,Mha,,Mha,1.0,True,,World\n")
	out := filepath.Join(home, "inspect.md")
	runCmd(t, "inspect", src, "--max-rows", "2", "-o", out)
	md := readFile(t, out)
	for _, want := range []string{"[VMA SUMMARY]", "File: land.csv", "[BY REGION]", "(2 more rows)", "[NOTES]", "10-15%"} {
		if !strings.Contains(md, want) {
			t.Fatalf("inspect output missing %q:\n%s", want, md)
		}
	}
	runCmd(t, "categories")
	runCmd(t, "categories", "--format", "json")
}

// captureStderr runs fn with os.Stderr redirected and returns what was written.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	old := os.Stderr
	os.Stderr = w
	defer func() { os.Stderr = old }()
	fn()
	w.Close()
	b, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read stderr: %v", err)
	}
	return string(b)
}

func TestCLI_BatchReportsLoadWarnings(t *testing.T) {
	home := useTempHome(t)
	src := writeFile(t, filepath.Join(home, "mixed.csv"), "Source ID,Raw Data Input,Common Units\nA,1,Mha\nB,2,ha\n")
	out := filepath.Join(home, "mixed.txt")
	stderr := captureStderr(t, func() {
		runCmd(t, "batch", src, "-o", out)
	})
	if !strings.Contains(stderr, "mixed has 1 load warnings") {
		t.Fatalf("expected load warning count, got %q", stderr)
	}
	if strings.Contains(stderr, "malformed") {
		t.Fatalf("unit conflicts are not malformed cells: %q", stderr)
	}
}
