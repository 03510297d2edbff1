package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KaramelBytes/vma-cli/internal/catalog"
	"github.com/KaramelBytes/vma-cli/internal/vma"
	"github.com/spf13/cobra"
)

var (
	batchFlags   statFlags
	batchCatalog string
	batchKey     string
	batchFormat  string
	batchOutput  string
	batchQuiet   bool
)

// batchItem is one variable to summarize.
type batchItem struct {
	name string
	opt  vma.Options
}

var batchCmd = &cobra.Command{
	Use:   "batch [files...]",
	Short: "Summarize many VMA tables (files, globs or a catalog) with progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && batchCatalog == "" {
			return fmt.Errorf("provide files or --catalog")
		}
		key, err := vma.ParseKey(batchKey)
		if err != nil {
			return err
		}
		format, err := outputFormat(cmd, batchFormat)
		if err != nil {
			return err
		}
		filter, err := batchFlags.filter()
		if err != nil {
			return err
		}

		var items []batchItem
		if batchCatalog != "" {
			dir, err := resolveCatalogDir(batchCatalog)
			if err != nil {
				return err
			}
			c, err := catalog.LoadCatalog(dir)
			if err != nil {
				return err
			}
			for _, v := range c.Sorted() {
				opt, err := batchFlags.apply(cmd, v.Options(configuredOptions()))
				if err != nil {
					return err
				}
				items = append(items, batchItem{name: v.Name, opt: opt})
			}
		}
		files, err := expandInputs(args)
		if err != nil && len(items) == 0 {
			return err
		}
		for _, path := range files {
			opt, err := batchFlags.options(cmd)
			if err != nil {
				return err
			}
			opt.Path = path
			base := filepath.Base(path)
			items = append(items, batchItem{name: strings.TrimSuffix(base, filepath.Ext(base)), opt: opt})
		}
		if len(items) == 0 {
			return fmt.Errorf("nothing to summarize")
		}

		var (
			rows  []summaryRow
			lines []string
		)
		total := len(items)
		for i, it := range items {
			if !batchQuiet {
				fmt.Printf("[%d/%d] Processing %s...\n", i+1, total, it.name)
			}
			t, err := vma.New(it.opt)
			if err != nil {
				return fmt.Errorf("%s: %w", it.name, err)
			}
			res, err := t.Summarize(string(key), filter)
			if err != nil {
				return err
			}
			if n := len(t.Warnings()); n > 0 && !batchQuiet {
				fmt.Fprintf(os.Stderr, "⚠ Warning: %s has %d load warnings (see 'vma inspect')\n", it.name, n)
			}
			row := newSummaryRow(it.name, t, filter, key, res)
			rows = append(rows, row)
			lines = append(lines, row.text(key, res))
		}

		if format == "text" {
			return emit(batchOutput, []byte(strings.Join(lines, "\n")+"\n"))
		}
		b, err := encode(format, rows)
		if err != nil {
			return err
		}
		return emit(batchOutput, b)
	},
}

// expandInputs resolves globs and literal paths, deduplicated and sorted.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchFlags.register(batchCmd)
	batchCmd.Flags().StringVarP(&batchCatalog, "catalog", "c", "", "catalog name to summarize")
	batchCmd.Flags().StringVarP(&batchKey, "key", "k", "all", "component to report: mean|high|low|all")
	batchCmd.Flags().StringVarP(&batchFormat, "format", "f", "text", "output format: text|json|yaml")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "optional path to write the results")
	batchCmd.Flags().BoolVar(&batchQuiet, "quiet", false, "suppress progress and non-essential output")
}
