package cmd

import (
	"github.com/KaramelBytes/vma-cli/internal/vma"
	"github.com/spf13/cobra"
)

var (
	sumFlags   statFlags
	sumKey     string
	sumFormat  string
	sumOutput  string
	sumExports bool
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <file>",
	Short: "Compute mean, high and low for a VMA table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := vma.ParseKey(sumKey)
		if err != nil {
			return err
		}
		format, err := outputFormat(cmd, sumFormat)
		if err != nil {
			return err
		}
		filter, err := sumFlags.filter()
		if err != nil {
			return err
		}
		opt, err := sumFlags.options(cmd)
		if err != nil {
			return err
		}
		opt.Path = args[0]
		t, err := vma.New(opt)
		if err != nil {
			return err
		}
		if sumExports {
			b, err := t.Exports(filter).JSON()
			if err != nil {
				return err
			}
			return emit(sumOutput, append(b, '\n'))
		}

		res, err := t.Summarize(string(key), filter)
		if err != nil {
			return err
		}
		row := newSummaryRow(t.Name(), t, filter, key, res)
		if format == "text" {
			return emit(sumOutput, []byte(row.text(key, res)+"\n"))
		}
		b, err := encode(format, row)
		if err != nil {
			return err
		}
		return emit(sumOutput, b)
	},
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
	sumFlags.register(summarizeCmd)
	summarizeCmd.Flags().StringVarP(&sumKey, "key", "k", "all", "component to report: mean|high|low|all")
	summarizeCmd.Flags().StringVarP(&sumFormat, "format", "f", "text", "output format: text|json|yaml")
	summarizeCmd.Flags().StringVarP(&sumOutput, "output", "o", "", "optional path to write the result")
	summarizeCmd.Flags().BoolVar(&sumExports, "exports", false, "print the exported values (summary, by_region, by_regime) as JSON")
}
