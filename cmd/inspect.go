package cmd

import (
	"fmt"
	"os"

	"github.com/KaramelBytes/vma-cli/internal/vma"
	"github.com/spf13/cobra"
)

var (
	insFlags   statFlags
	insMaxRows int
	insOutput  string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show the normalized records and per-region summaries of a VMA table (Markdown)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := insFlags.filter()
		if err != nil {
			return err
		}
		opt, err := insFlags.options(cmd)
		if err != nil {
			return err
		}
		opt.Path = args[0]
		t, err := vma.New(opt)
		if err != nil {
			return err
		}
		md := t.Markdown(filter, insMaxRows)
		if insOutput != "" {
			if err := os.WriteFile(insOutput, []byte(md), 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Printf("✓ Wrote inspection to %s\n", insOutput)
			return nil
		}
		fmt.Println(md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	insFlags.register(inspectCmd)
	inspectCmd.Flags().IntVar(&insMaxRows, "max-rows", 50, "maximum records to list (0 = all)")
	inspectCmd.Flags().StringVarP(&insOutput, "output", "o", "", "optional path to write the report (Markdown)")
}
