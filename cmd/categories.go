package cmd

import (
	"fmt"

	"github.com/KaramelBytes/vma-cli/internal/vma"
	"github.com/spf13/cobra"
)

var catsFormat string

// categoryListing is the structured form of the reference tables.
type categoryListing struct {
	Regimes []string            `json:"regimes" yaml:"regimes"`
	Regions []string            `json:"regions" yaml:"regions"`
	Members map[string][]string `json:"members" yaml:"members"`
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the valid regimes and regions and the region hierarchy",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := parseFormat(catsFormat)
		if err != nil {
			return err
		}
		listing := categoryListing{
			Regimes: vma.Regimes,
			Regions: vma.AllRegions(),
			Members: map[string][]string{},
		}
		for _, r := range vma.MainRegions {
			if m := vma.Members(r); len(m) > 0 {
				listing.Members[r] = m
			}
		}
		if format != "text" {
			b, err := encode(format, listing)
			if err != nil {
				return err
			}
			fmt.Print(string(b))
			return nil
		}
		fmt.Println("Thermal-moisture regimes:")
		for _, r := range listing.Regimes {
			fmt.Printf("  %s\n", r)
		}
		fmt.Println("Regions:")
		for _, r := range vma.MainRegions {
			fmt.Printf("  %s\n", r)
			for _, m := range listing.Members[r] {
				fmt.Printf("    %s\n", m)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
	categoriesCmd.Flags().StringVarP(&catsFormat, "format", "f", "text", "output format: text|json|yaml")
}
