package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/vma-cli/internal/catalog"
	"github.com/KaramelBytes/vma-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	catInitDesc string

	catAddCatalog   string
	catAddName      string
	catAddDesc      string
	catAddSheet     string
	catAddLowSD     float64
	catAddHighSD    float64
	catAddDiscard   float64
	catAddCorrect   bool
	catAddUseWeight bool

	catListName   string
	catRemoveName string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage catalogs of VMA variables",
}

var catalogInitCmd = &cobra.Command{
	Use:   "init <catalog-name>",
	Short: "Initialize a new catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		dir, err := resolveCatalogDir(name)
		if err != nil {
			return err
		}
		// Refuse to overwrite an existing catalog.
		if catalog.Exists(dir) {
			return fmt.Errorf("catalog already exists at %s", dir)
		}
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			entries, err := os.ReadDir(dir)
			if err != nil {
				return fmt.Errorf("inspect catalog directory: %w", err)
			}
			if len(entries) > 0 {
				return fmt.Errorf("directory %s already exists and is not empty; refusing to initialize catalog", dir)
			}
		} else if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("stat catalog directory: %w", err)
		}
		if err := utils.EnsureDir(dir); err != nil {
			return err
		}
		c := catalog.NewCatalog(name, catInitDesc, dir)
		if err := c.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Catalog initialized: %s\n", dir)
		return nil
	},
}

var catalogAddCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Add a VMA source file to a catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if catAddCatalog == "" {
			return fmt.Errorf("--catalog is required")
		}
		dir, err := resolveCatalogDir(catAddCatalog)
		if err != nil {
			return err
		}
		c, err := catalog.LoadCatalog(dir)
		if err != nil {
			return err
		}
		base := configuredOptions()
		base.Logger = &logger
		v, err := c.AddVariable(args[0], catAddName, catAddDesc, catAddSheet, base)
		if err != nil {
			return err
		}
		f := cmd.Flags()
		if f.Changed("low-sd") {
			v.LowSD = &catAddLowSD
		}
		if f.Changed("high-sd") {
			v.HighSD = &catAddHighSD
		}
		if f.Changed("discard") {
			v.Discard = &catAddDiscard
		}
		if f.Changed("stat-correction") {
			v.StatCorrection = &catAddCorrect
		}
		if f.Changed("use-weight") {
			v.UseWeight = &catAddUseWeight
		}
		if err := c.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Variable added: %s (%d rows) from %s\n", v.Name, v.Rows, filepath.Base(v.Path))
		return nil
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalogs, or the variables of one catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if catListName == "" {
			return listAllCatalogs()
		}
		dir, err := resolveCatalogDir(catListName)
		if err != nil {
			return err
		}
		c, err := catalog.LoadCatalog(dir)
		if err != nil {
			return err
		}
		if len(c.Variables) == 0 {
			fmt.Println("(no variables)")
			return nil
		}
		for _, v := range c.Sorted() {
			units := v.Units
			if units == "" {
				units = "no units"
			}
			fmt.Printf("- %s: %s [%s, %d rows] %s\n", v.ID, v.Name, units, v.Rows, v.Path)
		}
		return nil
	},
}

var catalogRemoveCmd = &cobra.Command{
	Use:   "remove <variable>",
	Short: "Remove a variable from a catalog by name or ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if catRemoveName == "" {
			return fmt.Errorf("--catalog is required")
		}
		dir, err := resolveCatalogDir(catRemoveName)
		if err != nil {
			return err
		}
		c, err := catalog.LoadCatalog(dir)
		if err != nil {
			return err
		}
		if !c.Remove(args[0]) {
			return fmt.Errorf("variable %s not found in catalog %s", args[0], c.Name)
		}
		if err := c.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Variable removed: %s\n", args[0])
		return nil
	},
}

func listAllCatalogs() error {
	root, err := catalogsDir()
	if err != nil {
		return err
	}
	dirs, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	found := false
	for _, e := range dirs {
		if !e.IsDir() {
			continue
		}
		if catalog.Exists(filepath.Join(root, e.Name())) {
			fmt.Printf("- %s\n", e.Name())
			found = true
		}
	}
	if !found {
		fmt.Println("(no catalogs)")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogInitCmd, catalogAddCmd, catalogListCmd, catalogRemoveCmd)

	catalogInitCmd.Flags().StringVarP(&catInitDesc, "desc", "d", "", "catalog description")

	catalogAddCmd.Flags().StringVarP(&catAddCatalog, "catalog", "c", "", "catalog name")
	catalogAddCmd.Flags().StringVar(&catAddName, "name", "", "variable name (default: file name without extension)")
	catalogAddCmd.Flags().StringVar(&catAddDesc, "desc", "", "variable description")
	catalogAddCmd.Flags().StringVar(&catAddSheet, "sheet-name", "", "XLSX: sheet holding the table")
	catalogAddCmd.Flags().Float64Var(&catAddLowSD, "low-sd", 1.0, "override low_sd for this variable")
	catalogAddCmd.Flags().Float64Var(&catAddHighSD, "high-sd", 1.0, "override high_sd for this variable")
	catalogAddCmd.Flags().Float64Var(&catAddDiscard, "discard", 3.0, "override discard_multiplier for this variable")
	catalogAddCmd.Flags().BoolVar(&catAddCorrect, "stat-correction", true, "override stat_correction for this variable")
	catalogAddCmd.Flags().BoolVar(&catAddUseWeight, "use-weight", false, "override use_weight for this variable")

	catalogListCmd.Flags().StringVarP(&catListName, "catalog", "c", "", "catalog name (omit to list catalogs)")
	catalogRemoveCmd.Flags().StringVarP(&catRemoveName, "catalog", "c", "", "catalog name")
}
