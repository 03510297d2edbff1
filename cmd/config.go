package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/vma-cli/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set VMA configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Println("No config loaded")
			return nil
		}
		fmt.Printf("low_sd: %g\n", cfg.LowSD)
		fmt.Printf("high_sd: %g\n", cfg.HighSD)
		fmt.Printf("discard_multiplier: %g\n", cfg.DiscardMultiplier)
		fmt.Printf("stat_correction: %t\n", cfg.StatCorrection)
		fmt.Printf("use_weight: %t\n", cfg.UseWeight)
		fmt.Printf("log_level: %s\n", cfg.LogLevel)
		fmt.Printf("log_format: %s\n", cfg.LogFormat)
		fmt.Printf("output_format: %s\n", cfg.OutputFormat)
		fmt.Printf("catalogs_dir: %s\n", cfg.CatalogsDir)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "low_sd", "high_sd", "discard_multiplier":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f < 0 {
				return fmt.Errorf("invalid non-negative float for %s: %v", key, val)
			}
			switch key {
			case "low_sd":
				cfg.LowSD = f
			case "high_sd":
				cfg.HighSD = f
			default:
				cfg.DiscardMultiplier = f
			}
		case "stat_correction", "use_weight":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for %s: %v", key, val)
			}
			if key == "stat_correction" {
				cfg.StatCorrection = b
			} else {
				cfg.UseWeight = b
			}
		case "log_level":
			switch strings.ToLower(val) {
			case "debug", "info", "warn", "error":
				cfg.LogLevel = strings.ToLower(val)
			default:
				return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
			}
		case "log_format":
			switch strings.ToLower(val) {
			case "text", "json":
				cfg.LogFormat = strings.ToLower(val)
			default:
				return fmt.Errorf("invalid log_format: %s (use text or json)", val)
			}
		case "output_format":
			f, err := parseFormat(val)
			if err != nil {
				return err
			}
			cfg.OutputFormat = f
		case "catalogs_dir":
			cfg.CatalogsDir = val
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Println("Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
