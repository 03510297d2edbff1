package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/vma-cli/internal/config"
	"github.com/KaramelBytes/vma-cli/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	debug     bool
	logLevel  string
	logFormat string

	// Loaded configuration
	cfg *cfgpkg.Global
	// Logger handed to VMA tables; configured in loadConfig.
	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "vma",
	Short: "VMA CLI: meta-analysis of literature estimates for model variables",
	Long: `vma loads curated tables of literature estimates (CSV, TSV or XLSX), rejects
outliers and reduces them to mean, high and low values per region and
thermal-moisture regime.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.vma/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text|json (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands with built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = nil
	}
	cfg = c

	level, format := "warn", "text"
	if cfg != nil {
		level, format = cfg.LogLevel, cfg.LogFormat
	}
	if logLevel != "" {
		level = logLevel
	}
	if logFormat != "" {
		format = logFormat
	}
	if debug {
		level = "debug"
	}
	logger = logging.Setup(level, format)
}
