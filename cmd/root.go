package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/propdash-cli/internal/config"
	"github.com/KaramelBytes/propdash-cli/internal/logger"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "propdash",
	Short: "PropDash CLI: clean, segment and score property listing data",
	Long: `PropDash loads property listing or transaction exports (CSV, TSV, XLSX),
maps their columns to a canonical schema, cleans implausible values and
reports market metrics, price segments, trends and per-listing competitiveness.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.propdash/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = defaultConfig()
	}
	cfg = c

	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	if err := logger.Init(level, cfg.LogFormat, cfg.LogOutput); err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to init logger: %v\n", err)
	}
}

func defaultConfig() *cfgpkg.Global {
	return &cfgpkg.Global{
		DefaultDomain: "for-sale",
		Encoding:      "auto",
		SheetIndex:    1,
		LogLevel:      "warn",
		LogFormat:     "console",
		LogOutput:     "stderr",
		ServeAddr:     ":8080",
		ExportDir:     ".",
	}
}

// currentConfig returns the loaded configuration or the defaults.
func currentConfig() *cfgpkg.Global {
	if cfg == nil {
		return defaultConfig()
	}
	return cfg
}
