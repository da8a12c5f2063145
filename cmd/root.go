package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/serpdiff/internal/config"
	"github.com/KaramelBytes/serpdiff/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile      string
	debug        bool
	flagLogLevel string

	// Loaded configuration
	cfg *cfgpkg.Global
	// Shared logger, rebuilt once config is loaded
	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "serpdiff",
	Short: "serpdiff: compare control vs experiment search results",
	Long: `serpdiff loads A/B search-result exports (CSV or XLSX), filters and pages
through the per-query comparisons, and reports click-weighted CTR for the
filtered set. Use "serve" for the HTTP viewer or the other commands offline.`,
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
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)

	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.serpdiff/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: trace|debug|info|warn|error (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands on defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{Addr: ":8080", PageSize: 50, MaxUploadMB: 32, LogLevel: "info"}
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("log-level") && flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	} else if debug {
		cfg.LogLevel = "debug"
	}
	logger = logging.New(cfg.LogLevel, cfg.LogJSON, os.Stderr)
}
