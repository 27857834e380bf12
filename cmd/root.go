package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/vitiugin/ml-dist-gen/internal/config"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global

	// Diagnostics logger; nop unless --debug is set.
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ml-dist-gen",
	Short: "ml-dist-gen: compute training-data mixtures for multilingual models",
	Long: `ml-dist-gen reads a line-delimited JSON manifest of per-dataset token
counts and computes a proportional training mixture: drop rules, dataset
merging, fixed per-language quotas, a minimum-allocation floor, and a
per-dataset proportion table with an epoch-usage report.`,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(initRun)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.ml-dist-gen/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
}

func initRun() {
	logger = zap.NewNop()
	if debug {
		if l, err := zap.NewDevelopment(); err == nil {
			logger = l
		}
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands re-load lazily and surface the error themselves.
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c
}

// ensureConfig loads configuration on demand for commands invoked without the
// cobra initializer having run (tests call commands directly).
func ensureConfig() error {
	if cfg != nil {
		return nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg = c
	return nil
}
