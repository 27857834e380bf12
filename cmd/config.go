package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	cfgpkg "github.com/vitiugin/ml-dist-gen/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or manage ml-dist-gen configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureConfig(); err != nil {
			return err
		}
		fmt.Printf("total_training_tokens: %d\n", cfg.TotalTrainingTokens)
		fmt.Printf("token_field: %s\n", cfg.TokenField)
		fmt.Printf("max_epochs: %g\n", cfg.MaxEpochs)
		fmt.Printf("min_threshold: %g\n", cfg.MinThreshold)
		if len(cfg.Drop) > 0 {
			fmt.Println("drop:")
			for _, lang := range sortedKeys(cfg.Drop) {
				fmt.Printf("  %s: %v\n", lang, cfg.Drop[lang])
			}
		}
		if len(cfg.Merge) > 0 {
			fmt.Println("merge:")
			for _, group := range sortedKeys(cfg.Merge) {
				fmt.Printf("  %s: %v\n", group, cfg.Merge[group])
			}
		}
		if len(cfg.FixedProportions) > 0 {
			fmt.Println("fixed_proportions:")
			for _, group := range sortedKeys(cfg.FixedProportions) {
				fmt.Printf("  %s: %g\n", group, cfg.FixedProportions[group])
			}
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to disk as a starting point",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureConfig(); err != nil {
			return err
		}
		path, err := cfgpkg.Save(cfg, cfgFile)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Config written: %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
