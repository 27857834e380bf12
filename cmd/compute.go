package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/vitiugin/ml-dist-gen/internal/mixture"
)

var (
	computeSummary    bool
	computePathOnly   bool
	computeBudget     int64
	computeTokenField string
	computeOut        string
)

var computeCmd = &cobra.Command{
	Use:   "compute <counts.jsonl>",
	Short: "Compute the training mixture from a token-count manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureConfig(); err != nil {
			return err
		}
		tokenField := cfg.TokenField
		if cmd.Flags().Changed("token-field") && computeTokenField != "" {
			tokenField = computeTokenField
		}
		mcfg := cfg.Mixture()
		if cmd.Flags().Changed("budget") && computeBudget > 0 {
			mcfg.TotalTrainingTokens = computeBudget
		}

		records, err := mixture.LoadRecords(args[0], tokenField)
		if err != nil {
			return err
		}
		result, err := mixture.New(mcfg, logger).Compute(records)
		if err != nil {
			return err
		}

		if computeOut != "" {
			report := mixture.NewReport(result, mcfg.TotalTrainingTokens)
			if err := report.Save(computeOut); err != nil {
				return err
			}
		}

		if computePathOnly {
			printPathLine(result)
			return nil
		}
		printDistribution(result)
		if computeSummary {
			printSummary(result, mcfg.TotalTrainingTokens, cfg.MaxEpochs)
		}
		return nil
	},
}

func init() {
	computeCmd.Flags().BoolVar(&computeSummary, "summary", false, "print a detailed summary including token counts and usage warnings")
	computeCmd.Flags().BoolVar(&computePathOnly, "path", false, "print a single line of per-dataset proportion/path pairs")
	computeCmd.Flags().Int64Var(&computeBudget, "budget", 0, "training-token budget (overrides config)")
	computeCmd.Flags().StringVar(&computeTokenField, "token-field", "", "manifest key holding token counts (overrides config)")
	computeCmd.Flags().StringVar(&computeOut, "out", "", "also write the full report as YAML to this file")
	rootCmd.AddCommand(computeCmd)
}

func printDistribution(res *mixture.Result) {
	fmt.Println("Final Training Distribution")
	fmt.Println()
	for _, s := range res.SortedDistribution() {
		fmt.Printf("%-8.4f %s\n", s.Value, s.Name)
	}
}

// printPathLine emits the per-dataset proportions as one space-joined line of
// "proportion path" pairs, sorted by path for stable output.
func printPathLine(res *mixture.Result) {
	paths := make([]string, 0, len(res.DatasetProportions))
	for p := range res.DatasetProportions {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	parts := make([]string, 0, len(paths))
	for _, p := range paths {
		parts = append(parts, fmt.Sprintf("%.4f %s", res.DatasetProportions[p], p))
	}
	fmt.Println(strings.Join(parts, " "))
}

func printSummary(res *mixture.Result, trainingTokens int64, maxEpochs float64) {
	p := message.NewPrinter(language.English)

	fmt.Println("\n" + strings.Repeat("=", 40) + "\n")
	fmt.Println("Summary")
	fmt.Println()
	p.Printf("Total Available Tokens: %d\n", res.TotalAvailableTokens)
	p.Printf("Total Training Tokens: %d\n", trainingTokens)
	fmt.Println()

	overused := make(map[string]bool)
	for lang, usage := range res.UsageReport {
		if usage > maxEpochs {
			overused[lang] = true
		}
	}
	if len(overused) > 0 {
		fmt.Println("High Usage Warning")
		fmt.Println()
		fmt.Printf("One or more languages will be repeated more than %g times.\n\n", maxEpochs)
	} else {
		fmt.Println("Usage Check")
		fmt.Println()
		fmt.Printf("All languages are within the desired usage limit (<= %g times).\n\n", maxEpochs)
	}

	fmt.Println("Data Usage (Epochs per Language)")
	fmt.Println()
	for _, s := range res.SortedUsage() {
		marker := "  "
		if overused[s.Name] {
			marker = "!!!"
		}
		fmt.Printf("- %s %s: ~%.2f epochs\n", marker, s.Name, s.Value)
	}
}
