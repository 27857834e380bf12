package mixture

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Share is one named proportion, used for sorted views of a Result.
type Share struct {
	Name  string
	Value float64
}

// SortedDistribution returns the language distribution in descending
// proportion order, ties broken by ascending name.
func (r *Result) SortedDistribution() []Share {
	return sortedShares(r.Distribution)
}

// SortedUsage returns the epoch estimates in descending order, ties broken
// by ascending name.
func (r *Result) SortedUsage() []Share {
	return sortedShares(r.UsageReport)
}

func sortedShares(m map[string]float64) []Share {
	out := make([]Share, 0, len(m))
	for name, v := range m {
		out = append(out, Share{Name: name, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Report is the exportable form of a Result, carrying a generated ID and
// timestamp so saved reports can be told apart.
type Report struct {
	ID                   string             `yaml:"id"`
	GeneratedAt          time.Time          `yaml:"generated_at"`
	TrainingTokens       int64              `yaml:"training_tokens"`
	TotalAvailableTokens int64              `yaml:"total_available_tokens"`
	Distribution         map[string]float64 `yaml:"distribution"`
	UsageReport          map[string]float64 `yaml:"usage_report"`
	DatasetProportions   map[string]float64 `yaml:"dataset_proportions"`
}

// NewReport wraps a Result for export.
func NewReport(res *Result, trainingTokens int64) *Report {
	return &Report{
		ID:                   uuid.NewString(),
		GeneratedAt:          time.Now(),
		TrainingTokens:       trainingTokens,
		TotalAvailableTokens: res.TotalAvailableTokens,
		Distribution:         res.Distribution,
		UsageReport:          res.UsageReport,
		DatasetProportions:   res.DatasetProportions,
	}
}

// Save writes the report as YAML to path.
func (r *Report) Save(path string) error {
	b, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
