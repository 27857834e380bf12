package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/vitiugin/ml-dist-gen/internal/mixture"
)

// Global configuration structure. Defaults describe the multilingual
// pretraining mix the tool ships with, so a bare run produces a sensible
// split without a config file.
type Global struct {
	TotalTrainingTokens int64               `mapstructure:"total_training_tokens" yaml:"total_training_tokens"`
	TokenField          string              `mapstructure:"token_field" yaml:"token_field"`
	MaxEpochs           float64             `mapstructure:"max_epochs" yaml:"max_epochs"`
	MinThreshold        float64             `mapstructure:"min_threshold" yaml:"min_threshold"`
	Drop                map[string][]string `mapstructure:"drop" yaml:"drop"`
	Merge               map[string][]string `mapstructure:"merge" yaml:"merge"`
	FixedProportions    map[string]float64  `mapstructure:"fixed_proportions" yaml:"fixed_proportions"`
}

// Mixture converts the file-level configuration into a calculator Config.
func (c *Global) Mixture() mixture.Config {
	return mixture.Config{
		TotalTrainingTokens: c.TotalTrainingTokens,
		Drop:                c.Drop,
		Merge:               c.Merge,
		Fixed:               c.FixedProportions,
		MinThreshold:        c.MinThreshold,
	}
}

// DefaultPath returns the default config file location,
// ~/.ml-dist-gen/config.yaml, creating the directory if necessary.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	dir := filepath.Join(home, ".ml-dist-gen")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir config dir: %w", err)
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Save writes the given configuration to cfgFile, or to the default path when
// cfgFile is empty. It returns the path written.
func Save(c *Global, cfgFile string) (string, error) {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return "", err
		}
		path = p
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return path, nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("MLDIST")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("total_training_tokens", int64(4_000_000_000_000))
	v.SetDefault("token_field", mixture.DefaultTokenField)
	v.SetDefault("max_epochs", 5.0)
	v.SetDefault("min_threshold", 0.0005)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".ml-dist-gen")
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Map-valued defaults are applied here rather than through viper, which
	// deep-merges default maps into explicitly empty config maps. An empty
	// map in the file means "none"; only an absent key gets the default,
	// so presence is checked with IsSet rather than a nil test (an explicit
	// `drop: {}` also unmarshals to nil).
	if !v.IsSet("drop") {
		c.Drop = map[string][]string{"eng": {"HPLT/HPLT2.0_cleaned"}}
	}
	if !v.IsSet("merge") {
		c.Merge = map[string][]string{"code": {"stack-edu", "starcoder"}}
	}
	if !v.IsSet("fixed_proportions") {
		c.FixedProportions = map[string]float64{"eng": 0.45, "code": 0.04, "math": 0.01}
	}
	return &c, nil
}
