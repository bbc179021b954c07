package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the resolved configuration of a run.
type Config struct {
	Genome       GenomeConfig       `mapstructure:"genome"`
	Transcripts  TranscriptsConfig  `mapstructure:"transcripts"`
	Model        ModelConfig        `mapstructure:"model"`
	Conservation ConservationConfig `mapstructure:"conservation"`
	Kmer         KmerConfig         `mapstructure:"kmer"`
	Results      ResultsConfig      `mapstructure:"results"`
	Evaluate     EvaluateConfig     `mapstructure:"evaluate"`
}

type GenomeConfig struct {
	FASTA string `mapstructure:"fasta"`
}

type TranscriptsConfig struct {
	GTF      string `mapstructure:"gtf"`
	CacheDir string `mapstructure:"cache_dir"`
}

type ModelConfig struct {
	Bundle        string `mapstructure:"bundle"`
	ForestWorkers int    `mapstructure:"forest_workers"`
}

type ConservationConfig struct {
	DB       string `mapstructure:"db"`
	BedGraph string `mapstructure:"bedgraph"`
	Preload  bool   `mapstructure:"preload"`
}

type KmerConfig struct {
	Hexamer  string `mapstructure:"hexamer"`
	Septamer string `mapstructure:"septamer"`
}

type ResultsConfig struct {
	DB string `mapstructure:"db"`
}

type EvaluateConfig struct {
	Padding int64 `mapstructure:"padding"`
	Workers int   `mapstructure:"workers"`
}

// loadConfig decodes the merged flags, environment, config file and defaults.
func loadConfig() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// requireResources checks the settings every evaluation needs.
func (c *Config) requireResources() error {
	checks := []struct{ key, val string }{
		{"genome.fasta", c.Genome.FASTA},
		{"transcripts.gtf", c.Transcripts.GTF},
		{"model.bundle", c.Model.Bundle},
	}
	for _, c := range checks {
		if c.val == "" {
			return &usageError{fmt.Errorf("%s is not set (see 'vibe-splice config set %s <path>')", c.key, c.key)}
		}
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage vibe-splice configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/.vibe-splice.yaml.",
		Example: `  vibe-splice config                                   # show all config
  vibe-splice config set genome.fasta /data/GRCh38.fa  # set the reference
  vibe-splice config get model.bundle                  # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow()
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(args[0])
		},
	}
}

func runConfigShow() error {
	settings := viper.AllSettings()
	if len(settings) == 0 {
		fmt.Println("# No configuration set. Config file: ~/.vibe-splice.yaml")
		return nil
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

func runConfigSet(key, value string) error {
	// Parse boolean-like values
	switch value {
	case "true", "yes", "on":
		viper.Set(key, true)
	case "false", "no", "off":
		viper.Set(key, false)
	default:
		viper.Set(key, value)
	}

	// Ensure config file exists
	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgFile = filepath.Join(home, ".vibe-splice.yaml")
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

func runConfigGet(key string) error {
	val := viper.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Println(val)
	return nil
}
