// Package main provides the vibe-splice command-line tool.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// logger is configured by the root command before any subcommand runs.
var logger = zap.NewNop()

// usageError marks errors caused by invalid command-line usage.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func main() {
	os.Exit(run())
}

func run() int {
	root := newRootCmd()
	err := root.Execute()
	logger.Sync()
	if err == nil {
		return ExitSuccess
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var ue *usageError
	if errors.As(err, &ue) {
		fmt.Fprintf(os.Stderr, "Run 'vibe-splice --help' for usage.\n")
		return ExitUsage
	}
	return ExitError
}

func newRootCmd() *cobra.Command {
	var (
		cfgFile string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "vibe-splice",
		Short: "Splicing variant pathogenicity predictor",
		Long: `vibe-splice predicts whether variants disrupt pre-mRNA splicing. Each variant
is placed on the transcripts it overlaps, splice site strength changes and
context features are computed, and a pre-trained classifier ensemble turns
them into a calibrated pathogenicity per transcript.`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(verbose)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			logger = l
			return initConfig(cfgFile)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err}
	})

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default: ~/.vibe-splice.yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Verbose (development) logging")
	pf.String("fasta", "", "Indexed reference FASTA")
	pf.String("gtf", "", "Transcript annotation GTF (plain or gzipped)")
	pf.String("bundle", "", "Model bundle (YAML)")
	pf.String("phylop-db", "", "DuckDB database of phyloP scores")
	pf.String("phylop", "", "phyloP bedGraph, loaded into --phylop-db when it is empty")
	pf.String("hexamer", "", "Hexamer (ESRseq) score table")
	pf.String("septamer", "", "Septamer (SMS) score table")
	pf.String("results-db", "", "DuckDB database for storing predictions")
	pf.Int("workers", 0, "Concurrent variant evaluations (0: number of CPUs)")
	for flag, key := range flagKeys {
		viper.BindPFlag(key, pf.Lookup(flag))
	}

	cmd.AddCommand(newPredictCmd())
	cmd.AddCommand(newAnnotateCmd())
	cmd.AddCommand(newLookupCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// flagKeys maps persistent flags to configuration keys.
var flagKeys = map[string]string{
	"fasta":      "genome.fasta",
	"gtf":        "transcripts.gtf",
	"bundle":     "model.bundle",
	"phylop-db":  "conservation.db",
	"phylop":     "conservation.bedgraph",
	"hexamer":    "kmer.hexamer",
	"septamer":   "kmer.septamer",
	"results-db": "results.db",
	"workers":    "evaluate.workers",
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// initConfig reads the config file and environment. A missing default config
// file is not an error.
func initConfig(cfgFile string) error {
	home, _ := os.UserHomeDir()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home != "" {
		viper.AddConfigPath(home)
		viper.SetConfigName(".vibe-splice")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("VIBE_SPLICE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(home)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	logger.Debug("using config file", zap.String("path", viper.ConfigFileUsed()))
	return nil
}

func setDefaults(home string) {
	if home != "" {
		viper.SetDefault("transcripts.cache_dir", filepath.Join(home, ".vibe-splice", "cache"))
	}
	viper.SetDefault("evaluate.padding", 100)
	viper.SetDefault("evaluate.workers", 0)
	viper.SetDefault("model.forest_workers", 1)
	viper.SetDefault("conservation.preload", false)
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &usageError{err}
		}
		return nil
	}
}
