package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/inodb/vibe-splice/internal/features"
	"github.com/inodb/vibe-splice/internal/output"
	"github.com/inodb/vibe-splice/internal/vcf"
)

func newLookupCmd() *cobra.Command {
	var gene string

	cmd := &cobra.Command{
		Use:   "lookup [--gene <symbol> | <chrom> <pos> <ref> <alt>]",
		Short: "Show predictions stored in the results database",
		Example: `  vibe-splice lookup --gene BRCA1
  vibe-splice lookup 17 43045802 C T`,
		Args: func(cmd *cobra.Command, args []string) error {
			if gene != "" {
				return exactArgs(0)(cmd, args)
			}
			return exactArgs(4)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Results.DB == "" {
				return &usageError{fmt.Errorf("results.db is not set")}
			}
			return runLookup(cmd.OutOrStdout(), cfg, gene, args)
		},
	}

	cmd.Flags().StringVar(&gene, "gene", "", "Show all stored predictions for a gene")

	return cmd
}

func runLookup(out io.Writer, cfg *Config, gene string, args []string) error {
	store, err := openResults(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	w := output.NewTabWriter(out, features.Names)
	if gene == "" {
		v := &vcf.Variant{Chrom: args[0], Ref: args[2], Alt: args[3]}
		pos, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil || pos < 1 {
			return &usageError{fmt.Errorf("invalid position %q", args[1])}
		}
		v.Pos = pos
		results, err := store.LookupVariant(v.Chrom, v.Pos, v.Ref, v.Alt)
		if err != nil {
			return err
		}
		return writeResults(w, v, results)
	}

	records, err := store.SearchByGene(gene)
	if err != nil {
		return err
	}
	if err := w.WriteHeader(); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		v := &vcf.Variant{Chrom: r.Chrom, Pos: r.Pos, Ref: r.Ref, Alt: r.Alt}
		if err := w.Write(v, r.Result); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
	return w.Flush()
}
