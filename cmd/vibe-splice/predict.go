package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/vibe-splice/internal/duckdb"
	"github.com/inodb/vibe-splice/internal/evaluate"
	"github.com/inodb/vibe-splice/internal/features"
	"github.com/inodb/vibe-splice/internal/output"
	"github.com/inodb/vibe-splice/internal/vcf"
)

func newPredictCmd() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "predict <chrom> <pos> <ref> <alt>",
		Short: "Predict the splicing impact of a single variant",
		Long: `Predict the splicing impact of one variant on every transcript it overlaps.
The position is 1-based and alleles are given as in VCF. When a results
database is configured, stored predictions are reused and new ones are saved.`,
		Example: `  vibe-splice predict 17 43045802 C T
  vibe-splice predict chr2 47403191 G A --results-db ~/.vibe-splice/results.duckdb`,
		Args: exactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || pos < 1 {
				return &usageError{fmt.Errorf("invalid position %q", args[1])}
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			v := &vcf.Variant{Chrom: args[0], Pos: pos, ID: ".", Ref: args[2], Alt: args[3]}
			return runPredict(cmd.OutOrStdout(), cfg, v, noCache)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Recompute even when the results database holds the variant")

	return cmd
}

func runPredict(out io.Writer, cfg *Config, v *vcf.Variant, noCache bool) error {
	w := output.NewTabWriter(out, features.Names)

	if !noCache {
		stored, err := lookupStored(cfg, v)
		if err != nil {
			return err
		}
		if len(stored) > 0 {
			logger.Info("using stored predictions", zap.String("variant", v.Label()))
			return writeResults(w, v, stored)
		}
	}

	res, err := openResources(cfg)
	if err != nil {
		return err
	}
	defer res.Close()

	results, err := res.evaluator.EvaluateVariant(v)
	if err != nil {
		return err
	}
	sorted := evaluate.Sorted(results)
	if len(sorted) == 0 {
		logger.Info("variant does not touch any transcript", zap.String("variant", v.Label()))
	}

	if res.results != nil {
		records := make([]duckdb.PredictionRecord, len(sorted))
		for i, r := range sorted {
			records[i] = duckdb.PredictionRecord{Chrom: v.Chrom, Pos: v.Pos, Ref: v.Ref, Alt: v.Alt, Result: r}
		}
		if err := res.results.WritePredictions(records); err != nil {
			return fmt.Errorf("store predictions: %w", err)
		}
	}

	return writeResults(w, v, sorted)
}

// lookupStored returns stored predictions of the variant. The store is
// closed again so the evaluation can reopen it.
func lookupStored(cfg *Config, v *vcf.Variant) ([]*evaluate.Result, error) {
	store, err := openResults(cfg)
	if err != nil || store == nil {
		return nil, err
	}
	defer store.Close()
	return store.LookupVariant(v.Chrom, v.Pos, v.Ref, v.Alt)
}

// writeResults writes a header and one row per result.
func writeResults(w evaluate.ResultWriter, v *vcf.Variant, results []*evaluate.Result) error {
	if err := w.WriteHeader(); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range results {
		if err := w.Write(v, r); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
	return w.Flush()
}
