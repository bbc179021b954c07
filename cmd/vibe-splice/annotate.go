package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/vibe-splice/internal/duckdb"
	"github.com/inodb/vibe-splice/internal/evaluate"
	"github.com/inodb/vibe-splice/internal/features"
	"github.com/inodb/vibe-splice/internal/output"
	"github.com/inodb/vibe-splice/internal/vcf"
)

func newAnnotateCmd() *cobra.Command {
	var (
		outputFormat string
		outputFile   string
	)

	cmd := &cobra.Command{
		Use:   "annotate <input.vcf>",
		Short: "Predict the splicing impact of every variant in a VCF file",
		Long: `Predict the splicing impact of every variant in a VCF file (plain or gzipped,
'-' for stdin). Multi-allelic records are split. Variants that cannot be
evaluated are logged and skipped.`,
		Example: `  vibe-splice annotate input.vcf.gz
  vibe-splice annotate -f vcf -o output.vcf input.vcf
  cat input.vcf | vibe-splice annotate -`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputFormat != "tab" && outputFormat != "vcf" {
				return &usageError{fmt.Errorf("unknown output format %q", outputFormat)}
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runAnnotate(cmd.OutOrStdout(), cfg, args[0], outputFormat, outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output-format", "f", "tab", "Output format: tab, vcf")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runAnnotate(stdout io.Writer, cfg *Config, inputPath, outputFormat, outputFile string) error {
	parser, err := vcf.NewParser(inputPath)
	if err != nil {
		return err
	}
	defer parser.Close()

	res, err := openResources(cfg)
	if err != nil {
		return err
	}
	defer res.Close()

	out := stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	var writer evaluate.ResultWriter
	switch outputFormat {
	case "tab":
		writer = output.NewTabWriter(out, features.Names)
	case "vcf":
		writer = output.NewVCFWriter(out, parser.Header())
	}
	if res.results != nil {
		writer = newStoringWriter(writer, res.results)
	}

	if err := writer.WriteHeader(); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return res.evaluator.EvaluateAll(parser, writer)
}

// storeBatchSize is the number of results appended to the results database at once.
const storeBatchSize = 10000

// storingWriter saves every result to the results database in addition to
// writing it.
type storingWriter struct {
	evaluate.ResultWriter
	store  *duckdb.Store
	batch  []duckdb.PredictionRecord
	stored int
}

func newStoringWriter(w evaluate.ResultWriter, store *duckdb.Store) *storingWriter {
	return &storingWriter{ResultWriter: w, store: store}
}

func (w *storingWriter) Write(v *vcf.Variant, r *evaluate.Result) error {
	if err := w.ResultWriter.Write(v, r); err != nil {
		return err
	}
	w.batch = append(w.batch, duckdb.PredictionRecord{Chrom: v.Chrom, Pos: v.Pos, Ref: v.Ref, Alt: v.Alt, Result: r})
	if len(w.batch) >= storeBatchSize {
		return w.flushBatch()
	}
	return nil
}

func (w *storingWriter) Flush() error {
	if err := w.flushBatch(); err != nil {
		return err
	}
	logger.Info("stored predictions", zap.Int("rows", w.stored))
	return w.ResultWriter.Flush()
}

func (w *storingWriter) flushBatch() error {
	if err := w.store.WritePredictions(w.batch); err != nil {
		return fmt.Errorf("store predictions: %w", err)
	}
	w.stored += len(w.batch)
	w.batch = w.batch[:0]
	return nil
}
