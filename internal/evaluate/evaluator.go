// Package evaluate predicts the splicing impact of variants on every
// transcript they overlap.
package evaluate

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vibe-splice/internal/cache"
	"github.com/inodb/vibe-splice/internal/features"
	"github.com/inodb/vibe-splice/internal/genome"
	"github.com/inodb/vibe-splice/internal/model"
	"github.com/inodb/vibe-splice/internal/splicing"
	"github.com/inodb/vibe-splice/internal/vcf"
)

// DefaultPadding is the number of reference bases fetched either side of a
// variant.
const DefaultPadding = 100

// ErrReferenceMismatch is returned when a variant's reference allele does not
// match the reference genome.
var ErrReferenceMismatch = errors.New("reference allele does not match genome")

// TranscriptSource finds transcripts overlapping a forward-strand region.
type TranscriptSource interface {
	Overlapping(contig string, begin, end int64) []*cache.Transcript
}

// SequenceSource provides contig lengths and forward-strand reference sequence.
type SequenceSource interface {
	Contig(name string) (genome.Contig, bool)
	Fetch(contig string, begin, end int64) (*genome.SequenceInterval, error)
}

// Classifier turns a feature vector into a prediction.
type Classifier interface {
	Predict(f model.Features) (model.Prediction, error)
}

// Result is the evaluation of one variant on one transcript. Prediction is
// nil when the transcript could not be classified, with the reason in Err.
type Result struct {
	Transcript *cache.Transcript
	Location   splicing.Location
	Features   model.Features
	Prediction *model.Prediction
	Err        error
}

// Evaluator runs the locate, assemble and classify steps for variants. It is
// safe for concurrent use when its sources are.
type Evaluator struct {
	transcripts TranscriptSource
	sequences   SequenceSource
	locator     *splicing.Locator
	assembler   *features.Assembler
	classifier  Classifier
	padding     int64
	minPadding  int64
	workers     int
	logger      *zap.Logger
}

// NewEvaluator creates an evaluator. params must be the window widths the
// assembler was built with.
func NewEvaluator(transcripts TranscriptSource, sequences SequenceSource, params splicing.Parameters,
	assembler *features.Assembler, classifier Classifier) *Evaluator {
	return &Evaluator{
		transcripts: transcripts,
		sequences:   sequences,
		locator:     splicing.NewLocator(params),
		assembler:   assembler,
		classifier:  classifier,
		padding:     DefaultPadding,
		minPadding:  int64(max(params.DonorLength(), params.AcceptorLength())),
		logger:      zap.NewNop(),
	}
}

// SetLogger sets the logger for warning and info messages.
func (e *Evaluator) SetLogger(l *zap.Logger) {
	e.logger = l
}

// SetPadding sets the number of reference bases fetched either side of a
// variant. It must cover a full splice window.
func (e *Evaluator) SetPadding(n int64) error {
	if n < e.minPadding {
		return fmt.Errorf("padding %d is shorter than the longest splice window (%d)", n, e.minPadding)
	}
	e.padding = n
	return nil
}

// SetWorkers sets the number of concurrent evaluations used by EvaluateAll.
// Zero or less uses runtime.NumCPU().
func (e *Evaluator) SetWorkers(n int) {
	e.workers = n
}

// FeatureNames returns the features computed for every transcript, in order.
func (e *Evaluator) FeatureNames() []string {
	return e.assembler.Names()
}

// Evaluate predicts the splicing impact of a variant given with a 1-based
// position on the forward strand. The result maps transcript IDs to their
// evaluation; transcripts the variant does not touch are absent.
func (e *Evaluator) Evaluate(contig string, pos int64, ref, alt string) (map[string]*Result, error) {
	c, ok := e.sequences.Contig(contig)
	if !ok {
		return nil, fmt.Errorf("unknown contig %q", contig)
	}
	v, err := splicing.NewVariant(c, pos, ref, alt)
	if err != nil {
		return nil, err
	}

	// An insertion point has no bases, so look at its neighbours too.
	qBegin, qEnd := v.Interval.Begin, v.Interval.End
	if v.Interval.IsEmpty() {
		qBegin, qEnd = max(qBegin-1, 0), min(qEnd+1, c.Length)
	}
	transcripts := e.transcripts.Overlapping(c.Name, qBegin, qEnd)

	results := make(map[string]*Result)
	if len(transcripts) == 0 {
		return results, nil
	}

	seq, err := e.sequences.Fetch(c.Name,
		max(v.Interval.Begin-e.padding, 0),
		min(v.Interval.End+e.padding, c.Length))
	if err != nil {
		return nil, fmt.Errorf("fetch reference around %s: %w", v, err)
	}
	if err := checkReference(v, seq); err != nil {
		return nil, err
	}

	for _, tx := range transcripts {
		loc := e.locator.Locate(v, tx)
		if loc.Position == splicing.Outside {
			continue
		}
		if loc.Ambiguous {
			e.logger.Warn("donor and acceptor windows overlap, using donor",
				zap.String("chrom", contig),
				zap.Int64("pos", pos),
				zap.String("transcript", tx.ID))
		}

		f := e.assembler.Assemble(features.Input{
			Variant:    v,
			Transcript: tx,
			Location:   loc,
			Sequence:   seq,
		})
		r := &Result{Transcript: tx, Location: loc, Features: f}

		pred, err := e.classifier.Predict(f)
		if err != nil {
			var pe *model.PredictionError
			if errors.As(err, &pe) {
				e.logger.Debug("no prediction for transcript",
					zap.String("variant", v.String()),
					zap.String("transcript", tx.ID),
					zap.Error(err))
			} else {
				e.logger.Warn("failed to classify variant",
					zap.String("variant", v.String()),
					zap.String("transcript", tx.ID),
					zap.Error(err))
			}
			r.Err = err
		} else {
			r.Prediction = &pred
		}
		results[tx.ID] = r
	}

	return results, nil
}

// EvaluateVariant evaluates a single VCF record with one alt allele.
func (e *Evaluator) EvaluateVariant(v *vcf.Variant) (map[string]*Result, error) {
	if v.IsSymbolic() {
		return nil, fmt.Errorf("symbolic allele %q is not supported", v.Alt)
	}
	return e.Evaluate(v.Chrom, v.Pos, v.Ref, v.Alt)
}

// checkReference compares the variant's reference bases with the genome.
// N in either sequence matches anything.
func checkReference(v splicing.Variant, seq *genome.SequenceInterval) error {
	if v.Ref == "" {
		return nil
	}
	bases, ok := seq.SubSequence(v.Interval)
	if !ok {
		return fmt.Errorf("reference for %s not fetched", v)
	}
	for i := range bases {
		if bases[i] != v.Ref[i] && bases[i] != 'N' && v.Ref[i] != 'N' {
			return fmt.Errorf("%s: genome has %s: %w", v, bases, ErrReferenceMismatch)
		}
	}
	return nil
}

// Sorted returns the results ordered by transcript ID.
func Sorted(results map[string]*Result) []*Result {
	out := make([]*Result, 0, len(results))
	for _, r := range results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.Compare(out[i].Transcript.ID, out[j].Transcript.ID) < 0
	})
	return out
}

// EvaluateAll evaluates every variant from the parser and writes results in
// input order. Variants that cannot be evaluated are logged and skipped.
// The caller writes the header.
func (e *Evaluator) EvaluateAll(parser vcf.VariantParser, writer ResultWriter) error {
	workers := e.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	feed := feedVariants(parser, 2*workers)

	var written, skipped int
	err := OrderedCollect(e.ParallelEvaluate(feed.items, workers), func(r WorkResult) error {
		if r.Err != nil {
			skipped++
			return nil
		}
		for _, res := range r.Results {
			if err := writer.Write(r.Variant, res); err != nil {
				return fmt.Errorf("write result: %w", err)
			}
			written++
		}
		return nil
	})
	if err != nil {
		return err
	}
	if feed.err != nil {
		return feed.err
	}

	e.logger.Info("evaluation complete",
		zap.Int("records", feed.records),
		zap.Int("results", written),
		zap.Int("skipped", skipped))

	return writer.Flush()
}

// ResultWriter defines the interface for writing evaluation results.
type ResultWriter interface {
	WriteHeader() error
	Write(v *vcf.Variant, r *Result) error
	Flush() error
}
