package evaluate

import (
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/inodb/vibe-splice/internal/vcf"
)

// WorkItem is one allele of a VCF record, numbered in input order.
type WorkItem struct {
	Seq     int
	Variant *vcf.Variant
}

// WorkResult is the evaluation of one WorkItem. Results are ordered by
// transcript ID. A variant that could not be evaluated has Err set and no
// results; the failure has already been logged.
type WorkResult struct {
	Seq     int
	Variant *vcf.Variant
	Results []*Result
	Err     error
}

// variantFeed numbers the split alleles of every parsed record. records and
// err may be read once items is closed.
type variantFeed struct {
	items   chan WorkItem
	records int
	err     error
}

func feedVariants(parser vcf.VariantParser, buffer int) *variantFeed {
	f := &variantFeed{items: make(chan WorkItem, buffer)}
	go func() {
		defer close(f.items)
		seq := 0
		for {
			v, err := parser.Next()
			if err != nil {
				f.err = fmt.Errorf("read variant: %w", err)
				return
			}
			if v == nil {
				return
			}
			f.records++
			for _, allele := range vcf.SplitMultiAllelic(v) {
				f.items <- WorkItem{Seq: seq, Variant: allele}
				seq++
			}
		}
	}()
	return f
}

// ParallelEvaluate evaluates items on a fixed pool of workers and sends one
// WorkResult per item in completion order. OrderedCollect restores input
// order. workers <= 0 uses runtime.NumCPU().
func (e *Evaluator) ParallelEvaluate(items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	out := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range items {
				out <- e.evaluateItem(item)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

func (e *Evaluator) evaluateItem(item WorkItem) WorkResult {
	r := WorkResult{Seq: item.Seq, Variant: item.Variant}
	results, err := e.EvaluateVariant(item.Variant)
	if err != nil {
		e.logger.Warn("failed to evaluate variant",
			zap.String("variant", item.Variant.Label()),
			zap.Int("seq", item.Seq),
			zap.Error(err))
		r.Err = err
		return r
	}
	r.Results = Sorted(results)
	return r
}

// OrderedCollect calls fn for each result in sequence order, holding back
// results that arrive early. After fn fails the remaining results are
// discarded so the workers can finish, and the error is returned once the
// channel is closed.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	var (
		early = make(map[int]WorkResult)
		next  int
		err   error
	)
	for r := range results {
		if err != nil {
			continue
		}
		early[r.Seq] = r
		for err == nil {
			ready, ok := early[next]
			if !ok {
				break
			}
			delete(early, next)
			next++
			err = fn(ready)
		}
	}
	return err
}
