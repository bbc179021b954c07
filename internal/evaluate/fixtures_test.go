package evaluate

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-splice/internal/cache"
	"github.com/inodb/vibe-splice/internal/features"
	"github.com/inodb/vibe-splice/internal/genome"
	"github.com/inodb/vibe-splice/internal/model"
	"github.com/inodb/vibe-splice/internal/splicing"
)

var testParams = splicing.Parameters{DonorExonic: 3, DonorIntronic: 6, AcceptorExonic: 2, AcceptorIntronic: 6}

var testContig = genome.Contig{Name: "1", Length: 200}

// testBases has a consensus donor at [47,56) and an acceptor at [94,102),
// matching transcripts with an intron [50,100).
func testBases() string {
	b := []byte(strings.Repeat("ACTTCATC", 25))
	copy(b[47:], "CAGGTAAGT")
	copy(b[94:], "TCCCAGGT")
	return string(b)
}

// fakeGenome serves testBases and records fetched regions.
type fakeGenome struct {
	mu      sync.Mutex
	bases   string
	fetches [][2]int64
}

func (g *fakeGenome) Contig(name string) (genome.Contig, bool) {
	if genome.NormalizeChrom(name) != testContig.Name {
		return genome.Contig{}, false
	}
	return testContig, true
}

func (g *fakeGenome) Fetch(contig string, begin, end int64) (*genome.SequenceInterval, error) {
	c, ok := g.Contig(contig)
	if !ok {
		return nil, fmt.Errorf("unknown contig %q", contig)
	}
	iv, err := genome.NewInterval(c, genome.Forward, begin, end)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	g.fetches = append(g.fetches, [2]int64{begin, end})
	g.mu.Unlock()
	return genome.NewSequenceInterval(iv, g.bases[begin:end])
}

// fakeClassifier scores canonical_donor/10 against a 0.5 threshold.
type fakeClassifier struct {
	fail bool
}

func (c *fakeClassifier) Predict(f model.Features) (model.Prediction, error) {
	if c.fail {
		return model.Prediction{}, &model.PredictionError{Feature: features.PhyloP, Msg: "feature absent"}
	}
	return model.Prediction{Partials: []model.PartialPrediction{
		{Name: "donor", Pathogenicity: f[features.CanonicalDonor] / 10, Threshold: 0.5},
	}}, nil
}

func testTranscript(t *testing.T, id string, exons ...[2]int64) *cache.Transcript {
	t.Helper()
	ivs := make([]genome.Interval, len(exons))
	for i, e := range exons {
		iv, err := genome.NewInterval(testContig, genome.Forward, e[0], e[1])
		require.NoError(t, err)
		ivs[i] = iv
	}
	tx, err := cache.NewTranscript(id, "GENE", ivs)
	require.NoError(t, err)
	return tx
}

func testAssembler(t *testing.T) *features.Assembler {
	t.Helper()
	donor := splicing.PWM{
		{0.35, 0.60, 0.09, 0.01, 0.01, 0.60, 0.70, 0.07, 0.15},
		{0.35, 0.13, 0.03, 0.01, 0.01, 0.03, 0.08, 0.05, 0.18},
		{0.18, 0.14, 0.80, 0.97, 0.01, 0.35, 0.12, 0.80, 0.20},
		{0.12, 0.13, 0.08, 0.01, 0.97, 0.02, 0.10, 0.08, 0.47},
	}
	acceptor := splicing.PWM{
		{0.10, 0.10, 0.25, 0.06, 0.97, 0.01, 0.25, 0.27},
		{0.35, 0.40, 0.30, 0.75, 0.01, 0.01, 0.14, 0.16},
		{0.10, 0.08, 0.20, 0.01, 0.01, 0.97, 0.50, 0.20},
		{0.45, 0.42, 0.25, 0.18, 0.01, 0.01, 0.11, 0.37},
	}
	pwm, err := splicing.NewPWMData(donor, acceptor, testParams)
	require.NoError(t, err)

	a, err := features.NewAssembler(features.Dependencies{
		Params:     testParams,
		Calculator: splicing.NewCalculator(pwm),
	}, []string{features.CanonicalDonor, features.CanonicalAcceptor, features.DonorOffset, features.AcceptorOffset})
	require.NoError(t, err)
	return a
}

// newTestEvaluator has two forward transcripts sharing the intron [50,100).
func newTestEvaluator(t *testing.T, classifier Classifier) (*Evaluator, *fakeGenome) {
	t.Helper()
	c := cache.New()
	c.AddTranscript(testTranscript(t, "TX", [2]int64{20, 50}, [2]int64{100, 150}))
	c.AddTranscript(testTranscript(t, "TX2", [2]int64{10, 50}, [2]int64{100, 180}))

	g := &fakeGenome{bases: testBases()}
	return NewEvaluator(c, g, testParams, testAssembler(t), classifier), g
}
