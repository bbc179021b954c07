package splicing

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-splice/internal/cache"
	"github.com/inodb/vibe-splice/internal/genome"
)

// testParams: donor 3 exonic + 6 intronic, acceptor 6 intronic + 2 exonic.
var testParams = Parameters{DonorExonic: 3, DonorIntronic: 6, AcceptorExonic: 2, AcceptorIntronic: 6}

var testDonorPWM = PWM{
	{0.35, 0.60, 0.09, 0.01, 0.01, 0.60, 0.70, 0.07, 0.15},
	{0.35, 0.13, 0.03, 0.01, 0.01, 0.03, 0.08, 0.05, 0.18},
	{0.18, 0.14, 0.80, 0.97, 0.01, 0.35, 0.12, 0.80, 0.20},
	{0.12, 0.13, 0.08, 0.01, 0.97, 0.02, 0.10, 0.08, 0.47},
}

var testAcceptorPWM = PWM{
	{0.10, 0.10, 0.25, 0.06, 0.97, 0.01, 0.25, 0.27},
	{0.35, 0.40, 0.30, 0.75, 0.01, 0.01, 0.14, 0.16},
	{0.10, 0.08, 0.20, 0.01, 0.01, 0.97, 0.50, 0.20},
	{0.45, 0.42, 0.25, 0.18, 0.01, 0.01, 0.11, 0.37},
}

var testContig = genome.Contig{Name: "1", Length: 200}

// testBases is a 200 bp transcript-strand sequence with a consensus donor at
// [47,56), a near-consensus donor at [66,75) and an acceptor at [94,102).
func testBases() string {
	b := []byte(strings.Repeat("ACTTCATC", 25))
	copy(b[47:], "CAGGTAAGT")
	copy(b[66:], "CAGGTCAGT")
	copy(b[94:], "TCCCAGGT")
	return string(b)
}

func testCalculator(t *testing.T) *Calculator {
	t.Helper()
	pwm, err := NewPWMData(testDonorPWM, testAcceptorPWM, testParams)
	require.NoError(t, err)
	return NewCalculator(pwm)
}

// testSequence returns testBases on the given strand. For the reverse strand
// the forward genome holds the reverse complement.
func testSequence(t *testing.T, strand genome.Strand) *genome.SequenceInterval {
	t.Helper()
	bases := testBases()
	if strand == genome.Reverse {
		bases = genome.ReverseComplement(bases)
	}
	iv, err := genome.NewInterval(testContig, genome.Forward, 0, testContig.Length)
	require.NoError(t, err)
	seq, err := genome.NewSequenceInterval(iv, bases)
	require.NoError(t, err)
	return seq
}

// testTranscript has exons [20,50) and [100,150) on the given strand, so one
// intron [50,100).
func testTranscript(t *testing.T, strand genome.Strand, exons ...[2]int64) *cache.Transcript {
	t.Helper()
	if len(exons) == 0 {
		exons = [][2]int64{{20, 50}, {100, 150}}
	}
	ivs := make([]genome.Interval, len(exons))
	for i, e := range exons {
		iv, err := genome.NewInterval(testContig, strand, e[0], e[1])
		require.NoError(t, err)
		ivs[i] = iv
	}
	tx, err := cache.NewTranscript("TX", "GENE", ivs)
	require.NoError(t, err)
	return tx
}

// snv returns a single base substitution at pos on the strand, expressed on
// the forward strand the way the evaluator receives it.
func snv(t *testing.T, strand genome.Strand, pos int64, ref, alt string) Variant {
	t.Helper()
	return change(t, strand, pos, pos+1, ref, alt)
}

func change(t *testing.T, strand genome.Strand, begin, end int64, ref, alt string) Variant {
	t.Helper()
	iv, err := genome.NewInterval(testContig, strand, begin, end)
	require.NoError(t, err)
	return Variant{Interval: iv, Ref: ref, Alt: alt}.WithStrand(genome.Forward)
}

func assertNaN(t *testing.T, v float64, msgAndArgs ...interface{}) {
	t.Helper()
	require.True(t, math.IsNaN(v), msgAndArgs...)
}

// fixedScorer gives every intron the same donor and acceptor strengths.
type fixedScorer struct {
	donor, acceptor float64
}

func (s fixedScorer) ScoreIntron(genome.Interval) (float64, float64) {
	return s.donor, s.acceptor
}
