package splicing

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-splice/internal/genome"
)

func TestSiteScorer_CanonicalDonorSNV(t *testing.T) {
	calc := testCalculator(t)
	donor := NewSiteScorer(CanonicalDonor, testParams, calc)
	acceptor := NewSiteScorer(CanonicalAcceptor, testParams, calc)

	for _, strand := range []genome.Strand{genome.Forward, genome.Reverse} {
		t.Run(strand.String(), func(t *testing.T) {
			tx := testTranscript(t, strand)
			seq := testSequence(t, strand)
			loc := NewLocator(testParams)

			// G>A at the first intronic base of the donor.
			v := snv(t, strand, 50, "G", "A")
			l := loc.Locate(v, tx)
			require.Equal(t, Donor, l.Position)

			assert.InDelta(t, 6.599913, donor.Score(*l.DonorAnchor, v, seq), 1e-4)

			site, ok := ClosestAcceptor(v, tx)
			require.True(t, ok)
			assert.Equal(t, 0.0, acceptor.Score(site, v, seq), "acceptor unaffected")
		})
	}
}

func TestSiteScorer_CanonicalBoundary(t *testing.T) {
	scorer := NewSiteScorer(CanonicalDonor, testParams, testCalculator(t))
	seq := testSequence(t, genome.Forward)
	site := Site{Anchor: genome.Position{Contig: testContig, Strand: genome.Forward, Pos: 50}, Score: math.NaN()}
	bases := testBases()

	// Donor window is [47,56).
	for _, pos := range []int64{46, 56} {
		v := snv(t, genome.Forward, pos, bases[pos:pos+1], "G")
		assert.Equal(t, 0.0, scorer.Score(site, v, seq), "pos %d", pos)
	}

	noop := change(t, genome.Forward, 50, 51, "G", "G")
	assert.Equal(t, 0.0, scorer.Score(site, noop, seq), "ref equals alt")

	// A delins replacing the whole window destroys the site.
	destroyed := change(t, genome.Forward, 45, 58, bases[45:58], "AAAAAAAAAAAAAAAAAAAA")
	assertNaN(t, scorer.Score(site, destroyed, seq))
}

func TestSiteScorer_Cryptic(t *testing.T) {
	calc := testCalculator(t)
	cryptic := NewSiteScorer(CrypticDonor, testParams, calc)
	consensus := calc.DonorScore("CAGGTAAGT")

	for _, strand := range []genome.Strand{genome.Forward, genome.Reverse} {
		t.Run(strand.String(), func(t *testing.T) {
			tx := testTranscript(t, strand)
			seq := testSequence(t, strand)

			// C>A at 71 turns CAGGTCAGT into a second consensus donor.
			v := snv(t, strand, 71, "C", "A")
			site, ok := ClosestDonor(v, tx)
			require.True(t, ok)
			assert.Equal(t, int64(50), site.Anchor.Pos)

			// Baseline from the reference window when no score is stored.
			assert.InDelta(t, 0, cryptic.Score(site, v, seq), 1e-9)

			site.Score = consensus - 2
			assert.InDelta(t, 2, cryptic.Score(site, v, seq), 1e-9)

			// A change that creates nothing scores below the baseline.
			weak := snv(t, strand, 130, testBases()[130:131], "G")
			site.Score = consensus
			assert.Less(t, cryptic.Score(site, weak, seq), 0.0)
		})
	}
}

func TestSiteScorer_CrypticNearSequenceEdge(t *testing.T) {
	cryptic := NewSiteScorer(CrypticAcceptor, testParams, testCalculator(t))
	seq := testSequence(t, genome.Forward)
	site := Site{Anchor: genome.Position{Contig: testContig, Strand: genome.Forward, Pos: 100}, Score: 1}

	v := snv(t, genome.Forward, 3, "T", "G")
	assertNaN(t, cryptic.Score(site, v, seq))
}

func TestScorerKind_String(t *testing.T) {
	assert.Equal(t, "canonical_donor", CanonicalDonor.String())
	assert.Equal(t, "cryptic_acceptor", CrypticAcceptor.String())
}

type seqFetcher struct {
	seq *genome.SequenceInterval
}

func (f seqFetcher) Fetch(contig string, begin, end int64) (*genome.SequenceInterval, error) {
	if contig != f.seq.Interval.Contig.Name {
		return nil, errors.New("unknown contig")
	}
	iv, err := genome.NewInterval(f.seq.Interval.Contig, genome.Forward, begin, end)
	if err != nil {
		return nil, err
	}
	bases, ok := f.seq.Slice(begin, end)
	if !ok {
		return nil, errors.New("out of range")
	}
	return genome.NewSequenceInterval(iv, bases)
}

func TestIntronScorer(t *testing.T) {
	calc := testCalculator(t)

	for _, strand := range []genome.Strand{genome.Forward, genome.Reverse} {
		t.Run(strand.String(), func(t *testing.T) {
			scorer := NewIntronScorer(testParams, calc, seqFetcher{seq: testSequence(t, strand)})
			tx := testTranscript(t, strand).WithIntronScores(scorer)

			require.Len(t, tx.Introns, 1)
			assert.InDelta(t, 12.675912, tx.Introns[0].DonorScore, 1e-4)
			assert.InDelta(t, 8.851776, tx.Introns[0].AcceptorScore, 1e-4)
		})
	}

	scorer := NewIntronScorer(testParams, calc, seqFetcher{seq: testSequence(t, genome.Forward)})
	intron := genome.Interval{Contig: testContig, Strand: genome.Forward, Begin: 2, End: 199}
	donor, acceptor := scorer.ScoreIntron(intron)
	assertNaN(t, donor, "window before contig start")
	assertNaN(t, acceptor, "window past contig end")
}
