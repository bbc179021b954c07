package evaluate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-splice/internal/features"
	"github.com/inodb/vibe-splice/internal/model"
	"github.com/inodb/vibe-splice/internal/splicing"
	"github.com/inodb/vibe-splice/internal/vcf"
)

func TestEvaluate_CanonicalDonor(t *testing.T) {
	e, g := newTestEvaluator(t, &fakeClassifier{})

	// G>A at the first intronic base of the donor.
	results, err := e.Evaluate("chr1", 51, "G", "A")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Len(t, g.fetches, 1, "reference is fetched once per variant")
	assert.Equal(t, [2]int64{0, 151}, g.fetches[0])

	r := results["TX"]
	require.NotNil(t, r)
	assert.Equal(t, "TX", r.Transcript.ID)
	assert.Equal(t, splicing.Donor, r.Location.Position)
	assert.Equal(t, 0, r.Location.IntronIdx)

	assert.InDelta(t, 6.599913, r.Features[features.CanonicalDonor], 1e-5)
	assert.Equal(t, 0.0, r.Features[features.CanonicalAcceptor], "no acceptor anchor")
	assert.Equal(t, 0.0, r.Features[features.DonorOffset])
	assert.Equal(t, -50.0, r.Features[features.AcceptorOffset])

	require.NotNil(t, r.Prediction)
	assert.NoError(t, r.Err)
	assert.InDelta(t, 0.6599913, r.Prediction.MaxPathogenicity(), 1e-6)
	assert.True(t, r.Prediction.IsPositive())

	assert.Equal(t, splicing.Donor, results["TX2"].Location.Position)
}

func TestEvaluate_PaddingClippedAtContigEnd(t *testing.T) {
	e, g := newTestEvaluator(t, &fakeClassifier{})

	results, err := e.Evaluate("1", 150, "A", "G")
	require.NoError(t, err)
	require.Len(t, g.fetches, 1)
	assert.Equal(t, [2]int64{49, 200}, g.fetches[0])

	assert.Equal(t, splicing.Exon, results["TX"].Location.Position)
	assert.Equal(t, 1, results["TX"].Location.ExonIdx)
}

func TestEvaluate_Intergenic(t *testing.T) {
	e, g := newTestEvaluator(t, &fakeClassifier{})

	results, err := e.Evaluate("1", 5, "C", "G")
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, g.fetches, "no fetch without transcripts")
}

func TestEvaluate_Insertion(t *testing.T) {
	e, _ := newTestEvaluator(t, &fakeClassifier{})

	results, err := e.Evaluate("1", 76, "T", "TG")
	require.NoError(t, err)
	require.Contains(t, results, "TX")
	assert.Equal(t, splicing.Intron, results["TX"].Location.Position)
}

func TestEvaluate_PredictionErrorKeepsTranscript(t *testing.T) {
	e, _ := newTestEvaluator(t, &fakeClassifier{fail: true})

	results, err := e.Evaluate("1", 51, "G", "A")
	require.NoError(t, err, "an unscorable transcript does not fail the variant")
	require.Len(t, results, 2)

	r := results["TX"]
	assert.Nil(t, r.Prediction)
	var pe *model.PredictionError
	assert.ErrorAs(t, r.Err, &pe)
	assert.NotEmpty(t, r.Features, "features are still reported")
}

func TestEvaluate_Errors(t *testing.T) {
	e, _ := newTestEvaluator(t, &fakeClassifier{})

	_, err := e.Evaluate("7", 51, "G", "A")
	assert.Error(t, err, "unknown contig")

	_, err = e.Evaluate("1", 51, "G", "Z")
	assert.Error(t, err, "invalid allele")

	_, err = e.Evaluate("1", 51, "C", "A")
	assert.ErrorIs(t, err, ErrReferenceMismatch)

	_, err = e.Evaluate("1", 250, "A", "G")
	assert.Error(t, err, "past the contig end")

	_, err = e.EvaluateVariant(&vcf.Variant{Chrom: "1", Pos: 51, Ref: "G", Alt: "<DEL>"})
	assert.Error(t, err, "symbolic allele")
}

func TestEvaluator_SetPadding(t *testing.T) {
	e, g := newTestEvaluator(t, &fakeClassifier{})

	assert.Error(t, e.SetPadding(8), "shorter than the donor window")
	require.NoError(t, e.SetPadding(20))

	_, err := e.Evaluate("1", 51, "G", "A")
	require.NoError(t, err)
	assert.Equal(t, [2]int64{30, 71}, g.fetches[0])
}

func TestSorted(t *testing.T) {
	e, _ := newTestEvaluator(t, &fakeClassifier{})
	results, err := e.Evaluate("1", 51, "G", "A")
	require.NoError(t, err)

	sorted := Sorted(results)
	require.Len(t, sorted, 2)
	assert.Equal(t, "TX", sorted[0].Transcript.ID)
	assert.Equal(t, "TX2", sorted[1].Transcript.ID)
}
