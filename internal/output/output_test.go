package output

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-splice/internal/cache"
	"github.com/inodb/vibe-splice/internal/evaluate"
	"github.com/inodb/vibe-splice/internal/features"
	"github.com/inodb/vibe-splice/internal/genome"
	"github.com/inodb/vibe-splice/internal/model"
	"github.com/inodb/vibe-splice/internal/splicing"
)

var testFeatureNames = []string{features.CanonicalDonor, features.DonorOffset, features.PhyloP}

func testTranscript(t *testing.T, id string) *cache.Transcript {
	t.Helper()
	contig := genome.Contig{Name: "1", Length: 1000}
	var exons []genome.Interval
	for _, e := range [][2]int64{{100, 200}, {300, 400}} {
		iv, err := genome.NewInterval(contig, genome.Forward, e[0], e[1])
		require.NoError(t, err)
		exons = append(exons, iv)
	}
	tx, err := cache.NewTranscript(id, "GENE", exons)
	require.NoError(t, err)
	return tx
}

// donorResult is a positive prediction at the donor of intron 1.
func donorResult(t *testing.T, id string) *evaluate.Result {
	t.Helper()
	return &evaluate.Result{
		Transcript: testTranscript(t, id),
		Location:   splicing.Location{Position: splicing.Donor, ExonIdx: 0, IntronIdx: 0},
		Features: model.Features{
			features.CanonicalDonor: 6.599913,
			features.DonorOffset:    0,
			features.PhyloP:         math.NaN(),
		},
		Prediction: &model.Prediction{Partials: []model.PartialPrediction{
			{Name: model.DonorPipeline, Pathogenicity: 0.8123, Threshold: 0.5},
			{Name: model.AcceptorPipeline, Pathogenicity: 0.1, Threshold: 0.4},
		}},
	}
}

// exonResult has no prediction.
func exonResult(t *testing.T, id string) *evaluate.Result {
	t.Helper()
	return &evaluate.Result{
		Transcript: testTranscript(t, id),
		Location:   splicing.Location{Position: splicing.Exon, ExonIdx: 1, IntronIdx: -1},
		Features:   model.Features{},
		Err:        &model.PredictionError{Msg: "no pipeline could score the instance"},
	}
}
