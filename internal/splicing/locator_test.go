package splicing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-splice/internal/genome"
)

func TestLocator_Locate(t *testing.T) {
	loc := NewLocator(testParams)

	tests := []struct {
		name      string
		begin     int64
		end       int64
		want      Position
		exonIdx   int
		intronIdx int
	}{
		{"before transcript", 10, 11, Outside, -1, -1},
		{"adjacent after transcript", 150, 151, Outside, -1, -1},
		{"insertion at transcript start", 20, 20, Outside, -1, -1},
		{"first exon body", 30, 31, Exon, 0, -1},
		{"donor exonic side", 48, 49, Donor, 0, 0},
		{"donor first intronic base", 50, 51, Donor, 0, 0},
		{"donor last intronic base", 55, 56, Donor, 0, 0},
		{"insertion at exon end", 50, 50, Donor, 0, 0},
		{"intron body", 60, 61, Intron, -1, 0},
		{"acceptor intronic side", 95, 96, Acceptor, 1, 0},
		{"acceptor exonic side", 101, 102, Acceptor, 1, 0},
		{"last exon body", 120, 121, Exon, 1, -1},
		{"deletion spanning donor into intron", 45, 70, Donor, 0, 0},
	}

	for _, strand := range []genome.Strand{genome.Forward, genome.Reverse} {
		tx := testTranscript(t, strand)
		for _, tt := range tests {
			t.Run(strand.String()+" "+tt.name, func(t *testing.T) {
				v := change(t, strand, tt.begin, tt.end, "", "")
				got := loc.Locate(v, tx)

				assert.Equal(t, tt.want, got.Position)
				assert.Equal(t, tt.exonIdx, got.ExonIdx)
				assert.Equal(t, tt.intronIdx, got.IntronIdx)
				assert.False(t, got.Ambiguous)
				assertSameLocation(t, got, loc.Locate(v, tx))

				switch tt.want {
				case Donor:
					require.NotNil(t, got.DonorAnchor)
					assert.Equal(t, int64(50), got.DonorAnchor.Anchor.Pos)
					assert.Equal(t, strand, got.DonorAnchor.Anchor.Strand)
					assert.Nil(t, got.AcceptorAnchor)
				case Acceptor:
					require.NotNil(t, got.AcceptorAnchor)
					assert.Equal(t, int64(100), got.AcceptorAnchor.Anchor.Pos)
					assert.Nil(t, got.DonorAnchor)
				default:
					assert.Nil(t, got.DonorAnchor)
					assert.Nil(t, got.AcceptorAnchor)
				}
			})
		}
	}
}

// assertSameLocation compares two locations field by field. Unscored sites
// carry a NaN score, which never compares equal under assert.Equal.
func assertSameLocation(t *testing.T, want, got Location) {
	t.Helper()
	assert.Equal(t, want.Position, got.Position)
	assert.Equal(t, want.ExonIdx, got.ExonIdx)
	assert.Equal(t, want.IntronIdx, got.IntronIdx)
	assert.Equal(t, want.Ambiguous, got.Ambiguous)
	for _, pair := range [][2]*Site{{want.DonorAnchor, got.DonorAnchor}, {want.AcceptorAnchor, got.AcceptorAnchor}} {
		w, g := pair[0], pair[1]
		if w == nil || g == nil {
			assert.Equal(t, w == nil, g == nil, "anchor presence")
			continue
		}
		assert.Equal(t, w.Anchor, g.Anchor)
		assert.Equal(t, w.Intron, g.Intron)
		if math.IsNaN(w.Score) {
			assert.True(t, math.IsNaN(g.Score), "unscored site")
		} else {
			assert.Equal(t, w.Score, g.Score)
		}
	}
}

func TestLocator_RepeatedCallsAgree(t *testing.T) {
	loc := NewLocator(testParams)
	tx := testTranscript(t, genome.Forward)
	v := change(t, genome.Forward, 50, 51, "", "")

	first := loc.Locate(v, tx)
	require.NotNil(t, first.DonorAnchor)
	assert.True(t, math.IsNaN(first.DonorAnchor.Score), "introns of the fixture are unscored")
	for range 5 {
		assertSameLocation(t, first, loc.Locate(v, tx))
	}

	scored := tx.WithIntronScores(fixedScorer{donor: 8.5, acceptor: 7.25})
	got := loc.Locate(v, scored)
	require.NotNil(t, got.DonorAnchor)
	assert.Equal(t, 8.5, got.DonorAnchor.Score)
	assert.Equal(t, got, loc.Locate(v, scored), "finite scores compare equal")
}

func TestLocator_SingleExonTranscript(t *testing.T) {
	loc := NewLocator(testParams)
	tx := testTranscript(t, genome.Forward, [2]int64{20, 150})

	for _, pos := range []int64{20, 50, 100, 149} {
		got := loc.Locate(snv(t, genome.Forward, pos, "A", "C"), tx)
		assert.Equal(t, Exon, got.Position)
		assert.Equal(t, 0, got.ExonIdx)
		assert.Nil(t, got.DonorAnchor)
		assert.Nil(t, got.AcceptorAnchor)
	}

	_, ok := ClosestDonor(snv(t, genome.Forward, 50, "A", "C"), tx)
	assert.False(t, ok)
}

func TestLocator_DonorWinsOverlappingWindows(t *testing.T) {
	loc := NewLocator(testParams)
	// Intron [50,56): donor window [47,56) and acceptor window [50,58) overlap.
	tx := testTranscript(t, genome.Forward, [2]int64{20, 50}, [2]int64{56, 80})

	got := loc.Locate(snv(t, genome.Forward, 53, "A", "C"), tx)
	assert.Equal(t, Donor, got.Position)
	assert.True(t, got.Ambiguous)

	got = loc.Locate(snv(t, genome.Forward, 48, "A", "C"), tx)
	assert.Equal(t, Donor, got.Position)
	assert.False(t, got.Ambiguous, "exonic side of the donor only")

	got = loc.Locate(snv(t, genome.Forward, 57, "A", "C"), tx)
	assert.Equal(t, Acceptor, got.Position)
	assert.False(t, got.Ambiguous)
}

func TestLocator_OtherContig(t *testing.T) {
	loc := NewLocator(testParams)
	tx := testTranscript(t, genome.Forward)
	v := snv(t, genome.Forward, 30, "A", "C")
	v.Interval.Contig = genome.Contig{Name: "2", Length: 200}
	assert.Equal(t, Outside, loc.Locate(v, tx).Position)
}

func TestClosestSites(t *testing.T) {
	tx := testTranscript(t, genome.Forward, [2]int64{10, 40}, [2]int64{80, 100}, [2]int64{160, 190})
	// Introns [40,80) and [100,160).

	donor, ok := ClosestDonor(snv(t, genome.Forward, 85, "A", "C"), tx)
	require.True(t, ok)
	assert.Equal(t, int64(100), donor.Anchor.Pos)
	assert.Equal(t, 1, donor.Intron)

	acceptor, ok := ClosestAcceptor(snv(t, genome.Forward, 85, "A", "C"), tx)
	require.True(t, ok)
	assert.Equal(t, int64(80), acceptor.Anchor.Pos)
	assert.Equal(t, 0, acceptor.Intron)
	assertNaN(t, acceptor.Score, "unscored intron")

	rev := testTranscript(t, genome.Reverse, [2]int64{10, 40}, [2]int64{80, 100}, [2]int64{160, 190})
	donor, ok = ClosestDonor(snv(t, genome.Reverse, 45, "A", "C"), rev)
	require.True(t, ok)
	assert.Equal(t, int64(40), donor.Anchor.Pos)
	assert.Equal(t, genome.Reverse, donor.Anchor.Strand)
}

func TestParsePosition(t *testing.T) {
	for _, p := range []Position{Outside, Donor, Acceptor, Exon, Intron} {
		got, err := ParsePosition(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParsePosition("UTR")
	assert.Error(t, err)
}
