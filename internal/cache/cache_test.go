package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-splice/internal/genome"
)

func singleExon(t *testing.T, id string, strand genome.Strand, begin, end int64) *Transcript {
	t.Helper()
	tx, err := NewTranscript(id, "", []genome.Interval{iv(strand, begin, end)})
	require.NoError(t, err)
	return tx
}

func TestBuildIntervalTree_Empty(t *testing.T) {
	tree := BuildIntervalTree(nil)
	assert.Empty(t, tree.FindOverlaps(100, 101))
}

func TestIntervalTree_SingleTranscript(t *testing.T) {
	tx := singleExon(t, "ENST001", genome.Forward, 100, 200)
	tree := BuildIntervalTree([]*Transcript{tx})

	assert.Len(t, tree.FindOverlaps(150, 151), 1)
	assert.Equal(t, "ENST001", tree.FindOverlaps(150, 151)[0].ID)

	assert.Len(t, tree.FindOverlaps(100, 101), 1, "start boundary inclusive")
	assert.Len(t, tree.FindOverlaps(199, 200), 1, "last base inclusive")
	assert.Empty(t, tree.FindOverlaps(99, 100), "before start")
	assert.Empty(t, tree.FindOverlaps(200, 201), "after end")
	assert.Len(t, tree.FindOverlaps(50, 250), 1, "spanning query")
	assert.Empty(t, tree.FindOverlaps(150, 150), "empty query")
}

func TestIntervalTree_Overlapping(t *testing.T) {
	transcripts := []*Transcript{
		singleExon(t, "A", genome.Forward, 100, 300),
		singleExon(t, "B", genome.Forward, 150, 250),
		singleExon(t, "C", genome.Forward, 200, 400),
	}
	tree := BuildIntervalTree(transcripts)

	ids := func(ts []*Transcript) []string {
		var out []string
		for _, t := range ts {
			out = append(out, t.ID)
		}
		return out
	}

	assert.Equal(t, []string{"A", "B"}, ids(tree.FindOverlaps(175, 176)))
	assert.Equal(t, []string{"A", "B", "C"}, ids(tree.FindOverlaps(249, 250)))
	assert.Equal(t, []string{"C"}, ids(tree.FindOverlaps(350, 351)))
}

func TestIntervalTree_ReverseStrandUsesForwardSpan(t *testing.T) {
	// [800, 900) on the reverse strand of a 1000 bp contig is [100, 200) forward.
	tx := singleExon(t, "R", genome.Reverse, 800, 900)
	tree := BuildIntervalTree([]*Transcript{tx})

	assert.Len(t, tree.FindOverlaps(150, 151), 1)
	assert.Empty(t, tree.FindOverlaps(850, 851))
}

func TestCache_Overlapping(t *testing.T) {
	c := New()
	c.AddTranscript(singleExon(t, "A", genome.Forward, 100, 200))
	c.AddTranscript(singleExon(t, "B", genome.Forward, 500, 600))

	assert.Equal(t, 2, c.TranscriptCount())
	assert.Equal(t, []string{"1"}, c.Chromosomes())

	got := c.Overlapping("1", 150, 151)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].ID)

	assert.Empty(t, c.Overlapping("1", 300, 400))
	assert.Empty(t, c.Overlapping("2", 150, 151))

	assert.NotNil(t, c.GetTranscript("B"))
	assert.Nil(t, c.GetTranscript("Z"))
}
