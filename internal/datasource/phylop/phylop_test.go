package phylop

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// Small test fixture in bedGraph format.
const testBedGraph = `track type=bedGraph name=phyloP100way
chr1	100	103	1.5
chr1	103	104	-0.5
chr1	110	120	4.25
chr2	0	5	2.0
`

func writeBedGraph(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.bedGraph")
	require.NoError(t, os.WriteFile(path, []byte(testBedGraph), 0644))
	return path
}

func openLoaded(t *testing.T) *Store {
	t.Helper()
	store, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	assert.False(t, store.Loaded(), "should be empty before load")
	require.NoError(t, store.Load(writeBedGraph(t)))
	assert.True(t, store.Loaded(), "should have data after load")
	return store
}

func TestLoadAndScoreAt(t *testing.T) {
	store := openLoaded(t)

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(4), n, "track line skipped")

	for _, preload := range []bool{false, true} {
		if preload {
			require.NoError(t, store.PreloadToMemory())
			assert.Equal(t, int64(4), store.MemCacheSize())
		}

		got := store.ScoreAt("1", 101, 106)
		require.Len(t, got, 5)
		assert.InDelta(t, 1.5, got[0], 1e-6)
		assert.InDelta(t, 1.5, got[1], 1e-6)
		assert.InDelta(t, -0.5, got[2], 1e-6)
		assert.True(t, math.IsNaN(got[3]), "gap between spans")
		assert.True(t, math.IsNaN(got[4]))

		got = store.ScoreAt("chr1", 115, 116)
		require.Len(t, got, 1)
		assert.InDelta(t, 4.25, got[0], 1e-6, "chr prefix ignored")

		assert.Empty(t, store.ScoreAt("1", 5, 5))
		assert.True(t, math.IsNaN(store.ScoreAt("3", 0, 1)[0]), "unknown contig")
	}
}

func TestScoreAt_FailedLookupLogged(t *testing.T) {
	store := openLoaded(t)
	core, logs := observer.New(zap.WarnLevel)
	store.SetLogger(zap.New(core))

	require.NoError(t, store.db.Close())

	got := store.ScoreAt("chr1", 100, 103)
	require.Len(t, got, 3)
	for _, v := range got {
		assert.True(t, math.IsNaN(v))
	}

	entries := logs.FilterMessage("phyloP lookup failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "1", fields["chrom"])
	assert.Equal(t, int64(100), fields["begin"])
	assert.Contains(t, fields["error"], "query phyloP")
}

func TestMean(t *testing.T) {
	store := openLoaded(t)

	assert.InDelta(t, (1.5+1.5-0.5)/3, store.Mean("1", 101, 104), 1e-6)
	assert.InDelta(t, (1.5-0.5)/2, store.Mean("1", 102, 106), 1e-6, "unscored bases ignored")
	assert.InDelta(t, 1.5, store.Mean("1", 101, 101), 1e-6, "insertion uses flanking bases")
	assert.True(t, math.IsNaN(store.Mean("1", 105, 108)))
}

func TestInsert(t *testing.T) {
	store, err := Open("")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Insert("chrX", 10, 12, 3.0))
	assert.True(t, store.Loaded())
	assert.InDelta(t, 3.0, store.Mean("X", 10, 12), 1e-6)
}

func TestLoadReplacesData(t *testing.T) {
	store := openLoaded(t)
	require.NoError(t, store.Load(writeBedGraph(t)))

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestOpenOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "phylop.duckdb")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Insert("1", 0, 1, 1))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()
	assert.True(t, store.Loaded())
}
