package cache

import (
	"sort"
	"sync"

	"github.com/inodb/vibe-splice/internal/genome"
)

// Cache holds splicing transcripts for the life of the process. Transcripts
// are added during loading; the per-contig interval trees are built on the
// first query, after which the cache is safe for concurrent reads.
type Cache struct {
	// transcripts stores transcripts indexed by chromosome
	transcripts map[string][]*Transcript

	once  sync.Once
	trees map[string]*IntervalTree
}

// New creates a new empty cache.
func New() *Cache {
	return &Cache{
		transcripts: make(map[string][]*Transcript),
	}
}

// AddTranscript adds a transcript to the cache. It must not be called after
// the first query.
func (c *Cache) AddTranscript(t *Transcript) {
	chrom := t.Contig().Name
	c.transcripts[chrom] = append(c.transcripts[chrom], t)
}

func (c *Cache) index() {
	c.once.Do(func() {
		c.trees = make(map[string]*IntervalTree, len(c.transcripts))
		for chrom, transcripts := range c.transcripts {
			c.trees[chrom] = BuildIntervalTree(transcripts)
		}
	})
}

// Overlapping returns all transcripts whose span overlaps the forward-strand
// region [begin, end) on the contig.
func (c *Cache) Overlapping(contig string, begin, end int64) []*Transcript {
	c.index()
	tree, ok := c.trees[genome.NormalizeChrom(contig)]
	if !ok {
		return nil
	}
	return tree.FindOverlaps(begin, end)
}

// GetTranscript returns a specific transcript by ID, or nil if not found.
func (c *Cache) GetTranscript(id string) *Transcript {
	for _, transcripts := range c.transcripts {
		for _, t := range transcripts {
			if t.ID == id {
				return t
			}
		}
	}
	return nil
}

// TranscriptCount returns the total number of transcripts in the cache.
func (c *Cache) TranscriptCount() int {
	count := 0
	for _, transcripts := range c.transcripts {
		count += len(transcripts)
	}
	return count
}

// Chromosomes returns a sorted list of chromosomes in the cache.
func (c *Cache) Chromosomes() []string {
	chroms := make([]string, 0, len(c.transcripts))
	for chrom := range c.transcripts {
		chroms = append(chroms, chrom)
	}
	sort.Strings(chroms)
	return chroms
}

// FindTranscriptsByChrom returns all transcripts for a chromosome.
func (c *Cache) FindTranscriptsByChrom(chrom string) []*Transcript {
	return c.transcripts[genome.NormalizeChrom(chrom)]
}
