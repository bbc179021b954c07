package duckdb

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/inodb/vibe-splice/internal/cache"
)

// TranscriptCache manages gob-serialized splicing transcripts on disk,
// including their intron scores:
//
//	{dir}/transcripts.gob       (serialized transcripts)
//	{dir}/transcripts.gob.meta  (source file fingerprints)
//
// The snapshot depends on the GTF, the reference FASTA (contig lengths and
// intron scores) and the model bundle (PWMs and window widths).
type TranscriptCache struct {
	dir string // cache directory (e.g. ~/.vibe-splice/cache)
}

// NewTranscriptCache creates a transcript cache for the given directory.
func NewTranscriptCache(dir string) *TranscriptCache {
	return &TranscriptCache{dir: dir}
}

func (tc *TranscriptCache) gobPath() string {
	return filepath.Join(tc.dir, "transcripts.gob")
}

func (tc *TranscriptCache) metaPath() string {
	return filepath.Join(tc.dir, "transcripts.gob.meta")
}

// Valid checks whether the cached transcripts match the current source files.
func (tc *TranscriptCache) Valid(gtf, fasta, bundle FileFingerprint) bool {
	meta, err := readMeta(tc.metaPath())
	if err != nil || !transcriptSources(gtf, fasta, bundle).matches(meta) {
		return false
	}

	// Verify gob file exists
	if _, err := os.Stat(tc.gobPath()); err != nil {
		return false
	}
	return true
}

func transcriptSources(gtf, fasta, bundle FileFingerprint) sources {
	return sources{"gtf": gtf, "fasta": fasta, "bundle": bundle}
}

// Load reads serialized transcripts from disk into the cache.
func (tc *TranscriptCache) Load(c *cache.Cache) error {
	f, err := os.Open(tc.gobPath())
	if err != nil {
		return fmt.Errorf("open transcript cache: %w", err)
	}
	defer f.Close()

	var data map[string][]*cache.Transcript
	if err := gob.NewDecoder(f).Decode(&data); err != nil {
		return fmt.Errorf("decode transcript cache: %w", err)
	}

	for _, transcripts := range data {
		for _, t := range transcripts {
			c.AddTranscript(t)
		}
	}
	return nil
}

// Write serializes all transcripts from the cache to disk.
func (tc *TranscriptCache) Write(c *cache.Cache, gtf, fasta, bundle FileFingerprint) error {
	// Serialize transcripts
	data := make(map[string][]*cache.Transcript)
	for _, chrom := range c.Chromosomes() {
		data[chrom] = c.FindTranscriptsByChrom(chrom)
	}

	if err := os.MkdirAll(tc.dir, 0755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	f, err := os.Create(tc.gobPath())
	if err != nil {
		return fmt.Errorf("create transcript cache: %w", err)
	}

	if err := gob.NewEncoder(f).Encode(data); err != nil {
		f.Close()
		os.Remove(tc.gobPath())
		return fmt.Errorf("encode transcript cache: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close transcript cache: %w", err)
	}

	return writeMeta(tc.metaPath(), transcriptSources(gtf, fasta, bundle))
}

// Clear removes the cached transcript files.
func (tc *TranscriptCache) Clear() {
	os.Remove(tc.gobPath())
	os.Remove(tc.metaPath())
}
