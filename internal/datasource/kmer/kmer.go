// Package kmer provides k-mer score tables such as the ESRseq hexamer and SMS
// septamer scores of exonic splicing regulatory motifs.
package kmer

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/inodb/vibe-splice/internal/genome"
	"github.com/inodb/vibe-splice/internal/splicing"
)

// Table maps each k-mer of one length to a score.
type Table struct {
	K      int
	scores map[string]float64
}

// NewTable builds a table from k-mer scores. All k-mers must have the same
// length and consist of ACGT.
func NewTable(scores map[string]float64) (*Table, error) {
	t := &Table{scores: make(map[string]float64, len(scores))}
	for kmer, score := range scores {
		if err := t.add(kmer, score); err != nil {
			return nil, err
		}
	}
	if t.K == 0 {
		return nil, fmt.Errorf("k-mer table is empty")
	}
	return t, nil
}

func (t *Table) add(kmer string, score float64) error {
	kmer = strings.ToUpper(kmer)
	if t.K == 0 {
		t.K = len(kmer)
	}
	if len(kmer) != t.K || kmer == "" {
		return fmt.Errorf("k-mer %q has length %d, expected %d", kmer, len(kmer), t.K)
	}
	if strings.Trim(kmer, "ACGT") != "" {
		return fmt.Errorf("k-mer %q has a base other than ACGT", kmer)
	}
	t.scores[kmer] = score
	return nil
}

// Load loads a two-column TSV file of k-mer and score. Lines starting with
// '#' are comments; a first line whose score column is not a number is
// treated as a header.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open k-mer table: %w", err)
	}
	defer f.Close()

	t := &Table{scores: make(map[string]float64)}
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, fmt.Errorf("k-mer table line %d: expected 2 columns, got %d", lineNo, len(fields))
		}
		score, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			if len(t.scores) == 0 {
				continue // header
			}
			return nil, fmt.Errorf("k-mer table line %d: %w", lineNo, err)
		}
		if err := t.add(strings.TrimSpace(fields[0]), score); err != nil {
			return nil, fmt.Errorf("k-mer table line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading k-mer table: %w", err)
	}
	if t.K == 0 {
		return nil, fmt.Errorf("k-mer table %s: no entries", path)
	}

	return t, nil
}

// Len returns the number of k-mers in the table.
func (t *Table) Len() int {
	return len(t.scores)
}

// ScoreOf returns the score of one k-mer, NaN if it is not in the table.
func (t *Table) ScoreOf(kmer string) float64 {
	s, ok := t.scores[strings.ToUpper(kmer)]
	if !ok {
		return math.NaN()
	}
	return s
}

// Score sums the scores of every k-mer in seq. It is NaN when seq is shorter
// than K or contains a k-mer missing from the table.
func (t *Table) Score(seq string) float64 {
	if len(seq) < t.K {
		return math.NaN()
	}
	seq = strings.ToUpper(seq)
	var sum float64
	for i := 0; i+t.K <= len(seq); i++ {
		s, ok := t.scores[seq[i:i+t.K]]
		if !ok {
			return math.NaN()
		}
		sum += s
	}
	return sum
}

// Delta returns the score of the alternate context minus the score of the
// reference context, where a context is the changed bases with K-1 bases of
// flank on each side. Contexts are read on the sequence's strand. It is NaN
// when the flanks are not covered by seq.
func (t *Table) Delta(v splicing.Variant, seq *genome.SequenceInterval) float64 {
	v = v.WithStrand(seq.Interval.Strand)
	flank := int64(t.K - 1)
	vb, ve := v.Interval.Begin, v.Interval.End

	up, ok := seq.Slice(vb-flank, vb)
	if !ok {
		return math.NaN()
	}
	ref, ok := seq.Slice(vb, ve)
	if !ok {
		return math.NaN()
	}
	down, ok := seq.Slice(ve, ve+flank)
	if !ok {
		return math.NaN()
	}
	return t.Score(up+v.Alt+down) - t.Score(up+ref+down)
}
