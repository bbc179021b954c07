// Package cache provides transcript loading and lookup for splicing evaluation.
package cache

import (
	"fmt"
	"math"

	"github.com/inodb/vibe-splice/internal/genome"
)

// Transcript is a spliced transcript. All intervals are on the transcript's
// strand and ordered 5' to 3'. Exons and introns alternate, so there is always
// exactly one more exon than intron. A Transcript is never modified after
// construction.
type Transcript struct {
	ID       string          // Transcript accession (e.g., ENST00000311936)
	GeneName string          // Gene symbol
	Interval genome.Interval // Transcript span
	Exons    []Exon
	Introns  []Intron
}

// Exon is a single exon of a transcript.
type Exon struct {
	Interval genome.Interval
}

// Intron is a single intron with the strength of its splice sites.
// Scores are NaN when they have not been computed.
type Intron struct {
	Interval      genome.Interval
	DonorScore    float64
	AcceptorScore float64
}

// IntronScorer computes donor and acceptor strengths of an intron.
type IntronScorer interface {
	ScoreIntron(intron genome.Interval) (donor, acceptor float64)
}

// NewTranscript builds a transcript from its exons. Exons must be on one
// contig and strand, non-empty, sorted 5' to 3' and separated by at least one
// intronic base.
func NewTranscript(id, geneName string, exons []genome.Interval) (*Transcript, error) {
	if len(exons) == 0 {
		return nil, fmt.Errorf("transcript %s has no exons", id)
	}

	first := exons[0]
	t := &Transcript{
		ID:       id,
		GeneName: geneName,
		Exons:    make([]Exon, 0, len(exons)),
		Introns:  make([]Intron, 0, len(exons)-1),
	}

	for i, e := range exons {
		if e.Contig.Name != first.Contig.Name || e.Strand != first.Strand {
			return nil, fmt.Errorf("transcript %s: exon %d is on %s, expected %s", id, i+1, e, first)
		}
		if e.IsEmpty() {
			return nil, fmt.Errorf("transcript %s: exon %d is empty", id, i+1)
		}
		if i > 0 {
			prev := exons[i-1]
			if e.Begin <= prev.End {
				return nil, fmt.Errorf("transcript %s: exon %d at %s does not follow %s", id, i+1, e, prev)
			}
			t.Introns = append(t.Introns, Intron{
				Interval:      genome.Interval{Contig: e.Contig, Strand: e.Strand, Begin: prev.End, End: e.Begin},
				DonorScore:    math.NaN(),
				AcceptorScore: math.NaN(),
			})
		}
		t.Exons = append(t.Exons, Exon{Interval: e})
	}

	last := exons[len(exons)-1]
	t.Interval = genome.Interval{Contig: first.Contig, Strand: first.Strand, Begin: first.Begin, End: last.End}
	return t, nil
}

// WithIntronScores returns a copy of the transcript whose introns carry the
// splice site strengths computed by s.
func (t *Transcript) WithIntronScores(s IntronScorer) *Transcript {
	out := *t
	out.Introns = make([]Intron, len(t.Introns))
	for i, in := range t.Introns {
		donor, acceptor := s.ScoreIntron(in.Interval)
		out.Introns[i] = Intron{Interval: in.Interval, DonorScore: donor, AcceptorScore: acceptor}
	}
	return &out
}

// Strand returns the transcript strand.
func (t *Transcript) Strand() genome.Strand {
	return t.Interval.Strand
}

// Contig returns the transcript contig.
func (t *Transcript) Contig() genome.Contig {
	return t.Interval.Contig
}

// ExonCount returns the number of exons.
func (t *Transcript) ExonCount() int {
	return len(t.Exons)
}

// ForwardSpan returns the transcript span on the forward strand.
func (t *Transcript) ForwardSpan() genome.Interval {
	return t.Interval.WithStrand(genome.Forward)
}
