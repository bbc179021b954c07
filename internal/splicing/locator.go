package splicing

import (
	"fmt"
	"math"

	"github.com/inodb/vibe-splice/internal/cache"
	"github.com/inodb/vibe-splice/internal/genome"
)

// Position classifies where a variant falls within a transcript.
type Position int

// Positions, in the order they are tested.
const (
	Outside Position = iota
	Donor
	Acceptor
	Exon
	Intron
)

func (p Position) String() string {
	switch p {
	case Donor:
		return "DONOR"
	case Acceptor:
		return "ACCEPTOR"
	case Exon:
		return "EXON"
	case Intron:
		return "INTRON"
	}
	return "OUTSIDE"
}

// ParsePosition is the inverse of Position.String.
func ParsePosition(s string) (Position, error) {
	for p := Outside; p <= Intron; p++ {
		if p.String() == s {
			return p, nil
		}
	}
	return Outside, fmt.Errorf("unknown position %q", s)
}

// Site is a splice site of one intron. Anchor is the first intronic base for
// a donor and the first base of the downstream exon for an acceptor. Score is
// the reference strength stored on the intron, NaN when unknown.
type Site struct {
	Anchor genome.Position
	Intron int
	Score  float64
}

// Location is the result of placing a variant on a transcript. Absent indices
// are -1 and absent anchors are nil. Ambiguous is set when the variant also
// overlaps the acceptor window of the intron it was placed at as a donor.
type Location struct {
	Position       Position
	ExonIdx        int
	IntronIdx      int
	DonorAnchor    *Site
	AcceptorAnchor *Site
	Ambiguous      bool
}

// Locator classifies variants against transcripts.
type Locator struct {
	params Parameters
}

// NewLocator creates a locator for the given window widths.
func NewLocator(params Parameters) *Locator {
	return &Locator{params: params}
}

func outside() Location {
	return Location{Position: Outside, ExonIdx: -1, IntronIdx: -1}
}

// Locate classifies the variant against the transcript. Splice windows are
// tested before intron and exon bodies, and a donor window wins over an
// acceptor window of the same intron.
func (l *Locator) Locate(v Variant, tx *cache.Transcript) Location {
	if v.Interval.Contig.Name != tx.Contig().Name || !tx.Interval.Overlaps(v.Interval) {
		return outside()
	}
	vi := v.Interval.WithStrand(tx.Strand())

	if len(tx.Introns) == 0 {
		return Location{Position: Exon, ExonIdx: 0, IntronIdx: -1}
	}

	for i, intron := range tx.Introns {
		donor := donorSite(intron, i)
		acceptor := acceptorSite(intron, i)
		inAcceptor := l.params.AcceptorWindow(acceptor.Anchor).Overlaps(vi)
		if l.params.DonorWindow(donor.Anchor).Overlaps(vi) {
			return Location{Position: Donor, ExonIdx: i, IntronIdx: i, DonorAnchor: &donor, Ambiguous: inAcceptor}
		}
		if inAcceptor {
			return Location{Position: Acceptor, ExonIdx: i + 1, IntronIdx: i, AcceptorAnchor: &acceptor}
		}
		if intron.Interval.Overlaps(vi) {
			return Location{Position: Intron, ExonIdx: -1, IntronIdx: i}
		}
		if tx.Exons[i].Interval.Overlaps(vi) {
			return Location{Position: Exon, ExonIdx: i, IntronIdx: -1}
		}
	}
	return Location{Position: Exon, ExonIdx: len(tx.Exons) - 1, IntronIdx: -1}
}

func donorSite(intron cache.Intron, idx int) Site {
	iv := intron.Interval
	return Site{
		Anchor: genome.Position{Contig: iv.Contig, Strand: iv.Strand, Pos: iv.Begin},
		Intron: idx,
		Score:  intron.DonorScore,
	}
}

func acceptorSite(intron cache.Intron, idx int) Site {
	iv := intron.Interval
	return Site{
		Anchor: genome.Position{Contig: iv.Contig, Strand: iv.Strand, Pos: iv.End},
		Intron: idx,
		Score:  intron.AcceptorScore,
	}
}

// ClosestDonor returns the donor site nearest to the variant start on the
// transcript strand. ok is false for a transcript without introns.
func ClosestDonor(v Variant, tx *cache.Transcript) (Site, bool) {
	return closest(v, tx, donorSite)
}

// ClosestAcceptor returns the acceptor site nearest to the variant start on
// the transcript strand. ok is false for a transcript without introns.
func ClosestAcceptor(v Variant, tx *cache.Transcript) (Site, bool) {
	return closest(v, tx, acceptorSite)
}

func closest(v Variant, tx *cache.Transcript, site func(cache.Intron, int) Site) (Site, bool) {
	if len(tx.Introns) == 0 {
		return Site{}, false
	}
	pos := v.Interval.WithStrand(tx.Strand()).Begin

	var best Site
	bestDist := int64(math.MaxInt64)
	for i, intron := range tx.Introns {
		s := site(intron, i)
		d := s.Anchor.Pos - pos
		if d < 0 {
			d = -d
		}
		if d < bestDist {
			best, bestDist = s, d
		}
	}
	return best, true
}
