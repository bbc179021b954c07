package splicing

import (
	"fmt"
	"math"

	"github.com/inodb/vibe-splice/internal/genome"
)

// ScorerKind selects one of the splice site scores.
type ScorerKind int

// Scorer kinds.
const (
	CanonicalDonor ScorerKind = iota
	CanonicalAcceptor
	CrypticDonor
	CrypticAcceptor
)

func (k ScorerKind) String() string {
	switch k {
	case CanonicalDonor:
		return "canonical_donor"
	case CanonicalAcceptor:
		return "canonical_acceptor"
	case CrypticDonor:
		return "cryptic_donor"
	case CrypticAcceptor:
		return "cryptic_acceptor"
	}
	return fmt.Sprintf("ScorerKind(%d)", int(k))
}

// isDonor reports whether the kind scores donor windows.
func (k ScorerKind) isDonor() bool {
	return k == CanonicalDonor || k == CrypticDonor
}

// SiteScorer computes one splice site score for a variant.
type SiteScorer struct {
	kind   ScorerKind
	params Parameters
	gen    *AlleleGenerator
	calc   *Calculator
}

// NewSiteScorer creates a scorer of the given kind.
func NewSiteScorer(kind ScorerKind, params Parameters, calc *Calculator) *SiteScorer {
	return &SiteScorer{kind: kind, params: params, gen: NewAlleleGenerator(params), calc: calc}
}

// Kind returns the scorer kind.
func (s *SiteScorer) Kind() ScorerKind {
	return s.kind
}

// Score returns the score of the variant against the site. NaN means the
// score could not be computed.
//
// Canonical scores are the reference window score minus the alternate window
// score, so a damaging change is positive. Cryptic scores are the best
// alternate window score in the region around the variant minus the site's
// reference strength, so a competitive new site is positive.
func (s *SiteScorer) Score(site Site, v Variant, seq *genome.SequenceInterval) float64 {
	switch s.kind {
	case CanonicalDonor, CanonicalAcceptor:
		return s.canonical(site, v, seq)
	case CrypticDonor, CrypticAcceptor:
		return s.cryptic(site, v, seq)
	}
	return math.NaN()
}

func (s *SiteScorer) canonical(site Site, v Variant, seq *genome.SequenceInterval) float64 {
	var (
		ref, alt     string
		refOK, altOK bool
	)
	if s.kind.isDonor() {
		ref, refOK = s.gen.DonorSnippet(site.Anchor, seq)
		alt, altOK = s.gen.DonorSnippetWithAlt(site.Anchor, v, seq)
	} else {
		ref, refOK = s.gen.AcceptorSnippet(site.Anchor, seq)
		alt, altOK = s.gen.AcceptorSnippetWithAlt(site.Anchor, v, seq)
	}
	if !refOK || !altOK {
		return math.NaN()
	}
	return s.siteScore(ref) - s.siteScore(alt)
}

func (s *SiteScorer) cryptic(site Site, v Variant, seq *genome.SequenceInterval) float64 {
	v = v.WithStrand(site.Anchor.Strand)
	length := s.params.AcceptorLength()
	if s.kind.isDonor() {
		length = s.params.DonorLength()
	}

	flank := int64(length - 1)
	iv := v.Interval
	if iv.Begin < flank {
		return math.NaN()
	}
	up, ok := seq.SubSequence(genome.Interval{Contig: iv.Contig, Strand: iv.Strand, Begin: iv.Begin - flank, End: iv.Begin})
	if !ok {
		return math.NaN()
	}
	down, ok := seq.SubSequence(genome.Interval{Contig: iv.Contig, Strand: iv.Strand, Begin: iv.End, End: iv.End + flank})
	if !ok {
		return math.NaN()
	}

	region := up + v.Alt + down
	best := math.NaN()
	for i := 0; i+length <= len(region); i++ {
		sc := s.siteScore(region[i : i+length])
		if math.IsNaN(sc) {
			continue
		}
		if math.IsNaN(best) || sc > best {
			best = sc
		}
	}

	return best - s.baseline(site, seq)
}

// baseline is the site's stored strength, or the score of its reference
// window when none was stored.
func (s *SiteScorer) baseline(site Site, seq *genome.SequenceInterval) float64 {
	if !math.IsNaN(site.Score) {
		return site.Score
	}
	var ref string
	var ok bool
	if s.kind.isDonor() {
		ref, ok = s.gen.DonorSnippet(site.Anchor, seq)
	} else {
		ref, ok = s.gen.AcceptorSnippet(site.Anchor, seq)
	}
	if !ok {
		return math.NaN()
	}
	return s.siteScore(ref)
}

func (s *SiteScorer) siteScore(seq string) float64 {
	if s.kind.isDonor() {
		return s.calc.DonorScore(seq)
	}
	return s.calc.AcceptorScore(seq)
}

// Fetcher returns forward-strand reference sequence.
type Fetcher interface {
	Fetch(contig string, begin, end int64) (*genome.SequenceInterval, error)
}

// IntronScorer computes the reference strength of an intron's donor and
// acceptor sites from the reference genome. It is used while loading
// transcripts so that cryptic scores have a baseline without fetching
// distant sequence per variant.
type IntronScorer struct {
	params  Parameters
	calc    *Calculator
	fetcher Fetcher
}

// NewIntronScorer creates an intron scorer.
func NewIntronScorer(params Parameters, calc *Calculator, fetcher Fetcher) *IntronScorer {
	return &IntronScorer{params: params, calc: calc, fetcher: fetcher}
}

// ScoreIntron returns the donor and acceptor information content of the
// intron's splice sites. A site whose window cannot be fetched scores NaN.
func (s *IntronScorer) ScoreIntron(intron genome.Interval) (donor, acceptor float64) {
	d := genome.Position{Contig: intron.Contig, Strand: intron.Strand, Pos: intron.Begin}
	a := genome.Position{Contig: intron.Contig, Strand: intron.Strand, Pos: intron.End}

	donor = s.scoreWindow(s.params.DonorWindow(d), s.calc.DonorScore)
	acceptor = s.scoreWindow(s.params.AcceptorWindow(a), s.calc.AcceptorScore)
	return donor, acceptor
}

func (s *IntronScorer) scoreWindow(window genome.Interval, score func(string) float64) float64 {
	fwd := window.WithStrand(genome.Forward)
	if fwd.Begin < 0 || fwd.End > window.Contig.Length {
		return math.NaN()
	}
	seq, err := s.fetcher.Fetch(window.Contig.Name, fwd.Begin, fwd.End)
	if err != nil {
		return math.NaN()
	}
	bases, ok := seq.SubSequence(window)
	if !ok {
		return math.NaN()
	}
	return score(bases)
}
