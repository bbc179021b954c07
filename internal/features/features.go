// Package features turns a located variant into the named feature vector the
// classifier reads.
package features

import (
	"fmt"
	"math"
	"strings"

	"github.com/inodb/vibe-splice/internal/cache"
	"github.com/inodb/vibe-splice/internal/genome"
	"github.com/inodb/vibe-splice/internal/model"
	"github.com/inodb/vibe-splice/internal/splicing"
)

// Feature names.
const (
	CanonicalDonor    = "canonical_donor"
	CrypticDonor      = "cryptic_donor"
	CanonicalAcceptor = "canonical_acceptor"
	CrypticAcceptor   = "cryptic_acceptor"
	DonorOffset       = "donor_offset"
	AcceptorOffset    = "acceptor_offset"
	PhyloP            = "phylop"
	Hexamer           = "hexamer"
	Septamer          = "septamer"
	CreatesAGInAGEZ   = "creates_ag_in_agez"
)

// Names lists every feature the assembler can compute.
var Names = []string{
	CanonicalDonor, CrypticDonor, CanonicalAcceptor, CrypticAcceptor,
	DonorOffset, AcceptorOffset, PhyloP, Hexamer, Septamer, CreatesAGInAGEZ,
}

// AG exclusion zone relative to the acceptor anchor, [anchor-51, anchor-12).
const (
	agezBegin = 51
	agezEnd   = 12
)

// Conservation looks up the mean conservation of a forward-strand region.
type Conservation interface {
	Mean(chrom string, begin, end int64) float64
}

// KmerScorer scores the change in k-mer content caused by a variant.
type KmerScorer interface {
	Delta(v splicing.Variant, seq *genome.SequenceInterval) float64
}

// Dependencies are the resources features are computed from. Only the
// resources needed by the requested features must be set.
type Dependencies struct {
	Params       splicing.Parameters
	Calculator   *splicing.Calculator
	Conservation Conservation
	Hexamer      KmerScorer
	Septamer     KmerScorer
}

// Input is one variant placed on one transcript.
type Input struct {
	Variant    splicing.Variant
	Transcript *cache.Transcript
	Location   splicing.Location
	// Sequence is reference sequence around the variant on either strand.
	Sequence *genome.SequenceInterval
}

// Assembler computes a fixed list of features. It is read-only after
// construction and safe for concurrent use.
type Assembler struct {
	names   []string
	deps    Dependencies
	scorers map[string]*splicing.SiteScorer
}

// NewAssembler creates an assembler for the named features. It fails for an
// unknown name or when a feature's dependency is missing.
func NewAssembler(deps Dependencies, names []string) (*Assembler, error) {
	a := &Assembler{
		names:   append([]string(nil), names...),
		deps:    deps,
		scorers: make(map[string]*splicing.SiteScorer),
	}

	kinds := map[string]splicing.ScorerKind{
		CanonicalDonor:    splicing.CanonicalDonor,
		CanonicalAcceptor: splicing.CanonicalAcceptor,
		CrypticDonor:      splicing.CrypticDonor,
		CrypticAcceptor:   splicing.CrypticAcceptor,
	}

	for _, name := range names {
		var missing string
		switch name {
		case CanonicalDonor, CanonicalAcceptor, CrypticDonor, CrypticAcceptor:
			if deps.Calculator == nil {
				missing = "information content calculator"
				break
			}
			a.scorers[name] = splicing.NewSiteScorer(kinds[name], deps.Params, deps.Calculator)
		case PhyloP:
			if deps.Conservation == nil {
				missing = "conservation scores"
			}
		case Hexamer:
			if deps.Hexamer == nil {
				missing = "hexamer table"
			}
		case Septamer:
			if deps.Septamer == nil {
				missing = "septamer table"
			}
		case DonorOffset, AcceptorOffset, CreatesAGInAGEZ:
		default:
			return nil, fmt.Errorf("unknown feature %q (known: %s)", name, strings.Join(Names, ", "))
		}
		if missing != "" {
			return nil, fmt.Errorf("feature %s requires %s", name, missing)
		}
	}
	return a, nil
}

// Names returns the features the assembler computes.
func (a *Assembler) Names() []string {
	return a.names
}

// Assemble computes every configured feature. Values that cannot be computed
// are NaN. The returned map is new on every call.
func (a *Assembler) Assemble(in Input) model.Features {
	tx := in.Transcript
	v := in.Variant.WithStrand(tx.Strand())
	seq := in.Sequence.WithStrand(tx.Strand())

	donor, hasDonor := splicing.ClosestDonor(v, tx)
	acceptor, hasAcceptor := splicing.ClosestAcceptor(v, tx)

	out := make(model.Features, len(a.names))
	for _, name := range a.names {
		var value float64
		switch name {
		case CanonicalDonor:
			value = a.canonical(name, in.Location.DonorAnchor, v, seq)
		case CanonicalAcceptor:
			value = a.canonical(name, in.Location.AcceptorAnchor, v, seq)
		case CrypticDonor:
			value = a.cryptic(name, donor, hasDonor, v, seq)
		case CrypticAcceptor:
			value = a.cryptic(name, acceptor, hasAcceptor, v, seq)
		case DonorOffset:
			value = offset(donor, hasDonor, v)
		case AcceptorOffset:
			value = offset(acceptor, hasAcceptor, v)
		case PhyloP:
			fwd := v.Interval.WithStrand(genome.Forward)
			value = a.deps.Conservation.Mean(fwd.Contig.Name, fwd.Begin, fwd.End)
		case Hexamer:
			value = a.deps.Hexamer.Delta(v, seq)
		case Septamer:
			value = a.deps.Septamer.Delta(v, seq)
		case CreatesAGInAGEZ:
			value = createsAGInAGEZ(acceptor, hasAcceptor, v, seq)
		}
		out[name] = value
	}
	return out
}

// canonical scores the splice site the variant was located in. A variant
// outside every splice window leaves the site unchanged.
func (a *Assembler) canonical(name string, site *splicing.Site, v splicing.Variant, seq *genome.SequenceInterval) float64 {
	if site == nil {
		return 0
	}
	return a.scorers[name].Score(*site, v, seq)
}

func (a *Assembler) cryptic(name string, site splicing.Site, ok bool, v splicing.Variant, seq *genome.SequenceInterval) float64 {
	if !ok {
		return math.NaN()
	}
	return a.scorers[name].Score(site, v, seq)
}

func offset(site splicing.Site, ok bool, v splicing.Variant) float64 {
	if !ok {
		return math.NaN()
	}
	return float64(v.Interval.Begin - site.Anchor.Pos)
}

// createsAGInAGEZ is 1 when a variant inside the AG exclusion zone upstream of
// the closest acceptor adds an AG dinucleotide, else 0.
func createsAGInAGEZ(site splicing.Site, ok bool, v splicing.Variant, seq *genome.SequenceInterval) float64 {
	if !ok {
		return math.NaN()
	}
	a := site.Anchor
	zone := genome.Interval{Contig: a.Contig, Strand: a.Strand, Begin: a.Pos - agezBegin, End: a.Pos - agezEnd}
	if !zone.Overlaps(v.Interval) {
		return 0
	}

	vb, ve := v.Interval.Begin, v.Interval.End
	up, ok := seq.Slice(vb-1, vb)
	if !ok {
		return math.NaN()
	}
	ref, ok := seq.Slice(vb, ve)
	if !ok {
		return math.NaN()
	}
	down, ok := seq.Slice(ve, ve+1)
	if !ok {
		return math.NaN()
	}
	if strings.Count(up+v.Alt+down, "AG") > strings.Count(up+ref+down, "AG") {
		return 1
	}
	return 0
}
