package splicing

import (
	"github.com/inodb/vibe-splice/internal/genome"
)

// AlleleGenerator builds fixed-length reference and alternate sequences for
// donor and acceptor windows. All results are on the anchor's strand; false
// means no sequence can be produced.
type AlleleGenerator struct {
	params Parameters
}

// NewAlleleGenerator creates a generator for the given window widths.
func NewAlleleGenerator(params Parameters) *AlleleGenerator {
	return &AlleleGenerator{params: params}
}

// DonorSnippet returns the reference bases of the donor window at anchor.
func (g *AlleleGenerator) DonorSnippet(anchor genome.Position, seq *genome.SequenceInterval) (string, bool) {
	return seq.SubSequence(g.params.DonorWindow(anchor))
}

// AcceptorSnippet returns the reference bases of the acceptor window at anchor.
func (g *AlleleGenerator) AcceptorSnippet(anchor genome.Position, seq *genome.SequenceInterval) (string, bool) {
	return seq.SubSequence(g.params.AcceptorWindow(anchor))
}

// DonorSnippetWithAlt returns the donor window at anchor with the variant
// applied. A change inside the window keeps the window's 5' end fixed.
func (g *AlleleGenerator) DonorSnippetWithAlt(anchor genome.Position, v Variant, seq *genome.SequenceInterval) (string, bool) {
	return withAlt(g.params.DonorWindow(anchor), v, seq, true)
}

// AcceptorSnippetWithAlt returns the acceptor window at anchor with the
// variant applied. A change inside the window keeps the window's 3' end fixed.
func (g *AlleleGenerator) AcceptorSnippetWithAlt(anchor genome.Position, v Variant, seq *genome.SequenceInterval) (string, bool) {
	return withAlt(g.params.AcceptorWindow(anchor), v, seq, false)
}

// withAlt splices the alt allele into window. Bases needed to restore the
// window length after a net deletion come from the reference on the side of
// the variant away from the fixed end.
func withAlt(window genome.Interval, v Variant, seq *genome.SequenceInterval, keep5 bool) (string, bool) {
	if !window.Overlaps(v.Interval) {
		return seq.SubSequence(window)
	}
	v = v.WithStrand(window.Strand)

	wb, we := window.Begin, window.End
	vb, ve := v.Interval.Begin, v.Interval.End
	length := int(window.Length())

	get := func(begin, end int64) (string, bool) {
		if begin < 0 || begin > end {
			return "", false
		}
		return seq.SubSequence(genome.Interval{Contig: window.Contig, Strand: window.Strand, Begin: begin, End: end})
	}

	switch {
	case vb <= wb && ve >= we:
		// The whole window is replaced.
		return "", false

	case vb < wb:
		// Crosses the window begin: keep the 3' end, take the tail of alt and
		// backfill from upstream of the variant.
		suffix, ok := get(ve, we)
		if !ok {
			return "", false
		}
		need := length - len(suffix)
		alt := v.Alt
		if len(alt) > need {
			alt = alt[len(alt)-need:]
		}
		fill, ok := get(vb-int64(need-len(alt)), vb)
		if !ok {
			return "", false
		}
		return fill + alt + suffix, true

	case ve > we:
		// Crosses the window end: keep the 5' end, take the head of alt and
		// backfill from downstream of the variant.
		prefix, ok := get(wb, vb)
		if !ok {
			return "", false
		}
		need := length - len(prefix)
		alt := v.Alt
		if len(alt) > need {
			alt = alt[:need]
		}
		fill, ok := get(ve, ve+int64(need-len(alt)))
		if !ok {
			return "", false
		}
		return prefix + alt + fill, true
	}

	prefix, ok := get(wb, vb)
	if !ok {
		return "", false
	}
	suffix, ok := get(ve, we)
	if !ok {
		return "", false
	}
	full := prefix + v.Alt + suffix

	switch {
	case len(full) == length:
		return full, true
	case len(full) > length && keep5:
		return full[:length], true
	case len(full) > length:
		return full[len(full)-length:], true
	case keep5:
		fill, ok := get(we, we+int64(length-len(full)))
		if !ok {
			return "", false
		}
		return full + fill, true
	default:
		fill, ok := get(wb-int64(length-len(full)), wb)
		if !ok {
			return "", false
		}
		return fill + full, true
	}
}
