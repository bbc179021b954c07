package splicing

import (
	"fmt"
	"strings"

	"github.com/inodb/vibe-splice/internal/genome"
)

// Variant is a minimal sequence change: the bases of Interval are replaced by
// Alt. Ref and Alt are given on the interval's strand. An insertion has an
// empty interval placed between two reference bases.
type Variant struct {
	Interval genome.Interval
	Ref      string
	Alt      string
}

// NewVariant builds a forward-strand variant from a 1-based VCF position and
// alleles. The shared prefix and then the shared suffix of the alleles are
// removed so that the interval covers only the changed bases.
func NewVariant(contig genome.Contig, pos int64, ref, alt string) (Variant, error) {
	ref, alt = strings.ToUpper(ref), strings.ToUpper(alt)
	if !isNucleotides(ref) || !isNucleotides(alt) {
		return Variant{}, fmt.Errorf("unsupported alleles %s>%s", ref, alt)
	}

	begin := pos - 1
	prefix := commonPrefix(ref, alt)
	ref, alt = ref[prefix:], alt[prefix:]
	begin += int64(prefix)

	suffix := commonSuffix(ref, alt)
	ref, alt = ref[:len(ref)-suffix], alt[:len(alt)-suffix]

	interval, err := genome.NewInterval(contig, genome.Forward, begin, begin+int64(len(ref)))
	if err != nil {
		return Variant{}, fmt.Errorf("variant %s:%d %s>%s: %w", contig.Name, pos, ref, alt, err)
	}
	return Variant{Interval: interval, Ref: ref, Alt: alt}, nil
}

// WithStrand returns the same variant expressed on strand s.
func (v Variant) WithStrand(s genome.Strand) Variant {
	if s == v.Interval.Strand {
		return v
	}
	return Variant{
		Interval: v.Interval.WithStrand(s),
		Ref:      genome.ReverseComplement(v.Ref),
		Alt:      genome.ReverseComplement(v.Alt),
	}
}

// IsInsertion reports whether the variant adds bases without removing any.
func (v Variant) IsInsertion() bool {
	return v.Interval.IsEmpty() && v.Alt != ""
}

// IsDeletion reports whether the variant removes bases without adding any.
func (v Variant) IsDeletion() bool {
	return !v.Interval.IsEmpty() && v.Alt == ""
}

func (v Variant) String() string {
	return fmt.Sprintf("%s %s>%s", v.Interval, v.Ref, v.Alt)
}

func isNucleotides(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'A', 'C', 'G', 'T', 'N':
		default:
			return false
		}
	}
	return true
}

func commonPrefix(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

func commonSuffix(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[len(a)-1-n] == b[len(b)-1-n] {
		n++
	}
	return n
}
