package genome

import "fmt"

// SequenceInterval is an interval with its nucleotides, given on the interval's strand.
type SequenceInterval struct {
	Interval Interval
	Bases    string
}

// NewSequenceInterval pairs an interval with its bases.
func NewSequenceInterval(interval Interval, bases string) (*SequenceInterval, error) {
	if int64(len(bases)) != interval.Length() {
		return nil, fmt.Errorf("sequence length %d does not match interval %s", len(bases), interval)
	}
	return &SequenceInterval{Interval: interval, Bases: bases}, nil
}

// WithStrand returns the sequence of the same region on strand s.
func (s *SequenceInterval) WithStrand(strand Strand) *SequenceInterval {
	if strand == s.Interval.Strand {
		return s
	}
	return &SequenceInterval{
		Interval: s.Interval.WithStrand(strand),
		Bases:    ReverseComplement(s.Bases),
	}
}

// Slice returns the bases of [begin, end) given in coordinates of the sequence's
// own strand. ok is false when the region is not fully covered.
func (s *SequenceInterval) Slice(begin, end int64) (string, bool) {
	if begin > end || begin < s.Interval.Begin || end > s.Interval.End {
		return "", false
	}
	return s.Bases[begin-s.Interval.Begin : end-s.Interval.Begin], true
}

// SubSequence returns the bases of an interval on any strand of the same contig.
func (s *SequenceInterval) SubSequence(query Interval) (string, bool) {
	if query.Contig.Name != s.Interval.Contig.Name {
		return "", false
	}
	if query.Strand == s.Interval.Strand {
		return s.Slice(query.Begin, query.End)
	}
	onStrand := query.WithStrand(s.Interval.Strand)
	bases, ok := s.Slice(onStrand.Begin, onStrand.End)
	if !ok {
		return "", false
	}
	return ReverseComplement(bases), true
}

var complement = [256]byte{}

func init() {
	for i := range complement {
		complement[i] = 'N'
	}
	pairs := []string{"AT", "CG", "GC", "TA", "NN", "at", "cg", "gc", "ta", "nn"}
	for _, p := range pairs {
		complement[p[0]] = p[1]
	}
}

// ReverseComplement returns the reverse complement of a nucleotide string.
// Unknown characters become N; case is preserved.
func ReverseComplement(seq string) string {
	out := make([]byte, len(seq))
	for i := 0; i < len(seq); i++ {
		out[len(seq)-1-i] = complement[seq[i]]
	}
	return string(out)
}
