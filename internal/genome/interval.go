// Package genome provides the coordinate model and reference sequence access.
package genome

import (
	"fmt"
	"strings"
)

// Strand is the strand of a genomic coordinate.
type Strand int8

// Strands.
const (
	Forward Strand = 1
	Reverse Strand = -1
)

// Opposite returns the other strand.
func (s Strand) Opposite() Strand {
	return -s
}

func (s Strand) String() string {
	if s == Reverse {
		return "-"
	}
	return "+"
}

// ParseStrand converts a GTF strand column ("+" or "-") into a Strand.
func ParseStrand(s string) (Strand, error) {
	switch s {
	case "+":
		return Forward, nil
	case "-":
		return Reverse, nil
	}
	return 0, fmt.Errorf("invalid strand %q", s)
}

// Contig is a named reference sequence of known length.
type Contig struct {
	Name   string
	Length int64
}

// Assembly maps contig names to contigs.
type Assembly map[string]Contig

// Contig returns the named contig. A "chr" prefix is ignored.
func (a Assembly) Contig(name string) (Contig, bool) {
	c, ok := a[NormalizeChrom(name)]
	return c, ok
}

// NormalizeChrom removes a "chr" prefix so that GENCODE ("chr1") and
// VCF/Ensembl ("1") names agree.
func NormalizeChrom(chrom string) string {
	if strings.HasPrefix(chrom, "chr") {
		return chrom[3:]
	}
	return chrom
}

// Interval is a zero-based half-open region [Begin, End) on one strand of a contig.
// Coordinates on the reverse strand count from the 3' end of the forward strand.
type Interval struct {
	Contig Contig
	Strand Strand
	Begin  int64
	End    int64
}

// NewInterval creates an interval, checking 0 <= begin <= end <= contig length.
func NewInterval(contig Contig, strand Strand, begin, end int64) (Interval, error) {
	if strand != Forward && strand != Reverse {
		return Interval{}, fmt.Errorf("invalid strand %d", strand)
	}
	if begin < 0 || begin > end || end > contig.Length {
		return Interval{}, fmt.Errorf("invalid interval %s:%d-%d (length %d)", contig.Name, begin, end, contig.Length)
	}
	return Interval{Contig: contig, Strand: strand, Begin: begin, End: end}, nil
}

// Length returns the number of bases in the interval.
func (i Interval) Length() int64 {
	return i.End - i.Begin
}

// IsEmpty reports whether the interval has no bases (e.g. an insertion point).
func (i Interval) IsEmpty() bool {
	return i.Begin == i.End
}

// WithStrand returns the same region expressed on strand s.
func (i Interval) WithStrand(s Strand) Interval {
	if s == i.Strand {
		return i
	}
	return Interval{
		Contig: i.Contig,
		Strand: s,
		Begin:  i.Contig.Length - i.End,
		End:    i.Contig.Length - i.Begin,
	}
}

// Overlaps reports whether the two intervals share a base. An empty interval
// overlaps only when it lies strictly inside the other interval.
func (i Interval) Overlaps(o Interval) bool {
	if i.Contig.Name != o.Contig.Name {
		return false
	}
	o = o.WithStrand(i.Strand)
	switch {
	case i.IsEmpty() && o.IsEmpty():
		return false
	case o.IsEmpty():
		return i.Begin < o.Begin && o.Begin < i.End
	case i.IsEmpty():
		return o.Begin < i.Begin && i.Begin < o.End
	}
	return i.Begin < o.End && o.Begin < i.End
}

// Contains reports whether o lies completely within i.
func (i Interval) Contains(o Interval) bool {
	if i.Contig.Name != o.Contig.Name {
		return false
	}
	o = o.WithStrand(i.Strand)
	return i.Begin <= o.Begin && o.End <= i.End
}

// ContainsPos reports whether the position on the interval's strand is inside it.
func (i Interval) ContainsPos(pos int64) bool {
	return i.Begin <= pos && pos < i.End
}

func (i Interval) String() string {
	return fmt.Sprintf("%s:%d-%d(%s)", i.Contig.Name, i.Begin, i.End, i.Strand)
}

// Position is a single base on one strand of a contig.
type Position struct {
	Contig Contig
	Strand Strand
	Pos    int64
}

// WithStrand returns the same base expressed on strand s.
func (p Position) WithStrand(s Strand) Position {
	if s == p.Strand {
		return p
	}
	return Position{Contig: p.Contig, Strand: s, Pos: p.Contig.Length - p.Pos - 1}
}
