// Package splicing locates variants relative to splice sites and scores the
// reference and alternate splice site sequences.
package splicing

import (
	"fmt"

	"github.com/inodb/vibe-splice/internal/genome"
)

// Parameters are the widths of the donor and acceptor site windows around an
// exon/intron boundary.
type Parameters struct {
	DonorExonic      int `yaml:"donor_exonic"`
	DonorIntronic    int `yaml:"donor_intronic"`
	AcceptorExonic   int `yaml:"acceptor_exonic"`
	AcceptorIntronic int `yaml:"acceptor_intronic"`
}

// NewParameters validates the window widths.
func NewParameters(donorExonic, donorIntronic, acceptorExonic, acceptorIntronic int) (Parameters, error) {
	p := Parameters{
		DonorExonic:      donorExonic,
		DonorIntronic:    donorIntronic,
		AcceptorExonic:   acceptorExonic,
		AcceptorIntronic: acceptorIntronic,
	}
	return p, p.Validate()
}

// Validate checks that every width is positive.
func (p Parameters) Validate() error {
	if p.DonorExonic <= 0 || p.DonorIntronic <= 0 || p.AcceptorExonic <= 0 || p.AcceptorIntronic <= 0 {
		return fmt.Errorf("splicing parameters must be positive: %+v", p)
	}
	return nil
}

// DonorLength is the number of bases in a donor window.
func (p Parameters) DonorLength() int {
	return p.DonorExonic + p.DonorIntronic
}

// AcceptorLength is the number of bases in an acceptor window.
func (p Parameters) AcceptorLength() int {
	return p.AcceptorIntronic + p.AcceptorExonic
}

// DonorWindow returns [anchor-donorExonic, anchor+donorIntronic) where anchor
// is the first intronic base. The window may extend past the contig ends.
func (p Parameters) DonorWindow(anchor genome.Position) genome.Interval {
	return genome.Interval{
		Contig: anchor.Contig,
		Strand: anchor.Strand,
		Begin:  anchor.Pos - int64(p.DonorExonic),
		End:    anchor.Pos + int64(p.DonorIntronic),
	}
}

// AcceptorWindow returns [anchor-acceptorIntronic, anchor+acceptorExonic)
// where anchor is the first base of the downstream exon.
func (p Parameters) AcceptorWindow(anchor genome.Position) genome.Interval {
	return genome.Interval{
		Contig: anchor.Contig,
		Strand: anchor.Strand,
		Begin:  anchor.Pos - int64(p.AcceptorIntronic),
		End:    anchor.Pos + int64(p.AcceptorExonic),
	}
}
