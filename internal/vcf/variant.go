// Package vcf provides VCF file parsing functionality.
package vcf

import (
	"fmt"
	"strings"

	"github.com/inodb/vibe-splice/internal/genome"
)

// Variant represents a single genomic variant from a VCF file.
type Variant struct {
	Chrom  string         // Chromosome name (e.g., "12", "chr12")
	Pos    int64          // 1-based genomic position
	ID     string         // Variant identifier (e.g., rs ID)
	Ref    string         // Reference allele
	Alt    string         // Alternate allele (single allele after splitting)
	Qual   float64        // Quality score
	Filter string         // Filter status (PASS or filter name)
	Info   map[string]any // INFO field key-value pairs

	RawInfo       string // INFO column as read
	SampleColumns string // FORMAT and sample columns, tab-joined
}

// IsSNV returns true if the variant is a single nucleotide variant.
func (v *Variant) IsSNV() bool {
	return len(v.Ref) == 1 && len(v.Alt) == 1
}

// IsInsertion returns true if the variant is an insertion.
func (v *Variant) IsInsertion() bool {
	return len(v.Alt) > len(v.Ref)
}

// IsDeletion returns true if the variant is a deletion.
func (v *Variant) IsDeletion() bool {
	return len(v.Ref) > len(v.Alt)
}

// IsSymbolic reports whether the alt allele is symbolic (<DEL>, breakends,
// the spanning deletion "*" or missing ".") rather than explicit bases.
func (v *Variant) IsSymbolic() bool {
	return v.Alt == "*" || v.Alt == "." ||
		strings.ContainsAny(v.Alt, "<>[]")
}

// NormalizeChrom returns the chromosome name without "chr" prefix.
func (v *Variant) NormalizeChrom() string {
	return genome.NormalizeChrom(v.Chrom)
}

// Label returns the variant in chrom_pos_ref/alt form.
func (v *Variant) Label() string {
	return FormatVariantID(v.Chrom, v.Pos, v.Ref, v.Alt)
}

// FormatVariantID formats a variant as chrom_pos_ref/alt, the first column of
// tab-delimited output.
func FormatVariantID(chrom string, pos int64, ref, alt string) string {
	return fmt.Sprintf("%s_%d_%s/%s", genome.NormalizeChrom(chrom), pos, ref, alt)
}
