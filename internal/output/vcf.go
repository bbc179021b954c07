package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-splice/internal/evaluate"
	"github.com/inodb/vibe-splice/internal/vcf"
)

// InfoKey is the INFO field holding splicing predictions.
const InfoKey = "SPLICE"

// spliceFields are the sub-fields of one SPLICE entry.
var spliceFields = []string{
	"Allele",
	"Feature",
	"Position",
	"Pathogenicity",
	"Threshold",
	"Positive",
}

// VCFWriter writes predictions in VCF format with a SPLICE INFO field.
// Results are buffered per variant and flushed when the variant changes.
// Only variants with at least one transcript result are written.
type VCFWriter struct {
	w           *bufio.Writer
	headerLines []string // original VCF header lines (## and #CHROM)

	// Buffered state for the current variant.
	currentChrom string
	currentPos   int64
	hasVariant   bool
	currentVars  []*vcf.Variant     // variants seen for this key (may differ in alt)
	results      []*evaluate.Result // buffered results, parallel to currentVars
	alts         []string           // unique alt alleles seen
}

// NewVCFWriter creates a new VCF output writer.
func NewVCFWriter(w io.Writer, headerLines []string) *VCFWriter {
	return &VCFWriter{
		w:           bufio.NewWriter(w),
		headerLines: headerLines,
	}
}

// WriteHeader writes the original VCF header lines with an inserted SPLICE INFO line.
func (vw *VCFWriter) WriteHeader() error {
	infoLine := fmt.Sprintf(
		"##INFO=<ID=%s,Number=.,Type=String,Description=\"Splicing predictions from vibe-splice. Format: %s\">",
		InfoKey, strings.Join(spliceFields, "|"),
	)

	for _, line := range vw.headerLines {
		if strings.HasPrefix(line, "##INFO=<ID="+InfoKey+",") {
			continue
		}
		if strings.HasPrefix(line, "#CHROM") {
			if _, err := vw.w.WriteString(infoLine + "\n"); err != nil {
				return err
			}
		}
		if _, err := vw.w.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Write buffers a result for the given variant. When a new variant is
// encountered (different chrom/pos), the previous variant's VCF line is flushed.
func (vw *VCFWriter) Write(v *vcf.Variant, r *evaluate.Result) error {
	if vw.hasVariant && (vw.currentChrom != v.Chrom || vw.currentPos != v.Pos) {
		if err := vw.flushVariant(); err != nil {
			return err
		}
	}

	if !vw.hasVariant {
		vw.currentChrom = v.Chrom
		vw.currentPos = v.Pos
		vw.hasVariant = true
	}

	vw.currentVars = append(vw.currentVars, v)
	vw.results = append(vw.results, r)

	for _, a := range vw.alts {
		if a == v.Alt {
			return nil
		}
	}
	vw.alts = append(vw.alts, v.Alt)
	return nil
}

// Flush writes any buffered variant and flushes the underlying writer.
func (vw *VCFWriter) Flush() error {
	if vw.hasVariant {
		if err := vw.flushVariant(); err != nil {
			return err
		}
	}
	return vw.w.Flush()
}

// flushVariant writes the buffered variant as a VCF line with SPLICE entries.
func (vw *VCFWriter) flushVariant() error {
	if len(vw.currentVars) == 0 {
		return nil
	}

	// Use the first variant for base fields
	v := vw.currentVars[0]
	info := stripInfoKey(v.RawInfo)

	var lb strings.Builder
	lb.Grow(256)

	lb.WriteString(v.Chrom)
	lb.WriteByte('\t')
	lb.WriteString(strconv.FormatInt(v.Pos, 10))
	lb.WriteByte('\t')
	lb.WriteString(orDot(v.ID))
	lb.WriteByte('\t')
	lb.WriteString(v.Ref)
	lb.WriteByte('\t')
	lb.WriteString(strings.Join(vw.alts, ","))
	lb.WriteByte('\t')
	if v.Qual != 0 {
		lb.WriteString(strconv.FormatFloat(v.Qual, 'g', -1, 64))
	} else {
		lb.WriteByte('.')
	}
	lb.WriteByte('\t')
	lb.WriteString(orDot(v.Filter))
	lb.WriteByte('\t')
	if info != "." {
		lb.WriteString(info)
		lb.WriteByte(';')
	}
	lb.WriteString(InfoKey)
	lb.WriteByte('=')
	for i, r := range vw.results {
		if i > 0 {
			lb.WriteByte(',')
		}
		writeSpliceEntry(&lb, vw.currentVars[i], r)
	}

	if v.SampleColumns != "" {
		lb.WriteByte('\t')
		lb.WriteString(v.SampleColumns)
	}

	lb.WriteByte('\n')
	if _, err := vw.w.WriteString(lb.String()); err != nil {
		return err
	}

	vw.hasVariant = false
	vw.currentVars = nil
	vw.results = nil
	vw.alts = nil

	return nil
}

// stripInfoKey removes an existing SPLICE field from the raw INFO string.
func stripInfoKey(rawInfo string) string {
	if rawInfo == "" || rawInfo == "." {
		return "."
	}
	if !strings.Contains(rawInfo, InfoKey) {
		return rawInfo
	}

	var kept []string
	for _, field := range strings.Split(rawInfo, ";") {
		if strings.HasPrefix(field, InfoKey+"=") || field == InfoKey {
			continue
		}
		kept = append(kept, field)
	}
	if len(kept) == 0 {
		return "."
	}
	return strings.Join(kept, ";")
}

// writeSpliceEntry writes one result as a pipe-delimited entry. Missing
// predictions leave their sub-fields empty.
func writeSpliceEntry(b *strings.Builder, v *vcf.Variant, r *evaluate.Result) {
	b.WriteString(v.Alt)
	b.WriteByte('|')
	b.WriteString(r.Transcript.ID)
	b.WriteByte('|')
	b.WriteString(formatPosition(r))
	b.WriteByte('|')
	if r.Prediction != nil {
		b.WriteString(formatFloat(r.Prediction.MaxPathogenicity()))
		b.WriteByte('|')
		b.WriteString(formatFloat(r.Prediction.Threshold()))
		b.WriteByte('|')
		if r.Prediction.IsPositive() {
			b.WriteString("YES")
		} else {
			b.WriteString("NO")
		}
		return
	}
	b.WriteString("||")
}

func orDot(s string) string {
	if s == "" {
		return "."
	}
	return s
}
