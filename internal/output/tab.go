// Package output provides prediction output formatters.
package output

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/inodb/vibe-splice/internal/evaluate"
	"github.com/inodb/vibe-splice/internal/vcf"
)

// TabWriter writes predictions in tab-delimited format, one row per variant
// and transcript.
type TabWriter struct {
	w        *bufio.Writer
	columns  []string
	features []string
}

// NewTabWriter creates a new tab-delimited writer. features fixes the order
// of the Features column.
func NewTabWriter(w io.Writer, features []string) *TabWriter {
	return &TabWriter{
		w:        bufio.NewWriter(w),
		features: features,
		columns: []string{
			"#Uploaded_variation",
			"Location",
			"Allele",
			"Feature",
			"Position",
			"Features",
			"Pathogenicity",
			"Threshold",
			"Positive",
		},
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes a single transcript result.
func (tw *TabWriter) Write(v *vcf.Variant, r *evaluate.Result) error {
	pathogenicity, threshold, positive := "-", "-", "-"
	if r.Prediction != nil {
		pathogenicity = formatFloat(r.Prediction.MaxPathogenicity())
		threshold = formatFloat(r.Prediction.Threshold())
		positive = "NO"
		if r.Prediction.IsPositive() {
			positive = "YES"
		}
	}

	values := []string{
		v.Label(),
		fmt.Sprintf("%s:%d", v.Chrom, v.Pos),
		v.Alt,
		r.Transcript.ID,
		formatPosition(r),
		formatFeatures(tw.features, r),
		pathogenicity,
		threshold,
		positive,
	}

	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

// formatPosition renders the location with its 1-based exon or intron
// number on the transcript, e.g. DONOR:2.
func formatPosition(r *evaluate.Result) string {
	loc := r.Location
	switch {
	case loc.IntronIdx >= 0:
		return fmt.Sprintf("%s:%d", loc.Position, loc.IntronIdx+1)
	case loc.ExonIdx >= 0:
		return fmt.Sprintf("%s:%d", loc.Position, loc.ExonIdx+1)
	}
	return loc.Position.String()
}

// formatFeatures renders name=value pairs in the given order. Values that
// could not be computed are NA.
func formatFeatures(names []string, r *evaluate.Result) string {
	parts := make([]string, 0, len(names))
	for _, name := range names {
		value, ok := r.Features.Get(name)
		if !ok {
			continue
		}
		parts = append(parts, name+"="+formatFloat(value))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NA"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}
