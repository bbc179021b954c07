package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-splice/internal/vcf"
)

func TestTabWriter_WriteHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewTabWriter(&buf, testFeatureNames)

	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.Flush())

	assert.Equal(t,
		"#Uploaded_variation\tLocation\tAllele\tFeature\tPosition\tFeatures\tPathogenicity\tThreshold\tPositive\n",
		buf.String())
}

func TestTabWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := NewTabWriter(&buf, testFeatureNames)

	v := &vcf.Variant{Chrom: "chr1", Pos: 201, ID: ".", Ref: "G", Alt: "A"}
	require.NoError(t, w.Write(v, donorResult(t, "ENST01")))
	require.NoError(t, w.Write(v, exonResult(t, "ENST02")))
	require.NoError(t, w.Flush())

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)

	assert.Equal(t, []string{
		"1_201_G/A",
		"chr1:201",
		"A",
		"ENST01",
		"DONOR:1",
		"canonical_donor=6.5999,donor_offset=0.0000,phylop=NA",
		"0.8123",
		"0.5000",
		"YES",
	}, strings.Split(lines[0], "\t"))

	assert.Equal(t, []string{
		"1_201_G/A", "chr1:201", "A", "ENST02", "EXON:2", "-", "-", "-", "-",
	}, strings.Split(lines[1], "\t"))
}

func TestFormatFeatures_FollowsNameOrder(t *testing.T) {
	r := donorResult(t, "ENST01")
	assert.Equal(t, "phylop=NA,canonical_donor=6.5999",
		formatFeatures([]string{"phylop", "canonical_donor"}, r))
}
