package cache

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vibe-splice/internal/genome"
)

// GTFLoader loads transcript structure from GENCODE/Ensembl GTF files.
type GTFLoader struct {
	path     string
	assembly genome.Assembly
	scorer   IntronScorer
	logger   *zap.Logger
}

// NewGTFLoader creates a new GTF loader. Contig lengths from the assembly are
// needed to express reverse-strand transcripts on their own strand.
func NewGTFLoader(path string, assembly genome.Assembly) *GTFLoader {
	return &GTFLoader{path: path, assembly: assembly, logger: zap.NewNop()}
}

// SetIntronScorer configures scoring of intron splice sites during load.
func (l *GTFLoader) SetIntronScorer(s IntronScorer) {
	l.scorer = s
}

// SetLogger sets the logger for skipped records.
func (l *GTFLoader) SetLogger(logger *zap.Logger) {
	l.logger = logger
}

// Load loads all transcripts from the GTF file into the cache.
func (l *GTFLoader) Load(c *Cache) error {
	return l.loadGTF(c, "")
}

// LoadChromosome loads transcripts for a specific chromosome.
func (l *GTFLoader) LoadChromosome(c *Cache, chrom string) error {
	return l.loadGTF(c, chrom)
}

// loadGTF parses the GTF file and populates the cache.
// If filterChrom is non-empty, only loads that chromosome.
func (l *GTFLoader) loadGTF(c *Cache, filterChrom string) error {
	f, err := os.Open(l.path)
	if err != nil {
		return fmt.Errorf("open GTF file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f

	// Handle gzipped files
	if strings.HasSuffix(l.path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	transcripts, err := l.parseGTF(reader, filterChrom)
	if err != nil {
		return err
	}

	for _, t := range transcripts {
		if l.scorer != nil {
			t = t.WithIntronScores(l.scorer)
		}
		c.AddTranscript(t)
	}

	return nil
}

// gtfFeature represents a parsed GTF line.
type gtfFeature struct {
	chrom       string
	featureType string
	start       int64
	end         int64
	strand      string
	attributes  map[string]string
}

// gtfTranscript collects exon records of one transcript.
type gtfTranscript struct {
	id       string
	geneName string
	chrom    string
	strand   string
	exons    [][2]int64 // 1-based inclusive start, end
}

// parseGTF parses GTF content and returns transcripts sorted by ID.
func (l *GTFLoader) parseGTF(reader io.Reader, filterChrom string) ([]*Transcript, error) {
	scanner := bufio.NewScanner(reader)
	// Increase buffer size for long lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	records := make(map[string]*gtfTranscript)

	for scanner.Scan() {
		line := scanner.Text()

		// Skip comments and empty lines
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}

		feat, err := l.parseLine(line)
		if err != nil {
			continue // Skip malformed lines
		}

		if filterChrom != "" && feat.chrom != genome.NormalizeChrom(filterChrom) {
			continue
		}
		if feat.featureType != "exon" {
			continue
		}

		transcriptID := feat.attributes["transcript_id"]
		if transcriptID == "" {
			continue
		}
		// Strip version suffix for consistent lookup
		transcriptID = stripVersion(transcriptID)

		r, ok := records[transcriptID]
		if !ok {
			r = &gtfTranscript{
				id:       transcriptID,
				geneName: feat.attributes["gene_name"],
				chrom:    feat.chrom,
				strand:   feat.strand,
			}
			records[transcriptID] = r
		}
		r.exons = append(r.exons, [2]int64{feat.start, feat.end})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan GTF: %w", err)
	}

	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	transcripts := make([]*Transcript, 0, len(ids))
	for _, id := range ids {
		t, err := l.buildTranscript(records[id])
		if err != nil {
			l.logger.Warn("skipping transcript", zap.String("transcript", id), zap.Error(err))
			continue
		}
		transcripts = append(transcripts, t)
	}
	return transcripts, nil
}

// buildTranscript converts 1-based forward-strand exon records into a
// transcript on its own strand.
func (l *GTFLoader) buildTranscript(r *gtfTranscript) (*Transcript, error) {
	contig, ok := l.assembly.Contig(r.chrom)
	if !ok {
		return nil, fmt.Errorf("contig %s not in reference assembly", r.chrom)
	}
	strand, err := genome.ParseStrand(r.strand)
	if err != nil {
		return nil, err
	}

	// Sort exons by genomic position
	sort.Slice(r.exons, func(i, j int) bool {
		return r.exons[i][0] < r.exons[j][0]
	})

	exons := make([]genome.Interval, len(r.exons))
	for i, e := range r.exons {
		fwd, err := genome.NewInterval(contig, genome.Forward, e[0]-1, e[1])
		if err != nil {
			return nil, err
		}
		exons[i] = fwd.WithStrand(strand)
	}
	if strand == genome.Reverse {
		for i, j := 0, len(exons)-1; i < j; i, j = i+1, j-1 {
			exons[i], exons[j] = exons[j], exons[i]
		}
	}

	return NewTranscript(r.id, r.geneName, exons)
}

// parseLine parses a single GTF line.
func (l *GTFLoader) parseLine(line string) (*gtfFeature, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 9 {
		return nil, fmt.Errorf("invalid GTF line: expected 9 fields, got %d", len(fields))
	}

	start, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse start: %w", err)
	}

	end, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse end: %w", err)
	}

	feat := &gtfFeature{
		chrom:       genome.NormalizeChrom(fields[0]),
		featureType: fields[2],
		start:       start,
		end:         end,
		strand:      fields[6],
		attributes:  parseAttributes(fields[8]),
	}

	return feat, nil
}

// parseAttributes parses GTF attribute column.
// Format: key "value"; key "value"; ...
func parseAttributes(attrStr string) map[string]string {
	attrs := make(map[string]string)

	// Split by semicolon
	parts := strings.Split(attrStr, ";")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		// Find the first space to separate key from value
		idx := strings.Index(part, " ")
		if idx == -1 {
			continue
		}

		key := part[:idx]
		value := strings.TrimSpace(part[idx+1:])

		// Remove quotes
		value = strings.Trim(value, "\"")

		attrs[key] = value
	}

	return attrs
}

// stripVersion removes the version suffix from an Ensembl ID.
// e.g., "ENST00000456328.2" -> "ENST00000456328"
func stripVersion(id string) string {
	if idx := strings.LastIndex(id, "."); idx != -1 {
		return id[:idx]
	}
	return id
}
