package genome

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/biogo/hts/fai"
)

// FASTAFetcher reads forward-strand reference sequence from an indexed FASTA file.
// The underlying file shares one read offset, so fetches are serialized.
type FASTAFetcher struct {
	mu       sync.Mutex
	file     *os.File
	fasta    *fai.File
	assembly Assembly
	names    map[string]string // normalized contig name -> name in the FASTA file
}

// OpenFASTA opens a FASTA file using its samtools .fai index. When no index
// file is present the index is built by scanning the FASTA once.
func OpenFASTA(path string) (*FASTAFetcher, error) {
	idx, err := readIndex(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open FASTA file: %w", err)
	}

	assembly := make(Assembly, len(idx))
	names := make(map[string]string, len(idx))
	for name, rec := range idx {
		norm := NormalizeChrom(name)
		assembly[norm] = Contig{Name: norm, Length: int64(rec.Length)}
		names[norm] = name
	}

	return &FASTAFetcher{
		file:     f,
		fasta:    fai.NewFile(f, idx),
		assembly: assembly,
		names:    names,
	}, nil
}

func readIndex(path string) (fai.Index, error) {
	if idxFile, err := os.Open(path + ".fai"); err == nil {
		defer idxFile.Close()
		idx, err := fai.ReadFrom(idxFile)
		if err != nil {
			return nil, fmt.Errorf("read FASTA index: %w", err)
		}
		return idx, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open FASTA file: %w", err)
	}
	defer f.Close()

	idx, err := fai.NewIndex(f)
	if err != nil {
		return nil, fmt.Errorf("index FASTA file: %w", err)
	}
	return idx, nil
}

// Assembly returns the contigs available in the FASTA file.
func (f *FASTAFetcher) Assembly() Assembly {
	return f.assembly
}

// Contig returns the named contig. A "chr" prefix is ignored.
func (f *FASTAFetcher) Contig(name string) (Contig, bool) {
	c, ok := f.assembly[NormalizeChrom(name)]
	return c, ok
}

// Fetch returns the forward-strand sequence of [begin, end) on the contig.
func (f *FASTAFetcher) Fetch(contig string, begin, end int64) (*SequenceInterval, error) {
	c, ok := f.Contig(contig)
	if !ok {
		return nil, fmt.Errorf("unknown contig %q", contig)
	}
	interval, err := NewInterval(c, Forward, begin, end)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	r, err := f.fasta.SeqRange(f.names[c.Name], int(begin), int(end))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", interval, err)
	}
	bases, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", interval, err)
	}

	return NewSequenceInterval(interval, strings.ToUpper(string(bases)))
}

// Close closes the FASTA file.
func (f *FASTAFetcher) Close() error {
	return f.file.Close()
}
