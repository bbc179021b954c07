// Package phylop provides per-base phyloP conservation score lookups backed by
// DuckDB. Scores are loaded from UCSC bedGraph files (chrom, start, end, score
// with zero-based half-open spans).
package phylop

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/inodb/vibe-splice/internal/genome"
)

// span is a compact in-memory bedGraph record.
type span struct {
	start int64
	end   int64
	score float32
}

// Store provides conservation score lookups backed by DuckDB.
type Store struct {
	db      *sql.DB
	queryPS *sql.Stmt // prepared statement for ScoreAt

	// In-memory cache: spans sorted by start per chromosome.
	memCache map[string][]span

	logger *zap.Logger
}

// Open opens or creates a DuckDB database for conservation data at the given
// path. An empty path opens an in-memory database.
func Open(dbPath string) (*Store, error) {
	if dbPath != "" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, logger: zap.NewNop()}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	s.queryPS, err = db.Prepare(
		"SELECT start_pos, end_pos, score FROM phylop WHERE chrom=? AND start_pos < ? AND end_pos > ?",
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare phyloP query: %w", err)
	}

	return s, nil
}

func (s *Store) ensureSchema() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS phylop (
		chrom VARCHAR,
		start_pos BIGINT,
		end_pos BIGINT,
		score FLOAT
	)`); err != nil {
		return err
	}
	s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_phylop_lookup ON phylop (chrom, start_pos)`)
	return nil
}

// SetLogger sets the logger for failed lookups.
func (s *Store) SetLogger(l *zap.Logger) {
	s.logger = l
}

// Loaded returns true if the phylop table has data.
func (s *Store) Loaded() bool {
	var count int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM phylop").Scan(&count)
	return err == nil && count > 0
}

// Count returns the number of spans in the phylop table.
func (s *Store) Count() (int64, error) {
	var count int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM phylop").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count phylop rows: %w", err)
	}
	return count, nil
}

// Load bulk-loads a bedGraph file (plain or gzipped) using DuckDB's read_csv,
// replacing any existing data. Track and browser lines are skipped.
// Chromosome names are stored without a "chr" prefix.
func (s *Store) Load(bedGraphPath string) error {
	s.db.Exec(`DELETE FROM phylop`)
	s.memCache = nil

	query := fmt.Sprintf(`INSERT INTO phylop
		SELECT regexp_replace(column0, '^chr', ''), column1, column2, column3
		FROM read_csv('%s', delim='\t', header=false, ignore_errors=true,
			columns={
				'column0': 'VARCHAR',
				'column1': 'BIGINT',
				'column2': 'BIGINT',
				'column3': 'FLOAT'
			})
		WHERE column1 IS NOT NULL AND column2 IS NOT NULL AND column3 IS NOT NULL`, bedGraphPath)

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("loading phyloP data: %w", err)
	}
	return nil
}

// Insert adds a single span of constant score.
func (s *Store) Insert(chrom string, start, end int64, score float64) error {
	_, err := s.db.Exec(`INSERT INTO phylop VALUES (?, ?, ?, ?)`,
		genome.NormalizeChrom(chrom), start, end, float32(score))
	if err != nil {
		return fmt.Errorf("insert phyloP span: %w", err)
	}
	s.memCache = nil
	return nil
}

// PreloadToMemory loads all spans into sorted in-memory slices so lookups do
// not touch the database. It must not run concurrently with lookups.
func (s *Store) PreloadToMemory() error {
	rows, err := s.db.Query("SELECT chrom, start_pos, end_pos, score FROM phylop ORDER BY chrom, start_pos")
	if err != nil {
		return fmt.Errorf("query phylop for preload: %w", err)
	}
	defer rows.Close()

	cache := make(map[string][]span)
	for rows.Next() {
		var chrom string
		var sp span
		if err := rows.Scan(&chrom, &sp.start, &sp.end, &sp.score); err != nil {
			return fmt.Errorf("scan preload row: %w", err)
		}
		cache[chrom] = append(cache[chrom], sp)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("preload rows: %w", err)
	}

	s.memCache = cache
	return nil
}

// MemCacheSize returns the number of spans in the in-memory cache, or 0 if not loaded.
func (s *Store) MemCacheSize() int64 {
	if s.memCache == nil {
		return 0
	}
	var n int64
	for _, spans := range s.memCache {
		n += int64(len(spans))
	}
	return n
}

// ScoreAt returns one score per base of the forward-strand region
// [begin, end). Bases without a score are NaN.
func (s *Store) ScoreAt(chrom string, begin, end int64) []float64 {
	if end <= begin {
		return nil
	}
	out := make([]float64, end-begin)
	for i := range out {
		out[i] = math.NaN()
	}
	fill := func(sp span) {
		from, to := max(sp.start, begin), min(sp.end, end)
		for p := from; p < to; p++ {
			out[p-begin] = float64(sp.score)
		}
	}

	chrom = genome.NormalizeChrom(chrom)

	// Fast path: in-memory binary search
	if s.memCache != nil {
		spans := s.memCache[chrom]
		// bedGraph spans do not overlap, so only spans starting before end
		// and after the last span starting at or before begin can hit.
		i := sort.Search(len(spans), func(i int) bool { return spans[i].start > begin })
		if i > 0 {
			i--
		}
		for ; i < len(spans) && spans[i].start < end; i++ {
			fill(spans[i])
		}
		return out
	}

	// Fallback: DuckDB prepared statement. A failed lookup leaves the
	// remaining bases unscored.
	if err := s.queryScores(chrom, begin, end, fill); err != nil {
		s.logger.Warn("phyloP lookup failed",
			zap.String("chrom", chrom),
			zap.Int64("begin", begin),
			zap.Int64("end", end),
			zap.Error(err))
	}
	return out
}

func (s *Store) queryScores(chrom string, begin, end int64, fill func(span)) error {
	rows, err := s.queryPS.Query(chrom, end, begin)
	if err != nil {
		return fmt.Errorf("query phyloP: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sp span
		if err := rows.Scan(&sp.start, &sp.end, &sp.score); err != nil {
			return fmt.Errorf("scan phyloP span: %w", err)
		}
		fill(sp)
	}
	return rows.Err()
}

// Mean returns the mean score over the forward-strand region [begin, end),
// ignoring bases without a score. An empty region (an insertion point) uses
// the two bases either side of it. The result is NaN when no base is scored.
func (s *Store) Mean(chrom string, begin, end int64) float64 {
	if begin == end {
		begin, end = begin-1, end+1
	}
	var sum float64
	var n int
	for _, v := range s.ScoreAt(chrom, begin, end) {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.queryPS.Close()
	return s.db.Close()
}
