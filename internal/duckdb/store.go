// Package duckdb provides caching for transcripts and variant predictions.
// Transcripts are cached as gob files (fast, pure Go).
// Predictions are cached in DuckDB (queryable, append-only).
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-splice/internal/features"
)

// Store manages a DuckDB connection for caching variant predictions.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// featureColumns returns one nullable DOUBLE column per known feature.
func featureColumns() string {
	cols := make([]string, len(features.Names))
	for i, name := range features.Names {
		cols[i] = name + " DOUBLE"
	}
	return strings.Join(cols, ",\n\t\t")
}

// ensureSchema creates tables if they don't exist. Feature columns are NULL
// when the feature was not computed and NaN when it could not be.
func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS variant_predictions (
		chrom VARCHAR,
		pos BIGINT,
		ref VARCHAR,
		alt VARCHAR,
		transcript_id VARCHAR,
		gene_name VARCHAR,
		position VARCHAR,
		exon_idx INTEGER,
		intron_idx INTEGER,
		%s,
		pipeline VARCHAR,
		pathogenicity DOUBLE,
		threshold DOUBLE,
		is_positive BOOLEAN,
		prediction_error VARCHAR,
		PRIMARY KEY (chrom, pos, ref, alt, transcript_id)
	)`, featureColumns()))
	return err
}
