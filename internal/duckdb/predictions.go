package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-splice/internal/cache"
	"github.com/inodb/vibe-splice/internal/evaluate"
	"github.com/inodb/vibe-splice/internal/features"
	"github.com/inodb/vibe-splice/internal/genome"
	"github.com/inodb/vibe-splice/internal/model"
	"github.com/inodb/vibe-splice/internal/splicing"
)

// PredictionRecord holds one transcript result of a variant given as in the
// input VCF (1-based position).
type PredictionRecord struct {
	Chrom  string
	Pos    int64
	Ref    string
	Alt    string
	Result *evaluate.Result
}

// resultKey is the composite key for deduplicating records before writing.
type resultKey struct {
	chrom, ref, alt, transcriptID string
	pos                           int64
}

// WritePredictions batch-inserts predictions into DuckDB using the Appender API.
// Duplicate (chrom, pos, ref, alt, transcript_id) entries are deduplicated before
// writing, and stored rows with the same key are replaced.
func (s *Store) WritePredictions(records []PredictionRecord) error {
	if len(records) == 0 {
		return nil
	}

	seen := make(map[resultKey]bool, len(records))
	deduped := make([]PredictionRecord, 0, len(records))
	for _, r := range records {
		k := resultKey{genome.NormalizeChrom(r.Chrom), r.Ref, r.Alt, r.Result.Transcript.ID, r.Pos}
		if !seen[k] {
			seen[k] = true
			deduped = append(deduped, r)
		}
	}

	ctx := context.Background()
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	del, err := conn.PrepareContext(ctx,
		"DELETE FROM variant_predictions WHERE chrom=? AND pos=? AND ref=? AND alt=? AND transcript_id=?")
	if err != nil {
		return fmt.Errorf("prepare delete: %w", err)
	}
	defer del.Close()
	for k := range seen {
		if _, err := del.ExecContext(ctx, k.chrom, k.pos, k.ref, k.alt, k.transcriptID); err != nil {
			return fmt.Errorf("replace prediction: %w", err)
		}
	}

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "variant_predictions")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, r := range deduped {
		if err := appender.AppendRow(predictionRow(r)...); err != nil {
			return fmt.Errorf("append prediction: %w", err)
		}
	}

	return appender.Flush()
}

// predictionRow lays a record out in table column order.
func predictionRow(r PredictionRecord) []driver.Value {
	res := r.Result
	row := []driver.Value{
		genome.NormalizeChrom(r.Chrom), r.Pos, r.Ref, r.Alt,
		res.Transcript.ID, res.Transcript.GeneName,
		res.Location.Position.String(), int32(res.Location.ExonIdx), int32(res.Location.IntronIdx),
	}
	for _, name := range features.Names {
		if v, ok := res.Features.Get(name); ok {
			row = append(row, v)
		} else {
			row = append(row, nil)
		}
	}

	if best, ok := bestPartial(res.Prediction); ok {
		row = append(row, best.Name, best.Pathogenicity, best.Threshold, best.IsPositive())
	} else {
		row = append(row, nil, nil, nil, nil)
	}
	if res.Err != nil {
		row = append(row, res.Err.Error())
	} else {
		row = append(row, nil)
	}
	return row
}

func bestPartial(p *model.Prediction) (model.PartialPrediction, bool) {
	if p == nil {
		return model.PartialPrediction{}, false
	}
	return p.Max()
}

// ClearPredictions removes all cached predictions.
func (s *Store) ClearPredictions() error {
	_, err := s.db.Exec("DELETE FROM variant_predictions")
	return err
}

// selectColumns lists the columns scanned by scanPredictions.
func selectColumns() string {
	return "chrom, pos, ref, alt, transcript_id, gene_name, position, exon_idx, intron_idx, " +
		strings.Join(features.Names, ", ") +
		", pipeline, pathogenicity, threshold, prediction_error"
}

// LookupVariant returns previously stored results of a variant, ordered by
// transcript ID. Only the partial prediction with the highest probability is
// kept, and transcripts carry only their ID and gene name.
func (s *Store) LookupVariant(chrom string, pos int64, ref, alt string) ([]*evaluate.Result, error) {
	rows, err := s.db.Query(`SELECT `+selectColumns()+`
		FROM variant_predictions
		WHERE chrom=? AND pos=? AND ref=? AND alt=?
		ORDER BY transcript_id`,
		genome.NormalizeChrom(chrom), pos, ref, alt)
	if err != nil {
		return nil, fmt.Errorf("query variant: %w", err)
	}
	defer rows.Close()

	records, err := scanPredictions(rows)
	if err != nil {
		return nil, err
	}
	results := make([]*evaluate.Result, len(records))
	for i, r := range records {
		results[i] = r.Result
	}
	return results, nil
}

// SearchByGene returns all stored predictions for a gene.
func (s *Store) SearchByGene(geneName string) ([]PredictionRecord, error) {
	rows, err := s.db.Query(`SELECT `+selectColumns()+`
		FROM variant_predictions
		WHERE gene_name=?
		ORDER BY chrom, pos, ref, alt, transcript_id`, geneName)
	if err != nil {
		return nil, fmt.Errorf("query by gene: %w", err)
	}
	defer rows.Close()

	return scanPredictions(rows)
}

// scanPredictions scans rows selected with selectColumns.
func scanPredictions(rows *sql.Rows) ([]PredictionRecord, error) {
	var records []PredictionRecord
	for rows.Next() {
		var (
			r                   PredictionRecord
			txID, gene, posName string
			exonIdx, intronIdx  int32
			pipeline, predErr   sql.NullString
			patho, threshold    sql.NullFloat64
		)
		featureVals := make([]sql.NullFloat64, len(features.Names))

		dest := []any{&r.Chrom, &r.Pos, &r.Ref, &r.Alt, &txID, &gene, &posName, &exonIdx, &intronIdx}
		for i := range featureVals {
			dest = append(dest, &featureVals[i])
		}
		dest = append(dest, &pipeline, &patho, &threshold, &predErr)

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}

		position, err := splicing.ParsePosition(posName)
		if err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}

		res := &evaluate.Result{
			Transcript: &cache.Transcript{ID: txID, GeneName: gene},
			Location: splicing.Location{
				Position:  position,
				ExonIdx:   int(exonIdx),
				IntronIdx: int(intronIdx),
			},
			Features: make(model.Features),
		}
		for i, name := range features.Names {
			if featureVals[i].Valid {
				res.Features[name] = featureVals[i].Float64
			}
		}
		if patho.Valid {
			res.Prediction = &model.Prediction{Partials: []model.PartialPrediction{{
				Name:          pipeline.String,
				Pathogenicity: patho.Float64,
				Threshold:     threshold.Float64,
			}}}
		}
		if predErr.Valid {
			res.Err = errors.New(predErr.String)
		}
		r.Result = res
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate predictions: %w", err)
	}
	return records, nil
}
