package main

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/inodb/vibe-splice/internal/cache"
	"github.com/inodb/vibe-splice/internal/datasource/kmer"
	"github.com/inodb/vibe-splice/internal/datasource/phylop"
	"github.com/inodb/vibe-splice/internal/duckdb"
	"github.com/inodb/vibe-splice/internal/evaluate"
	"github.com/inodb/vibe-splice/internal/features"
	"github.com/inodb/vibe-splice/internal/genome"
	"github.com/inodb/vibe-splice/internal/model"
	"github.com/inodb/vibe-splice/internal/splicing"
)

// resources holds everything opened for an evaluation run.
type resources struct {
	fasta     *genome.FASTAFetcher
	phylop    *phylop.Store
	results   *duckdb.Store
	evaluator *evaluate.Evaluator
}

// Close releases every opened resource.
func (r *resources) Close() error {
	var errs []error
	if r.fasta != nil {
		errs = append(errs, r.fasta.Close())
	}
	if r.phylop != nil {
		errs = append(errs, r.phylop.Close())
	}
	if r.results != nil {
		errs = append(errs, r.results.Close())
	}
	return errors.Join(errs...)
}

// openResults opens the prediction store, or returns nil when none is configured.
func openResults(cfg *Config) (*duckdb.Store, error) {
	if cfg.Results.DB == "" {
		return nil, nil
	}
	s, err := duckdb.Open(cfg.Results.DB)
	if err != nil {
		return nil, fmt.Errorf("open results database: %w", err)
	}
	return s, nil
}

// openResources loads the model, reference, transcripts and feature sources
// and wires them into an evaluator. Any failure aborts start-up.
func openResources(cfg *Config) (_ *resources, err error) {
	if err := cfg.requireResources(); err != nil {
		return nil, err
	}

	r := &resources{}
	defer func() {
		if err != nil {
			r.Close()
		}
	}()

	bundle, err := model.LoadBundle(cfg.Model.Bundle, cfg.Model.ForestWorkers)
	if err != nil {
		return nil, err
	}
	params := bundle.PWM.Params
	calc := splicing.NewCalculator(bundle.PWM)
	logger.Info("loaded model bundle",
		zap.String("path", cfg.Model.Bundle),
		zap.Int("pipelines", len(bundle.Ensemble.Pipelines)))

	r.fasta, err = genome.OpenFASTA(cfg.Genome.FASTA)
	if err != nil {
		return nil, err
	}

	transcripts, err := loadTranscripts(cfg, r.fasta, splicing.NewIntronScorer(params, calc, r.fasta))
	if err != nil {
		return nil, err
	}

	deps := features.Dependencies{Params: params, Calculator: calc}
	if cfg.Conservation.DB != "" || cfg.Conservation.BedGraph != "" {
		if r.phylop, err = openPhyloP(cfg.Conservation); err != nil {
			return nil, err
		}
		deps.Conservation = r.phylop
	}
	if cfg.Kmer.Hexamer != "" {
		t, err := kmer.Load(cfg.Kmer.Hexamer)
		if err != nil {
			return nil, fmt.Errorf("hexamer table: %w", err)
		}
		deps.Hexamer = t
	}
	if cfg.Kmer.Septamer != "" {
		t, err := kmer.Load(cfg.Kmer.Septamer)
		if err != nil {
			return nil, fmt.Errorf("septamer table: %w", err)
		}
		deps.Septamer = t
	}

	assembler, err := features.NewAssembler(deps, bundle.Ensemble.UsedFeatures())
	if err != nil {
		return nil, fmt.Errorf("model bundle: %w", err)
	}

	r.evaluator = evaluate.NewEvaluator(transcripts, r.fasta, params, assembler, bundle.Ensemble)
	r.evaluator.SetLogger(logger)
	r.evaluator.SetWorkers(cfg.Evaluate.Workers)
	if err := r.evaluator.SetPadding(cfg.Evaluate.Padding); err != nil {
		return nil, err
	}

	if r.results, err = openResults(cfg); err != nil {
		return nil, err
	}
	return r, nil
}

// loadTranscripts loads transcripts from the gob cache when it matches the
// GTF, FASTA and bundle files, and otherwise parses and scores the GTF and
// refreshes the cache.
func loadTranscripts(cfg *Config, fasta *genome.FASTAFetcher, scorer cache.IntronScorer) (*cache.Cache, error) {
	c := cache.New()
	start := time.Now()

	var tc *duckdb.TranscriptCache
	var gtfFP, fastaFP, bundleFP duckdb.FileFingerprint
	if cfg.Transcripts.CacheDir != "" {
		var err error
		if gtfFP, err = duckdb.StatFile(cfg.Transcripts.GTF); err != nil {
			return nil, fmt.Errorf("stat GTF: %w", err)
		}
		if fastaFP, err = duckdb.StatFile(cfg.Genome.FASTA); err != nil {
			return nil, fmt.Errorf("stat FASTA: %w", err)
		}
		if bundleFP, err = duckdb.StatFile(cfg.Model.Bundle); err != nil {
			return nil, fmt.Errorf("stat model bundle: %w", err)
		}

		tc = duckdb.NewTranscriptCache(cfg.Transcripts.CacheDir)
		if tc.Valid(gtfFP, fastaFP, bundleFP) {
			err = tc.Load(c)
			if err == nil {
				logger.Info("loaded transcripts from cache",
					zap.String("dir", cfg.Transcripts.CacheDir),
					zap.Int("transcripts", c.TranscriptCount()),
					zap.Duration("elapsed", time.Since(start)))
				return c, nil
			}
			logger.Warn("ignoring unreadable transcript cache", zap.Error(err))
			c = cache.New()
		}
	}

	loader := cache.NewGTFLoader(cfg.Transcripts.GTF, fasta.Assembly())
	loader.SetIntronScorer(scorer)
	loader.SetLogger(logger)
	if err := loader.Load(c); err != nil {
		return nil, fmt.Errorf("load transcripts: %w", err)
	}
	logger.Info("loaded transcripts",
		zap.String("gtf", cfg.Transcripts.GTF),
		zap.Int("transcripts", c.TranscriptCount()),
		zap.Duration("elapsed", time.Since(start)))

	if tc != nil {
		if err := tc.Write(c, gtfFP, fastaFP, bundleFP); err != nil {
			logger.Warn("could not write transcript cache", zap.Error(err))
		}
	}
	return c, nil
}

// openPhyloP opens the conservation store, loading the bedGraph when the
// store is empty.
func openPhyloP(cfg ConservationConfig) (*phylop.Store, error) {
	s, err := phylop.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open phyloP database: %w", err)
	}
	s.SetLogger(logger)
	if !s.Loaded() {
		if cfg.BedGraph == "" {
			s.Close()
			return nil, fmt.Errorf("phyloP database %q is empty and no bedGraph is configured", cfg.DB)
		}
		logger.Info("loading phyloP scores", zap.String("bedgraph", cfg.BedGraph))
		if err := s.Load(cfg.BedGraph); err != nil {
			s.Close()
			return nil, err
		}
	}
	if cfg.Preload {
		if err := s.PreloadToMemory(); err != nil {
			s.Close()
			return nil, err
		}
		logger.Info("preloaded phyloP scores", zap.Int64("spans", s.MemCacheSize()))
	}
	return s, nil
}
