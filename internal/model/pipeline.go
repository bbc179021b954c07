package model

import (
	"errors"
	"fmt"
	"math"
)

// Pipeline is one sub-classifier, for example the donor or the acceptor
// model: transforms followed by a forest over an ordered feature list.
type Pipeline struct {
	Name      string
	Threshold float64
	Features  []string
	Chain     TransformerChain
	Forest    *RandomForest
}

// Predict classifies one feature vector. An absent feature, or a NaN value
// left after the transforms, is a *PredictionError.
func (p *Pipeline) Predict(f Features) (PartialPrediction, error) {
	transformed, err := p.Chain.Transform(f)
	if err != nil {
		var pe *PredictionError
		if errors.As(err, &pe) && pe.Pipeline == "" {
			pe.Pipeline = p.Name
		}
		return PartialPrediction{}, err
	}

	x := make([]float64, len(p.Features))
	for i, name := range p.Features {
		v, ok := transformed.Get(name)
		if !ok {
			return PartialPrediction{}, &PredictionError{Pipeline: p.Name, Feature: name, Msg: "required feature is absent"}
		}
		if math.IsNaN(v) {
			return PartialPrediction{}, &PredictionError{Pipeline: p.Name, Feature: name, Msg: "feature is NaN and not imputed"}
		}
		x[i] = v
	}

	return PartialPrediction{
		Name:          p.Name,
		Pathogenicity: p.Forest.PredictProba(x),
		Threshold:     p.Threshold,
	}, nil
}

// Ensemble runs every pipeline and calibrates their combined output.
type Ensemble struct {
	Pipelines  []*Pipeline
	Calibrator Calibrator
}

// UsedFeatures returns every feature read by any pipeline, in first-use order.
func (e *Ensemble) UsedFeatures() []string {
	var out []string
	seen := make(map[string]bool)
	add := func(names []string) {
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	for _, p := range e.Pipelines {
		add(p.Features)
		add(p.Chain.UsedFeatures())
	}
	return out
}

// Predict classifies one feature vector. Pipelines that cannot score the
// instance are left out; when none can, the result is a *PredictionError.
func (e *Ensemble) Predict(f Features) (Prediction, error) {
	var pred Prediction
	var skipped []error
	for _, p := range e.Pipelines {
		pp, err := p.Predict(f)
		if err != nil {
			var pe *PredictionError
			if !errors.As(err, &pe) {
				return Prediction{}, fmt.Errorf("pipeline %s: %w", p.Name, err)
			}
			skipped = append(skipped, err)
			continue
		}
		pred.Partials = append(pred.Partials, pp)
	}
	if len(pred.Partials) == 0 {
		return Prediction{}, &PredictionError{Msg: fmt.Sprintf("no pipeline could score the instance: %v", errors.Join(skipped...))}
	}

	if e.Calibrator == nil {
		return pred, nil
	}
	return e.Calibrator.Calibrate(pred), nil
}
