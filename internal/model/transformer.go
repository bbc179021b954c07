package model

import (
	"fmt"
	"math"
)

// FeatureTransformer rewrites a feature vector before classification.
// Transform must not modify its argument.
type FeatureTransformer interface {
	UsedFeatures() []string
	Transform(f Features) (Features, error)
}

// TransformerChain applies transformers in order.
type TransformerChain []FeatureTransformer

// UsedFeatures returns the features read by any transformer in the chain.
func (c TransformerChain) UsedFeatures() []string {
	var out []string
	seen := make(map[string]bool)
	for _, t := range c {
		for _, name := range t.UsedFeatures() {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

// Transform runs each transformer on the output of the previous one.
func (c TransformerChain) Transform(f Features) (Features, error) {
	var err error
	for _, t := range c {
		if f, err = t.Transform(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// MedianImputer replaces NaN values with per-feature training medians.
type MedianImputer struct {
	features []string
	medians  []float64
}

// NewMedianImputer pairs each feature with its median.
func NewMedianImputer(features []string, medians []float64) (*MedianImputer, error) {
	if len(features) != len(medians) {
		return nil, fmt.Errorf("imputer has %d features but %d medians", len(features), len(medians))
	}
	for i, m := range medians {
		if math.IsNaN(m) {
			return nil, fmt.Errorf("imputer median for %s is NaN", features[i])
		}
	}
	return &MedianImputer{
		features: append([]string(nil), features...),
		medians:  append([]float64(nil), medians...),
	}, nil
}

// UsedFeatures returns the imputed features.
func (m *MedianImputer) UsedFeatures() []string {
	return m.features
}

// Transform returns a copy of f with NaN values of the imputed features
// replaced by their medians. An imputed feature missing from f is an error.
func (m *MedianImputer) Transform(f Features) (Features, error) {
	out := f.Clone()
	for i, name := range m.features {
		v, ok := f.Get(name)
		if !ok {
			return nil, &PredictionError{Feature: name, Msg: "required feature is absent"}
		}
		if math.IsNaN(v) {
			out[name] = m.medians[i]
		}
	}
	return out, nil
}
