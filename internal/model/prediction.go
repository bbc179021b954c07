package model

// PartialPrediction is the output of one pipeline: a class 1 probability and
// the decision threshold on the same scale.
type PartialPrediction struct {
	Name          string
	Pathogenicity float64
	Threshold     float64
}

// IsPositive reports whether the probability reaches the threshold.
func (p PartialPrediction) IsPositive() bool {
	return p.Pathogenicity >= p.Threshold
}

// Prediction is the classifier output for one variant on one transcript.
type Prediction struct {
	Partials []PartialPrediction
}

// Max returns the partial prediction with the highest probability. ok is
// false for a prediction without partials.
func (p Prediction) Max() (PartialPrediction, bool) {
	if len(p.Partials) == 0 {
		return PartialPrediction{}, false
	}
	best := p.Partials[0]
	for _, pp := range p.Partials[1:] {
		if pp.Pathogenicity > best.Pathogenicity {
			best = pp
		}
	}
	return best, true
}

// MaxPathogenicity returns the highest partial probability, 0 without partials.
func (p Prediction) MaxPathogenicity() float64 {
	best, _ := p.Max()
	return best.Pathogenicity
}

// Threshold returns the threshold of the partial with the highest probability.
func (p Prediction) Threshold() float64 {
	best, _ := p.Max()
	return best.Threshold
}

// IsPositive compares the highest probability with the threshold of the
// partial that produced it.
func (p Prediction) IsPositive() bool {
	best, ok := p.Max()
	return ok && best.IsPositive()
}
