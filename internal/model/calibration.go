package model

import "math"

// Calibrator rescales raw forest probabilities and their thresholds.
type Calibrator interface {
	Calibrate(p Prediction) Prediction
}

// IdentityCalibrator leaves predictions unchanged.
type IdentityCalibrator struct{}

// Calibrate returns p.
func (IdentityCalibrator) Calibrate(p Prediction) Prediction {
	return p
}

// LogisticCalibrator applies sigmoid(slope*x + intercept) to every partial
// probability and threshold.
type LogisticCalibrator struct {
	Slope     float64
	Intercept float64
}

// Transform maps one raw value to the calibrated scale.
func (c LogisticCalibrator) Transform(x float64) float64 {
	return sigmoid(c.Slope*x + c.Intercept)
}

// Calibrate returns a new prediction with every partial rescaled.
func (c LogisticCalibrator) Calibrate(p Prediction) Prediction {
	out := Prediction{Partials: make([]PartialPrediction, len(p.Partials))}
	for i, pp := range p.Partials {
		out.Partials[i] = PartialPrediction{
			Name:          pp.Name,
			Pathogenicity: c.Transform(pp.Pathogenicity),
			Threshold:     c.Transform(pp.Threshold),
		}
	}
	return out
}

// Names of the partials combined by DualLogisticCalibrator.
const (
	DonorPipeline    = "donor"
	AcceptorPipeline = "acceptor"
	CombinedPipeline = "combined"
)

// DualLogisticCalibrator combines the donor and acceptor partials into one
// probability, sigmoid(donorSlope*donor + acceptorSlope*acceptor + intercept),
// judged against Threshold. A prediction lacking either partial is returned
// unchanged.
type DualLogisticCalibrator struct {
	DonorSlope    float64
	AcceptorSlope float64
	Intercept     float64
	Threshold     float64
}

// Calibrate combines the donor and acceptor partials.
func (c DualLogisticCalibrator) Calibrate(p Prediction) Prediction {
	var donor, acceptor *PartialPrediction
	for i := range p.Partials {
		switch p.Partials[i].Name {
		case DonorPipeline:
			donor = &p.Partials[i]
		case AcceptorPipeline:
			acceptor = &p.Partials[i]
		}
	}
	if donor == nil || acceptor == nil {
		return p
	}
	x := c.DonorSlope*donor.Pathogenicity + c.AcceptorSlope*acceptor.Pathogenicity + c.Intercept
	return Prediction{Partials: []PartialPrediction{{
		Name:          CombinedPipeline,
		Pathogenicity: sigmoid(x),
		Threshold:     c.Threshold,
	}}}
}

func sigmoid(x float64) float64 {
	y := 1 / (1 + math.Exp(-x))
	return math.Max(0, math.Min(1, y))
}
