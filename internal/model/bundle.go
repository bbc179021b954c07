package model

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/inodb/vibe-splice/internal/splicing"
)

// Calibration types in a bundle.
const (
	CalibrationIdentity     = "identity"
	CalibrationLogistic     = "logistic"
	CalibrationDualLogistic = "dual_logistic"
)

// bundleFile is the serialized model bundle. YAML is a superset of JSON, so
// JSON bundles decode the same way.
type bundleFile struct {
	Parameters  *splicing.Parameters `yaml:"parameters"`
	PWM         *pwmFile             `yaml:"pwm"`
	Pipelines   []pipelineFile       `yaml:"pipelines"`
	Calibration *calibrationFile     `yaml:"calibration"`
}

type pwmFile struct {
	Donor    splicing.PWM `yaml:"donor"`
	Acceptor splicing.PWM `yaml:"acceptor"`
}

type pipelineFile struct {
	Name      string       `yaml:"name"`
	Threshold *float64     `yaml:"threshold"`
	Features  []string     `yaml:"features"`
	Imputer   *imputerFile `yaml:"imputer"`
	Forest    *forestFile  `yaml:"forest"`
}

type imputerFile struct {
	Features []string  `yaml:"features"`
	Medians  []float64 `yaml:"medians"`
}

type forestFile struct {
	Trees []*DecisionTree `yaml:"trees"`
}

type calibrationFile struct {
	Type          string   `yaml:"type"`
	Slope         *float64 `yaml:"slope"`
	Intercept     *float64 `yaml:"intercept"`
	DonorSlope    *float64 `yaml:"donor_slope"`
	AcceptorSlope *float64 `yaml:"acceptor_slope"`
	Threshold     *float64 `yaml:"threshold"`
}

// Bundle is a trained model: splice site matrices with their window widths
// and the classifier ensemble.
type Bundle struct {
	PWM      *splicing.PWMData
	Ensemble *Ensemble
}

// LoadBundle reads a model bundle file. Forests use up to forestWorkers
// goroutines per prediction.
func LoadBundle(path string, forestWorkers int) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model bundle: %w", err)
	}
	defer f.Close()

	b, err := ParseBundle(f, forestWorkers)
	if err != nil {
		return nil, fmt.Errorf("model bundle %s: %w", path, err)
	}
	return b, nil
}

// ParseBundle decodes and validates a model bundle. Any missing or malformed
// section is an error; nothing is partially loaded.
func ParseBundle(r io.Reader, forestWorkers int) (*Bundle, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var bf bundleFile
	if err := dec.Decode(&bf); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty model bundle")
		}
		return nil, fmt.Errorf("decode model bundle: %w", err)
	}

	if bf.Parameters == nil {
		return nil, fmt.Errorf("missing parameters section")
	}
	if bf.PWM == nil {
		return nil, fmt.Errorf("missing pwm section")
	}
	pwm, err := splicing.NewPWMData(bf.PWM.Donor, bf.PWM.Acceptor, *bf.Parameters)
	if err != nil {
		return nil, err
	}

	if len(bf.Pipelines) == 0 {
		return nil, fmt.Errorf("missing pipelines section")
	}
	ensemble := &Ensemble{}
	seen := make(map[string]bool)
	for i, pf := range bf.Pipelines {
		p, err := pf.build(forestWorkers)
		if err != nil {
			return nil, fmt.Errorf("pipeline %d (%s): %w", i, pf.Name, err)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("duplicate pipeline %s", p.Name)
		}
		seen[p.Name] = true
		ensemble.Pipelines = append(ensemble.Pipelines, p)
	}

	if bf.Calibration == nil {
		return nil, fmt.Errorf("missing calibration section")
	}
	ensemble.Calibrator, err = bf.Calibration.build()
	if err != nil {
		return nil, fmt.Errorf("calibration: %w", err)
	}
	if _, dual := ensemble.Calibrator.(DualLogisticCalibrator); dual && (!seen[DonorPipeline] || !seen[AcceptorPipeline]) {
		return nil, fmt.Errorf("calibration: %s needs pipelines named %s and %s", CalibrationDualLogistic, DonorPipeline, AcceptorPipeline)
	}

	return &Bundle{PWM: pwm, Ensemble: ensemble}, nil
}

func (pf pipelineFile) build(forestWorkers int) (*Pipeline, error) {
	if pf.Name == "" {
		return nil, fmt.Errorf("missing name")
	}
	if pf.Threshold == nil {
		return nil, fmt.Errorf("missing threshold")
	}
	if len(pf.Features) == 0 {
		return nil, fmt.Errorf("missing features")
	}
	if pf.Forest == nil {
		return nil, fmt.Errorf("missing forest")
	}

	var chain TransformerChain
	if pf.Imputer != nil {
		imp, err := NewMedianImputer(pf.Imputer.Features, pf.Imputer.Medians)
		if err != nil {
			return nil, err
		}
		chain = append(chain, imp)
	}

	forest, err := NewRandomForest(pf.Forest.Trees, len(pf.Features), forestWorkers)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		Name:      pf.Name,
		Threshold: *pf.Threshold,
		Features:  pf.Features,
		Chain:     chain,
		Forest:    forest,
	}, nil
}

func (cf calibrationFile) build() (Calibrator, error) {
	need := func(name string, v *float64) (float64, error) {
		if v == nil {
			return 0, fmt.Errorf("%s calibration needs %s", cf.Type, name)
		}
		return *v, nil
	}

	switch cf.Type {
	case CalibrationIdentity:
		return IdentityCalibrator{}, nil
	case CalibrationLogistic:
		slope, err := need("slope", cf.Slope)
		if err != nil {
			return nil, err
		}
		intercept, err := need("intercept", cf.Intercept)
		if err != nil {
			return nil, err
		}
		return LogisticCalibrator{Slope: slope, Intercept: intercept}, nil
	case CalibrationDualLogistic:
		var c DualLogisticCalibrator
		var err error
		if c.DonorSlope, err = need("donor_slope", cf.DonorSlope); err != nil {
			return nil, err
		}
		if c.AcceptorSlope, err = need("acceptor_slope", cf.AcceptorSlope); err != nil {
			return nil, err
		}
		if c.Intercept, err = need("intercept", cf.Intercept); err != nil {
			return nil, err
		}
		if c.Threshold, err = need("threshold", cf.Threshold); err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("unknown calibration type %q", cf.Type)
}
