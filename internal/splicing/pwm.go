package splicing

import (
	"fmt"
	"math"
)

// columnSumTolerance is how far a PWM column may sum from 1.
const columnSumTolerance = 0.004

// PWM is a position weight matrix with rows A, C, G, T and one column per
// window position.
type PWM [][]float64

// Columns returns the number of positions.
func (m PWM) Columns() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

func (m PWM) validate(name string, want int) error {
	if len(m) != 4 {
		return fmt.Errorf("%s PWM has %d rows, expected 4 (A, C, G, T)", name, len(m))
	}
	cols := len(m[0])
	for r, row := range m {
		if len(row) != cols {
			return fmt.Errorf("%s PWM row %d has %d columns, expected %d", name, r, len(row), cols)
		}
	}
	if cols != want {
		return fmt.Errorf("%s PWM has %d columns, splicing parameters imply %d", name, cols, want)
	}
	for c := 0; c < cols; c++ {
		var sum float64
		for r := range m {
			f := m[r][c]
			if !(f > 0 && f <= 1) {
				return fmt.Errorf("%s PWM frequency %g at row %d column %d is not in (0, 1]", name, f, r, c)
			}
			sum += f
		}
		if math.Abs(sum-1) > columnSumTolerance {
			return fmt.Errorf("%s PWM column %d sums to %.4f", name, c, sum)
		}
	}
	return nil
}

// PWMData holds the donor and acceptor matrices with the window widths they
// were trained on.
type PWMData struct {
	Donor    PWM
	Acceptor PWM
	Params   Parameters
}

// NewPWMData validates both matrices against the parameters.
func NewPWMData(donor, acceptor PWM, params Parameters) (*PWMData, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := donor.validate("donor", params.DonorLength()); err != nil {
		return nil, err
	}
	if err := acceptor.validate("acceptor", params.AcceptorLength()); err != nil {
		return nil, err
	}
	return &PWMData{Donor: donor, Acceptor: acceptor, Params: params}, nil
}
