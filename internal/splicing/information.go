package splicing

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Calculator scores splice site sequences by information content. It is
// read-only after construction and safe for concurrent use.
type Calculator struct {
	donor    *mat.Dense
	acceptor *mat.Dense
}

// NewCalculator converts the PWM frequencies to information content,
// 2 + log2(freq) per cell.
func NewCalculator(pwm *PWMData) *Calculator {
	return &Calculator{
		donor:    informationContent(pwm.Donor),
		acceptor: informationContent(pwm.Acceptor),
	}
}

func informationContent(m PWM) *mat.Dense {
	rows, cols := len(m), m.Columns()
	ic := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			ic.Set(r, c, 2+math.Log2(m[r][c]))
		}
	}
	return ic
}

// DonorLength is the sequence length DonorScore accepts.
func (c *Calculator) DonorLength() int {
	_, cols := c.donor.Dims()
	return cols
}

// AcceptorLength is the sequence length AcceptorScore accepts.
func (c *Calculator) AcceptorLength() int {
	_, cols := c.acceptor.Dims()
	return cols
}

// DonorScore returns the information content of a donor site sequence, or NaN
// when the sequence has the wrong length or a base other than ACGT.
func (c *Calculator) DonorScore(seq string) float64 {
	return score(c.donor, seq)
}

// AcceptorScore returns the information content of an acceptor site sequence,
// or NaN when the sequence has the wrong length or a base other than ACGT.
func (c *Calculator) AcceptorScore(seq string) float64 {
	return score(c.acceptor, seq)
}

func score(ic *mat.Dense, seq string) float64 {
	rows, cols := ic.Dims()
	if len(seq) != cols {
		return math.NaN()
	}
	mask := mat.NewDense(rows, cols, nil)
	for i := 0; i < len(seq); i++ {
		row := baseIndex(seq[i])
		if row < 0 {
			return math.NaN()
		}
		mask.Set(row, i, 1)
	}
	mask.MulElem(mask, ic)
	return mat.Sum(mask)
}

func baseIndex(b byte) int {
	switch b {
	case 'A', 'a':
		return 0
	case 'C', 'c':
		return 1
	case 'G', 'g':
		return 2
	case 'T', 't':
		return 3
	}
	return -1
}
