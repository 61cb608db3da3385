package gp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes a feature matrix column-wise to zero mean and unit
// variance. The transform fitted on the training matrix is reused verbatim
// at prediction time, so train and query features share one coordinate
// system.
type Scaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// FitScaler computes per-column mean and population standard deviation.
// Constant columns (std 0) scale by 1 so they pass through centered.
func FitScaler(x [][]float64) (*Scaler, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("scaler: empty feature matrix")
	}
	cols := len(x[0])
	col := make([]float64, len(x))
	s := &Scaler{
		Mean: make([]float64, cols),
		Std:  make([]float64, cols),
	}
	for j := 0; j < cols; j++ {
		for i, row := range x {
			if len(row) != cols {
				return nil, fmt.Errorf("scaler: ragged feature matrix at row %d", i)
			}
			col[i] = row[j]
		}
		m := stat.Mean(col, nil)
		var sq float64
		for _, v := range col {
			d := v - m
			sq += d * d
		}
		sd := math.Sqrt(sq / float64(len(col)))
		if sd == 0 {
			sd = 1
		}
		s.Mean[j] = m
		s.Std[j] = sd
	}
	return s, nil
}

// Transform applies the stored standardization to x, returning a new matrix.
func (s *Scaler) Transform(x [][]float64) ([][]float64, error) {
	out := make([][]float64, len(x))
	for i, row := range x {
		if len(row) != len(s.Mean) {
			return nil, fmt.Errorf("scaler: row %d has %d columns, want %d", i, len(row), len(s.Mean))
		}
		r := make([]float64, len(row))
		for j, v := range row {
			r[j] = (v - s.Mean[j]) / s.Std[j]
		}
		out[i] = r
	}
	return out, nil
}
