package features

import (
	"math"

	"Stockyard/internal/domain/service"
)

// StandardScaler applies z-score normalization with parameters fit on the
// training table. Fields are exported so a fitted scaler serializes with the
// model that owns it.
type StandardScaler struct {
	Means   []float64 `json:"means"`
	Stddevs []float64 `json:"stddevs"`
	Fitted  bool      `json:"fitted"`
}

func NewStandardScaler() *StandardScaler { return &StandardScaler{} }

// Fit computes per-column mean and standard deviation. Columns with near-zero
// spread get a unit stddev so Transform never divides by zero.
func (s *StandardScaler) Fit(rows [][]float64) {
	if len(rows) == 0 {
		return
	}
	cols := len(rows[0])
	s.Means = make([]float64, cols)
	s.Stddevs = make([]float64, cols)
	n := float64(len(rows))
	for j := 0; j < cols; j++ {
		sum := 0.0
		for _, row := range rows {
			sum += row[j]
		}
		s.Means[j] = sum / n
	}
	for j := 0; j < cols; j++ {
		ss := 0.0
		for _, row := range rows {
			d := row[j] - s.Means[j]
			ss += d * d
		}
		s.Stddevs[j] = math.Sqrt(ss / n)
		if s.Stddevs[j] < 1e-10 {
			s.Stddevs[j] = 1.0
		}
	}
	s.Fitted = true
}

// Transform normalizes rows with the fitted parameters. Unfitted scalers
// pass rows through unchanged.
func (s *StandardScaler) Transform(rows [][]float64) [][]float64 {
	if !s.Fitted {
		return rows
	}
	out := make([][]float64, len(rows))
	for i, row := range rows {
		r := make([]float64, len(row))
		for j, v := range row {
			if j < len(s.Means) {
				r[j] = (v - s.Means[j]) / s.Stddevs[j]
			} else {
				r[j] = v
			}
		}
		out[i] = r
	}
	return out
}

// InverseTransform maps normalized rows back to the original space.
func (s *StandardScaler) InverseTransform(rows [][]float64) [][]float64 {
	if !s.Fitted {
		return rows
	}
	out := make([][]float64, len(rows))
	for i, row := range rows {
		r := make([]float64, len(row))
		for j, v := range row {
			if j < len(s.Means) {
				r[j] = v*s.Stddevs[j] + s.Means[j]
			} else {
				r[j] = v
			}
		}
		out[i] = r
	}
	return out
}

var _ service.Scaler = (*StandardScaler)(nil)
