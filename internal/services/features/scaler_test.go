package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalerFitTransform(t *testing.T) {
	rows := [][]float64{
		{1, 10},
		{3, 10},
	}
	s := NewStandardScaler()
	s.Fit(rows)
	require.True(t, s.Fitted)

	out := s.Transform(rows)
	// column 0: mean 2, population stddev 1
	assert.InDelta(t, -1, out[0][0], 1e-12)
	assert.InDelta(t, 1, out[1][0], 1e-12)
	// column 1 is constant: stddev floored to 1, values center to 0
	assert.InDelta(t, 0, out[0][1], 1e-12)
	assert.InDelta(t, 0, out[1][1], 1e-12)

	// input untouched
	assert.Equal(t, 1.0, rows[0][0])
}

func TestScalerRoundTrip(t *testing.T) {
	rows := [][]float64{{2, 4}, {6, 8}, {10, 16}}
	s := NewStandardScaler()
	s.Fit(rows)

	back := s.InverseTransform(s.Transform(rows))
	for i := range rows {
		for j := range rows[i] {
			assert.InDelta(t, rows[i][j], back[i][j], 1e-9)
		}
	}
}

func TestScalerUnfittedPassThrough(t *testing.T) {
	rows := [][]float64{{1, 2}}
	s := NewStandardScaler()
	assert.Equal(t, rows, s.Transform(rows))
	assert.Equal(t, rows, s.InverseTransform(rows))
}
