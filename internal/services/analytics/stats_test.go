package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert.InDelta(t, 2, Mean([]float64{1, 2, 3}), 1e-12)
	assert.True(t, math.IsNaN(Mean(nil)))
}

func TestMedian(t *testing.T) {
	assert.InDelta(t, 2, Median([]float64{3, 1, 2}), 1e-12)
	assert.InDelta(t, 2.5, Median([]float64{4, 1, 2, 3}), 1e-12)
	assert.True(t, math.IsNaN(Median(nil)))
}

func TestStdDev(t *testing.T) {
	// sample stddev of {2,4,4,4,5,5,7,9} is sqrt(32/7)
	assert.InDelta(t, math.Sqrt(32.0/7.0), StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-12)
	assert.Equal(t, 0.0, StdDev([]float64{5}))
}

func TestPercentileInterpolation(t *testing.T) {
	xs := []float64{10, 20, 30, 40}
	assert.InDelta(t, 10, Percentile(xs, 0), 1e-12)
	assert.InDelta(t, 40, Percentile(xs, 100), 1e-12)
	assert.InDelta(t, 25, Percentile(xs, 50), 1e-12)
	// 2.5th percentile: pos = 0.075 -> 10 + 0.075*10
	assert.InDelta(t, 10.75, Percentile(xs, 2.5), 1e-12)
	assert.InDelta(t, 39.25, Percentile(xs, 97.5), 1e-12)
	assert.True(t, math.IsNaN(Percentile(nil, 50)))
}

func TestPercentileUnsortedInputUnchanged(t *testing.T) {
	xs := []float64{30, 10, 40, 20}
	assert.InDelta(t, 25, Percentile(xs, 50), 1e-12)
	assert.Equal(t, []float64{30, 10, 40, 20}, xs)
}

func TestOLSFitLine(t *testing.T) {
	x := []float64{0, 1, 2, 3}
	y := []float64{1, 3, 5, 7}
	fit := OLSFit(x, y)
	assert.InDelta(t, 2, fit.Slope, 1e-12)
	assert.InDelta(t, 1, fit.Intercept, 1e-12)
	assert.InDelta(t, 1, fit.Correlation, 1e-12)
}

func TestOLSFitDegenerate(t *testing.T) {
	fit := OLSFit([]float64{1}, []float64{1})
	assert.True(t, math.IsNaN(fit.Slope))

	fit = OLSFit([]float64{2, 2, 2}, []float64{1, 2, 3})
	assert.True(t, math.IsNaN(fit.Slope))
}

func TestOLSFitConstantY(t *testing.T) {
	fit := OLSFit([]float64{0, 1, 2}, []float64{5, 5, 5})
	assert.InDelta(t, 0, fit.Slope, 1e-12)
	assert.InDelta(t, 0, fit.Correlation, 1e-12)
}
