package analytics

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean, NaN on empty input.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Median returns the middle order statistic, averaging the two central
// values for even lengths. NaN on empty input.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	s := make([]float64, len(xs))
	copy(s, xs)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

// StdDev returns the sample standard deviation (n-1 denominator), 0 for
// fewer than two values.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean := Mean(xs)
	ss := 0.0
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// Percentile returns the q-th percentile (q in [0,100]) using linear
// interpolation between order statistics, the standard definition. NaN on
// empty input.
func Percentile(xs []float64, q float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	s := make([]float64, len(xs))
	copy(s, xs)
	sort.Float64s(s)
	if q <= 0 {
		return s[0]
	}
	if q >= 100 {
		return s[len(s)-1]
	}
	pos := q / 100 * float64(len(s)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return s[lo]
	}
	frac := pos - float64(lo)
	return s[lo] + frac*(s[hi]-s[lo])
}

// OLSResult is a simple least-squares line fit.
type OLSResult struct {
	Slope       float64
	Intercept   float64
	Correlation float64
}

// OLSFit fits y ~ slope*x + intercept. Degenerate inputs (fewer than two
// points, zero variance in x) yield NaN slope.
func OLSFit(x, y []float64) OLSResult {
	n := len(x)
	if n < 2 || n != len(y) {
		return OLSResult{Slope: math.NaN(), Intercept: math.NaN(), Correlation: math.NaN()}
	}
	mx, my := Mean(x), Mean(y)
	var sxx, syy, sxy float64
	for i := 0; i < n; i++ {
		dx := x[i] - mx
		dy := y[i] - my
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	if sxx == 0 {
		return OLSResult{Slope: math.NaN(), Intercept: math.NaN(), Correlation: math.NaN()}
	}
	slope := sxy / sxx
	r := 0.0
	if syy > 0 {
		r = sxy / math.Sqrt(sxx*syy)
	}
	return OLSResult{Slope: slope, Intercept: my - slope*mx, Correlation: r}
}
