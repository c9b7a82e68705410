package features

import (
	"math"
	"sort"
	"time"

	"Stockyard/internal/domain/models"
)

// Rolling window sizes for the derived trend signals.
const (
	ShortWindow = 7
	LongWindow  = 30
)

// Derive sorts the history by date ascending and attaches the rolling trend
// signals to every row that has a full window behind it. Rows with any
// undefined signal are dropped; no imputation. An input with fewer usable
// rows than the largest window yields an empty (non-nil) result, which is
// not an error — callers must handle it explicitly.
//
// The warm-up is exactly 30 rows: the lag-30 momentum needs a base 30 rows
// back, so n sorted inputs yield n-30 derived rows (never n-29).
//
// Duplicate dates are kept and treated as distinct sequential rows. The
// input slice is not mutated.
func Derive(history []models.SaleRecord) []models.DerivedRecord {
	recs := make([]models.SaleRecord, len(history))
	copy(recs, history)
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Date.Before(recs[j].Date) })

	n := len(recs)
	prices := make([]float64, n)
	for i, r := range recs {
		prices[i] = r.Price
	}

	ma7 := RollingMean(prices, ShortWindow)
	ma30 := RollingMean(prices, LongWindow)
	mom7 := Momentum(prices, ShortWindow)
	mom30 := Momentum(prices, LongWindow)
	vol := RollingStd(prices, LongWindow)
	seasonal := SeasonalStrength(recs)
	slope := RollingTrendSlope(prices, LongWindow)

	out := make([]models.DerivedRecord, 0, n)
	for i := 0; i < n; i++ {
		f := models.TrendFeatures{
			MA7:              ma7[i],
			MA30:             ma30[i],
			Momentum7:        mom7[i],
			Momentum30:       mom30[i],
			Volatility:       vol[i],
			SeasonalStrength: seasonal[i],
			TrendSlope:       slope[i],
		}
		if !finite(f.MA7) || !finite(f.MA30) || !finite(f.Momentum7) || !finite(f.Momentum30) ||
			!finite(f.Volatility) || !finite(f.SeasonalStrength) || !finite(f.TrendSlope) {
			continue
		}
		out = append(out, models.DerivedRecord{SaleRecord: recs[i], TrendFeatures: f})
	}
	return out
}

// RollingMean returns the trailing-window arithmetic mean per row, NaN for
// the first window-1 rows.
func RollingMean(xs []float64, window int) []float64 {
	out := nanSlice(len(xs))
	if window <= 0 || len(xs) < window {
		return out
	}
	sum := 0.0
	for i, x := range xs {
		sum += x
		if i >= window {
			sum -= xs[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// Momentum returns (x[t]-x[t-lag])/x[t-lag] per row, NaN for the first lag
// rows and wherever the lagged value is zero.
func Momentum(xs []float64, lag int) []float64 {
	out := nanSlice(len(xs))
	for i := lag; i < len(xs); i++ {
		base := xs[i-lag]
		if base == 0 {
			continue
		}
		out[i] = (xs[i] - base) / base
	}
	return out
}

// RollingStd returns the trailing-window sample standard deviation per row,
// NaN for the first window-1 rows.
func RollingStd(xs []float64, window int) []float64 {
	out := nanSlice(len(xs))
	if window <= 1 || len(xs) < window {
		return out
	}
	for i := window - 1; i < len(xs); i++ {
		sum := 0.0
		for j := i - window + 1; j <= i; j++ {
			sum += xs[j]
		}
		mean := sum / float64(window)
		ss := 0.0
		for j := i - window + 1; j <= i; j++ {
			d := xs[j] - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(window-1))
	}
	return out
}

// SeasonalStrength divides each row's price by the mean price of all rows
// sharing its calendar month, over the entire input. This is deliberately
// non-causal: the denominator sees the whole series, so the signal is a
// batch-mode diagnostic, not suitable for strictly online use.
func SeasonalStrength(recs []models.SaleRecord) []float64 {
	out := nanSlice(len(recs))
	sums := make(map[time.Month]float64, 12)
	counts := make(map[time.Month]int, 12)
	for _, r := range recs {
		m := r.Date.Month()
		sums[m] += r.Price
		counts[m]++
	}
	for i, r := range recs {
		m := r.Date.Month()
		if counts[m] == 0 {
			continue
		}
		mean := sums[m] / float64(counts[m])
		if mean == 0 {
			continue
		}
		out[i] = r.Price / mean
	}
	return out
}

// RollingTrendSlope returns, per row, the OLS slope of price against row
// index over the trailing window. NaN until the window is full or when the
// window is degenerate (zero variance in x cannot happen; constant y gives
// slope 0).
func RollingTrendSlope(xs []float64, window int) []float64 {
	out := nanSlice(len(xs))
	if window <= 1 || len(xs) < window {
		return out
	}
	// x = 0..window-1 is constant across rows; precompute its moments.
	w := float64(window)
	xMean := (w - 1) / 2
	xVar := 0.0
	for j := 0; j < window; j++ {
		d := float64(j) - xMean
		xVar += d * d
	}
	for i := window - 1; i < len(xs); i++ {
		ySum := 0.0
		for j := i - window + 1; j <= i; j++ {
			ySum += xs[j]
		}
		yMean := ySum / w
		cov := 0.0
		for j := 0; j < window; j++ {
			cov += (float64(j) - xMean) * (xs[i-window+1+j] - yMean)
		}
		out[i] = cov / xVar
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
