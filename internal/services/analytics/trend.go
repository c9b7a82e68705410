package analytics

import (
	"math"
	"time"

	"Stockyard/internal/domain/models"
)

// trendWindow is the tail length for the OLS trend fit and the moving
// average the regime comparison uses.
const trendWindow = 30

// Analyze computes market diagnostics over a trend-derived history,
// optionally restricted to [from, to] inclusive (zero bound = unbounded on
// that side). Returns models.ErrNoHistory when no history exists at all and
// when filtering leaves nothing.
func Analyze(history []models.DerivedRecord, from, to time.Time) (*models.TrendAnalysis, error) {
	if len(history) == 0 {
		return nil, models.ErrNoHistory
	}

	recs := filterRange(history, from, to)
	if len(recs) == 0 {
		return nil, models.ErrNoHistory
	}

	prices := make([]float64, len(recs))
	for i, r := range recs {
		prices[i] = r.Price
	}

	res := &models.TrendAnalysis{
		From:        recs[0].Date,
		To:          recs[len(recs)-1].Date,
		Count:       len(recs),
		MeanPrice:   Mean(prices),
		MedianPrice: Median(prices),
		StdPrice:    StdDev(prices),
		MinPrice:    minOf(prices),
		MaxPrice:    maxOf(prices),
		Seasonal:    seasonalStats(recs),
	}

	// Last available momentum, not a windowed average: the derived rows
	// already carry the 30-row-lagged momentum, so the last row has it.
	res.RecentMomentum = recs[len(recs)-1].Momentum30

	tail := prices
	if len(tail) > trendWindow {
		tail = tail[len(tail)-trendWindow:]
	}
	xs := make([]float64, len(tail))
	for i := range xs {
		xs[i] = float64(i)
	}
	fit := OLSFit(xs, tail)
	res.TrendSlope = fit.Slope
	if !math.IsNaN(fit.Correlation) {
		res.TrendR2 = fit.Correlation * fit.Correlation
	} else {
		res.TrendR2 = math.NaN()
	}

	last := recs[len(recs)-1]
	if last.Price > last.MA30 {
		res.Regime = models.RegimeBullish
	} else {
		res.Regime = models.RegimeBearish
	}
	return res, nil
}

func filterRange(recs []models.DerivedRecord, from, to time.Time) []models.DerivedRecord {
	out := make([]models.DerivedRecord, 0, len(recs))
	for _, r := range recs {
		if !from.IsZero() && r.Date.Before(from) {
			continue
		}
		if !to.IsZero() && r.Date.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func seasonalStats(recs []models.DerivedRecord) []models.SeasonalStat {
	byMonth := make(map[time.Month][]float64, 12)
	for _, r := range recs {
		m := r.Date.Month()
		byMonth[m] = append(byMonth[m], r.Price)
	}
	out := make([]models.SeasonalStat, 0, len(byMonth))
	for m := time.January; m <= time.December; m++ {
		prices, ok := byMonth[m]
		if !ok {
			continue
		}
		out = append(out, models.SeasonalStat{
			Month: m,
			Mean:  Mean(prices),
			Std:   StdDev(prices),
			Count: len(prices),
		})
	}
	return out
}

func minOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}
