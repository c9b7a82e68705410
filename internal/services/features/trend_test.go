package features

import (
	"math"
	"testing"
	"time"

	"Stockyard/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeHistory(n int, price func(i int) float64) []models.SaleRecord {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.SaleRecord, n)
	for i := 0; i < n; i++ {
		out[i] = models.SaleRecord{
			Date:   start.AddDate(0, 0, i),
			Price:  price(i),
			Weight: 500,
			Age:    2,
			Breed:  "Angus",
			Season: "Winter",
			Market: "abilene",
		}
	}
	return out
}

func TestDeriveDropsWarmupRows(t *testing.T) {
	// Lag-30 momentum leaves exactly 30 undefined rows at the head.
	recs := makeHistory(40, func(i int) float64 { return 100 + float64(i) })
	out := Derive(recs)
	require.Len(t, out, 10)
	assert.Equal(t, recs[30].Date, out[0].Date)
	assert.Equal(t, recs[39].Date, out[9].Date)
}

func TestDeriveShortHistoryEmptyNotNil(t *testing.T) {
	recs := makeHistory(20, func(i int) float64 { return 100 })
	out := Derive(recs)
	require.NotNil(t, out)
	assert.Empty(t, out)
}

func TestDeriveSortsUnorderedInput(t *testing.T) {
	recs := makeHistory(40, func(i int) float64 { return 100 + float64(i) })
	// reverse
	rev := make([]models.SaleRecord, len(recs))
	for i := range recs {
		rev[i] = recs[len(recs)-1-i]
	}
	out := Derive(rev)
	require.Len(t, out, 10)
	for i := 1; i < len(out); i++ {
		assert.False(t, out[i].Date.Before(out[i-1].Date))
	}
	// input not mutated
	assert.Equal(t, recs[39].Date, rev[0].Date)
}

func TestDeriveConstantSeries(t *testing.T) {
	recs := makeHistory(40, func(i int) float64 { return 150 })
	out := Derive(recs)
	require.Len(t, out, 10)
	for _, r := range out {
		assert.InDelta(t, 150, r.MA7, 1e-12)
		assert.InDelta(t, 150, r.MA30, 1e-12)
		assert.InDelta(t, 0, r.Momentum30, 1e-12)
		assert.InDelta(t, 0, r.Volatility, 1e-12)
		assert.InDelta(t, 0, r.TrendSlope, 1e-12)
		assert.InDelta(t, 1, r.SeasonalStrength, 1e-12)
	}
}

func TestRollingMean(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	out := RollingMean(xs, 3)
	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, 2, out[2], 1e-12)
	assert.InDelta(t, 3, out[3], 1e-12)
	assert.InDelta(t, 4, out[4], 1e-12)
}

func TestMomentumLiteralSeries(t *testing.T) {
	xs := []float64{100, 102, 104, 101, 99, 98, 97, 95, 93, 90}
	out := Momentum(xs, 7)
	for i := 0; i < 7; i++ {
		assert.True(t, math.IsNaN(out[i]), "index %d", i)
	}
	assert.InDelta(t, -0.05, out[7], 1e-12) // (95-100)/100
	assert.InDelta(t, (93.0-102.0)/102.0, out[8], 1e-12)
	assert.InDelta(t, (90.0-104.0)/104.0, out[9], 1e-12)
}

func TestMomentumZeroBase(t *testing.T) {
	xs := []float64{0, 1, 2}
	out := Momentum(xs, 1)
	assert.True(t, math.IsNaN(out[1])) // base is zero
	assert.InDelta(t, 1, out[2], 1e-12)
}

func TestRollingStdSample(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	out := RollingStd(xs, 8)
	for i := 0; i < 7; i++ {
		assert.True(t, math.IsNaN(out[i]))
	}
	// sample stddev of the full window (n-1 denominator)
	assert.InDelta(t, math.Sqrt(32.0/7.0), out[7], 1e-12)
}

func TestRollingTrendSlopeLinear(t *testing.T) {
	xs := make([]float64, 35)
	for i := range xs {
		xs[i] = 10 + 2.5*float64(i)
	}
	out := RollingTrendSlope(xs, 30)
	for i := 29; i < len(xs); i++ {
		assert.InDelta(t, 2.5, out[i], 1e-9)
	}
}

func TestSeasonalStrengthWholeSeriesMonthMeans(t *testing.T) {
	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	recs := []models.SaleRecord{
		{Date: jan, Price: 90},
		{Date: jan.AddDate(0, 0, 1), Price: 110},
		{Date: feb, Price: 200},
	}
	out := SeasonalStrength(recs)
	assert.InDelta(t, 0.9, out[0], 1e-12) // 90 / mean(90,110)
	assert.InDelta(t, 1.1, out[1], 1e-12)
	assert.InDelta(t, 1.0, out[2], 1e-12) // lone february row
}
