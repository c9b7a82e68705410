package analytics

import (
	"testing"
	"time"

	"Stockyard/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func history(n int, price func(i int) float64) []models.DerivedRecord {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.DerivedRecord, n)
	for i := 0; i < n; i++ {
		p := price(i)
		out[i] = models.DerivedRecord{
			SaleRecord: models.SaleRecord{
				Date: start.AddDate(0, 0, i), Price: p,
				Breed: "Angus", Season: "Winter", Market: "abilene",
			},
			TrendFeatures: models.TrendFeatures{MA30: p, Momentum30: 0.01},
		}
	}
	return out
}

func TestAnalyzeEmptyHistory(t *testing.T) {
	_, err := Analyze(nil, time.Time{}, time.Time{})
	assert.ErrorIs(t, err, models.ErrNoHistory)
}

func TestAnalyzeFilterLeavesNothing(t *testing.T) {
	recs := history(10, func(i int) float64 { return 100 })
	from := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := Analyze(recs, from, time.Time{})
	assert.ErrorIs(t, err, models.ErrNoHistory)
}

func TestAnalyzeBasicStats(t *testing.T) {
	recs := history(5, func(i int) float64 { return float64(100 + i*10) })
	res, err := Analyze(recs, time.Time{}, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 5, res.Count)
	assert.Equal(t, recs[0].Date, res.From)
	assert.Equal(t, recs[4].Date, res.To)
	assert.InDelta(t, 120, res.MeanPrice, 1e-12)
	assert.InDelta(t, 120, res.MedianPrice, 1e-12)
	assert.InDelta(t, 100, res.MinPrice, 1e-12)
	assert.InDelta(t, 140, res.MaxPrice, 1e-12)
	assert.InDelta(t, 10, res.TrendSlope, 1e-9)
	assert.InDelta(t, 1, res.TrendR2, 1e-9)
}

func TestAnalyzeDateFilterInclusive(t *testing.T) {
	recs := history(10, func(i int) float64 { return 100 })
	from := recs[2].Date
	to := recs[6].Date
	res, err := Analyze(recs, from, to)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Count)
	assert.Equal(t, from, res.From)
	assert.Equal(t, to, res.To)
}

func TestAnalyzeRegimeStepFunction(t *testing.T) {
	// Last price above its own MA30 flips the label, nothing else does.
	recs := history(3, func(i int) float64 { return 100 })
	recs[2].Price = 101
	recs[2].MA30 = 100
	res, err := Analyze(recs, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, models.RegimeBullish, res.Regime)

	recs[2].Price = 100 // equal to MA is not above
	res, err = Analyze(recs, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, models.RegimeBearish, res.Regime)
}

func TestAnalyzeRecentMomentumIsLastRow(t *testing.T) {
	recs := history(4, func(i int) float64 { return 100 })
	recs[3].Momentum30 = -0.07
	res, err := Analyze(recs, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.InDelta(t, -0.07, res.RecentMomentum, 1e-12)
}

func TestAnalyzeSeasonalStats(t *testing.T) {
	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	recs := []models.DerivedRecord{
		{SaleRecord: models.SaleRecord{Date: jan, Price: 90}},
		{SaleRecord: models.SaleRecord{Date: jan.AddDate(0, 0, 1), Price: 110}},
		{SaleRecord: models.SaleRecord{Date: feb, Price: 200}},
	}
	res, err := Analyze(recs, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, res.Seasonal, 2)

	assert.Equal(t, time.January, res.Seasonal[0].Month)
	assert.InDelta(t, 100, res.Seasonal[0].Mean, 1e-12)
	assert.Equal(t, 2, res.Seasonal[0].Count)
	assert.Equal(t, time.February, res.Seasonal[1].Month)
	assert.Equal(t, 1, res.Seasonal[1].Count)
}

func TestAnalyzeTrendTailCap(t *testing.T) {
	// 50 rows of steep growth followed by a flat tail: the fit must only see
	// the last 30 rows.
	recs := history(50, func(i int) float64 {
		if i < 20 {
			return float64(100 + i*50)
		}
		return 1000
	})
	res, err := Analyze(recs, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.InDelta(t, 0, res.TrendSlope, 1e-9)
}
