package usecase

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"testing"
	"time"

	"Stockyard/internal/domain/models"
	"Stockyard/internal/services/features"
	"Stockyard/internal/services/forest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saleHistory(n int) []models.SaleRecord {
	rng := rand.New(rand.NewSource(11))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	breeds := []string{"Angus", "Hereford", "Charolais"}
	out := make([]models.SaleRecord, n)
	for i := 0; i < n; i++ {
		out[i] = models.SaleRecord{
			Date:   start.AddDate(0, 0, i),
			Price:  150 + 0.2*float64(i) + rng.NormFloat64()*3,
			Weight: 500 + rng.Float64()*100,
			Age:    1 + rng.Float64()*3,
			Breed:  breeds[i%len(breeds)],
			Season: "Winter",
			Market: "abilene",
		}
	}
	return out
}

func testConfig() forest.Config {
	return forest.Config{Trees: 12, MaxDepth: 6, MinLeaf: 2, Seed: 1}
}

func TestPredictBeforeTraining(t *testing.T) {
	adv := NewAdvisor(testConfig())
	_, err := adv.PredictWithConfidence(context.Background(), saleHistory(60))
	assert.ErrorIs(t, err, models.ErrModelNotTrained)
}

func TestTrainTooShortHistory(t *testing.T) {
	adv := NewAdvisor(testConfig())
	_, err := adv.Train(context.Background(), saleHistory(20))
	assert.Error(t, err)
}

func TestTrainReport(t *testing.T) {
	adv := NewAdvisor(testConfig())
	report, err := adv.Train(context.Background(), saleHistory(90))
	require.NoError(t, err)

	assert.NotEmpty(t, report.ModelID)
	assert.Equal(t, 60, report.Samples) // 30 warm-up rows dropped
	assert.Equal(t, 12, report.Members)
	assert.Greater(t, report.Features, 16)
	assert.GreaterOrEqual(t, report.TrainRMSE, 0.0)

	m := adv.Model()
	require.NotNil(t, m)
	assert.Equal(t, report.ModelID, m.ID)
	assert.Len(t, m.Schema, report.Features)
}

func TestPredictIntervalOrdering(t *testing.T) {
	adv := NewAdvisor(testConfig())
	history := saleHistory(90)
	_, err := adv.Train(context.Background(), history)
	require.NoError(t, err)

	preds, err := adv.PredictWithConfidence(context.Background(), history)
	require.NoError(t, err)
	require.Len(t, preds, 60)

	for _, p := range preds {
		assert.LessOrEqual(t, p.LowerBound, p.PredictedPrice)
		assert.LessOrEqual(t, p.PredictedPrice, p.UpperBound)
		assert.InDelta(t, p.UpperBound-p.LowerBound, p.ConfidenceRange, 1e-9)
	}
}

func TestPredictShortInputEmptyNotError(t *testing.T) {
	adv := NewAdvisor(testConfig())
	_, err := adv.Train(context.Background(), saleHistory(90))
	require.NoError(t, err)

	preds, err := adv.PredictWithConfidence(context.Background(), saleHistory(10))
	require.NoError(t, err)
	assert.NotNil(t, preds)
	assert.Empty(t, preds)
}

func TestSingleMemberIntervalCollapses(t *testing.T) {
	adv := NewAdvisor(forest.Config{Trees: 1, MaxDepth: 6, MinLeaf: 2, Seed: 1})
	history := saleHistory(90)
	_, err := adv.Train(context.Background(), history)
	require.NoError(t, err)

	preds, err := adv.PredictWithConfidence(context.Background(), history)
	require.NoError(t, err)
	require.NotEmpty(t, preds)
	for _, p := range preds {
		assert.InDelta(t, p.PredictedPrice, p.LowerBound, 1e-9)
		assert.InDelta(t, p.PredictedPrice, p.UpperBound, 1e-9)
		assert.InDelta(t, 0, p.ConfidenceRange, 1e-9)
	}
}

func TestAnalyzeTrendRequiresTraining(t *testing.T) {
	adv := NewAdvisor(testConfig())
	_, err := adv.AnalyzeTrend(context.Background(), time.Time{}, time.Time{})
	assert.ErrorIs(t, err, models.ErrNoHistory)
}

func TestAnalyzeTrendAfterTraining(t *testing.T) {
	adv := NewAdvisor(testConfig())
	_, err := adv.Train(context.Background(), saleHistory(90))
	require.NoError(t, err)

	res, err := adv.AnalyzeTrend(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 60, res.Count)
	assert.Contains(t, []string{models.RegimeBullish, models.RegimeBearish}, res.Regime)
}

func TestTrainedModelJSONRoundTrip(t *testing.T) {
	adv := NewAdvisor(testConfig())
	history := saleHistory(90)
	_, err := adv.Train(context.Background(), history)
	require.NoError(t, err)
	m := adv.Model()

	blob, err := json.Marshal(m)
	require.NoError(t, err)
	var restored TrainedModel
	require.NoError(t, json.Unmarshal(blob, &restored))

	// restored model predicts identically
	adv2 := NewAdvisor(testConfig())
	adv2.mu.Lock()
	adv2.model = &restored
	adv2.mu.Unlock()

	a, err := adv.PredictWithConfidence(context.Background(), history)
	require.NoError(t, err)
	b, err := adv2.PredictWithConfidence(context.Background(), history)
	require.NoError(t, err)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.InDelta(t, a[i].PredictedPrice, b[i].PredictedPrice, 1e-9)
		assert.InDelta(t, a[i].LowerBound, b[i].LowerBound, 1e-9)
		assert.InDelta(t, a[i].UpperBound, b[i].UpperBound, 1e-9)
	}
}

func TestTrainPredictRMSERoundTrip(t *testing.T) {
	adv := NewAdvisor(testConfig())
	history := saleHistory(90)
	report, err := adv.Train(context.Background(), history)
	require.NoError(t, err)

	// Predicting on the exact training rows must reproduce the fit error
	// the training report claims.
	preds, err := adv.PredictWithConfidence(context.Background(), history)
	require.NoError(t, err)
	derived := features.Derive(history)
	require.Equal(t, len(derived), len(preds))

	var sse float64
	for i, p := range preds {
		d := p.PredictedPrice - derived[i].Price
		sse += d * d
	}
	rmse := math.Sqrt(sse / float64(len(preds)))
	assert.InDelta(t, report.TrainRMSE, rmse, 1e-9)
}
