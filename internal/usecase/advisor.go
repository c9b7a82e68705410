package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"Stockyard/internal/domain/models"
	domrepo "Stockyard/internal/domain/repository"
	"Stockyard/internal/services/analytics"
	"Stockyard/internal/services/features"
	"Stockyard/internal/services/forest"
	applogger "Stockyard/pkg/logger"

	"github.com/google/uuid"
)

// TrainedModel owns everything a prediction needs: the training-time column
// schema, the fitted scaler, and the ensemble. Written once by Train, read
// only afterward; the Advisor hands out the pointer but never mutates a
// model in place.
type TrainedModel struct {
	ID        string                   `json:"id"`
	TrainedAt time.Time                `json:"trained_at"`
	Schema    []string                 `json:"schema"`
	Scaler    *features.StandardScaler `json:"scaler"`
	Forest    *forest.Forest           `json:"forest"`
	TrainRMSE float64                  `json:"train_rmse"`
	Samples   int                      `json:"samples"`
}

// Advisor orchestrates the prediction pipeline: trend derivation, feature
// assembly, ensemble training, and confidence-interval prediction. Safe for
// concurrent predictions; Train swaps the model and history snapshot under
// the write lock, so retraining never interleaves with in-flight reads.
type Advisor struct {
	mu      sync.RWMutex
	model   *TrainedModel
	history []models.DerivedRecord

	cfg     forest.Config
	store   domrepo.ModelStore
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func NewAdvisor(cfg forest.Config) *Advisor {
	return &Advisor{cfg: cfg}
}

// SetLogger injects a structured logger.
func (a *Advisor) SetLogger(l *applogger.Logger) { a.l = l }

// SetMetrics injects an operational metrics recorder.
func (a *Advisor) SetMetrics(m domrepo.Metrics) { a.metrics = m }

// SetModelStore injects a persistence backend for trained models.
func (a *Advisor) SetModelStore(s domrepo.ModelStore) { a.store = s }

// Train derives trend features from the raw history, assembles the feature
// table, fits the scaler and the ensemble, and installs the resulting model
// together with the derived history snapshot used by AnalyzeTrend.
func (a *Advisor) Train(ctx context.Context, recs []models.SaleRecord) (*models.TrainingReport, error) {
	start := time.Now()

	derived := features.Derive(recs)
	if len(derived) == 0 {
		return nil, fmt.Errorf("train: %d records leave no usable rows after warm-up", len(recs))
	}
	table := features.Assemble(derived)
	target := features.Target(derived)

	scaler := features.NewStandardScaler()
	scaler.Fit(table.Rows)
	scaled := scaler.Transform(table.Rows)

	f, err := forest.Fit(scaled, target, a.cfg)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}

	model := &TrainedModel{
		ID:        uuid.NewString(),
		TrainedAt: time.Now(),
		Schema:    table.Columns,
		Scaler:    scaler,
		Forest:    f,
		Samples:   len(derived),
	}
	model.TrainRMSE = trainRMSE(f, scaled, target)

	a.mu.Lock()
	a.model = model
	a.history = derived
	a.mu.Unlock()

	if a.store != nil {
		if err := a.persist(ctx, model); err != nil {
			if a.l != nil {
				a.l.Warn("advisor model persist failed", applogger.Error(err))
			}
		}
	}

	report := &models.TrainingReport{
		ModelID:      model.ID,
		TrainedAt:    model.TrainedAt,
		Samples:      model.Samples,
		Features:     len(model.Schema),
		Members:      len(f.Trees),
		TrainRMSE:    model.TrainRMSE,
		TrainSeconds: time.Since(start).Seconds(),
	}
	if a.l != nil {
		a.l.Info("advisor trained",
			applogger.String("model_id", model.ID),
			applogger.Int("samples", report.Samples),
			applogger.Int("features", report.Features),
			applogger.Float64("rmse", report.TrainRMSE),
		)
	}
	if a.metrics != nil {
		a.metrics.RecordLatency("train", time.Since(start).Seconds())
	}
	return report, nil
}

// PredictWithConfidence predicts one price per derivable input row, with an
// empirical 95% interval from per-member disagreement. Rows without full
// rolling windows are silently dropped, so callers supplying fewer than the
// warm-up length get an empty result rather than an error.
func (a *Advisor) PredictWithConfidence(ctx context.Context, recs []models.SaleRecord) ([]models.PredictionResult, error) {
	a.mu.RLock()
	model := a.model
	a.mu.RUnlock()
	if model == nil || len(model.Schema) == 0 {
		return nil, models.ErrModelNotTrained
	}

	start := time.Now()
	derived := features.Derive(recs)
	if len(derived) == 0 {
		return []models.PredictionResult{}, nil
	}
	table := features.Assemble(derived).Align(model.Schema)
	scaled := model.Scaler.Transform(table.Rows)

	members := model.Forest.Members()
	// M x N member prediction matrix; members are read-only so the fan-out
	// needs no coordination beyond the final wait.
	preds := make([][]float64, len(members))
	var wg sync.WaitGroup
	for m, member := range members {
		wg.Add(1)
		go func(m int, member interface{ Predict([]float64) float64 }) {
			defer wg.Done()
			row := make([]float64, len(scaled))
			for i, x := range scaled {
				row[i] = member.Predict(x)
			}
			preds[m] = row
		}(m, member)
	}
	wg.Wait()

	out := make([]models.PredictionResult, len(derived))
	col := make([]float64, len(members))
	for i := range derived {
		for m := range members {
			col[m] = preds[m][i]
		}
		lower := analytics.Percentile(col, 2.5)
		upper := analytics.Percentile(col, 97.5)
		out[i] = models.PredictionResult{
			Date:            derived[i].Date,
			PredictedPrice:  analytics.Mean(col),
			LowerBound:      lower,
			UpperBound:      upper,
			ConfidenceRange: upper - lower,
		}
	}
	if a.metrics != nil {
		a.metrics.RecordLatency("predict", time.Since(start).Seconds())
	}
	return out, nil
}

// AnalyzeTrend runs market diagnostics over the derived history captured by
// the last Train call, optionally restricted to [from, to].
func (a *Advisor) AnalyzeTrend(ctx context.Context, from, to time.Time) (*models.TrendAnalysis, error) {
	a.mu.RLock()
	history := a.history
	a.mu.RUnlock()
	return analytics.Analyze(history, from, to)
}

// AnalyzeRecords derives features for an explicit history and analyzes it,
// for callers (CLI, batch jobs) that bring their own records.
func (a *Advisor) AnalyzeRecords(recs []models.SaleRecord, from, to time.Time) (*models.TrendAnalysis, error) {
	return analytics.Analyze(features.Derive(recs), from, to)
}

// Model returns the current trained model, or nil before training.
func (a *Advisor) Model() *TrainedModel {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.model
}

// LoadLatest restores the most recently persisted model. The analysis
// history is not persisted; AnalyzeTrend keeps returning ErrNoHistory until
// the next Train.
func (a *Advisor) LoadLatest(ctx context.Context) error {
	if a.store == nil {
		return fmt.Errorf("load model: no model store configured")
	}
	id, blob, err := a.store.LoadLatest(ctx)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	var m TrainedModel
	if err := json.Unmarshal(blob, &m); err != nil {
		return fmt.Errorf("decode model %s: %w", id, err)
	}
	a.mu.Lock()
	a.model = &m
	a.mu.Unlock()
	if a.l != nil {
		a.l.Info("advisor model loaded", applogger.String("model_id", m.ID))
	}
	return nil
}

func (a *Advisor) persist(ctx context.Context, m *TrainedModel) error {
	blob, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	return a.store.Save(ctx, m.ID, blob)
}

func trainRMSE(f *forest.Forest, rows [][]float64, target []float64) float64 {
	members := f.Members()
	var sse float64
	for i, row := range rows {
		sum := 0.0
		for _, m := range members {
			sum += m.Predict(row)
		}
		d := sum/float64(len(members)) - target[i]
		sse += d * d
	}
	return math.Sqrt(sse / float64(len(rows)))
}
