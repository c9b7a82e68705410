package models

import "time"

// PredictionResult is one per predicted row. The interval is empirical: it
// measures disagreement among ensemble members, not a parametric confidence
// interval.
type PredictionResult struct {
	Date            time.Time `json:"date"`
	PredictedPrice  float64   `json:"predicted_price"`
	LowerBound      float64   `json:"lower_bound"`
	UpperBound      float64   `json:"upper_bound"`
	ConfidenceRange float64   `json:"confidence_range"`
}

// TrainingReport captures a completed training run.
type TrainingReport struct {
	ModelID      string    `json:"model_id"`
	TrainedAt    time.Time `json:"trained_at"`
	Samples      int       `json:"samples"`
	Features     int       `json:"features"`
	Members      int       `json:"members"`
	TrainRMSE    float64   `json:"train_rmse"`
	TrainSeconds float64   `json:"train_seconds"`
}
