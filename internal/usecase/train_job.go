package usecase

import (
	"context"
	"fmt"
	"time"

	domrepo "Stockyard/internal/domain/repository"
	applogger "Stockyard/pkg/logger"
	"Stockyard/pkg/queue"
	"Stockyard/pkg/util"
)

// TrainMessageType is the queue message type handled by TrainJob.
const TrainMessageType = "advisor.train"

// TrainJobPayload selects which history slice to train on.
type TrainJobPayload struct {
	Market string `json:"market"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// TrainJob retrains the advisor from stored history. Enqueued by the API
// for async training so long fits never block a request.
type TrainJob struct {
	advisor *Advisor
	store   domrepo.Storage
	l       *applogger.Logger
}

var _ queue.Job = (*TrainJob)(nil)

func NewTrainJob(advisor *Advisor, store domrepo.Storage, l *applogger.Logger) *TrainJob {
	return &TrainJob{advisor: advisor, store: store, l: l}
}

func (j *TrainJob) Name() string { return "advisor-train" }
func (j *TrainJob) Type() string { return TrainMessageType }

func (j *TrainJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[TrainJobPayload](payload)
	if err != nil {
		return fmt.Errorf("train job: parse payload: %w", err)
	}
	if p.Market == "" {
		return fmt.Errorf("train job: market required")
	}

	from := util.ParseTimeDefault(p.From, time.Time{})
	to := util.ParseTimeDefault(p.To, time.Time{})
	limit := p.Limit
	if limit <= 0 {
		limit = 50000
	}

	records, err := j.store.Query(ctx, p.Market, from, to, limit)
	if err != nil {
		return fmt.Errorf("train job: load history: %w", err)
	}

	report, err := j.advisor.Train(ctx, records)
	if err != nil {
		return fmt.Errorf("train job: %w", err)
	}

	if j.l != nil {
		j.l.Info("async training complete",
			applogger.String("market", p.Market),
			applogger.String("model_id", report.ModelID),
			applogger.Int("samples", report.Samples),
			applogger.Float64("train_rmse", report.TrainRMSE),
		)
	}
	return nil
}
