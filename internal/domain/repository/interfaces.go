package repository

import (
	"context"
	"time"

	"Stockyard/internal/domain/models"
)

// MarketStream is a live source of sale records (auction floor feed).
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.SaleRecord, <-chan error)
	Backfill(ctx context.Context, market string, days int) ([]*models.SaleRecord, error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher pushes sale records onto the ingestion bus.
type Publisher interface {
	Publish(ctx context.Context, r *models.SaleRecord) error
	PublishBatch(ctx context.Context, records []*models.SaleRecord) error
	Close() error
}

// Storage persists and serves raw sale records.
type Storage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, r *models.SaleRecord) error
	StoreBatch(ctx context.Context, records []*models.SaleRecord) error
	Query(ctx context.Context, market string, from, to time.Time, limit int) ([]models.SaleRecord, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// HistoryReader serves read-only sale history slices for analysis and
// prediction context, without exposing the write side of Storage.
type HistoryReader interface {
	GetHistory(ctx context.Context, market string, from, to time.Time) ([]models.SaleRecord, error)
	GetLatestN(ctx context.Context, market string, n int) ([]models.SaleRecord, error)
}

// Metrics records operational measurements.
type Metrics interface {
	RecordIngested(backend, market string)
	RecordError(kind string)
	RecordLastPrice(market string, price float64)
	RecordLatency(op string, seconds float64)
}
