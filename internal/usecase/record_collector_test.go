package usecase

import (
	"context"
	"testing"
	"time"

	"Stockyard/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStream struct {
	backfill  map[string][]*models.SaleRecord
	asked     []string
	askedDays []int
	recCh     chan *models.SaleRecord
	errCh     chan error
}

func newStubStream() *stubStream {
	return &stubStream{
		backfill: map[string][]*models.SaleRecord{},
		recCh:    make(chan *models.SaleRecord),
		errCh:    make(chan error),
	}
}

func (s *stubStream) Connect(ctx context.Context) error   { return nil }
func (s *stubStream) Subscribe(ctx context.Context) error { return nil }
func (s *stubStream) Read(ctx context.Context) (<-chan *models.SaleRecord, <-chan error) {
	return s.recCh, s.errCh
}
func (s *stubStream) Backfill(ctx context.Context, market string, days int) ([]*models.SaleRecord, error) {
	s.asked = append(s.asked, market)
	s.askedDays = append(s.askedDays, days)
	return s.backfill[market], nil
}
func (s *stubStream) Reconnect(ctx context.Context) error { return nil }
func (s *stubStream) Close() error                        { return nil }
func (s *stubStream) IsConnected() bool                   { return true }

type capturingStorage struct {
	batches [][]*models.SaleRecord
}

func (c *capturingStorage) Init(ctx context.Context) error                  { return nil }
func (c *capturingStorage) Store(ctx context.Context, r *models.SaleRecord) error { return nil }
func (c *capturingStorage) StoreBatch(ctx context.Context, records []*models.SaleRecord) error {
	c.batches = append(c.batches, records)
	return nil
}
func (c *capturingStorage) Query(ctx context.Context, market string, from, to time.Time, limit int) ([]models.SaleRecord, error) {
	return nil, nil
}
func (c *capturingStorage) Health(ctx context.Context) error { return nil }
func (c *capturingStorage) Close() error                     { return nil }

type noopMetrics struct{}

func (noopMetrics) RecordIngested(backend, market string)        {}
func (noopMetrics) RecordError(kind string)                      {}
func (noopMetrics) RecordLastPrice(market string, price float64) {}
func (noopMetrics) RecordLatency(op string, seconds float64)     {}

func TestCollectorBackfillsConfiguredMarkets(t *testing.T) {
	stream := newStubStream()
	stream.backfill["abilene"] = []*models.SaleRecord{
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Price: 150, Market: "abilene"},
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Price: 152, Market: "abilene"},
	}
	stream.backfill["amarillo"] = []*models.SaleRecord{
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Price: 148, Market: "amarillo"},
	}

	store := &capturingStorage{}
	proc := NewRecordProcessor(nil, store, noopMetrics{}, "clickhouse", 100, time.Second)
	coll := NewRecordCollector(stream, proc, noopMetrics{}, nil, []string{"abilene", "amarillo"}, 45)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, coll.Start(ctx))

	assert.Equal(t, []string{"abilene", "amarillo"}, stream.asked)
	assert.Equal(t, []int{45, 45}, stream.askedDays)
	require.Len(t, store.batches, 2)
	assert.Len(t, store.batches[0], 2)
	assert.Len(t, store.batches[1], 1)
	assert.Equal(t, "abilene", store.batches[0][0].Market)
}

func TestCollectorBackfillDaysDefault(t *testing.T) {
	stream := newStubStream()
	store := &capturingStorage{}
	proc := NewRecordProcessor(nil, store, noopMetrics{}, "clickhouse", 100, time.Second)
	coll := NewRecordCollector(stream, proc, noopMetrics{}, nil, []string{"abilene"}, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, coll.Start(ctx))

	require.Len(t, stream.askedDays, 1)
	assert.Equal(t, defaultBackfillDays, stream.askedDays[0])
	// no records came back, so nothing was stored
	assert.Empty(t, store.batches)
}
