package usecase

import (
	"context"

	"Stockyard/internal/domain/models"
	drepo "Stockyard/internal/domain/repository"
	mid "Stockyard/internal/middleware"
)

// Default history depth fetched per market before the live stream starts,
// enough to fill the 30-row rolling windows with headroom.
const defaultBackfillDays = 60

// RecordCollector collects sale records from the market stream and processes them.
type RecordCollector struct {
	stream       drepo.MarketStream
	proc         *RecordProcessor
	metrics      drepo.Metrics
	pipe         *mid.RealtimePipeline
	markets      []string
	backfillDays int
}

// NewRecordCollector creates a new RecordCollector instance.
func NewRecordCollector(stream drepo.MarketStream, proc *RecordProcessor, metrics drepo.Metrics, pipe *mid.RealtimePipeline, markets []string, backfillDays int) *RecordCollector {
	if backfillDays <= 0 {
		backfillDays = defaultBackfillDays
	}
	return &RecordCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe, markets: markets, backfillDays: backfillDays}
}

// IsConnected returns true if the market stream is connected.
func (c *RecordCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *RecordCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	c.backfill(ctx)
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	recCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, recCh, errCh)
	return nil
}

// backfill loads recent history for each configured market so rolling
// windows are warm before live records arrive. A failed market is skipped,
// not fatal: the live stream fills the gap eventually.
func (c *RecordCollector) backfill(ctx context.Context) {
	for _, m := range c.markets {
		recs, err := c.stream.Backfill(ctx, m, c.backfillDays)
		if err != nil {
			c.metrics.RecordError("backfill")
			continue
		}
		if len(recs) == 0 {
			continue
		}
		if err := c.proc.ProcessBatch(ctx, recs); err != nil {
			c.metrics.RecordError("backfill")
		}
	}
}

func (c *RecordCollector) consume(ctx context.Context, recCh <-chan *models.SaleRecord, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case r := <-recCh:
			if r == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, r)
			} else {
				_ = c.proc.Process(ctx, r)
			}
			c.metrics.RecordLastPrice(r.Market, r.Price)
		}
	}
}

func (c *RecordCollector) Stop() error { return c.stream.Close() }

// Processor returns the underlying RecordProcessor for lifecycle management.
func (c *RecordCollector) Processor() *RecordProcessor { return c.proc }

// Shutdown stops pipeline and closes stream.
func (c *RecordCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
