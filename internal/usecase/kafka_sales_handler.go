package usecase

import (
	"context"
	"encoding/json"
	"time"

	"Stockyard/internal/domain/models"
	domrepo "Stockyard/internal/domain/repository"
	pkgkafka "Stockyard/pkg/kafka"
)

// KafkaSalesHandler consumes sale-record messages and writes them to storage.
type KafkaSalesHandler struct {
	topic   string
	storage domrepo.Storage
	metrics domrepo.Metrics
}

func NewKafkaSalesHandler(topic string, storage domrepo.Storage, metrics domrepo.Metrics) *KafkaSalesHandler {
	return &KafkaSalesHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaSalesHandler) Topic() string { return h.topic }

// incoming message schema: {market, breed, season, price, weight, age, t}
func (h *KafkaSalesHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Market string  `json:"market"`
		Breed  string  `json:"breed"`
		Season string  `json:"season"`
		Price  float64 `json:"price"`
		Weight float64 `json:"weight"`
		Age    float64 `json:"age"`
		T      int64   `json:"t"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.T > 1e11 { // ms
		m.T = m.T / 1000
	}
	// E2E latency from event time to now (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.Unix(m.T, 0)).Seconds())

	start := time.Now()
	err := h.storage.Store(ctx, &models.SaleRecord{
		Date:   time.Unix(m.T, 0).UTC(),
		Price:  m.Price,
		Weight: m.Weight,
		Age:    m.Age,
		Breed:  m.Breed,
		Season: m.Season,
		Market: m.Market,
	})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordIngested("clickhouse", m.Market)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaSalesHandler)(nil)
