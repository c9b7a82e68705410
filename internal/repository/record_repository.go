package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"Stockyard/internal/domain/models"
	"Stockyard/internal/domain/repository"
	pkgkafka "Stockyard/pkg/kafka"
)

// ClickHouseStorage implements Storage for ClickHouse.
type ClickHouseStorage struct {
	db    *sql.DB
	table string
}

// NewClickHouseStorage creates ClickHouse storage over the sales table.
func NewClickHouseStorage(db *sql.DB, table string) repository.Storage {
	return &ClickHouseStorage{db: db, table: table}
}

func (s *ClickHouseStorage) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseStorage) Store(ctx context.Context, r *models.SaleRecord) error {
	q := fmt.Sprintf("INSERT INTO %s (sale_date, market, breed, season, price, weight, age, org_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q,
		r.Date,
		r.Market,
		r.Breed,
		r.Season,
		r.Price,
		r.Weight,
		r.Age,
		r.OrgID,
	)
	return err
}

func (s *ClickHouseStorage) StoreBatch(ctx context.Context, records []*models.SaleRecord) error {
	if len(records) == 0 {
		return nil
	}
	// Chunked multi-row VALUES insert to reduce round-trips.
	const chunkSize = 2000
	for start := 0; start < len(records); start += chunkSize {
		end := start + chunkSize
		if end > len(records) {
			end = len(records)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*8)
		for _, r := range records[start:end] {
			if r == nil || r.Market == "" || r.Date.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				r.Date,
				r.Market,
				r.Breed,
				r.Season,
				r.Price,
				r.Weight,
				r.Age,
				r.OrgID,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (sale_date, market, breed, season, price, weight, age, org_id) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseStorage) Query(ctx context.Context, market string, from, to time.Time, limit int) ([]models.SaleRecord, error) {
	var sb strings.Builder
	args := make([]interface{}, 0, 4)

	fmt.Fprintf(&sb, "SELECT sale_date, market, breed, season, price, weight, age FROM %s WHERE market = ?", s.table)
	args = append(args, market)
	if !from.IsZero() {
		sb.WriteString(" AND sale_date >= ?")
		args = append(args, from)
	}
	if !to.IsZero() {
		sb.WriteString(" AND sale_date <= ?")
		args = append(args, to)
	}
	sb.WriteString(" ORDER BY sale_date ASC LIMIT ?")
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.SaleRecord
	for rows.Next() {
		var r models.SaleRecord
		if err := rows.Scan(&r.Date, &r.Market, &r.Breed, &r.Season, &r.Price, &r.Weight, &r.Age); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseStorage) Close() error {
	return nil // Managed by pkg
}

// KafkaPublisher implements Publisher for Kafka.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func salePayload(r *models.SaleRecord) map[string]interface{} {
	return map[string]interface{}{
		"market": r.Market,
		"breed":  r.Breed,
		"season": r.Season,
		"price":  r.Price,
		"weight": r.Weight,
		"age":    r.Age,
		"t":      r.Date.Unix(),
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, r *models.SaleRecord) error {
	return p.producer.Publish(ctx, p.topic, []byte(r.Market), salePayload(r))
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, records []*models.SaleRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(records))
	for i, r := range records {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(r.Market),
			Value: salePayload(r),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
