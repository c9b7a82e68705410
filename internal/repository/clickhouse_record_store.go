package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"Stockyard/internal/domain/models"
	pkgch "Stockyard/pkg/clickhouse"
	applogger "Stockyard/pkg/logger"
)

// CHRecordStore reads sale histories out of ClickHouse for training and
// trend analysis. Unlike ClickHouseStorage it is read-only and always
// returns rows in ascending sale_date order.
type CHRecordStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHRecordStore(ch *pkgch.Client, table string) *CHRecordStore {
	return &CHRecordStore{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (s *CHRecordStore) SetLogger(l *applogger.Logger) { s.l = l }

// GetHistory returns a market's history in ascending date order. Zero
// bounds are open-ended.
func (s *CHRecordStore) GetHistory(ctx context.Context, market string, from, to time.Time) ([]models.SaleRecord, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT sale_date, market, breed, season, price, weight, age
        FROM %s
        WHERE market = ?`, s.table)
	args := []interface{}{market}
	if !from.IsZero() {
		q += " AND sale_date >= ?"
		args = append(args, from)
	}
	if !to.IsZero() {
		q += " AND sale_date <= ?"
		args = append(args, to)
	}
	q += " ORDER BY sale_date ASC"
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_history query error",
				applogger.String("table", s.table),
				applogger.String("market", market),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get history: %w", err)
	}
	defer rows.Close()

	out := make([]models.SaleRecord, 0, 1024)
	for rows.Next() {
		var r models.SaleRecord
		if err := rows.Scan(&r.Date, &r.Market, &r.Breed, &r.Season, &r.Price, &r.Weight, &r.Age); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse get_history scan error",
					applogger.String("table", s.table),
					applogger.String("market", market),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_history rows error",
				applogger.String("table", s.table),
				applogger.String("market", market),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse get_history ok",
			applogger.String("table", s.table),
			applogger.String("market", market),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHRecordStore) GetLatestN(ctx context.Context, market string, n int) ([]models.SaleRecord, error) {
	start := time.Now()
	const qtpl = `
        SELECT sale_date, market, breed, season, price, weight, age
        FROM %s
        WHERE market = ?
        ORDER BY sale_date DESC
        LIMIT ?
    `
	q := fmt.Sprintf(qtpl, s.table)
	rows, err := s.db.QueryContext(ctx, q, market, n)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_records query error",
				applogger.String("table", s.table),
				applogger.String("market", market),
				applogger.Int("limit", n),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get latest records: %w", err)
	}
	defer rows.Close()

	tmp := make([]models.SaleRecord, 0, n)
	for rows.Next() {
		var r models.SaleRecord
		if err := rows.Scan(&r.Date, &r.Market, &r.Breed, &r.Season, &r.Price, &r.Weight, &r.Age); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse latest_records scan error",
					applogger.String("table", s.table),
					applogger.String("market", market),
					applogger.Int("limit", n),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan record: %w", err)
		}
		tmp = append(tmp, r)
	}
	if err := rows.Err(); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_records rows error",
				applogger.String("table", s.table),
				applogger.String("market", market),
				applogger.Int("limit", n),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("rows: %w", err)
	}
	// reverse to ASC
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	if s.l != nil {
		s.l.Info("clickhouse latest_records ok",
			applogger.String("table", s.table),
			applogger.String("market", market),
			applogger.Int("limit", n),
			applogger.Int("rows", len(tmp)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return tmp, nil
}
