package usecase

import (
	"context"
	"fmt"
	"time"

	"Stockyard/internal/domain/models"
	domrepo "Stockyard/internal/domain/repository"
)

// RecordsUseCase provides business logic for retrieving raw sale records.
type RecordsUseCase struct {
	store domrepo.Storage
}

func NewRecordsUseCase(store domrepo.Storage) *RecordsUseCase {
	return &RecordsUseCase{store: store}
}

type GetRecordsParams struct {
	Market string
	From   time.Time
	To     time.Time
	Limit  int
}

type GetRecordsResult struct {
	Market  string              `json:"market"`
	From    time.Time           `json:"from"`
	To      time.Time           `json:"to"`
	Count   int                 `json:"count"`
	Records []models.SaleRecord `json:"records"`
}

func (uc *RecordsUseCase) GetRecords(ctx context.Context, p GetRecordsParams) (*GetRecordsResult, error) {
	if p.Market == "" {
		return nil, fmt.Errorf("market required")
	}
	if !p.From.IsZero() && !p.To.IsZero() && p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}
	if p.Limit <= 0 {
		p.Limit = 10000
	}
	if p.Limit > 50000 {
		p.Limit = 50000
	}

	records, err := uc.store.Query(ctx, p.Market, p.From, p.To, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("get records: %w", err)
	}

	return &GetRecordsResult{
		Market:  p.Market,
		From:    p.From,
		To:      p.To,
		Count:   len(records),
		Records: records,
	}, nil
}
