package service

import (
	"context"
	"time"

	"github.com/guttosm/debpulse/internal/domain/models"
	"github.com/guttosm/debpulse/internal/storage"
)

// MaxRunsLimit caps how many ingestion log entries a single query returns.
const MaxRunsLimit = 100

// PricesService defines read access to persisted debenture prices.
type PricesService interface {
	GetPrices(ctx context.Context, date time.Time) ([]models.PriceRow, error)
	ListRuns(ctx context.Context, limit int) ([]models.IngestionRun, error)
}

type pricesService struct {
	repo storage.PricesRepository
}

func NewPricesService(repo storage.PricesRepository) PricesService {
	return &pricesService{repo: repo}
}

func (s *pricesService) GetPrices(ctx context.Context, date time.Time) ([]models.PriceRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.repo.GetPricesByDate(date)
}

// ListRuns clamps limit to 1..MaxRunsLimit.
func (s *pricesService) ListRuns(ctx context.Context, limit int) ([]models.IngestionRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxRunsLimit {
		limit = MaxRunsLimit
	}
	return s.repo.ListIngestionRuns(limit)
}
