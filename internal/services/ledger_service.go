package services

import (
	"context"

	"github.com/habitek/habitek-api/internal/models"
	"github.com/habitek/habitek-api/internal/repository"
)

// LedgerService exposes the read side of the building ledger. Writes only
// happen inside charge, payment and expense transactions.
type LedgerService struct {
	repo repository.LedgerRepository
}

func NewLedgerService(repo repository.LedgerRepository) *LedgerService {
	return &LedgerService{repo: repo}
}

func (s *LedgerService) FindByBuilding(ctx context.Context, buildingID uint, query *repository.ListQuery) ([]models.LedgerEntry, int64, error) {
	return s.repo.FindByBuilding(ctx, buildingID, query)
}

func (s *LedgerService) FindByUnit(ctx context.Context, unitID uint) ([]models.LedgerEntry, error) {
	return s.repo.FindByUnit(ctx, unitID)
}

func (s *LedgerService) CurrentBalance(ctx context.Context, buildingID uint) (float64, error) {
	return s.repo.CurrentBalance(ctx, buildingID)
}
