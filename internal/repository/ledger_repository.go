package repository

import (
	"context"
	"errors"

	"github.com/habitek/habitek-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRepository defines the interface for building ledger data access
type LedgerRepository interface {
	Append(ctx context.Context, entry *models.LedgerEntry) error
	FindByBuilding(ctx context.Context, buildingID uint, query *ListQuery) ([]models.LedgerEntry, int64, error)
	FindByUnit(ctx context.Context, unitID uint) ([]models.LedgerEntry, error)
	FindByPayment(ctx context.Context, paymentID uint) ([]models.LedgerEntry, error)
	CurrentBalance(ctx context.Context, buildingID uint) (float64, error)
}

// ledgerRepository handles database operations for ledger entries
type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

// Append inserts a new ledger row and stamps it with the running balance.
// The last row of the building is read under FOR UPDATE so two concurrent
// appends cannot compute the same balance. Must run inside a transaction.
func (r *ledgerRepository) Append(ctx context.Context, entry *models.LedgerEntry) error {
	var last models.LedgerEntry
	prev := 0.0

	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("building_id = ?", entry.BuildingID).
		Order("id DESC").
		First(&last).Error
	if err == nil {
		prev = last.BalanceAfter
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	entry.BalanceAfter = models.Round2(prev + entry.Credit - entry.Debit)
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *ledgerRepository) FindByBuilding(ctx context.Context, buildingID uint, query *ListQuery) ([]models.LedgerEntry, int64, error) {
	var entries []models.LedgerEntry
	var total int64

	db := r.db.WithContext(ctx).Model(&models.LedgerEntry{}).Where("building_id = ?", buildingID)

	if query.Filters["entry_type"] != "" {
		db = db.Where("entry_type = ?", query.Filters["entry_type"])
	}

	if query.Filters["unit_id"] != "" {
		db = db.Where("unit_id = ?", query.Filters["unit_id"])
	}

	if query.Filters["from"] != "" {
		db = db.Where("entry_date >= ?", query.Filters["from"])
	}

	if query.Filters["to"] != "" {
		db = db.Where("entry_date < ?", query.Filters["to"])
	}

	db.Count(&total)

	db = db.Order("id DESC")

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Find(&entries).Error
	return entries, total, err
}

func (r *ledgerRepository) FindByUnit(ctx context.Context, unitID uint) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("unit_id = ?", unitID).
		Order("id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *ledgerRepository) FindByPayment(ctx context.Context, paymentID uint) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("id ASC").
		Find(&entries).Error
	return entries, err
}

// CurrentBalance returns the balance stamped on the building's latest row
func (r *ledgerRepository) CurrentBalance(ctx context.Context, buildingID uint) (float64, error) {
	var last models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("building_id = ?", buildingID).
		Order("id DESC").
		First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return last.BalanceAfter, nil
}
