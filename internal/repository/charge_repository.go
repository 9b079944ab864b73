package repository

import (
	"context"
	"errors"
	"time"

	"github.com/habitek/habitek-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChargeRepository defines the interface for unit charge data access
type ChargeRepository interface {
	FindByID(ctx context.Context, id uint) (*models.UnitCharge, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*models.UnitCharge, error)
	Create(ctx context.Context, charge *models.UnitCharge) error
	Update(ctx context.Context, charge *models.UnitCharge) error
	ExistsForUnitAndPeriod(ctx context.Context, unitID uint, period string) (bool, error)
	FindOutstandingByUnitForUpdate(ctx context.Context, unitID uint) ([]models.UnitCharge, error)
	FindByBuildingAndPeriod(ctx context.Context, buildingID uint, period string) ([]models.UnitCharge, error)
	FindOutstandingByBuilding(ctx context.Context, buildingID uint) ([]models.UnitCharge, error)
	FindOverdueCandidates(ctx context.Context, now time.Time) ([]models.UnitCharge, error)
	FindDueSoon(ctx context.Context, from, to time.Time) ([]models.UnitCharge, error)
	List(ctx context.Context, query *ListQuery) ([]models.UnitCharge, int64, error)
	FindByUnit(ctx context.Context, unitID uint) ([]models.UnitCharge, error)
}

type chargeRepository struct {
	db *gorm.DB
}

// NewChargeRepository creates a new charge repository
func NewChargeRepository(db *gorm.DB) ChargeRepository {
	return &chargeRepository{db: db}
}

func (r *chargeRepository) FindByID(ctx context.Context, id uint) (*models.UnitCharge, error) {
	var charge models.UnitCharge
	err := r.db.WithContext(ctx).
		Preload("Unit").
		First(&charge, id).Error
	if err != nil {
		return nil, err
	}
	return &charge, nil
}

// FindByIDForUpdate locks the charge row for the duration of the transaction
func (r *chargeRepository) FindByIDForUpdate(ctx context.Context, id uint) (*models.UnitCharge, error) {
	var charge models.UnitCharge
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&charge, id).Error
	if err != nil {
		return nil, err
	}
	return &charge, nil
}

func (r *chargeRepository) Create(ctx context.Context, charge *models.UnitCharge) error {
	if err := r.db.WithContext(ctx).Create(charge).Error; err != nil {
		if isDuplicateKeyError(err, "idx_unit_charges_unit_period") {
			return errors.New("a charge for this unit and period already exists")
		}
		return err
	}
	return nil
}

func (r *chargeRepository) Update(ctx context.Context, charge *models.UnitCharge) error {
	return r.db.WithContext(ctx).Save(charge).Error
}

func (r *chargeRepository) ExistsForUnitAndPeriod(ctx context.Context, unitID uint, period string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UnitCharge{}).
		Where("unit_id = ? AND period = ?", unitID, period).
		Count(&count).Error
	return count > 0, err
}

// FindOutstandingByUnitForUpdate returns the unit's unpaid charges oldest
// period first, locked so a concurrent allocation cannot read the same rows.
func (r *chargeRepository) FindOutstandingByUnitForUpdate(ctx context.Context, unitID uint) ([]models.UnitCharge, error) {
	var charges []models.UnitCharge
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("unit_id = ? AND status NOT IN ? AND amount_paid < amount_due",
			unitID, []string{models.ChargeStatusPaid, models.ChargeStatusCancelled}).
		Order("period ASC, id ASC").
		Find(&charges).Error
	return charges, err
}

func (r *chargeRepository) FindByBuildingAndPeriod(ctx context.Context, buildingID uint, period string) ([]models.UnitCharge, error) {
	var charges []models.UnitCharge
	err := r.db.WithContext(ctx).
		Preload("Unit").
		Where("building_id = ? AND period = ?", buildingID, period).
		Order("unit_id ASC").
		Find(&charges).Error
	return charges, err
}

func (r *chargeRepository) FindOutstandingByBuilding(ctx context.Context, buildingID uint) ([]models.UnitCharge, error) {
	var charges []models.UnitCharge
	err := r.db.WithContext(ctx).
		Preload("Unit").
		Where("building_id = ? AND status NOT IN ? AND amount_paid < amount_due",
			buildingID, []string{models.ChargeStatusPaid, models.ChargeStatusCancelled}).
		Order("unit_id ASC, period ASC").
		Find(&charges).Error
	return charges, err
}

// FindOverdueCandidates returns unpaid charges whose due date has passed but
// whose stored status has not caught up yet
func (r *chargeRepository) FindOverdueCandidates(ctx context.Context, now time.Time) ([]models.UnitCharge, error) {
	var charges []models.UnitCharge
	err := r.db.WithContext(ctx).
		Where("due_date < ? AND status IN ?",
			now, []string{models.ChargeStatusPending, models.ChargeStatusPartiallyPaid}).
		Find(&charges).Error
	return charges, err
}

// FindDueSoon returns unpaid charges with a due date inside [from, to)
func (r *chargeRepository) FindDueSoon(ctx context.Context, from, to time.Time) ([]models.UnitCharge, error) {
	var charges []models.UnitCharge
	err := r.db.WithContext(ctx).
		Preload("Unit").
		Where("due_date >= ? AND due_date < ? AND status IN ?",
			from, to, []string{models.ChargeStatusPending, models.ChargeStatusPartiallyPaid}).
		Find(&charges).Error
	return charges, err
}

func (r *chargeRepository) List(ctx context.Context, query *ListQuery) ([]models.UnitCharge, int64, error) {
	var charges []models.UnitCharge
	var total int64

	db := r.db.WithContext(ctx).Model(&models.UnitCharge{})

	if query.Filters["building_id"] != "" {
		db = db.Where("building_id = ?", query.Filters["building_id"])
	}

	if query.Filters["unit_id"] != "" {
		db = db.Where("unit_id = ?", query.Filters["unit_id"])
	}

	if query.Filters["period"] != "" {
		db = db.Where("period = ?", query.Filters["period"])
	}

	if query.Filters["status"] != "" {
		db = db.Where("status = ?", query.Filters["status"])
	}

	db.Count(&total)

	if query.SortBy != "" {
		order := query.SortBy
		if query.SortDir == "desc" {
			order += " DESC"
		}
		db = db.Order(order)
	} else {
		db = db.Order("period DESC, unit_id ASC")
	}

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Preload("Unit").Find(&charges).Error
	return charges, total, err
}

func (r *chargeRepository) FindByUnit(ctx context.Context, unitID uint) ([]models.UnitCharge, error) {
	var charges []models.UnitCharge
	err := r.db.WithContext(ctx).
		Where("unit_id = ?", unitID).
		Order("period DESC").
		Find(&charges).Error
	return charges, err
}
