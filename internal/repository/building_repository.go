package repository

import (
	"context"

	"github.com/habitek/habitek-api/internal/models"

	"gorm.io/gorm"
)

// BuildingRepository defines the interface for building data access
type BuildingRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Building, error)
	Create(ctx context.Context, building *models.Building) error
	Update(ctx context.Context, building *models.Building) error
	List(ctx context.Context, query *ListQuery) ([]models.Building, int64, error)
	FindActiveWithAutoCharges(ctx context.Context) ([]models.Building, error)
}

type buildingRepository struct {
	db *gorm.DB
}

// NewBuildingRepository creates a new building repository
func NewBuildingRepository(db *gorm.DB) BuildingRepository {
	return &buildingRepository{db: db}
}

func (r *buildingRepository) FindByID(ctx context.Context, id uint) (*models.Building, error) {
	var building models.Building
	err := r.db.WithContext(ctx).First(&building, id).Error
	if err != nil {
		return nil, err
	}
	return &building, nil
}

func (r *buildingRepository) Create(ctx context.Context, building *models.Building) error {
	return r.db.WithContext(ctx).Create(building).Error
}

func (r *buildingRepository) Update(ctx context.Context, building *models.Building) error {
	return r.db.WithContext(ctx).Save(building).Error
}

func (r *buildingRepository) List(ctx context.Context, query *ListQuery) ([]models.Building, int64, error) {
	var buildings []models.Building
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Building{})

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("name ILIKE ? OR address ILIKE ?", search, search)
	}

	if query.Filters["is_active"] != "" {
		db = db.Where("is_active = ?", query.Filters["is_active"] == "true")
	}

	db.Count(&total)

	if query.SortBy != "" {
		order := query.SortBy
		if query.SortDir == "desc" {
			order += " DESC"
		}
		db = db.Order(order)
	} else {
		db = db.Order("name ASC")
	}

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Find(&buildings).Error
	return buildings, total, err
}

// FindActiveWithAutoCharges returns buildings enrolled in scheduled charge generation
func (r *buildingRepository) FindActiveWithAutoCharges(ctx context.Context) ([]models.Building, error) {
	var buildings []models.Building
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND auto_generate_charges = ?", true, true).
		Find(&buildings).Error
	return buildings, err
}

// UnitRepository defines the interface for unit data access
type UnitRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Unit, error)
	FindByIDWithOwner(ctx context.Context, id uint) (*models.Unit, error)
	Create(ctx context.Context, unit *models.Unit) error
	Update(ctx context.Context, unit *models.Unit) error
	List(ctx context.Context, buildingID uint, query *ListQuery) ([]models.Unit, int64, error)
	FindActiveByBuilding(ctx context.Context, buildingID uint) ([]models.Unit, error)
	FindByOwner(ctx context.Context, ownerUserID uint) ([]models.Unit, error)
}

type unitRepository struct {
	db *gorm.DB
}

// NewUnitRepository creates a new unit repository
func NewUnitRepository(db *gorm.DB) UnitRepository {
	return &unitRepository{db: db}
}

func (r *unitRepository) FindByID(ctx context.Context, id uint) (*models.Unit, error) {
	var unit models.Unit
	err := r.db.WithContext(ctx).First(&unit, id).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *unitRepository) FindByIDWithOwner(ctx context.Context, id uint) (*models.Unit, error) {
	var unit models.Unit
	err := r.db.WithContext(ctx).
		Preload("OwnerUser").
		Preload("Building").
		First(&unit, id).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *unitRepository) Create(ctx context.Context, unit *models.Unit) error {
	return r.db.WithContext(ctx).Create(unit).Error
}

func (r *unitRepository) Update(ctx context.Context, unit *models.Unit) error {
	return r.db.WithContext(ctx).Save(unit).Error
}

func (r *unitRepository) List(ctx context.Context, buildingID uint, query *ListQuery) ([]models.Unit, int64, error) {
	var units []models.Unit
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Unit{}).Where("building_id = ?", buildingID)

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("number ILIKE ?", search)
	}

	if query.Filters["is_active"] != "" {
		db = db.Where("is_active = ?", query.Filters["is_active"] == "true")
	}

	if query.Filters["owner_user_id"] != "" {
		db = db.Where("owner_user_id = ?", query.Filters["owner_user_id"])
	}

	db.Count(&total)

	if query.SortBy != "" {
		order := query.SortBy
		if query.SortDir == "desc" {
			order += " DESC"
		}
		db = db.Order(order)
	} else {
		db = db.Order("number ASC")
	}

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Preload("OwnerUser").Find(&units).Error
	return units, total, err
}

func (r *unitRepository) FindActiveByBuilding(ctx context.Context, buildingID uint) ([]models.Unit, error) {
	var units []models.Unit
	err := r.db.WithContext(ctx).
		Where("building_id = ? AND is_active = ?", buildingID, true).
		Order("number ASC").
		Find(&units).Error
	return units, err
}

func (r *unitRepository) FindByOwner(ctx context.Context, ownerUserID uint) ([]models.Unit, error) {
	var units []models.Unit
	err := r.db.WithContext(ctx).
		Where("owner_user_id = ? AND is_active = ?", ownerUserID, true).
		Order("number ASC").
		Find(&units).Error
	return units, err
}

// FeePlanRepository defines the interface for fee plan data access
type FeePlanRepository interface {
	FindByID(ctx context.Context, id uint) (*models.FeePlan, error)
	Create(ctx context.Context, plan *models.FeePlan) error
	Update(ctx context.Context, plan *models.FeePlan) error
	Delete(ctx context.Context, id uint) error
	FindByBuilding(ctx context.Context, buildingID uint) ([]models.FeePlan, error)
	FindActiveByBuilding(ctx context.Context, buildingID uint) ([]models.FeePlan, error)
	HasCharges(ctx context.Context, planID uint) (bool, error)
}

type feePlanRepository struct {
	db *gorm.DB
}

// NewFeePlanRepository creates a new fee plan repository
func NewFeePlanRepository(db *gorm.DB) FeePlanRepository {
	return &feePlanRepository{db: db}
}

func (r *feePlanRepository) FindByID(ctx context.Context, id uint) (*models.FeePlan, error) {
	var plan models.FeePlan
	err := r.db.WithContext(ctx).First(&plan, id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *feePlanRepository) Create(ctx context.Context, plan *models.FeePlan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

func (r *feePlanRepository) Update(ctx context.Context, plan *models.FeePlan) error {
	return r.db.WithContext(ctx).Save(plan).Error
}

func (r *feePlanRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.FeePlan{}, id).Error
}

func (r *feePlanRepository) FindByBuilding(ctx context.Context, buildingID uint) ([]models.FeePlan, error) {
	var plans []models.FeePlan
	err := r.db.WithContext(ctx).
		Where("building_id = ?", buildingID).
		Order("effective_from DESC").
		Find(&plans).Error
	return plans, err
}

func (r *feePlanRepository) FindActiveByBuilding(ctx context.Context, buildingID uint) ([]models.FeePlan, error) {
	var plans []models.FeePlan
	err := r.db.WithContext(ctx).
		Where("building_id = ? AND is_active = ?", buildingID, true).
		Order("effective_from DESC").
		Find(&plans).Error
	return plans, err
}

// HasCharges reports whether any charge was generated from the plan.
// Plans with history must be deactivated instead of deleted.
func (r *feePlanRepository) HasCharges(ctx context.Context, planID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UnitCharge{}).
		Where("fee_plan_id = ?", planID).
		Count(&count).Error
	return count > 0, err
}
