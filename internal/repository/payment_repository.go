package repository

import (
	"context"
	"errors"

	"github.com/habitek/habitek-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentRepository defines the interface for payment data access
type PaymentRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Payment, error)
	FindByIDWithAllocations(ctx context.Context, id uint) (*models.Payment, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*models.Payment, error)
	FindByProviderReference(ctx context.Context, ref string) (*models.Payment, error)
	Create(ctx context.Context, payment *models.Payment) error
	Update(ctx context.Context, payment *models.Payment) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query *ListQuery) ([]models.Payment, int64, error)
	FindByUnit(ctx context.Context, unitID uint) ([]models.Payment, error)
	FindSucceededWithCreditByUnit(ctx context.Context, unitID uint) ([]models.Payment, error)
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) FindByID(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Preload("Unit").
		Preload("User").
		First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) FindByIDWithAllocations(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Preload("Unit").
		Preload("User").
		Preload("Allocations").
		First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// FindByIDForUpdate locks the payment row for the duration of the transaction
func (r *paymentRepository) FindByIDForUpdate(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) FindByProviderReference(ctx context.Context, ref string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("provider_reference = ?", ref).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		if isDuplicateKeyError(err, "idx_payments_provider_reference") {
			return errors.New("a payment with this provider reference already exists")
		}
		return err
	}
	return nil
}

func (r *paymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

func (r *paymentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Payment{}, id).Error
}

func (r *paymentRepository) List(ctx context.Context, query *ListQuery) ([]models.Payment, int64, error) {
	var payments []models.Payment
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Payment{})

	if query.Filters["unit_id"] != "" {
		db = db.Where("unit_id = ?", query.Filters["unit_id"])
	}

	if query.Filters["user_id"] != "" {
		db = db.Where("user_id = ?", query.Filters["user_id"])
	}

	if query.Filters["building_id"] != "" {
		db = db.Joins("JOIN units ON units.id = payments.unit_id").
			Where("units.building_id = ?", query.Filters["building_id"])
	}

	if query.Filters["status"] != "" {
		db = db.Where("payments.status = ?", query.Filters["status"])
	}

	if query.Filters["method"] != "" {
		db = db.Where("payments.method = ?", query.Filters["method"])
	}

	db.Count(&total)

	if query.SortBy != "" {
		order := "payments." + query.SortBy
		if query.SortDir == "desc" {
			order += " DESC"
		}
		db = db.Order(order)
	} else {
		db = db.Order("payments.payment_date DESC")
	}

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Preload("Unit").Preload("User").Preload("Allocations").Find(&payments).Error
	return payments, total, err
}

func (r *paymentRepository) FindByUnit(ctx context.Context, unitID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Preload("Allocations").
		Where("unit_id = ?", unitID).
		Order("payment_date DESC").
		Find(&payments).Error
	return payments, err
}

// FindSucceededWithCreditByUnit returns succeeded payments that still hold
// unallocated amount, oldest first. Used to consume advance credit when new
// charges are generated.
func (r *paymentRepository) FindSucceededWithCreditByUnit(ctx context.Context, unitID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Preload("Allocations").
		Where("unit_id = ? AND status = ?", unitID, models.PaymentStatusSucceeded).
		Where("amount > (SELECT COALESCE(SUM(allocated_amount), 0) FROM payment_allocations WHERE payment_allocations.payment_id = payments.id)").
		Order("payment_date ASC, id ASC").
		Find(&payments).Error
	return payments, err
}

// AllocationRepository defines the interface for payment allocation data access
type AllocationRepository interface {
	Create(ctx context.Context, allocation *models.PaymentAllocation) error
	FindByPayment(ctx context.Context, paymentID uint) ([]models.PaymentAllocation, error)
	FindByCharge(ctx context.Context, chargeID uint) ([]models.PaymentAllocation, error)
	DeleteByPayment(ctx context.Context, paymentID uint) error
	SumByCharge(ctx context.Context, chargeID uint) (float64, error)
}

type allocationRepository struct {
	db *gorm.DB
}

// NewAllocationRepository creates a new allocation repository
func NewAllocationRepository(db *gorm.DB) AllocationRepository {
	return &allocationRepository{db: db}
}

func (r *allocationRepository) Create(ctx context.Context, allocation *models.PaymentAllocation) error {
	return r.db.WithContext(ctx).Create(allocation).Error
}

func (r *allocationRepository) FindByPayment(ctx context.Context, paymentID uint) ([]models.PaymentAllocation, error) {
	var allocations []models.PaymentAllocation
	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at ASC").
		Find(&allocations).Error
	return allocations, err
}

func (r *allocationRepository) FindByCharge(ctx context.Context, chargeID uint) ([]models.PaymentAllocation, error) {
	var allocations []models.PaymentAllocation
	err := r.db.WithContext(ctx).
		Where("unit_charge_id = ?", chargeID).
		Order("created_at ASC").
		Find(&allocations).Error
	return allocations, err
}

// DeleteByPayment removes a payment's allocations, used when a manual
// payment is edited or deleted and its money must be re-applied
func (r *allocationRepository) DeleteByPayment(ctx context.Context, paymentID uint) error {
	return r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Delete(&models.PaymentAllocation{}).Error
}

func (r *allocationRepository) SumByCharge(ctx context.Context, chargeID uint) (float64, error) {
	var result struct {
		Total float64
	}
	err := r.db.WithContext(ctx).
		Model(&models.PaymentAllocation{}).
		Select("COALESCE(SUM(allocated_amount), 0) as total").
		Where("unit_charge_id = ?", chargeID).
		Scan(&result).Error
	return result.Total, err
}
