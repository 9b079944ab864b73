package repository

import (
	"context"

	"github.com/habitek/habitek-api/internal/models"

	"gorm.io/gorm"
)

// ExpenseRepository defines the interface for expense data access
type ExpenseRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Expense, error)
	Create(ctx context.Context, expense *models.Expense) error
	Update(ctx context.Context, expense *models.Expense) error
	List(ctx context.Context, buildingID uint, query *ListQuery) ([]models.Expense, int64, error)
}

type expenseRepository struct {
	db *gorm.DB
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *gorm.DB) ExpenseRepository {
	return &expenseRepository{db: db}
}

func (r *expenseRepository) FindByID(ctx context.Context, id uint) (*models.Expense, error) {
	var expense models.Expense
	err := r.db.WithContext(ctx).First(&expense, id).Error
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *expenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	return r.db.WithContext(ctx).Create(expense).Error
}

func (r *expenseRepository) Update(ctx context.Context, expense *models.Expense) error {
	return r.db.WithContext(ctx).Save(expense).Error
}

func (r *expenseRepository) List(ctx context.Context, buildingID uint, query *ListQuery) ([]models.Expense, int64, error) {
	var expenses []models.Expense
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Expense{}).Where("building_id = ?", buildingID)

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("vendor_name ILIKE ?", search)
	}

	if query.Filters["category"] != "" {
		db = db.Where("category = ?", query.Filters["category"])
	}

	if query.Filters["from"] != "" {
		db = db.Where("expense_date >= ?", query.Filters["from"])
	}

	if query.Filters["to"] != "" {
		db = db.Where("expense_date < ?", query.Filters["to"])
	}

	db.Count(&total)

	db = db.Order("expense_date DESC, id DESC")

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Find(&expenses).Error
	return expenses, total, err
}

// ServiceRequestRepository defines the interface for service request data access
type ServiceRequestRepository interface {
	FindByID(ctx context.Context, id uint) (*models.ServiceRequest, error)
	Create(ctx context.Context, request *models.ServiceRequest) error
	Update(ctx context.Context, request *models.ServiceRequest) error
	List(ctx context.Context, query *ListQuery) ([]models.ServiceRequest, int64, error)
}

type serviceRequestRepository struct {
	db *gorm.DB
}

// NewServiceRequestRepository creates a new service request repository
func NewServiceRequestRepository(db *gorm.DB) ServiceRequestRepository {
	return &serviceRequestRepository{db: db}
}

func (r *serviceRequestRepository) FindByID(ctx context.Context, id uint) (*models.ServiceRequest, error) {
	var request models.ServiceRequest
	err := r.db.WithContext(ctx).
		Preload("Unit").
		Preload("RequestedByUser").
		Preload("WorkOrders").
		First(&request, id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *serviceRequestRepository) Create(ctx context.Context, request *models.ServiceRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *serviceRequestRepository) Update(ctx context.Context, request *models.ServiceRequest) error {
	return r.db.WithContext(ctx).Save(request).Error
}

func (r *serviceRequestRepository) List(ctx context.Context, query *ListQuery) ([]models.ServiceRequest, int64, error) {
	var requests []models.ServiceRequest
	var total int64

	db := r.db.WithContext(ctx).Model(&models.ServiceRequest{})

	if query.Filters["building_id"] != "" {
		db = db.Where("building_id = ?", query.Filters["building_id"])
	}

	if query.Filters["unit_id"] != "" {
		db = db.Where("unit_id = ?", query.Filters["unit_id"])
	}

	if query.Filters["requested_by_user_id"] != "" {
		db = db.Where("requested_by_user_id = ?", query.Filters["requested_by_user_id"])
	}

	if query.Filters["status"] != "" {
		db = db.Where("status = ?", query.Filters["status"])
	}

	if query.Filters["priority"] != "" {
		db = db.Where("priority = ?", query.Filters["priority"])
	}

	db.Count(&total)

	db = db.Order("created_at DESC")

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Preload("Unit").Find(&requests).Error
	return requests, total, err
}

// WorkOrderRepository defines the interface for work order data access
type WorkOrderRepository interface {
	FindByID(ctx context.Context, id uint) (*models.WorkOrder, error)
	Create(ctx context.Context, order *models.WorkOrder) error
	Update(ctx context.Context, order *models.WorkOrder) error
	List(ctx context.Context, query *ListQuery) ([]models.WorkOrder, int64, error)
	FindByServiceRequest(ctx context.Context, requestID uint) ([]models.WorkOrder, error)
}

type workOrderRepository struct {
	db *gorm.DB
}

// NewWorkOrderRepository creates a new work order repository
func NewWorkOrderRepository(db *gorm.DB) WorkOrderRepository {
	return &workOrderRepository{db: db}
}

func (r *workOrderRepository) FindByID(ctx context.Context, id uint) (*models.WorkOrder, error) {
	var order models.WorkOrder
	err := r.db.WithContext(ctx).
		Preload("ServiceRequest").
		First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *workOrderRepository) Create(ctx context.Context, order *models.WorkOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *workOrderRepository) Update(ctx context.Context, order *models.WorkOrder) error {
	return r.db.WithContext(ctx).Save(order).Error
}

func (r *workOrderRepository) List(ctx context.Context, query *ListQuery) ([]models.WorkOrder, int64, error) {
	var orders []models.WorkOrder
	var total int64

	db := r.db.WithContext(ctx).Model(&models.WorkOrder{})

	if query.Filters["building_id"] != "" {
		db = db.Where("building_id = ?", query.Filters["building_id"])
	}

	if query.Filters["status"] != "" {
		db = db.Where("status = ?", query.Filters["status"])
	}

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("vendor_name ILIKE ? OR title ILIKE ?", search, search)
	}

	db.Count(&total)

	db = db.Order("created_at DESC")

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Find(&orders).Error
	return orders, total, err
}

func (r *workOrderRepository) FindByServiceRequest(ctx context.Context, requestID uint) ([]models.WorkOrder, error) {
	var orders []models.WorkOrder
	err := r.db.WithContext(ctx).
		Where("service_request_id = ?", requestID).
		Order("created_at ASC").
		Find(&orders).Error
	return orders, err
}
