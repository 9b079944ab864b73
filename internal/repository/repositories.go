package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	db *gorm.DB

	User           UserRepository
	RefreshToken   RefreshTokenRepository
	Building       BuildingRepository
	Unit           UnitRepository
	FeePlan        FeePlanRepository
	Charge         ChargeRepository
	Payment        PaymentRepository
	Allocation     AllocationRepository
	Ledger         LedgerRepository
	Expense        ExpenseRepository
	ServiceRequest ServiceRequestRepository
	WorkOrder      WorkOrderRepository
	Notification   NotificationRepository
	AuditLog       AuditLogRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:             db,
		User:           NewUserRepository(db),
		RefreshToken:   NewRefreshTokenRepository(db),
		Building:       NewBuildingRepository(db),
		Unit:           NewUnitRepository(db),
		FeePlan:        NewFeePlanRepository(db),
		Charge:         NewChargeRepository(db),
		Payment:        NewPaymentRepository(db),
		Allocation:     NewAllocationRepository(db),
		Ledger:         NewLedgerRepository(db),
		Expense:        NewExpenseRepository(db),
		ServiceRequest: NewServiceRequestRepository(db),
		WorkOrder:      NewWorkOrderRepository(db),
		Notification:   NewNotificationRepository(db),
		AuditLog:       NewAuditLogRepository(db),
	}
}

// TxManager runs a function inside a database transaction. The Repositories
// passed to fn are bound to the transaction, so every call made through them
// commits or rolls back together.
type TxManager interface {
	Transaction(fn func(r *Repositories) error) error
}

// Transaction implements TxManager on the live database. Repositories
// assembled by hand without a database run fn directly, untransacted.
func (r *Repositories) Transaction(fn func(txRepos *Repositories) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
