package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/habitek/habitek-api/internal/models"
	"github.com/habitek/habitek-api/internal/repository"
)

// ExpenseInput is the payload for recording a vendor expense
type ExpenseInput struct {
	VendorName  string     `json:"vendor_name" binding:"required"`
	Category    string     `json:"category"`
	Amount      float64    `json:"amount" binding:"required"`
	Description *string    `json:"description"`
	ExpenseDate *time.Time `json:"expense_date"`
	WorkOrderID *uint      `json:"work_order_id"`
}

type ExpenseService struct {
	repos    *repository.Repositories
	auditSvc *AuditService
}

func NewExpenseService(repos *repository.Repositories, auditSvc *AuditService) *ExpenseService {
	return &ExpenseService{repos: repos, auditSvc: auditSvc}
}

func (s *ExpenseService) FindByID(ctx context.Context, id uint) (*models.Expense, error) {
	expense, err := s.repos.Expense.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return expense, err
}

func (s *ExpenseService) List(ctx context.Context, buildingID uint, query *repository.ListQuery) ([]models.Expense, int64, error) {
	return s.repos.Expense.List(ctx, buildingID, query)
}

// Create records a vendor expense and debits the building ledger in the
// same transaction
func (s *ExpenseService) Create(ctx context.Context, buildingID uint, input *ExpenseInput, recordedBy uint, ip string) (*models.Expense, error) {
	if input.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	if _, err := s.repos.Building.FindByID(ctx, buildingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if input.WorkOrderID != nil {
		order, err := s.repos.WorkOrder.FindByID(ctx, *input.WorkOrderID)
		if err != nil {
			return nil, fmt.Errorf("%w: work order not found", ErrValidation)
		}
		if order.BuildingID != buildingID {
			return nil, fmt.Errorf("%w: work order belongs to another building", ErrValidation)
		}
	}

	expenseDate := time.Now().UTC()
	if input.ExpenseDate != nil {
		expenseDate = input.ExpenseDate.UTC()
	}

	category := input.Category
	if category == "" {
		category = models.ExpenseCategoryMaintenance
	}

	expense := &models.Expense{
		BuildingID:       buildingID,
		WorkOrderID:      input.WorkOrderID,
		VendorName:       input.VendorName,
		Category:         category,
		Amount:           models.Round2(input.Amount),
		Description:      input.Description,
		ExpenseDate:      expenseDate,
		RecordedByUserID: recordedBy,
	}

	err := s.repos.Transaction(func(tx *repository.Repositories) error {
		if err := tx.Expense.Create(ctx, expense); err != nil {
			return err
		}

		entry := &models.LedgerEntry{
			BuildingID:  buildingID,
			EntryType:   models.EntryTypeExpense,
			Category:    models.LedgerCategoryMaintenance,
			Description: fmt.Sprintf("Expense: %s (%s)", expense.VendorName, expense.Category),
			Debit:       expense.Amount,
			ExpenseID:   &expense.ID,
			EntryDate:   expenseDate,
		}
		return tx.Ledger.Append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, &recordedBy, models.AuditActionCreate, "expense", expense.ID, expense.ToResponse(), ip)
	return expense, nil
}
