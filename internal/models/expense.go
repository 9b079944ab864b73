package models

import "time"

// Expense is a vendor invoice recorded against a building's funds
type Expense struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	BuildingID       uint      `gorm:"not null;index" json:"building_id"`
	WorkOrderID      *uint     `gorm:"index" json:"work_order_id"`
	VendorName       string    `gorm:"not null" json:"vendor_name"`
	Category         string    `gorm:"default:maintenance" json:"category"`
	Amount           float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	Description      *string   `json:"description"`
	ExpenseDate      time.Time `gorm:"type:date;not null" json:"expense_date"`
	RecordedByUserID uint      `gorm:"index" json:"recorded_by_user_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Associations
	Building  Building   `gorm:"foreignKey:BuildingID" json:"building,omitempty"`
	WorkOrder *WorkOrder `gorm:"foreignKey:WorkOrderID" json:"work_order,omitempty"`
}

// TableName specifies the table name for Expense
func (Expense) TableName() string {
	return "expenses"
}

// Expense category constants
const (
	ExpenseCategoryMaintenance = "maintenance"
	ExpenseCategoryUtilities   = "utilities"
	ExpenseCategoryCleaning    = "cleaning"
	ExpenseCategorySecurity    = "security"
	ExpenseCategoryInsurance   = "insurance"
	ExpenseCategoryOther       = "other"
)

// ExpenseResponse is the JSON response format for expenses
type ExpenseResponse struct {
	ID          uint      `json:"id"`
	BuildingID  uint      `json:"building_id"`
	WorkOrderID *uint     `json:"work_order_id"`
	VendorName  string    `json:"vendor_name"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	Description *string   `json:"description"`
	ExpenseDate time.Time `json:"expense_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToResponse converts Expense to ExpenseResponse
func (e *Expense) ToResponse() ExpenseResponse {
	return ExpenseResponse{
		ID:          e.ID,
		BuildingID:  e.BuildingID,
		WorkOrderID: e.WorkOrderID,
		VendorName:  e.VendorName,
		Category:    e.Category,
		Amount:      e.Amount,
		Description: e.Description,
		ExpenseDate: e.ExpenseDate,
		CreatedAt:   e.CreatedAt,
	}
}
