package models

import "time"

// LedgerEntry is one row of the append-only building ledger. BalanceAfter is
// the running total computed when the row is inserted and is never changed
// afterwards; corrections are made with new reversing entries.
type LedgerEntry struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	BuildingID   uint      `gorm:"not null;index" json:"building_id"`
	UnitID       *uint     `gorm:"index" json:"unit_id,omitempty"`
	EntryType    string    `gorm:"not null;index" json:"entry_type"`
	Category     string    `gorm:"not null" json:"category"`
	Description  string    `gorm:"not null" json:"description"`
	Debit        float64   `gorm:"type:decimal(12,2);default:0" json:"debit"`
	Credit       float64   `gorm:"type:decimal(12,2);default:0" json:"credit"`
	BalanceAfter float64   `gorm:"type:decimal(14,2);not null" json:"balance_after"`
	PaymentID    *uint     `gorm:"index" json:"payment_id,omitempty"`
	UnitChargeID *uint     `gorm:"index" json:"unit_charge_id,omitempty"`
	ExpenseID    *uint     `gorm:"index" json:"expense_id,omitempty"`
	EntryDate    time.Time `gorm:"not null;default:current_timestamp" json:"entry_date"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName specifies the table name for LedgerEntry
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// Entry type constants
const (
	EntryTypeCharge  = "charge"  // dues billed to a unit (debit)
	EntryTypePayment = "payment" // money received (credit)
	EntryTypeExpense = "expense" // vendor expense (debit)
)

// Ledger category constants
const (
	LedgerCategoryDues        = "dues"
	LedgerCategoryAdvance     = "advance"
	LedgerCategoryReversal    = "reversal"
	LedgerCategoryMaintenance = "maintenance"
)

// LedgerEntryResponse is the JSON response format for ledger entries
type LedgerEntryResponse struct {
	ID           uint      `json:"id"`
	BuildingID   uint      `json:"building_id"`
	UnitID       *uint     `json:"unit_id,omitempty"`
	EntryType    string    `json:"entry_type"`
	Category     string    `json:"category"`
	Description  string    `json:"description"`
	Debit        float64   `json:"debit"`
	Credit       float64   `json:"credit"`
	BalanceAfter float64   `json:"balance_after"`
	EntryDate    time.Time `json:"entry_date"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToResponse converts LedgerEntry to LedgerEntryResponse
func (e *LedgerEntry) ToResponse() LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:           e.ID,
		BuildingID:   e.BuildingID,
		UnitID:       e.UnitID,
		EntryType:    e.EntryType,
		Category:     e.Category,
		Description:  e.Description,
		Debit:        e.Debit,
		Credit:       e.Credit,
		BalanceAfter: e.BalanceAfter,
		EntryDate:    e.EntryDate,
		CreatedAt:    e.CreatedAt,
	}
}
