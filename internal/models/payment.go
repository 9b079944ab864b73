package models

import (
	"time"

	"gorm.io/datatypes"
)

// Payment represents money received from a unit owner, either through the
// card processor or entered manually by staff
type Payment struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	UnitID            uint           `gorm:"not null;index" json:"unit_id"`
	UserID            uint           `gorm:"not null;index" json:"user_id"`
	Amount            float64        `gorm:"type:decimal(12,2);not null" json:"amount"`
	Method            string         `gorm:"not null;index" json:"method"`
	Status            string         `gorm:"default:pending;not null;index" json:"status"`
	PaymentDate       time.Time      `gorm:"not null" json:"payment_date"` // UTC
	ProviderReference *string        `gorm:"uniqueIndex" json:"provider_reference"`
	ProviderPayload   datatypes.JSON `json:"-"` // raw webhook body for the settling event
	Description       *string        `json:"description"`
	ReceiptPath       *string        `json:"-"`
	RecordedByUserID  *uint          `gorm:"index" json:"recorded_by_user_id"`
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`

	// Associations
	Unit           Unit                `gorm:"foreignKey:UnitID" json:"unit,omitempty"`
	User           User                `gorm:"foreignKey:UserID" json:"user,omitempty"`
	RecordedByUser *User               `gorm:"foreignKey:RecordedByUserID" json:"recorded_by_user,omitempty"`
	Allocations    []PaymentAllocation `gorm:"foreignKey:PaymentID" json:"allocations,omitempty"`
}

// TableName specifies the table name for Payment
func (Payment) TableName() string {
	return "payments"
}

// Payment status constants
const (
	PaymentStatusPending   = "pending"
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "failed"
	PaymentStatusCancelled = "cancelled"
)

// Payment method constants
const (
	PaymentMethodCard         = "card"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodCash         = "cash"
	PaymentMethodCheck        = "check"
)

// ValidManualMethod returns true for methods staff may enter by hand
func ValidManualMethod(method string) bool {
	switch method {
	case PaymentMethodBankTransfer, PaymentMethodCash, PaymentMethodCheck:
		return true
	}
	return false
}

// IsManual returns true for payments entered by staff rather than the processor
func (p *Payment) IsManual() bool {
	return p.Method != PaymentMethodCard
}

// MaySettle returns true if the payment can transition to succeeded
func (p *Payment) MaySettle() bool {
	return p.Status == PaymentStatusPending
}

// MayCancel returns true if the payment can be cancelled
func (p *Payment) MayCancel() bool {
	return p.Status == PaymentStatusPending || p.Status == PaymentStatusSucceeded
}

// MayEdit returns true for manual payments staff may still change
func (p *Payment) MayEdit() bool {
	return p.IsManual() && p.Status == PaymentStatusSucceeded
}

// AllocatedAmount sums the loaded allocations
func (p *Payment) AllocatedAmount() float64 {
	total := 0.0
	for _, a := range p.Allocations {
		total += a.AllocatedAmount
	}
	return Round2(total)
}

// UnallocatedAmount is the advance credit still held by the payment
func (p *Payment) UnallocatedAmount() float64 {
	return Round2(p.Amount - p.AllocatedAmount())
}

// PaymentAllocation maps a slice of a payment onto the charge it satisfies.
// A payment may satisfy several charges and a charge may be covered by
// several payments.
type PaymentAllocation struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	PaymentID       uint      `gorm:"not null;index" json:"payment_id"`
	UnitChargeID    uint      `gorm:"not null;index" json:"unit_charge_id"`
	AllocatedAmount float64   `gorm:"type:decimal(12,2);not null" json:"allocated_amount"`
	CreatedAt       time.Time `json:"created_at"`

	// Associations
	Payment    *Payment    `gorm:"foreignKey:PaymentID" json:"payment,omitempty"`
	UnitCharge *UnitCharge `gorm:"foreignKey:UnitChargeID" json:"unit_charge,omitempty"`
}

// TableName specifies the table name for PaymentAllocation
func (PaymentAllocation) TableName() string {
	return "payment_allocations"
}

// PaymentResponse is the JSON response format for payments
type PaymentResponse struct {
	ID                uint                `json:"id"`
	UnitID            uint                `json:"unit_id"`
	UnitNumber        string              `json:"unit_number,omitempty"`
	BuildingID        uint                `json:"building_id,omitempty"`
	UserID            uint                `json:"user_id"`
	PayerName         string              `json:"payer_name,omitempty"`
	Amount            float64             `json:"amount"`
	AllocatedAmount   float64             `json:"allocated_amount"`
	UnallocatedAmount float64             `json:"unallocated_amount"`
	Method            string              `json:"method"`
	Status            string              `json:"status"`
	PaymentDate       time.Time           `json:"payment_date"`
	ProviderReference *string             `json:"provider_reference,omitempty"`
	Description       *string             `json:"description"`
	HasReceipt        bool                `json:"has_receipt"`
	Allocations       []PaymentAllocation `json:"allocations,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
}

// ToResponse converts Payment to PaymentResponse
func (p *Payment) ToResponse() PaymentResponse {
	resp := PaymentResponse{
		ID:                p.ID,
		UnitID:            p.UnitID,
		UserID:            p.UserID,
		Amount:            p.Amount,
		AllocatedAmount:   p.AllocatedAmount(),
		UnallocatedAmount: p.UnallocatedAmount(),
		Method:            p.Method,
		Status:            p.Status,
		PaymentDate:       p.PaymentDate,
		ProviderReference: p.ProviderReference,
		Description:       p.Description,
		HasReceipt:        p.ReceiptPath != nil && *p.ReceiptPath != "",
		Allocations:       p.Allocations,
		CreatedAt:         p.CreatedAt,
	}
	if p.Unit.ID != 0 {
		resp.UnitNumber = p.Unit.Number
		resp.BuildingID = p.Unit.BuildingID
	}
	if p.User.ID != 0 {
		resp.PayerName = p.User.FullName
	}
	return resp
}
