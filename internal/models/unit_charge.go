package models

import (
	"time"
)

// UnitCharge is one billing-period obligation for one unit. At most one
// charge exists per (unit, period); the unique index backs the generator's
// idempotency check.
type UnitCharge struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UnitID      uint       `gorm:"not null;uniqueIndex:idx_unit_charges_unit_period,priority:1" json:"unit_id"`
	BuildingID  uint       `gorm:"not null;index" json:"building_id"`
	FeePlanID   *uint      `gorm:"index" json:"fee_plan_id"`
	Period      string     `gorm:"size:7;not null;uniqueIndex:idx_unit_charges_unit_period,priority:2" json:"period"`
	AmountDue   float64    `gorm:"type:decimal(12,2);not null" json:"amount_due"`
	AmountPaid  float64    `gorm:"type:decimal(12,2);default:0" json:"amount_paid"`
	DueDate     time.Time  `gorm:"type:date;not null;index" json:"due_date"`
	Status      string     `gorm:"default:pending;not null;index" json:"status"`
	CancelledAt *time.Time `json:"cancelled_at"`
	Note        *string    `json:"note"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Associations
	Unit        Unit                `gorm:"foreignKey:UnitID" json:"unit,omitempty"`
	FeePlan     *FeePlan            `gorm:"foreignKey:FeePlanID" json:"fee_plan,omitempty"`
	Allocations []PaymentAllocation `gorm:"foreignKey:UnitChargeID" json:"allocations,omitempty"`
}

// TableName specifies the table name for UnitCharge
func (UnitCharge) TableName() string {
	return "unit_charges"
}

// Charge status constants
const (
	ChargeStatusPending       = "pending"
	ChargeStatusPartiallyPaid = "partially_paid"
	ChargeStatusPaid          = "paid"
	ChargeStatusOverdue       = "overdue"
	ChargeStatusCancelled     = "cancelled"
)

// Aging bucket labels
const (
	AgingBucketCurrent = "current"
	AgingBucket1To30   = "1-30"
	AgingBucket31To60  = "31-60"
	AgingBucket61To90  = "61-90"
	AgingBucket90Plus  = "90+"
)

// DeriveChargeStatus computes a charge status from its amounts and due date.
// Status is never stored independently of this derivation; only cancellation
// is a manual override.
func DeriveChargeStatus(amountDue, amountPaid float64, dueDate, now time.Time, cancelled bool) string {
	if cancelled {
		return ChargeStatusCancelled
	}
	if amountPaid >= amountDue {
		return ChargeStatusPaid
	}
	if now.After(dueDate) {
		return ChargeStatusOverdue
	}
	if amountPaid > 0 {
		return ChargeStatusPartiallyPaid
	}
	return ChargeStatusPending
}

// Balance returns the outstanding amount on the charge
func (c *UnitCharge) Balance() float64 {
	return Round2(c.AmountDue - c.AmountPaid)
}

// IsOutstanding returns true while the charge can still receive allocations
func (c *UnitCharge) IsOutstanding() bool {
	return c.CancelledAt == nil && c.AmountPaid < c.AmountDue
}

// DaysOverdue returns whole days elapsed since the due date, 0 if not yet due
func (c *UnitCharge) DaysOverdue(now time.Time) int {
	if !now.After(c.DueDate) {
		return 0
	}
	return int(now.Sub(c.DueDate).Hours() / 24)
}

// AgingBucket classifies the charge by its own days overdue
func (c *UnitCharge) AgingBucket(now time.Time) string {
	days := c.DaysOverdue(now)
	switch {
	case days == 0:
		return AgingBucketCurrent
	case days <= 30:
		return AgingBucket1To30
	case days <= 60:
		return AgingBucket31To60
	case days <= 90:
		return AgingBucket61To90
	default:
		return AgingBucket90Plus
	}
}

// RefreshStatus recomputes the derived status field in place
func (c *UnitCharge) RefreshStatus(now time.Time) {
	c.Status = DeriveChargeStatus(c.AmountDue, c.AmountPaid, c.DueDate, now, c.CancelledAt != nil)
}

// UnitChargeResponse is the JSON response format for unit charges
type UnitChargeResponse struct {
	ID          uint      `json:"id"`
	UnitID      uint      `json:"unit_id"`
	UnitNumber  string    `json:"unit_number,omitempty"`
	BuildingID  uint      `json:"building_id"`
	FeePlanID   *uint     `json:"fee_plan_id"`
	Period      string    `json:"period"`
	AmountDue   float64   `json:"amount_due"`
	AmountPaid  float64   `json:"amount_paid"`
	Balance     float64   `json:"balance"`
	DueDate     time.Time `json:"due_date"`
	Status      string    `json:"status"`
	DaysOverdue int       `json:"days_overdue"`
	Note        *string   `json:"note"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToResponse converts UnitCharge to UnitChargeResponse
func (c *UnitCharge) ToResponse() UnitChargeResponse {
	resp := UnitChargeResponse{
		ID:          c.ID,
		UnitID:      c.UnitID,
		BuildingID:  c.BuildingID,
		FeePlanID:   c.FeePlanID,
		Period:      c.Period,
		AmountDue:   c.AmountDue,
		AmountPaid:  c.AmountPaid,
		Balance:     c.Balance(),
		DueDate:     c.DueDate,
		Status:      c.Status,
		Note:        c.Note,
		CreatedAt:   c.CreatedAt,
	}
	if c.IsOutstanding() {
		resp.DaysOverdue = c.DaysOverdue(time.Now())
	}
	if c.Unit.ID != 0 {
		resp.UnitNumber = c.Unit.Number
	}
	return resp
}
