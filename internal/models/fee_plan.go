package models

import "time"

// FeePlan is a billing rule producing recurring per-unit charges for a building.
// A plan must not be edited once charges reference it; generated charges keep
// the amounts they were created with.
type FeePlan struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	BuildingID         uint      `gorm:"not null;index" json:"building_id"`
	Name               string    `gorm:"not null" json:"name"`
	CalculationMethod  string    `gorm:"not null" json:"calculation_method"`
	AmountPerSqm       *float64  `gorm:"type:decimal(10,2)" json:"amount_per_sqm"`
	FixedAmountPerUnit *float64  `gorm:"type:decimal(10,2)" json:"fixed_amount_per_unit"`
	EffectiveFrom      time.Time `gorm:"type:date;not null" json:"effective_from"`
	IsActive           bool      `gorm:"default:true" json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	// Associations
	Building Building `gorm:"foreignKey:BuildingID" json:"building,omitempty"`
}

// TableName specifies the table name for FeePlan
func (FeePlan) TableName() string {
	return "fee_plans"
}

// Calculation method constants
const (
	CalculationFixedPerUnit  = "fixed_per_unit"
	CalculationBySqm         = "by_sqm"
	CalculationManualPerUnit = "manual_per_unit"
)

// ValidCalculationMethod returns true for a known calculation method
func ValidCalculationMethod(method string) bool {
	switch method {
	case CalculationFixedPerUnit, CalculationBySqm, CalculationManualPerUnit:
		return true
	}
	return false
}

// FeePlanResponse is the JSON response format for fee plans
type FeePlanResponse struct {
	ID                 uint      `json:"id"`
	BuildingID         uint      `json:"building_id"`
	Name               string    `json:"name"`
	CalculationMethod  string    `json:"calculation_method"`
	AmountPerSqm       *float64  `json:"amount_per_sqm"`
	FixedAmountPerUnit *float64  `json:"fixed_amount_per_unit"`
	EffectiveFrom      time.Time `json:"effective_from"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
}

// ToResponse converts FeePlan to FeePlanResponse
func (p *FeePlan) ToResponse() FeePlanResponse {
	return FeePlanResponse{
		ID:                 p.ID,
		BuildingID:         p.BuildingID,
		Name:               p.Name,
		CalculationMethod:  p.CalculationMethod,
		AmountPerSqm:       p.AmountPerSqm,
		FixedAmountPerUnit: p.FixedAmountPerUnit,
		EffectiveFrom:      p.EffectiveFrom,
		IsActive:           p.IsActive,
		CreatedAt:          p.CreatedAt,
	}
}
