package models

import "time"

// Building represents a managed building or HOA community
type Building struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	Name                string    `gorm:"not null" json:"name"`
	Address             string    `json:"address"`
	Currency            string    `gorm:"default:USD" json:"currency"`
	AutoGenerateCharges bool      `gorm:"default:false" json:"auto_generate_charges"`
	IsActive            bool      `gorm:"default:true" json:"is_active"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`

	// Associations
	Units    []Unit    `gorm:"foreignKey:BuildingID" json:"units,omitempty"`
	FeePlans []FeePlan `gorm:"foreignKey:BuildingID" json:"fee_plans,omitempty"`
}

// TableName specifies the table name for Building
func (Building) TableName() string {
	return "buildings"
}

// BuildingResponse is the JSON response format for buildings
type BuildingResponse struct {
	ID                  uint      `json:"id"`
	Name                string    `json:"name"`
	Address             string    `json:"address"`
	Currency            string    `json:"currency"`
	AutoGenerateCharges bool      `json:"auto_generate_charges"`
	IsActive            bool      `json:"is_active"`
	UnitCount           int       `json:"unit_count,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

// ToResponse converts Building to BuildingResponse
func (b *Building) ToResponse() BuildingResponse {
	return BuildingResponse{
		ID:                  b.ID,
		Name:                b.Name,
		Address:             b.Address,
		Currency:            b.Currency,
		AutoGenerateCharges: b.AutoGenerateCharges,
		IsActive:            b.IsActive,
		UnitCount:           len(b.Units),
		CreatedAt:           b.CreatedAt,
	}
}
