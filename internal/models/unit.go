package models

import "time"

// Unit represents a single apartment or lot inside a building
type Unit struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	BuildingID  uint      `gorm:"not null;index" json:"building_id"`
	Number      string    `gorm:"not null" json:"number"`
	Floor       *string   `json:"floor"`
	SizeSqm     float64   `gorm:"type:decimal(10,2);default:0" json:"size_sqm"`
	OwnerUserID *uint     `gorm:"index" json:"owner_user_id"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Associations
	Building  Building `gorm:"foreignKey:BuildingID" json:"building,omitempty"`
	OwnerUser *User    `gorm:"foreignKey:OwnerUserID" json:"owner_user,omitempty"`
}

// TableName specifies the table name for Unit
func (Unit) TableName() string {
	return "units"
}

// UnitResponse is the JSON response format for units
type UnitResponse struct {
	ID           uint    `json:"id"`
	BuildingID   uint    `json:"building_id"`
	BuildingName string  `json:"building_name,omitempty"`
	Number       string  `json:"number"`
	Floor        *string `json:"floor"`
	SizeSqm      float64 `json:"size_sqm"`
	OwnerUserID  *uint   `json:"owner_user_id"`
	OwnerName    string  `json:"owner_name,omitempty"`
	IsActive     bool    `json:"is_active"`
}

// ToResponse converts Unit to UnitResponse
func (u *Unit) ToResponse() UnitResponse {
	resp := UnitResponse{
		ID:          u.ID,
		BuildingID:  u.BuildingID,
		Number:      u.Number,
		Floor:       u.Floor,
		SizeSqm:     u.SizeSqm,
		OwnerUserID: u.OwnerUserID,
		IsActive:    u.IsActive,
	}
	if u.Building.ID != 0 {
		resp.BuildingName = u.Building.Name
	}
	if u.OwnerUser != nil && u.OwnerUser.ID != 0 {
		resp.OwnerName = u.OwnerUser.FullName
	}
	return resp
}
