package models

import "time"

// ServiceRequest is a maintenance or service issue reported by a resident
type ServiceRequest struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	BuildingID        uint       `gorm:"not null;index" json:"building_id"`
	UnitID            uint       `gorm:"not null;index" json:"unit_id"`
	RequestedByUserID uint       `gorm:"not null;index" json:"requested_by_user_id"`
	Title             string     `gorm:"not null" json:"title"`
	Description       *string    `gorm:"type:text" json:"description"`
	Priority          string     `gorm:"default:normal" json:"priority"`
	Status            string     `gorm:"default:open;not null;index" json:"status"`
	ResolvedAt        *time.Time `json:"resolved_at"`
	CreatedAt         time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	// Associations
	Unit            Unit        `gorm:"foreignKey:UnitID" json:"unit,omitempty"`
	RequestedByUser User        `gorm:"foreignKey:RequestedByUserID" json:"requested_by_user,omitempty"`
	WorkOrders      []WorkOrder `gorm:"foreignKey:ServiceRequestID" json:"work_orders,omitempty"`
}

// TableName specifies the table name for ServiceRequest
func (ServiceRequest) TableName() string {
	return "service_requests"
}

// Service request status constants
const (
	RequestStatusOpen       = "open"
	RequestStatusInProgress = "in_progress"
	RequestStatusResolved   = "resolved"
	RequestStatusClosed     = "closed"
)

// Priority constants
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// ServiceRequestResponse is the JSON response format for service requests
type ServiceRequestResponse struct {
	ID            uint       `json:"id"`
	BuildingID    uint       `json:"building_id"`
	UnitID        uint       `json:"unit_id"`
	UnitNumber    string     `json:"unit_number,omitempty"`
	RequestedBy   string     `json:"requested_by,omitempty"`
	Title         string     `json:"title"`
	Description   *string    `json:"description"`
	Priority      string     `json:"priority"`
	Status        string     `json:"status"`
	ResolvedAt    *time.Time `json:"resolved_at"`
	WorkOrderIDs  []uint     `json:"work_order_ids,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ToResponse converts ServiceRequest to ServiceRequestResponse
func (r *ServiceRequest) ToResponse() ServiceRequestResponse {
	resp := ServiceRequestResponse{
		ID:          r.ID,
		BuildingID:  r.BuildingID,
		UnitID:      r.UnitID,
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		Status:      r.Status,
		ResolvedAt:  r.ResolvedAt,
		CreatedAt:   r.CreatedAt,
	}
	if r.Unit.ID != 0 {
		resp.UnitNumber = r.Unit.Number
	}
	if r.RequestedByUser.ID != 0 {
		resp.RequestedBy = r.RequestedByUser.FullName
	}
	for _, wo := range r.WorkOrders {
		resp.WorkOrderIDs = append(resp.WorkOrderIDs, wo.ID)
	}
	return resp
}
