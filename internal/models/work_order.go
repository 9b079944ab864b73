package models

import "time"

// WorkOrder is a job dispatched to a vendor, usually created from a service
// request. Its lifecycle is driven by the work order state machine.
type WorkOrder struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	BuildingID       uint       `gorm:"not null;index" json:"building_id"`
	ServiceRequestID *uint      `gorm:"index" json:"service_request_id"`
	VendorName       string     `gorm:"not null" json:"vendor_name"`
	AssignedByUserID *uint      `json:"assigned_by_user_id"`
	Title            string     `gorm:"not null" json:"title"`
	Description      *string    `gorm:"type:text" json:"description"`
	Status           string     `gorm:"default:open;not null;index" json:"status"`
	Cost             *float64   `gorm:"type:decimal(12,2)" json:"cost"`
	ScheduledFor     *time.Time `json:"scheduled_for"`
	CompletedAt      *time.Time `json:"completed_at"`
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// Associations
	ServiceRequest *ServiceRequest `gorm:"foreignKey:ServiceRequestID" json:"service_request,omitempty"`
}

// TableName specifies the table name for WorkOrder
func (WorkOrder) TableName() string {
	return "work_orders"
}

// Work order status constants
const (
	WorkOrderStatusOpen       = "open"
	WorkOrderStatusAssigned   = "assigned"
	WorkOrderStatusInProgress = "in_progress"
	WorkOrderStatusCompleted  = "completed"
	WorkOrderStatusClosed     = "closed"
)

// MayAssign returns true if the work order can be assigned to a vendor
func (w *WorkOrder) MayAssign() bool {
	return w.Status == WorkOrderStatusOpen
}

// MayStart returns true if work can begin
func (w *WorkOrder) MayStart() bool {
	return w.Status == WorkOrderStatusAssigned
}

// MayComplete returns true if the work order can be completed
func (w *WorkOrder) MayComplete() bool {
	return w.Status == WorkOrderStatusInProgress
}

// MayClose returns true if the work order can be closed out
func (w *WorkOrder) MayClose() bool {
	return w.Status == WorkOrderStatusCompleted
}

// WorkOrderResponse is the JSON response format for work orders
type WorkOrderResponse struct {
	ID               uint       `json:"id"`
	BuildingID       uint       `json:"building_id"`
	ServiceRequestID *uint      `json:"service_request_id"`
	VendorName       string     `json:"vendor_name"`
	Title            string     `json:"title"`
	Description      *string    `json:"description"`
	Status           string     `json:"status"`
	Cost             *float64   `json:"cost"`
	ScheduledFor     *time.Time `json:"scheduled_for"`
	CompletedAt      *time.Time `json:"completed_at"`
	CreatedAt        time.Time  `json:"created_at"`
}

// ToResponse converts WorkOrder to WorkOrderResponse
func (w *WorkOrder) ToResponse() WorkOrderResponse {
	return WorkOrderResponse{
		ID:               w.ID,
		BuildingID:       w.BuildingID,
		ServiceRequestID: w.ServiceRequestID,
		VendorName:       w.VendorName,
		Title:            w.Title,
		Description:      w.Description,
		Status:           w.Status,
		Cost:             w.Cost,
		ScheduledFor:     w.ScheduledFor,
		CompletedAt:      w.CompletedAt,
		CreatedAt:        w.CreatedAt,
	}
}
