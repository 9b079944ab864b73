package models

import "time"

// Notification is an in-app message shown to a user, usually mirrored by email
type Notification struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"not null;index" json:"user_id"`
	Title            string     `gorm:"not null" json:"title"`
	Message          string     `gorm:"type:text;not null" json:"message"`
	NotificationType string     `gorm:"index" json:"notification_type"`
	ReadAt           *time.Time `json:"read_at"`
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// Associations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for Notification
func (Notification) TableName() string {
	return "notifications"
}

// Notification type constants
const (
	NotificationTypeChargeCreated    = "charge_created"
	NotificationTypeChargeOverdue    = "charge_overdue"
	NotificationTypePaymentReceived  = "payment_received"
	NotificationTypePaymentFailed    = "payment_failed"
	NotificationTypeRequestUpdated   = "request_updated"
	NotificationTypeWorkOrderUpdated = "work_order_updated"
)

// IsRead returns true if the notification has been read
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

// NotificationResponse is the JSON response format for notifications
type NotificationResponse struct {
	ID               uint       `json:"id"`
	Title            string     `json:"title"`
	Message          string     `json:"message"`
	NotificationType string     `json:"notification_type"`
	ReadAt           *time.Time `json:"read_at"`
	CreatedAt        time.Time  `json:"created_at"`
}

// ToResponse converts Notification to NotificationResponse
func (n *Notification) ToResponse() NotificationResponse {
	return NotificationResponse{
		ID:               n.ID,
		Title:            n.Title,
		Message:          n.Message,
		NotificationType: n.NotificationType,
		ReadAt:           n.ReadAt,
		CreatedAt:        n.CreatedAt,
	}
}
