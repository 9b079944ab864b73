package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records who changed what. Rows are written by services after
// mutating operations and are never updated.
type AuditLog struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     *uint          `gorm:"index" json:"user_id"`
	Action     string         `gorm:"not null;index" json:"action"`
	EntityType string         `gorm:"not null;index" json:"entity_type"`
	EntityID   uint           `gorm:"index" json:"entity_id"`
	Changes    datatypes.JSON `json:"changes,omitempty"`
	IPAddress  *string        `json:"ip_address,omitempty"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`

	// Associations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}

// Audit action constants
const (
	AuditActionCreate = "create"
	AuditActionUpdate = "update"
	AuditActionDelete = "delete"
	AuditActionCancel = "cancel"
	AuditActionLogin  = "login"
)

// AuditLogResponse is the JSON response format for audit log entries
type AuditLogResponse struct {
	ID         uint           `json:"id"`
	UserID     *uint          `json:"user_id"`
	UserName   string         `json:"user_name,omitempty"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   uint           `json:"entity_id"`
	Changes    datatypes.JSON `json:"changes,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ToResponse converts AuditLog to AuditLogResponse
func (a *AuditLog) ToResponse() AuditLogResponse {
	resp := AuditLogResponse{
		ID:         a.ID,
		UserID:     a.UserID,
		Action:     a.Action,
		EntityType: a.EntityType,
		EntityID:   a.EntityID,
		Changes:    a.Changes,
		CreatedAt:  a.CreatedAt,
	}
	if a.User != nil && a.User.ID != 0 {
		resp.UserName = a.User.FullName
	}
	return resp
}
