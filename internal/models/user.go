package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a user in the system
type User struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	Email              string     `gorm:"uniqueIndex;not null" json:"email"`
	EncryptedPassword  string     `gorm:"column:encrypted_password;not null" json:"-"`
	Role               string     `gorm:"default:resident" json:"role"`
	FullName           string     `json:"full_name"`
	Phone              string     `json:"phone"`
	Status             string     `gorm:"default:active" json:"status"`
	DiscardedAt        *time.Time `gorm:"index" json:"-"`
	RecoveryCode       *string    `json:"-"`
	RecoveryCodeSentAt *time.Time `json:"-"`
	CreatedBy          *uint      `json:"created_by"`
	Note               *string    `json:"note"`
	Locale             string     `gorm:"default:en" json:"locale"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	// Associations
	Creator       *User          `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Units         []Unit         `gorm:"foreignKey:OwnerUserID" json:"units,omitempty"`
	Notifications []Notification `gorm:"foreignKey:UserID" json:"notifications,omitempty"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// BeforeCreate hook for setting defaults
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleResident
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	if u.Locale == "" {
		u.Locale = LocaleEN
	}
	return nil
}

// IsAdmin returns true if user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsManager returns true if user has manager role
func (u *User) IsManager() bool {
	return u.Role == RoleManager
}

// IsActive returns true if user status is active
func (u *User) IsActive() bool {
	return u.Status == StatusActive && u.DiscardedAt == nil
}

// IsDiscarded returns true if user is soft-deleted
func (u *User) IsDiscarded() bool {
	return u.DiscardedAt != nil
}

// Role constants
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleResident = "resident"
)

// Status constants
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
)

// Locale constants
const (
	LocaleEN = "en"
	LocaleES = "es"
)

// UserResponse is the JSON response format for users
type UserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	Locale    string    `json:"locale"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Phone:     u.Phone,
		Role:      u.Role,
		Status:    u.Status,
		Locale:    u.Locale,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
