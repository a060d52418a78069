package models

import (
	"gorm.io/gorm"
)

// AccountStatus values
const (
	AccountStatusActive    = "active"
	AccountStatusSuspended = "suspended"
	AccountStatusPending   = "pending"
)

// Roles
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	gorm.Model
	Name          string `gorm:"default:''" json:"name"`
	Email         string `gorm:"unique;not null" json:"email"`
	Mobile        string `gorm:"default:''" json:"mobile"`
	Role          string `gorm:"default:'USER'" json:"role"`
	Password      string `gorm:"not null" json:"-"`
	AccountStatus string `gorm:"type:varchar(20);default:'active'" json:"accountStatus"`
	IsDeleted     bool   `gorm:"default:false" json:"-"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
