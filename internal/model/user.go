package model

import "time"

const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Email        string     `gorm:"size:128;not null;uniqueIndex" json:"email"`
	Name         string     `gorm:"size:255" json:"name"`
	Status       string     `gorm:"size:16;not null;default:active" json:"status"`
	LastAccessed *time.Time `json:"last_accessed,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
