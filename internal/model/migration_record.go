package model

import "time"

// MigrationRecord is an audit row for an applied destructive migration. It is
// informational only: application of a migration is never conditional on it.
type MigrationRecord struct {
	Version     string    `gorm:"primaryKey;size:32" json:"version"`
	Description string    `gorm:"size:256;not null" json:"description"`
	AppliedAt   time.Time `gorm:"not null" json:"applied_at"`
}

func (MigrationRecord) TableName() string {
	return "migrations"
}
