package model

import "time"

// File status lifecycle. Transitions are monotonic:
// pending -> processing -> processed | failed.
const (
	FileStatusPending    = "pending"
	FileStatusProcessing = "processing"
	FileStatusProcessed  = "processed"
	FileStatusFailed     = "failed"
)

type File struct {
	ID          uint       `gorm:"primaryKey" json:"-"`
	FileID      string     `gorm:"size:36;not null;uniqueIndex" json:"file_id"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	FileName    string     `gorm:"size:256;not null" json:"file_name"`
	FileSize    int64      `gorm:"not null" json:"file_size"`
	FileType    string     `gorm:"size:32" json:"file_type"`
	ContentHash string     `gorm:"size:64" json:"content_hash"`
	StoragePath string     `gorm:"size:512" json:"storage_path,omitempty"`
	Status      string     `gorm:"size:16;not null;default:pending;index" json:"status"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
