package model

import "time"

// FileChunk stores one bounded span of a file's extracted text. EmbeddingID is
// the vector-index entry id; it is set only when the embedding call for this
// chunk succeeded, so an empty value marks a chunk retrieval must never serve.
type FileChunk struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FileID      uint      `gorm:"not null;uniqueIndex:ux_file_chunk,priority:1" json:"file_id"`
	ChunkIndex  int       `gorm:"not null;uniqueIndex:ux_file_chunk,priority:2" json:"chunk_index"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	EmbeddingID string    `gorm:"size:64" json:"embedding_id,omitempty"`
	TokenCount  int       `json:"token_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Embedded reports whether this chunk has a usable vector-index entry.
func (c *FileChunk) Embedded() bool {
	return c.EmbeddingID != ""
}
