package model

import (
	"encoding/json"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Citation points from a generated answer back to the chunk that supported it.
type Citation struct {
	FileID     string `json:"file_id"`
	ChunkIndex int    `json:"chunk_index"`
	Excerpt    string `json:"excerpt"`
}

// ConversationTurn is one message in a conversation. Citations are stored as a
// JSON array so the turn row is self-contained even after chunks are deleted.
type ConversationTurn struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID string    `gorm:"size:64;not null;index" json:"conversation_id"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	Role           string    `gorm:"size:16;not null" json:"role"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	Citations      string    `gorm:"type:text" json:"citations_json,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// CitationList returns the parsed citations; empty slice on parse error or
// when the turn carries none.
func (t *ConversationTurn) CitationList() []Citation {
	if t.Citations == "" {
		return []Citation{}
	}
	var list []Citation
	if err := json.Unmarshal([]byte(t.Citations), &list); err != nil || list == nil {
		return []Citation{}
	}
	return list
}

// SetCitations stores the citations as JSON. An empty or nil slice is stored
// as an empty JSON array, never as null.
func (t *ConversationTurn) SetCitations(list []Citation) {
	if len(list) == 0 {
		t.Citations = "[]"
		return
	}
	b, _ := json.Marshal(list)
	t.Citations = string(b)
}
