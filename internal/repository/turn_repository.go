package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"docuchat/internal/model"
)

// ConversationSummary is one row of the thread listing: a conversation id
// with its turn count and the timestamp of its latest message.
type ConversationSummary struct {
	ConversationID string    `json:"conversation_id"`
	MessageCount   int       `json:"message_count"`
	LastMessageAt  time.Time `json:"last_message_at"`
}

type TurnRepository struct {
	db *gorm.DB
}

func NewTurnRepository(db *gorm.DB) *TurnRepository {
	return &TurnRepository{db: db}
}

func (r *TurnRepository) Create(turn *model.ConversationTurn) error {
	if err := r.db.Create(turn).Error; err != nil {
		return fmt.Errorf("create turn failed: %w", err)
	}
	return nil
}

// ListByConversation returns all turns of a conversation in chronological
// order, scoped to the owning user.
func (r *TurnRepository) ListByConversation(conversationID string, userID uint) ([]model.ConversationTurn, error) {
	var turns []model.ConversationTurn
	err := r.db.Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Order("id ASC").
		Find(&turns).Error
	if err != nil {
		return nil, fmt.Errorf("list turns failed: %w", err)
	}
	return turns, nil
}

// ListRecent returns the last limit turns of a conversation, oldest first.
func (r *TurnRepository) ListRecent(conversationID string, userID uint, limit int) ([]model.ConversationTurn, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var turns []model.ConversationTurn
	err := r.db.Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Order("id DESC").
		Limit(limit).
		Find(&turns).Error
	if err != nil {
		return nil, fmt.Errorf("list recent turns failed: %w", err)
	}
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// CountByConversation returns the total number of stored turns in a
// conversation, scoped to the owning user.
func (r *TurnRepository) CountByConversation(conversationID string, userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.ConversationTurn{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count turns failed: %w", err)
	}
	return count, nil
}

// ListConversations returns the user's conversations, most recently active
// first.
func (r *TurnRepository) ListConversations(userID uint) ([]ConversationSummary, error) {
	var summaries []ConversationSummary
	err := r.db.Model(&model.ConversationTurn{}).
		Select("conversation_id, COUNT(*) AS message_count, MAX(created_at) AS last_message_at").
		Where("user_id = ?", userID).
		Group("conversation_id").
		Order("last_message_at DESC").
		Scan(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("list conversations failed: %w", err)
	}
	return summaries, nil
}
