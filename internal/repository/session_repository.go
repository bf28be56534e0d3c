package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"docuchat/internal/model"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(session *model.UserSession) error {
	if err := r.db.Create(session).Error; err != nil {
		return fmt.Errorf("create session failed: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetActiveByToken(token string) (*model.UserSession, error) {
	var session model.UserSession
	if err := r.db.Where("token = ? AND is_active = ?", token, true).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query session by token failed: %w", err)
	}
	return &session, nil
}

func (r *SessionRepository) Deactivate(token string) error {
	if err := r.db.Model(&model.UserSession{}).Where("token = ?", token).Update("is_active", false).Error; err != nil {
		return fmt.Errorf("deactivate session failed: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeactivateByUserID(userID uint) error {
	if err := r.db.Model(&model.UserSession{}).Where("user_id = ?", userID).Update("is_active", false).Error; err != nil {
		return fmt.Errorf("deactivate user sessions failed: %w", err)
	}
	return nil
}
