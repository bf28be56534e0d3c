package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"docuchat/internal/model"
)

type FileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) Create(file *model.File) error {
	if err := r.db.Create(file).Error; err != nil {
		return fmt.Errorf("create file failed: %w", err)
	}
	return nil
}

func (r *FileRepository) GetByFileIDAndUserID(fileID string, userID uint) (*model.File, error) {
	var file model.File
	if err := r.db.Where("file_id = ? AND user_id = ?", fileID, userID).First(&file).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query file failed: %w", err)
	}
	return &file, nil
}

func (r *FileRepository) ListByUserID(userID uint) ([]model.File, error) {
	var files []model.File
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&files).Error; err != nil {
		return nil, fmt.Errorf("list files failed: %w", err)
	}
	return files, nil
}

// UpdateStatus moves the file to status; a processed file also records when.
func (r *FileRepository) UpdateStatus(id uint, status string) error {
	updates := map[string]interface{}{"status": status}
	if status == model.FileStatusProcessed {
		now := time.Now()
		updates["processed_at"] = &now
	}
	if err := r.db.Model(&model.File{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("update file status failed: %w", err)
	}
	return nil
}

func (r *FileRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.File{}, id).Error; err != nil {
		return fmt.Errorf("delete file failed: %w", err)
	}
	return nil
}
