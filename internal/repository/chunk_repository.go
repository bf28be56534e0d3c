package repository

import (
	"fmt"

	"gorm.io/gorm"

	"docuchat/internal/model"
)

// ChunkHit is a chunk row joined with its file, as returned to retrieval.
type ChunkHit struct {
	ChunkID    uint
	FileID     uint
	FileUUID   string
	FileName   string
	ChunkIndex int
	Content    string
}

type ChunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

func (r *ChunkRepository) CreateBatch(chunks []model.FileChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := r.db.Create(&chunks).Error; err != nil {
		return fmt.Errorf("create chunks failed: %w", err)
	}
	return nil
}

func (r *ChunkRepository) DeleteByFileID(fileID uint) error {
	if err := r.db.Where("file_id = ?", fileID).Delete(&model.FileChunk{}).Error; err != nil {
		return fmt.Errorf("delete chunks failed: %w", err)
	}
	return nil
}

func (r *ChunkRepository) CountByFileID(fileID uint) (int64, error) {
	var n int64
	if err := r.db.Model(&model.FileChunk{}).Where("file_id = ?", fileID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count chunks failed: %w", err)
	}
	return n, nil
}

// ListProcessedByIDs resolves vector index hits back to chunk rows. The join
// keeps only chunks whose file is fully processed and owned by userID, so
// in-flight or deleted documents never reach an answer.
func (r *ChunkRepository) ListProcessedByIDs(chunkIDs []uint, userID uint) ([]ChunkHit, error) {
	if len(chunkIDs) == 0 {
		return nil, nil
	}
	var hits []ChunkHit
	err := r.db.Model(&model.FileChunk{}).
		Select("file_chunks.id AS chunk_id, files.id AS file_id, files.file_id AS file_uuid, files.file_name AS file_name, file_chunks.chunk_index, file_chunks.content").
		Joins("JOIN files ON files.id = file_chunks.file_id").
		Where("file_chunks.id IN ? AND files.user_id = ? AND files.status = ?", chunkIDs, userID, model.FileStatusProcessed).
		Scan(&hits).Error
	if err != nil {
		return nil, fmt.Errorf("list chunks by ids failed: %w", err)
	}
	return hits, nil
}
