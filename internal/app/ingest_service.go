package app

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"docuchat/internal/model"
	"docuchat/internal/pkg/chunker"
	"docuchat/internal/pkg/extract"
	"docuchat/internal/repository"
	"docuchat/internal/vectorindex"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type VectorIndex interface {
	Upsert(ctx context.Context, entries []vectorindex.Entry) error
	Query(ctx context.Context, vector []float32, topK int, filter map[string]interface{}) ([]vectorindex.Match, error)
	DeleteByFileID(ctx context.Context, dbFileID uint) error
}

type FileStore interface {
	Create(file *model.File) error
	GetByFileIDAndUserID(fileID string, userID uint) (*model.File, error)
	ListByUserID(userID uint) ([]model.File, error)
	UpdateStatus(id uint, status string) error
	Delete(id uint) error
}

type ChunkStore interface {
	CreateBatch(chunks []model.FileChunk) error
	DeleteByFileID(fileID uint) error
	ListProcessedByIDs(chunkIDs []uint, userID uint) ([]repository.ChunkHit, error)
}

// IngestService runs the upload pipeline: extract, chunk, embed, index,
// persist. A document becomes visible to retrieval only once its file row
// reaches processed status, so a crash mid-pipeline leaves nothing
// half-searchable.
type IngestService struct {
	fileRepo  FileStore
	chunkRepo ChunkStore
	embedder  Embedder
	index     VectorIndex
	chunks    *chunker.Chunker
	logger    *zap.Logger
}

type UploadInput struct {
	UserID   uint
	FileName string
	Size     int64
	Reader   io.Reader
}

func NewIngestService(
	fileRepo FileStore,
	chunkRepo ChunkStore,
	embedder Embedder,
	index VectorIndex,
	chunks *chunker.Chunker,
	logger *zap.Logger,
) *IngestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestService{
		fileRepo:  fileRepo,
		chunkRepo: chunkRepo,
		embedder:  embedder,
		index:     index,
		chunks:    chunks,
		logger:    logger,
	}
}

// Upload ingests one document. Individual chunks whose embedding fails are
// kept without an embedding id; the file only fails outright when extraction
// yields nothing, no chunk embeds, or the index rejects the batch.
func (s *IngestService) Upload(ctx context.Context, input UploadInput) (*model.File, error) {
	if input.UserID == 0 || strings.TrimSpace(input.FileName) == "" || input.Reader == nil {
		return nil, ErrInvalidInput
	}
	if !extract.Supported(input.FileName) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, extract.Ext(input.FileName))
	}

	raw, err := io.ReadAll(input.Reader)
	if err != nil {
		return nil, fmt.Errorf("%w: read upload: %v", ErrExtraction, err)
	}

	hash := sha256.Sum256(raw)
	file := &model.File{
		FileID:      uuid.NewString(),
		UserID:      input.UserID,
		FileName:    input.FileName,
		FileSize:    int64(len(raw)),
		FileType:    strings.TrimPrefix(extract.Ext(input.FileName), "."),
		ContentHash: hex.EncodeToString(hash[:]),
		Status:      model.FileStatusPending,
	}
	if err := s.fileRepo.Create(file); err != nil {
		return nil, err
	}
	if err := s.fileRepo.UpdateStatus(file.ID, model.FileStatusProcessing); err != nil {
		return nil, err
	}
	file.Status = model.FileStatusProcessing

	text, err := extract.Text(input.FileName, bytes.NewReader(raw))
	if err != nil {
		s.fail(file)
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	pieces := s.chunks.Split(text)
	if len(pieces) == 0 {
		s.fail(file)
		return nil, fmt.Errorf("%w: no extractable text", ErrExtraction)
	}

	rows := make([]model.FileChunk, len(pieces))
	vectors := make([][]float32, len(pieces))
	embedded := 0
	for i, piece := range pieces {
		rows[i] = model.FileChunk{
			FileID:     file.ID,
			ChunkIndex: piece.Index,
			Content:    piece.Content,
			TokenCount: piece.TokenCount,
		}

		vec, embedErr := s.embedWithRetry(ctx, piece.Content)
		if embedErr != nil {
			s.logger.Warn("chunk embedding failed",
				zap.String("file_id", file.FileID),
				zap.Int("chunk_index", piece.Index),
				zap.Error(embedErr))
			continue
		}

		rows[i].EmbeddingID = fmt.Sprintf("%s:%d", file.FileID, piece.Index)
		vectors[i] = vec
		embedded++
	}

	if embedded == 0 {
		s.fail(file)
		return nil, fmt.Errorf("%w: no chunk could be embedded", ErrEmbeddingProvider)
	}

	// chunk rows first so their ids can ride along as vector metadata;
	// the rows stay invisible to retrieval until the file is processed
	if err := s.chunkRepo.CreateBatch(rows); err != nil {
		s.fail(file)
		return nil, err
	}

	entries := make([]vectorindex.Entry, 0, embedded)
	for i, row := range rows {
		if row.EmbeddingID == "" {
			continue
		}
		entries = append(entries, vectorindex.Entry{
			ID:     row.EmbeddingID,
			Vector: vectors[i],
			Metadata: map[string]interface{}{
				"file_id":     file.FileID,
				"db_file_id":  float64(file.ID),
				"chunk_id":    float64(row.ID),
				"chunk_index": float64(row.ChunkIndex),
				"user_id":     float64(input.UserID),
				"filename":    file.FileName,
			},
		})
	}
	if err := s.index.Upsert(ctx, entries); err != nil {
		s.fail(file)
		return nil, fmt.Errorf("%w: %v", ErrVectorIndex, err)
	}

	if err := s.fileRepo.UpdateStatus(file.ID, model.FileStatusProcessed); err != nil {
		return nil, err
	}
	file.Status = model.FileStatusProcessed
	now := time.Now()
	file.ProcessedAt = &now

	s.logger.Info("document ingested",
		zap.String("file_id", file.FileID),
		zap.Int("chunks", len(pieces)),
		zap.Int("embedded", embedded))
	return file, nil
}

// Delete removes a document everywhere: vector index first, then chunk rows,
// then the file row. Failing the index delete aborts so no orphan vectors
// survive the file row.
func (s *IngestService) Delete(ctx context.Context, userID uint, fileID string) error {
	if userID == 0 || strings.TrimSpace(fileID) == "" {
		return ErrInvalidInput
	}
	file, err := s.fileRepo.GetByFileIDAndUserID(fileID, userID)
	if err != nil {
		return err
	}
	if file == nil {
		return ErrNotFound
	}

	if err := s.index.DeleteByFileID(ctx, file.ID); err != nil {
		return fmt.Errorf("%w: %v", ErrVectorIndex, err)
	}
	if err := s.chunkRepo.DeleteByFileID(file.ID); err != nil {
		return err
	}
	if err := s.fileRepo.Delete(file.ID); err != nil {
		return err
	}

	s.logger.Info("document deleted", zap.String("file_id", file.FileID))
	return nil
}

func (s *IngestService) List(userID uint) ([]model.File, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.fileRepo.ListByUserID(userID)
}

func (s *IngestService) Get(userID uint, fileID string) (*model.File, error) {
	if userID == 0 || strings.TrimSpace(fileID) == "" {
		return nil, ErrInvalidInput
	}
	file, err := s.fileRepo.GetByFileIDAndUserID(fileID, userID)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, ErrNotFound
	}
	return file, nil
}

func (s *IngestService) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := retry.Do(
		func() error {
			var embedErr error
			vec, embedErr = s.embedder.Embed(ctx, text)
			return embedErr
		},
		retry.Attempts(3),
		retry.Delay(100*time.Millisecond),
		retry.DelayType(retry.FixedDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return vec, nil
}

func (s *IngestService) fail(file *model.File) {
	if err := s.fileRepo.UpdateStatus(file.ID, model.FileStatusFailed); err != nil {
		s.logger.Error("mark file failed", zap.String("file_id", file.FileID), zap.Error(err))
	}
	file.Status = model.FileStatusFailed
}
