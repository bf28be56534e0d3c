package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// RetrievedChunk is one passage handed to generation, joined from the vector
// index match and the chunk row.
type RetrievedChunk struct {
	ChunkID    uint    `json:"chunk_id"`
	FileID     string  `json:"file_id"`
	FileName   string  `json:"file_name"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
}

// RetrievalService turns a question into the topK most similar chunks of the
// user's processed documents.
type RetrievalService struct {
	embedder  Embedder
	index     VectorIndex
	chunkRepo ChunkStore
	topK      int
}

func NewRetrievalService(embedder Embedder, index VectorIndex, chunkRepo ChunkStore, topK int) *RetrievalService {
	if topK <= 0 {
		topK = 5
	}
	return &RetrievalService{
		embedder:  embedder,
		index:     index,
		chunkRepo: chunkRepo,
		topK:      topK,
	}
}

// Retrieve queries the index scoped to the user and resolves the matches back
// through MySQL. Matches whose chunk row is gone or whose file is not
// processed are silently dropped. Results come back ordered by score
// descending, chunk id ascending on ties.
func (s *RetrievalService) Retrieve(ctx context.Context, userID uint, query string, topK int) ([]RetrievedChunk, error) {
	if userID == 0 || strings.TrimSpace(query) == "" {
		return nil, ErrInvalidInput
	}
	if topK <= 0 {
		topK = s.topK
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingProvider, err)
	}

	filter := map[string]interface{}{
		"user_id": map[string]interface{}{"$eq": float64(userID)},
	}
	matches, err := s.index.Query(ctx, vector, topK, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVectorIndex, err)
	}
	if len(matches) == 0 {
		return nil, nil
	}

	chunkIDs := make([]uint, 0, len(matches))
	scores := make(map[uint]float64, len(matches))
	for _, m := range matches {
		raw, ok := m.Metadata["chunk_id"].(float64)
		if !ok || raw <= 0 {
			continue
		}
		id := uint(raw)
		chunkIDs = append(chunkIDs, id)
		scores[id] = m.Score
	}
	if len(chunkIDs) == 0 {
		return nil, nil
	}

	hits, err := s.chunkRepo.ListProcessedByIDs(chunkIDs, userID)
	if err != nil {
		return nil, err
	}

	results := make([]RetrievedChunk, 0, len(hits))
	for _, h := range hits {
		results = append(results, RetrievedChunk{
			ChunkID:    h.ChunkID,
			FileID:     h.FileUUID,
			FileName:   h.FileName,
			ChunkIndex: h.ChunkIndex,
			Content:    h.Content,
			Score:      scores[h.ChunkID],
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})
	return results, nil
}
