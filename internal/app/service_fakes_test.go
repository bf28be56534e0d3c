package app

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"docuchat/internal/ai"
	"docuchat/internal/model"
	"docuchat/internal/repository"
	"docuchat/internal/vectorindex"
)

type fakeFileStore struct {
	files  map[uint]*model.File
	nextID uint
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{files: map[uint]*model.File{}, nextID: 1}
}

func (f *fakeFileStore) Create(file *model.File) error {
	file.ID = f.nextID
	f.nextID++
	clone := *file
	f.files[file.ID] = &clone
	return nil
}

func (f *fakeFileStore) GetByFileIDAndUserID(fileID string, userID uint) (*model.File, error) {
	for _, file := range f.files {
		if file.FileID == fileID && file.UserID == userID {
			clone := *file
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeFileStore) ListByUserID(userID uint) ([]model.File, error) {
	var out []model.File
	for _, file := range f.files {
		if file.UserID == userID {
			out = append(out, *file)
		}
	}
	return out, nil
}

func (f *fakeFileStore) UpdateStatus(id uint, status string) error {
	file, ok := f.files[id]
	if !ok {
		return errors.New("no such file")
	}
	file.Status = status
	return nil
}

func (f *fakeFileStore) Delete(id uint) error {
	delete(f.files, id)
	return nil
}

type fakeChunkStore struct {
	chunks    map[uint]model.FileChunk
	nextID    uint
	processed func(fileID uint) bool
	createErr error
}

func newFakeChunkStore() *fakeChunkStore {
	return &fakeChunkStore{chunks: map[uint]model.FileChunk{}, nextID: 1}
}

func (f *fakeChunkStore) CreateBatch(chunks []model.FileChunk) error {
	if f.createErr != nil {
		return f.createErr
	}
	for i := range chunks {
		chunks[i].ID = f.nextID
		f.nextID++
		f.chunks[chunks[i].ID] = chunks[i]
	}
	return nil
}

func (f *fakeChunkStore) DeleteByFileID(fileID uint) error {
	for id, ch := range f.chunks {
		if ch.FileID == fileID {
			delete(f.chunks, id)
		}
	}
	return nil
}

func (f *fakeChunkStore) ListProcessedByIDs(chunkIDs []uint, userID uint) ([]repository.ChunkHit, error) {
	var hits []repository.ChunkHit
	for _, id := range chunkIDs {
		ch, ok := f.chunks[id]
		if !ok {
			continue
		}
		if f.processed != nil && !f.processed(ch.FileID) {
			continue
		}
		hits = append(hits, repository.ChunkHit{
			ChunkID:    ch.ID,
			FileID:     ch.FileID,
			FileUUID:   fmt.Sprintf("file-%d", ch.FileID),
			FileName:   fmt.Sprintf("file-%d.txt", ch.FileID),
			ChunkIndex: ch.ChunkIndex,
			Content:    ch.Content,
		})
	}
	return hits, nil
}

type fakeEmbedder struct {
	vec     []float32
	failOn  map[string]bool
	failAll bool
	calls   int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.failAll || f.failOn[text] {
		return nil, errors.New("embedding backend down")
	}
	if f.vec != nil {
		return f.vec, nil
	}
	return []float32{0.1, 0.2}, nil
}

type fakeIndex struct {
	upserted   []vectorindex.Entry
	deleted    []uint
	matches    []vectorindex.Match
	upsertErr  error
	queryErr   error
	deleteErr  error
	lastFilter map[string]interface{}
}

func (f *fakeIndex) Upsert(ctx context.Context, entries []vectorindex.Entry) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, entries...)
	return nil
}

func (f *fakeIndex) Query(ctx context.Context, vector []float32, topK int, filter map[string]interface{}) ([]vectorindex.Match, error) {
	f.lastFilter = filter
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.matches, nil
}

func (f *fakeIndex) DeleteByFileID(ctx context.Context, dbFileID uint) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, dbFileID)
	return nil
}

type fakeRetriever struct {
	chunks []RetrievedChunk
	err    error
}

func (f *fakeRetriever) Retrieve(ctx context.Context, userID uint, query string, topK int) ([]RetrievedChunk, error) {
	return f.chunks, f.err
}

type fakeGenerator struct {
	answer  string
	err     error
	prompts [][]ai.ChatMessage
}

func (f *fakeGenerator) Complete(ctx context.Context, messages []ai.ChatMessage) (string, error) {
	f.prompts = append(f.prompts, messages)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type fakePublisher struct {
	turns []model.ConversationTurn
	err   error
}

func (f *fakePublisher) Publish(ctx context.Context, turn model.ConversationTurn) error {
	if f.err != nil {
		return f.err
	}
	f.turns = append(f.turns, turn)
	return nil
}

type fakeTurnStore struct {
	turns []model.ConversationTurn
}

func (f *fakeTurnStore) ListByConversation(conversationID string, userID uint) ([]model.ConversationTurn, error) {
	var out []model.ConversationTurn
	for _, t := range f.turns {
		if t.ConversationID == conversationID && t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTurnStore) ListRecent(conversationID string, userID uint, limit int) ([]model.ConversationTurn, error) {
	out, _ := f.ListByConversation(conversationID, userID)
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakeTurnStore) CountByConversation(conversationID string, userID uint) (int64, error) {
	out, _ := f.ListByConversation(conversationID, userID)
	return int64(len(out)), nil
}

func (f *fakeTurnStore) ListConversations(userID uint) ([]repository.ConversationSummary, error) {
	byID := make(map[string]*repository.ConversationSummary)
	var order []string
	for _, t := range f.turns {
		if t.UserID != userID {
			continue
		}
		s, ok := byID[t.ConversationID]
		if !ok {
			s = &repository.ConversationSummary{ConversationID: t.ConversationID}
			byID[t.ConversationID] = s
			order = append(order, t.ConversationID)
		}
		s.MessageCount++
		if t.CreatedAt.After(s.LastMessageAt) {
			s.LastMessageAt = t.CreatedAt
		}
	}
	out := make([]repository.ConversationSummary, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastMessageAt.After(out[j].LastMessageAt)
	})
	return out, nil
}
