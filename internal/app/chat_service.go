package app

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"docuchat/internal/ai"
	"docuchat/internal/model"
	"docuchat/internal/repository"
)

type Retriever interface {
	Retrieve(ctx context.Context, userID uint, query string, topK int) ([]RetrievedChunk, error)
}

type Generator interface {
	Complete(ctx context.Context, messages []ai.ChatMessage) (string, error)
}

type TurnPublisher interface {
	Publish(ctx context.Context, turn model.ConversationTurn) error
}

type TurnStore interface {
	ListByConversation(conversationID string, userID uint) ([]model.ConversationTurn, error)
	ListRecent(conversationID string, userID uint, limit int) ([]model.ConversationTurn, error)
	CountByConversation(conversationID string, userID uint) (int64, error)
	ListConversations(userID uint) ([]repository.ConversationSummary, error)
}

type HistoryCache interface {
	GetHistory(ctx context.Context, conversationID string) ([]model.ConversationTurn, bool, error)
	SetHistory(ctx context.Context, conversationID string, turns []model.ConversationTurn) error
	DeleteHistory(ctx context.Context, conversationID string) error
	MarkDirty(ctx context.Context, conversationID string) error
	IsDirty(ctx context.Context, conversationID string) (bool, error)
}

const systemPrompt = "You are a document assistant. Answer the question using only the " +
	"provided context passages. Each passage is labeled like [S1], [S2] and so on. " +
	"When a passage supports part of your answer, cite its label inline. " +
	"If the context does not contain the answer, say you do not know."

// ChatService answers questions over a user's documents. Turns within one
// conversation are serialized by a per-conversation mutex and appended only
// after the answer was generated, so a failed request leaves no trace.
type ChatService struct {
	turnRepo      TurnStore
	retriever     Retriever
	generator     Generator
	publisher     TurnPublisher
	historyCache  HistoryCache
	topK          int
	historyWindow int

	locks sync.Map // conversationID -> *sync.Mutex
}

type AskInput struct {
	UserID         uint
	ConversationID string
	Question       string
}

type AskResult struct {
	ConversationID string           `json:"conversation_id"`
	Answer         string           `json:"answer"`
	Citations      []model.Citation `json:"citations"`
	Retrieved      []RetrievedChunk `json:"retrieved"`
	MessageCount   int              `json:"message_count"`
}

func NewChatService(
	turnRepo TurnStore,
	retriever Retriever,
	generator Generator,
	publisher TurnPublisher,
	historyCache HistoryCache,
	topK, historyWindow int,
) *ChatService {
	if topK <= 0 {
		topK = 5
	}
	if historyWindow <= 0 {
		historyWindow = 20
	}
	return &ChatService{
		turnRepo:      turnRepo,
		retriever:     retriever,
		generator:     generator,
		publisher:     publisher,
		historyCache:  historyCache,
		topK:          topK,
		historyWindow: historyWindow,
	}
}

// Ask runs one question through retrieval and generation. A missing
// conversation id starts a new conversation.
func (s *ChatService) Ask(ctx context.Context, input AskInput) (*AskResult, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidInput
	}
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, ErrInvalidInput
	}

	conversationID := strings.TrimSpace(input.ConversationID)
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	mu := s.lockFor(conversationID)
	mu.Lock()
	defer mu.Unlock()

	retrieved, err := s.retriever.Retrieve(ctx, input.UserID, question, s.topK)
	if err != nil {
		return nil, err
	}

	history, err := s.loadHistory(ctx, conversationID, input.UserID)
	if err != nil {
		return nil, err
	}
	// the prompt window may be shorter than the thread, so the reported
	// message count comes from the store
	stored, err := s.turnRepo.CountByConversation(conversationID, input.UserID)
	if err != nil {
		return nil, err
	}

	prompt := buildPrompt(retrieved, history, question)
	answer, err := s.generator.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, fmt.Errorf("%w: empty completion", ErrGeneration)
	}

	citations := matchCitations(answer, retrieved)
	if citations == nil {
		citations = []model.Citation{}
	}

	if s.publisher == nil {
		return nil, ErrTurnEnqueue
	}
	if s.historyCache != nil {
		_ = s.historyCache.MarkDirty(ctx, conversationID)
		_ = s.historyCache.DeleteHistory(ctx, conversationID)
	}

	now := time.Now()
	userTurn := model.ConversationTurn{
		ConversationID: conversationID,
		UserID:         input.UserID,
		Role:           model.RoleUser,
		Content:        question,
		CreatedAt:      now,
	}
	if err := s.publisher.Publish(ctx, userTurn); err != nil {
		return nil, ErrTurnEnqueue
	}

	assistantTurn := model.ConversationTurn{
		ConversationID: conversationID,
		UserID:         input.UserID,
		Role:           model.RoleAssistant,
		Content:        answer,
		CreatedAt:      now,
	}
	assistantTurn.SetCitations(citations)
	if err := s.publisher.Publish(ctx, assistantTurn); err != nil {
		return nil, ErrTurnEnqueue
	}

	return &AskResult{
		ConversationID: conversationID,
		Answer:         answer,
		Citations:      citations,
		Retrieved:      retrieved,
		MessageCount:   int(stored) + 2,
	}, nil
}

// History returns all turns of a conversation the user owns.
func (s *ChatService) History(userID uint, conversationID string) ([]model.ConversationTurn, error) {
	if userID == 0 || strings.TrimSpace(conversationID) == "" {
		return nil, ErrInvalidInput
	}
	turns, err := s.turnRepo.ListByConversation(conversationID, userID)
	if err != nil {
		return nil, err
	}
	if len(turns) == 0 {
		return nil, ErrNotFound
	}
	return turns, nil
}

// Conversations lists the user's conversation threads, most recently active
// first.
func (s *ChatService) Conversations(userID uint) ([]repository.ConversationSummary, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	summaries, err := s.turnRepo.ListConversations(userID)
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

func (s *ChatService) lockFor(conversationID string) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(conversationID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func (s *ChatService) loadHistory(ctx context.Context, conversationID string, userID uint) ([]model.ConversationTurn, error) {
	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, conversationID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, conversationID); cacheErr == nil && hit {
				return trimTurns(cached, s.historyWindow), nil
			}
		}
	}

	turns, err := s.turnRepo.ListRecent(conversationID, userID, s.historyWindow)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, conversationID); dirtyErr == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, conversationID, turns)
		}
	}
	return turns, nil
}

func trimTurns(turns []model.ConversationTurn, limit int) []model.ConversationTurn {
	if limit <= 0 || len(turns) <= limit {
		return turns
	}
	return turns[len(turns)-limit:]
}

func buildPrompt(retrieved []RetrievedChunk, history []model.ConversationTurn, question string) []ai.ChatMessage {
	var sb strings.Builder
	sb.WriteString(systemPrompt)
	if len(retrieved) > 0 {
		sb.WriteString("\n\nContext passages:\n")
		for i, chunk := range retrieved {
			sb.WriteString(fmt.Sprintf("\n[S%d] (from %s)\n%s\n", i+1, chunk.FileName, chunk.Content))
		}
	} else {
		sb.WriteString("\n\nNo context passages were found for this question.")
	}

	messages := make([]ai.ChatMessage, 0, len(history)+2)
	messages = append(messages, ai.ChatMessage{Role: "system", Content: sb.String()})
	for _, turn := range history {
		messages = append(messages, ai.ChatMessage{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, ai.ChatMessage{Role: "user", Content: question})
	return messages
}

var citationMarker = regexp.MustCompile(`\[S(\d+)\]`)

// matchCitations maps an answer back to the passages it drew on. Explicit
// [Sn] markers win; if the model cited nothing, passages sharing enough rare
// words with the answer are counted instead. The result is always a subset of
// the retrieved chunks.
func matchCitations(answer string, retrieved []RetrievedChunk) []model.Citation {
	if len(retrieved) == 0 {
		return nil
	}

	cited := make(map[int]bool)
	for _, m := range citationMarker.FindAllStringSubmatch(answer, -1) {
		var n int
		if _, err := fmt.Sscanf(m[1], "%d", &n); err == nil && n >= 1 && n <= len(retrieved) {
			cited[n-1] = true
		}
	}

	if len(cited) == 0 {
		answerWords := wordSet(answer)
		for i, chunk := range retrieved {
			if overlapCount(wordSet(chunk.Content), answerWords) >= 5 {
				cited[i] = true
			}
		}
	}

	var citations []model.Citation
	for i, chunk := range retrieved {
		if !cited[i] {
			continue
		}
		citations = append(citations, model.Citation{
			FileID:     chunk.FileID,
			ChunkIndex: chunk.ChunkIndex,
			Excerpt:    excerpt(chunk.Content, 200),
		})
	}
	return citations
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,!?;:()[]\"'")
		if len(w) > 4 {
			set[w] = true
		}
	}
	return set
}

func overlapCount(a, b map[string]bool) int {
	n := 0
	for w := range a {
		if b[w] {
			n++
		}
	}
	return n
}

func excerpt(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "..."
}
