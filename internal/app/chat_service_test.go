package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docuchat/internal/ai"
	"docuchat/internal/model"
)

func sampleChunks() []RetrievedChunk {
	return []RetrievedChunk{
		{ChunkID: 1, FileID: "file-a", FileName: "a.txt", ChunkIndex: 0, Content: "Revenue grew by twelve percent in the fourth quarter.", Score: 0.9},
		{ChunkID: 2, FileID: "file-a", FileName: "a.txt", ChunkIndex: 1, Content: "Customer churn dropped below three percent.", Score: 0.8},
	}
}

func newChatService(retriever *fakeRetriever, generator *fakeGenerator, publisher *fakePublisher, store *fakeTurnStore) *ChatService {
	if store == nil {
		store = &fakeTurnStore{}
	}
	return NewChatService(store, retriever, generator, publisher, nil, 5, 20)
}

func TestAskHappyPath(t *testing.T) {
	retriever := &fakeRetriever{chunks: sampleChunks()}
	generator := &fakeGenerator{answer: "Revenue grew by twelve percent [S1]."}
	publisher := &fakePublisher{}
	svc := newChatService(retriever, generator, publisher, nil)

	result, err := svc.Ask(context.Background(), AskInput{UserID: 1, Question: "How did revenue do?"})
	require.NoError(t, err)

	assert.NotEmpty(t, result.ConversationID)
	assert.Equal(t, "Revenue grew by twelve percent [S1].", result.Answer)
	assert.Equal(t, 2, result.MessageCount)

	require.Len(t, result.Citations, 1)
	assert.Equal(t, "file-a", result.Citations[0].FileID)
	assert.Equal(t, 0, result.Citations[0].ChunkIndex)

	require.Len(t, publisher.turns, 2)
	assert.Equal(t, model.RoleUser, publisher.turns[0].Role)
	assert.Equal(t, model.RoleAssistant, publisher.turns[1].Role)
	assert.Equal(t, result.ConversationID, publisher.turns[0].ConversationID)
}

func TestAskPromptCarriesLabeledContext(t *testing.T) {
	retriever := &fakeRetriever{chunks: sampleChunks()}
	generator := &fakeGenerator{answer: "ok [S1]"}
	svc := newChatService(retriever, generator, &fakePublisher{}, nil)

	_, err := svc.Ask(context.Background(), AskInput{UserID: 1, Question: "q"})
	require.NoError(t, err)

	require.Len(t, generator.prompts, 1)
	prompt := generator.prompts[0]
	require.NotEmpty(t, prompt)
	assert.Equal(t, "system", prompt[0].Role)
	assert.Contains(t, prompt[0].Content, "[S1]")
	assert.Contains(t, prompt[0].Content, "[S2]")
	assert.Contains(t, prompt[0].Content, "Revenue grew by twelve percent")
	assert.Equal(t, "user", prompt[len(prompt)-1].Role)
	assert.Equal(t, "q", prompt[len(prompt)-1].Content)
}

func TestAskReusesConversationAndHistory(t *testing.T) {
	store := &fakeTurnStore{turns: []model.ConversationTurn{
		{ConversationID: "conv-1", UserID: 1, Role: model.RoleUser, Content: "earlier question"},
		{ConversationID: "conv-1", UserID: 1, Role: model.RoleAssistant, Content: "earlier answer"},
	}}
	generator := &fakeGenerator{answer: "fine [S1]"}
	svc := newChatService(&fakeRetriever{chunks: sampleChunks()}, generator, &fakePublisher{}, store)

	result, err := svc.Ask(context.Background(), AskInput{UserID: 1, ConversationID: "conv-1", Question: "and now?"})
	require.NoError(t, err)
	assert.Equal(t, "conv-1", result.ConversationID)
	assert.Equal(t, 4, result.MessageCount)

	prompt := generator.prompts[0]
	require.Len(t, prompt, 4)
	assert.Equal(t, "earlier question", prompt[1].Content)
	assert.Equal(t, "earlier answer", prompt[2].Content)
}

func TestAskMessageCountSpansFullThread(t *testing.T) {
	store := &fakeTurnStore{}
	for i := 0; i < 10; i++ {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		store.turns = append(store.turns, model.ConversationTurn{
			ConversationID: "conv-long", UserID: 1, Role: role, Content: "turn",
		})
	}
	generator := &fakeGenerator{answer: "ok [S1]"}
	svc := NewChatService(store, &fakeRetriever{chunks: sampleChunks()}, generator, &fakePublisher{}, nil, 5, 4)

	result, err := svc.Ask(context.Background(), AskInput{UserID: 1, ConversationID: "conv-long", Question: "more?"})
	require.NoError(t, err)

	// prompt history is clipped to the window, the count is not
	require.Len(t, generator.prompts[0], 6)
	assert.Equal(t, 12, result.MessageCount)
}

func TestConversationsListsThreadsMostRecentFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store := &fakeTurnStore{turns: []model.ConversationTurn{
		{ConversationID: "conv-old", UserID: 1, Role: model.RoleUser, Content: "a", CreatedAt: base},
		{ConversationID: "conv-old", UserID: 1, Role: model.RoleAssistant, Content: "b", CreatedAt: base.Add(time.Minute)},
		{ConversationID: "conv-new", UserID: 1, Role: model.RoleUser, Content: "c", CreatedAt: base.Add(time.Hour)},
		{ConversationID: "conv-other", UserID: 2, Role: model.RoleUser, Content: "d", CreatedAt: base.Add(2 * time.Hour)},
	}}
	svc := newChatService(&fakeRetriever{}, &fakeGenerator{}, &fakePublisher{}, store)

	summaries, err := svc.Conversations(1)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "conv-new", summaries[0].ConversationID)
	assert.Equal(t, 1, summaries[0].MessageCount)
	assert.Equal(t, "conv-old", summaries[1].ConversationID)
	assert.Equal(t, 2, summaries[1].MessageCount)

	_, err = svc.Conversations(0)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestAskCitationFallbackByOverlap(t *testing.T) {
	retriever := &fakeRetriever{chunks: sampleChunks()}
	// no [Sn] markers: the answer borrows enough words from chunk one
	generator := &fakeGenerator{answer: "Revenue grew twelve percent during the fourth quarter overall."}
	svc := newChatService(retriever, generator, &fakePublisher{}, nil)

	result, err := svc.Ask(context.Background(), AskInput{UserID: 1, Question: "revenue?"})
	require.NoError(t, err)

	require.Len(t, result.Citations, 1)
	assert.Equal(t, 0, result.Citations[0].ChunkIndex)
}

func TestAskCitationsAreSubsetOfRetrieved(t *testing.T) {
	retriever := &fakeRetriever{chunks: sampleChunks()}
	generator := &fakeGenerator{answer: "See [S1], [S2] and the bogus [S9]."}
	svc := newChatService(retriever, generator, &fakePublisher{}, nil)

	result, err := svc.Ask(context.Background(), AskInput{UserID: 1, Question: "q"})
	require.NoError(t, err)
	assert.Len(t, result.Citations, 2, "marker beyond the retrieved set must be ignored")
}

func TestAskGenerationFailurePersistsNothing(t *testing.T) {
	publisher := &fakePublisher{}
	svc := newChatService(&fakeRetriever{chunks: sampleChunks()}, &fakeGenerator{err: errors.New("llm down")}, publisher, nil)

	_, err := svc.Ask(context.Background(), AskInput{UserID: 1, Question: "q"})
	require.ErrorIs(t, err, ErrGeneration)
	assert.Empty(t, publisher.turns, "failed generation must not append turns")
}

func TestAskRetrievalFailurePersistsNothing(t *testing.T) {
	publisher := &fakePublisher{}
	svc := newChatService(&fakeRetriever{err: ErrVectorIndex}, &fakeGenerator{answer: "x"}, publisher, nil)

	_, err := svc.Ask(context.Background(), AskInput{UserID: 1, Question: "q"})
	require.ErrorIs(t, err, ErrVectorIndex)
	assert.Empty(t, publisher.turns)
}

func TestAskNoContextStillAnswers(t *testing.T) {
	generator := &fakeGenerator{answer: "I do not know based on your documents."}
	svc := newChatService(&fakeRetriever{}, generator, &fakePublisher{}, nil)

	result, err := svc.Ask(context.Background(), AskInput{UserID: 1, Question: "anything?"})
	require.NoError(t, err)
	assert.NotNil(t, result.Citations, "citations must be an empty list, not absent")
	assert.Empty(t, result.Citations)
	assert.Contains(t, generator.prompts[0][0].Content, "No context passages")
}

type trackingGenerator struct {
	mu          sync.Mutex
	inFlight    int
	maxInFlight int
}

func (g *trackingGenerator) Complete(ctx context.Context, _ []ai.ChatMessage) (string, error) {
	g.mu.Lock()
	g.inFlight++
	if g.inFlight > g.maxInFlight {
		g.maxInFlight = g.inFlight
	}
	g.mu.Unlock()

	time.Sleep(2 * time.Millisecond)

	g.mu.Lock()
	g.inFlight--
	g.mu.Unlock()
	return "ok [S1]", nil
}

func TestAskSerializesConversation(t *testing.T) {
	generator := &trackingGenerator{}
	publisher := &fakePublisher{}
	svc := newChatService(&fakeRetriever{chunks: sampleChunks()}, &fakeGenerator{}, publisher, nil)
	svc.generator = generator

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Ask(context.Background(), AskInput{UserID: 1, ConversationID: "conv-x", Question: "q"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, generator.maxInFlight, "turns of one conversation must not interleave")
	assert.Len(t, publisher.turns, 16)
}

func TestHistoryReturnsTurnsInOrder(t *testing.T) {
	store := &fakeTurnStore{turns: []model.ConversationTurn{
		{ConversationID: "c", UserID: 1, Role: model.RoleUser, Content: "one"},
		{ConversationID: "c", UserID: 1, Role: model.RoleAssistant, Content: "two"},
	}}
	svc := newChatService(&fakeRetriever{}, &fakeGenerator{}, &fakePublisher{}, store)

	turns, err := svc.History(1, "c")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "one", turns[0].Content)
}

func TestHistoryUnknownConversationIsNotFound(t *testing.T) {
	svc := newChatService(&fakeRetriever{}, &fakeGenerator{}, &fakePublisher{}, &fakeTurnStore{})
	_, err := svc.History(1, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestHistoryScopedToUser(t *testing.T) {
	store := &fakeTurnStore{turns: []model.ConversationTurn{
		{ConversationID: "c", UserID: 2, Role: model.RoleUser, Content: "not yours"},
	}}
	svc := newChatService(&fakeRetriever{}, &fakeGenerator{}, &fakePublisher{}, store)

	_, err := svc.History(1, "c")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	svc := newChatService(&fakeRetriever{}, &fakeGenerator{}, &fakePublisher{}, nil)
	_, err := svc.Ask(context.Background(), AskInput{UserID: 1, Question: "   "})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestMatchCitationsExcerptIsBounded(t *testing.T) {
	long := strings.Repeat("word ", 100)
	citations := matchCitations("see [S1]", []RetrievedChunk{{FileID: "f", ChunkIndex: 0, Content: long}})
	require.Len(t, citations, 1)
	assert.LessOrEqual(t, len([]rune(citations[0].Excerpt)), 203)
}
