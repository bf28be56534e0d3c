package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docuchat/internal/app"
	"docuchat/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
}

type AskRequest struct {
	ConversationID string `json:"conversation_id" binding:"max=64"`
	Question       string `json:"question" binding:"required,max=4096"`
}

func NewChatHandler(chatService *app.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) Ask(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid session payload")
		return
	}

	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.chatService.Ask(c.Request.Context(), app.AskInput{
		UserID:         userID,
		ConversationID: req.ConversationID,
		Question:       req.Question,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrEmbeddingProvider):
			response.Error(c, http.StatusBadGateway, response.CodeEmbeddingFailed, "embedding provider failed")
		case errors.Is(err, app.ErrVectorIndex):
			response.Error(c, http.StatusBadGateway, response.CodeVectorIndexFailed, "vector index failed")
		case errors.Is(err, app.ErrGeneration):
			response.Error(c, http.StatusBadGateway, response.CodeGenerationFailed, "answer generation failed")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "chat failed")
		}
		return
	}

	response.OK(c, gin.H{
		"conversation_id": result.ConversationID,
		"response":        result.Answer,
		"citations":       result.Citations,
		"message_count":   result.MessageCount,
	})
}

func (h *ChatHandler) Threads(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid session payload")
		return
	}

	summaries, err := h.chatService.Conversations(userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list threads failed")
		return
	}

	views := make([]gin.H, 0, len(summaries))
	for _, s := range summaries {
		views = append(views, gin.H{
			"conversation_id": s.ConversationID,
			"message_count":   s.MessageCount,
			"last_message_at": s.LastMessageAt,
		})
	}
	response.OK(c, gin.H{"threads": views})
}

func (h *ChatHandler) History(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid session payload")
		return
	}

	turns, err := h.chatService.History(userID, c.Param("conversation_id"))
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrNotFound):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, "conversation not found")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "fetch history failed")
		}
		return
	}

	views := make([]gin.H, 0, len(turns))
	for _, turn := range turns {
		views = append(views, gin.H{
			"role":       turn.Role,
			"content":    turn.Content,
			"citations":  turn.CitationList(),
			"created_at": turn.CreatedAt,
		})
	}
	response.OK(c, gin.H{
		"conversation_id": c.Param("conversation_id"),
		"turns":           views,
	})
}
