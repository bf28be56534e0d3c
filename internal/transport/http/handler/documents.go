package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docuchat/internal/app"
	"docuchat/internal/model"
	"docuchat/internal/transport/http/response"
)

// 20 MiB upload cap
const maxUploadBytes = 20 << 20

type DocumentsHandler struct {
	ingestService *app.IngestService
}

func NewDocumentsHandler(ingestService *app.IngestService) *DocumentsHandler {
	return &DocumentsHandler{ingestService: ingestService}
}

func (h *DocumentsHandler) Upload(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid session payload")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file field")
		return
	}
	if fileHeader.Size > maxUploadBytes {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file too large")
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "unreadable upload")
		return
	}
	defer src.Close()

	file, err := h.ingestService.Upload(c.Request.Context(), app.UploadInput{
		UserID:   userID,
		FileName: fileHeader.Filename,
		Size:     fileHeader.Size,
		Reader:   src,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrUnsupportedFormat):
			response.Error(c, http.StatusBadRequest, response.CodeUnsupportedFormat, err.Error())
		case errors.Is(err, app.ErrExtraction):
			response.Error(c, http.StatusUnprocessableEntity, response.CodeExtractionFailed, err.Error())
		case errors.Is(err, app.ErrEmbeddingProvider):
			response.Error(c, http.StatusBadGateway, response.CodeEmbeddingFailed, "embedding provider failed")
		case errors.Is(err, app.ErrVectorIndex):
			response.Error(c, http.StatusBadGateway, response.CodeVectorIndexFailed, "vector index failed")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "upload failed")
		}
		return
	}

	response.OK(c, documentView(file))
}

func (h *DocumentsHandler) List(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid session payload")
		return
	}

	files, err := h.ingestService.List(userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list documents failed")
		return
	}

	views := make([]gin.H, 0, len(files))
	for i := range files {
		views = append(views, documentView(&files[i]))
	}
	response.OK(c, gin.H{"documents": views})
}

func (h *DocumentsHandler) Get(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid session payload")
		return
	}

	file, err := h.ingestService.Get(userID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrNotFound):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, "document not found")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "fetch document failed")
		}
		return
	}

	response.OK(c, documentView(file))
}

func (h *DocumentsHandler) Delete(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid session payload")
		return
	}

	err := h.ingestService.Delete(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrNotFound):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, "document not found")
		case errors.Is(err, app.ErrVectorIndex):
			response.Error(c, http.StatusBadGateway, response.CodeVectorIndexFailed, "vector index failed")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete document failed")
		}
		return
	}

	response.OK(c, gin.H{"deleted": true})
}

func documentView(file *model.File) gin.H {
	return gin.H{
		"file_id":      file.FileID,
		"file_name":    file.FileName,
		"file_size":    file.FileSize,
		"file_type":    file.FileType,
		"status":       file.Status,
		"processed_at": file.ProcessedAt,
		"created_at":   file.CreatedAt,
	}
}
