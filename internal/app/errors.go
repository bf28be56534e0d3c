package app

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("resource not found")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrExtraction        = errors.New("text extraction failed")
	ErrEmbeddingProvider = errors.New("embedding provider failed")
	ErrVectorIndex       = errors.New("vector index failed")
	ErrGeneration        = errors.New("answer generation failed")
	ErrTurnEnqueue       = errors.New("turn enqueue failed")
)
