package port

import "errors"

// Sentinel errors used across ports. Services tag failures with these so the
// HTTP layer can map them without inspecting adapter internals.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrContentNotFound = errors.New("content item not found")
	ErrEmbedding       = errors.New("embedding provider failed")
	ErrVectorStore     = errors.New("vector store failed")
)
