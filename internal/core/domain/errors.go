package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoDocuments indicates a full build produced zero documents from
	// every configured source. This signals misconfiguration and is the
	// only ingestion failure raised to the caller.
	ErrNoDocuments = errors.New("no documents were loaded successfully")

	// ErrAuthRequired indicates a source requires authentication but none
	// is configured (e.g. organization sweeps without a GitHub token).
	ErrAuthRequired = errors.New("authentication required")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrUnknownTool indicates a tool request named a capability outside
	// the fixed registry.
	ErrUnknownTool = errors.New("unknown tool")
)
