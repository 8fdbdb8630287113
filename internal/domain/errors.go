package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuery signals a malformed caller query. Never retried.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrRetrievalUnavailable signals that a retrieval source cannot serve
	// the query. Surfaced to callers only when every source failed.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
	// ErrEmbeddingFailure signals an embedding step failure (vector path only).
	ErrEmbeddingFailure = errors.New("embedding failure")
	// ErrGenerationTimeout signals that the model call exceeded its deadline.
	ErrGenerationTimeout = errors.New("generation timeout")
	// ErrGenerationUnavailable signals an unreachable or failing model provider.
	ErrGenerationUnavailable = errors.New("generation unavailable")
	// ErrDuplicateCandidate signals duplicate document IDs within a single
	// retriever's candidate list. Retrievers must not emit duplicates, so
	// this is a wiring error, not a caller error.
	ErrDuplicateCandidate = errors.New("duplicate candidate in source list")
	// ErrStoreUnavailable signals that the document store cannot be reached.
	ErrStoreUnavailable = errors.New("document store unavailable")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrRateLimited signals a provider rate limit hit.
	ErrRateLimited = errors.New("rate limited")
)

// FusionInputError wraps ErrDuplicateCandidate with the offending source and ID.
type FusionInputError struct {
	Source string
	DocID  string
}

func (e *FusionInputError) Error() string {
	return fmt.Sprintf("%s: %s emitted %q twice", ErrDuplicateCandidate.Error(), e.Source, e.DocID)
}

func (e *FusionInputError) Unwrap() error { return ErrDuplicateCandidate }

// NewFusionInputError creates a duplicate-candidate error for one source list.
func NewFusionInputError(source, docID string) error {
	return &FusionInputError{Source: source, DocID: docID}
}
