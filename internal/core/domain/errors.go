package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidScore indicates a search result score violated the
	// non-negativity invariant.
	ErrInvalidScore = errors.New("invalid score")

	// ErrInvalidWeights indicates a hybrid search weight configuration
	// was rejected (negative, sum above 1, or all zero).
	ErrInvalidWeights = errors.New("invalid fusion weights")

	// ErrNotProvisioned indicates a user has no valid offline-access
	// credentials. Scanners stop and processors skip the task; it is a
	// routine signal, not a failure.
	ErrNotProvisioned = errors.New("user not provisioned")

	// ErrInaccessible indicates a document failed the verification-time
	// access check (deleted or permission revoked at the source).
	ErrInaccessible = errors.New("document inaccessible")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Semantic search and indexing are disabled without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorStoreUnavailable indicates the vector store is not
	// configured or unreachable.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")

	// ErrStreamClosed indicates the task stream is closed; a receiving
	// processor should exit its loop cleanly.
	ErrStreamClosed = errors.New("task stream closed")

	// ErrUnsupportedType indicates no source handler is registered for
	// a document type.
	ErrUnsupportedType = errors.New("unsupported document type")
)
