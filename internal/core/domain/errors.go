package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFieldType indicates a remote field type outside the
	// closed variant set. Treated as a configuration error: the enclosing
	// record must not be mirrored with partial data.
	ErrUnsupportedFieldType = errors.New("unsupported field type")

	// ErrUploadFailed indicates the blob relay could not produce a durable
	// URL for a remote file.
	ErrUploadFailed = errors.New("file upload failed")

	// ErrSyncInProgress indicates a sync is already running for a database.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrRateLimited indicates the remote API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
