package vector

import (
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrStoreUnavailable marks failures where the vector store could not be
// reached. Callers treat it as retryable.
var ErrStoreUnavailable = errors.New("vector store unavailable")

// ErrIndexingRequired means the store refused writes because too many rows
// are unindexed. Retrying cannot help; an index operation has to run first.
var ErrIndexingRequired = errors.New("vector store requires indexing")

// IsUnavailable reports whether the error is a transient connectivity or
// timeout failure against the store.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrIndexingRequired) {
		return false
	}
	if errors.Is(err, ErrStoreUnavailable) {
		return true
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return true
	}
	return false
}

// IsAlreadyExists reports whether the error means the target already exists.
// Index creation treats this as success.
func IsAlreadyExists(err error) bool {
	return err != nil && status.Code(err) == codes.AlreadyExists
}

// isIndexingRequired matches the store's refusal to accept more unindexed
// rows. Only an out-of-band index run clears it, so it must not be retried.
func isIndexingRequired(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unindexed") || strings.Contains(msg, "indexing required")
}
