package artifact

import (
	"context"
	"errors"
)

// Store persists produced archives keyed by run.
type Store interface {
	Put(ctx context.Context, runID, path string, content []byte) error
	Get(ctx context.Context, runID, path string) ([]byte, error)
	// GetURL returns a presigned download URL, or "" when the backend cannot
	// produce one and the caller should stream the bytes itself.
	GetURL(ctx context.Context, runID, path string) (string, error)
	List(ctx context.Context, runID string) ([]string, error)
}

var ErrNotFound = errors.New("artifact not found")
