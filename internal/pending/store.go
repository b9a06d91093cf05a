// Package pending holds the image a conversation is about to attach to a
// product. A conversation has at most one pending upload; storing a new one
// replaces the previous.
package pending

import (
	"context"
	"time"
)

// Upload is a normalized image waiting for the product name.
type Upload struct {
	Image     []byte
	MIMEType  string
	CreatedAt time.Time
}

// Store keeps at most one Upload per conversation key.
type Store interface {
	// Put stores u for conversation, replacing any existing upload.
	Put(ctx context.Context, conversation string, u Upload) error
	// Get returns the upload for conversation and whether one exists.
	Get(ctx context.Context, conversation string) (Upload, bool, error)
	// Delete removes the upload for conversation. Deleting nothing is not an error.
	Delete(ctx context.Context, conversation string) error
}
