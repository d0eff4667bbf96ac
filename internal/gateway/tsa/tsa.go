// Package tsa declares the time-stamping collaborator used by signature
// augmentation.
package tsa

import "context"

// Service requests archive timestamp tokens from a time-stamping authority.
type Service interface {
	// RequestArchiveTimestamp returns a timestamp token over the given
	// signature bytes (which include any previously attached tokens).
	RequestArchiveTimestamp(ctx context.Context, signature []byte) ([]byte, error)
}
