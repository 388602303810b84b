// Package embedding defines the embedding provider contract. Provider
// failures are never pipeline-fatal: callers treat ErrUnavailable as
// "no embedding" and degrade to attribute-based scoring.
package embedding

import (
	"context"
	"errors"
)

// ErrUnavailable marks a provider error or timeout.
var ErrUnavailable = errors.New("embedding provider unavailable")

// Embedder converts text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
