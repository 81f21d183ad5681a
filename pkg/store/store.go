// Package store holds uploaded certificate templates between the upload
// and export calls of the HTTP server.
//
// Templates are stored as raw encoded bytes under an opaque ID with a TTL,
// with implementations for different backends:
//   - memory: in-process storage for development/testing
//   - file: hash-addressed files for single-instance deployments
//   - redis: shared storage for multi-instance deployments
package store

import (
	"context"
	"time"

	"github.com/mkoeppel/certpress/pkg/errors"
)

// DefaultTTL is how long an uploaded template stays available.
const DefaultTTL = time.Hour

// Store is the interface for template storage backends.
type Store interface {
	// Get retrieves template bytes by ID. A missing or expired entry
	// returns an ASSET_NOT_FOUND error.
	Get(ctx context.Context, id string) ([]byte, error)

	// Set stores template bytes under id. A non-positive ttl falls back
	// to DefaultTTL.
	Set(ctx context.Context, id string, data []byte, ttl time.Duration) error

	// Delete removes a template. Deleting a missing entry is not an error.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired entries (may be a no-op for backends with
	// native expiry).
	Cleanup(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// notFound is the shared error for missing or expired templates.
func notFound(id string) error {
	return errors.New(errors.ErrCodeAssetNotFound, "template %s not found or expired", id)
}
