// Package history owns per-artifact review history: an append-only,
// chronologically ordered log capped at a fixed number of entries per
// artifact key. Eviction is FIFO — the oldest entry goes first. No
// other component touches the underlying storage directly.
package history

import (
	"context"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/joescharf/cq/internal/models"
)

// Store is the persistence interface for review history. Appends for
// the same artifact key are serialized by the implementation; reads
// return results in chronological order, oldest first. Latest returns
// (nil, nil) when an artifact has no history yet.
type Store interface {
	Append(ctx context.Context, key string, result *models.ReviewResult) error
	Latest(ctx context.Context, key string) (*models.ReviewResult, error)
	All(ctx context.Context, key string) ([]*models.ReviewResult, error)
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// newULID generates a new ULID string.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}
