// Package store provides read access to content, behavior and social graph
// data for the feed pipeline, with in-memory and PostgreSQL backends.
package store

import (
	"context"
	"errors"

	"github.com/simosa/fyp/internal/content"
)

// Query limits used by the feed pipeline.
const (
	// BehaviorFetchLimit bounds the behavior rows read per preference extraction.
	BehaviorFetchLimit = 50
)

// ErrUnavailable is returned when the backing store cannot be reached.
var ErrUnavailable = errors.New("store unavailable")

// Backend is the full query surface of a content store.
// Every list is returned in a stable order: newest first unless noted.
type Backend interface {
	// Behavior returns up to limit behavior rows for the user, newest first.
	Behavior(ctx context.Context, userID string, limit int) ([]content.Behavior, error)

	// Follows returns the ids of creators the user follows.
	Follows(ctx context.Context, userID string) ([]string, error)

	// Likes returns the ids of items the user liked, newest first.
	Likes(ctx context.Context, userID string) ([]string, error)

	// ContentByCreators returns up to limit items by any of the creators, newest first.
	ContentByCreators(ctx context.Context, creatorIDs []string, limit int) ([]content.Item, error)

	// ContentNewest returns up to limit items across all creators, newest first.
	ContentNewest(ctx context.Context, limit int) ([]content.Item, error)

	// ContentByTags returns up to limit items carrying at least one of the tags, newest first.
	ContentByTags(ctx context.Context, tags []string, limit int) ([]content.Item, error)

	// ContentByIDs returns the items with the given ids. Unknown ids are skipped
	// and the result follows the order of ids.
	ContentByIDs(ctx context.Context, ids []string) ([]content.Item, error)

	// CreatorsByIDs returns creator profiles keyed by id. Unknown ids are skipped.
	CreatorsByIDs(ctx context.Context, ids []string) (map[string]content.Creator, error)
}
