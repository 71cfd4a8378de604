package store

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/simosa/fyp/internal/content"
)

// InMemory is a thread-safe in-memory Backend.
// Returned slices are copies; callers may modify them freely.
type InMemory struct {
	mu        sync.RWMutex
	items     map[string]content.Item
	creators  map[string]content.Creator
	behaviors map[string][]content.Behavior // userID -> rows
	follows   map[string][]string           // userID -> creator ids
	likes     map[string][]string           // userID -> item ids, newest first
}

// NewInMemory creates an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{
		items:     make(map[string]content.Item),
		creators:  make(map[string]content.Creator),
		behaviors: make(map[string][]content.Behavior),
		follows:   make(map[string][]string),
		likes:     make(map[string][]string),
	}
}

// PutItem inserts or replaces an item.
func (s *InMemory) PutItem(item content.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item.Tags = slices.Clone(item.Tags)
	item.Creator = nil
	s.items[item.ID] = item
}

// PutCreator inserts or replaces a creator profile.
func (s *InMemory) PutCreator(creator content.Creator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creators[creator.ID] = creator
}

// RecordBehavior appends a behavior row for its user.
func (s *InMemory) RecordBehavior(b content.Behavior) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.behaviors[b.UserID] = append(s.behaviors[b.UserID], b)
}

// Follow records that userID follows creatorID. Duplicate follows are ignored.
func (s *InMemory) Follow(userID, creatorID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.follows[userID], creatorID) {
		return
	}
	s.follows[userID] = append(s.follows[userID], creatorID)
}

// Like records that userID liked itemID. The most recent like is listed first.
func (s *InMemory) Like(userID, itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	liked := slices.DeleteFunc(s.likes[userID], func(id string) bool { return id == itemID })
	s.likes[userID] = append([]string{itemID}, liked...)
}

// Behavior returns up to limit rows for the user, newest first.
func (s *InMemory) Behavior(ctx context.Context, userID string, limit int) ([]content.Behavior, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := slices.Clone(s.behaviors[userID])
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	return truncate(rows, limit), nil
}

// Follows returns the creators the user follows, in follow order.
func (s *InMemory) Follows(ctx context.Context, userID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.follows[userID]), nil
}

// Likes returns the items the user liked, newest first.
func (s *InMemory) Likes(ctx context.Context, userID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.likes[userID]), nil
}

// ContentByCreators returns the newest items by any of the given creators.
func (s *InMemory) ContentByCreators(ctx context.Context, creatorIDs []string, limit int) ([]content.Item, error) {
	if len(creatorIDs) == 0 {
		return []content.Item{}, nil
	}
	return s.newest(ctx, limit, func(item content.Item) bool {
		return slices.Contains(creatorIDs, item.CreatorID)
	})
}

// ContentNewest returns the newest items overall.
func (s *InMemory) ContentNewest(ctx context.Context, limit int) ([]content.Item, error) {
	return s.newest(ctx, limit, func(content.Item) bool { return true })
}

// ContentByTags returns the newest items carrying at least one of the tags.
func (s *InMemory) ContentByTags(ctx context.Context, tags []string, limit int) ([]content.Item, error) {
	if len(tags) == 0 {
		return []content.Item{}, nil
	}
	return s.newest(ctx, limit, func(item content.Item) bool {
		return slices.ContainsFunc(tags, item.HasTag)
	})
}

// ContentByIDs returns the known items among ids, in the order of ids.
func (s *InMemory) ContentByIDs(ctx context.Context, ids []string) ([]content.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]content.Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := s.items[id]; ok {
			result = append(result, cloneItem(item))
		}
	}
	return result, nil
}

// CreatorsByIDs returns the known creator profiles among ids.
func (s *InMemory) CreatorsByIDs(ctx context.Context, ids []string) (map[string]content.Creator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]content.Creator, len(ids))
	for _, id := range ids {
		if c, ok := s.creators[id]; ok {
			result[id] = c
		}
	}
	return result, nil
}

// newest returns up to limit matching items ordered by creation time
// descending, ties broken by id.
func (s *InMemory) newest(ctx context.Context, limit int, match func(content.Item) bool) ([]content.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]content.Item, 0)
	for _, item := range s.items {
		if match(item) {
			result = append(result, cloneItem(item))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return truncate(result, limit), nil
}

func cloneItem(item content.Item) content.Item {
	item.Tags = slices.Clone(item.Tags)
	return item
}

func truncate[T any](s []T, limit int) []T {
	if limit < 0 {
		limit = 0
	}
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
