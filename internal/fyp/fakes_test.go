package fyp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/simosa/fyp/internal/content"
	"github.com/simosa/fyp/internal/store"
)

var (
	testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	errDown = errors.New("network error")
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Store method names used to inject failures.
const (
	opBehavior          = "Behavior"
	opFollows           = "Follows"
	opLikes             = "Likes"
	opContentByCreators = "ContentByCreators"
	opContentNewest     = "ContentNewest"
	opContentByTags     = "ContentByTags"
	opContentByIDs      = "ContentByIDs"
	opCreatorsByIDs     = "CreatorsByIDs"
)

// fakeStore wraps an in-memory store with failure and panic injection.
// When newest holds a list for a limit, ContentNewest returns that list.
type fakeStore struct {
	*store.InMemory

	mu     sync.Mutex
	errs   map[string]error
	panics map[string]bool
	newest map[int][]content.Item
	calls  map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		InMemory: store.NewInMemory(),
		errs:     make(map[string]error),
		panics:   make(map[string]bool),
		newest:   make(map[int][]content.Item),
		calls:    make(map[string]int),
	}
}

func (f *fakeStore) fail(op string, err error) { f.mu.Lock(); f.errs[op] = err; f.mu.Unlock() }
func (f *fakeStore) panicOn(op string)         { f.mu.Lock(); f.panics[op] = true; f.mu.Unlock() }

func (f *fakeStore) failAll(err error) {
	for _, op := range []string{opBehavior, opFollows, opLikes, opContentByCreators,
		opContentNewest, opContentByTags, opContentByIDs, opCreatorsByIDs} {
		f.fail(op, err)
	}
}

func (f *fakeStore) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeStore) hook(op string) error {
	f.mu.Lock()
	f.calls[op]++
	err, shouldPanic := f.errs[op], f.panics[op]
	f.mu.Unlock()
	if shouldPanic {
		panic(op + " exploded")
	}
	return err
}

func (f *fakeStore) Behavior(ctx context.Context, userID string, limit int) ([]content.Behavior, error) {
	if err := f.hook(opBehavior); err != nil {
		return nil, err
	}
	return f.InMemory.Behavior(ctx, userID, limit)
}

func (f *fakeStore) Follows(ctx context.Context, userID string) ([]string, error) {
	if err := f.hook(opFollows); err != nil {
		return nil, err
	}
	return f.InMemory.Follows(ctx, userID)
}

func (f *fakeStore) Likes(ctx context.Context, userID string) ([]string, error) {
	if err := f.hook(opLikes); err != nil {
		return nil, err
	}
	return f.InMemory.Likes(ctx, userID)
}

func (f *fakeStore) ContentByCreators(ctx context.Context, creatorIDs []string, limit int) ([]content.Item, error) {
	if err := f.hook(opContentByCreators); err != nil {
		return nil, err
	}
	return f.InMemory.ContentByCreators(ctx, creatorIDs, limit)
}

func (f *fakeStore) ContentNewest(ctx context.Context, limit int) ([]content.Item, error) {
	if err := f.hook(opContentNewest); err != nil {
		return nil, err
	}
	f.mu.Lock()
	scripted, ok := f.newest[limit]
	f.mu.Unlock()
	if ok {
		return append([]content.Item(nil), scripted...), nil
	}
	return f.InMemory.ContentNewest(ctx, limit)
}

func (f *fakeStore) ContentByTags(ctx context.Context, tags []string, limit int) ([]content.Item, error) {
	if err := f.hook(opContentByTags); err != nil {
		return nil, err
	}
	return f.InMemory.ContentByTags(ctx, tags, limit)
}

func (f *fakeStore) ContentByIDs(ctx context.Context, ids []string) ([]content.Item, error) {
	if err := f.hook(opContentByIDs); err != nil {
		return nil, err
	}
	return f.InMemory.ContentByIDs(ctx, ids)
}

func (f *fakeStore) CreatorsByIDs(ctx context.Context, ids []string) (map[string]content.Creator, error) {
	if err := f.hook(opCreatorsByIDs); err != nil {
		return nil, err
	}
	return f.InMemory.CreatorsByIDs(ctx, ids)
}

// minimalStore implements only Store, without optional capabilities.
type minimalStore struct {
	inner *store.InMemory
}

func (m minimalStore) Behavior(ctx context.Context, userID string, limit int) ([]content.Behavior, error) {
	return m.inner.Behavior(ctx, userID, limit)
}

func (m minimalStore) Follows(ctx context.Context, userID string) ([]string, error) {
	return m.inner.Follows(ctx, userID)
}

func (m minimalStore) Likes(ctx context.Context, userID string) ([]string, error) {
	return m.inner.Likes(ctx, userID)
}

func (m minimalStore) ContentByCreators(ctx context.Context, creatorIDs []string, limit int) ([]content.Item, error) {
	return m.inner.ContentByCreators(ctx, creatorIDs, limit)
}

func (m minimalStore) ContentNewest(ctx context.Context, limit int) ([]content.Item, error) {
	return m.inner.ContentNewest(ctx, limit)
}

// scorerFunc adapts a function to Scorer.
type scorerFunc func(item content.Item, prefs *content.UserPreferences, now time.Time) float64

func (f scorerFunc) Score(item content.Item, prefs *content.UserPreferences, now time.Time) float64 {
	return f(item, prefs, now)
}

// memCache is a FallbackCache with optional failure injection.
type memCache struct {
	mu      sync.Mutex
	items   []content.Item
	loadErr error
	saves   int
}

func (c *memCache) Save(_ context.Context, items []content.Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append([]content.Item(nil), items...)
	c.saves++
	return nil
}

func (c *memCache) Load(_ context.Context) ([]content.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loadErr != nil {
		return nil, c.loadErr
	}
	if c.items == nil {
		return nil, errors.New("empty")
	}
	return append([]content.Item(nil), c.items...), nil
}

// item builds a content item created age before testNow.
func item(id, creator string, age time.Duration, tags ...string) content.Item {
	return content.Item{ID: id, CreatorID: creator, CreatedAt: testNow.Add(-age), Tags: tags}
}

func itemIDs(items []content.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func sameIDs(got []content.Item, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i].ID != want[i] {
			return false
		}
	}
	return true
}

func view(userID, itemID string, at time.Time) content.Behavior {
	return content.Behavior{UserID: userID, ItemID: itemID, Action: content.ActionView, CreatedAt: at}
}
