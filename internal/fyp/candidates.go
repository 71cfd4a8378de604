package fyp

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/simosa/fyp/internal/content"
)

// Candidate sources, in merge order.
const (
	SourceFollowed  = "followed"
	SourceInterest  = "interest"
	SourceTrending  = "trending"
	SourceDiscovery = "discovery"
)

// Per-source candidate caps.
const (
	FollowedCap  = 10
	InterestCap  = 15
	TrendingCap  = 10
	DiscoveryCap = 5
)

// Sourcer gathers candidate items from several concurrent queries.
type Sourcer struct {
	store   Store
	tags    TagSearcher // nil when the store cannot search by tag
	metrics *Metrics
	logger  *slog.Logger

	// onTrending receives the trending list after a successful query.
	onTrending func(ctx context.Context, items []content.Item)
}

// NewSourcer creates a Sourcer. Tag search is enabled when s implements TagSearcher.
func NewSourcer(s Store, metrics *Metrics, logger *slog.Logger) *Sourcer {
	if metrics == nil {
		metrics = NewMetrics()
	}
	if logger == nil {
		logger = slog.Default()
	}
	tags, _ := s.(TagSearcher)
	return &Sourcer{store: s, tags: tags, metrics: metrics, logger: logger}
}

type source struct {
	name  string
	fetch func(ctx context.Context) ([]content.Item, error)
}

// Source runs the followed, interest, trending and discovery queries
// concurrently and merges them in that order, keeping the first occurrence
// of each item id. A failing source contributes nothing.
func (s *Sourcer) Source(ctx context.Context, prefs *content.UserPreferences) []content.Item {
	items, _ := s.gather(ctx, prefs)
	return items
}

// gather is Source that also reports how many sources failed.
func (s *Sourcer) gather(ctx context.Context, prefs *content.UserPreferences) ([]content.Item, int) {
	sources := []source{
		{SourceFollowed, func(ctx context.Context) ([]content.Item, error) {
			if len(prefs.FollowedCreatorIDs) == 0 {
				return nil, nil
			}
			return s.store.ContentByCreators(ctx, prefs.FollowedCreatorIDs, FollowedCap)
		}},
		{SourceInterest, func(ctx context.Context) ([]content.Item, error) {
			if s.tags == nil || len(prefs.Interests) == 0 {
				return nil, nil
			}
			return s.tags.ContentByTags(ctx, prefs.Interests, InterestCap)
		}},
		{SourceTrending, func(ctx context.Context) ([]content.Item, error) {
			return s.store.ContentNewest(ctx, TrendingCap)
		}},
		{SourceDiscovery, func(ctx context.Context) ([]content.Item, error) {
			return s.store.ContentNewest(ctx, DiscoveryCap)
		}},
	}

	results := make([][]content.Item, len(sources))
	failed := make([]bool, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			items, err := fetchSafely(func() ([]content.Item, error) {
				return src.fetch(gctx)
			})
			if err != nil {
				failed[i] = true
				s.metrics.IncSourceError(src.name)
				s.logger.Warn("candidate source unavailable, continuing without it",
					slog.String("source", src.name),
					slog.String("user_id", prefs.UserID),
					slog.String("error", err.Error()))
				return nil
			}
			results[i] = items
			return nil
		})
	}
	_ = g.Wait()

	failures := 0
	for i, src := range sources {
		if failed[i] {
			failures++
			continue
		}
		if src.name == SourceTrending && s.onTrending != nil {
			s.onTrending(ctx, results[i])
		}
	}
	return Dedup(results...), failures
}

// Dedup concatenates lists and drops repeated item ids, keeping the first
// occurrence.
func Dedup(lists ...[]content.Item) []content.Item {
	seen := make(map[string]struct{})
	merged := make([]content.Item, 0)
	for _, list := range lists {
		for _, item := range list {
			if _, ok := seen[item.ID]; ok {
				continue
			}
			seen[item.ID] = struct{}{}
			merged = append(merged, item)
		}
	}
	return merged
}
