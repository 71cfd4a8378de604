package fyp

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/simosa/fyp/internal/content"
	"github.com/simosa/fyp/internal/store"
)

// Preference data sources, used as metric and log labels.
const (
	SourceBehavior = "behavior"
	SourceFollows  = "follows"
	SourceLikes    = "likes"
)

// Extractor builds a UserPreferences snapshot from the store.
type Extractor struct {
	store      Store
	interests  InterestExtractor
	engagement EngagementAnalyzer
	metrics    *Metrics
	logger     *slog.Logger
}

// NewExtractor creates an Extractor. Nil strategies use StaticInterests and ActionCounter.
func NewExtractor(s Store, interests InterestExtractor, engagement EngagementAnalyzer, metrics *Metrics, logger *slog.Logger) *Extractor {
	if interests == nil {
		interests = StaticInterests{}
	}
	if engagement == nil {
		engagement = ActionCounter{}
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		store:      s,
		interests:  interests,
		engagement: engagement,
		metrics:    metrics,
		logger:     logger,
	}
}

// Extract fetches behavior, follows and likes concurrently and folds them
// into preferences. A failing source contributes nothing; Extract itself
// never fails.
func (e *Extractor) Extract(ctx context.Context, userID string) *content.UserPreferences {
	var signals Signals
	signals.UserID = userID

	// Each goroutine owns its own field and swallows its error, so the
	// group never cancels siblings.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := fetchSafely(func() ([]content.Behavior, error) {
			return e.store.Behavior(gctx, userID, store.BehaviorFetchLimit)
		})
		if err != nil {
			e.degrade(SourceBehavior, userID, err)
			return nil
		}
		signals.Behavior = rows
		return nil
	})
	g.Go(func() error {
		ids, err := fetchSafely(func() ([]string, error) {
			return e.store.Follows(gctx, userID)
		})
		if err != nil {
			e.degrade(SourceFollows, userID, err)
			return nil
		}
		signals.Follows = ids
		return nil
	})
	g.Go(func() error {
		ids, err := fetchSafely(func() ([]string, error) {
			return e.store.Likes(gctx, userID)
		})
		if err != nil {
			e.degrade(SourceLikes, userID, err)
			return nil
		}
		signals.Likes = ids
		return nil
	})
	_ = g.Wait()

	return &content.UserPreferences{
		UserID:             userID,
		Interests:          e.interests.Interests(ctx, signals),
		FollowedCreatorIDs: nonNil(signals.Follows),
		WatchHistory:       watchHistory(signals.Behavior),
		Engagement:         e.engagement.Analyze(signals.Behavior),
	}
}

func (e *Extractor) degrade(source, userID string, err error) {
	e.metrics.IncSourceError(source)
	e.logger.Warn("preference source unavailable, continuing without it",
		slog.String("source", source),
		slog.String("user_id", userID),
		slog.String("error", err.Error()))
}

// watchHistory returns the item ids of view rows, in fetch order.
func watchHistory(rows []content.Behavior) []string {
	history := make([]string, 0, len(rows))
	for _, b := range rows {
		if b.Action == content.ActionView {
			history = append(history, b.ItemID)
		}
	}
	return history
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
