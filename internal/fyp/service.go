package fyp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/simosa/fyp/internal/content"
	"github.com/simosa/fyp/internal/ranking"
	"github.com/simosa/fyp/internal/tracing"
)

// DefaultLimit is the feed size used when the caller passes a non-positive limit.
const DefaultLimit = 20

// State is a pipeline state.
type State string

// Pipeline states.
const (
	StateExtractingPrefs    State = "extracting_prefs"
	StateSourcingCandidates State = "sourcing_candidates"
	StateScoring            State = "scoring"
	StateSelecting          State = "selecting"
	StateDone               State = "done"
	StateFallback           State = "fallback"
)

// Feed is the result of a feed request.
type Feed struct {
	Items []content.Item

	// Personalized is false when the feed came from the fallback path.
	Personalized bool

	// State is StateDone or StateFallback.
	State State

	// FailedStage names the stage that triggered the fallback, if any.
	FailedStage State

	GeneratedAt time.Time
}

// Config configures a Service. Zero values select defaults.
type Config struct {
	DefaultLimit int
	Scorer       Scorer
	Interests    InterestExtractor
	Engagement   EngagementAnalyzer
	Cache        FallbackCache
	Metrics      *Metrics
	Logger       *slog.Logger

	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

// Service runs the feed pipeline.
type Service struct {
	store        Store
	creators     CreatorLookup // nil when the store has no creator profiles
	extractor    *Extractor
	sourcer      *Sourcer
	scorer       Scorer
	cache        FallbackCache
	metrics      *Metrics
	logger       *slog.Logger
	now          func() time.Time
	defaultLimit int
}

// NewService creates a feed Service over s.
func NewService(s Store, cfg Config) *Service {
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Scorer == nil {
		cfg.Scorer = ranking.NewScorer(nil)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultLimit
	}
	creators, _ := s.(CreatorLookup)

	svc := &Service{
		store:        s,
		creators:     creators,
		extractor:    NewExtractor(s, cfg.Interests, cfg.Engagement, cfg.Metrics, cfg.Logger),
		sourcer:      NewSourcer(s, cfg.Metrics, cfg.Logger),
		scorer:       cfg.Scorer,
		cache:        cfg.Cache,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		now:          cfg.Now,
		defaultLimit: cfg.DefaultLimit,
	}
	svc.sourcer.onTrending = svc.saveFallback
	return svc
}

// GetPersonalizedFeed returns up to limit items ranked for userID.
// It never fails: when personalization cannot complete, or every candidate
// source failed, the newest content or the last cached list is served
// instead and Feed.Personalized is false.
func (s *Service) GetPersonalizedFeed(ctx context.Context, userID string, limit int) *Feed {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	now := s.now()

	ctx, endSpan := tracing.StartSpan(ctx, "fyp.feed",
		attribute.String("user_id", userID),
		attribute.Int("limit", limit))

	items, stage, err := s.personalize(ctx, userID, limit, now)
	if err != nil {
		endSpan(err)
		s.metrics.IncFallback(stage)
		s.logger.Error("personalized feed failed, serving fallback",
			slog.String("user_id", userID),
			slog.String("stage", string(stage)),
			slog.String("error", err.Error()))
		feed := s.fallback(ctx, limit, now)
		feed.FailedStage = stage
		return feed
	}
	endSpan(nil)

	s.metrics.IncFeedRequest(OutcomePersonalized)
	return &Feed{
		Items:        s.hydrate(ctx, items),
		Personalized: true,
		State:        StateDone,
		GeneratedAt:  now,
	}
}

// personalize runs the pipeline and returns the stage that failed on error.
func (s *Service) personalize(ctx context.Context, userID string, limit int, now time.Time) ([]content.Item, State, error) {
	var prefs *content.UserPreferences
	err := s.runStage(ctx, StateExtractingPrefs, func(ctx context.Context) error {
		prefs = s.extractor.Extract(ctx, userID)
		return nil
	})
	if err != nil {
		return nil, StateExtractingPrefs, err
	}

	var candidates []content.Item
	err = s.runStage(ctx, StateSourcingCandidates, func(ctx context.Context) error {
		var failures int
		candidates, failures = s.sourcer.gather(ctx, prefs)
		s.metrics.ObservePoolSize(len(candidates))
		tracing.SetAttributes(ctx, attribute.Int("candidates", len(candidates)))
		if len(candidates) == 0 && failures > 0 {
			return fmt.Errorf("%w: %d sources failed", ErrNoCandidates, failures)
		}
		return nil
	})
	if err != nil {
		return nil, StateSourcingCandidates, err
	}

	var ranked []ranking.ScoredCandidate
	err = s.runStage(ctx, StateScoring, func(ctx context.Context) error {
		var err error
		ranked, err = s.rank(candidates, prefs, now)
		return err
	})
	if err != nil {
		return nil, StateScoring, err
	}

	start := time.Now()
	selected := ranking.SelectDiverse(ranked, limit)
	s.metrics.ObserveStage(StateSelecting, time.Since(start))

	return selected, StateDone, nil
}

// rank scores every candidate against the same instant and sorts descending.
func (s *Service) rank(candidates []content.Item, prefs *content.UserPreferences, now time.Time) ([]ranking.ScoredCandidate, error) {
	return ranking.Rank(candidates, func(item content.Item) float64 {
		return s.scorer.Score(item, prefs, now)
	})
}

// runStage runs fn inside a span, records its duration and converts a
// panic into ErrStagePanic. A canceled context fails the stage.
func (s *Service) runStage(ctx context.Context, stage State, fn func(ctx context.Context) error) (err error) {
	ctx, endSpan := tracing.StartSpan(ctx, "fyp."+string(stage))
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrStagePanic, stage, r)
		}
		s.metrics.ObserveStage(stage, time.Since(start))
		endSpan(err)
	}()

	if err := fn(ctx); err != nil {
		return err
	}
	return ctx.Err()
}

// Trending returns the newest items, capped at limit, with creator profiles
// attached. A successful query refreshes the fallback cache.
func (s *Service) Trending(ctx context.Context, limit int) ([]content.Item, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	items, err := s.store.ContentNewest(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load trending content: %w", err)
	}
	s.saveFallback(ctx, items)
	return s.hydrate(ctx, items), nil
}

// fallback serves the newest content, then the cached list, then nothing.
func (s *Service) fallback(ctx context.Context, limit int, now time.Time) *Feed {
	s.metrics.IncFeedRequest(OutcomeFallback)
	feed := &Feed{
		Items:       []content.Item{},
		State:       StateFallback,
		GeneratedAt: now,
	}

	items, err := s.Trending(ctx, limit)
	if err == nil {
		feed.Items = items
		return feed
	}
	s.metrics.IncSourceError(SourceTrending)
	s.logger.Error("fallback trending query failed",
		slog.String("error", err.Error()))

	if s.cache == nil {
		return feed
	}
	cached, err := s.cache.Load(ctx)
	if err != nil {
		s.metrics.IncSourceError(SourceCache)
		s.logger.Warn("fallback cache unavailable, serving empty feed",
			slog.String("error", err.Error()))
		return feed
	}
	if len(cached) > limit {
		cached = cached[:limit]
	}
	feed.Items = cached
	return feed
}

func (s *Service) saveFallback(ctx context.Context, items []content.Item) {
	if s.cache == nil || len(items) == 0 {
		return
	}
	if err := s.cache.Save(ctx, items); err != nil {
		s.metrics.IncSourceError(SourceCache)
		s.logger.Warn("failed to refresh fallback cache",
			slog.String("error", err.Error()))
	}
}
