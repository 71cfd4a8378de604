package fyp

import (
	"context"
	"time"

	"github.com/simosa/fyp/internal/content"
)

// Store is the query surface the pipeline reads from.
type Store interface {
	Behavior(ctx context.Context, userID string, limit int) ([]content.Behavior, error)
	Follows(ctx context.Context, userID string) ([]string, error)
	Likes(ctx context.Context, userID string) ([]string, error)
	ContentByCreators(ctx context.Context, creatorIDs []string, limit int) ([]content.Item, error)
	ContentNewest(ctx context.Context, limit int) ([]content.Item, error)
}

// TagSearcher is an optional Store capability backing the interest source.
// Without it the interest source yields no candidates.
type TagSearcher interface {
	ContentByTags(ctx context.Context, tags []string, limit int) ([]content.Item, error)
}

// ContentLookup is an optional Store capability used by HistoryInterests.
type ContentLookup interface {
	ContentByIDs(ctx context.Context, ids []string) ([]content.Item, error)
}

// CreatorLookup is an optional Store capability used to attach creator
// profiles to the items of a finished feed.
type CreatorLookup interface {
	CreatorsByIDs(ctx context.Context, ids []string) (map[string]content.Creator, error)
}

// FallbackCache keeps the last good unpersonalized list for use when the
// store cannot serve one.
type FallbackCache interface {
	Save(ctx context.Context, items []content.Item) error
	Load(ctx context.Context) ([]content.Item, error)
}

// Signals are the raw per-user inputs gathered by the preference extractor.
type Signals struct {
	UserID   string
	Behavior []content.Behavior // newest first
	Follows  []string
	Likes    []string
}

// InterestExtractor derives ordered interest tags from a user's signals.
type InterestExtractor interface {
	Interests(ctx context.Context, signals Signals) []string
}

// EngagementAnalyzer summarizes a user's behavior rows.
type EngagementAnalyzer interface {
	Analyze(behavior []content.Behavior) content.EngagementPattern
}

// Scorer assigns a score in [0, 1] to a candidate.
// It must be deterministic for fixed inputs.
type Scorer interface {
	Score(item content.Item, prefs *content.UserPreferences, now time.Time) float64
}
