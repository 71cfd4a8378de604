package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/simosa/fyp/internal/content"
	"github.com/simosa/fyp/internal/fyp"
	"github.com/simosa/fyp/internal/middleware"
)

// Limit defaults applied when FeedHandlers is built with zero values.
const (
	DefaultFeedLimit = fyp.DefaultLimit
	DefaultMaxLimit  = 100
)

var errInvalidLimit = errors.New("limit must be an integer")

// FeedService is the part of fyp.Service the handlers use.
type FeedService interface {
	GetPersonalizedFeed(ctx context.Context, userID string, limit int) *fyp.Feed
	Trending(ctx context.Context, limit int) ([]content.Item, error)
}

// FeedHandlers serves the feed endpoints.
type FeedHandlers struct {
	service      FeedService
	defaultLimit int
	maxLimit     int
	logger       *slog.Logger
	now          func() time.Time
}

// NewFeedHandlers returns handlers over svc. Non-positive limits select the
// package defaults; maxLimit is raised to defaultLimit when lower.
func NewFeedHandlers(svc FeedService, defaultLimit, maxLimit int, logger *slog.Logger) *FeedHandlers {
	if defaultLimit <= 0 {
		defaultLimit = DefaultFeedLimit
	}
	if maxLimit <= 0 {
		maxLimit = DefaultMaxLimit
	}
	maxLimit = max(maxLimit, defaultLimit)
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedHandlers{
		service:      svc,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		logger:       logger,
		now:          time.Now,
	}
}

// FeedResponse is the body of the feed endpoints.
type FeedResponse struct {
	Items        []content.Item `json:"items"`
	Personalized bool           `json:"personalized"`
	GeneratedAt  string         `json:"generated_at"`
}

// GetFeed handles GET /api/v1/feed?limit=N for the authenticated user, or
// for an anonymous user with no history. It always answers 200 once the
// limit parses: ranking failures surface as an unpersonalized feed.
func (h *FeedHandlers) GetFeed(w http.ResponseWriter, r *http.Request) {
	limit, err := h.parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeInvalidLimit, err.Error())
		return
	}

	userID := middleware.GetUserID(r.Context())
	feed := h.service.GetPersonalizedFeed(r.Context(), userID, limit)
	if !feed.Personalized {
		h.logger.InfoContext(r.Context(), "served fallback feed",
			slog.String("user_id", userID),
			slog.String("failed_stage", string(feed.FailedStage)),
			slog.Int("items", len(feed.Items)))
	}

	writeJSON(r.Context(), w, http.StatusOK, FeedResponse{
		Items:        nonNilItems(feed.Items),
		Personalized: feed.Personalized,
		GeneratedAt:  feed.GeneratedAt.UTC().Format(time.RFC3339),
	})
}

// GetTrending handles GET /api/v1/trending?limit=N.
func (h *FeedHandlers) GetTrending(w http.ResponseWriter, r *http.Request) {
	limit, err := h.parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeInvalidLimit, err.Error())
		return
	}

	items, err := h.service.Trending(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "trending query failed", slog.String("error", err.Error()))
		WriteError(w, r.Context(), http.StatusServiceUnavailable, ErrCodeUnavailable,
			"Trending content is temporarily unavailable")
		return
	}

	writeJSON(r.Context(), w, http.StatusOK, FeedResponse{
		Items:       nonNilItems(items),
		GeneratedAt: h.now().UTC().Format(time.RFC3339),
	})
}

// parseLimit maps an absent or non-positive limit to the default and clamps
// large values to the maximum.
func (h *FeedHandlers) parseLimit(raw string) (int, error) {
	if raw == "" {
		return h.defaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errInvalidLimit
	}
	switch {
	case n <= 0:
		return h.defaultLimit, nil
	case n > h.maxLimit:
		return h.maxLimit, nil
	}
	return n, nil
}

func nonNilItems(items []content.Item) []content.Item {
	if items == nil {
		return []content.Item{}
	}
	return items
}
