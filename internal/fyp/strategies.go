package fyp

import (
	"context"
	"log/slog"
	"sort"

	"github.com/simosa/fyp/internal/content"
)

// DefaultInterests is the interest set used when nothing better is known.
var DefaultInterests = []string{"viral", "trending"}

// DefaultHistoryTopN is how many tags HistoryInterests keeps.
const DefaultHistoryTopN = 5

// StaticInterests returns a fixed interest set for every user.
type StaticInterests struct {
	Tags []string
}

// Interests returns a copy of the configured tags, or DefaultInterests when empty.
func (s StaticInterests) Interests(_ context.Context, _ Signals) []string {
	tags := s.Tags
	if len(tags) == 0 {
		tags = DefaultInterests
	}
	return append([]string(nil), tags...)
}

// HistoryInterests ranks the tags of viewed and liked content by frequency.
// Ties keep the order in which a tag was first seen, viewed items before
// liked ones. When the lookup fails or yields no tags the Fallback set is used.
type HistoryInterests struct {
	Lookup   ContentLookup
	TopN     int
	Fallback InterestExtractor
	Logger   *slog.Logger
}

// Interests implements InterestExtractor.
func (h HistoryInterests) Interests(ctx context.Context, signals Signals) []string {
	fallback := h.Fallback
	if fallback == nil {
		fallback = StaticInterests{}
	}
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	topN := h.TopN
	if topN <= 0 {
		topN = DefaultHistoryTopN
	}

	ids := historyItemIDs(signals)
	if h.Lookup == nil || len(ids) == 0 {
		return fallback.Interests(ctx, signals)
	}

	items, err := h.Lookup.ContentByIDs(ctx, ids)
	if err != nil {
		logger.Warn("history interest lookup failed, using fallback interests",
			slog.String("user_id", signals.UserID),
			slog.String("error", err.Error()))
		return fallback.Interests(ctx, signals)
	}

	tags := rankTags(items, topN)
	if len(tags) == 0 {
		return fallback.Interests(ctx, signals)
	}
	return tags
}

// historyItemIDs returns viewed then liked item ids, deduplicated.
func historyItemIDs(signals Signals) []string {
	seen := make(map[string]struct{})
	var ids []string
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, b := range signals.Behavior {
		if b.Action == content.ActionView {
			add(b.ItemID)
		}
	}
	for _, id := range signals.Likes {
		add(id)
	}
	return ids
}

func rankTags(items []content.Item, topN int) []string {
	counts := make(map[string]int)
	var order []string
	for _, item := range items {
		for _, tag := range item.Tags {
			if tag == "" {
				continue
			}
			if _, ok := counts[tag]; !ok {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > topN {
		order = order[:topN]
	}
	return order
}

// ActionCounter counts behavior rows by action type.
type ActionCounter struct{}

// Analyze implements EngagementAnalyzer.
func (ActionCounter) Analyze(behavior []content.Behavior) content.EngagementPattern {
	counts := make(map[content.ActionType]int)
	for _, b := range behavior {
		counts[b.Action]++
	}
	return content.EngagementPattern{ActionCounts: counts}
}
