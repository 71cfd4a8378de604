package fyp

import (
	"context"
	"log/slog"

	"github.com/simosa/fyp/internal/content"
)

// Auxiliary sources, used as metric and log labels.
const (
	SourceCreators = "creators"
	SourceCache    = "cache"
)

// hydrate attaches creator profiles to items. On lookup failure the items
// are returned without profiles.
func (s *Service) hydrate(ctx context.Context, items []content.Item) []content.Item {
	if s.creators == nil || len(items) == 0 {
		return items
	}

	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.CreatorID]; ok {
			continue
		}
		seen[item.CreatorID] = struct{}{}
		ids = append(ids, item.CreatorID)
	}

	creators, err := s.creators.CreatorsByIDs(ctx, ids)
	if err != nil {
		s.metrics.IncSourceError(SourceCreators)
		s.logger.Warn("creator lookup failed, serving items without profiles",
			slog.String("error", err.Error()))
		return items
	}

	hydrated := make([]content.Item, len(items))
	for i, item := range items {
		if c, ok := creators[item.CreatorID]; ok {
			item.Creator = &c
		}
		hydrated[i] = item
	}
	return hydrated
}
