package ranking

import (
	"github.com/simosa/fyp/internal/content"
)

// MaxItemsPerCreator is the per-creator cap enforced by SelectDiverse.
const MaxItemsPerCreator = 2

// SelectDiverse picks at most limit items from a score-sorted list, allowing
// no more than MaxItemsPerCreator items from any single creator.
//
// Selection is a single greedy pass: once a creator reaches the cap, its
// remaining items are skipped for good. When the list already fits within
// limit it is returned unchanged and the cap is not applied.
func SelectDiverse(ranked []ScoredCandidate, limit int) []content.Item {
	if limit < 0 {
		limit = 0
	}
	if len(ranked) <= limit {
		return stripScores(ranked)
	}

	feed := make([]content.Item, 0, limit)
	perCreator := make(map[string]int)
	for _, c := range ranked {
		if len(feed) >= limit {
			break
		}
		if perCreator[c.Item.CreatorID] >= MaxItemsPerCreator {
			continue
		}
		perCreator[c.Item.CreatorID]++
		feed = append(feed, c.Item)
	}
	return feed
}

func stripScores(ranked []ScoredCandidate) []content.Item {
	items := make([]content.Item, len(ranked))
	for i, c := range ranked {
		items[i] = c.Item
	}
	return items
}
