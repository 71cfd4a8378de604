package ranking

import (
	"math"
	"time"

	"github.com/simosa/fyp/internal/content"
)

// Sub-score constants.
const (
	interestMatchFactor = 0.6
	followedFactor      = 0.3
	watchedPenalty      = 0.2

	engagementRateScale = 10.0
	engagementRateCap   = 0.4
	viewsPerHourScale   = 0.001
	viewsPerHourCap     = 0.3

	relationshipBase     = 0.2
	relationshipFollowed = 0.6

	// RecentWatchWindow is how many of the most recent watched items count
	// against the diversity sub-score.
	RecentWatchWindow = 10

	diversityUnseen  = 0.9
	diversityRecent  = 0.1
	diversityNeutral = 0.5
)

// InterestMatch returns 1 if any tag appears in interests, else 0.
// The match is binary, not proportional to the number of overlapping tags.
func InterestMatch(tags, interests []string) float64 {
	for _, tag := range tags {
		for _, interest := range interests {
			if tag == interest {
				return 1.0
			}
		}
	}
	return 0.0
}

// RelevanceWeight computes the content relevance sub-score, floored at 0.
//
// Formula: 0.6*interestMatch + 0.3*followed - 0.2*watched
func RelevanceWeight(item content.Item, prefs *content.UserPreferences) float64 {
	relevance := InterestMatch(item.Tags, prefs.Interests) * interestMatchFactor
	if prefs.Follows(item.CreatorID) {
		relevance += followedFactor
	}
	if prefs.HasWatched(item.ID) {
		relevance -= watchedPenalty
	}
	return math.Max(relevance, 0)
}

// PerformanceWeight computes the engagement performance sub-score in [0, 0.7].
//
// engagementRate = (likes+comments)/max(views,1), contributing at most 0.4.
// viewsPerHour = views/max(hoursSinceCreation,1), contributing at most 0.3.
func PerformanceWeight(item content.Item, now time.Time) float64 {
	views := float64(max(item.Views, 0))
	engagement := float64(max(item.Likes, 0) + max(item.Comments, 0))

	engagementRate := engagement / math.Max(views, 1)
	viewsPerHour := views / math.Max(hoursSince(item.CreatedAt, now), 1)

	performance := math.Min(engagementRate*engagementRateScale, engagementRateCap) +
		math.Min(viewsPerHour*viewsPerHourScale, viewsPerHourCap)

	return math.Min(performance, 1.0)
}

// RelationshipWeight returns 0.8 for followed creators and 0.2 otherwise.
// Every creator gets the 0.2 base so unconnected creators are never zeroed.
func RelationshipWeight(item content.Item, prefs *content.UserPreferences) float64 {
	relationship := relationshipBase
	if prefs.Follows(item.CreatorID) {
		relationship += relationshipFollowed
	}
	return relationship
}

// FreshnessWeight is a step function of content age.
func FreshnessWeight(createdAt, now time.Time) float64 {
	hours := hoursSince(createdAt, now)
	switch {
	case hours < 1:
		return 1.0
	case hours < 6:
		return 0.8
	case hours < 24:
		return 0.5
	case hours < 72:
		return 0.2
	default:
		return 0.1
	}
}

// DiversityWeight rewards items outside the user's recent watch window.
// An empty watch history yields a neutral 0.5.
func DiversityWeight(item content.Item, prefs *content.UserPreferences) float64 {
	if len(prefs.WatchHistory) == 0 {
		return diversityNeutral
	}
	if prefs.WatchedWithin(item.ID, RecentWatchWindow) {
		return diversityRecent
	}
	return diversityUnseen
}

// Params holds the five sub-scores of a candidate.
type Params struct {
	Relevance    float64
	Performance  float64
	Relationship float64
	Freshness    float64
	Diversity    float64
}

// ComputeParams evaluates every sub-score for an item at the given instant.
func ComputeParams(item content.Item, prefs *content.UserPreferences, now time.Time) Params {
	return Params{
		Relevance:    RelevanceWeight(item, prefs),
		Performance:  PerformanceWeight(item, now),
		Relationship: RelationshipWeight(item, prefs),
		Freshness:    FreshnessWeight(item.CreatedAt, now),
		Diversity:    DiversityWeight(item, prefs),
	}
}

// CompositeScore combines sub-scores with the given weights and clamps the
// result to [0, 1]. Nil weights use DefaultWeights.
func CompositeScore(params Params, weights *Weights) float64 {
	if weights == nil {
		weights = DefaultWeights()
	}

	score := params.Relevance*weights.Relevance +
		params.Performance*weights.Performance +
		params.Relationship*weights.Relationship +
		params.Freshness*weights.Freshness +
		params.Diversity*weights.Diversity

	return math.Max(math.Min(score, 1.0), 0)
}

// hoursSince returns the elapsed hours from t to now. Items dated in the
// future count as brand new.
func hoursSince(t, now time.Time) float64 {
	hours := now.Sub(t).Hours()
	if hours < 0 {
		return 0
	}
	return hours
}
