package ranking

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/simosa/fyp/internal/content"
)

// ErrNonFiniteScore is returned when a score is NaN or infinite.
var ErrNonFiniteScore = errors.New("non-finite score")

// ScoredCandidate is an item annotated with its composite score in [0, 1].
type ScoredCandidate struct {
	Item  content.Item
	Score float64
}

// Scorer computes composite FYP scores with a fixed weight configuration.
// A Scorer holds no mutable state and is safe for concurrent use.
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer. Nil weights use DefaultWeights.
func NewScorer(weights *Weights) *Scorer {
	if weights == nil {
		weights = DefaultWeights()
	}
	return &Scorer{weights: *weights}
}

// Weights returns a copy of the scorer's weights.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score returns the composite score of item for prefs evaluated at now.
func (s *Scorer) Score(item content.Item, prefs *content.UserPreferences, now time.Time) float64 {
	return CompositeScore(ComputeParams(item, prefs, now), &s.weights)
}

// ScoreFunc scores a single item.
type ScoreFunc func(item content.Item) float64

// Rank scores every item with score and sorts by score descending. Items with
// equal scores keep their input order. A NaN or infinite score fails the
// whole pass with ErrNonFiniteScore.
func Rank(items []content.Item, score ScoreFunc) ([]ScoredCandidate, error) {
	scored := make([]ScoredCandidate, len(items))
	for i, item := range items {
		v := score(item)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: item %s", ErrNonFiniteScore, item.ID)
		}
		scored[i] = ScoredCandidate{Item: item, Score: v}
	}
	SortByScore(scored)
	return scored, nil
}

// SortByScore sorts candidates by score descending, stable for ties.
func SortByScore(candidates []ScoredCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
}
