package ranking

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/simosa/fyp/internal/content"
)

// TestScorer_Deterministic verifies repeated scoring with a fixed instant is stable.
func TestScorer_Deterministic(t *testing.T) {
	scorer := NewScorer(nil)
	item := content.Item{
		ID:        "v1",
		CreatorID: "c1",
		CreatedAt: testNow.Add(-3 * time.Hour),
		Views:     420,
		Likes:     17,
		Comments:  3,
		Tags:      []string{"dance"},
	}
	prefs := newPrefs([]string{"dance"}, nil, []string{"v9"})

	first := scorer.Score(item, prefs, testNow)
	for i := 0; i < 100; i++ {
		if got := scorer.Score(item, prefs, testNow); got != first {
			t.Fatalf("iteration %d: score changed from %f to %f", i, first, got)
		}
	}
}

// TestRank verifies descending order and stable ties.
func TestRank(t *testing.T) {
	scorer := NewScorer(nil)
	prefs := newPrefs([]string{"viral"}, []string{"followed"}, nil)
	old := testNow.Add(-100 * time.Hour)

	items := []content.Item{
		{ID: "tie-a", CreatorID: "x", CreatedAt: old},
		{ID: "best", CreatorID: "followed", CreatedAt: testNow, Tags: []string{"viral"}},
		{ID: "tie-b", CreatorID: "y", CreatedAt: old},
		{ID: "middle", CreatorID: "z", CreatedAt: testNow, Tags: []string{"viral"}},
	}

	ranked, err := Rank(items, func(item content.Item) float64 {
		return scorer.Score(item, prefs, testNow)
	})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(ranked) != len(items) {
		t.Fatalf("expected %d ranked items, got %d", len(items), len(ranked))
	}

	wantOrder := []string{"best", "middle", "tie-a", "tie-b"}
	for i, id := range wantOrder {
		if ranked[i].Item.ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, ranked[i].Item.ID)
		}
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score > ranked[i-1].Score {
			t.Errorf("ranked list not descending at %d: %f > %f", i, ranked[i].Score, ranked[i-1].Score)
		}
	}
}

// TestRank_Empty verifies ranking an empty pool.
func TestRank_Empty(t *testing.T) {
	ranked, err := Rank(nil, func(content.Item) float64 { return 1 })
	if err != nil || len(ranked) != 0 {
		t.Errorf("expected empty ranking, got %d items, err %v", len(ranked), err)
	}
}

// TestRank_NonFinite verifies NaN and infinite scores fail the pass.
func TestRank_NonFinite(t *testing.T) {
	items := []content.Item{{ID: "ok"}, {ID: "bad"}}
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := Rank(items, func(item content.Item) float64 {
			if item.ID == "bad" {
				return bad
			}
			return 0.5
		})
		if !errors.Is(err, ErrNonFiniteScore) {
			t.Errorf("score %v: expected ErrNonFiniteScore, got %v", bad, err)
		}
	}
}

// TestScorer_CustomWeights verifies the scorer uses its own weights.
func TestScorer_CustomWeights(t *testing.T) {
	weights := &Weights{Freshness: 1.0}
	scorer := NewScorer(weights)

	item := content.Item{ID: "v1", CreatorID: "c1", CreatedAt: testNow.Add(-2 * time.Hour)}
	if got := scorer.Score(item, newPrefs(nil, nil, nil), testNow); got != 0.8 {
		t.Errorf("expected freshness-only score 0.8, got %f", got)
	}

	// Mutating the caller's weights must not affect the scorer.
	weights.Freshness = 0
	if got := scorer.Weights().Freshness; got != 1.0 {
		t.Errorf("scorer weights changed after caller mutation: %f", got)
	}
}
