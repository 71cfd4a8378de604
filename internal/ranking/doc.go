// Package ranking scores feed candidates and selects a creator-diverse feed
// from them.
//
// Basic Usage:
//
//	// Load calibration (typically at startup)
//	weights, err := ranking.LoadCalibration("configs/ranking.calibration.json")
//	if err != nil {
//		log.Warn("using default weights", "error", err)
//	}
//	scorer := ranking.NewScorer(weights)
//
//	// Rank candidates at one instant, then select the feed
//	now := time.Now()
//	ranked, err := ranking.Rank(candidates, func(item content.Item) float64 {
//		return scorer.Score(item, prefs, now)
//	})
//	feed := ranking.SelectDiverse(ranked, 20)
//
// Sub-scores:
//
// RelevanceWeight, PerformanceWeight, RelationshipWeight, FreshnessWeight and
// DiversityWeight each return a value in [0, 1]. CompositeScore combines them
// with Weights, which must sum to 1.0, and clamps the result to [0, 1].
//
// Calibration:
//
// Weights can be tuned at deploy time through a JSON calibration file loaded
// at startup. A file whose merged weights do not sum to 1.0 is rejected and
// the defaults are used instead.
package ranking
