package ranking

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/goccy/go-json"
)

// weightSumTolerance absorbs floating point error when checking that weights sum to 1.0.
const weightSumTolerance = 1e-9

// ErrWeightSum is returned when the composite weights do not sum to 1.0.
var ErrWeightSum = errors.New("ranking weights must sum to 1.0")

// Weights defines the weight of each sub-score in the composite FYP score.
type Weights struct {
	Relevance    float64 `json:"relevance"`    // Content relevance (default: 0.35)
	Performance  float64 `json:"performance"`  // Engagement performance (default: 0.25)
	Relationship float64 `json:"relationship"` // Creator relationship (default: 0.20)
	Freshness    float64 `json:"freshness"`    // Content age (default: 0.10)
	Diversity    float64 `json:"diversity"`    // Anti-bubble diversity (default: 0.10)
}

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version string  `json:"version"` // Config version for future compatibility
	Weights Weights `json:"weights"` // Weight configuration
}

// DefaultWeights returns the default FYP weight configuration.
//
// Formula: score = relevance*0.35 + performance*0.25 + relationship*0.20 + freshness*0.10 + diversity*0.10
func DefaultWeights() *Weights {
	return &Weights{
		Relevance:    0.35,
		Performance:  0.25,
		Relationship: 0.20,
		Freshness:    0.10,
		Diversity:    0.10,
	}
}

// Sum returns the total of all weights.
func (w *Weights) Sum() float64 {
	return w.Relevance + w.Performance + w.Relationship + w.Freshness + w.Diversity
}

// Validate checks that no weight is negative and that the weights sum to 1.0.
func (w *Weights) Validate() error {
	for name, v := range map[string]float64{
		"relevance":    w.Relevance,
		"performance":  w.Performance,
		"relationship": w.Relationship,
		"freshness":    w.Freshness,
		"diversity":    w.Diversity,
	} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("weight %s must be non-negative, got %v", name, v)
		}
	}
	if math.Abs(w.Sum()-1.0) > weightSumTolerance {
		return fmt.Errorf("%w (got %.4f)", ErrWeightSum, w.Sum())
	}
	return nil
}

// LoadCalibration loads FYP weights from a JSON calibration file.
// An empty path yields the defaults. Partial files are merged over the defaults.
// On any failure, including a merged result that does not sum to 1.0,
// the defaults are returned together with the error.
func LoadCalibration(filePath string) (*Weights, error) {
	if filePath == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	defaults := DefaultWeights()
	merged := MergeCalibration(defaults, &config.Weights)
	if err := merged.Validate(); err != nil {
		slog.Warn("rejected calibration file, using defaults",
			"path", filePath,
			"error", err)
		return defaults, fmt.Errorf("invalid calibration file: %w", err)
	}
	logCalibrationOverrides(defaults, merged)

	return merged, nil
}

// MergeCalibration merges override weights with base weights.
// Only non-zero values from the override are applied.
func MergeCalibration(base *Weights, override *Weights) *Weights {
	if base == nil {
		return DefaultWeights()
	}

	result := *base
	if override == nil {
		return &result
	}

	if override.Relevance != 0 {
		result.Relevance = override.Relevance
	}
	if override.Performance != 0 {
		result.Performance = override.Performance
	}
	if override.Relationship != 0 {
		result.Relationship = override.Relationship
	}
	if override.Freshness != 0 {
		result.Freshness = override.Freshness
	}
	if override.Diversity != 0 {
		result.Diversity = override.Diversity
	}

	return &result
}

// logCalibrationOverrides logs which weights were overridden from defaults.
func logCalibrationOverrides(defaults *Weights, loaded *Weights) {
	var overrides []string

	add := func(name string, from, to float64) {
		if from != to {
			overrides = append(overrides, fmt.Sprintf("%s: %.2f -> %.2f", name, from, to))
		}
	}
	add("relevance", defaults.Relevance, loaded.Relevance)
	add("performance", defaults.Performance, loaded.Performance)
	add("relationship", defaults.Relationship, loaded.Relationship)
	add("freshness", defaults.Freshness, loaded.Freshness)
	add("diversity", defaults.Diversity, loaded.Diversity)

	if len(overrides) > 0 {
		slog.Info("loaded ranking calibration with overrides",
			"overrides", overrides)
	} else {
		slog.Info("loaded ranking calibration (using all defaults)")
	}
}
