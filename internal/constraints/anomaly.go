package constraints

import (
	"math"

	"github.com/canonica-labs/canonica-validate/internal/errors"
)

// MetricPoint is one historical observation of a metric value, supplied
// externally (e.g. from the metric sink's offline history) rather than
// computed by a constraint evaluation.
type MetricPoint struct {
	Timestamp int64
	Value     float64
}

// AnomalyVerdict is the outcome of a RelativeRateOfChangeStrategy check.
type AnomalyVerdict struct {
	IsAnomaly  bool
	Confidence float64
	Rate       float64
	Message    string
}

// RelativeRateOfChangeStrategy flags a metric as anomalous when its most
// recent value deviates from the previous one by more than a configured
// relative rate. It is not an engine constraint: it has no SQL, no table,
// and operates purely on a supplied history.
type RelativeRateOfChangeStrategy struct {
	maxIncrease      *float64
	maxDecrease      *float64
	minHistoryPoints int
}

// NewRelativeRateOfChangeStrategy validates that any supplied thresholds are
// finite and non-negative.
func NewRelativeRateOfChangeStrategy(maxIncrease, maxDecrease *float64, minHistoryPoints int) (*RelativeRateOfChangeStrategy, error) {
	if maxIncrease != nil {
		if math.IsNaN(*maxIncrease) || math.IsInf(*maxIncrease, 0) || *maxIncrease < 0 {
			return nil, errors.NewConfigurationError("max_increase must be a finite, non-negative number")
		}
	}
	if maxDecrease != nil {
		if math.IsNaN(*maxDecrease) || math.IsInf(*maxDecrease, 0) || *maxDecrease < 0 {
			return nil, errors.NewConfigurationError("max_decrease must be a finite, non-negative number")
		}
	}
	if minHistoryPoints < 1 {
		return nil, errors.NewConfigurationError("min_history_points must be at least 1")
	}
	return &RelativeRateOfChangeStrategy{maxIncrease: maxIncrease, maxDecrease: maxDecrease, minHistoryPoints: minHistoryPoints}, nil
}

// Evaluate compares the last point in history against its predecessor. It
// returns a non-anomalous verdict when there isn't enough history yet.
func (s *RelativeRateOfChangeStrategy) Evaluate(history []MetricPoint) AnomalyVerdict {
	if len(history) < s.minHistoryPoints || len(history) < 2 {
		return AnomalyVerdict{Message: "insufficient history"}
	}

	current := history[len(history)-1].Value
	previous := history[len(history)-2].Value

	if math.Abs(previous) < 1e-10 {
		if current == 0 {
			return AnomalyVerdict{Message: "no change from near-zero baseline"}
		}
		return AnomalyVerdict{IsAnomaly: true, Confidence: 1.0, Rate: math.Inf(1), Message: "baseline is near zero but current value is nonzero"}
	}

	rate := (current - previous) / math.Abs(previous)

	var threshold *float64
	if rate >= 0 {
		threshold = s.maxIncrease
	} else {
		threshold = s.maxDecrease
	}
	if threshold == nil {
		return AnomalyVerdict{Rate: rate, Message: "no threshold configured for this direction"}
	}

	absRate := math.Abs(rate)
	if absRate <= *threshold {
		return AnomalyVerdict{Rate: rate}
	}

	confidence := absRate / *threshold
	if confidence > 1.0 {
		confidence = 1.0
	}
	return AnomalyVerdict{
		IsAnomaly:  true,
		Confidence: confidence,
		Rate:       rate,
		Message:    "relative rate of change exceeds threshold",
	}
}
