// Package analyzers holds mergeable running-state accumulators for metrics
// that benefit from incremental computation across batches or partitions,
// as distinct from the constraint library's single-SELECT evaluation model.
package analyzers

import (
	"math"

	"github.com/canonica-labs/canonica-validate/internal/errors"
)

// CorrelationKind is the statistic a CorrelationState accumulates.
type CorrelationKind string

const (
	CorrelationKindPearson    CorrelationKind = "pearson"
	CorrelationKindSpearman   CorrelationKind = "spearman"
	CorrelationKindKendallTau CorrelationKind = "kendall_tau"
	CorrelationKindCovariance CorrelationKind = "covariance"
)

// CorrelationState is a running sufficient-statistics accumulator for
// Pearson correlation and covariance. Rank-based kinds (Spearman,
// KendallTau) carry their own rank slices and cannot be merged: re-ranking
// combined data requires the full combined dataset, not a sum of partial
// state.
type CorrelationState struct {
	Kind   CorrelationKind
	N      int64
	SumX   float64
	SumY   float64
	SumX2  float64
	SumY2  float64
	SumXY  float64
	XRanks []float64
	YRanks []float64
}

// NewCorrelationState starts an empty accumulator for the given kind.
func NewCorrelationState(kind CorrelationKind) CorrelationState {
	return CorrelationState{Kind: kind}
}

// Add folds one (x, y) observation into the running sums. Only meaningful
// for Pearson and Covariance; rank-based kinds must be computed from a full
// materialized column and do not use Add.
func (s *CorrelationState) Add(x, y float64) {
	s.N++
	s.SumX += x
	s.SumY += y
	s.SumX2 += x * x
	s.SumY2 += y * y
	s.SumXY += x * y
}

// MergeCorrelationStates combines partial states computed over disjoint
// partitions of the same logical column pair. Pearson and Covariance merge
// by summing sufficient statistics; any other kind is rejected, mirroring
// the original analyzer's restriction that rank-based correlations cannot
// be re-derived from partial ranks without the full combined ordering.
func MergeCorrelationStates(states []CorrelationState) (CorrelationState, error) {
	if len(states) == 0 {
		return CorrelationState{}, errors.NewInternalError("cannot merge empty correlation state list", nil)
	}
	kind := states[0].Kind
	if kind != CorrelationKindPearson && kind != CorrelationKindCovariance {
		return CorrelationState{}, errors.NewInternalError("cannot merge rank-based correlation states", nil)
	}

	merged := CorrelationState{Kind: kind}
	for _, s := range states {
		if s.Kind != kind {
			return CorrelationState{}, errors.NewInternalError("cannot merge correlation states of different kinds", nil)
		}
		merged.N += s.N
		merged.SumX += s.SumX
		merged.SumY += s.SumY
		merged.SumX2 += s.SumX2
		merged.SumY2 += s.SumY2
		merged.SumXY += s.SumXY
	}
	return merged, nil
}

// IsEmpty reports whether the state has accumulated no observations.
func (s CorrelationState) IsEmpty() bool { return s.N == 0 }

// Pearson computes the Pearson correlation coefficient from the
// accumulated sufficient statistics, or NaN if N < 2 or either column has
// zero variance.
func (s CorrelationState) Pearson() float64 {
	if s.N < 2 {
		return math.NaN()
	}
	n := float64(s.N)
	numerator := n*s.SumXY - s.SumX*s.SumY
	denomX := n*s.SumX2 - s.SumX*s.SumX
	denomY := n*s.SumY2 - s.SumY*s.SumY
	if denomX <= 0 || denomY <= 0 {
		return math.NaN()
	}
	return numerator / math.Sqrt(denomX*denomY)
}

// Covariance computes the population covariance from the accumulated
// sufficient statistics.
func (s CorrelationState) Covariance() float64 {
	if s.N == 0 {
		return math.NaN()
	}
	n := float64(s.N)
	return s.SumXY/n - (s.SumX/n)*(s.SumY/n)
}
