package analyzers

import (
	"math"

	"github.com/canonica-labs/canonica-validate/internal/errors"
)

// pairKey is a binned (x, y) joint outcome.
type pairKey struct{ x, y string }

// MutualInformationState is a running joint/marginal frequency accumulator
// over binned values of two columns.
type MutualInformationState struct {
	N           int64
	JointCounts map[pairKey]int64
	XCounts     map[string]int64
	YCounts     map[string]int64
	Bins        int
}

// NewMutualInformationState starts an empty accumulator for the given bin
// count.
func NewMutualInformationState(bins int) MutualInformationState {
	return MutualInformationState{
		JointCounts: make(map[pairKey]int64),
		XCounts:     make(map[string]int64),
		YCounts:     make(map[string]int64),
		Bins:        bins,
	}
}

// Add folds one binned (x, y) observation into the joint and marginal
// frequency tables.
func (s *MutualInformationState) Add(x, y string) {
	s.N++
	s.JointCounts[pairKey{x, y}]++
	s.XCounts[x]++
	s.YCounts[y]++
}

// IsEmpty reports whether the state has accumulated no observations.
func (s MutualInformationState) IsEmpty() bool { return s.N == 0 }

// MergeMutualInformationStates combines partial frequency tables computed
// over disjoint partitions, provided every state used the same bin count.
func MergeMutualInformationStates(states []MutualInformationState) (MutualInformationState, error) {
	if len(states) == 0 {
		return MutualInformationState{}, errors.NewInternalError("cannot merge empty mutual information state list", nil)
	}
	bins := states[0].Bins
	merged := NewMutualInformationState(bins)
	for _, s := range states {
		if s.Bins != bins {
			return MutualInformationState{}, errors.NewInternalError("cannot merge states with different bin counts", nil)
		}
		merged.N += s.N
		for k, count := range s.JointCounts {
			merged.JointCounts[k] += count
		}
		for k, count := range s.XCounts {
			merged.XCounts[k] += count
		}
		for k, count := range s.YCounts {
			merged.YCounts[k] += count
		}
	}
	return merged, nil
}

// MutualInformation computes I(X;Y) = sum p(x,y) * log(p(x,y) / (p(x)p(y)))
// over the accumulated joint/marginal frequencies.
func (s MutualInformationState) MutualInformation() float64 {
	if s.N == 0 {
		return math.NaN()
	}
	n := float64(s.N)
	var mi float64
	for k, jointCount := range s.JointCounts {
		if jointCount == 0 {
			continue
		}
		pxy := float64(jointCount) / n
		px := float64(s.XCounts[k.x]) / n
		py := float64(s.YCounts[k.y]) / n
		if px <= 0 || py <= 0 {
			continue
		}
		mi += pxy * math.Log(pxy/(px*py))
	}
	return mi
}
