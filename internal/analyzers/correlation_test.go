package analyzers

import (
	"math"
	"testing"
)

func TestCorrelationState_PearsonPerfectPositive(t *testing.T) {
	s := NewCorrelationState(CorrelationKindPearson)
	points := [][2]float64{{1, 10}, {2, 20}, {3, 30}, {4, 40}}
	for _, p := range points {
		s.Add(p[0], p[1])
	}
	corr := s.Pearson()
	if math.Abs(corr-1.0) > 1e-9 {
		t.Fatalf("expected correlation ~1.0, got %v", corr)
	}
}

func TestCorrelationState_MergeSumsSufficientStatistics(t *testing.T) {
	a := NewCorrelationState(CorrelationKindPearson)
	a.Add(1, 10)
	a.Add(2, 20)

	b := NewCorrelationState(CorrelationKindPearson)
	b.Add(3, 30)
	b.Add(4, 40)

	merged, err := MergeCorrelationStates([]CorrelationState{a, b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if merged.N != 4 {
		t.Fatalf("expected merged N=4, got %d", merged.N)
	}
	corr := merged.Pearson()
	if math.Abs(corr-1.0) > 1e-9 {
		t.Fatalf("expected merged correlation ~1.0, got %v", corr)
	}
}

func TestCorrelationState_RejectsRankBasedMerge(t *testing.T) {
	a := NewCorrelationState(CorrelationKindSpearman)
	b := NewCorrelationState(CorrelationKindSpearman)
	if _, err := MergeCorrelationStates([]CorrelationState{a, b}); err == nil {
		t.Fatal("expected error merging rank-based correlation states")
	}
}

func TestCorrelationState_EmptyIsNaN(t *testing.T) {
	s := NewCorrelationState(CorrelationKindPearson)
	if !math.IsNaN(s.Pearson()) {
		t.Fatalf("expected NaN for empty state, got %v", s.Pearson())
	}
	if !s.IsEmpty() {
		t.Fatal("expected IsEmpty true for fresh state")
	}
}
