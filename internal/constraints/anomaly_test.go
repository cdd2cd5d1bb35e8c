package constraints

import "testing"

func TestRelativeRateOfChange_WithinThreshold(t *testing.T) {
	maxIncrease := 0.5
	s, err := NewRelativeRateOfChangeStrategy(&maxIncrease, nil, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	verdict := s.Evaluate([]MetricPoint{{Timestamp: 1, Value: 100}, {Timestamp: 2, Value: 110}})
	if verdict.IsAnomaly {
		t.Fatalf("expected no anomaly, got %+v", verdict)
	}
}

func TestRelativeRateOfChange_ExceedsThreshold(t *testing.T) {
	maxIncrease := 0.1
	s, err := NewRelativeRateOfChangeStrategy(&maxIncrease, nil, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	verdict := s.Evaluate([]MetricPoint{{Timestamp: 1, Value: 100}, {Timestamp: 2, Value: 200}})
	if !verdict.IsAnomaly {
		t.Fatalf("expected anomaly, got %+v", verdict)
	}
	if verdict.Confidence != 1.0 {
		t.Fatalf("expected confidence capped at 1.0, got %v", verdict.Confidence)
	}
}

func TestRelativeRateOfChange_NearZeroBaseline(t *testing.T) {
	maxIncrease := 0.1
	s, err := NewRelativeRateOfChangeStrategy(&maxIncrease, nil, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	verdict := s.Evaluate([]MetricPoint{{Timestamp: 1, Value: 0}, {Timestamp: 2, Value: 5}})
	if !verdict.IsAnomaly || verdict.Confidence != 1.0 {
		t.Fatalf("expected full-confidence anomaly for near-zero baseline, got %+v", verdict)
	}
}

func TestRelativeRateOfChange_InsufficientHistory(t *testing.T) {
	s, err := NewRelativeRateOfChangeStrategy(nil, nil, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	verdict := s.Evaluate([]MetricPoint{{Timestamp: 1, Value: 100}})
	if verdict.IsAnomaly {
		t.Fatalf("expected no anomaly with insufficient history, got %+v", verdict)
	}
}

func TestRelativeRateOfChange_RejectsNegativeThreshold(t *testing.T) {
	bad := -1.0
	if _, err := NewRelativeRateOfChangeStrategy(&bad, nil, 1); err == nil {
		t.Fatal("expected error for negative max_increase")
	}
}
