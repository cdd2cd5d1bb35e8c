package metrics

import (
	"encoding/json"
	"testing"
)

func TestMetricValue_MarshalsDoubleVariant(t *testing.T) {
	v := DoubleValue(3.14)
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded map[string]float64
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded["Double"] != 3.14 {
		t.Fatalf("expected Double:3.14, got %v", decoded)
	}
}

func TestMetricValue_MarshalsHistogramVariant(t *testing.T) {
	h := Histogram{
		Buckets:    []HistogramBucket{{LowerBound: 0, UpperBound: 10, Count: 5}},
		TotalCount: 5,
		Min:        0,
		Max:        10,
		Mean:       5,
		StdDev:     2.5,
	}
	v := HistogramValue(h)
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded map[string]Histogram
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded["Histogram"].TotalCount != 5 {
		t.Fatalf("expected total_count 5, got %+v", decoded)
	}
}

func TestWireResultKey_ConvertsFromResultKey(t *testing.T) {
	k := NewResultKey(1000).WithTag("env", "prod")
	wire := k.ToWireResultKey()
	if wire.DatasetDate != 1000 {
		t.Fatalf("expected dataset_date 1000, got %d", wire.DatasetDate)
	}
	if wire.Tags["env"] != "prod" {
		t.Fatalf("expected env tag to carry over, got %+v", wire.Tags)
	}
}
