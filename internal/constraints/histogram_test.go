package constraints

import (
	"context"
	"math"
	"testing"
)

func TestHistogram_RatiosSumToOne(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)
	seedTable(t, ctx, session, `CREATE TABLE data AS SELECT * FROM
		(VALUES ('a'),('a'),('a'),('b'),('b'),('c'),(NULL)) AS t(category)`)

	var captured Histogram
	c, err := NewHistogramConstraint("category", func(h Histogram) (bool, string) {
		captured = h
		return true, ""
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := c.Evaluate(ctx, session)
	if result.Status != StatusSuccess {
		t.Fatalf("expected success, got %s: %s", result.Status, result.Message)
	}

	var sum float64
	for _, b := range captured.Buckets {
		sum += b.Ratio
	}
	if math.Abs(sum-1.0) > 1e-9*float64(len(captured.Buckets)) {
		t.Fatalf("expected bucket ratios to sum to ~1.0, got %v", sum)
	}
	if captured.NullCount != 1 {
		t.Fatalf("expected null count 1, got %d", captured.NullCount)
	}
	if captured.Buckets[0].Value != "a" || captured.Buckets[0].Count != 3 {
		t.Fatalf("expected most frequent bucket to be 'a' with count 3, got %+v", captured.Buckets[0])
	}
}

func TestHistogram_EmptyTableSkipped(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)
	seedTable(t, ctx, session, `CREATE TABLE data (category VARCHAR)`)

	c, err := NewHistogramConstraint("category", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := c.Evaluate(ctx, session)
	if result.Status != StatusSkipped {
		t.Fatalf("expected skipped, got %s", result.Status)
	}
}
