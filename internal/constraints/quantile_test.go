package constraints

import (
	"context"
	"testing"
)

func TestQuantile_SingleCheckSuccess(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)
	seedTable(t, ctx, session, `CREATE TABLE data AS SELECT * FROM (VALUES (1),(2),(3),(4),(5),(6),(7),(8),(9),(10)) AS t(amount)`)

	check, err := NewQuantileCheck(0.5, Between(4, 6))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c, err := NewQuantile("amount", check, QuantileExact)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := c.Evaluate(ctx, session)
	if result.Status != StatusSuccess {
		t.Fatalf("expected success, got %s: %s", result.Status, result.Message)
	}
}

func TestQuantile_MonotonicSequence(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)
	seedTable(t, ctx, session, `CREATE TABLE data AS SELECT * FROM (VALUES (1),(2),(3),(4),(5),(6),(7),(8),(9),(10)) AS t(amount)`)

	c, err := NewMonotonicQuantile("amount", []float64{0.25, 0.5, 0.75}, false, QuantileExact)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := c.Evaluate(ctx, session)
	if result.Status != StatusSuccess {
		t.Fatalf("expected success, got %s: %s", result.Status, result.Message)
	}
}

func TestQuantile_AutoPicksExactBelowThreshold(t *testing.T) {
	method := QuantileAuto(10000)
	if fn := method.sqlFunction(500); fn != "PERCENTILE_CONT" {
		t.Fatalf("expected PERCENTILE_CONT for small row count, got %s", fn)
	}
	if fn := method.sqlFunction(50000); fn != "APPROX_QUANTILE" {
		t.Fatalf("expected APPROX_QUANTILE for large row count, got %s", fn)
	}
}

func TestQuantile_RejectsOutOfRangeQuantile(t *testing.T) {
	if _, err := NewQuantileCheck(1.5, Equals(0)); err == nil {
		t.Fatal("expected error for out-of-range quantile")
	}
}

func TestQuantile_MonotonicRequiresAtLeastTwo(t *testing.T) {
	if _, err := NewMonotonicQuantile("amount", []float64{0.5}, false, QuantileExact); err == nil {
		t.Fatal("expected error for fewer than two quantiles")
	}
}
