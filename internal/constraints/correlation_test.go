package constraints

import (
	"context"
	"testing"
)

func TestCorrelation_PairwisePositiveCorrelation(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)
	seedTable(t, ctx, session, `CREATE TABLE data AS SELECT * FROM
		(VALUES (1,10),(2,20),(3,30),(4,40)) AS t(x,y)`)

	c, err := NewPairwiseCorrelation("x", "y", CorrelationPearson, GreaterThan(0.9))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := c.Evaluate(ctx, session)
	if result.Status != StatusSuccess {
		t.Fatalf("expected success, got %s: %s", result.Status, result.Message)
	}
}

func TestCorrelation_IndependenceDetectsStrongCorrelation(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)
	seedTable(t, ctx, session, `CREATE TABLE data AS SELECT * FROM
		(VALUES (1,10),(2,20),(3,30),(4,40)) AS t(x,y)`)

	c, err := NewIndependenceCorrelation("x", "y", CorrelationPearson, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := c.Evaluate(ctx, session)
	if result.Status != StatusFailure {
		t.Fatalf("expected failure due to strong correlation, got %s", result.Status)
	}
}

func TestCorrelation_KendallTauSkipped(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)
	seedTable(t, ctx, session, `CREATE TABLE data AS SELECT * FROM (VALUES (1,10),(2,20)) AS t(x,y)`)

	c, err := NewPairwiseCorrelation("x", "y", CorrelationKendallTau, GreaterThan(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := c.Evaluate(ctx, session)
	if result.Status != StatusSkipped {
		t.Fatalf("expected skipped for kendall tau, got %s", result.Status)
	}
}

func TestCorrelation_RangeRequiresMinLEMax(t *testing.T) {
	if _, err := NewRangeCorrelation("x", "y", CorrelationPearson, 0.8, 0.2); err == nil {
		t.Fatal("expected error when min > max")
	}
}

func TestCorrelation_CustomRejectsUnsafeExpression(t *testing.T) {
	if _, err := CorrelationCustom("CORR({column1}, {column2}); DROP TABLE data"); err == nil {
		t.Fatal("expected error for unsafe custom correlation expression")
	}
}
