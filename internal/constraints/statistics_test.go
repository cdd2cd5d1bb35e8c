package constraints

import (
	"context"
	"strings"
	"testing"
)

func TestStatistics_PercentileOnRange(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)
	seedTable(t, ctx, session, `CREATE TABLE data AS SELECT * FROM range(1, 101) AS t(value)`)

	c, err := NewStatistics("value", StatPercentile(0.95), Between(94, 96))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := c.Evaluate(ctx, session)
	if result.Status != StatusSuccess {
		t.Fatalf("expected success, got %s: %s", result.Status, result.Message)
	}
}

func TestStatistics_NullOnAllNullColumn(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)
	seedTable(t, ctx, session, `CREATE TABLE data (value INTEGER); INSERT INTO data VALUES (NULL),(NULL)`)

	c, err := NewStatistics("value", StatMean, GreaterThan(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := c.Evaluate(ctx, session)
	if result.Status != StatusFailure {
		t.Fatalf("expected failure for all-null column, got %s", result.Status)
	}
}

func TestMultiStatistics_Coalesced(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)
	seedTable(t, ctx, session, `CREATE TABLE data AS SELECT * FROM (VALUES (10),(20),(30),(40)) AS t(value)`)

	c, err := NewMultiStatistics("value", []StatAssertion{
		{Statistic: StatMin, Assertion: GreaterThanOrEqual(10)},
		{Statistic: StatMax, Assertion: LessThanOrEqual(40)},
		{Statistic: StatMean, Assertion: Equals(25)},
		{Statistic: StatSum, Assertion: Equals(100)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := c.Evaluate(ctx, session)
	if result.Status != StatusSuccess {
		t.Fatalf("expected success, got %s: %s", result.Status, result.Message)
	}
}

func TestMultiStatistics_FailureMentionsMinimum(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)
	seedTable(t, ctx, session, `CREATE TABLE data AS SELECT * FROM (VALUES (10),(20),(30),(40)) AS t(value)`)

	c, err := NewMultiStatistics("value", []StatAssertion{
		{Statistic: StatMin, Assertion: Equals(5)},
		{Statistic: StatMax, Assertion: LessThanOrEqual(40)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := c.Evaluate(ctx, session)
	if result.Status != StatusFailure {
		t.Fatalf("expected failure, got %s", result.Status)
	}
	if !strings.Contains(result.Message, "minimum is 10") {
		t.Fatalf("expected message to contain 'minimum is 10', got %q", result.Message)
	}
}
