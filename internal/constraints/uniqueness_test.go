package constraints

import (
	"context"
	"testing"
)

func TestUniqueness_PrimaryKeyCheck(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)
	seedTable(t, ctx, session, `CREATE TABLE data AS SELECT * FROM (VALUES (1),(2),(3)) AS t(id)`)

	u, err := NewUniqueness([]string{"id"}, FullUniqueness(), 1.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := u.Evaluate(ctx, session)
	if result.Status != StatusSuccess {
		t.Fatalf("expected success, got %s: %s", result.Status, result.Message)
	}
}

func TestUniqueness_DuplicatesBelowThreshold(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)
	seedTable(t, ctx, session, `CREATE TABLE data AS SELECT * FROM (VALUES (1),(1),(2),(3)) AS t(id)`)

	u, err := NewUniqueness([]string{"id"}, FullUniqueness(), 1.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := u.Evaluate(ctx, session)
	if result.Status != StatusFailure {
		t.Fatalf("expected failure, got %s", result.Status)
	}
	if result.Metric == nil || *result.Metric != 0.75 {
		t.Fatalf("expected metric 0.75, got %v", result.Metric)
	}
}

func TestUniqueness_ExcludeNullsDropsIncompleteTuples(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)
	seedTable(t, ctx, session, `CREATE TABLE data AS SELECT * FROM (VALUES (1),(2),(NULL),(NULL)) AS t(id)`)

	u, err := NewUniqueness([]string{"id"}, UniqueWithNulls(NullExclude), 1.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := u.Evaluate(ctx, session)
	if result.Status != StatusSuccess {
		t.Fatalf("expected success excluding nulls, got %s: %s", result.Status, result.Message)
	}
}

func TestUniqueness_CompositeKey(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)
	seedTable(t, ctx, session, `CREATE TABLE data AS SELECT * FROM (VALUES (1,'a'),(1,'b'),(2,'a')) AS t(tenant_id, code)`)

	u, err := NewUniqueness([]string{"tenant_id", "code"}, FullUniqueness(), 1.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := u.Evaluate(ctx, session)
	if result.Status != StatusSuccess {
		t.Fatalf("expected success, got %s: %s", result.Status, result.Message)
	}
}

func TestUniqueness_RequiresAtLeastOneColumn(t *testing.T) {
	if _, err := NewUniqueness(nil, FullUniqueness(), 1.0); err == nil {
		t.Fatal("expected error for empty column list")
	}
}
