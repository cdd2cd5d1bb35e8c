package constraints

import (
	"context"
	"testing"

	"github.com/canonica-labs/canonica-validate/internal/engine/duckdbsession"
)

func seedTable(t *testing.T, ctx context.Context, session *duckdbsession.Session, createAndInsert string) {
	t.Helper()
	df, err := session.SQL(ctx, createAndInsert)
	if err != nil {
		t.Fatalf("failed to prepare seed sql: %v", err)
	}
	if _, err := session.Collect(ctx, df); err != nil {
		t.Fatalf("failed to seed table: %v", err)
	}
}

func newTestSession(t *testing.T) *duckdbsession.Session {
	t.Helper()
	session, err := duckdbsession.NewInMemory()
	if err != nil {
		t.Fatalf("failed to open in-memory duckdb: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func TestCompleteness_SingleColumnWithThreshold(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)
	seedTable(t, ctx, session, `CREATE TABLE data AS SELECT * FROM (VALUES (1),(2),(NULL),(4),(5)) AS t(email)`)

	c, err := NewCompleteness(OneColumn("email"), 0.8, All())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := c.Evaluate(ctx, session)
	if result.Status != StatusSuccess {
		t.Fatalf("expected success, got %s: %s", result.Status, result.Message)
	}
	if result.Metric == nil || *result.Metric != 0.8 {
		t.Fatalf("expected metric 0.8, got %v", result.Metric)
	}
}

func TestCompleteness_BelowThreshold(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)
	seedTable(t, ctx, session, `CREATE TABLE data AS SELECT * FROM (VALUES (1),(NULL),(NULL),(4)) AS t(phone)`)

	c, err := NewCompleteness(OneColumn("phone"), 0.8, All())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := c.Evaluate(ctx, session)
	if result.Status != StatusFailure {
		t.Fatalf("expected failure, got %s", result.Status)
	}
	if result.Metric == nil || *result.Metric != 0.5 {
		t.Fatalf("expected metric 0.5, got %v", result.Metric)
	}
}

func TestCompleteness_EmptyTableSkipped(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)
	seedTable(t, ctx, session, `CREATE TABLE data (id INTEGER)`)

	c, err := NewCompleteness(OneColumn("id"), 1.0, All())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := c.Evaluate(ctx, session)
	if result.Status != StatusSkipped {
		t.Fatalf("expected skipped, got %s", result.Status)
	}
}

func TestCompleteness_MultiColumnAllOperator(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)
	seedTable(t, ctx, session, `CREATE TABLE data AS SELECT * FROM
		(VALUES (1,NULL,100),(2,20,200),(3,30,300)) AS t(col1,col2,col3)`)

	c, err := NewCompleteness(ManyColumns([]string{"col1", "col2", "col3"}), 1.0, All())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := c.Evaluate(ctx, session)
	if result.Status != StatusFailure {
		t.Fatalf("expected failure, got %s", result.Status)
	}
}

func TestCompleteness_InvalidThreshold(t *testing.T) {
	if _, err := NewCompleteness(OneColumn("col"), 1.5, All()); err == nil {
		t.Fatal("expected error for out-of-range threshold")
	}
}
