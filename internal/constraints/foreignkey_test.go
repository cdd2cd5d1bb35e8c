package constraints

import (
	"context"
	"testing"
)

func TestForeignKey_NoViolations(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)
	seedTable(t, ctx, session, `CREATE TABLE customers AS SELECT * FROM (VALUES (1),(2),(3)) AS t(id)`)
	seedTable(t, ctx, session, `CREATE TABLE orders AS SELECT * FROM (VALUES (1),(2)) AS t(customer_id)`)

	fk, err := NewForeignKey("orders.customer_id", "customers.id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := fk.Evaluate(ctx, session)
	if result.Status != StatusSuccess {
		t.Fatalf("expected success, got %s: %s", result.Status, result.Message)
	}
}

func TestForeignKey_ViolationsDetected(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)
	seedTable(t, ctx, session, `CREATE TABLE customers AS SELECT * FROM (VALUES (1),(2)) AS t(id)`)
	seedTable(t, ctx, session, `CREATE TABLE orders AS SELECT * FROM (VALUES (1),(99)) AS t(customer_id)`)

	fk, err := NewForeignKey("orders.customer_id", "customers.id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := fk.Evaluate(ctx, session)
	if result.Status != StatusFailure {
		t.Fatalf("expected failure, got %s", result.Status)
	}
	if result.Metric == nil || *result.Metric != 1 {
		t.Fatalf("expected violation count metric of 1, got %+v", result.Metric)
	}
}

func TestForeignKey_AllowNulls(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)
	seedTable(t, ctx, session, `CREATE TABLE customers AS SELECT * FROM (VALUES (1)) AS t(id)`)
	seedTable(t, ctx, session, `CREATE TABLE orders AS SELECT * FROM (VALUES (1),(NULL)) AS t(customer_id)`)

	fk, err := NewForeignKey("orders.customer_id", "customers.id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fk.AllowNulls(true)

	result := fk.Evaluate(ctx, session)
	if result.Status != StatusSuccess {
		t.Fatalf("expected success with nulls allowed, got %s: %s", result.Status, result.Message)
	}
}

func TestForeignKey_RequiresQualifiedColumns(t *testing.T) {
	if _, err := NewForeignKey("customer_id", "customers.id"); err == nil {
		t.Fatal("expected error for unqualified child column")
	}
}
