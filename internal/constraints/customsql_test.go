package constraints

import (
	"context"
	"testing"
)

func TestCustomSQL_AllRowsSatisfy(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)
	seedTable(t, ctx, session, `CREATE TABLE data AS SELECT * FROM (VALUES (10),(20),(30)) AS t(amount)`)

	c, err := NewCustomSQL("amount > 0", "amounts must be positive")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := c.Evaluate(ctx, session)
	if result.Status != StatusSuccess {
		t.Fatalf("expected success, got %s: %s", result.Status, result.Message)
	}
}

func TestCustomSQL_SomeRowsFail(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)
	seedTable(t, ctx, session, `CREATE TABLE data AS SELECT * FROM (VALUES (10),(-20),(30)) AS t(amount)`)

	c, err := NewCustomSQL("amount > 0", "amounts must be positive")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := c.Evaluate(ctx, session)
	if result.Status != StatusFailure {
		t.Fatalf("expected failure, got %s", result.Status)
	}
}

func TestCustomSQL_RejectsUnsafeExpression(t *testing.T) {
	if _, err := NewCustomSQL("amount > 0; DROP TABLE data", ""); err == nil {
		t.Fatal("expected error for unsafe expression")
	}
}

func TestCustomSQL_RejectsMalformedPredicateShape(t *testing.T) {
	// Not caught by the keyword/pattern blocklist in sqlsafe, but rejected
	// by sqlguard's parse of the wrapped predicate.
	if _, err := NewCustomSQL("amount > (1", ""); err == nil {
		t.Fatal("expected error for malformed predicate shape")
	}
}
