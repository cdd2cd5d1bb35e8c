package router

import (
	"context"
	"testing"

	"github.com/canonica-labs/canonica-validate/internal/engine"
)

type stubSession struct {
	name   string
	closed bool
}

func (s *stubSession) Name() string { return s.name }
func (s *stubSession) RegisterTable(ctx context.Context, name string, provider engine.TableProvider) error {
	return nil
}
func (s *stubSession) SQL(ctx context.Context, text string) (engine.Dataframe, error) {
	return engine.Dataframe{SQL: text}, nil
}
func (s *stubSession) Collect(ctx context.Context, df engine.Dataframe) ([]engine.Batch, error) {
	return nil, nil
}
func (s *stubSession) SchemaOf(ctx context.Context, table string) (engine.Schema, error) {
	return nil, nil
}
func (s *stubSession) Close() error {
	s.closed = true
	return nil
}

func TestRouter_GetByName(t *testing.T) {
	r := New()
	r.Register("duckdb", &stubSession{name: "duckdb"}, 1)

	session, err := r.Get("duckdb")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Name() != "duckdb" {
		t.Fatalf("expected duckdb, got %s", session.Name())
	}
}

func TestRouter_GetUnknown(t *testing.T) {
	r := New()
	if _, err := r.Get("nope"); err == nil {
		t.Fatal("expected error for unregistered engine")
	}
}

func TestRouter_DefaultPicksLowestPriority(t *testing.T) {
	r := New()
	r.Register("trino", &stubSession{name: "trino"}, 5)
	r.Register("duckdb", &stubSession{name: "duckdb"}, 1)

	session, err := r.Default()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Name() != "duckdb" {
		t.Fatalf("expected duckdb as default, got %s", session.Name())
	}
}

func TestRouter_UnavailableExcludedFromDefault(t *testing.T) {
	r := New()
	r.Register("duckdb", &stubSession{name: "duckdb"}, 1)
	r.Register("trino", &stubSession{name: "trino"}, 5)
	r.SetAvailable("duckdb", false)

	session, err := r.Default()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Name() != "trino" {
		t.Fatalf("expected trino since duckdb is unavailable, got %s", session.Name())
	}
}

func TestRouter_NamesOrderedByPriority(t *testing.T) {
	r := New()
	r.Register("trino", &stubSession{name: "trino"}, 5)
	r.Register("duckdb", &stubSession{name: "duckdb"}, 1)
	r.Register("snowflake", &stubSession{name: "snowflake"}, 3)

	names := r.Names()
	want := []string{"duckdb", "snowflake", "trino"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}
}

func TestRouter_CloseAll(t *testing.T) {
	r := New()
	a := &stubSession{name: "a"}
	b := &stubSession{name: "b"}
	r.Register("a", a, 1)
	r.Register("b", b, 2)

	if err := r.CloseAll(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.closed || !b.closed {
		t.Fatal("expected both sessions closed")
	}
}
