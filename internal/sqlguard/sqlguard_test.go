package sqlguard

import "testing"

func TestCheckPredicateShape_Valid(t *testing.T) {
	cases := []string{"amount > 0", "status = 'active'", "a.x = b.y"}
	for _, c := range cases {
		if err := CheckPredicateShape(c); err != nil {
			t.Errorf("CheckPredicateShape(%q) unexpected error: %v", c, err)
		}
	}
}

func TestCheckPredicateShape_RejectsMultiStatement(t *testing.T) {
	if err := CheckPredicateShape("1=1; DROP TABLE users"); err == nil {
		t.Fatal("expected error for multi-statement expression")
	}
}

func TestCheckPredicateShape_RejectsEmpty(t *testing.T) {
	if err := CheckPredicateShape("   "); err == nil {
		t.Fatal("expected error for empty expression")
	}
}
