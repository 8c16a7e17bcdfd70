package limits

import "testing"

func TestCounterGivenTaken(t *testing.T) {
	var c Counter
	c.Given(10)
	if got := c.Value(); got != 10 {
		t.Fatalf("Value() = %d, want 10", got)
	}
	if !c.Taken(4) {
		t.Fatalf("Taken(4) on a counter of 10 should succeed")
	}
	if got := c.Value(); got != 6 {
		t.Fatalf("Value() = %d, want 6", got)
	}
}

func TestCounterTakenRefusesToGoNegative(t *testing.T) {
	var c Counter
	c.Given(2)
	if c.Taken(3) {
		t.Fatalf("Taken(3) on a counter of 2 should fail")
	}
	if got := c.Value(); got != 2 {
		t.Fatalf("Value() = %d after failed Taken, want unchanged 2", got)
	}
}

func TestCounterTakeGiveSingleUnit(t *testing.T) {
	var c Counter
	c.Give()
	c.Give()
	if !c.Take() {
		t.Fatalf("Take() on a counter of 2 should succeed")
	}
	if got := c.Value(); got != 1 {
		t.Fatalf("Value() = %d, want 1", got)
	}
}
