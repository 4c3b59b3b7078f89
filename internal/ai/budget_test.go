package ai

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestWindowBudget_Unlimited(t *testing.T) {
	b := NewWindowBudget(0, time.Hour, nil)
	_ = b.Record("teacher1", 1_000_000)

	ok, err := b.Check("teacher1")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !ok {
		t.Error("zero limit should mean unlimited")
	}
}

func TestWindowBudget_WithinAndOverBudget(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)}
	b := NewWindowBudget(1000, 24*time.Hour, clock.now)

	_ = b.Record("teacher1", 400)
	if ok, _ := b.Check("teacher1"); !ok {
		t.Error("400/1000 should be within budget")
	}

	_ = b.Record("teacher1", 600)
	if ok, _ := b.Check("teacher1"); ok {
		t.Error("1000/1000 should be exhausted")
	}

	used, limit, _ := b.Usage("teacher1")
	if used != 1000 || limit != 1000 {
		t.Errorf("Usage() = %d/%d, want 1000/1000", used, limit)
	}
}

func TestWindowBudget_WindowResets(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)}
	b := NewWindowBudget(100, 24*time.Hour, clock.now)

	_ = b.Record("teacher1", 150)
	if ok, _ := b.Check("teacher1"); ok {
		t.Fatal("should be over budget")
	}

	clock.t = clock.t.Add(24 * time.Hour)
	if ok, _ := b.Check("teacher1"); !ok {
		t.Error("budget should reset after the window")
	}
	if used, _, _ := b.Usage("teacher1"); used != 0 {
		t.Errorf("used = %d after reset, want 0", used)
	}
}

func TestWindowBudget_NegativeTokens(t *testing.T) {
	b := NewWindowBudget(100, time.Hour, nil)
	if err := b.Record("teacher1", -1); err == nil {
		t.Error("Record() should reject negative tokens")
	}
}

func TestWindowBudget_IsolatedUsers(t *testing.T) {
	b := NewWindowBudget(100, time.Hour, nil)
	_ = b.Record("teacher1", 100)

	if ok, _ := b.Check("teacher1"); ok {
		t.Error("teacher1 should be over budget")
	}
	if ok, _ := b.Check("teacher2"); !ok {
		t.Error("teacher2 should be unaffected")
	}
}
