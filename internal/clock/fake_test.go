package clock

import (
	"testing"
	"time"
)

func TestFakeAfterFuncFiresAtDeadline(t *testing.T) {
	fake := Fake(time.Unix(1000, 0))
	fired := 0
	fake.AfterFunc(time.Second, func() { fired++ })

	fake.Advance(999 * time.Millisecond)
	if fired != 0 {
		t.Fatalf("fired before deadline")
	}
	fake.Advance(time.Millisecond)
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}
	fake.Advance(time.Hour)
	if fired != 1 {
		t.Fatalf("one-shot timer fired again: %d", fired)
	}
}

func TestFakeStop(t *testing.T) {
	fake := Fake(time.Unix(0, 0))
	fired := false
	timer := fake.AfterFunc(time.Second, func() { fired = true })
	if !timer.Stop() {
		t.Fatal("Stop on pending timer returned false")
	}
	if timer.Stop() {
		t.Fatal("second Stop returned true")
	}
	fake.Advance(2 * time.Second)
	if fired {
		t.Fatal("stopped timer fired")
	}
	if fake.PendingCount() != 0 {
		t.Fatalf("PendingCount = %d, want 0", fake.PendingCount())
	}
}

func TestFakeChainedCallbacks(t *testing.T) {
	fake := Fake(time.Unix(0, 0))
	var order []string
	fake.AfterFunc(time.Second, func() {
		order = append(order, "first")
		fake.AfterFunc(time.Second, func() { order = append(order, "second") })
	})

	fake.Advance(time.Second)
	if len(order) != 1 {
		t.Fatalf("order = %v, want [first]", order)
	}
	fake.Advance(time.Second)
	if len(order) != 2 || order[1] != "second" {
		t.Fatalf("order = %v, want [first second]", order)
	}
}
