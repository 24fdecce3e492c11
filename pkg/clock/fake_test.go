package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeFiresInOrder(t *testing.T) {
	c := NewFake(epoch)
	var got []string

	c.AfterFunc(3*time.Second, func() { got = append(got, "c") })
	c.AfterFunc(1*time.Second, func() { got = append(got, "a") })
	c.AfterFunc(2*time.Second, func() { got = append(got, "b") })
	c.AfterFunc(10*time.Second, func() { got = append(got, "late") })

	c.Advance(5 * time.Second)

	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("fired = %v, want [a b c]", got)
	}
	if !c.Now().Equal(epoch.Add(5 * time.Second)) {
		t.Errorf("Now() = %v", c.Now())
	}
	if c.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", c.Pending())
	}
}

func TestFakeStop(t *testing.T) {
	c := NewFake(epoch)
	fired := false
	tm := c.AfterFunc(time.Second, func() { fired = true })

	if !tm.Stop() {
		t.Error("Stop() = false on armed timer")
	}
	if tm.Stop() {
		t.Error("second Stop() = true")
	}
	c.Advance(time.Minute)
	if fired {
		t.Error("stopped timer fired")
	}
}

func TestFakeRearmDuringAdvance(t *testing.T) {
	c := NewFake(epoch)
	var at []time.Duration

	var tick func()
	tick = func() {
		at = append(at, c.Now().Sub(epoch))
		c.AfterFunc(5*time.Second, tick)
	}
	c.AfterFunc(5*time.Second, tick)

	c.Advance(16 * time.Second)

	want := []time.Duration{5 * time.Second, 10 * time.Second, 15 * time.Second}
	if len(at) != len(want) {
		t.Fatalf("fired at %v, want %v", at, want)
	}
	for i := range want {
		if at[i] != want[i] {
			t.Errorf("fire %d at %v, want %v", i, at[i], want[i])
		}
	}
}

func TestRealClock(t *testing.T) {
	done := make(chan struct{})
	Real().AfterFunc(time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("real timer did not fire")
	}
}
