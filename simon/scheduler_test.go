/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package simon

import (
	"slices"
	"testing"
	"time"
)

func TestManualRunsInDeadlineOrder(t *testing.T) {
	m := NewManual()

	var got []string
	m.After(30*time.Millisecond, func() { got = append(got, "c") })
	m.After(10*time.Millisecond, func() { got = append(got, "a") })
	m.After(20*time.Millisecond, func() { got = append(got, "b1") })
	m.After(20*time.Millisecond, func() { got = append(got, "b2") })

	m.Advance(25 * time.Millisecond)
	if want := []string{"a", "b1", "b2"}; !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if m.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", m.Pending())
	}

	m.Advance(5 * time.Millisecond)
	if want := []string{"a", "b1", "b2", "c"}; !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestManualNestedSchedulingIsRelative(t *testing.T) {
	m := NewManual()

	var at []time.Duration
	m.After(100*time.Millisecond, func() {
		at = append(at, m.Now())
		m.After(50*time.Millisecond, func() {
			at = append(at, m.Now())
		})
	})

	m.Advance(time.Second)

	if want := []time.Duration{100 * time.Millisecond, 150 * time.Millisecond}; !slices.Equal(at, want) {
		t.Fatalf("got %v, want %v", at, want)
	}
	if m.Now() != time.Second {
		t.Fatalf("now = %s, want 1s", m.Now())
	}
}

func TestManualDrain(t *testing.T) {
	m := NewManual()

	n := 0
	var tick func()
	tick = func() {
		n++
		m.After(time.Second, tick)
	}
	m.After(0, tick)

	if ran := m.Drain(5); ran != 5 || n != 5 {
		t.Fatalf("ran %d, n %d, want 5", ran, n)
	}
	if m.Now() != 4*time.Second {
		t.Fatalf("now = %s, want 4s", m.Now())
	}
}

func TestLoopRunsOnOwner(t *testing.T) {
	l := NewLoop()
	defer l.Stop()

	var got []int
	l.After(20*time.Millisecond, func() { got = append(got, 2) })
	l.After(5*time.Millisecond, func() {
		got = append(got, 1)
		l.After(0, func() { got = append(got, 3) })
	})

	deadline := time.After(2 * time.Second)
	for l.Pending() > 0 {
		select {
		case <-l.C():
			l.RunDue()
		case <-deadline:
			t.Fatalf("timed out with %d pending, got %v", l.Pending(), got)
		}
	}

	if want := []int{1, 3, 2}; !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestLoopStopDropsTasks(t *testing.T) {
	l := NewLoop()

	ran := false
	l.After(time.Millisecond, func() { ran = true })
	l.Stop()

	select {
	case <-l.C():
		t.Fatal("stopped loop fired")
	case <-time.After(20 * time.Millisecond):
	}

	l.RunDue()
	if ran || l.Pending() != 0 {
		t.Fatal("stopped loop ran a task")
	}
}
