package tasks

import (
	"reflect"
	"testing"
	"time"
)

func TestQueue_RunsInDueOrder(t *testing.T) {
	q := NewQueue()
	var got []string
	q.Schedule(5*time.Second, "c", func() { got = append(got, "c") })
	q.Schedule(time.Second, "a", func() { got = append(got, "a") })
	q.Schedule(time.Second, "b", func() { got = append(got, "b") })

	if n := q.Advance(500 * time.Millisecond); n != 0 {
		t.Fatalf("ran %d early", n)
	}
	if n := q.Advance(time.Second); n != 2 {
		t.Fatalf("ran %d want 2", n)
	}
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("order=%v", got)
	}
	q.Advance(10 * time.Second)
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("order=%v", got)
	}
	if q.Now() != 11500*time.Millisecond {
		t.Fatalf("now=%v", q.Now())
	}
}

func TestQueue_ChainedScheduleWithinWindow(t *testing.T) {
	q := NewQueue()
	var at []time.Duration
	q.Schedule(time.Second, "first", func() {
		at = append(at, q.Now())
		q.Schedule(time.Second, "second", func() { at = append(at, q.Now()) })
	})
	q.Advance(3 * time.Second)
	if len(at) != 2 || at[0] != time.Second || at[1] != 2*time.Second {
		t.Fatalf("chained times=%v", at)
	}
}

func TestQueue_ZeroDelayAndCancel(t *testing.T) {
	q := NewQueue()
	ran := 0
	id := q.Schedule(0, "x", func() { ran++ })
	q.Schedule(0, "y", func() { ran += 10 })
	if !q.Cancel(id) {
		t.Fatalf("cancel failed")
	}
	if q.Cancel(id) {
		t.Fatalf("double cancel should fail")
	}
	if got := q.Pending(); !reflect.DeepEqual(got, []string{"y"}) {
		t.Fatalf("pending=%v", got)
	}
	q.Advance(0)
	if ran != 10 || q.Len() != 0 {
		t.Fatalf("ran=%d len=%d", ran, q.Len())
	}
}
