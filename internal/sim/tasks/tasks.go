// Package tasks is a delayed-task queue on virtual time. The owner advances
// the clock; due tasks run in (due, schedule order) on the caller's goroutine.
package tasks

import (
	"container/heap"
	"time"
)

type ID uint64

type Task struct {
	ID    ID
	Label string
	Due   time.Duration
	fn    func()
	seq   uint64
	index int
}

type Queue struct {
	now   time.Duration
	seq   uint64
	items taskHeap
	byID  map[ID]*Task
}

func NewQueue() *Queue {
	return &Queue{byID: map[ID]*Task{}}
}

// Now is the virtual time elapsed since the queue was created.
func (q *Queue) Now() time.Duration { return q.now }

func (q *Queue) Len() int { return len(q.items) }

// Schedule runs fn once the clock reaches Now()+delay. Negative delays are
// treated as zero.
func (q *Queue) Schedule(delay time.Duration, label string, fn func()) ID {
	if delay < 0 {
		delay = 0
	}
	q.seq++
	t := &Task{ID: ID(q.seq), Label: label, Due: q.now + delay, fn: fn, seq: q.seq}
	heap.Push(&q.items, t)
	q.byID[t.ID] = t
	return t.ID
}

func (q *Queue) Cancel(id ID) bool {
	t, ok := q.byID[id]
	if !ok {
		return false
	}
	heap.Remove(&q.items, t.index)
	delete(q.byID, id)
	return true
}

// Advance moves the clock forward by d and runs every task that became due,
// including tasks scheduled by running tasks with a due time inside the window.
func (q *Queue) Advance(d time.Duration) int {
	if d < 0 {
		d = 0
	}
	target := q.now + d
	ran := 0
	for len(q.items) > 0 && q.items[0].Due <= target {
		t := heap.Pop(&q.items).(*Task)
		delete(q.byID, t.ID)
		if t.Due > q.now {
			q.now = t.Due
		}
		t.fn()
		ran++
	}
	q.now = target
	return ran
}

// Pending lists labels of queued tasks in due order.
func (q *Queue) Pending() []string {
	cp := make(taskHeap, len(q.items))
	copy(cp, q.items)
	out := make([]string, 0, len(cp))
	for len(cp) > 0 {
		t := heap.Pop(&cp).(*Task)
		out = append(out, t.Label)
	}
	// heap.Pop rewrote indices on the shared *Task values.
	for i, t := range q.items {
		t.index = i
	}
	return out
}

type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].Due != h[j].Due {
		return h[i].Due < h[j].Due
	}
	return h[i].seq < h[j].seq
}
func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *taskHeap) Push(x any) {
	t := x.(*Task)
	t.index = len(*h)
	*h = append(*h, t)
}
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
