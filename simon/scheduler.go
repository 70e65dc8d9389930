/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package simon

import (
	"container/heap"
	"time"
)

// Scheduler runs fn once, d after the call.
type Scheduler interface {
	After(d time.Duration, fn func())
}

type task struct {
	at  time.Duration
	seq uint64
	fn  func()
}

// taskQueue orders tasks by deadline, then by scheduling order.
type taskQueue []task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].at == q[j].at {
		return q[i].seq < q[j].seq
	}
	return q[i].at < q[j].at
}

func (q taskQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *taskQueue) Push(x any) { *q = append(*q, x.(task)) }

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = task{}
	*q = old[:n-1]
	return t
}

func (q *taskQueue) schedule(at time.Duration, seq uint64, fn func()) {
	heap.Push(q, task{at: at, seq: seq, fn: fn})
}

// popDue removes and returns the next task due at or before now.
func (q *taskQueue) popDue(now time.Duration) (task, bool) {
	if q.Len() == 0 || (*q)[0].at > now {
		return task{}, false
	}

	return heap.Pop(q).(task), true
}

// Loop is a real-time Scheduler for a single owning goroutine.
//
// After and RunDue must only be called from the owner. The owner selects on
// C and calls RunDue when it fires, so every callback runs on the owner's
// goroutine in deadline order.
type Loop struct {
	epoch time.Time
	queue taskQueue
	seq   uint64
	timer *time.Timer
}

func NewLoop() *Loop {
	t := time.NewTimer(time.Hour)
	t.Stop()

	return &Loop{
		epoch: time.Now(),
		timer: t,
	}
}

func (l *Loop) now() time.Duration {
	return time.Since(l.epoch)
}

func (l *Loop) After(d time.Duration, fn func()) {
	l.seq++
	l.queue.schedule(l.now()+max(d, 0), l.seq, fn)
	l.rearm()
}

// C fires when at least one task is due.
func (l *Loop) C() <-chan time.Time {
	return l.timer.C
}

// RunDue runs every task whose deadline has passed, including tasks those
// callbacks schedule with a zero delay.
func (l *Loop) RunDue() {
	for {
		t, ok := l.queue.popDue(l.now())
		if !ok {
			break
		}
		t.fn()
	}

	l.rearm()
}

// Pending reports how many tasks are still queued.
func (l *Loop) Pending() int {
	return l.queue.Len()
}

// Stop drops every pending task.
func (l *Loop) Stop() {
	l.timer.Stop()
	l.queue = nil
}

func (l *Loop) rearm() {
	l.timer.Stop()
	if l.queue.Len() == 0 {
		return
	}

	l.timer.Reset(max(l.queue[0].at-l.now(), 0))
}

// Manual is a Scheduler driven by virtual time, for tests and replays.
type Manual struct {
	now   time.Duration
	queue taskQueue
	seq   uint64
}

func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) After(d time.Duration, fn func()) {
	m.seq++
	m.queue.schedule(m.now+max(d, 0), m.seq, fn)
}

// Now returns the virtual time elapsed since the scheduler was created.
func (m *Manual) Now() time.Duration {
	return m.now
}

// Advance moves virtual time forward by d, running each due task at its own
// deadline so that nested scheduling is relative to that instant.
func (m *Manual) Advance(d time.Duration) {
	target := m.now + d

	for {
		t, ok := m.queue.popDue(target)
		if !ok {
			break
		}
		m.now = t.at
		t.fn()
	}

	m.now = target
}

// Drain runs tasks until the queue is empty or limit tasks have run.
// It returns the number of tasks run.
func (m *Manual) Drain(limit int) int {
	n := 0
	for n < limit && m.queue.Len() > 0 {
		t := heap.Pop(&m.queue).(task)
		m.now = t.at
		t.fn()
		n++
	}

	return n
}

func (m *Manual) Pending() int {
	return m.queue.Len()
}
