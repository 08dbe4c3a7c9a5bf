package anim

import (
	"container/heap"
	"time"
)

// ID identifies a scheduled task. The zero ID is never issued.
type ID uint64

type kind uint8

const (
	kindOnce kind = iota
	kindRepeat
	kindAnimation
)

type task struct {
	id       ID
	kind     kind
	deadline time.Duration
	start    time.Duration
	interval time.Duration
	seq      uint64
	index    int

	once    func()
	repeat  func() bool
	animate func(t float64)
}

// Scheduler runs callbacks against a virtual clock. It is not safe for
// concurrent use; it belongs to the update loop.
type Scheduler struct {
	now    time.Duration
	nextID ID
	seq    uint64
	timers taskHeap
	anims  []*task
	byID   map[ID]*task
}

// New creates a scheduler at time zero.
func New() *Scheduler {
	return &Scheduler{byID: make(map[ID]*task)}
}

// Now returns the virtual time.
func (s *Scheduler) Now() time.Duration { return s.now }

// Pending returns the number of scheduled tasks.
func (s *Scheduler) Pending() int { return len(s.byID) }

// Scheduled reports whether id is still pending.
func (s *Scheduler) Scheduled(id ID) bool {
	_, ok := s.byID[id]
	return ok
}

func (s *Scheduler) add(t *task) ID {
	s.nextID++
	s.seq++
	t.id, t.seq = s.nextID, s.seq
	s.byID[t.id] = t
	if t.kind == kindAnimation {
		s.anims = append(s.anims, t)
	} else {
		heap.Push(&s.timers, t)
	}
	return t.id
}

// After runs fn once, d after now. A non-positive d fires on the next
// Advance.
func (s *Scheduler) After(d time.Duration, fn func()) ID {
	return s.add(&task{kind: kindOnce, deadline: s.now + max(d, 0), once: fn})
}

// Every runs fn every interval until it returns false or is cancelled.
func (s *Scheduler) Every(interval time.Duration, fn func() bool) ID {
	interval = max(interval, time.Millisecond)
	return s.add(&task{kind: kindRepeat, deadline: s.now + interval, interval: interval, repeat: fn})
}

// Animate calls fn with the progress of a d-long animation on every
// Advance. A non-positive d completes on the next Advance.
func (s *Scheduler) Animate(d time.Duration, fn func(t float64)) ID {
	return s.add(&task{kind: kindAnimation, start: s.now, deadline: s.now + max(d, 0), animate: fn})
}

// Cancel removes a task without running it. It reports whether the task
// was pending.
func (s *Scheduler) Cancel(id ID) bool {
	t, ok := s.byID[id]
	if !ok {
		return false
	}
	s.drop(t)
	return true
}

// Finish runs a task to completion now: once-timers fire, animations get
// progress 1 and repeating timers stop after one last call.
func (s *Scheduler) Finish(id ID) bool {
	t, ok := s.byID[id]
	if !ok {
		return false
	}
	s.drop(t)
	switch t.kind {
	case kindOnce:
		t.once()
	case kindRepeat:
		t.repeat()
	case kindAnimation:
		t.animate(1)
	}
	return true
}

// CancelAll drops every pending task.
func (s *Scheduler) CancelAll() {
	s.timers = s.timers[:0]
	s.anims = s.anims[:0]
	clear(s.byID)
}

func (s *Scheduler) drop(t *task) {
	delete(s.byID, t.id)
	if t.kind == kindAnimation {
		for i, a := range s.anims {
			if a == t {
				s.anims = append(s.anims[:i], s.anims[i+1:]...)
				break
			}
		}
		return
	}
	if t.index >= 0 && t.index < len(s.timers) && s.timers[t.index] == t {
		heap.Remove(&s.timers, t.index)
	}
}

// Advance moves the clock by dt and runs everything that became due.
// Animations step first, then timers in deadline order. Tasks scheduled by
// callbacks are never run in the same Advance.
func (s *Scheduler) Advance(dt time.Duration) {
	s.now += max(dt, 0)
	limit := s.seq

	anims := append([]*task(nil), s.anims...)
	for _, a := range anims {
		if _, live := s.byID[a.id]; !live || a.seq > limit {
			continue
		}
		p := 1.0
		if span := a.deadline - a.start; span > 0 && s.now < a.deadline {
			p = float64(s.now-a.start) / float64(span)
		}
		if p >= 1 {
			s.drop(a)
		}
		a.animate(p)
	}

	var deferred []*task
	for len(s.timers) > 0 && s.timers[0].deadline <= s.now {
		t := heap.Pop(&s.timers).(*task)
		if t.seq > limit {
			deferred = append(deferred, t)
			continue
		}
		switch t.kind {
		case kindOnce:
			delete(s.byID, t.id)
			t.once()
		case kindRepeat:
			if t.repeat() {
				if _, live := s.byID[t.id]; live {
					t.deadline += t.interval
					t.deadline = max(t.deadline, s.now+1)
					heap.Push(&s.timers, t)
				}
			} else {
				delete(s.byID, t.id)
			}
		}
	}
	for _, t := range deferred {
		heap.Push(&s.timers, t)
	}
}

// taskHeap orders timers by deadline, then scheduling order.
type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].deadline != h[j].deadline {
		return h[i].deadline < h[j].deadline
	}
	return h[i].seq < h[j].seq
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	t := x.(*task)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
