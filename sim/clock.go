package sim

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"
)

// Clock decides how a sender's simulated send time elapses.
//
// Every sender calls Start once before its first claim, Sleep once per
// message, and Done exactly once when it exits.
type Clock interface {
	// Start blocks until sender may begin claiming messages.
	Start(ctx context.Context, sender int) error
	// Sleep suspends sender for d. Returns ctx.Err() if ctx ends first.
	Sleep(ctx context.Context, sender int, d time.Duration) error
	// Done reports that sender will not call Sleep again.
	Done(sender int)
	// Now returns the time elapsed on this clock since it was created.
	Now() time.Duration
}

// ClockKind names a Clock implementation on the command line.
type ClockKind string

const (
	// ClockWall suspends senders on real timers; senders run truly in parallel.
	ClockWall ClockKind = "wall"
	// ClockLockstep advances virtual time; one sender runs at a time, making
	// multi-sender runs reproducible and independent of real send times.
	ClockLockstep ClockKind = "lockstep"
)

// IsValidClockKind reports whether name is a recognized clock kind.
func IsValidClockKind(name string) bool {
	return name == string(ClockWall) || name == string(ClockLockstep)
}

// NewClock builds the clock for kind with the given number of senders.
func NewClock(kind ClockKind, senders int) (Clock, error) {
	switch kind {
	case ClockWall, "":
		return NewWallClock(), nil
	case ClockLockstep:
		return NewLockstepClock(senders), nil
	default:
		return nil, fmt.Errorf("unknown clock %q; valid: wall, lockstep", kind)
	}
}

// === WallClock ===

// WallClock sleeps on real timers. Safe for concurrent use.
type WallClock struct {
	start time.Time
}

// NewWallClock creates a WallClock starting now.
func NewWallClock() *WallClock {
	return &WallClock{start: time.Now()}
}

func (c *WallClock) Start(ctx context.Context, _ int) error {
	return ctx.Err()
}

func (c *WallClock) Sleep(ctx context.Context, _ int, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *WallClock) Done(int) {}

func (c *WallClock) Now() time.Duration {
	return time.Since(c.start)
}

// === LockstepClock ===

// LockstepClock runs senders one at a time in virtual time.
//
// A sender holds the turn from the moment it is woken until it parks again
// in Sleep or leaves via Done. Once every active sender is parked, the
// earliest wake-up is released; ties break on sender index, then on park
// order. Claims therefore happen in the same order on every run.
type LockstepClock struct {
	mu     sync.Mutex
	now    time.Duration
	active int
	seq    int64
	parked wakeHeap
}

// NewLockstepClock creates a clock for the given number of senders.
func NewLockstepClock(senders int) *LockstepClock {
	return &LockstepClock{active: senders}
}

func (c *LockstepClock) Start(ctx context.Context, sender int) error {
	return c.Sleep(ctx, sender, 0)
}

func (c *LockstepClock) Sleep(ctx context.Context, sender int, d time.Duration) error {
	c.mu.Lock()
	w := &wakeup{at: addDurations(c.now, max(d, 0)), sender: sender, seq: c.seq, ch: make(chan struct{})}
	c.seq++
	heap.Push(&c.parked, w)
	c.releaseLocked()
	c.mu.Unlock()

	select {
	case <-w.ch:
		return nil
	case <-ctx.Done():
		c.mu.Lock()
		if w.index >= 0 {
			heap.Remove(&c.parked, w.index)
		}
		c.mu.Unlock()
		return ctx.Err()
	}
}

func (c *LockstepClock) Done(int) {
	c.mu.Lock()
	c.active--
	c.releaseLocked()
	c.mu.Unlock()
}

func (c *LockstepClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// releaseLocked hands the turn to the earliest parked sender once no
// sender is running. Caller holds c.mu.
func (c *LockstepClock) releaseLocked() {
	if c.active <= 0 || c.parked.Len() < c.active {
		return
	}
	w := heap.Pop(&c.parked).(*wakeup)
	if w.at > c.now {
		c.now = w.at
	}
	close(w.ch)
}

type wakeup struct {
	at     time.Duration
	sender int
	seq    int64
	ch     chan struct{}
	index  int // position in wakeHeap; -1 once released or removed
}

// wakeHeap orders wake-ups by time → sender index → park order.
type wakeHeap []*wakeup

func (h wakeHeap) Len() int { return len(h) }

func (h wakeHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	if h[i].sender != h[j].sender {
		return h[i].sender < h[j].sender
	}
	return h[i].seq < h[j].seq
}

func (h wakeHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *wakeHeap) Push(x any) {
	w := x.(*wakeup)
	w.index = len(*h)
	*h = append(*h, w)
}

func (h *wakeHeap) Pop() any {
	old := *h
	n := len(old)
	w := old[n-1]
	old[n-1] = nil
	w.index = -1
	*h = old[:n-1]
	return w
}
