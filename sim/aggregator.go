package sim

import (
	"fmt"
	"sync"
	"time"

	"github.com/sms-sim/sms-sim/sim/trace"
)

// Aggregator merges SendResults from all senders. Every mutation goes
// through Merge under one lock, so Snapshot never observes a partially
// applied merge. Merging is commutative: durations are summed as integer
// nanoseconds, so arrival order cannot change the totals.
type Aggregator struct {
	mu    sync.Mutex
	state AggregateState
	total int
	seen  []bool // seen[i] once message i has been merged
	start time.Time
	trace *trace.SendTrace // nil when tracing is off
}

// NewAggregator creates an empty aggregate for total messages across senders.
func NewAggregator(total, senders int, st *trace.SendTrace) *Aggregator {
	return &Aggregator{
		state: AggregateState{PerSender: make([]SenderCounts, senders)},
		total: total,
		seen:  make([]bool, total),
		start: time.Now(),
		trace: st,
	}
}

// Merge adds one result. It returns an error wrapping ErrInternalFault when
// the result cannot belong to this run; the state is left untouched then.
func (a *Aggregator) Merge(r SendResult) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if r.Sender < 0 || r.Sender >= len(a.state.PerSender) {
		return fmt.Errorf("%w: result from unknown sender %d", ErrInternalFault, r.Sender)
	}
	if r.Index < 0 || r.Index >= a.total {
		return fmt.Errorf("%w: message index %d outside [0, %d)", ErrInternalFault, r.Index, a.total)
	}
	if a.seen[r.Index] {
		return fmt.Errorf("%w: duplicate result for message %d from sender %d", ErrInternalFault, r.Index, r.Sender)
	}
	if a.state.Sent >= a.total {
		return fmt.Errorf("%w: more than %d results merged", ErrInternalFault, a.total)
	}
	if r.Duration < 0 {
		return fmt.Errorf("%w: negative send time %v for message %d", ErrInternalFault, r.Duration, r.Index)
	}

	a.seen[r.Index] = true
	a.state.add(r)
	a.state.PerSender[r.Sender].add(r)
	a.trace.RecordSend(trace.SendRecord{
		Index:     r.Index,
		Sender:    r.Sender,
		Recipient: r.Recipient,
		Success:   r.Success,
		Duration:  r.Duration,
	})
	return nil
}

// MarkStart resets the origin of ProgressSnapshot.Elapsed to now.
func (a *Aggregator) MarkStart() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.start = time.Now()
}

// Snapshot returns a point-in-time copy of the aggregate.
func (a *Aggregator) Snapshot() ProgressSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return ProgressSnapshot{
		AggregateState: a.state.clone(),
		TotalMessages:  a.total,
		Elapsed:        time.Since(a.start),
	}
}
