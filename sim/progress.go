package sim

import (
	"sync"
	"sync/atomic"
	"time"
)

// Renderer displays progress. Implementations live outside the engine
// (terminal, JSON, tests). RenderProgress is only ever called from the
// reporter goroutine; RenderFinal is called once by the Simulator.
type Renderer interface {
	RenderProgress(ProgressSnapshot)
	RenderFinal(*FinalReport)
}

// ProgressReporter samples the Aggregator every interval on its own
// goroutine and forwards each snapshot to a Renderer. Workers never wait on
// it, so a slow renderer only delays the next sample.
type ProgressReporter struct {
	agg      *Aggregator
	interval time.Duration
	renderer Renderer // nil = sample without rendering

	stopCh  chan struct{}
	done    chan struct{}
	started atomic.Bool
	stop    sync.Once
	ticks   atomic.Int64
}

// NewProgressReporter creates a reporter; call Start to begin sampling.
func NewProgressReporter(agg *Aggregator, interval time.Duration, renderer Renderer) *ProgressReporter {
	return &ProgressReporter{
		agg:      agg,
		interval: interval,
		renderer: renderer,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sampling goroutine. The first sample is taken one
// interval after Start. Calling Start twice is a no-op.
func (p *ProgressReporter) Start() {
	if p.started.Swap(true) {
		return
	}
	go p.run()
}

func (p *ProgressReporter) run() {
	defer close(p.done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			snap := p.agg.Snapshot()
			p.ticks.Add(1)
			if p.renderer != nil {
				p.renderer.RenderProgress(snap)
			}
		}
	}
}

// Stop halts sampling, waits for an in-progress render to finish, and
// returns one last snapshot. Safe to call more than once.
func (p *ProgressReporter) Stop() ProgressSnapshot {
	p.stop.Do(func() {
		close(p.stopCh)
		if p.started.Load() {
			<-p.done
		}
	})
	return p.agg.Snapshot()
}

// Samples returns how many periodic snapshots have been taken.
func (p *ProgressReporter) Samples() int {
	return int(p.ticks.Load())
}
