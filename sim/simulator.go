package sim

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sms-sim/sms-sim/sim/trace"
)

// Options carries the run-level choices that are not part of the
// simulation model itself.
type Options struct {
	Seed     int64            // master seed for every sender stream
	Clock    ClockKind        // "" = ClockWall
	Renderer Renderer         // nil = no progress output
	Trace    *trace.SendTrace // nil = no send trace
}

// Simulator is the dispatcher: it owns the message source, the sender
// pool, the aggregator and the progress reporter of one run.
type Simulator struct {
	Config     SimulationConfig
	RunID      string
	Key        SimulationKey
	RNG        *PartitionedRNG
	Source     *MessageSource
	Aggregator *Aggregator
	Reporter   *ProgressReporter
	Senders    []*Sender
	Trace      *trace.SendTrace

	clock     Clock
	clockKind ClockKind
	renderer  Renderer
	ran       atomic.Bool
}

// NewSimulator validates cfg and builds every run component. A config that
// fails validation returns a *ConfigError and nothing is started.
func NewSimulator(cfg SimulationConfig, opts Options) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	kind := opts.Clock
	if kind == "" {
		kind = ClockWall
	}
	clock, err := NewClock(kind, len(cfg.Senders))
	if err != nil {
		return nil, &ConfigError{Errs: []error{err}}
	}

	key := NewSimulationKey(opts.Seed)
	s := &Simulator{
		Config:     cfg,
		RunID:      uuid.NewString(),
		Key:        key,
		RNG:        NewPartitionedRNG(key),
		Source:     NewMessageSource(cfg.TotalMessages),
		Aggregator: NewAggregator(cfg.TotalMessages, len(cfg.Senders), opts.Trace),
		Trace:      opts.Trace,
		clock:      clock,
		clockKind:  kind,
		renderer:   opts.Renderer,
	}
	s.Reporter = NewProgressReporter(s.Aggregator, cfg.Refresh(), opts.Renderer)

	var limiter *rate.Limiter
	if cfg.MaxRate > 0 {
		burst := max(1, int(math.Floor(cfg.MaxRate)))
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxRate), burst)
	}

	// Every stream is derived here, on one goroutine, before any sender runs.
	s.Senders = make([]*Sender, len(cfg.Senders))
	for i, p := range cfg.Senders {
		s.Senders[i] = NewSender(i, p, s.RNG.ForSender(i), s.Source, s.Aggregator, clock, limiter)
	}
	return s, nil
}

// Run starts all senders concurrently, blocks until every one of them has
// finished, then stops the reporter and emits exactly one FinalReport.
//
// Cancelling ctx stops senders from claiming new messages; results merged
// so far are kept and the report is marked Cancelled. Messages that were
// claimed but still in flight are not counted as sent; they are included
// in Unsent and Abandoned. If a sender hits an internal fault the remaining
// senders are stopped and the partial report is returned along with an
// error wrapping ErrInternalFault.
func (s *Simulator) Run(ctx context.Context) (*FinalReport, error) {
	if s.ran.Swap(true) {
		return nil, fmt.Errorf("%w: simulator %s already ran", ErrInternalFault, s.RunID)
	}
	cfg := s.Config
	s.Aggregator.MarkStart()
	logrus.Infof("Starting simulation %s: %d messages, %d senders, refresh=%gs, seed=%d, clock=%s",
		s.RunID, cfg.TotalMessages, len(cfg.Senders), cfg.RefreshInterval, s.Key, s.clockKind)

	if cfg.TotalMessages == 0 {
		report := s.finalReport(ctx, s.Aggregator.Snapshot(), nil)
		s.emit(report)
		return report, nil
	}

	s.Reporter.Start()
	g, gctx := errgroup.WithContext(ctx)
	for _, snd := range s.Senders {
		snd := snd
		g.Go(func() error {
			err := snd.Run(gctx)
			logrus.Debugf("sender %d finished: sent=%d abandoned=%d", snd.ID, snd.Sent(), snd.Abandoned())
			return err
		})
	}
	runErr := g.Wait()
	final := s.Reporter.Stop()

	report := s.finalReport(ctx, final, runErr)
	switch {
	case runErr != nil:
		logrus.Errorf("Simulation %s aborted after %d of %d messages: %v", s.RunID, report.Sent, report.TotalMessages, runErr)
	case report.Cancelled:
		logrus.Warnf("Simulation %s cancelled after %d of %d messages (%d in flight dropped)",
			s.RunID, report.Sent, report.TotalMessages, report.Abandoned)
	default:
		logrus.Infof("Simulation %s complete: sent=%d succeeded=%d failed=%d",
			s.RunID, report.Sent, report.Succeeded, report.Failed)
	}
	s.emit(report)
	return report, runErr
}

// Clock returns the clock the senders run on.
func (s *Simulator) Clock() Clock {
	return s.clock
}

func (s *Simulator) finalReport(ctx context.Context, snap ProgressSnapshot, runErr error) *FinalReport {
	report := NewFinalReport(snap, s.Config.Senders)
	report.RunID = s.RunID
	report.Seed = int64(s.Key)
	report.Clock = s.clockKind
	report.SimulatedSeconds = s.clock.Now().Seconds()
	for _, snd := range s.Senders {
		report.Abandoned += snd.Abandoned()
	}
	report.Cancelled = runErr == nil && ctx.Err() != nil && report.Unsent > 0
	if runErr != nil {
		report.Fault = runErr.Error()
	}
	return report
}

func (s *Simulator) emit(report *FinalReport) {
	if s.renderer != nil {
		s.renderer.RenderFinal(report)
	}
}
