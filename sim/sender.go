package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// SenderState is a sender's position in its lifecycle:
// Idle → Claiming → Sending → Reporting → Claiming … → Finished.
type SenderState int32

const (
	StateIdle SenderState = iota
	StateClaiming
	StateSending
	StateReporting
	StateFinished
)

var senderStateNames = map[SenderState]string{
	StateIdle:      "idle",
	StateClaiming:  "claiming",
	StateSending:   "sending",
	StateReporting: "reporting",
	StateFinished:  "finished",
}

func (s SenderState) String() string {
	if name, ok := senderStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SenderState(%d)", int32(s))
}

// Sender models one delivery channel. It claims messages from a shared
// MessageSource until the source is exhausted, simulates each one with its
// own profile and random stream, and merges the result into the Aggregator.
//
// A modeled failure is data, not an error: it is merged with Success=false
// and the sender moves on. Each claimed message is attempted exactly once.
type Sender struct {
	ID      int
	Profile SenderProfile

	rng     *rand.Rand
	source  *MessageSource
	agg     *Aggregator
	clock   Clock
	limiter *rate.Limiter // nil = unlimited

	state     atomic.Int32
	sent      int
	abandoned int
}

// NewSender wires a sender to the shared run state. rng must not be shared
// with any other goroutine. limiter may be nil.
func NewSender(id int, profile SenderProfile, rng *rand.Rand, source *MessageSource, agg *Aggregator, clock Clock, limiter *rate.Limiter) *Sender {
	return &Sender{
		ID:      id,
		Profile: profile,
		rng:     rng,
		source:  source,
		agg:     agg,
		clock:   clock,
		limiter: limiter,
	}
}

// State returns the sender's current lifecycle state. Safe to call from any goroutine.
func (s *Sender) State() SenderState {
	return SenderState(s.state.Load())
}

// Sent returns how many results this sender merged. Only meaningful after Run returns.
func (s *Sender) Sent() int { return s.sent }

// Abandoned returns how many claimed messages were dropped mid-send by
// cancellation (0 or 1). Only meaningful after Run returns.
func (s *Sender) Abandoned() int { return s.abandoned }

// Run processes messages until the source is exhausted or ctx is cancelled,
// both of which return nil. It returns an error wrapping ErrInternalFault
// when the run must be aborted.
func (s *Sender) Run(ctx context.Context) (err error) {
	defer s.clock.Done(s.ID)
	defer s.setState(StateFinished)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: sender %d panicked: %v", ErrInternalFault, s.ID, r)
		}
	}()

	if errs := s.Profile.Validate(); len(errs) > 0 {
		return fmt.Errorf("%w: sender %d has a malformed profile: %v", ErrInternalFault, s.ID, errors.Join(errs...))
	}
	if err := s.clock.Start(ctx, s.ID); err != nil {
		return nil
	}

	for {
		s.setState(StateClaiming)
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("%w: sender %d rate limiter: %v", ErrInternalFault, s.ID, err)
			}
		}
		if ctx.Err() != nil {
			return nil
		}
		idx, ok := s.source.Claim()
		if !ok {
			logrus.Debugf("sender %d: queue exhausted after %d messages", s.ID, s.sent)
			return nil
		}

		msg := NewRandomMessage(idx, s.rng)
		out := Simulate(s.Profile, s.rng)

		s.setState(StateSending)
		if err := s.clock.Sleep(ctx, s.ID, out.Duration); err != nil {
			s.abandoned++
			logrus.Debugf("sender %d: message %d abandoned in flight: %v", s.ID, idx, err)
			return nil
		}

		s.setState(StateReporting)
		if err := s.agg.Merge(SendResult{
			Sender:    s.ID,
			Index:     msg.Index,
			Recipient: msg.Recipient,
			Success:   out.Success,
			Duration:  out.Duration,
		}); err != nil {
			return fmt.Errorf("sender %d: %w", s.ID, err)
		}
		s.sent++
		logrus.Tracef("sender %d: message %d to %s success=%v in %v", s.ID, idx, msg.Recipient, out.Success, out.Duration)
	}
}

func (s *Sender) setState(state SenderState) {
	s.state.Store(int32(state))
}
