// Package sim provides the bulk SMS send simulation engine.
//
// # Reading Guide
//
// Start with these files to understand a run:
//   - simulator.go: the dispatcher that builds the sender pool and emits the final report
//   - sender.go: the per-sender claim → simulate → sleep → merge loop and its states
//   - aggregator.go: the single point where send results are merged
//
// # Architecture
//
// A run claims message indices from a shared MessageSource; each index is
// handed to exactly one Sender. A Sender draws an Outcome from its own
// SenderProfile (truncated normal send time, Bernoulli success), waits for
// that long on a Clock, and merges a SendResult into the Aggregator. A
// ProgressReporter samples the Aggregator on a ticker and hands immutable
// snapshots to a Renderer.
//
// Two clocks are available:
//   - WallClock: senders really sleep; only per-sender draws are reproducible
//   - LockstepClock: senders take turns in virtual time, so a seed fully
//     determines the run
//
// Per-sender random streams come from PartitionedRNG, derived from one
// master seed. Sub-packages:
//   - sim/trace/: per-send trace recording and post-run summary
package sim
