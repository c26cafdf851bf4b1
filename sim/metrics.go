// Tracks simulation-wide and per-sender delivery statistics such as:
// messages sent, succeeded and failed, and mean simulated send time.

package sim

import (
	"fmt"
	"io"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SendResult is produced exactly once per attempted message.
type SendResult struct {
	Sender    int           // index of the sender that claimed the message
	Index     int           // message index
	Recipient string        // message recipient, kept for tracing
	Success   bool          // false for a modeled delivery failure
	Duration  time.Duration // simulated send time, >= 0
}

// SenderCounts holds the running totals of one sender.
type SenderCounts struct {
	Sent          int
	Succeeded     int
	Failed        int
	TotalDuration time.Duration // sum of send times, failed sends included; saturates
}

func (c *SenderCounts) add(r SendResult) {
	c.Sent++
	if r.Success {
		c.Succeeded++
	} else {
		c.Failed++
	}
	c.TotalDuration = addDurations(c.TotalDuration, r.Duration)
}

// MeanSendTime returns the average send time in seconds (0 if nothing sent).
func (c SenderCounts) MeanSendTime() float64 {
	if c.Sent == 0 {
		return 0
	}
	return (c.TotalDuration / time.Duration(c.Sent)).Seconds()
}

// FailureRate returns the observed fraction of failed sends (0 if nothing sent).
func (c SenderCounts) FailureRate() float64 {
	if c.Sent == 0 {
		return 0
	}
	return float64(c.Failed) / float64(c.Sent)
}

// AggregateState is the merged view of all send results.
// Invariant: Succeeded + Failed == Sent <= total messages, and the
// per-sender counts sum to the global counts.
type AggregateState struct {
	SenderCounts                // global totals
	PerSender    []SenderCounts // indexed by sender
}

func (s AggregateState) clone() AggregateState {
	out := s
	out.PerSender = make([]SenderCounts, len(s.PerSender))
	copy(out.PerSender, s.PerSender)
	return out
}

// ProgressSnapshot is an immutable, internally consistent copy of the
// aggregate state at one point in time.
type ProgressSnapshot struct {
	AggregateState
	TotalMessages int
	Elapsed       time.Duration // wall-clock time since the aggregator was created
}

// Pending returns how many messages have not been sent yet.
func (s ProgressSnapshot) Pending() int {
	return s.TotalMessages - s.Sent
}

// SenderReport is the final per-sender view, with observed statistics
// alongside the configured parameters they should converge to.
type SenderReport struct {
	Index        int           `json:"index"`
	Profile      SenderProfile `json:"profile"`
	Sent         int           `json:"sent"`
	Succeeded    int           `json:"succeeded"`
	Failed       int           `json:"failed"`
	FailureRate  float64       `json:"observed_failure_rate"`
	MeanSendTime float64       `json:"observed_mean_send_time"`
}

// FinalReport is emitted exactly once per run, after the pool has drained.
type FinalReport struct {
	RunID            string         `json:"run_id"`
	Seed             int64          `json:"seed"`
	Clock            ClockKind      `json:"clock"`
	TotalMessages    int            `json:"total_messages"`
	Sent             int            `json:"sent"`
	Succeeded        int            `json:"succeeded"`
	Failed           int            `json:"failed"`
	Unsent           int            `json:"unsent"`
	Abandoned        int            `json:"abandoned_in_flight"`
	Cancelled        bool           `json:"cancelled"`
	Fault            string         `json:"fault,omitempty"`
	MeanSendTime     float64        `json:"mean_send_time"`
	ElapsedSeconds   float64        `json:"elapsed_seconds"`
	SimulatedSeconds float64        `json:"simulated_seconds"`
	Senders          []SenderReport `json:"senders"`
}

// NewFinalReport freezes a final snapshot into a FinalReport.
// profiles must be the configured senders, in index order.
func NewFinalReport(snap ProgressSnapshot, profiles []SenderProfile) *FinalReport {
	r := &FinalReport{
		TotalMessages:  snap.TotalMessages,
		Sent:           snap.Sent,
		Succeeded:      snap.Succeeded,
		Failed:         snap.Failed,
		Unsent:         snap.Pending(),
		MeanSendTime:   snap.SenderCounts.MeanSendTime(),
		ElapsedSeconds: snap.Elapsed.Seconds(),
		Senders:        make([]SenderReport, len(profiles)),
	}
	for i, p := range profiles {
		var c SenderCounts
		if i < len(snap.PerSender) {
			c = snap.PerSender[i]
		}
		r.Senders[i] = SenderReport{
			Index:        i,
			Profile:      p,
			Sent:         c.Sent,
			Succeeded:    c.Succeeded,
			Failed:       c.Failed,
			FailureRate:  c.FailureRate(),
			MeanSendTime: c.MeanSendTime(),
		}
	}
	return r
}

// Print writes the report as a human-readable block.
func (r *FinalReport) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Run ID               : %s\n", r.RunID)
	fmt.Fprintf(w, "Total Messages       : %d\n", r.TotalMessages)
	fmt.Fprintf(w, "Sent                 : %d\n", r.Sent)
	fmt.Fprintf(w, "Succeeded            : %d\n", r.Succeeded)
	fmt.Fprintf(w, "Failed               : %d\n", r.Failed)
	if r.Cancelled {
		fmt.Fprintf(w, "Unsent (cancelled)   : %d (%d dropped in flight)\n", r.Unsent, r.Abandoned)
	}
	if r.Fault != "" {
		fmt.Fprintf(w, "Aborted              : %s\n", r.Fault)
	}
	fmt.Fprintf(w, "Avg sec/message      : %.6f\n", r.MeanSendTime)
	fmt.Fprintf(w, "Elapsed              : %.3fs (simulated %.3fs, %s clock)\n",
		r.ElapsedSeconds, r.SimulatedSeconds, r.Clock)
	for _, s := range r.Senders {
		fmt.Fprintf(w, "Sender %-3d           : sent=%d failed=%d failure_rate=%.4f (configured %.4f) mean=%.6fs (configured %.6fs)\n",
			s.Index, s.Sent, s.Failed, s.FailureRate, s.Profile.FailureRate, s.MeanSendTime, s.Profile.MeanSendTime)
	}
}

// WriteJSON writes the report as indented JSON followed by a newline.
func (r *FinalReport) WriteJSON(w io.Writer) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding final report: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
