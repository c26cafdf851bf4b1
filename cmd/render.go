package cmd

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	sim "github.com/sms-sim/sms-sim/sim"
	"github.com/sms-sim/sms-sim/sim/trace"
)

const (
	barWidth    = 28
	resetCursor = "\033[F"
)

// Output formats for the final report.
const (
	OutputText = "text"
	OutputJSON = "json"
)

// terminalRenderer redraws a progress frame in place on every snapshot and
// writes the final report once the run is over.
type terminalRenderer struct {
	mu       sync.Mutex
	progress io.Writer // nil in quiet mode
	report   io.Writer
	format   string
	lines    int // lines drawn by the previous frame
}

func newTerminalRenderer(progress, report io.Writer, format string) *terminalRenderer {
	return &terminalRenderer{progress: progress, report: report, format: format}
}

func (r *terminalRenderer) RenderProgress(snap sim.ProgressSnapshot) {
	if r.progress == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drawLocked(snap)
}

func (r *terminalRenderer) RenderFinal(report *sim.FinalReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.format == OutputJSON {
		if err := report.WriteJSON(r.report); err != nil {
			logrus.Errorf("Failed to write final report: %v", err)
		}
		return
	}
	report.Print(r.report)
}

func (r *terminalRenderer) drawLocked(snap sim.ProgressSnapshot) {
	frame := progressFrame(snap)
	fmt.Fprint(r.progress, strings.Repeat(resetCursor, r.lines)+frame)
	r.lines = strings.Count(frame, "\n")
}

// progressFrame formats one redraw of the progress display.
func progressFrame(snap sim.ProgressSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SMS Simulator [%s]\n", snap.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(&b, "\033[KSent            %d/%d\n", snap.Sent, snap.TotalMessages)
	fmt.Fprintf(&b, "\033[KFailed          %d\n", snap.Failed)
	fmt.Fprintf(&b, "\033[KAvg sec/message %.6f\n", snap.SenderCounts.MeanSendTime())
	fmt.Fprintf(&b, "\033[K%s\n", progressBar(snap))
	return b.String()
}

// progressBar draws delivered messages as '=', failed ones as '-' and
// pending ones as spaces, barWidth columns in total.
func progressBar(snap sim.ProgressSnapshot) string {
	if snap.TotalMessages <= 0 {
		return "|" + strings.Repeat("=", barWidth) + "|"
	}
	pending := barWidth * snap.Pending() / snap.TotalMessages
	delivered := barWidth * snap.Succeeded / snap.TotalMessages
	failed := barWidth - delivered - pending
	return "|" + strings.Repeat("=", delivered) + strings.Repeat("-", failed) + strings.Repeat(" ", pending) + "|"
}

// printSettings echoes the effective configuration before a run starts.
func printSettings(w io.Writer, s runSettings) {
	fmt.Fprintln(w, "Starting simulation with the following settings:")
	fmt.Fprintf(w, "  messages = %d\n", s.Config.TotalMessages)
	fmt.Fprintf(w, "  refresh  = %g\n", s.Config.RefreshInterval)
	fmt.Fprintf(w, "  seed     = %d\n", s.Seed)
	fmt.Fprintf(w, "  clock    = %s\n", s.Clock)
	if s.Config.MaxRate > 0 {
		fmt.Fprintf(w, "  max_rate = %g\n", s.Config.MaxRate)
	}
	for _, p := range s.Config.Senders {
		fmt.Fprintf(w, "  sender   = %s\n", p)
	}
}

// printTraceSummary writes the post-run send trace check.
func printTraceSummary(w io.Writer, sum *trace.TraceSummary, senders int) {
	fmt.Fprintln(w, "=== Send Trace Summary ===")
	fmt.Fprintf(w, "Records              : %d (%d succeeded, %d failed)\n", sum.TotalSends, sum.SucceededCount, sum.FailedCount)
	fmt.Fprintf(w, "Unique indices       : %d\n", sum.UniqueIndices)
	fmt.Fprintf(w, "Duplicate indices    : %d\n", len(sum.DuplicateIndices))
	fmt.Fprintf(w, "Missing indices      : %d\n", len(sum.MissingIndices))
	fmt.Fprintf(w, "Send time p50/p95/p99: %v / %v / %v\n", sum.SendTimeP50, sum.SendTimeP95, sum.SendTimeP99)
	for i := 0; i < senders; i++ {
		fmt.Fprintf(w, "Sender %-3d           : %d\n", i, sum.SenderDistribution[i])
	}
}
