package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	sim "github.com/sms-sim/sms-sim/sim"
	"github.com/sms-sim/sms-sim/sim/trace"
)

func snapshot(total, succeeded, failed int) sim.ProgressSnapshot {
	return sim.ProgressSnapshot{
		AggregateState: sim.AggregateState{
			SenderCounts: sim.SenderCounts{
				Sent:          succeeded + failed,
				Succeeded:     succeeded,
				Failed:        failed,
				TotalDuration: time.Duration(succeeded+failed) * 100 * time.Millisecond,
			},
		},
		TotalMessages: total,
		Elapsed:       1500 * time.Millisecond,
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		name string
		snap sim.ProgressSnapshot
		want string
	}{
		{"nothing sent", snapshot(28, 0, 0), "|" + strings.Repeat(" ", 28) + "|"},
		{"half delivered quarter failed", snapshot(28, 14, 7), "|" + strings.Repeat("=", 14) + strings.Repeat("-", 7) + strings.Repeat(" ", 7) + "|"},
		{"all failed", snapshot(10, 0, 10), "|" + strings.Repeat("-", 28) + "|"},
		{"all delivered", snapshot(1000, 1000, 0), "|" + strings.Repeat("=", 28) + "|"},
		{"empty run", snapshot(0, 0, 0), "|" + strings.Repeat("=", 28) + "|"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := progressBar(tt.snap)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, barWidth+2)
		})
	}
}

func TestProgressBar_AlwaysFullWidth(t *testing.T) {
	for total := 1; total <= 50; total++ {
		for sent := 0; sent <= total; sent++ {
			for succeeded := 0; succeeded <= sent; succeeded++ {
				bar := progressBar(snapshot(total, succeeded, sent-succeeded))
				if len(bar) != barWidth+2 {
					t.Fatalf("total=%d sent=%d succeeded=%d: bar %q has width %d", total, sent, succeeded, bar, len(bar)-2)
				}
			}
		}
	}
}

func TestTerminalRenderer_RedrawsInPlace(t *testing.T) {
	var progress, report bytes.Buffer
	r := newTerminalRenderer(&progress, &report, OutputText)

	r.RenderProgress(snapshot(10, 2, 1))
	first := progress.Len()
	r.RenderProgress(snapshot(10, 5, 1))

	frame := progressFrame(snapshot(10, 2, 1))
	lines := strings.Count(frame, "\n")
	second := progress.String()[first:]
	assert.True(t, strings.HasPrefix(second, strings.Repeat(resetCursor, lines)), "second frame must move the cursor up %d lines", lines)
	assert.Contains(t, second, "Sent            6/10")
	assert.Contains(t, second, "Avg sec/message 0.100000")
	assert.Empty(t, report.String())
}

func TestTerminalRenderer_QuietDrawsNothing(t *testing.T) {
	var report bytes.Buffer
	r := newTerminalRenderer(nil, &report, OutputText)
	r.RenderProgress(snapshot(10, 1, 0))
	r.RenderFinal(&sim.FinalReport{TotalMessages: 10})
	assert.Contains(t, report.String(), "=== Simulation Metrics ===")
}

func TestTerminalRenderer_JSONFinal(t *testing.T) {
	var report bytes.Buffer
	r := newTerminalRenderer(nil, &report, OutputJSON)
	r.RenderFinal(&sim.FinalReport{RunID: "abc", Sent: 3})
	assert.Contains(t, report.String(), `"run_id": "abc"`)
	assert.Contains(t, report.String(), `"sent": 3`)
}

func TestPrintTraceSummary_ListsEverySender(t *testing.T) {
	st := trace.NewSendTrace(trace.TraceLevelSends)
	st.RecordSend(trace.SendRecord{Index: 0, Sender: 0, Success: true})
	st.RecordSend(trace.SendRecord{Index: 1, Sender: 0})
	var buf bytes.Buffer

	printTraceSummary(&buf, trace.Summarize(st, 3), 2)

	out := buf.String()
	assert.Contains(t, out, "Records              : 2 (1 succeeded, 1 failed)")
	assert.Contains(t, out, "Missing indices      : 1")
	assert.Contains(t, out, "Sender 0             : 2")
	assert.Contains(t, out, "Sender 1             : 0")
}
