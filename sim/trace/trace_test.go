package trace

import (
	"testing"
	"time"
)

func TestSendTrace_RecordSend_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for sends
	st := NewSendTrace(TraceLevelSends)

	// WHEN a send record is recorded
	st.RecordSend(SendRecord{Index: 3, Sender: 1, Recipient: "5551234567", Success: true, Duration: 10 * time.Millisecond})

	// THEN the trace contains one record with correct data
	if len(st.Sends) != 1 {
		t.Fatalf("expected 1 send, got %d", len(st.Sends))
	}
	if st.Sends[0].Index != 3 || st.Sends[0].Sender != 1 {
		t.Errorf("unexpected record %+v", st.Sends[0])
	}
}

func TestSendTrace_LevelNone_DropsRecords(t *testing.T) {
	st := NewSendTrace(TraceLevelNone)
	st.RecordSend(SendRecord{Index: 0})
	if len(st.Sends) != 0 {
		t.Errorf("expected 0 sends at level none, got %d", len(st.Sends))
	}
}

func TestSendTrace_NilIsDisabled(t *testing.T) {
	var st *SendTrace
	if st.Enabled() {
		t.Error("nil trace reports enabled")
	}
	st.RecordSend(SendRecord{Index: 0}) // must not panic
}

func TestSendTrace_MultipleRecords_PreservesOrder(t *testing.T) {
	st := NewSendTrace(TraceLevelSends)
	st.RecordSend(SendRecord{Index: 2})
	st.RecordSend(SendRecord{Index: 0})
	st.RecordSend(SendRecord{Index: 1})

	want := []int{2, 0, 1}
	for i, r := range st.Sends {
		if r.Index != want[i] {
			t.Fatalf("record %d index = %d, want %d", i, r.Index, want[i])
		}
	}
}

func TestIsValidTraceLevel_ValidLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"none", true},
		{"sends", true},
		{"", true},
		{"decisions", false},
		{"all", false},
	}
	for _, tt := range tests {
		if got := IsValidTraceLevel(tt.level); got != tt.valid {
			t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tt.level, got, tt.valid)
		}
	}
}
