package trace

// TraceLevel controls the verbosity of send tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelSends captures every merged send result.
	TraceLevelSends TraceLevel = "sends"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:  true,
	TraceLevelSends: true,
	"":              true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// SendTrace collects send records during a simulation.
// Not safe for concurrent use; the aggregator records under its own lock.
type SendTrace struct {
	Level TraceLevel
	Sends []SendRecord
}

// NewSendTrace creates a SendTrace ready for recording.
func NewSendTrace(level TraceLevel) *SendTrace {
	return &SendTrace{
		Level: level,
		Sends: make([]SendRecord, 0),
	}
}

// Enabled reports whether records are kept.
func (st *SendTrace) Enabled() bool {
	return st != nil && st.Level == TraceLevelSends
}

// RecordSend appends a send record. No-op when tracing is disabled.
func (st *SendTrace) RecordSend(record SendRecord) {
	if !st.Enabled() {
		return
	}
	st.Sends = append(st.Sends, record)
}
