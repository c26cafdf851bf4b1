package trace

import (
	"math"
	"slices"
	"time"
)

// TraceSummary aggregates statistics from a SendTrace.
type TraceSummary struct {
	TotalSends         int
	SucceededCount     int
	FailedCount        int
	UniqueIndices      int
	DuplicateIndices   []int       // indices recorded more than once, ascending
	MissingIndices     []int       // indices in [0, expected) never recorded, ascending
	SenderDistribution map[int]int // sender index → records
	SendTimeP50        time.Duration
	SendTimeP95        time.Duration
	SendTimeP99        time.Duration
}

// Bijective reports whether every index in [0, expected) was recorded exactly once.
func (s *TraceSummary) Bijective() bool {
	return len(s.DuplicateIndices) == 0 && len(s.MissingIndices) == 0
}

// Summarize computes aggregate statistics from a SendTrace, checking the
// recorded indices against [0, expected).
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SendTrace, expected int) *TraceSummary {
	summary := &TraceSummary{
		SenderDistribution: make(map[int]int),
	}
	seen := make(map[int]int)
	var durations []time.Duration
	if st != nil {
		summary.TotalSends = len(st.Sends)
		durations = make([]time.Duration, 0, len(st.Sends))
		for _, r := range st.Sends {
			durations = append(durations, r.Duration)
			if r.Success {
				summary.SucceededCount++
			} else {
				summary.FailedCount++
			}
			summary.SenderDistribution[r.Sender]++
			seen[r.Index]++
		}
	}

	slices.Sort(durations)
	summary.SendTimeP50 = percentile(durations, 50)
	summary.SendTimeP95 = percentile(durations, 95)
	summary.SendTimeP99 = percentile(durations, 99)

	summary.UniqueIndices = len(seen)
	for i := 0; i < expected; i++ {
		switch n := seen[i]; {
		case n == 0:
			summary.MissingIndices = append(summary.MissingIndices, i)
		case n > 1:
			summary.DuplicateIndices = append(summary.DuplicateIndices, i)
		}
	}
	return summary
}

// percentile interpolates linearly between the closest ranks of sorted.
// Returns 0 for an empty slice.
func percentile(sorted []time.Duration, p float64) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	rank := p / 100.0 * float64(n-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	frac := rank - float64(lower)
	return sorted[lower] + time.Duration(frac*float64(sorted[upper]-sorted[lower]))
}
