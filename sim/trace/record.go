// Package trace provides per-message send tracing for post-run verification.
// It has no dependencies on sim/ and stores pure data types.
package trace

import "time"

// SendRecord captures one merged send result.
type SendRecord struct {
	Index     int           // message index claimed by the sender
	Sender    int           // sender index
	Recipient string        // 10-digit phone number of the message
	Success   bool          // false for a simulated delivery failure
	Duration  time.Duration // simulated send time
}
