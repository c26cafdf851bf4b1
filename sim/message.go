package sim

import (
	"math/rand"
	"sync/atomic"
)

const (
	recipientDigits = 10
	bodyMinLen      = 5
	bodyMaxLen      = 100
	digits          = "0123456789"
	bodyCharset     = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 "
)

// Message is one unit of work. Only Index takes part in accounting;
// Recipient and Body exist so trace output reads like real traffic.
type Message struct {
	Index     int
	Recipient string // 10-digit phone number
	Body      string // 5..100 characters
}

// NewRandomMessage builds the message for index using the caller's RNG.
func NewRandomMessage(index int, rng *rand.Rand) Message {
	return Message{
		Index:     index,
		Recipient: randomString(rng, digits, recipientDigits),
		Body:      randomString(rng, bodyCharset, bodyMinLen+rng.Intn(bodyMaxLen-bodyMinLen+1)),
	}
}

func randomString(rng *rand.Rand, charset string, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = charset[rng.Intn(len(charset))]
	}
	return string(b)
}

// MessageSource hands out message indices 0..total-1, each exactly once,
// to any number of concurrent callers.
type MessageSource struct {
	next  atomic.Int64
	total int64
}

// NewMessageSource creates a source bounded by total.
func NewMessageSource(total int) *MessageSource {
	return &MessageSource{total: int64(total)}
}

// Claim returns the next unclaimed index, or false once the source is exhausted.
func (s *MessageSource) Claim() (int, bool) {
	if s.next.Load() >= s.total {
		return 0, false
	}
	idx := s.next.Add(1) - 1
	if idx >= s.total {
		return 0, false
	}
	return int(idx), true
}

// Claimed returns how many indices have been handed out.
func (s *MessageSource) Claimed() int {
	return int(min(s.next.Load(), s.total))
}

// Total returns the bound the source was created with.
func (s *MessageSource) Total() int {
	return int(s.total)
}
