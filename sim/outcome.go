package sim

import (
	"math"
	"math/rand"
	"time"
)

// Outcome is the simulated result of sending one message.
type Outcome struct {
	Duration time.Duration // always >= 0
	Success  bool
}

// SendTimeBounds returns the interval a profile's send time is clamped to:
// three standard deviations either side of the mean, never below zero.
func SendTimeBounds(p SenderProfile) (lo, hi float64) {
	lo = math.Max(p.MeanSendTime-3*p.SdevSendTime, 0)
	hi = p.MeanSendTime + 3*p.SdevSendTime
	return lo, hi
}

// SampleSendTime draws a send time in seconds from a normal distribution
// with the profile's mean and standard deviation, clamped to SendTimeBounds.
func SampleSendTime(p SenderProfile, rng *rand.Rand) float64 {
	if p.SdevSendTime == 0 {
		return math.Max(p.MeanSendTime, 0)
	}
	lo, hi := SendTimeBounds(p)
	val := rng.NormFloat64()*p.SdevSendTime + p.MeanSendTime
	return math.Min(hi, math.Max(lo, val))
}

// SampleSuccess performs a Bernoulli trial with success probability
// 1 - FailureRate. FailureRate 0 always succeeds and 1 always fails.
func SampleSuccess(p SenderProfile, rng *rand.Rand) bool {
	return rng.Float64() >= p.FailureRate
}

// Simulate produces the outcome of one message for the given profile.
// It is a pure function of (profile, rng state): the only side effect is
// consuming entropy from rng. The send time is drawn before the success trial.
func Simulate(p SenderProfile, rng *rand.Rand) Outcome {
	seconds := SampleSendTime(p, rng)
	return Outcome{
		Duration: secondsToDuration(seconds),
		Success:  SampleSuccess(p, rng),
	}
}
