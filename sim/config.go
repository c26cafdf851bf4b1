package sim

import (
	"fmt"
	"math"
	"runtime"
	"strings"
	"time"
)

// Defaults used when no config file or flag overrides a value.
const (
	DefaultTotalMessages   = 1000
	DefaultRefreshInterval = 0.5 // seconds
	DefaultSenderCount     = 4
	DefaultFailureRate     = 0.1
	DefaultMeanSendTime    = 0.1   // seconds
	DefaultSdevSendTime    = 0.025 // seconds
)

// SenderProfile configures one simulated sender. All times are in seconds.
type SenderProfile struct {
	FailureRate  float64 `yaml:"failure_rate" toml:"failure_rate" json:"failure_rate"`       // probability in [0, 1]
	MeanSendTime float64 `yaml:"mean_send_time" toml:"mean_send_time" json:"mean_send_time"` // >= 0
	SdevSendTime float64 `yaml:"sdev_send_time" toml:"sdev_send_time" json:"sdev_send_time"` // >= 0
}

// DefaultSenderProfile returns the profile used for senders that are not configured explicitly.
func DefaultSenderProfile() SenderProfile {
	return SenderProfile{
		FailureRate:  DefaultFailureRate,
		MeanSendTime: DefaultMeanSendTime,
		SdevSendTime: DefaultSdevSendTime,
	}
}

// Validate returns one error per violated constraint, or nil.
func (p SenderProfile) Validate() []error {
	var errs []error
	if math.IsNaN(p.FailureRate) || p.FailureRate < 0 || p.FailureRate > 1 {
		errs = append(errs, fmt.Errorf("failure_rate should be between 0 and 1, got %v", p.FailureRate))
	}
	if err := validateNonNegative("mean_send_time", p.MeanSendTime); err != nil {
		errs = append(errs, err)
	}
	if err := validateNonNegative("sdev_send_time", p.SdevSendTime); err != nil {
		errs = append(errs, err)
	}
	return errs
}

func (p SenderProfile) String() string {
	return fmt.Sprintf("failure_rate=%g mean_send_time=%gs sdev_send_time=%gs",
		p.FailureRate, p.MeanSendTime, p.SdevSendTime)
}

// SimulationConfig is the validated input of a simulation run. It is never
// mutated once the simulation starts.
type SimulationConfig struct {
	TotalMessages   int             // messages to send (>= 0)
	RefreshInterval float64         // progress sampling cadence in seconds (> 0)
	Senders         []SenderProfile // one worker per entry, 1..Parallelism entries
	Parallelism     int             // max senders; 0 = runtime.NumCPU()
	MaxRate         float64         // global dispatch cap in messages/s; 0 = unlimited
}

// DefaultSimulationConfig returns the built-in configuration.
func DefaultSimulationConfig() SimulationConfig {
	senders := make([]SenderProfile, DefaultSenderCount)
	for i := range senders {
		senders[i] = DefaultSenderProfile()
	}
	return SimulationConfig{
		TotalMessages:   DefaultTotalMessages,
		RefreshInterval: DefaultRefreshInterval,
		Senders:         senders,
	}
}

// MaxSenders returns the sender limit for this configuration.
func (c SimulationConfig) MaxSenders() int {
	if c.Parallelism > 0 {
		return c.Parallelism
	}
	return runtime.NumCPU()
}

// Refresh returns RefreshInterval as a time.Duration, never shorter than
// one nanosecond and saturating at the longest representable Duration.
func (c SimulationConfig) Refresh() time.Duration {
	return max(secondsToDuration(c.RefreshInterval), time.Nanosecond)
}

// Validate checks every field and returns a *ConfigError listing all
// violated constraints, or nil.
func (c SimulationConfig) Validate() error {
	var errs []error
	if len(c.Senders) == 0 {
		errs = append(errs, fmt.Errorf("at least one sender is required"))
	}
	if limit := c.MaxSenders(); len(c.Senders) > limit {
		errs = append(errs, fmt.Errorf("max senders for this platform = %d, got %d", limit, len(c.Senders)))
	}
	for i, s := range c.Senders {
		for _, err := range s.Validate() {
			errs = append(errs, fmt.Errorf("sender[%d]: %w", i, err))
		}
	}
	if c.TotalMessages < 0 {
		errs = append(errs, fmt.Errorf("messages should be non-negative, got %d", c.TotalMessages))
	}
	if math.IsNaN(c.RefreshInterval) || math.IsInf(c.RefreshInterval, 0) || c.RefreshInterval <= 0 {
		errs = append(errs, fmt.Errorf("refresh should be positive, got %v", c.RefreshInterval))
	}
	if c.Parallelism < 0 {
		errs = append(errs, fmt.Errorf("parallelism should be non-negative, got %d", c.Parallelism))
	}
	if err := validateNonNegative("max_rate", c.MaxRate); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &ConfigError{Errs: errs}
	}
	return nil
}

// ConfigError reports every constraint a SimulationConfig violates.
// A simulation with a ConfigError never starts.
type ConfigError struct {
	Errs []error
}

func (e *ConfigError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

func (e *ConfigError) Unwrap() []error {
	return e.Errs
}

func validateNonNegative(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f", name, val)
	}
	if val < 0 {
		return fmt.Errorf("%s should be non-negative, got %v", name, val)
	}
	return nil
}

// secondsToDuration converts seconds to a Duration, saturating at
// math.MaxInt64 nanoseconds. Non-positive and NaN inputs give 0.
func secondsToDuration(s float64) time.Duration {
	ns := s * float64(time.Second)
	switch {
	case ns >= math.MaxInt64:
		return time.Duration(math.MaxInt64)
	case !(ns > 0):
		return 0
	}
	return time.Duration(ns)
}

// addDurations returns a+b for non-negative b, saturating at math.MaxInt64.
func addDurations(a, b time.Duration) time.Duration {
	if b > 0 && a > math.MaxInt64-b {
		return time.Duration(math.MaxInt64)
	}
	return a + b
}
