package atsha204a

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultAddress is the factory 7-bit I²C address (0xC8 on the wire).
const DefaultAddress = 0x64

// Timing values from the datasheet (Table 7-2 and §8.3).
const (
	defaultWakeLow            = 60 * time.Microsecond
	defaultWakeHigh           = 2500 * time.Microsecond
	defaultExecTime           = 5 * time.Millisecond
	defaultTransactionTimeout = 100 * time.Millisecond
	defaultTransactionRetries = 5
	defaultWakeAttempts       = 10
	defaultSleepAttempts      = 10
)

// Opts holds the device address and protocol timing.
type Opts struct {
	Address            byte
	WakeLow            time.Duration
	WakeHigh           time.Duration
	ExecTime           time.Duration
	TransactionTimeout time.Duration
	TransactionRetries int
	WakeAttempts       int
	SleepAttempts      int

	// Sleep blocks for the given duration. Tests replace it to simulate time.
	Sleep func(time.Duration)
}

// Opt changes one setting of Opts. Values that would leave an operation
// unbounded (non-positive poll interval or budget, negative delays or counts)
// are ignored and the previous value is kept.
type Opt func(*Opts)

func DefaultOpts() Opts {
	return Opts{
		Address:            DefaultAddress,
		WakeLow:            defaultWakeLow,
		WakeHigh:           defaultWakeHigh,
		ExecTime:           defaultExecTime,
		TransactionTimeout: defaultTransactionTimeout,
		TransactionRetries: defaultTransactionRetries,
		WakeAttempts:       defaultWakeAttempts,
		SleepAttempts:      defaultSleepAttempts,
		Sleep:              time.Sleep,
	}
}

func WithAddress(address byte) Opt {
	return func(o *Opts) {
		o.Address = address
	}
}

func WithWakeDelay(low, high time.Duration) Opt {
	return func(o *Opts) {
		if low >= 0 {
			o.WakeLow = low
		}
		if high >= 0 {
			o.WakeHigh = high
		}
	}
}

// WithExecTime sets the poll interval of a transaction.
func WithExecTime(d time.Duration) Opt {
	return func(o *Opts) {
		if d > 0 {
			o.ExecTime = d
		}
	}
}

func WithTransactionTimeout(d time.Duration) Opt {
	return func(o *Opts) {
		if d > 0 {
			o.TransactionTimeout = d
		}
	}
}

// WithTransactionRetries sets how many times a failed command is retried after
// a wake. Zero means a single attempt.
func WithTransactionRetries(n int) Opt {
	return func(o *Opts) {
		if n >= 0 {
			o.TransactionRetries = n
		}
	}
}

func WithWakeAttempts(n int) Opt {
	return func(o *Opts) {
		if n > 0 {
			o.WakeAttempts = n
		}
	}
}

func WithSleepAttempts(n int) Opt {
	return func(o *Opts) {
		if n > 0 {
			o.SleepAttempts = n
		}
	}
}

func WithSleeper(sleep func(time.Duration)) Opt {
	return func(o *Opts) {
		if sleep != nil {
			o.Sleep = sleep
		}
	}
}

// Profile is a YAML timing profile. Only the keys present in the document are
// set; durations are Go duration strings ("2.5ms").
type Profile struct {
	Address            *byte          `yaml:"address"`
	WakeLow            *time.Duration `yaml:"wake_low"`
	WakeHigh           *time.Duration `yaml:"wake_high"`
	ExecTime           *time.Duration `yaml:"exec_time"`
	TransactionTimeout *time.Duration `yaml:"transaction_timeout"`
	TransactionRetries *int           `yaml:"transaction_retries"`
	WakeAttempts       *int           `yaml:"wake_attempts"`
	SleepAttempts      *int           `yaml:"sleep_attempts"`
}

// LoadProfile decodes and validates a YAML timing profile.
func LoadProfile(r io.Reader) (Profile, error) {
	var p Profile
	err := yaml.NewDecoder(r).Decode(&p)
	if err != nil {
		return Profile{}, fmt.Errorf("atsha204a: could not decode profile: %w", err)
	}
	err = p.validate()
	if err != nil {
		return Profile{}, fmt.Errorf("atsha204a: invalid profile: %w", err)
	}
	return p, nil
}

func (p Profile) validate() error {
	if p.Address != nil && (*p.Address == 0 || *p.Address > 0x7F) {
		return fmt.Errorf("address %#x is not a 7-bit device address", *p.Address)
	}
	durations := []struct {
		name     string
		value    *time.Duration
		positive bool
	}{
		{"wake_low", p.WakeLow, false},
		{"wake_high", p.WakeHigh, false},
		{"exec_time", p.ExecTime, true},
		{"transaction_timeout", p.TransactionTimeout, true},
	}
	for _, d := range durations {
		if d.value == nil {
			continue
		}
		if *d.value < 0 || (d.positive && *d.value == 0) {
			return fmt.Errorf("%s must be positive, got %s", d.name, *d.value)
		}
	}
	if p.TransactionRetries != nil && *p.TransactionRetries < 0 {
		return fmt.Errorf("transaction_retries must not be negative, got %d", *p.TransactionRetries)
	}
	if p.WakeAttempts != nil && *p.WakeAttempts < 1 {
		return fmt.Errorf("wake_attempts must be at least 1, got %d", *p.WakeAttempts)
	}
	if p.SleepAttempts != nil && *p.SleepAttempts < 1 {
		return fmt.Errorf("sleep_attempts must be at least 1, got %d", *p.SleepAttempts)
	}
	return nil
}

// WithProfile applies every key set in p.
func WithProfile(p Profile) Opt {
	return func(o *Opts) {
		if p.Address != nil {
			o.Address = *p.Address
		}
		if p.WakeLow != nil || p.WakeHigh != nil {
			low, high := o.WakeLow, o.WakeHigh
			if p.WakeLow != nil {
				low = *p.WakeLow
			}
			if p.WakeHigh != nil {
				high = *p.WakeHigh
			}
			WithWakeDelay(low, high)(o)
		}
		if p.ExecTime != nil {
			WithExecTime(*p.ExecTime)(o)
		}
		if p.TransactionTimeout != nil {
			WithTransactionTimeout(*p.TransactionTimeout)(o)
		}
		if p.TransactionRetries != nil {
			WithTransactionRetries(*p.TransactionRetries)(o)
		}
		if p.WakeAttempts != nil {
			WithWakeAttempts(*p.WakeAttempts)(o)
		}
		if p.SleepAttempts != nil {
			WithSleepAttempts(*p.SleepAttempts)(o)
		}
	}
}
