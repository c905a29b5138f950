//go:build !fixed128

package desim

// time_float64.go implements the default Simulated Time backend, a
// double-precision seconds count. See time_fixed128.go for the
// fixed-point alternative; both files define the identical Time API
// and are selected by the "fixed128" build tag.

import (
	"encoding/json"
	"fmt"
	"math"
)

// Time is simulated time, seconds since the start of a run. Zero value
// is t=0. Never negative; arithmetic that would produce a negative or
// NaN value returns an error instead.
type Time struct {
	secs float64
}

// ZeroTime is t=0.
var ZeroTime = Time{}

// CompiledTimeBackend reports which Simulated Time backend this
// binary was built with; Run validates a Config's TimeBackend field
// against it.
const CompiledTimeBackend = Float64

// SecondsToTime builds a Time from a (possibly fractional) seconds count.
// Panics if given a negative or NaN value: callers at the kernel boundary
// are expected to validate user input before reaching here.
func SecondsToTime(seconds float64) Time {
	if math.IsNaN(seconds) || seconds < 0 {
		panic(fmt.Errorf("desim: SecondsToTime given invalid value %v", seconds))
	}
	return Time{secs: seconds}
}

// Seconds returns the time as a floating seconds count.
func (t Time) Seconds() float64 { return t.secs }

// Add returns t advanced by a non-negative duration in seconds.
func (t Time) Add(deltaSeconds float64) (Time, error) {
	if math.IsNaN(deltaSeconds) || deltaSeconds < 0 {
		return Time{}, fmt.Errorf("desim: Add given invalid delta %v", deltaSeconds)
	}
	return Time{secs: t.secs + deltaSeconds}, nil
}

// MustAdd is Add, panicking on error; for call sites that have already
// validated the delta (e.g. constants).
func (t Time) MustAdd(deltaSeconds float64) Time {
	nt, err := t.Add(deltaSeconds)
	if err != nil {
		panic(err)
	}
	return nt
}

// Sub returns the non-negative duration t-u, or an error if that would
// be negative.
func (t Time) Sub(u Time) (float64, error) {
	d := t.secs - u.secs
	if d < 0 {
		return 0, fmt.Errorf("desim: Sub(%s, %s) would be negative", t, u)
	}
	return d, nil
}

// Before reports whether t precedes u.
func (t Time) Before(u Time) bool { return t.secs < u.secs }

// After reports whether t follows u.
func (t Time) After(u Time) bool { return t.secs > u.secs }

// Equal reports whether t and u represent the same instant.
func (t Time) Equal(u Time) bool { return t.secs == u.secs }

// Compare returns -1, 0, or 1 as t is before, equal to, or after u.
func (t Time) Compare(u Time) int {
	switch {
	case t.secs < u.secs:
		return -1
	case t.secs > u.secs:
		return 1
	default:
		return 0
	}
}

// MarshalJSON encodes t as its seconds count: Time's only field is
// unexported, so without this it would serialize as "{}".
func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.secs)
}

// UnmarshalJSON decodes a seconds count back into t.
func (t *Time) UnmarshalJSON(b []byte) error {
	var secs float64
	if err := json.Unmarshal(b, &secs); err != nil {
		return err
	}
	*t = SecondsToTime(secs)
	return nil
}

// MarshalYAML encodes t as its seconds count, matching MarshalJSON.
func (t Time) MarshalYAML() (interface{}, error) {
	return t.secs, nil
}

// UnmarshalYAML decodes a seconds count back into t.
func (t *Time) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var secs float64
	if err := unmarshal(&secs); err != nil {
		return err
	}
	*t = SecondsToTime(secs)
	return nil
}

// String renders t as "Dd Hh Mm Ss.fffffffff".
func (t Time) String() string {
	total := t.secs
	days := math.Floor(total / 86400)
	total -= days * 86400
	hours := math.Floor(total / 3600)
	total -= hours * 3600
	mins := math.Floor(total / 60)
	total -= mins * 60
	return fmt.Sprintf("%dd %dh %dm %.9fs", int64(days), int64(hours), int64(mins), total)
}
