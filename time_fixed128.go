//go:build fixed128

package desim

// time_fixed128.go is the fixed-point Simulated Time backend: picosecond
// resolution held as whole seconds plus a picosecond remainder, both
// uint64. Selected at compile time via `go build -tags fixed128`; the
// default backend is time_float64.go. Both files expose the identical
// Time API described in time_float64.go's doc comment.

import (
	"encoding/json"
	"fmt"
)

const picosPerSecond uint64 = 1_000_000_000_000

// Time is simulated time with picosecond resolution, represented as
// whole seconds plus a sub-second picosecond remainder to avoid the
// precision loss a single float64 accumulates over a long run.
type Time struct {
	secs  uint64
	picos uint64 // 0 <= picos < picosPerSecond
}

// ZeroTime is t=0.
var ZeroTime = Time{}

// CompiledTimeBackend reports which Simulated Time backend this
// binary was built with; Run validates a Config's TimeBackend field
// against it.
const CompiledTimeBackend = Fixed128

// SecondsToTime builds a Time from a (possibly fractional) seconds count.
// Panics on a negative input.
func SecondsToTime(seconds float64) Time {
	if seconds < 0 {
		panic(fmt.Errorf("desim: SecondsToTime given invalid value %v", seconds))
	}
	whole := uint64(seconds)
	frac := seconds - float64(whole)
	return Time{secs: whole, picos: uint64(frac * float64(picosPerSecond))}
}

// Seconds returns the time as a floating seconds count (lossy).
func (t Time) Seconds() float64 {
	return float64(t.secs) + float64(t.picos)/float64(picosPerSecond)
}

// Add returns t advanced by a non-negative duration in seconds.
func (t Time) Add(deltaSeconds float64) (Time, error) {
	if deltaSeconds < 0 {
		return Time{}, fmt.Errorf("desim: Add given invalid delta %v", deltaSeconds)
	}
	d := SecondsToTime(deltaSeconds)
	secs := t.secs + d.secs
	picos := t.picos + d.picos
	if picos >= picosPerSecond {
		picos -= picosPerSecond
		secs++
	}
	return Time{secs: secs, picos: picos}, nil
}

// MustAdd is Add, panicking on error.
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
	if t.Compare(u) < 0 {
		return 0, fmt.Errorf("desim: Sub(%s, %s) would be negative", t, u)
	}
	secs := t.secs - u.secs
	var picos int64 = int64(t.picos) - int64(u.picos)
	if picos < 0 {
		secs--
		picos += int64(picosPerSecond)
	}
	return float64(secs) + float64(picos)/float64(picosPerSecond), nil
}

// Before reports whether t precedes u.
func (t Time) Before(u Time) bool { return t.Compare(u) < 0 }

// After reports whether t follows u.
func (t Time) After(u Time) bool { return t.Compare(u) > 0 }

// Equal reports whether t and u represent the same instant.
func (t Time) Equal(u Time) bool { return t.secs == u.secs && t.picos == u.picos }

// Compare returns -1, 0, or 1 as t is before, equal to, or after u.
func (t Time) Compare(u Time) int {
	switch {
	case t.secs != u.secs:
		if t.secs < u.secs {
			return -1
		}
		return 1
	case t.picos != u.picos:
		if t.picos < u.picos {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// MarshalJSON encodes t as its seconds count (lossy): Time's fields
// are unexported, so without this it would serialize as "{}".
func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Seconds())
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
	return t.Seconds(), nil
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
	secs := t.secs
	days := secs / 86400
	secs -= days * 86400
	hours := secs / 3600
	secs -= hours * 3600
	mins := secs / 60
	secs -= mins * 60
	frac := float64(secs) + float64(t.picos)/float64(picosPerSecond)
	return fmt.Sprintf("%dd %dh %dm %.9fs", days, hours, mins, frac)
}
