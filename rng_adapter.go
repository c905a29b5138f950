package desim

// rng_adapter.go wires github.com/iti/rngstream (the teacher's
// per-device named RNG stream library, net.go's Rngstrm fields) into
// gonum's stat/distuv distributions, which expect a math/rand/v2 Source.
// RngStream itself only exposes RandU01() (a uniform double), so this
// is a minimal adapter, not a reimplementation of either library.

import (
	"github.com/iti/rngstream"
	"gonum.org/v1/gonum/stat/distuv"
)

const int63Max = 1<<63 - 1

// rngStreamSource adapts an *rngstream.RngStream to math/rand/v2's
// Source interface (Uint64), and also provides math/rand's Int63/Seed
// pair, so gonum distributions can draw from the same
// named, seeded stream the rest of desim uses for jitter sampling.
type rngStreamSource struct {
	s *rngstream.RngStream
}

func newRngStreamSource(name string) *rngStreamSource {
	return &rngStreamSource{s: rngstream.New(name)}
}

// Int63 returns a pseudo-random 63-bit value derived from the
// stream's uniform double.
func (r *rngStreamSource) Int63() int64 {
	return int64(r.s.RandU01() * float64(int63Max))
}

// Seed is a no-op: rngstream's determinism is keyed by stream name at
// construction, not by a runtime Seed call. Channels get independent,
// reproducible streams by name (see Channel.rng), matching the
// teacher's one-stream-per-device convention.
func (r *rngStreamSource) Seed(int64) {}

// Float64 draws a uniform double in [0,1) directly from the
// underlying stream, bypassing the Int63 conversion.
func (r *rngStreamSource) Float64() float64 {
	return r.s.RandU01()
}

// Uint64 implements math/rand/v2's Source interface (required by
// gonum's distuv package), deriving a 64-bit value from the same
// underlying uniform double used by Int63 and Float64.
func (r *rngStreamSource) Uint64() uint64 {
	return uint64(r.s.RandU01() * (1 << 64))
}

// uniformJitter samples a uniform value in [-maxJitter, maxJitter].
func uniformJitter(s *rngStreamSource, maxJitter float64) float64 {
	if maxJitter <= 0 {
		return 0
	}
	return (2*s.Float64() - 1) * maxJitter
}

// normalJitter samples from a zero-mean Normal distribution whose
// standard deviation is maxJitter/3 (so ~99.7% of samples fall inside
// the configured jitter bound before clamping).
func normalJitter(s *rngStreamSource, maxJitter float64) float64 {
	if maxJitter <= 0 {
		return 0
	}
	n := distuv.Normal{Mu: 0, Sigma: maxJitter / 3, Src: s}
	return n.Rand()
}
