package desim

// config.go defines the Configuration surface (§6). Grounded on the
// teacher's param.go ExpCfg pattern, flattened: mrnes's generality
// (an attribute-map keyed by reflection, because it has dozens of
// interchangeable device parameter classes) solves a problem this
// spec doesn't have — desim's configuration surface is the small,
// fixed set §6 enumerates, so a plain yaml-tagged struct is a better
// fit (see DESIGN.md "Dropped / adapted teacher modules").

// FailurePolicy decides what happens to the run when a handler
// panics.
type FailurePolicy int

const (
	// ContinueLogged marks the offending module poisoned and
	// continues the run (default).
	ContinueLogged FailurePolicy = iota
	// AbortOnFirst terminates the run with reason Failed on the first
	// HandlerPanic.
	AbortOnFirst
)

// TimeBackend records which Simulated Time backend a Config was
// authored for; Run validates this against the compiled backend.
type TimeBackend int

const (
	Float64 TimeBackend = iota
	Fixed128
)

// Config is the top-level configuration surface consumed by Run.
type Config struct {
	Seed              uint64             `yaml:"seed"`
	MaxEvents         *uint64            `yaml:"max_events,omitempty"`
	MaxSimTimeSeconds *float64           `yaml:"max_simtime,omitempty"`
	FailurePolicy     FailurePolicy      `yaml:"failure_policy"`
	JitterDistribution JitterDistribution `yaml:"jitter_distribution"`
	TimeBackend       TimeBackend        `yaml:"time_backend"`
}

// DefaultConfig matches §6's defaults (seed 0x1234_5678, no bounds,
// ContinueLogged, Uniform jitter, Float64 backend).
func DefaultConfig() Config {
	return Config{
		Seed:               0x12345678,
		FailurePolicy:      ContinueLogged,
		JitterDistribution: JitterUniform,
		TimeBackend:        Float64,
	}
}
