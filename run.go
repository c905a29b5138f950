package desim

// run.go implements Component K, the Runtime Driver: build -> seed ->
// at_sim_start -> step loop -> at_sim_end -> RunReport, exactly as
// §4.K's six steps. Grounded on the teacher's BuildExperimentNet
// top-level orchestration shape (mrnes.go), generalized from a single
// global experiment into a value returned to the caller.

import "fmt"

// RunReport is the return value of Run (§6).
type RunReport struct {
	EventsDispatched uint64
	EndTime          Time
	Reason           TerminationReason
	Errors           []ErrorRecord
}

// StopCondition augments the bounds already in Config (max_events,
// max_simtime) with an arbitrary caller-supplied predicate, checked
// after every step; returning true ends the run with reason Bounded.
type StopCondition func(k *Kernel) bool

// Run builds spec into a fresh Kernel, seeds it, runs at_sim_start on
// every module in declaration order, steps the dispatcher until
// termination, runs at_sim_end on every still-live module in reverse
// declaration order, and returns a RunReport. A BuildError aborts
// before any event is produced and is returned directly, not folded
// into RunReport.Errors (§7 "BuildError is surfaced to the caller of
// run").
func Run(spec BuildSpec, registry HandlerRegistry, config Config, stop StopCondition) (RunReport, error) {
	return RunWithTrace(spec, registry, config, stop, nil)
}

// RunWithTrace is Run with an observability sink (§6) installed before
// the build phase, so Dispatch/Send/Drop/Error records from the
// entire run — including at_sim_start/at_sim_end — are captured.
func RunWithTrace(spec BuildSpec, registry HandlerRegistry, config Config, stop StopCondition, trace Sink) (RunReport, error) {
	k, err := NewBuiltKernel(spec, registry, config, trace)
	if err != nil {
		return RunReport{}, err
	}
	return RunBuilt(k, stop)
}

// NewBuiltKernel constructs a Kernel, installs trace, and Builds spec
// into it (which names each channel's RNG stream from config.Seed),
// stopping short of at_sim_start and the step loop. It is
// the seam between Build and RunBuilt that callers needing to attach
// hooks (§4.H InstallHook has no representation in a BuildSpec) or a
// TaskPoll callback use instead of the one-shot Run/RunWithTrace.
func NewBuiltKernel(spec BuildSpec, registry HandlerRegistry, config Config, trace Sink) (*Kernel, error) {
	if config.TimeBackend != CompiledTimeBackend {
		return nil, fmt.Errorf("%w: config requests time_backend %v but binary was built with %v",
			ErrBuild, config.TimeBackend, CompiledTimeBackend)
	}

	k := NewKernel(config)
	k.SetTrace(trace)
	if err := Build(k, spec, registry); err != nil {
		return nil, err
	}
	return k, nil
}

// RunBuilt runs an already-built Kernel through §4.K steps 3-6
// (at_sim_start, the step loop, at_sim_end, RunReport), picking up
// wherever NewBuiltKernel left off. Separated from RunWithTrace so
// callers can install hooks or a TaskPoll on k first.
func RunBuilt(k *Kernel, stop StopCondition) (RunReport, error) {
	declOrder := k.tree.DeclarationOrder()

	for _, id := range declOrder {
		m, ok := k.tree.Lookup(id)
		if !ok {
			continue
		}
		runAtSimStart(k, m)
	}

	reason := QueueDrained
	checked := 0 // errorsSeen entries already scanned for HandlerPanic
	for {
		if k.config.FailurePolicy == AbortOnFirst {
			for _, e := range k.errorsSeen[checked:] {
				if e.Kind == ErrHandlerPanic {
					reason = Failed
				}
			}
			checked = len(k.errorsSeen)
			if reason == Failed {
				break
			}
		}
		outcome, err := k.step()
		if err != nil {
			reason = Failed
			k.recordError(ErrorRecord{Kind: ErrInvariant, Time: k.now, Detail: err.Error()})
			break
		}
		if stop != nil && stop(k) {
			reason = Bounded
			break
		}
		if outcome.Terminated {
			reason = outcome.Reason
			break
		}
	}

	for _, id := range reverse(declOrder) {
		m, ok := k.tree.Lookup(id)
		if !ok {
			continue // already torn down via shutdown
		}
		runAtSimEnd(k, m)
	}

	return RunReport{
		EventsDispatched: k.eventsDispatched,
		EndTime:          k.now,
		Reason:           reason,
		Errors:           k.errorsSeen,
	}, nil
}

func reverse(ids []ModuleID) []ModuleID {
	out := make([]ModuleID, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = id
	}
	return out
}

func runAtSimStart(k *Kernel, m *Module) {
	defer func() {
		if r := recover(); r != nil {
			m.poisoned = true
			k.recordError(ErrorRecord{Kind: ErrHandlerPanic, ModuleID: m.ID, Time: k.now,
				Detail: fmt.Sprintf("module %s panicked in at_sim_start: %v", m.Path, r)})
		}
	}()
	k.ctx.enter(m.ID)
	m.Handler.AtSimStart(k.ctx)
	// flush anything at_sim_start enqueued before exit, same order invokeHandler
	// uses for a normal handler invocation: exit asserts both buffers empty.
	k.flush(m)
	if err := k.ctx.exit(); err != nil {
		k.recordError(ErrorRecord{Kind: ErrInvariant, ModuleID: m.ID, Time: k.now, Detail: err.Error()})
	}
}

func runAtSimEnd(k *Kernel, m *Module) {
	if m.poisoned && k.config.FailurePolicy == AbortOnFirst {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			k.recordError(ErrorRecord{Kind: ErrHandlerPanic, ModuleID: m.ID, Time: k.now,
				Detail: fmt.Sprintf("module %s panicked in at_sim_end: %v", m.Path, r)})
		}
	}()
	k.ctx.enter(m.ID)
	m.Handler.AtSimEnd(k.ctx)
	k.ctx.exit()
}

// RunMany runs each (spec, registry, config) triple as an independent
// Kernel, partitioned across a bounded goroutine pool (§5 "partitions
// independent simulations across threads — not one simulation across
// threads"). Results are returned in input order.
func RunMany(specs []BuildSpec, registries []HandlerRegistry, configs []Config, maxParallel int) []RunReport {
	n := len(specs)
	reports := make([]RunReport, n)
	errs := make([]error, n)
	if maxParallel < 1 {
		maxParallel = 1
	}

	jobs := make(chan int, n)
	done := make(chan struct{})
	for w := 0; w < maxParallel; w++ {
		go func() {
			for i := range jobs {
				reports[i], errs[i] = Run(specs[i], registries[i], configs[i], nil)
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	for w := 0; w < maxParallel; w++ {
		<-done
	}

	for i, err := range errs {
		if err != nil {
			reports[i] = RunReport{Reason: Failed, Errors: []ErrorRecord{{Kind: ErrBuild, Detail: err.Error()}}}
		}
	}
	return reports
}
