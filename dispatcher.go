package desim

// dispatcher.go implements Component C, the Event Dispatcher: a
// single step() operation that pops the next event, advances the
// clock, and branches on its kind. The switch is over the closed
// EventKind sum type (event.go), giving a single jump table per §9's
// "tagged variant, not boxed trait objects" design note, grounded on
// the teacher's uniform EventHandlerFunction call shape generalized
// into this dispatch.

import "fmt"

// TerminationReason explains why a run stopped.
type TerminationReason int

const (
	QueueDrained TerminationReason = iota
	Bounded
	Requested
	Failed
)

func (r TerminationReason) String() string {
	switch r {
	case QueueDrained:
		return "QueueDrained"
	case Bounded:
		return "Bounded"
	case Requested:
		return "Requested"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// StepOutcome is the result of one dispatcher step.
type StepOutcome struct {
	Advanced    bool
	Time        Time
	Terminated  bool
	Reason      TerminationReason
}

// step pops and dispatches one event. It never returns an error for
// ordinary runtime conditions (those become ErrorRecords); it returns
// an error only for an InvariantViolation, which is always fatal.
func (k *Kernel) step() (StepOutcome, error) {
	ev, ok := k.queue.PopMin()
	if !ok {
		return StepOutcome{Terminated: true, Reason: QueueDrained}, nil
	}

	if ev.ScheduledTime.Before(k.now) {
		return StepOutcome{}, fmt.Errorf("%w: event time %s precedes current time %s", ErrInvariant, ev.ScheduledTime, k.now)
	}
	k.now = ev.ScheduledTime
	k.eventsDispatched++

	if k.trace != nil {
		k.trace.Record(TraceRecord{Kind: TraceDispatch, Time: k.now, EventKind: ev.Kind})
	}

	switch ev.Kind {
	case MessageArrival:
		p := ev.payload.(messageArrivalPayload)
		m, ok := k.tree.Lookup(p.target.Module)
		if !ok {
			// target torn down between send and arrival: not an error,
			// the message is simply discarded (its channel already
			// accounted for it as delivered).
			break
		}
		p.msg.DstModule = m.ID
		if err := k.invokeHandler(m, p.msg); err != nil {
			return StepOutcome{}, err
		}
	case SelfMessage:
		p := ev.payload.(selfMessagePayload)
		m, ok := k.tree.Lookup(p.target)
		if !ok {
			break
		}
		p.msg.DstModule = m.ID
		if err := k.invokeHandler(m, p.msg); err != nil {
			return StepOutcome{}, err
		}
	case Wakeup:
		p := ev.payload.(wakeupPayload)
		if k.taskPoll != nil {
			k.ctx.enter(0)
			k.taskPoll(k.ctx, p.taskID)
			if err := k.ctx.exit(); err != nil {
				return StepOutcome{}, err
			}
		}
	case ShutdownRequest:
		p := ev.payload.(shutdownPayload)
		k.teardown(p.target)
	case SimulationEnd:
		return StepOutcome{Advanced: true, Time: k.now, Terminated: true, Reason: Requested}, nil
	}

	if bounded, reason := k.checkBounds(); bounded {
		return StepOutcome{Advanced: true, Time: k.now, Terminated: true, Reason: reason}, nil
	}
	return StepOutcome{Advanced: true, Time: k.now}, nil
}

func (k *Kernel) checkBounds() (bool, TerminationReason) {
	if k.config.MaxEvents != nil && k.eventsDispatched >= *k.config.MaxEvents {
		return true, Bounded
	}
	if k.config.MaxSimTimeSeconds != nil && k.now.Seconds() >= *k.config.MaxSimTimeSeconds {
		return true, Bounded
	}
	return false, QueueDrained
}

// teardown tears the subtree rooted at target down (§4.C, §4.D,
// §5 "Cancellation"): cancels every queued event whose target lies in
// the subtree, runs at_sim_end on each removed module in post-order,
// then drops them from the arena.
func (k *Kernel) teardown(target ModuleID) {
	root, ok := k.tree.Lookup(target)
	if !ok {
		return
	}
	rootPath := root.Path
	k.tornDownPaths[target] = rootPath

	k.queue.Cancel(func(ev *Event) bool {
		var tgt ModuleID
		switch ev.Kind {
		case MessageArrival:
			tgt = ev.payload.(messageArrivalPayload).target.Module
		case SelfMessage:
			tgt = ev.payload.(selfMessagePayload).target
		case ShutdownRequest:
			tgt = ev.payload.(shutdownPayload).target
		default:
			return false
		}
		return k.tree.InSubtree(target, tgt, rootPath)
	})

	// Run at_sim_end in post-order while the tree is still intact, so
	// Context accessors (Parent/Child) still resolve; only then tear
	// the arena down.
	for _, m := range k.tree.PostOrder(target) {
		func() {
			defer func() {
				if r := recover(); r != nil {
					k.recordError(ErrorRecord{Kind: ErrHandlerPanic, ModuleID: m.ID, Time: k.now,
						Detail: fmt.Sprintf("module %s panicked in at_sim_end during teardown: %v", m.Path, r)})
				}
			}()
			if m.poisoned && k.config.FailurePolicy == AbortOnFirst {
				return
			}
			k.ctx.enter(m.ID)
			m.Handler.AtSimEnd(k.ctx)
			k.ctx.exit()
		}()
	}
	k.tree.RemoveSubtree(target)
}
