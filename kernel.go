package desim

// kernel.go assembles Components A-C, G into one Kernel value: the
// Calendar Queue, the current simulated time, the Module Context, and
// the module/gate state the dispatcher operates on. One Kernel drives
// exactly one goroutine (§5); independent runs (RunMany, run.go)
// simply construct independent Kernels.

import (
	"fmt"
)

// TaskPoll is the external task-runtime poll callback invoked for
// Wakeup events (§4.C, §9 "Deferred async integration"). The core
// never constructs a Wakeup itself; a task-runtime shim does, via
// ScheduleWakeup.
type TaskPoll func(ctx *Context, taskID uint64)

// Kernel owns every mutable piece of one simulation run.
type Kernel struct {
	tree   *Tree
	gates  *GateGraph
	queue  *CalendarQueue
	ctx    *Context
	now    Time
	config Config
	trace  Sink

	taskPoll TaskPoll

	eventsDispatched uint64
	errorsSeen       []ErrorRecord

	// path of each subtree root torn down by a ShutdownRequest, keyed by
	// the root's id; teardown records it and nothing reads it back.
	tornDownPaths map[ModuleID]string
}

// NewKernel constructs a Kernel ready for Build then Run.
func NewKernel(config Config) *Kernel {
	k := &Kernel{
		tree:          NewTree(),
		gates:         NewGateGraph(),
		queue:         NewCalendarQueue(),
		config:        config,
		tornDownPaths: make(map[ModuleID]string),
	}
	k.ctx = newContext(k)
	return k
}

// SetTrace installs the observability sink.
func (k *Kernel) SetTrace(s Sink) { k.trace = s }

// SetTaskPoll installs the Wakeup poll callback.
func (k *Kernel) SetTaskPoll(p TaskPoll) { k.taskPoll = p }

// Now returns the kernel's current simulated time.
func (k *Kernel) Now() Time { return k.now }

// EventsDispatched returns the count of events dispatched so far.
func (k *Kernel) EventsDispatched() uint64 { return k.eventsDispatched }

// Errors returns every ErrorRecord accumulated so far.
func (k *Kernel) Errors() []ErrorRecord { return k.errorsSeen }

func (k *Kernel) recordError(rec ErrorRecord) {
	k.errorsSeen = append(k.errorsSeen, rec)
	if k.trace != nil {
		k.trace.Record(TraceRecord{Kind: TraceError, Time: k.now, ModuleID: rec.ModuleID, Detail: rec.Detail})
	}
}

// scheduleMessageArrival pushes a MessageArrival event for a routed
// message; the post-handler flush (invoke.go) is its caller.
func (k *Kernel) scheduleMessageArrival(at Time, msg *Message, target GateID) {
	k.queue.Push(newMessageArrivalEvent(at, 0, msg, target))
}

// ScheduleWakeup is the scheduling hook an external task-runtime shim
// uses to re-enter the kernel at a future time (or "now" for an
// externally-triggered wakeup already computed by the shim), per §5
// "Suspension points" and §9 "Deferred async integration". The core
// never interprets taskID; it is opaque, round-tripped to TaskPoll.
func (k *Kernel) ScheduleWakeup(at Time, taskID uint64) error {
	if at.Before(k.now) {
		return fmt.Errorf("%w: ScheduleWakeup given time %s before now %s", ErrSchedule, at, k.now)
	}
	k.queue.Push(newWakeupEvent(at, 0, taskID))
	return nil
}
