package desim

// event.go defines the closed event-kind sum type dispatched by the
// Calendar Queue / Event Dispatcher (components B/C). A closed variant
// keeps dispatch a single type switch rather than boxed interface
// dispatch, per the "tagged variant, not boxed trait objects" design
// note.

// EventKind discriminates the payload carried by an Event.
type EventKind int

const (
	// MessageArrival carries a Message destined for a gate; payload is
	// a messageArrivalPayload.
	MessageArrival EventKind = iota
	// SelfMessage carries a Message destined directly for a module;
	// payload is a selfMessagePayload.
	SelfMessage
	// Wakeup carries an opaque task identifier for the task-runtime
	// poll callback; payload is a wakeupPayload.
	Wakeup
	// ShutdownRequest tears down a module subtree; payload is a
	// shutdownPayload.
	ShutdownRequest
	// SimulationEnd terminates the run; payload is nil.
	SimulationEnd
)

func (k EventKind) String() string {
	switch k {
	case MessageArrival:
		return "MessageArrival"
	case SelfMessage:
		return "SelfMessage"
	case Wakeup:
		return "Wakeup"
	case ShutdownRequest:
		return "ShutdownRequest"
	case SimulationEnd:
		return "SimulationEnd"
	default:
		return "Unknown"
	}
}

type messageArrivalPayload struct {
	msg    *Message
	target GateID
}

type selfMessagePayload struct {
	msg    *Message
	target ModuleID
}

type wakeupPayload struct {
	taskID uint64
}

type shutdownPayload struct {
	target ModuleID
}

// Event is an immutable scheduled unit of work. SequenceID is assigned
// at insertion into the Calendar Queue and is used solely to break
// ties between events sharing ScheduledTime.
type Event struct {
	ScheduledTime Time
	SequenceID    uint64
	Kind          EventKind

	payload any
}

// Less implements the dispatch order: (ScheduledTime asc, SequenceID asc).
func (e *Event) Less(o *Event) bool {
	if c := e.ScheduledTime.Compare(o.ScheduledTime); c != 0 {
		return c < 0
	}
	return e.SequenceID < o.SequenceID
}

func newMessageArrivalEvent(t Time, seq uint64, msg *Message, target GateID) *Event {
	return &Event{ScheduledTime: t, SequenceID: seq, Kind: MessageArrival,
		payload: messageArrivalPayload{msg: msg, target: target}}
}

func newSelfMessageEvent(t Time, seq uint64, msg *Message, target ModuleID) *Event {
	return &Event{ScheduledTime: t, SequenceID: seq, Kind: SelfMessage,
		payload: selfMessagePayload{msg: msg, target: target}}
}

func newWakeupEvent(t Time, seq uint64, taskID uint64) *Event {
	return &Event{ScheduledTime: t, SequenceID: seq, Kind: Wakeup,
		payload: wakeupPayload{taskID: taskID}}
}

func newShutdownEvent(t Time, seq uint64, target ModuleID) *Event {
	return &Event{ScheduledTime: t, SequenceID: seq, Kind: ShutdownRequest,
		payload: shutdownPayload{target: target}}
}

func newSimulationEndEvent(t Time, seq uint64) *Event {
	return &Event{ScheduledTime: t, SequenceID: seq, Kind: SimulationEnd}
}
