package desim

// message.go defines the user-visible Message record (§3). Messages
// are owned by exactly one event at a time; delivery transfers
// ownership from the outgoing-buffer event to a MessageArrival event
// and, at dispatch, to the target module's handler.

// MessageKind is a small, user-extensible tag distinguishing message
// purposes; the kernel never branches on it.
type MessageKind int

// Message is a record carrying routing/provenance metadata plus an
// opaque content payload.
type Message struct {
	SrcModule ModuleID
	DstModule ModuleID // resolved only once delivery reaches a module; zero until then
	CreatedAt Time
	Seq       uint64
	Kind      MessageKind
	ID        uint64

	Content any
}

// Clone returns a shallow copy of m; the kernel clones a Message when
// handing it to more than one hook/handler would otherwise violate
// single-ownership (it never does today, but hook authors that stash
// a Message across calls should clone defensively).
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	cp := *m
	return &cp
}
