package desim

// context.go implements Component G, the Module Context: ambient
// per-module state that handler/hook code reads and mutates through
// accessors. §9's design note reacts directly against the teacher's
// process-wide globals (mrnes.go's devTraceMgr, net.go's TopoDevByID)
// by modeling the "current module" slot as an explicit scoped handle
// instead: it lives on the Kernel, not a package variable, and
// enter/exit is a guaranteed-restoring pair rather than ambient
// mutable global state.
//
// Go has no portable thread-local storage, and doesn't need one here:
// each Kernel drives exactly one goroutine (§5, "one event in flight
// at a time"), so a Kernel-owned field is behaviorally identical to a
// thread-local slot for this spec's purposes — see DESIGN.md's Open
// Question record for Component G.

import (
	"fmt"
)

// Context is the ambient current-module state, valid only during a
// Handler Invocation. Accessor calls outside that window are a
// programming error; every accessor checks for it and panics with an
// InvariantViolation instead of reading stale state.
type Context struct {
	k       *Kernel
	current ModuleID
	active  bool

	outbox    []outboxEntry
	loopback  []loopbackEntry
}

type outboxEntry struct {
	msg  *Message
	gate GateID
}

type loopbackEntry struct {
	msg *Message
	at  Time
}

func newContext(k *Kernel) *Context {
	return &Context{k: k}
}

// enter installs module as the current module. Must be paired with
// exit; the caller (Handler Invocation) is responsible for calling
// exit on every path, including panic recovery.
func (c *Context) enter(module ModuleID) {
	c.current = module
	c.active = true
}

// exit clears the current module and asserts both buffers are empty,
// per the "Module Context is empty iff no handler is executing"
// invariant.
func (c *Context) exit() error {
	c.active = false
	if len(c.outbox) != 0 || len(c.loopback) != 0 {
		return fmt.Errorf("%w: context exit with non-empty buffers (outbox=%d loopback=%d)",
			ErrInvariant, len(c.outbox), len(c.loopback))
	}
	return nil
}

func (c *Context) assertActive(accessor string) {
	if !c.active {
		panic(fmt.Errorf("%w: %s called outside a handler invocation", ErrInvariant, accessor))
	}
}

// CurrentID returns the id of the module currently being invoked.
func (c *Context) CurrentID() ModuleID {
	c.assertActive("CurrentID")
	return c.current
}

// CurrentPath returns the dotted path of the module currently being
// invoked.
func (c *Context) CurrentPath() string {
	c.assertActive("CurrentPath")
	m, _ := c.k.tree.Lookup(c.current)
	return m.Path
}

// Gate resolves a named gate on the current module, as a GateID
// handlers can pass to Send.
func (c *Context) Gate(name string, index int) GateID {
	c.assertActive("Gate")
	return GateID{Module: c.current, Name: name, Index: index}
}

// Parent returns the id of the current module's parent and whether it
// has one.
func (c *Context) Parent() (ModuleID, bool) {
	c.assertActive("Parent")
	m, _ := c.k.tree.Lookup(c.current)
	return m.ParentID, m.hasParent
}

// Child returns the id of the current module's nth child, declaration
// order.
func (c *Context) Child(n int) (ModuleID, bool) {
	c.assertActive("Child")
	m, _ := c.k.tree.Lookup(c.current)
	if n < 0 || n >= len(m.ChildIDs) {
		return 0, false
	}
	return m.ChildIDs[n], true
}

// Send appends msg to the outgoing buffer, to be routed through the
// named gate on post-handler flush. Ownership of msg passes to the
// context.
func (c *Context) Send(msg *Message, gate GateID) {
	c.assertActive("Send")
	c.outbox = append(c.outbox, outboxEntry{msg: msg, gate: gate})
}

// ScheduleIn appends msg to the loopback buffer, to become a
// SelfMessage event at now+delta on post-handler flush. delta must be
// non-negative.
func (c *Context) ScheduleIn(msg *Message, delta float64) error {
	c.assertActive("ScheduleIn")
	if delta < 0 {
		return fmt.Errorf("%w: ScheduleIn given negative delta %v", ErrSchedule, delta)
	}
	at, err := c.k.now.Add(delta)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchedule, err)
	}
	c.loopback = append(c.loopback, loopbackEntry{msg: msg, at: at})
	return nil
}

// ScheduleAt appends msg to the loopback buffer for delivery at an
// absolute time, which must not precede the current time.
func (c *Context) ScheduleAt(msg *Message, when Time) error {
	c.assertActive("ScheduleAt")
	if when.Before(c.k.now) {
		return fmt.Errorf("%w: ScheduleAt given time %s before now %s", ErrSchedule, when, c.k.now)
	}
	c.loopback = append(c.loopback, loopbackEntry{msg: msg, at: when})
	return nil
}

// Shutdown enqueues a ShutdownRequest for the current module's
// subtree at now+delta.
func (c *Context) Shutdown(delta float64) error {
	c.assertActive("Shutdown")
	if delta < 0 {
		return fmt.Errorf("%w: Shutdown given negative delta %v", ErrSchedule, delta)
	}
	at, err := c.k.now.Add(delta)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchedule, err)
	}
	c.k.queue.Push(newShutdownEvent(at, 0, c.current))
	return nil
}

// Now returns the kernel's current simulated time.
func (c *Context) Now() Time {
	c.assertActive("Now")
	return c.k.now
}
