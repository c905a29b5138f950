package desim

// hook.go implements Component H, the Hook Chain: a priority-ordered
// list of message interceptors sharing the module's Context with the
// final user handler. Per §9's design note ("interface polymorphism,
// not inheritance") hooks and the handler are a uniform chain of
// interceptors implementing one capability, not a subclassing scheme
// — grounded on the teacher's small single-method interfaces (mrnes.go's
// MrnesApp: one method to name itself, one to hand back a callback).

import (
	"fmt"
	"sort"
)

// HookOutcome is the result of one interceptor's look at a message.
type HookOutcome int

const (
	// Passed means the message continues to the next hook (or the
	// handler, for the last one).
	Passed HookOutcome = iota
	// Consumed means the hook took ownership; the chain stops here
	// and the handler does not run for this message.
	Consumed
)

// Hook is a stateful interceptor registered on a specific module.
type Hook interface {
	TryHandle(ctx *Context, msg *Message) (HookOutcome, *Message)
}

// HookHandle identifies an installed hook for later removal.
type HookHandle uint64

type hookEntry struct {
	handle   HookHandle
	priority int
	seq      uint64 // insertion order, for tie-break
	hook     Hook
}

type hookChain struct {
	entries []hookEntry
	nextSeq uint64
	nextID  HookHandle
}

func newHookChain() *hookChain {
	return &hookChain{}
}

// Install adds hook to the chain at priority (lower runs first; ties
// broken by insertion order).
func (hc *hookChain) Install(hook Hook, priority int) HookHandle {
	hc.nextID++
	hc.nextSeq++
	hc.entries = append(hc.entries, hookEntry{
		handle: hc.nextID, priority: priority, seq: hc.nextSeq, hook: hook,
	})
	sort.SliceStable(hc.entries, func(i, j int) bool {
		if hc.entries[i].priority != hc.entries[j].priority {
			return hc.entries[i].priority < hc.entries[j].priority
		}
		return hc.entries[i].seq < hc.entries[j].seq
	})
	return hc.nextID
}

// Remove drops the hook identified by handle, if present.
func (hc *hookChain) Remove(handle HookHandle) {
	for i, e := range hc.entries {
		if e.handle == handle {
			hc.entries = append(hc.entries[:i], hc.entries[i+1:]...)
			return
		}
	}
}

// InstallHook registers hook on module at priority (lower runs first;
// ties broken by insertion order), per §4.H "install(hook, priority) →
// HookHandle". Hooks are Go values with their own state and so cannot
// travel through a BuildSpec; callers attach them between Build and
// RunBuilt (or at any point while the module is live).
func (k *Kernel) InstallHook(module ModuleID, hook Hook, priority int) (HookHandle, error) {
	m, ok := k.tree.Lookup(module)
	if !ok {
		return 0, fmt.Errorf("%w: module %d does not exist", ErrBuild, module)
	}
	return m.hooks.Install(hook, priority), nil
}

// RemoveHook drops a previously installed hook from module, per §4.H
// "remove(HookHandle)".
func (k *Kernel) RemoveHook(module ModuleID, handle HookHandle) error {
	m, ok := k.tree.Lookup(module)
	if !ok {
		return fmt.Errorf("%w: module %d does not exist", ErrBuild, module)
	}
	m.hooks.Remove(handle)
	return nil
}

// run drives msg through the chain in priority order. It returns the
// surviving message (nil if consumed) and whether the handler should
// still run.
func (hc *hookChain) run(ctx *Context, msg *Message) (*Message, bool) {
	cur := msg
	for _, e := range hc.entries {
		outcome, next := e.hook.TryHandle(ctx, cur)
		if outcome == Consumed {
			return nil, false
		}
		cur = next
	}
	return cur, true
}
