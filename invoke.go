package desim

// invoke.go implements Component I, Handler Invocation, exactly as
// §4.I's six-step procedure. Panic recovery marks the module poisoned
// and safely exits the context, echoing the teacher's defensive
// panic(fmt.Errorf(...)) register for "this should never happen" kernel
// bugs (net.go, desc-topo.go) while treating *user* code panics as a
// recoverable, policy-governed condition rather than a kernel bug.

import (
	"fmt"
)

// invokeHandler runs the full Handler Invocation procedure for msg
// destined for module m. It never panics outward: a recovered user
// panic becomes a HandlerPanic ErrorRecord and the module is marked
// poisoned.
func (k *Kernel) invokeHandler(m *Module, msg *Message) error {
	if len(k.ctx.outbox) != 0 || len(k.ctx.loopback) != 0 {
		return fmt.Errorf("%w: handler invocation entered with non-empty buffers", ErrInvariant)
	}
	if m.poisoned {
		return nil // skipped per §7: poisoned modules are retained but not dispatched
	}

	k.ctx.enter(m.ID)

	k.runHooksAndHandler(m, msg)

	if err := k.flush(m); err != nil {
		k.ctx.exit()
		return err
	}
	if err := k.ctx.exit(); err != nil {
		return err
	}
	return nil
}

// runHooksAndHandler drains the hook chain then the user handler,
// recovering any panic into a poisoned-module HandlerPanic record.
// Returns false if a panic was recovered (buffers are still flushed
// regardless, since a handler may have enqueued sends before
// panicking).
func (k *Kernel) runHooksAndHandler(m *Module, msg *Message) (survived bool) {
	defer func() {
		if r := recover(); r != nil {
			m.poisoned = true
			k.recordError(ErrorRecord{
				Kind: ErrHandlerPanic, ModuleID: m.ID, Time: k.now,
				Detail: fmt.Sprintf("module %s panicked: %v", m.Path, r),
			})
			survived = false
		}
	}()

	surviving, runHandler := m.hooks.run(k.ctx, msg)
	if runHandler && surviving != nil {
		m.Handler.HandleMessage(k.ctx, surviving)
	}
	survived = true
	return survived
}

// flush drains the outbox through the Gate Graph and the loopback
// buffer into the Calendar Queue, in insertion order, then clears
// both buffers (§4.G post-handler flush, §8 property 4).
func (k *Kernel) flush(m *Module) error {
	for _, entry := range k.ctx.outbox {
		result, err := k.gates.Route(entry.gate, entry.msg, k.now)
		if err != nil {
			k.recordError(ErrorRecord{Kind: ErrRoute, ModuleID: m.ID, Time: k.now, Detail: err.Error()})
			continue
		}
		if result.Dropped {
			var chID string
			if result.Channel != nil {
				chID = result.Channel.ID
			}
			k.recordError(ErrorRecord{Kind: ErrChannelDrop, ModuleID: m.ID, Time: k.now,
				Detail: fmt.Sprintf("channel %s dropped a message from gate %s", chID, entry.gate)})
			if k.trace != nil {
				k.trace.Record(TraceRecord{Kind: TraceDrop, Time: k.now, ChannelID: chID, Reason: "queue overflow"})
			}
			continue
		}
		target := k.terminusModule(result.Terminus)
		if target == 0 {
			k.recordError(ErrorRecord{Kind: ErrRoute, ModuleID: m.ID, Time: k.now,
				Detail: fmt.Sprintf("terminus gate %s has no owning module", result.Terminus)})
			continue
		}
		if k.trace != nil {
			src := entry.gate
			dst := result.Terminus
			k.trace.Record(TraceRecord{Kind: TraceSend, Time: k.now, SrcGate: &src, DstGate: &dst})
		}
		k.scheduleMessageArrival(result.Arrival, entry.msg, result.Terminus)
	}
	for _, entry := range k.ctx.loopback {
		k.queue.Push(newSelfMessageEvent(entry.at, 0, entry.msg, m.ID))
	}
	k.ctx.outbox = nil
	k.ctx.loopback = nil
	return nil
}

func (k *Kernel) terminusModule(g GateID) ModuleID {
	return g.Module
}
