package desim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// workerHandler models processing time with a Service before emitting
// its "real" work downstream: every incoming message is offered to a
// 1-core Service as a task, and only once the Service reports that
// task Finished does the handler forward a message out its gate.
type workerHandler struct {
	svc       *Service
	completed int
	forwarded int
}

func (h *workerHandler) AtSimStart(ctx *Context) {
	_, _ = h.svc.Offer(ctx, &ServiceTask{OpType: "job", Required: 1.0, Priority: 1})
	_, _ = h.svc.Offer(ctx, &ServiceTask{OpType: "job", Required: 1.0, Priority: 1})
}

func (h *workerHandler) HandleMessage(ctx *Context, msg *Message) {
	ev, ok := msg.Content.(*ServiceEvent)
	if !ok {
		return
	}
	if err := h.svc.Complete(ctx, ev); err != nil {
		panic(err)
	}
	if !ev.Finished {
		return
	}
	h.completed++
	ctx.Send(&Message{Content: ev.Task.OpType}, ctx.Gate("out", 0))
	h.forwarded++
}

func (h *workerHandler) AtSimEnd(ctx *Context) {}

// TestService_SecondCoreWaitsForFirst: a 1-core Service offered two
// equal-size tasks runs them back to back rather than concurrently —
// the second only starts once Complete frees the core for it. Both
// eventually finish and the handler forwards one message per
// completion.
func TestService_SecondCoreWaitsForFirst(t *testing.T) {
	worker := &workerHandler{svc: NewService(1)}
	sink := &counterHandler{}

	spec := BuildSpec{
		Modules: []ModuleSpec{
			{Path: "worker", TypeTag: "worker", GateClusters: []GateClusterSpec{{Name: "out", Size: 1, Direction: Output}}},
			{Path: "sink", TypeTag: "sink", GateClusters: []GateClusterSpec{{Name: "in", Size: 1, Direction: Input}}},
		},
		Connections: []ConnectionSpec{
			{SrcPath: "worker", SrcGate: "out", DstPath: "sink", DstGate: "in"},
		},
	}
	registry := HandlerRegistry{
		"worker": func() Handler { return worker },
		"sink":   func() Handler { return sink },
	}

	report, err := Run(spec, registry, DefaultConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, QueueDrained, report.Reason)
	assert.Empty(t, report.Errors)

	assert.Equal(t, 2, worker.completed)
	assert.Equal(t, 2, worker.forwarded)
	assert.Equal(t, 2, sink.received)
	assert.Equal(t, 0, worker.svc.InService())
	assert.Equal(t, 0, worker.svc.Waiting())
	// a single core serving two 1.0s tasks FCFS finishes the run at
	// t=2.0, not t=1.0: the second task could not have run concurrently
	// with the first.
	assert.Equal(t, 2.0, report.EndTime.Seconds())
}

// slicerHandler offers a single 2.5s task sliced into 1.0s pieces:
// three slices (1.0, 1.0, 0.5) complete at t=1.0, 2.0, 2.5, and Complete
// is invoked once per slice, only the last one Finished.
type slicerHandler struct {
	svc        *Service
	slices     int
	finishedAt *[]Time
}

func (h *slicerHandler) AtSimStart(ctx *Context) {
	_, _ = h.svc.Offer(ctx, &ServiceTask{OpType: "slice", Required: 2.5, Timeslice: 1.0, Priority: 1})
}

func (h *slicerHandler) HandleMessage(ctx *Context, msg *Message) {
	ev := msg.Content.(*ServiceEvent)
	h.slices++
	if err := h.svc.Complete(ctx, ev); err != nil {
		panic(err)
	}
	if ev.Finished {
		*h.finishedAt = append(*h.finishedAt, ctx.Now())
	}
}

func (h *slicerHandler) AtSimEnd(ctx *Context) {}

// TestService_TimeslicedTaskResumesAfterYield: a task whose Timeslice
// is smaller than Required resubmits its remainder instead of
// finishing in one shot.
func TestService_TimeslicedTaskResumesAfterYield(t *testing.T) {
	svc := NewService(1)
	var finishedAt []Time
	handler := &slicerHandler{svc: svc, finishedAt: &finishedAt}

	spec := BuildSpec{Modules: []ModuleSpec{{Path: "slicer", TypeTag: "slicer"}}}
	registry := HandlerRegistry{"slicer": func() Handler { return handler }}

	report, err := Run(spec, registry, DefaultConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, QueueDrained, report.Reason)
	assert.Empty(t, report.Errors)

	assert.Equal(t, 3, handler.slices)
	require.Len(t, finishedAt, 1)
	assert.Equal(t, 2.5, finishedAt[0].Seconds())
	assert.Equal(t, 0, svc.InService())
}
