package main

import (
	"fmt"

	"github.com/iti/desim"
)

// echoHandler is the sample handler bound to type_tag "echo": it
// forwards every message it receives out its "out" gate cluster
// (index 0), logging nothing further. It exists so desimrun can run
// an arbitrary spec built from this one handler type without a
// derive-macro pipeline (out of scope, §1) having to generate one.
type echoHandler struct {
	received int
}

func (h *echoHandler) AtSimStart(ctx *desim.Context) {}

func (h *echoHandler) HandleMessage(ctx *desim.Context, msg *desim.Message) {
	h.received++
	ctx.Send(msg, ctx.Gate("out", 0))
}

func (h *echoHandler) AtSimEnd(ctx *desim.Context) {
	fmt.Printf("module %s received %d messages\n", ctx.CurrentPath(), h.received)
}

// runWithTrace adapts a possibly-nil *desim.Trace into the nil Sink
// RunWithTrace expects, avoiding a non-nil interface wrapping a nil
// pointer.
func runWithTrace(spec desim.BuildSpec, registry desim.HandlerRegistry, config desim.Config, trace *desim.Trace) (desim.RunReport, error) {
	if trace == nil {
		return desim.RunWithTrace(spec, registry, config, nil, nil)
	}
	return desim.RunWithTrace(spec, registry, config, nil, trace)
}
