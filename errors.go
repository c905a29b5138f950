package desim

// errors.go defines the error kinds of §7. Plain fmt.Errorf/errors.New
// with wrapped sentinels match the teacher's density and register
// (net.go, desc-topo.go, param.go lean on fmt.Errorf throughout, with
// panic reserved for "this should never happen" invariant breaks);
// the sentinels add the errors.Is discrimination §7 requires that the
// teacher's plain strings never needed.

import (
	"errors"
	"fmt"
)

var (
	// ErrBuild marks a BuildError: malformed spec, duplicate paths,
	// unresolved type, direction mismatch, cluster-size mismatch.
	ErrBuild = errors.New("build error")
	// ErrAlreadyConnected marks a gate that already has a forward or
	// back connection; a specialization of ErrBuild.
	ErrAlreadyConnected = fmt.Errorf("%w: gate already connected", ErrBuild)
	// ErrSchedule marks a ScheduleError: schedule_at in the past, or a
	// negative delta.
	ErrSchedule = errors.New("schedule error")
	// ErrRoute marks a RouteError: send on an unconnected outbound
	// gate, or a chain terminating on an output.
	ErrRoute = errors.New("route error")
	// ErrChannelDrop marks a ChannelDrop: queue capacity exceeded.
	ErrChannelDrop = errors.New("channel drop")
	// ErrHandlerPanic marks a HandlerPanic: recovered panic in user
	// code.
	ErrHandlerPanic = errors.New("handler panic")
	// ErrInvariant marks an InvariantViolation: kernel self-
	// inconsistency. Always fatal; surfaced with RunReport.reason
	// Failed.
	ErrInvariant = errors.New("invariant violation")
)

// ErrorRecord is one entry in RunReport.Errors: the error kind plus
// enough context to locate it.
type ErrorRecord struct {
	Kind      error
	ModuleID  ModuleID
	Detail    string
	Time      Time
}

func (e ErrorRecord) Error() string {
	return e.Detail
}
