package desim

// service.go adapts the teacher's TaskScheduler (scheduler.go:
// multi-core first-come-first-served service with priority queues and
// time-sliced preemption) into a generic optional helper any Handler
// can embed: a weighted FCFS resource modeling processing time before
// a handler emits a message. Generalized from "cores executing
// switch/route device operations" to "N units of a resource serving
// arbitrary priority-tagged work", since desim's Module is
// user-defined code rather than a fixed catalog of device operations.
//
// A Service has no privileged kernel access: completions travel
// through the ordinary ScheduleIn loopback path (a SelfMessage
// carrying a *ServiceEvent), so it only ever touches a handler through
// the same Context accessors every other handler uses.

import "sort"

// ServiceTask describes one unit of work offered to a Service.
type ServiceTask struct {
	OpType    string
	Required  float64 // total service time needed, seconds
	Priority  int     // higher runs first; <=0 is normalized to 1
	Timeslice float64 // max service given before yielding; 0 means "no slicing"
	Payload   any     // carried through to the completion event

	remaining float64
}

// ServiceEvent is the Content of the SelfMessage a Service schedules
// when a task's timeslice (or full requirement) elapses. A Handler
// that uses a Service checks incoming messages for this type at the
// top of HandleMessage.
type ServiceEvent struct {
	Task     *ServiceTask
	Finished bool
}

// Service is a generalized multi-core FCFS scheduler: up to Cores
// units of work run concurrently; excess work queues by Priority,
// FCFS within a priority.
type Service struct {
	Cores      int
	inService  int
	waiting    map[int][]*ServiceTask
	priorities []int
}

// NewService constructs a Service with the given concurrency.
func NewService(cores int) *Service {
	return &Service{Cores: cores, waiting: make(map[int][]*ServiceTask)}
}

// Offer admits task into the service. If a core is free it starts
// immediately (ctx.ScheduleIn delivers the eventual ServiceEvent back
// to the calling module); otherwise it queues. Returns true if the
// task started immediately.
func (s *Service) Offer(ctx *Context, task *ServiceTask) (bool, error) {
	if task.Priority <= 0 {
		task.Priority = 1
	}
	if task.remaining == 0 {
		task.remaining = task.Required
	}
	return s.admit(ctx, task)
}

func (s *Service) admit(ctx *Context, task *ServiceTask) (bool, error) {
	if s.inService >= s.Cores {
		s.enqueue(task)
		return false, nil
	}

	execute := task.remaining
	finished := true
	if task.Timeslice > 0 && task.remaining > task.Timeslice {
		execute = task.Timeslice
		finished = false
	}
	s.inService++

	msg := &Message{Content: &ServiceEvent{Task: task, Finished: finished}}
	if err := ctx.ScheduleIn(msg, execute); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) enqueue(task *ServiceTask) {
	pri := task.Priority
	if _, ok := s.waiting[pri]; !ok {
		s.waiting[pri] = nil
		s.priorities = append(s.priorities, pri)
		sort.Sort(sort.Reverse(sort.IntSlice(s.priorities)))
	}
	s.waiting[pri] = append(s.waiting[pri], task)
}

// Complete must be called by the handler when it receives a
// ServiceEvent for this Service: it frees the core, admits the next
// waiting task (if any), and — if the event wasn't Finished —
// resubmits the remainder of the same task.
func (s *Service) Complete(ctx *Context, ev *ServiceEvent) error {
	s.inService--
	if !ev.Finished {
		ev.Task.remaining -= ev.Task.Timeslice
		if _, err := s.admit(ctx, ev.Task); err != nil {
			return err
		}
	}
	return s.scheduleNext(ctx)
}

func (s *Service) scheduleNext(ctx *Context) error {
	if s.inService >= s.Cores {
		return nil // no free core: leave the waiting queues in FCFS order
	}
	for _, pri := range s.priorities {
		if len(s.waiting[pri]) > 0 {
			task := s.waiting[pri][0]
			s.waiting[pri] = s.waiting[pri][1:]
			if _, err := s.admit(ctx, task); err != nil {
				return err
			}
			return nil
		}
	}
	return nil
}

// InService reports how many units of the resource are occupied.
func (s *Service) InService() int { return s.inService }

// Waiting reports how many tasks are queued across all priorities.
func (s *Service) Waiting() int {
	n := 0
	for _, q := range s.waiting {
		n += len(q)
	}
	return n
}
