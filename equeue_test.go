package desim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCalendarQueue_PopMin_OrdersByTimeThenSequence covers property 1
// (monotonic dispatch): events come out in (time asc, seq asc) order
// regardless of insertion order.
func TestCalendarQueue_PopMin_OrdersByTimeThenSequence(t *testing.T) {
	cq := NewCalendarQueue()
	cq.Push(newSimulationEndEvent(SecondsToTime(5), 0))
	cq.Push(newSimulationEndEvent(SecondsToTime(1), 0))
	cq.Push(newSimulationEndEvent(SecondsToTime(3), 0))
	cq.Push(newSimulationEndEvent(SecondsToTime(1), 0)) // same time as the second push

	var times []float64
	var prev *Event
	for {
		ev, ok := cq.PopMin()
		if !ok {
			break
		}
		if prev != nil {
			assert.False(t, ev.Less(prev), "events must not regress")
		}
		times = append(times, ev.ScheduledTime.Seconds())
		prev = ev
	}
	assert.Equal(t, []float64{1, 1, 3, 5}, times)
}

func TestCalendarQueue_Push_AssignsIncreasingSequenceIDs(t *testing.T) {
	cq := NewCalendarQueue()
	a := cq.Push(newSimulationEndEvent(SecondsToTime(1), 0))
	b := cq.Push(newSimulationEndEvent(SecondsToTime(1), 0))
	assert.Less(t, a, b)
}

func TestCalendarQueue_PopMin_EmptyQueue_ReturnsFalse(t *testing.T) {
	cq := NewCalendarQueue()
	_, ok := cq.PopMin()
	assert.False(t, ok)
}

func TestCalendarQueue_Cancel_RemovesMatchingEvents(t *testing.T) {
	cq := NewCalendarQueue()
	target := ModuleID(7)
	cq.Push(newSelfMessageEvent(SecondsToTime(1), 0, &Message{}, target))
	cq.Push(newSelfMessageEvent(SecondsToTime(2), 0, &Message{}, ModuleID(8)))

	removed := cq.Cancel(func(ev *Event) bool {
		return ev.Kind == SelfMessage && ev.payload.(selfMessagePayload).target == target
	})
	require.Equal(t, 1, removed)
	assert.Equal(t, 1, cq.Len())

	ev, ok := cq.PopMin()
	require.True(t, ok)
	assert.Equal(t, ModuleID(8), ev.payload.(selfMessagePayload).target)
}

// TestCalendarQueue_PopMin_StressOrdering pushes a large randomized set
// of scheduled times through resize boundaries in both directions and
// checks the full pop sequence is non-decreasing.
func TestCalendarQueue_PopMin_StressOrdering(t *testing.T) {
	cq := NewCalendarQueue()
	r := rand.New(rand.NewSource(42))
	const n = 500
	for i := 0; i < n; i++ {
		cq.Push(newSimulationEndEvent(SecondsToTime(r.Float64()*100), 0))
	}
	assert.Equal(t, n, cq.Len())

	var prev *Event
	count := 0
	for {
		ev, ok := cq.PopMin()
		if !ok {
			break
		}
		if prev != nil {
			assert.False(t, ev.Less(prev), "pop sequence must be non-decreasing")
		}
		prev = ev
		count++
	}
	assert.Equal(t, n, count)
}
